// Package tmxshift moves a rectangular region of an infinite Tiled map up or
// down. It edits the TMX text in place so that everything it does not touch
// is preserved byte for byte.
package tmxshift

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const DefaultTileSize = 16

var (
	ErrRegion = errors.New("invalid region")
	ErrChunk  = errors.New("malformed chunk")
)

var (
	chunkRe       = regexp.MustCompile(`<chunk x="(-?\d+)" y="(-?\d+)" width="(\d+)" height="(\d+)">\s*\n?([\s\S]*?)\n?\s*</chunk>`)
	layerRe       = regexp.MustCompile(`(<layer[^>]*>)([\s\S]*?)(</layer>)`)
	objectGroupRe = regexp.MustCompile(`(<objectgroup[^>]*>)([\s\S]*?)(</objectgroup>)`)
	objectRe      = regexp.MustCompile(`<object\s[^>]*>`)
	objectXRe     = regexp.MustCompile(`\bx="([^"]+)"`)
	objectYRe     = regexp.MustCompile(`\by="([^"]+)"`)
)

// Region is an inclusive rectangle in tile coordinates.
type Region struct {
	X1, Y1, X2, Y2 int
}

func (r Region) contains(x, y int) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

func (r Region) Validate() error {
	if r.X1 > r.X2 || r.Y1 > r.Y2 {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrRegion, r.X1, r.Y1, r.X2, r.Y2)
	}
	return nil
}

// Stats counts what a shift touched.
type Stats struct {
	Tiles   int
	Objects int
}

type chunk struct {
	x, y, w, h int
	rows       [][]uint32
}

type point struct{ x, y int }

// Shift moves every non-empty tile of each <layer> inside r by dy rows
// (negative is up) and moves objects whose position lies in r by dy tiles.
// Source cells are cleared; tiles may land in a different chunk, and tiles
// whose destination lies outside every chunk are dropped. Image layers are
// left alone.
func Shift(content string, r Region, dy, tileSize int) (string, Stats, error) {
	var stats Stats
	if err := r.Validate(); err != nil {
		return "", stats, fmt.Errorf("tmxshift: %w", err)
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	if dy == 0 {
		return content, stats, nil
	}

	var firstErr error
	content = replaceSubmatch(layerRe, content, func(m []string) string {
		body, moved, err := shiftLayer(m[2], r, dy)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m[0]
		}
		stats.Tiles += moved
		return m[1] + body + m[3]
	})
	if firstErr != nil {
		return "", Stats{}, fmt.Errorf("tmxshift: %w", firstErr)
	}

	content = replaceSubmatch(objectGroupRe, content, func(m []string) string {
		body := objectRe.ReplaceAllStringFunc(m[2], func(obj string) string {
			out, ok := shiftObject(obj, r, dy, tileSize)
			if ok {
				stats.Objects++
			}
			return out
		})
		return m[1] + body + m[3]
	})
	return content, stats, nil
}

func shiftLayer(body string, r Region, dy int) (string, int, error) {
	moving := make(map[point]uint32)

	for _, m := range chunkRe.FindAllStringSubmatch(body, -1) {
		c, err := parseChunk(m)
		if err != nil {
			return "", 0, err
		}
		if !c.overlapsX(r) || !c.overlapsY(r.Y1, r.Y2) {
			continue
		}
		for ly, row := range c.rows {
			for lx, v := range row {
				wx, wy := c.x+lx, c.y+ly
				if v != 0 && r.contains(wx, wy) {
					moving[point{wx, wy}] = v
				}
			}
		}
	}

	var parseErr error
	out := replaceSubmatch(chunkRe, body, func(m []string) string {
		c, err := parseChunk(m)
		if err != nil {
			parseErr = err
			return m[0]
		}
		src := c.overlapsY(r.Y1, r.Y2)
		dst := c.overlapsY(r.Y1+dy, r.Y2+dy)
		if !c.overlapsX(r) || (!src && !dst) {
			return m[0]
		}

		if src {
			for ly := range c.rows {
				for lx := range c.rows[ly] {
					if r.contains(c.x+lx, c.y+ly) {
						c.rows[ly][lx] = 0
					}
				}
			}
		}
		if dst {
			for p, v := range moving {
				lx, ly := p.x-c.x, p.y+dy-c.y
				if lx >= 0 && lx < c.w && ly >= 0 && ly < c.h {
					c.rows[ly][lx] = v
				}
			}
		}
		return c.String()
	})
	if parseErr != nil {
		return "", 0, parseErr
	}
	return out, len(moving), nil
}

func parseChunk(m []string) (*chunk, error) {
	c := &chunk{}
	c.x, _ = strconv.Atoi(m[1])
	c.y, _ = strconv.Atoi(m[2])
	c.w, _ = strconv.Atoi(m[3])
	c.h, _ = strconv.Atoi(m[4])

	lines := strings.Split(strings.TrimSpace(m[5]), "\n")
	if len(lines) != c.h {
		return nil, fmt.Errorf("%w at (%d,%d): %d rows, want %d", ErrChunk, c.x, c.y, len(lines), c.h)
	}
	c.rows = make([][]uint32, c.h)
	for i, line := range lines {
		cells := strings.Split(strings.TrimRight(strings.TrimSpace(line), ","), ",")
		if len(cells) != c.w {
			return nil, fmt.Errorf("%w at (%d,%d): row %d has %d cells, want %d", ErrChunk, c.x, c.y, i, len(cells), c.w)
		}
		row := make([]uint32, c.w)
		for j, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseUint(cell, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w at (%d,%d): %v", ErrChunk, c.x, c.y, err)
			}
			row[j] = uint32(v)
		}
		c.rows[i] = row
	}
	return c, nil
}

func (c *chunk) overlapsX(r Region) bool {
	return c.x+c.w > r.X1 && c.x <= r.X2
}

func (c *chunk) overlapsY(y1, y2 int) bool {
	return c.y+c.h > y1 && c.y <= y2
}

// String renders the chunk the way Tiled writes CSV chunks: a trailing comma
// on every row except the last.
func (c *chunk) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<chunk x="%d" y="%d" width="%d" height="%d">`+"\n", c.x, c.y, c.w, c.h)
	for i, row := range c.rows {
		for j, v := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatUint(uint64(v), 10))
		}
		if i < len(c.rows)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("</chunk>")
	return b.String()
}

func shiftObject(obj string, r Region, dy, tileSize int) (string, bool) {
	xm := objectXRe.FindStringSubmatch(obj)
	ym := objectYRe.FindStringSubmatch(obj)
	if xm == nil || ym == nil {
		return obj, false
	}
	x, err := strconv.ParseFloat(xm[1], 64)
	if err != nil {
		return obj, false
	}
	y, err := strconv.ParseFloat(ym[1], 64)
	if err != nil {
		return obj, false
	}

	ts := float64(tileSize)
	if x < float64(r.X1)*ts || x >= float64(r.X2+1)*ts || y < float64(r.Y1)*ts || y >= float64(r.Y2+1)*ts {
		return obj, false
	}

	ny := strconv.FormatFloat(y+float64(dy)*ts, 'f', -1, 64)
	loc := objectYRe.FindStringIndex(obj)
	return obj[:loc[0]] + `y="` + ny + `"` + obj[loc[1]:], true
}

// replaceSubmatch is ReplaceAllStringFunc with access to the submatches.
func replaceSubmatch(re *regexp.Regexp, s string, fn func([]string) string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if len(idx) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range idx {
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = s[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(fn(m))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// ShiftFile shifts the map at path in place after copying it to path.bak.
func ShiftFile(path string, r Region, dy, tileSize int) (Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stats{}, fmt.Errorf("tmxshift: stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("tmxshift: read %s: %w", path, err)
	}

	out, stats, err := Shift(string(data), r, dy, tileSize)
	if err != nil {
		return Stats{}, fmt.Errorf("%w (%s)", err, path)
	}

	if err := os.WriteFile(path+".bak", data, info.Mode().Perm()); err != nil {
		return Stats{}, fmt.Errorf("tmxshift: backup %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return Stats{}, fmt.Errorf("tmxshift: write %s: %w", path, err)
	}
	return stats, nil
}
