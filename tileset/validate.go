package tileset

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrDuplicateTile       = errors.New("duplicate tile id")
	ErrInvalidTile         = errors.New("invalid tile")
	ErrUnknownPropertyType = errors.New("unknown property type")
	ErrPropertyType        = errors.New("property value does not match its type")
	ErrDanglingWangTile    = errors.New("wang tile references unknown tile")
	ErrWangSignature       = errors.New("invalid wang signature")
	ErrWangSet             = errors.New("invalid wang set")
	ErrTileCount           = errors.New("tilecount mismatch")
)

// ValidationError collects every problem found in one tileset.
type ValidationError struct {
	Tileset  string
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("tileset %q: %d problem(s): %s", e.Tileset, len(e.Problems), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

// prepare builds the id index, parses typed property values and checks the
// structural invariants. It is called once by Decode.
func (ts *Tileset) prepare() error {
	var problems []error
	report := func(err error) {
		problems = append(problems, err)
	}

	if ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		report(fmt.Errorf("%w: tile size %dx%d", ErrInvalidTile, ts.TileWidth, ts.TileHeight))
	}
	if ts.Columns < 0 {
		report(fmt.Errorf("%w: negative columns %d", ErrInvalidTile, ts.Columns))
	}

	ts.index = make(map[int]int, len(ts.Tiles))
	for i := range ts.Tiles {
		t := &ts.Tiles[i]
		if t.ID < 0 {
			report(fmt.Errorf("%w: negative id %d", ErrInvalidTile, t.ID))
			continue
		}
		if _, dup := ts.index[t.ID]; dup {
			report(fmt.Errorf("%w: %d", ErrDuplicateTile, t.ID))
			continue
		}
		ts.index[t.ID] = i
		if !validWeight(t.Probability) {
			report(fmt.Errorf("%w: tile %d probability %v", ErrInvalidTile, t.ID, *t.Probability))
		}

		for j := range t.Properties {
			p := &t.Properties[j]
			if err := p.parse(); err != nil {
				report(fmt.Errorf("tile %d property %q: %w", t.ID, p.Name, err))
			}
		}
	}

	for i := range ts.WangSets {
		ws := &ts.WangSets[i]
		switch ws.Type {
		case WangCorner, WangEdge, WangMixed:
		default:
			report(fmt.Errorf("%w: %q has type %q", ErrWangSet, ws.Name, ws.Type))
		}
		for j := range ws.Colors {
			if _, err := ParseColor(ws.Colors[j].Color); err != nil {
				report(fmt.Errorf("%w: %q color %q: %v", ErrWangSet, ws.Name, ws.Colors[j].Name, err))
			}
			if !validWeight(ws.Colors[j].Probability) {
				report(fmt.Errorf("%w: %q color %q probability %v", ErrWangSet, ws.Name, ws.Colors[j].Name, *ws.Colors[j].Probability))
			}
		}
		seen := make(map[int]bool, len(ws.Tiles))
		for _, wt := range ws.Tiles {
			if !ts.HasTile(wt.TileID) {
				report(fmt.Errorf("%w: wangset %q tile %d", ErrDanglingWangTile, ws.Name, wt.TileID))
			}
			if seen[wt.TileID] {
				report(fmt.Errorf("%w: wangset %q lists tile %d twice", ErrWangSet, ws.Name, wt.TileID))
			}
			seen[wt.TileID] = true
			for _, v := range wt.WangID {
				if v > len(ws.Colors) {
					report(fmt.Errorf("%w: wangset %q tile %d uses color %d of %d", ErrWangSignature, ws.Name, wt.TileID, v, len(ws.Colors)))
					break
				}
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Tileset: ts.Name, Problems: problems}
	}
	return nil
}

// validWeight reports whether an optional probability is absent or a finite
// non-negative number.
func validWeight(p *float64) bool {
	return p == nil || (*p >= 0 && !math.IsInf(*p, 0))
}

// CheckTileCount compares the declared tilecount against the tiles the
// tileset actually addresses. Sparse collections make this informational.
func (ts *Tileset) CheckTileCount() error {
	if ts.IsCollection() {
		if ts.TileCount != len(ts.Tiles) {
			return fmt.Errorf("%w: %q declares %d tiles, lists %d", ErrTileCount, ts.Name, ts.TileCount, len(ts.Tiles))
		}
		return nil
	}

	for _, t := range ts.Tiles {
		if t.ID >= ts.TileCount {
			return fmt.Errorf("%w: %q tile %d is outside tilecount %d", ErrTileCount, ts.Name, t.ID, ts.TileCount)
		}
	}
	if ts.Image != nil && ts.TileWidth > 0 && ts.TileHeight > 0 {
		cols := (ts.Image.Width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
		rows := (ts.Image.Height - 2*ts.Margin + ts.Spacing) / (ts.TileHeight + ts.Spacing)
		if cols != ts.Columns {
			return fmt.Errorf("%w: %q image fits %d columns, declares %d", ErrTileCount, ts.Name, cols, ts.Columns)
		}
		if cols*rows != ts.TileCount {
			return fmt.Errorf("%w: %q image fits %d tiles, declares %d", ErrTileCount, ts.Name, cols*rows, ts.TileCount)
		}
	}
	return nil
}

// Warnings returns informational findings that do not fail a load.
func (ts *Tileset) Warnings() []string {
	var out []string
	if err := ts.CheckTileCount(); err != nil {
		out = append(out, err.Error())
	}
	return out
}
