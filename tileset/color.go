package tileset

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses Tiled's "#rrggbb" and "#aarrggbb" color notation.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		return uint8(v), err
	}

	a := uint8(255)
	off := 0
	if len(hex) == 8 {
		v, err := parse(0)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
		}
		a = v
		off = 2
	}

	r, err := parse(off)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
	}
	g, err := parse(off + 2)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
	}
	b, err := parse(off + 4)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", s)
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// NearestColorName returns the SVG/CSS color name closest to c. Exact ties
// resolve to the alphabetically first name.
func NearestColorName(c color.NRGBA) string {
	best := ""
	bestDist := -1
	for name, named := range colornames.Map {
		dr := int(c.R) - int(named.R)
		dg := int(c.G) - int(named.G)
		db := int(c.B) - int(named.B)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist || (d == bestDist && name < best) {
			best = name
			bestDist = d
		}
	}
	return best
}

// RGBA returns the parsed wang color; invalid colors were rejected at load.
func (c *WangColor) RGBA() color.NRGBA {
	v, _ := ParseColor(c.Color)
	return v
}

// ColorName describes the wang color with its nearest named color.
func (c *WangColor) ColorName() string {
	return NearestColorName(c.RGBA())
}
