package tileset

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Wang set types.
const (
	WangCorner = "corner"
	WangEdge   = "edge"
	WangMixed  = "mixed"
)

// WangID positions, clockwise from the top edge.
const (
	WangTop = iota
	WangTopRight
	WangRight
	WangBottomRight
	WangBottom
	WangBottomLeft
	WangLeft
	WangTopLeft
)

type WangSet struct {
	Name   string      `xml:"name,attr"`
	Type   string      `xml:"type,attr"`
	Tile   int         `xml:"tile,attr"`
	Colors []WangColor `xml:"wangcolor"`
	Tiles  []WangTile  `xml:"wangtile"`
}

// WangColor is a terrain class. Colors are referenced 1-based from wang ids;
// 0 means unconstrained.
type WangColor struct {
	Name        string   `xml:"name,attr"`
	Color       string   `xml:"color,attr"`
	Tile        int      `xml:"tile,attr"`
	Probability *float64 `xml:"probability,attr,omitempty"`
}

type WangTile struct {
	TileID int    `xml:"tileid,attr"`
	WangID WangID `xml:"wangid,attr"`
}

// WangID is the 8-value signature of a tile: edge, corner, edge, corner, ...
// starting at the top edge and going clockwise.
type WangID [8]int

func (w WangID) String() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// ParseWangID parses the comma separated form used by the wangid attribute.
func ParseWangID(s string) (WangID, error) {
	var id WangID
	parts := strings.Split(s, ",")
	if len(parts) != len(id) {
		return id, fmt.Errorf("%w: %q has %d values, want %d", ErrWangSignature, s, len(parts), len(id))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return id, fmt.Errorf("%w: %q: %v", ErrWangSignature, s, err)
		}
		if v < 0 {
			return id, fmt.Errorf("%w: %q has negative color %d", ErrWangSignature, s, v)
		}
		id[i] = v
	}
	return id, nil
}

func (w *WangID) UnmarshalXMLAttr(attr xml.Attr) error {
	id, err := ParseWangID(attr.Value)
	if err != nil {
		return err
	}
	*w = id
	return nil
}

func (w WangID) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: w.String()}, nil
}

// Corners returns the corner colors as top-left, top-right, bottom-right, bottom-left.
func (w WangID) Corners() [4]int {
	return [4]int{w[WangTopLeft], w[WangTopRight], w[WangBottomRight], w[WangBottomLeft]}
}

// Edges returns the edge colors as top, right, bottom, left.
func (w WangID) Edges() [4]int {
	return [4]int{w[WangTop], w[WangRight], w[WangBottom], w[WangLeft]}
}

// IsCorner reports whether position i of a wang id is a corner.
func IsCorner(i int) bool {
	return i%2 == 1
}

// Weight is the color's relative probability, 1 when not declared.
func (c *WangColor) Weight() float64 {
	if c.Probability == nil {
		return 1
	}
	return *c.Probability
}

// Color returns the 1-based wang color, nil for 0 or out-of-range values.
func (ws *WangSet) Color(v int) *WangColor {
	if v < 1 || v > len(ws.Colors) {
		return nil
	}
	return &ws.Colors[v-1]
}

// Positions reports which wang id positions take part in matching for the
// set's type.
func (ws *WangSet) Positions() [8]bool {
	var out [8]bool
	for i := range out {
		switch ws.Type {
		case WangCorner:
			out[i] = IsCorner(i)
		case WangEdge:
			out[i] = !IsCorner(i)
		default:
			out[i] = true
		}
	}
	return out
}
