package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/milk9111/tilekit/tileset"
)

const luaVersion = "5.1"

// field is one entry of a Lua table. An empty key makes it an array item.
type field struct {
	key     string
	bracket bool
	value   any
}

type table []field

// inline is rendered on a single line, e.g. wang ids and colors.
type inline []int

func (t *table) set(key string, v any) {
	*t = append(*t, field{key: key, value: v})
}

func (t *table) prop(key string, v any) {
	*t = append(*t, field{key: key, bracket: true, value: v})
}

func (t *table) item(v any) {
	*t = append(*t, field{value: v})
}

// Lua writes ts in the Tiled Lua tileset layout.
func Lua(w io.Writer, ts *tileset.Tileset) error {
	bw := bufio.NewWriter(w)
	lw := &luaWriter{w: bw}
	lw.printf("return ")
	lw.value(luaTileset(ts))
	lw.printf("\n")
	if lw.err != nil {
		return fmt.Errorf("export: lua %s: %w", ts.Name, lw.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: lua %s: %w", ts.Name, err)
	}
	return nil
}

func luaTileset(ts *tileset.Tileset) table {
	var t table
	t.set("version", ts.Version)
	t.set("luaversion", luaVersion)
	t.set("tiledversion", ts.TiledVersion)
	t.set("name", ts.Name)
	t.set("tilewidth", ts.TileWidth)
	t.set("tileheight", ts.TileHeight)
	t.set("spacing", ts.Spacing)
	t.set("margin", ts.Margin)
	t.set("columns", ts.Columns)
	if ts.Image != nil {
		t.set("image", ts.Image.Source)
		t.set("imagewidth", ts.Image.Width)
		t.set("imageheight", ts.Image.Height)
		if ts.Image.Trans != "" {
			t.set("transparentcolor", "#"+strings.TrimPrefix(ts.Image.Trans, "#"))
		}
	}
	if ts.Grid != nil {
		var g table
		g.set("orientation", ts.Grid.Orientation)
		g.set("width", ts.Grid.Width)
		g.set("height", ts.Grid.Height)
		t.set("grid", g)
	}
	t.set("properties", table{})

	wangsets := table{}
	for i := range ts.WangSets {
		wangsets.item(luaWangSet(&ts.WangSets[i]))
	}
	t.set("wangsets", wangsets)

	t.set("tilecount", ts.TileCount)
	tiles := table{}
	for i := range ts.Tiles {
		tiles.item(luaTile(&ts.Tiles[i]))
	}
	t.set("tiles", tiles)
	return t
}

func luaTile(tile *tileset.Tile) table {
	var t table
	t.set("id", tile.ID)
	if tile.Class != "" {
		t.set("type", tile.Class)
	}
	if tile.Probability != nil {
		t.set("probability", *tile.Probability)
	}
	if len(tile.Properties) > 0 {
		props := table{}
		for i := range tile.Properties {
			p := &tile.Properties[i]
			props.prop(p.Name, luaProperty(p))
		}
		t.set("properties", props)
	}
	if tile.Image != nil {
		t.set("image", tile.Image.Source)
		w, h := tile.Width, tile.Height
		if w == 0 {
			w = tile.Image.Width
		}
		if h == 0 {
			h = tile.Image.Height
		}
		t.set("x", tile.X)
		t.set("y", tile.Y)
		t.set("width", w)
		t.set("height", h)
	}
	return t
}

func luaProperty(p *tileset.Property) any {
	if p.Kind() == tileset.TypeObject {
		var obj table
		obj.set("id", p.Parsed())
		return obj
	}
	return p.Parsed()
}

func luaWangSet(ws *tileset.WangSet) table {
	var t table
	t.set("name", ws.Name)
	t.set("class", "")
	t.set("tile", ws.Tile)
	t.set("wangsettype", ws.Type)
	t.set("properties", table{})

	colors := table{}
	for i := range ws.Colors {
		c := &ws.Colors[i]
		rgba := c.RGBA()
		col := inline{int(rgba.R), int(rgba.G), int(rgba.B)}
		if rgba.A != 0xff {
			col = append(col, int(rgba.A))
		}
		var ct table
		ct.set("color", col)
		ct.set("name", c.Name)
		ct.set("class", "")
		ct.set("probability", c.Weight())
		ct.set("tile", c.Tile)
		ct.set("properties", table{})
		colors.item(ct)
	}
	t.set("colors", colors)

	tiles := table{}
	for _, wt := range ws.Tiles {
		var tt table
		tt.set("wangid", inline(wt.WangID[:]))
		tt.set("tileid", wt.TileID)
		tiles.item(tt)
	}
	t.set("wangtiles", tiles)
	return t
}

type luaWriter struct {
	w     *bufio.Writer
	depth int
	err   error
}

func (lw *luaWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

func (lw *luaWriter) indent() {
	lw.printf("%s", strings.Repeat("  ", lw.depth))
}

func (lw *luaWriter) value(v any) {
	switch v := v.(type) {
	case table:
		lw.table(v)
	case inline:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		lw.printf("{ %s }", strings.Join(parts, ", "))
	case string:
		lw.printf("%s", luaQuote(v))
	case int:
		lw.printf("%d", v)
	case float64:
		lw.printf("%s", strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		lw.printf("%t", v)
	case nil:
		lw.printf("nil")
	default:
		lw.printf("%s", luaQuote(fmt.Sprint(v)))
	}
}

func (lw *luaWriter) table(t table) {
	if len(t) == 0 {
		lw.printf("{}")
		return
	}
	lw.printf("{\n")
	lw.depth++
	for i, f := range t {
		lw.indent()
		switch {
		case f.key == "":
		case f.bracket:
			lw.printf("[%s] = ", luaQuote(f.key))
		default:
			lw.printf("%s = ", f.key)
		}
		lw.value(f.value)
		if i < len(t)-1 {
			lw.printf(",")
		}
		lw.printf("\n")
	}
	lw.depth--
	lw.indent()
	lw.printf("}")
}

// luaQuote quotes s as a Lua 5.1 string literal. Control bytes use decimal
// escapes since 5.1 has no \x form.
func luaQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
