package tileset

import (
	"encoding/xml"
	"image"
)

// Tileset is a parsed Tiled tileset (.tsx). Once returned by Decode it is
// treated as read-only; nothing in this module mutates a loaded Tileset.
type Tileset struct {
	XMLName        xml.Name        `xml:"tileset"`
	Version        string          `xml:"version,attr,omitempty"`
	TiledVersion   string          `xml:"tiledversion,attr,omitempty"`
	Name           string          `xml:"name,attr"`
	TileWidth      int             `xml:"tilewidth,attr"`
	TileHeight     int             `xml:"tileheight,attr"`
	Spacing        int             `xml:"spacing,attr,omitempty"`
	Margin         int             `xml:"margin,attr,omitempty"`
	TileCount      int             `xml:"tilecount,attr"`
	Columns        int             `xml:"columns,attr"`
	EditorSettings *EditorSettings `xml:"editorsettings,omitempty"`
	Grid           *Grid           `xml:"grid,omitempty"`
	Image          *Image          `xml:"image,omitempty"`
	Tiles          []Tile          `xml:"tile"`
	WangSets       []WangSet       `xml:"wangsets>wangset,omitempty"`

	index map[int]int
}

type EditorSettings struct {
	Export *Export `xml:"export,omitempty"`
}

// Export is the editor's export directive, e.g. target="caves.lua" format="lua".
type Export struct {
	Target string `xml:"target,attr"`
	Format string `xml:"format,attr"`
}

type Grid struct {
	Orientation string `xml:"orientation,attr"`
	Width       int    `xml:"width,attr"`
	Height      int    `xml:"height,attr"`
}

type Image struct {
	Source string `xml:"source,attr"`
	Trans  string `xml:"trans,attr,omitempty"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// Tile is the metadata attached to one tile id. Grid tilesets only list
// tiles that carry metadata; the remaining ids are implicit.
type Tile struct {
	ID          int        `xml:"id,attr"`
	Class       string     `xml:"type,attr,omitempty"`
	Probability *float64   `xml:"probability,attr,omitempty"`
	X           int        `xml:"x,attr,omitempty"`
	Y           int        `xml:"y,attr,omitempty"`
	Width       int        `xml:"width,attr,omitempty"`
	Height      int        `xml:"height,attr,omitempty"`
	Properties  Properties `xml:"properties>property,omitempty"`
	Image       *Image     `xml:"image,omitempty"`
}

// IsCollection reports whether the tileset is a collection of images
// (columns="0") rather than a single atlas cut into a grid.
func (ts *Tileset) IsCollection() bool {
	return ts.Columns == 0
}

// ExportDirective returns the export target declared in the editor settings.
func (ts *Tileset) ExportDirective() (Export, bool) {
	if ts.EditorSettings == nil || ts.EditorSettings.Export == nil {
		return Export{}, false
	}
	return *ts.EditorSettings.Export, true
}

// Tile returns the declared metadata for id. For grid tilesets an id inside
// the atlas that has no <tile> element yields an empty Tile.
func (ts *Tileset) Tile(id int) (*Tile, bool) {
	if i, ok := ts.lookup(id); ok {
		return &ts.Tiles[i], true
	}
	if !ts.IsCollection() && id >= 0 && id < ts.TileCount {
		return &Tile{ID: id}, true
	}
	return nil, false
}

// HasTile reports whether id addresses a tile of this tileset.
func (ts *Tileset) HasTile(id int) bool {
	_, ok := ts.Tile(id)
	return ok
}

// Declared reports whether id has an explicit <tile> element.
func (ts *Tileset) Declared(id int) bool {
	_, ok := ts.lookup(id)
	return ok
}

func (ts *Tileset) lookup(id int) (int, bool) {
	if ts.index == nil {
		for i := range ts.Tiles {
			if ts.Tiles[i].ID == id {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := ts.index[id]
	return i, ok
}

// WangSet returns the wang set with the given name.
func (ts *Tileset) WangSet(name string) (*WangSet, bool) {
	for i := range ts.WangSets {
		if ts.WangSets[i].Name == name {
			return &ts.WangSets[i], true
		}
	}
	return nil, false
}

// TileRect returns the source rectangle of a tile within its image: the atlas
// cell for grid tilesets, the declared sub-rectangle (or the whole image) for
// collection tiles.
func (ts *Tileset) TileRect(id int) (image.Rectangle, bool) {
	if !ts.IsCollection() {
		if id < 0 || id >= ts.TileCount {
			return image.Rectangle{}, false
		}
		col := id % ts.Columns
		row := id / ts.Columns
		x := ts.Margin + col*(ts.TileWidth+ts.Spacing)
		y := ts.Margin + row*(ts.TileHeight+ts.Spacing)
		return image.Rect(x, y, x+ts.TileWidth, y+ts.TileHeight), true
	}

	t, ok := ts.Tile(id)
	if !ok {
		return image.Rectangle{}, false
	}
	if t.Width > 0 && t.Height > 0 {
		return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height), true
	}
	if t.Image != nil {
		return image.Rect(0, 0, t.Image.Width, t.Image.Height), true
	}
	return image.Rect(0, 0, ts.TileWidth, ts.TileHeight), true
}

// ImageSource returns the image a tile is cut from.
func (ts *Tileset) ImageSource(id int) string {
	if t, ok := ts.Tile(id); ok && t.Image != nil {
		return t.Image.Source
	}
	if ts.Image != nil && !ts.IsCollection() {
		return ts.Image.Source
	}
	return ""
}

// Type returns the gameplay tag of the tile: the "type" property, falling
// back to the tile's class attribute.
func (t *Tile) Type() string {
	if v := t.Properties.String("type", ""); v != "" {
		return v
	}
	return t.Class
}

func (t *Tile) Key() string {
	return t.Properties.String("key", "")
}

func (t *Tile) ItemID() string {
	return t.Properties.String("item_id", "")
}

// Offset returns the spawn offset in tiles (offset_x, offset_y), zero when absent.
func (t *Tile) Offset() (float64, float64) {
	return t.Properties.Float("offset_x", 0), t.Properties.Float("offset_y", 0)
}

// Weight is the tile's relative probability, 1 when not declared.
func (t *Tile) Weight() float64 {
	if t.Probability == nil {
		return 1
	}
	return *t.Probability
}
