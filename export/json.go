package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/milk9111/tilekit/tileset"
)

type jsonTileset struct {
	Name       string        `json:"name"`
	Version    string        `json:"version,omitempty"`
	TileWidth  int           `json:"tilewidth"`
	TileHeight int           `json:"tileheight"`
	Spacing    int           `json:"spacing"`
	Margin     int           `json:"margin"`
	TileCount  int           `json:"tilecount"`
	Columns    int           `json:"columns"`
	Image      *jsonImage    `json:"image,omitempty"`
	Tiles      []jsonTile    `json:"tiles"`
	WangSets   []jsonWangSet `json:"wangsets,omitempty"`
}

type jsonImage struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type jsonTile struct {
	ID          int            `json:"id"`
	Type        string         `json:"type,omitempty"`
	Probability *float64       `json:"probability,omitempty"`
	Rect        []int          `json:"rect,omitempty"`
	Image       string         `json:"image,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

type jsonWangSet struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Colors []jsonWangColor `json:"colors"`
	Tiles  []jsonWangTile  `json:"wangtiles"`
}

type jsonWangColor struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
}

type jsonWangTile struct {
	TileID int    `json:"tileid"`
	WangID [8]int `json:"wangid"`
}

// JSON writes ts as indented JSON. Tiles carry their resolved type and
// source rectangle so consumers need not redo the atlas math.
func JSON(w io.Writer, ts *tileset.Tileset) error {
	out := jsonTileset{
		Name:       ts.Name,
		Version:    ts.Version,
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		Spacing:    ts.Spacing,
		Margin:     ts.Margin,
		TileCount:  ts.TileCount,
		Columns:    ts.Columns,
		Tiles:      make([]jsonTile, 0, len(ts.Tiles)),
	}

	if ts.Image != nil {
		out.Image = &jsonImage{Source: ts.Image.Source, Width: ts.Image.Width, Height: ts.Image.Height}
	}

	for i := range ts.Tiles {
		t := &ts.Tiles[i]
		jt := jsonTile{
			ID:          t.ID,
			Type:        t.Type(),
			Probability: t.Probability,
			Image:       ts.ImageSource(t.ID),
		}
		if r, ok := ts.TileRect(t.ID); ok {
			jt.Rect = []int{r.Min.X, r.Min.Y, r.Dx(), r.Dy()}
		}
		if len(t.Properties) > 0 {
			jt.Properties = t.Properties.Map()
		}
		out.Tiles = append(out.Tiles, jt)
	}

	for i := range ts.WangSets {
		ws := &ts.WangSets[i]
		jw := jsonWangSet{Name: ws.Name, Type: ws.Type}
		for j := range ws.Colors {
			c := &ws.Colors[j]
			jw.Colors = append(jw.Colors, jsonWangColor{Name: c.Name, Color: c.Color, Probability: c.Weight()})
		}
		for _, wt := range ws.Tiles {
			jw.Tiles = append(jw.Tiles, jsonWangTile{TileID: wt.TileID, WangID: wt.WangID})
		}
		out.WangSets = append(out.WangSets, jw)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("export: json %s: %w", ts.Name, err)
	}
	return nil
}
