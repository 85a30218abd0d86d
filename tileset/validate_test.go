package tileset

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/milk9111/tilekit/tilesets"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{
			"duplicate_tile",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="2" columns="0"><tile id="1"/><tile id="1"/></tileset>`,
			ErrDuplicateTile,
		},
		{
			"unknown_property_type",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="1" columns="0"><tile id="0"><properties><property name="p" type="vector" value="1"/></properties></tile></tileset>`,
			ErrUnknownPropertyType,
		},
		{
			"bad_int",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="1" columns="0"><tile id="0"><properties><property name="gold" type="int" value="five"/></properties></tile></tileset>`,
			ErrPropertyType,
		},
		{
			"dangling_collection_ref",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="1" columns="0"><tile id="0"/>
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="#ff0000" tile="-1" probability="1"/>
			<wangtile tileid="3" wangid="0,1,0,1,0,1,0,1"/></wangset></wangsets></tileset>`,
			ErrDanglingWangTile,
		},
		{
			"dangling_grid_ref",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="#ff0000" tile="-1" probability="1"/>
			<wangtile tileid="4" wangid="0,1,0,1,0,1,0,1"/></wangset></wangsets></tileset>`,
			ErrDanglingWangTile,
		},
		{
			"signature_arity",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="#ff0000" tile="-1" probability="1"/>
			<wangtile tileid="0" wangid="0,1,0,1"/></wangset></wangsets></tileset>`,
			ErrWangSignature,
		},
		{
			"signature_color_range",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="#ff0000" tile="-1" probability="1"/>
			<wangtile tileid="0" wangid="0,1,0,2,0,1,0,1"/></wangset></wangsets></tileset>`,
			ErrWangSignature,
		},
		{
			"wangset_type",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="hex" tile="-1"></wangset></wangsets></tileset>`,
			ErrWangSet,
		},
		{
			"wang_color",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="red" tile="-1"/></wangset></wangsets></tileset>`,
			ErrWangSet,
		},
		{
			"float_property_inf",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="1" columns="0"><tile id="0"><properties><property name="speed" type="float" value="inf"/></properties></tile></tileset>`,
			ErrPropertyType,
		},
		{
			"tile_probability_nan",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="1" columns="0"><tile id="0" probability="NaN"/></tileset>`,
			ErrInvalidTile,
		},
		{
			"wang_color_probability_inf",
			`<tileset name="d" tilewidth="8" tileheight="8" tilecount="4" columns="2">
			<wangsets><wangset name="w" type="corner" tile="-1"><wangcolor name="a" color="#ff0000" tile="-1" probability="+Inf"/></wangset></wangsets></tileset>`,
			ErrWangSet,
		},
		{
			"tile_size",
			`<tileset name="d" tilewidth="0" tileheight="8" tilecount="0" columns="0"></tileset>`,
			ErrInvalidTile,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(header + c.src))
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestDecodeMalformedXML(t *testing.T) {
	_, err := Parse([]byte(header + `<tileset name="x" tilewidth="8"><tile id="0"></tileset>`))
	if err == nil {
		t.Fatalf("expected malformed XML to fail")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("malformed XML should not reach validation: %v", err)
	}
}

func TestValidationCollectsAllProblems(t *testing.T) {
	src := header + `<tileset name="multi" tilewidth="8" tileheight="8" tilecount="2" columns="0">
	<tile id="0"><properties><property name="a" type="bool" value="maybe"/></properties></tile>
	<tile id="0"/>
	</tileset>`
	_, err := Parse([]byte(src))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(verr.Problems), verr)
	}
	if !errors.Is(err, ErrPropertyType) || !errors.Is(err, ErrDuplicateTile) {
		t.Fatalf("both sentinels should match: %v", err)
	}
	if !strings.Contains(err.Error(), `"multi"`) {
		t.Fatalf("error should name the tileset: %v", err)
	}
}

func TestCheckTileCount(t *testing.T) {
	cases := []struct {
		name string
		src  string
		bad  bool
	}{
		{"collection_match", `<tileset name="c" tilewidth="8" tileheight="8" tilecount="2" columns="0"><tile id="0"/><tile id="9"/></tileset>`, false},
		{"collection_mismatch", `<tileset name="c" tilewidth="8" tileheight="8" tilecount="3" columns="0"><tile id="0"/></tileset>`, true},
		{"grid_match", `<tileset name="g" tilewidth="8" tileheight="8" tilecount="4" columns="2"><image source="a.png" width="16" height="16"/></tileset>`, false},
		{"grid_image_mismatch", `<tileset name="g" tilewidth="8" tileheight="8" tilecount="6" columns="2"><image source="a.png" width="16" height="16"/></tileset>`, true},
		{"grid_tile_outside", `<tileset name="g" tilewidth="8" tileheight="8" tilecount="4" columns="2"><tile id="4"/></tileset>`, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts, err := Parse([]byte(header + c.src))
			if err != nil {
				t.Fatalf("tilecount problems must not fail the load: %v", err)
			}
			err = ts.CheckTileCount()
			if c.bad != (err != nil) {
				t.Fatalf("CheckTileCount()=%v, want bad=%v", err, c.bad)
			}
			if c.bad && !errors.Is(err, ErrTileCount) {
				t.Fatalf("expected ErrTileCount, got %v", err)
			}
			if c.bad != (len(ts.Warnings()) > 0) {
				t.Fatalf("Warnings() disagree with CheckTileCount: %v", ts.Warnings())
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"grid.tsx", "collection.tsx"} {
		t.Run(name, func(t *testing.T) {
			assertRoundTrip(t, mustLoad(t, name))
		})
	}
}

func TestEmbeddedTilesets(t *testing.T) {
	names := tilesets.Names()
	if len(names) == 0 {
		t.Fatalf("no embedded tilesets")
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			ts, err := LoadFS(tilesets.TilesetsFS, name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			for _, ws := range ts.WangSets {
				for _, wt := range ws.Tiles {
					if !ts.HasTile(wt.TileID) {
						t.Fatalf("wang tile %d does not exist", wt.TileID)
					}
				}
			}
			if w := ts.Warnings(); len(w) > 0 {
				t.Fatalf("unexpected tilecount warnings: %v", w)
			}
			assertRoundTrip(t, ts)
		})
	}
}

func assertRoundTrip(t *testing.T, ts *Tileset) {
	t.Helper()
	data, err := ts.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(ts, again) {
		t.Fatalf("round trip changed the table\nbefore: %+v\nafter:  %+v", ts, again)
	}
}
