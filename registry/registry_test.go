package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/milk9111/tilekit/tileset"
	"github.com/milk9111/tilekit/tilesets"
	"github.com/milk9111/tilekit/wang"
)

func loadEmbedded(t *testing.T) *Registry {
	t.Helper()
	r := New(Options{StrictTileCount: true})
	if err := r.LoadFS(tilesets.TilesetsFS, "*.tsx"); err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	return r
}

const smallSrc = `<?xml version="1.0" encoding="UTF-8"?>
<tileset name="%s" tilewidth="8" tileheight="8" tilecount="1" columns="0">
 <tile id="0">
  <properties>
   <property name="type" value="%s"/>
  </properties>
 </tile>
</tileset>
`

func small(name, typ string) []byte {
	return []byte(fmt.Sprintf(smallSrc, name, typ))
}

func TestEmbeddedQueries(t *testing.T) {
	r := loadEmbedded(t)

	want := []string{"NPCS", "caves_tileset", "decorations", "enemy_spawns", "gnomo_boss", "spawns", "tileset_dungeon", "tileset_garden", "unique_items"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names()=%v, want %v", got, want)
	}

	cases := []struct {
		name  string
		typ   string
		count int
		first string
	}{
		{"walls", "wall", 80, "caves_tileset"},
		{"enemies", "enemy", 16, "enemy_spawns"},
		{"bridges", "bridge", 3, "tileset_dungeon"},
		{"none", "dragon", 0, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			refs := r.TilesOfType(c.typ)
			if len(refs) != c.count {
				t.Fatalf("TilesOfType(%q) returned %d, want %d", c.typ, len(refs), c.count)
			}
			if c.count > 0 && refs[0].Tileset != c.first {
				t.Fatalf("first ref from %q, want %q", refs[0].Tileset, c.first)
			}
		})
	}

	if refs := r.FindKey("gnomo_boss"); len(refs) != 4 {
		t.Fatalf("FindKey(gnomo_boss) returned %d refs", len(refs))
	}
	if refs := r.FindKey(""); refs != nil {
		t.Fatalf("empty key should match nothing, got %d", len(refs))
	}

	ref, ok := r.FindItem("shield")
	if !ok || ref.Tileset != "unique_items" || ref.Tile.ID != 0 {
		t.Fatalf("FindItem(shield)=%+v ok=%v", ref, ok)
	}
	if _, ok := r.FindItem("excalibur"); ok {
		t.Fatalf("unknown item should not be found")
	}

	tile, ok := r.Tile("gnomo_boss", 2)
	if !ok || tile.Properties.String("gnomo_color", "") != "magenta" || !tile.Properties.Bool("flip", false) {
		t.Fatalf("unexpected gnomo tile %+v ok=%v", tile, ok)
	}
	if _, ok := r.Tile("missing", 0); ok {
		t.Fatalf("unknown tileset should not resolve")
	}
}

func TestResolverLookup(t *testing.T) {
	r := loadEmbedded(t)

	res, err := r.Resolver("tileset_dungeon", "Dungeon Platforms")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	if res.Type() != tileset.WangCorner {
		t.Fatalf("unexpected type %q", res.Type())
	}

	if _, err := r.Resolver("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Resolver("spawns", "x"); !errors.Is(err, wang.ErrNoWangSet) {
		t.Fatalf("expected ErrNoWangSet, got %v", err)
	}
}

func TestLoadFSFailsAtomically(t *testing.T) {
	fsys := fstest.MapFS{
		"a.tsx": {Data: small("alpha", "wall")},
		"b.tsx": {Data: []byte(`<tileset name="broken"`)},
	}
	r := New(Options{})
	if err := r.LoadFS(fsys, "*.tsx"); err == nil {
		t.Fatalf("expected load error")
	}
	if len(r.Names()) != 0 {
		t.Fatalf("nothing should be published on error, got %v", r.Names())
	}
}

func TestDuplicateNames(t *testing.T) {
	fsys := fstest.MapFS{
		"a.tsx": {Data: small("same", "wall")},
		"b.tsx": {Data: small("same", "enemy")},
	}
	r := New(Options{})
	if err := r.LoadFS(fsys, "*.tsx"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	r = New(Options{})
	if err := r.LoadFS(fstest.MapFS{"a.tsx": {Data: small("same", "wall")}}, "*.tsx"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.LoadFS(fstest.MapFS{"other/a.tsx": {Data: small("same", "wall")}}, "other/*.tsx"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName across loads, got %v", err)
	}
}

func TestStrictTileCount(t *testing.T) {
	src := []byte(`<tileset name="sparse" tilewidth="8" tileheight="8" tilecount="5" columns="0"><tile id="0"/></tileset>`)
	fsys := fstest.MapFS{"s.tsx": {Data: src}}

	if err := New(Options{}).LoadFS(fsys, "*.tsx"); err != nil {
		t.Fatalf("lenient load should pass: %v", err)
	}
	if err := New(Options{StrictTileCount: true}).LoadFS(fsys, "*.tsx"); !errors.Is(err, tileset.ErrTileCount) {
		t.Fatalf("strict load should fail with ErrTileCount, got %v", err)
	}
}

func writeFile(t *testing.T, p string, data []byte) {
	t.Helper()
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func TestLoadDirReloadRemove(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "room.tsx")
	writeFile(t, p, small("room", "wall"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))

	r := New(Options{})
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if got, _ := r.Path("room"); got != p {
		t.Fatalf("Path(room)=%q, want %q", got, p)
	}
	tile, _ := r.Tile("room", 0)
	if tile.Type() != "wall" {
		t.Fatalf("type %q", tile.Type())
	}

	t.Run("reload_swaps_table", func(t *testing.T) {
		before, _ := r.Tileset("room")
		writeFile(t, p, small("room", "enemy"))
		if err := r.Reload(p); err != nil {
			t.Fatalf("reload: %v", err)
		}
		tile, _ := r.Tile("room", 0)
		if tile.Type() != "enemy" {
			t.Fatalf("reload not applied, type %q", tile.Type())
		}
		if bt, _ := before.Tile(0); bt.Type() != "wall" {
			t.Fatalf("published table was mutated")
		}
	})

	t.Run("bad_reload_keeps_previous", func(t *testing.T) {
		writeFile(t, p, []byte("<tileset"))
		if err := r.Reload(p); err == nil {
			t.Fatalf("expected reload error")
		}
		if _, ok := r.Tileset("room"); !ok {
			t.Fatalf("previous table should stay published")
		}
	})

	t.Run("rename_inside_file", func(t *testing.T) {
		writeFile(t, p, small("hall", "wall"))
		if err := r.Reload(p); err != nil {
			t.Fatalf("reload: %v", err)
		}
		if _, ok := r.Tileset("room"); ok {
			t.Fatalf("old name should be dropped")
		}
		if _, ok := r.Tileset("hall"); !ok {
			t.Fatalf("new name should be published")
		}
	})

	t.Run("apply_removal", func(t *testing.T) {
		if err := os.Remove(p); err != nil {
			t.Fatalf("remove: %v", err)
		}
		r.apply(Change{Path: p, Removed: true})
		if len(r.Names()) != 0 {
			t.Fatalf("expected empty registry, got %v", r.Names())
		}
	})
}

// follow starts applying changes under dir. The watcher is registered before
// it returns so edits made afterwards are seen.
func follow(t *testing.T, r *Registry, dir string) {
	t.Helper()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Follow(ctx, w) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("follow: %v", err)
		}
	})
}

// saveInParts truncates p and writes data in two chunks, the way editors
// that stream their output save a file.
func saveInParts(t *testing.T, p string, data []byte) {
	t.Helper()
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	half := len(data) / 2
	if _, err := f.Write(data[:half]); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := f.Write(data[half:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// waitForType polls without touching the file again.
func waitForType(r *Registry, name, want string) string {
	var got string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tile, ok := r.Tile(name, 0); ok {
			got = tile.Type()
			if got == want {
				return got
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return got
}

func TestWatchReloads(t *testing.T) {
	cases := []struct {
		name string
		sub  string
	}{
		{"top_level", ""},
		{"subdirectory", filepath.Join("sub", "deep")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.MkdirAll(filepath.Join(dir, c.sub), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			p := filepath.Join(dir, c.sub, "live.tsx")
			writeFile(t, p, small("live", "wall"))

			r := New(Options{})
			if err := r.LoadDir(dir); err != nil {
				t.Fatalf("load dir: %v", err)
			}
			follow(t, r, dir)

			saveInParts(t, p, small("live", "enemy"))
			if got := waitForType(r, "live", "enemy"); got != "enemy" {
				t.Fatalf("after one save type = %q, want enemy", got)
			}
		})
	}
}

func TestWatchNewDirectory(t *testing.T) {
	dir := t.TempDir()
	r := New(Options{})
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	follow(t, r, dir)

	sub := filepath.Join(dir, "later")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "late.tsx"), small("late", "bridge"))

	if got := waitForType(r, "late", "bridge"); got != "bridge" {
		t.Fatalf("tileset in new directory not loaded, type %q", got)
	}
}
