package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/milk9111/tilekit/tileset"
	"github.com/milk9111/tilekit/wang"
)

var (
	ErrDuplicateName = errors.New("duplicate tileset name")
	ErrNotFound      = errors.New("tileset not found")
)

type Options struct {
	// StrictTileCount turns tilecount mismatches into load errors.
	StrictTileCount bool
}

// Registry holds loaded tilesets by name. Tables are immutable once
// published; a reload swaps in a freshly parsed table.
type Registry struct {
	opts Options

	mu      sync.RWMutex
	entries map[string]*entry
	byPath  map[string]string
}

type entry struct {
	path      string
	ts        *tileset.Tileset
	resolvers map[string]*wang.Resolver
}

// TileRef is a tile together with the tileset that owns it.
type TileRef struct {
	Tileset string
	Tile    *tileset.Tile
}

func New(opts Options) *Registry {
	return &Registry{
		opts:    opts,
		entries: make(map[string]*entry),
		byPath:  make(map[string]string),
	}
}

func (r *Registry) build(src string, ts *tileset.Tileset) (*entry, error) {
	if r.opts.StrictTileCount {
		if err := ts.CheckTileCount(); err != nil {
			return nil, fmt.Errorf("registry: load %s: %w", src, err)
		}
	}
	e := &entry{
		path:      src,
		ts:        ts,
		resolvers: make(map[string]*wang.Resolver, len(ts.WangSets)),
	}
	for i := range ts.WangSets {
		ws := &ts.WangSets[i]
		e.resolvers[ws.Name] = wang.NewFromSet(ts, ws)
	}
	return e, nil
}

// LoadDir loads every .tsx file below dir.
func (r *Registry) LoadDir(dir string) error {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isTilesetFile(p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry: scan %s: %w", dir, err)
	}

	loaded := make([]*entry, 0, len(paths))
	for _, p := range paths {
		ts, err := tileset.Load(p)
		if err != nil {
			return fmt.Errorf("registry: %w", err)
		}
		e, err := r.build(p, ts)
		if err != nil {
			return err
		}
		loaded = append(loaded, e)
	}
	return r.publish(loaded)
}

// LoadFS loads every .tsx file of fsys matching pattern (fs.Glob syntax).
func (r *Registry) LoadFS(fsys fs.FS, pattern string) error {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("registry: glob %s: %w", pattern, err)
	}

	loaded := make([]*entry, 0, len(names))
	for _, name := range names {
		if !isTilesetFile(name) {
			continue
		}
		ts, err := tileset.LoadFS(fsys, name)
		if err != nil {
			return fmt.Errorf("registry: %w", err)
		}
		e, err := r.build(path.Clean(name), ts)
		if err != nil {
			return err
		}
		loaded = append(loaded, e)
	}
	return r.publish(loaded)
}

// publish adds a batch of tables. Either every table is published or, on a
// name conflict, none is.
func (r *Registry) publish(batch []*entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]string, len(batch))
	for _, e := range batch {
		name := e.ts.Name
		if other, ok := seen[name]; ok {
			return fmt.Errorf("registry: %w %q in %s and %s", ErrDuplicateName, name, other, e.path)
		}
		seen[name] = e.path
		if cur, ok := r.entries[name]; ok && cur.path != e.path {
			return fmt.Errorf("registry: %w %q in %s and %s", ErrDuplicateName, name, cur.path, e.path)
		}
	}

	for _, e := range batch {
		r.replaceLocked(e)
	}
	return nil
}

func (r *Registry) replaceLocked(e *entry) {
	if old, ok := r.byPath[e.path]; ok && old != e.ts.Name {
		delete(r.entries, old)
	}
	r.entries[e.ts.Name] = e
	r.byPath[e.path] = e.ts.Name
}

// Reload re-parses one file from disk and swaps its table in. On error the
// previous table stays published.
func (r *Registry) Reload(p string) error {
	ts, err := tileset.Load(p)
	if err != nil {
		return fmt.Errorf("registry: reload: %w", err)
	}
	e, err := r.build(p, ts)
	if err != nil {
		return err
	}
	return r.publish([]*entry{e})
}

// Remove drops the table loaded from path.
func (r *Registry) Remove(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.byPath[p]
	if !ok {
		return false
	}
	delete(r.byPath, p)
	delete(r.entries, name)
	return true
}

// Watch reloads tilesets in dirs and their subdirectories as they change
// until ctx is done.
func (r *Registry) Watch(ctx context.Context, dirs ...string) error {
	w, err := NewWatcher(dirs...)
	if err != nil {
		return fmt.Errorf("registry: watch: %w", err)
	}
	return r.Follow(ctx, w)
}

// Follow applies changes from w until ctx is done or w is closed, then
// closes w.
func (r *Registry) Follow(ctx context.Context, w *Watcher) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.apply(ch)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("Registry: watch error: %v", err)
		}
	}
}

func (r *Registry) apply(ch Change) {
	if ch.Removed {
		if _, err := os.Stat(ch.Path); errors.Is(err, fs.ErrNotExist) {
			if r.Remove(ch.Path) {
				log.Printf("Registry: removed %s", ch.Path)
			}
			return
		}
	}
	if err := r.Reload(ch.Path); err != nil {
		log.Printf("Registry: keeping previous table: %v", err)
		return
	}
	log.Printf("Registry: reloaded %s", ch.Path)
}

func (r *Registry) get(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) Tileset(name string) (*tileset.Tileset, bool) {
	e, ok := r.get(name)
	if !ok {
		return nil, false
	}
	return e.ts, true
}

// Path returns the file a tileset was loaded from.
func (r *Registry) Path(name string) (string, bool) {
	e, ok := r.get(name)
	if !ok {
		return "", false
	}
	return e.path, true
}

func (r *Registry) Tile(name string, id int) (*tileset.Tile, bool) {
	ts, ok := r.Tileset(name)
	if !ok {
		return nil, false
	}
	return ts.Tile(id)
}

// Names returns the loaded tileset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// All returns the loaded tilesets ordered by name.
func (r *Registry) All() []*tileset.Tileset {
	names := r.Names()
	out := make([]*tileset.Tileset, 0, len(names))
	for _, name := range names {
		if ts, ok := r.Tileset(name); ok {
			out = append(out, ts)
		}
	}
	return out
}

func (r *Registry) Resolver(name, wangSet string) (*wang.Resolver, error) {
	e, ok := r.get(name)
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q", ErrNotFound, name)
	}
	res, ok := e.resolvers[wangSet]
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q in tileset %q", wang.ErrNoWangSet, wangSet, name)
	}
	return res, nil
}

// find walks every declared tile in name order.
func (r *Registry) find(match func(*tileset.Tile) bool) []TileRef {
	var out []TileRef
	for _, ts := range r.All() {
		for i := range ts.Tiles {
			t := &ts.Tiles[i]
			if match(t) {
				out = append(out, TileRef{Tileset: ts.Name, Tile: t})
			}
		}
	}
	return out
}

// TilesOfType returns the tiles tagged typ ("wall", "enemy", ...).
func (r *Registry) TilesOfType(typ string) []TileRef {
	return r.find(func(t *tileset.Tile) bool { return t.Type() == typ })
}

// FindKey returns the tiles whose "key" property is key.
func (r *Registry) FindKey(key string) []TileRef {
	if key == "" {
		return nil
	}
	return r.find(func(t *tileset.Tile) bool { return t.Key() == key })
}

// FindItem returns the first tile spawning itemID.
func (r *Registry) FindItem(itemID string) (TileRef, bool) {
	if itemID == "" {
		return TileRef{}, false
	}
	refs := r.find(func(t *tileset.Tile) bool { return t.ItemID() == itemID })
	if len(refs) == 0 {
		return TileRef{}, false
	}
	return refs[0], true
}
