package tilesets

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed *.tsx
var TilesetsFS embed.FS

// Load returns a tileset document by name. A copy under ./tilesets on disk
// takes precedence over the embedded one so edits show up without a rebuild.
func Load(name string) ([]byte, error) {
	clean := cleanTilesetPath(name)
	if data, err := os.ReadFile(diskTilesetPath(clean)); err == nil {
		return data, nil
	}
	return TilesetsFS.ReadFile(clean)
}

// FS returns the embedded tilesets with ./tilesets on disk layered on top.
// Listing shows the embedded files; reading a file prefers the disk copy.
func FS() fs.FS {
	return overlayFS{}
}

type overlayFS struct{}

func (overlayFS) Open(name string) (fs.File, error) {
	if fs.ValidPath(name) && strings.HasSuffix(name, ".tsx") {
		if f, err := os.Open(diskTilesetPath(name)); err == nil {
			return f, nil
		}
	}
	return TilesetsFS.Open(name)
}

func (overlayFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return Load(name)
}

// Names lists the embedded tileset files.
func Names() []string {
	entries, err := fs.Glob(TilesetsFS, "*.tsx")
	if err != nil {
		return nil
	}
	sort.Strings(entries)
	return entries
}

func cleanTilesetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "tilesets/"); ok {
		s = after
	}
	if !strings.HasSuffix(s, ".tsx") {
		s += ".tsx"
	}
	return s
}

func diskTilesetPath(clean string) string {
	return filepath.Join("tilesets", filepath.FromSlash(clean))
}
