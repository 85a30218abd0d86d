package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/milk9111/tilekit/tileset"
)

var (
	ErrNoTarget = errors.New("tileset has no export directive")
	ErrFormat   = errors.New("unsupported export format")
)

const (
	FormatLua  = "lua"
	FormatJSON = "json"
)

// Write encodes ts in the given format.
func Write(w io.Writer, ts *tileset.Tileset, format string) error {
	switch format {
	case FormatLua:
		return Lua(w, ts)
	case FormatJSON:
		return JSON(w, ts)
	default:
		return fmt.Errorf("export: %s: %w %q", ts.Name, ErrFormat, format)
	}
}

// WriteTarget writes ts as Lua to the file named by its export directive,
// relative to dir, and returns the path written.
func WriteTarget(dir string, ts *tileset.Tileset) (string, error) {
	exp, ok := ts.ExportDirective()
	if !ok || exp.Target == "" {
		return "", fmt.Errorf("export: %s: %w", ts.Name, ErrNoTarget)
	}
	if exp.Format != "" && exp.Format != FormatLua {
		return "", fmt.Errorf("export: %s: %w %q", ts.Name, ErrFormat, exp.Format)
	}
	return writeFile(filepath.Join(dir, filepath.FromSlash(exp.Target)), ts, FormatLua)
}

// WriteFile writes ts into dir as <name>.<format>. Lua output honors the
// export directive when one is present.
func WriteFile(dir string, ts *tileset.Tileset, format string) (string, error) {
	switch format {
	case FormatLua, FormatJSON:
	default:
		return "", fmt.Errorf("export: %s: %w %q", ts.Name, ErrFormat, format)
	}
	if format == FormatLua {
		if _, ok := ts.ExportDirective(); ok {
			return WriteTarget(dir, ts)
		}
	}
	return writeFile(filepath.Join(dir, ts.Name+"."+format), ts, format)
}

func writeFile(p string, ts *tileset.Tileset, format string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", filepath.Dir(p), err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", p, err)
	}
	if err := Write(f, ts, format); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", p, err)
	}
	return p, nil
}
