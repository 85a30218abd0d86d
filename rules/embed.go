package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Builtin compiles the embedded rule scripts in name order.
func Builtin() ([]*Rule, error) {
	names, err := fs.Glob(ScriptsFS, "scripts/*.tengo")
	if err != nil {
		return nil, fmt.Errorf("rules: glob builtin: %w", err)
	}
	out := make([]*Rule, 0, len(names))
	for _, name := range names {
		src, err := ScriptsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("rules: load %s: %w", name, err)
		}
		r, err := Compile(stem(path.Base(name)), src)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
