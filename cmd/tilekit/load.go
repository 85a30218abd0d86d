package main

import (
	"fmt"
	"os"

	"github.com/milk9111/tilekit/config"
	"github.com/milk9111/tilekit/registry"
	"github.com/milk9111/tilekit/rules"
	"github.com/milk9111/tilekit/tilesets"
)

// loadRegistry loads the configured tileset directories, or the embedded
// tilesets when none are configured. Copies under ./tilesets override the
// embedded ones.
func loadRegistry(cfg config.Config) (*registry.Registry, error) {
	reg := registry.New(registry.Options{StrictTileCount: cfg.StrictTileCount})
	if len(cfg.Tilesets) == 0 {
		if err := reg.LoadFS(tilesets.FS(), "*.tsx"); err != nil {
			return nil, err
		}
		return reg, nil
	}
	for _, dir := range cfg.Tilesets {
		if err := reg.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func loadRules(cfg config.Config) ([]*rules.Rule, error) {
	var out []*rules.Rule
	if cfg.BuiltinRules {
		builtin, err := rules.Builtin()
		if err != nil {
			return nil, err
		}
		out = append(out, builtin...)
	}
	extra, err := rules.LoadFiles(cfg.Rules...)
	if err != nil {
		return nil, err
	}
	return append(out, extra...), nil
}

func isDir(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
	return info.IsDir(), nil
}
