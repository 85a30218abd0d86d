package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const DefaultFile = "tilekit.yaml"

const (
	FormatLua  = "lua"
	FormatJSON = "json"
)

var ErrInvalid = errors.New("invalid config")

// Config is the project file. Relative paths are resolved against the
// directory holding the file.
type Config struct {
	Tilesets        []string `yaml:"tilesets"`
	ExportDir       string   `yaml:"export_dir"`
	ExportFormat    string   `yaml:"export_format"`
	StrictTileCount bool     `yaml:"strict_tilecount"`
	BuiltinRules    bool     `yaml:"builtin_rules"`
	Rules           []string `yaml:"rules"`
}

func Default() Config {
	return Config{
		ExportDir:    ".",
		ExportFormat: FormatLua,
		BuiltinRules: true,
	}
}

// LoadFile reads a YAML document from filename into a T.
func LoadFile[T any](filename string) (T, error) {
	var zero T
	data, err := os.ReadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("config: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = FormatLua
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", filename, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", filename, err)
	}
	cfg.resolve(filepath.Dir(filename))
	return cfg, nil
}

// LoadOrDefault loads filename, falling back to Default when it does not
// exist.
func LoadOrDefault(filename string) (Config, error) {
	cfg, err := Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	switch c.ExportFormat {
	case FormatLua, FormatJSON:
	default:
		return fmt.Errorf("config: %w: export_format %q", ErrInvalid, c.ExportFormat)
	}
	for _, dir := range c.Tilesets {
		if dir == "" {
			return fmt.Errorf("config: %w: empty tilesets entry", ErrInvalid)
		}
	}
	for _, r := range c.Rules {
		if filepath.Ext(r) != ".tengo" {
			return fmt.Errorf("config: %w: rule %q is not a .tengo file", ErrInvalid, r)
		}
	}
	return nil
}

func (c *Config) resolve(base string) {
	join := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, dir := range c.Tilesets {
		c.Tilesets[i] = join(dir)
	}
	for i, r := range c.Rules {
		c.Rules[i] = join(r)
	}
	c.ExportDir = join(c.ExportDir)
}

// Grid is a vertex color grid for autotiling.
type Grid struct {
	Vertices [][]int `yaml:"vertices"`
}

func LoadGrid(filename string) (Grid, error) {
	g, err := LoadFile[Grid](filename)
	if err != nil {
		return Grid{}, err
	}
	if len(g.Vertices) == 0 {
		return Grid{}, fmt.Errorf("config: %w: %s has no vertices", ErrInvalid, filename)
	}
	return g, nil
}
