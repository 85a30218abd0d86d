package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/tilekit/tileset"
)

// ErrPanic marks a rule that crashed the script VM.
var ErrPanic = errors.New("rules: script panicked")

// Finding is one problem reported by a rule.
type Finding struct {
	Rule    string
	Tileset string
	TileID  int
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s tile %d: %s", f.Rule, f.Tileset, f.TileID, f.Message)
}

// Rule is a compiled lint script. The script runs once per declared tile with
// the globals tileset, tile and report.
type Rule struct {
	Name     string
	compiled *tengo.Compiled
}

func Compile(name string, src []byte) (*Rule, error) {
	script := tengo.NewScript(src)
	_ = script.Add("tileset", "")
	_ = script.Add("tile", map[string]any{})
	_ = script.Add("report", &tengo.UserFunction{Name: "report", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return tengo.UndefinedValue, nil
	}})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("rules: compile %s: %w", name, err)
	}
	return &Rule{Name: name, compiled: compiled}, nil
}

// LoadFile compiles the script at filename; the rule is named after the file
// stem.
func LoadFile(filename string) (*Rule, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("rules: load %s: %w", filename, err)
	}
	return Compile(stem(filename), src)
}

func LoadFiles(filenames ...string) ([]*Rule, error) {
	out := make([]*Rule, 0, len(filenames))
	for _, f := range filenames {
		r, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Check runs the rule over every declared tile of ts. It works on a clone of
// the compiled script, so one Rule may check several tilesets concurrently.
func (r *Rule) Check(ts *tileset.Tileset) ([]Finding, error) {
	c := r.compiled.Clone()

	var findings []Finding
	current := -1
	report := &tengo.UserFunction{Name: "report", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		findings = append(findings, Finding{
			Rule:    r.Name,
			Tileset: ts.Name,
			TileID:  current,
			Message: objectAsString(args[0]),
		})
		return tengo.TrueValue, nil
	}}

	if err := c.Set("tileset", ts.Name); err != nil {
		return nil, err
	}
	if err := c.Set("report", report); err != nil {
		return nil, err
	}

	for i := range ts.Tiles {
		t := &ts.Tiles[i]
		current = t.ID
		obj, err := tileObject(t)
		if err != nil {
			return nil, fmt.Errorf("rules: %s: %s tile %d: %w", r.Name, ts.Name, t.ID, err)
		}
		if err := c.Set("tile", obj); err != nil {
			return nil, err
		}
		if err := run(c); err != nil {
			return nil, fmt.Errorf("rules: run %s on %s tile %d: %w", r.Name, ts.Name, t.ID, err)
		}
	}
	return findings, nil
}

// run executes a compiled rule, turning a runtime panic inside the VM
// (integer division by zero, for one) into an error.
func run(c *tengo.Compiled) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
	}()
	return c.Run()
}

// Run checks every tileset against every rule, rule by rule.
func Run(rules []*Rule, sets []*tileset.Tileset) ([]Finding, error) {
	var out []Finding
	for _, r := range rules {
		for _, ts := range sets {
			f, err := r.Check(ts)
			if err != nil {
				return nil, err
			}
			out = append(out, f...)
		}
	}
	return out, nil
}

func tileObject(t *tileset.Tile) (*tengo.ImmutableMap, error) {
	props := make(map[string]tengo.Object, len(t.Properties))
	for name, v := range t.Properties.Map() {
		obj, err := tengo.FromInterface(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		props[name] = obj
	}

	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"id":          &tengo.Int{Value: int64(t.ID)},
		"class":       &tengo.String{Value: t.Class},
		"type":        &tengo.String{Value: t.Type()},
		"probability": &tengo.Float{Value: t.Weight()},
		"properties":  &tengo.ImmutableMap{Value: props},
	}}, nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
