package tileset

import (
	"fmt"
	"math"
	"strconv"
)

// Property type names as written in the type attribute. An absent type
// attribute means string.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeColor  = "color"
	TypeFile   = "file"
	TypeObject = "object"
)

// Property is a typed name/value annotation on a tile.
type Property struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`

	parsed any
}

type Properties []Property

// Kind returns the declared type with the string default applied.
func (p *Property) Kind() string {
	if p.Type == "" {
		return TypeString
	}
	return p.Type
}

// Raw returns the value string. Multi-line string values are stored as
// element text instead of the value attribute.
func (p *Property) Raw() string {
	if p.Value == "" && p.Text != "" {
		return p.Text
	}
	return p.Value
}

// Parsed returns the typed value: string, int, float64 or bool.
func (p *Property) Parsed() any {
	if p.parsed == nil {
		v, err := parseValue(p.Kind(), p.Raw())
		if err != nil {
			return nil
		}
		return v
	}
	return p.parsed
}

func (p *Property) parse() error {
	v, err := parseValue(p.Kind(), p.Raw())
	if err != nil {
		return err
	}
	p.parsed = v
	return nil
}

func parseValue(kind, raw string) (any, error) {
	switch kind {
	case TypeString, TypeFile:
		return raw, nil
	case TypeColor:
		if raw == "" {
			return raw, nil
		}
		if _, err := ParseColor(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPropertyType, err)
		}
		return raw, nil
	case TypeInt, TypeObject:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrPropertyType, raw)
		}
		return v, nil
	case TypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q is not a finite float", ErrPropertyType, raw)
		}
		return v, nil
	case TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrPropertyType, raw)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPropertyType, kind)
	}
}

func (ps Properties) Get(name string) (*Property, bool) {
	for i := range ps {
		if ps[i].Name == name {
			return &ps[i], true
		}
	}
	return nil, false
}

func (ps Properties) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// String returns a string, file or color property, def otherwise.
func (ps Properties) String(name, def string) string {
	p, ok := ps.Get(name)
	if !ok {
		return def
	}
	switch p.Kind() {
	case TypeString, TypeFile, TypeColor:
		return p.Raw()
	}
	return def
}

func (ps Properties) Int(name string, def int) int {
	p, ok := ps.Get(name)
	if !ok || (p.Kind() != TypeInt && p.Kind() != TypeObject) {
		return def
	}
	if v, ok := p.Parsed().(int); ok {
		return v
	}
	return def
}

// Float returns a float property; int properties are widened.
func (ps Properties) Float(name string, def float64) float64 {
	p, ok := ps.Get(name)
	if !ok {
		return def
	}
	switch v := p.Parsed().(type) {
	case float64:
		if p.Kind() == TypeFloat {
			return v
		}
	case int:
		if p.Kind() == TypeInt {
			return float64(v)
		}
	}
	return def
}

func (ps Properties) Bool(name string, def bool) bool {
	p, ok := ps.Get(name)
	if !ok || p.Kind() != TypeBool {
		return def
	}
	if v, ok := p.Parsed().(bool); ok {
		return v
	}
	return def
}

// Map returns every property keyed by name with its typed value.
func (ps Properties) Map() map[string]any {
	out := make(map[string]any, len(ps))
	for i := range ps {
		out[ps[i].Name] = ps[i].Parsed()
	}
	return out
}
