package tileset

import (
	"errors"
	"testing"
)

func props(t *testing.T, ps ...Property) Properties {
	t.Helper()
	for i := range ps {
		if err := ps[i].parse(); err != nil {
			t.Fatalf("parse %q: %v", ps[i].Name, err)
		}
	}
	return Properties(ps)
}

func TestPropertyAccessors(t *testing.T) {
	ps := props(t,
		Property{Name: "type", Value: "enemy"},
		Property{Name: "gold", Type: TypeInt, Value: "5"},
		Property{Name: "speed", Type: TypeFloat, Value: "2.5"},
		Property{Name: "flip", Type: TypeBool, Value: "true"},
		Property{Name: "tint", Type: TypeColor, Value: "#ff00ff00"},
	)

	t.Run("string", func(t *testing.T) {
		if got := ps.String("type", "x"); got != "enemy" {
			t.Fatalf("got %q", got)
		}
		if got := ps.String("missing", "x"); got != "x" {
			t.Fatalf("absent should return default, got %q", got)
		}
		if got := ps.String("gold", "x"); got != "x" {
			t.Fatalf("int property read as string should return default, got %q", got)
		}
		if got := ps.String("tint", ""); got != "#ff00ff00" {
			t.Fatalf("color should read as string, got %q", got)
		}
	})

	t.Run("int", func(t *testing.T) {
		if got := ps.Int("gold", -1); got != 5 {
			t.Fatalf("got %d", got)
		}
		if got := ps.Int("speed", -1); got != -1 {
			t.Fatalf("float read as int should return default, got %d", got)
		}
		if got := ps.Int("missing", 7); got != 7 {
			t.Fatalf("got %d", got)
		}
	})

	t.Run("float", func(t *testing.T) {
		if got := ps.Float("speed", 0); got != 2.5 {
			t.Fatalf("got %v", got)
		}
		if got := ps.Float("gold", 0); got != 5 {
			t.Fatalf("int should widen to float, got %v", got)
		}
		if got := ps.Float("type", 1.5); got != 1.5 {
			t.Fatalf("string read as float should return default, got %v", got)
		}
	})

	t.Run("bool", func(t *testing.T) {
		if !ps.Bool("flip", false) {
			t.Fatalf("flip should be true")
		}
		if ps.Bool("type", false) {
			t.Fatalf("string read as bool should return default")
		}
		if !ps.Bool("missing", true) {
			t.Fatalf("absent should return default")
		}
	})

	t.Run("map", func(t *testing.T) {
		m := ps.Map()
		if m["gold"] != 5 || m["speed"] != 2.5 || m["flip"] != true || m["type"] != "enemy" {
			t.Fatalf("unexpected map %v", m)
		}
	})
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		name    string
		kind    string
		raw     string
		want    any
		wantErr error
	}{
		{"string", TypeString, "wall", "wall", nil},
		{"int", TypeInt, "-3", -3, nil},
		{"int_bad", TypeInt, "1.5", nil, ErrPropertyType},
		{"float", TypeFloat, "-1", -1.0, nil},
		{"float_bad", TypeFloat, "fast", nil, ErrPropertyType},
		{"float_inf", TypeFloat, "inf", nil, ErrPropertyType},
		{"float_neg_inf", TypeFloat, "-Infinity", nil, ErrPropertyType},
		{"float_nan", TypeFloat, "NaN", nil, ErrPropertyType},
		{"float_overflow", TypeFloat, "1e400", nil, ErrPropertyType},
		{"bool", TypeBool, "false", false, nil},
		{"bool_bad", TypeBool, "yes", nil, ErrPropertyType},
		{"color", TypeColor, "#00ff00", "#00ff00", nil},
		{"color_bad", TypeColor, "green", nil, ErrPropertyType},
		{"object", TypeObject, "12", 12, nil},
		{"unknown", "class", "{}", nil, ErrUnknownPropertyType},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := parseValue(c.kind, c.raw)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("expected %v, got %v", c.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %v (%T), want %v (%T)", got, got, c.want, c.want)
			}
		})
	}
}
