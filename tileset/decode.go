package tileset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Decode reads one .tsx document and validates it. Malformed XML and any
// invariant violation fail the whole load.
func Decode(r io.Reader) (*Tileset, error) {
	return decode(r, "")
}

// decode names a tileset that has no name attribute before validating it,
// so validation errors always carry a name when one is known.
func decode(r io.Reader, fallback string) (*Tileset, error) {
	var ts Tileset
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&ts); err != nil {
		return nil, fmt.Errorf("tileset: decode: %w", err)
	}
	if ts.Name == "" {
		ts.Name = fallback
	}
	if err := ts.prepare(); err != nil {
		return nil, err
	}
	return &ts, nil
}

func Parse(data []byte) (*Tileset, error) {
	return Decode(bytes.NewReader(data))
}

// Load reads a tileset from disk. A tileset without a name attribute is
// named after its file.
func Load(filename string) (*Tileset, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("tileset: load %s: %w", filename, err)
	}
	return parseNamed(filename, data)
}

func LoadFS(fsys fs.FS, name string) (*Tileset, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("tileset: load %s: %w", name, err)
	}
	return parseNamed(name, data)
}

func parseNamed(filename string, data []byte) (*Tileset, error) {
	ts, err := decode(bytes.NewReader(data), Stem(filename))
	if err != nil {
		return nil, fmt.Errorf("tileset: load %s: %w", filename, err)
	}
	return ts, nil
}

// Stem returns the file name without directory and extension.
func Stem(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Encode writes the tileset back as a .tsx document.
func (ts *Tileset) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(ts); err != nil {
		return fmt.Errorf("tileset: encode %s: %w", ts.Name, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (ts *Tileset) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := ts.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
