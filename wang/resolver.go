package wang

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/milk9111/tilekit/tileset"
)

var (
	ErrNoWangSet   = errors.New("wang set not found")
	ErrUnsupported = errors.New("operation not supported for wang set type")
	ErrGrid        = errors.New("invalid vertex grid")
)

// Resolver finds tiles of one wang set by signature. It is immutable after
// construction and safe for concurrent use; randomness is supplied by callers.
type Resolver struct {
	set       *tileset.WangSet
	positions [8]bool
	entries   []entry
	index     map[tileset.WangID][]int
}

type entry struct {
	tileID int
	sig    tileset.WangID
	weight float64
}

// New builds a resolver for the named wang set of ts.
func New(ts *tileset.Tileset, name string) (*Resolver, error) {
	ws, ok := ts.WangSet(name)
	if !ok {
		return nil, fmt.Errorf("wang: %w: %q in tileset %q", ErrNoWangSet, name, ts.Name)
	}
	return NewFromSet(ts, ws), nil
}

func NewFromSet(ts *tileset.Tileset, ws *tileset.WangSet) *Resolver {
	r := &Resolver{
		set:       ws,
		positions: ws.Positions(),
		entries:   make([]entry, 0, len(ws.Tiles)),
		index:     make(map[tileset.WangID][]int, len(ws.Tiles)),
	}

	for _, wt := range ws.Tiles {
		w := 1.0
		if t, ok := ts.Tile(wt.TileID); ok {
			w = t.Weight()
		}
		for i, v := range wt.WangID {
			if !r.positions[i] || v == 0 {
				continue
			}
			if c := ws.Color(v); c != nil {
				w *= c.Weight()
			}
		}

		key := r.mask(wt.WangID)
		r.index[key] = append(r.index[key], len(r.entries))
		r.entries = append(r.entries, entry{tileID: wt.TileID, sig: wt.WangID, weight: w})
	}
	return r
}

// Name returns the wang set name.
func (r *Resolver) Name() string {
	return r.set.Name
}

func (r *Resolver) Type() string {
	return r.set.Type
}

// Colors returns the terrain classes; signature value v refers to Colors()[v-1].
func (r *Resolver) Colors() []tileset.WangColor {
	return r.set.Colors
}

// mask zeroes the positions the set type does not match on.
func (r *Resolver) mask(id tileset.WangID) tileset.WangID {
	var out tileset.WangID
	for i, v := range id {
		if r.positions[i] {
			out[i] = v
		}
	}
	return out
}

// Corners builds a request from corner colors.
func Corners(tl, tr, br, bl int) tileset.WangID {
	var id tileset.WangID
	id[tileset.WangTopLeft] = tl
	id[tileset.WangTopRight] = tr
	id[tileset.WangBottomRight] = br
	id[tileset.WangBottomLeft] = bl
	return id
}

// Edges builds a request from edge colors.
func Edges(top, right, bottom, left int) tileset.WangID {
	var id tileset.WangID
	id[tileset.WangTop] = top
	id[tileset.WangRight] = right
	id[tileset.WangBottom] = bottom
	id[tileset.WangLeft] = left
	return id
}

// Match returns every tile whose signature agrees with req on the positions
// the set type matches on, in declaration order. A 0 in req is a wildcard.
func (r *Resolver) Match(req tileset.WangID) []int {
	idx := r.match(req)
	out := make([]int, len(idx))
	for i, e := range idx {
		out[i] = r.entries[e].tileID
	}
	return out
}

func (r *Resolver) match(req tileset.WangID) []int {
	key := r.mask(req)
	if r.complete(key) {
		return r.index[key]
	}

	var out []int
	for i, e := range r.entries {
		if r.agrees(e.sig, key) {
			out = append(out, i)
		}
	}
	return out
}

func (r *Resolver) complete(key tileset.WangID) bool {
	for i, v := range key {
		if r.positions[i] && v == 0 {
			return false
		}
	}
	return true
}

func (r *Resolver) agrees(sig, req tileset.WangID) bool {
	for i, v := range req {
		if !r.positions[i] || v == 0 {
			continue
		}
		if sig[i] != v {
			return false
		}
	}
	return true
}

// Pick chooses one matching tile. Ties are broken by a roulette over the
// candidate weights (tile probability times the probabilities of its colors).
// Candidates with a non-positive weight are never chosen. A nil rng picks the
// first candidate with a positive weight.
func (r *Resolver) Pick(rng *rand.Rand, req tileset.WangID) (int, bool) {
	return r.pick(rng, r.match(req))
}

func (r *Resolver) pick(rng *rand.Rand, candidates []int) (int, bool) {
	var total float64
	opts := make([]int, 0, len(candidates))
	for _, c := range candidates {
		w := r.entries[c].weight
		if w <= 0 {
			continue
		}
		total += w
		opts = append(opts, c)
	}
	if total <= 0 || len(opts) == 0 {
		return -1, false
	}
	if rng == nil || len(opts) == 1 {
		return r.entries[opts[0]].tileID, true
	}

	x := rng.Float64() * total
	for _, c := range opts {
		x -= r.entries[c].weight
		if x < 0 {
			return r.entries[c].tileID, true
		}
	}
	return r.entries[opts[len(opts)-1]].tileID, true
}

// Signature returns the declared signature of tileID within this set.
func (r *Resolver) Signature(tileID int) (tileset.WangID, bool) {
	for _, e := range r.entries {
		if e.tileID == tileID {
			return e.sig, true
		}
	}
	return tileset.WangID{}, false
}

// AutoTile fills a cell grid from a grid of vertex colors. vertices has one
// more row and column than the result; cell (x, y) takes its corners from
// vertices[y][x], [y][x+1], [y+1][x+1] and [y+1][x]. Cells without a matching
// tile are -1.
func (r *Resolver) AutoTile(rng *rand.Rand, vertices [][]int) ([][]int, error) {
	if r.set.Type == tileset.WangEdge {
		return nil, fmt.Errorf("wang: autotile %q: %w", r.set.Name, ErrUnsupported)
	}
	if len(vertices) < 2 || len(vertices[0]) < 2 {
		return nil, fmt.Errorf("wang: autotile %q: %w: need at least 2x2 vertices", r.set.Name, ErrGrid)
	}
	width := len(vertices[0])
	for y, row := range vertices {
		if len(row) != width {
			return nil, fmt.Errorf("wang: autotile %q: %w: row %d has %d vertices, want %d", r.set.Name, ErrGrid, y, len(row), width)
		}
	}

	h := len(vertices) - 1
	w := width - 1
	out := make([][]int, h)
	for y := 0; y < h; y++ {
		out[y] = make([]int, w)
		for x := 0; x < w; x++ {
			req := Corners(vertices[y][x], vertices[y][x+1], vertices[y+1][x+1], vertices[y+1][x])
			id, ok := r.Pick(rng, req)
			if !ok {
				id = -1
			}
			out[y][x] = id
		}
	}
	return out, nil
}
