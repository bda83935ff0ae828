// Public domain.

// Package moc implements Multi-Order Coverage maps, normalized sets of
// HEALPix cells describing a region of the sky.
//
// A MOC has a maximum order, its resolution.  Internally it is a sorted
// list of disjoint, non-adjacent, half-open ranges of NESTED indexes at
// the maximum order.  This form is unique for a covered region, so two
// MOCs of the same maximum order covering the same cells always compare
// equal.  The equivalent mixed-order cell list, with no cell present
// alongside an ancestor and no four siblings present without being merged
// into their parent, is derived on demand by Cells.
//
// A MOC is immutable.  Operations return new values and MOCs may be
// shared freely between goroutines.
package moc

import (
	"math"
	"math/bits"
	"sort"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/gwmoc/healpix"
)

// Range is a half-open span [Lo, Hi) of cell indexes at the maximum
// order of a MOC.
type Range struct {
	Lo, Hi uint64
}

// MOC is a normalized, immutable coverage map.
type MOC struct {
	depth int
	rs    []Range
}

// New builds a MOC of resolution maxOrder from arbitrary cells.  Cells
// may overlap or repeat.  A cell finer than maxOrder or not on the sphere
// is an InvalidInput error.
func New(maxOrder int, cells ...healpix.Cell) (*MOC, error) {
	if err := checkOrder("moc.New", maxOrder); err != nil {
		return nil, err
	}
	rs := make([]Range, 0, len(cells))
	for _, c := range cells {
		if !c.Valid() {
			return nil, invalid("moc.New", "cell "+c.String()+" not on the sphere")
		}
		if c.Order > maxOrder {
			return nil, invalid("moc.New", "cell "+c.String()+" finer than max order")
		}
		lo, hi := c.Range(maxOrder)
		rs = append(rs, Range{lo, hi})
	}
	return &MOC{maxOrder, normalize(rs)}, nil
}

// FromRanges builds a MOC from index ranges at maxOrder.  Ranges may be
// unsorted, overlapping or empty.  The slice is not retained.
func FromRanges(maxOrder int, ranges []Range) (*MOC, error) {
	if err := checkOrder("moc.FromRanges", maxOrder); err != nil {
		return nil, err
	}
	n := healpix.NPix(maxOrder)
	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Hi > n {
			return nil, invalid("moc.FromRanges", "range beyond last cell")
		}
		rs = append(rs, r)
	}
	return &MOC{maxOrder, normalize(rs)}, nil
}

// Empty returns a MOC covering nothing.
func Empty(maxOrder int) *MOC {
	return &MOC{depth: clampOrder(maxOrder)}
}

// Full returns a MOC covering the whole sky.
func Full(maxOrder int) *MOC {
	d := clampOrder(maxOrder)
	return &MOC{d, []Range{{0, healpix.NPix(d)}}}
}

func clampOrder(o int) int {
	switch {
	case o < 0:
		return 0
	case o > healpix.MaxOrder:
		return healpix.MaxOrder
	}
	return o
}

func checkOrder(op string, o int) error {
	if o < 0 || o > healpix.MaxOrder {
		return invalid(op, "max order out of range")
	}
	return nil
}

// normalize sorts rs in place and merges overlapping and adjacent ranges.
func normalize(rs []Range) []Range {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Lo < rs[j].Lo })
	out := rs[:0]
	for _, r := range rs {
		if r.Lo >= r.Hi {
			continue
		}
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi {
			if r.Hi > out[n-1].Hi {
				out[n-1].Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MaxOrder returns the resolution of m.
func (m *MOC) MaxOrder() int { return m.depth }

// IsEmpty reports whether m covers nothing.
func (m *MOC) IsEmpty() bool { return len(m.rs) == 0 }

// Ranges returns a copy of the normalized index ranges of m.
func (m *MOC) Ranges() []Range {
	return append([]Range(nil), m.rs...)
}

// Len returns the number of cells in the normalized cell list of m.
func (m *MOC) Len() (n int) {
	for _, r := range m.rs {
		n += decompose(m.depth, r, nil)
	}
	return
}

// Cells returns the normalized mixed-order cell list of m in NESTED
// position order.
func (m *MOC) Cells() []healpix.Cell {
	var cs []healpix.Cell
	for _, r := range m.rs {
		decompose(m.depth, r, func(c healpix.Cell) { cs = append(cs, c) })
	}
	return cs
}

// decompose splits r into maximal aligned cells, calling emit for each
// if emit is not nil.  It returns the number of cells.
func decompose(depth int, r Range, emit func(healpix.Cell)) (n int) {
	for lo := r.Lo; lo < r.Hi; n++ {
		k := depth
		if lo > 0 {
			if tz := bits.TrailingZeros64(lo) / 2; tz < k {
				k = tz
			}
		}
		for lo+1<<(2*uint(k)) > r.Hi {
			k--
		}
		if emit != nil {
			emit(healpix.Cell{Order: depth - k, Index: lo >> (2 * uint(k))})
		}
		lo += 1 << (2 * uint(k))
	}
	return
}

// count returns the number of cells at max order covered by m.
func (m *MOC) count() (n uint64) {
	for _, r := range m.rs {
		n += r.Hi - r.Lo
	}
	return
}

// Area returns the fraction of the sphere covered by m, in [0, 1].
func (m *MOC) Area() float64 {
	return float64(m.count()) / float64(healpix.NPix(m.depth))
}

// SolidAngle returns the area covered by m in steradians.
func (m *MOC) SolidAngle() float64 {
	return m.Area() * 4 * math.Pi
}

// SquareDegrees returns the area covered by m in square degrees.
func (m *MOC) SquareDegrees() float64 {
	return m.Area() * SphereSquareDegrees
}

// SphereSquareDegrees is the area of the whole sky, 360²/π.
const SphereSquareDegrees = 360 * 360 / math.Pi

// Contains reports whether cell c or one of its ancestors is in m.
// A cell finer than the resolution of m is tested by its ancestor at
// the maximum order.
func (m *MOC) Contains(c healpix.Cell) bool {
	if !c.Valid() {
		return false
	}
	c = c.Ancestor(m.depth)
	lo, hi := c.Range(m.depth)
	i := sort.Search(len(m.rs), func(i int) bool { return m.rs[i].Hi > lo })
	return i < len(m.rs) && m.rs[i].Lo <= lo && hi <= m.rs[i].Hi
}

// ContainsPoint reports whether position p falls in a cell of m.
func (m *MOC) ContainsPoint(p coord.Equa) bool {
	return m.Contains(healpix.CellOf(m.depth, p))
}

// Equal reports whether m and o have the same resolution and cover the
// same cells.
func (m *MOC) Equal(o *MOC) bool {
	if m.depth != o.depth || len(m.rs) != len(o.rs) {
		return false
	}
	for i, r := range m.rs {
		if o.rs[i] != r {
			return false
		}
	}
	return true
}

// String returns m in MOC ASCII notation.
func (m *MOC) String() string {
	b, _ := m.MarshalText()
	return string(b)
}
