// Public domain.

// Package contour derives credible regions from probability sky maps.
//
// A credible region at level p is the smallest part of the sky holding
// probability p.  It is found greedily: cells sorted by descending
// probability density are accumulated until the cumulative probability
// reaches p.  Each region is returned as a MOC.
package contour

import (
	"math"
	"sort"
	"strconv"

	"github.com/soniakeys/gwmoc/healpix"
	"github.com/soniakeys/gwmoc/moc"
)

// MassTolerance is how far the total probability of a map may be from 1.
const MassTolerance = 1e-3

// Pixel is one cell of a probability map with its probability density,
// in probability per steradian.
type Pixel struct {
	Cell    healpix.Cell
	Density float64
}

// Map is a validated probability sky map.  Cells do not overlap, they
// may be of mixed order.  A Map is not modified after construction.
type Map struct {
	px    []Pixel
	prob  []float64 // probability in each pixel
	depth int       // finest order
	dense bool      // px[i].Cell.Index == i at order depth
	pos   []int     // pixel indexes in NESTED position order
	lo    []uint64  // start of pos[i] at depth
	mass  float64
}

// NewDense builds a map from probabilities per pixel at a single order,
// indexed by NESTED pixel index.  This is the form of flat HEALPix sky
// maps.  The slice is not retained.
func NewDense(order int, prob []float64) (*Map, error) {
	const op = "contour.NewDense"
	if order < 0 || order > healpix.MaxOrder {
		return nil, invalid(op, "order out of range")
	}
	if uint64(len(prob)) != healpix.NPix(order) {
		return nil, invalid(op, "map of "+strconv.Itoa(len(prob))+
			" pixels is not a whole sky at order "+strconv.Itoa(order))
	}
	area := healpix.PixelArea(order)
	m := &Map{
		px:    make([]Pixel, len(prob)),
		prob:  append([]float64(nil), prob...),
		depth: order,
		dense: true,
	}
	for i, p := range prob {
		if err := checkValue(op, p, i); err != nil {
			return nil, err
		}
		m.px[i] = Pixel{healpix.Cell{Order: order, Index: uint64(i)}, p / area}
	}
	if err := m.checkMass(op); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMultiOrder builds a map from cells of mixed order with densities.
// Cells must be on the sphere and must not overlap.  The slice is not
// retained.
func NewMultiOrder(px []Pixel) (*Map, error) {
	const op = "contour.NewMultiOrder"
	if len(px) == 0 {
		return nil, invalid(op, "empty map")
	}
	m := &Map{
		px:   append([]Pixel(nil), px...),
		prob: make([]float64, len(px)),
	}
	for i, p := range m.px {
		if !p.Cell.Valid() {
			return nil, invalid(op, "cell "+p.Cell.String()+" not on the sphere")
		}
		if err := checkValue(op, p.Density, i); err != nil {
			return nil, err
		}
		if p.Cell.Order > m.depth {
			m.depth = p.Cell.Order
		}
		m.prob[i] = p.Density * healpix.PixelArea(p.Cell.Order)
	}
	m.pos = make([]int, len(m.px))
	m.lo = make([]uint64, len(m.px))
	for i := range m.pos {
		m.pos[i] = i
	}
	sort.Slice(m.pos, func(i, j int) bool {
		a, _ := m.px[m.pos[i]].Cell.Range(m.depth)
		b, _ := m.px[m.pos[j]].Cell.Range(m.depth)
		return a < b
	})
	var end uint64
	for k, i := range m.pos {
		lo, hi := m.px[i].Cell.Range(m.depth)
		if k > 0 && lo < end {
			return nil, invalid(op, "cell "+m.px[i].Cell.String()+" overlaps another cell")
		}
		m.lo[k] = lo
		end = hi
	}
	if err := m.checkMass(op); err != nil {
		return nil, err
	}
	return m, nil
}

func checkValue(op string, v float64, i int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid(op, "pixel "+strconv.Itoa(i)+" has value "+
			strconv.FormatFloat(v, 'g', -1, 64))
	}
	return nil
}

func (m *Map) checkMass(op string) error {
	m.mass = sum(m.prob)
	if math.Abs(m.mass-1) > MassTolerance {
		return invalid(op, "total probability "+
			strconv.FormatFloat(m.mass, 'g', 6, 64)+" is not 1")
	}
	return nil
}

// sum adds v with Neumaier compensation.
func sum(v []float64) float64 {
	var s, c float64
	for _, x := range v {
		t := s + x
		if math.Abs(s) >= math.Abs(x) {
			c += (s - t) + x
		} else {
			c += (x - t) + s
		}
		s = t
	}
	return s + c
}

// MaxOrder returns the finest order of any cell of m.
func (m *Map) MaxOrder() int { return m.depth }

// Len returns the number of pixels in m.
func (m *Map) Len() int { return len(m.px) }

// Mass returns the total probability of m.
func (m *Map) Mass() float64 { return m.mass }

// Pixels returns a copy of the pixels of m.
func (m *Map) Pixels() []Pixel { return append([]Pixel(nil), m.px...) }

// Find returns the index of the pixel containing cell c.  ok is false if
// no single pixel contains all of c.
func (m *Map) Find(c healpix.Cell) (i int, ok bool) {
	if !c.Valid() {
		return
	}
	if m.dense {
		if c.Order < m.depth {
			return
		}
		return int(c.Ancestor(m.depth).Index), true
	}
	var lo uint64
	if c.Order >= m.depth {
		lo = c.Ancestor(m.depth).Index
	} else {
		lo, _ = c.Range(m.depth)
	}
	k := sort.Search(len(m.lo), func(k int) bool { return m.lo[k] > lo }) - 1
	if k < 0 {
		return
	}
	i = m.pos[k]
	if m.px[i].Cell.Contains(c) {
		return i, true
	}
	return 0, false
}

func invalid(op, msg string) error {
	return &moc.Error{Kind: moc.KindInvalidInput, Op: op, Message: msg}
}
