// Public domain.

package contour

import (
	"math"
	"runtime"
	"sort"

	"github.com/soniakeys/coord"
	"golang.org/x/sync/errgroup"

	"github.com/soniakeys/gwmoc/healpix"
	"github.com/soniakeys/gwmoc/moc"
)

// Epsilon is the slack allowed when comparing cumulative probability to a
// requested level.  Cumulative sums are compensated and normalized so the
// last one is exactly 1; Epsilon only absorbs rounding in the running sum.
const Epsilon = 1e-12

// Region is a credible region: the MOC holding probability Level.
type Region struct {
	Level float64
	MOC   *moc.MOC
}

// Encoder computes credible regions of one map.  The pixel sort is done
// once by NewEncoder.  An Encoder is read only after construction and safe
// for concurrent use.
type Encoder struct {
	m     *Map
	split bool

	order   []int     // pixel indexes, descending density, ties by NUNIQ
	rank    []int     // rank[i] is the position of pixel i in order
	cum     []float64 // cumulative probability of order[:k+1], normalized
	cumArea []float64 // cumulative sky fraction of order[:k+1]
	group   []int     // end of the tie group holding order[k]
}

// Option configures an Encoder.
type Option func(*Encoder)

// SplitTies makes cells of exactly equal density join a region one at a
// time, in ascending NUNIQ order, rather than all together.  Regions are
// then as small as possible but depend on cell numbering where the
// boundary falls inside a group of equal cells.
func SplitTies() Option {
	return func(e *Encoder) { e.split = true }
}

// NewEncoder sorts the pixels of m by descending density.
//
// Pixels of equal density sort by ascending NUNIQ, coarser cells first
// and then by index, so results are reproducible.  By default a group of
// equal density pixels is included whole, see SplitTies.
func NewEncoder(m *Map, opts ...Option) *Encoder {
	e := &Encoder{m: m}
	for _, o := range opts {
		o(e)
	}
	n := len(m.px)
	e.order = make([]int, n)
	for i := range e.order {
		e.order[i] = i
	}
	sort.Slice(e.order, func(i, j int) bool {
		a, b := m.px[e.order[i]], m.px[e.order[j]]
		if a.Density != b.Density {
			return a.Density > b.Density
		}
		return a.Cell.Uniq() < b.Cell.Uniq()
	})
	e.rank = make([]int, n)
	e.cum = make([]float64, n)
	e.cumArea = make([]float64, n)
	var s, c, area float64
	for k, i := range e.order {
		e.rank[i] = k
		// Neumaier running sum
		x := m.prob[i]
		t := s + x
		if math.Abs(s) >= math.Abs(x) {
			c += (s - t) + x
		} else {
			c += (x - t) + s
		}
		s = t
		e.cum[k] = s + c
		area += 1 / float64(healpix.NPix(m.px[i].Cell.Order))
		e.cumArea[k] = area
	}
	total := e.cum[n-1]
	for k := range e.cum {
		e.cum[k] /= total
		// keep monotone through rounding of the compensation term
		if k > 0 && e.cum[k] < e.cum[k-1] {
			e.cum[k] = e.cum[k-1]
		}
	}
	e.group = make([]int, n)
	for k := n - 1; k >= 0; k-- {
		if k == n-1 || m.px[e.order[k]].Density != m.px[e.order[k+1]].Density {
			e.group[k] = k + 1
		} else {
			e.group[k] = e.group[k+1]
		}
	}
	return e
}

// Map returns the map e was built from.
func (e *Encoder) Map() *Map { return e.m }

// Contour returns the credible region at level p.
//
// p <= 0 gives an empty MOC and p >= 1 the full sky.  NaN and infinite p
// are InvalidInput errors.  Regions are nested: a higher level always
// covers the region of a lower one.  The MOC has the resolution of the
// finest cell of the map.
func (e *Encoder) Contour(p float64) (*moc.MOC, error) {
	n, err := e.count(p)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return moc.Full(e.m.depth), nil
	}
	cells := make([]healpix.Cell, n)
	for k, i := range e.order[:n] {
		cells[k] = e.m.px[i].Cell
	}
	return moc.New(e.m.depth, cells...)
}

// count returns the number of sorted pixels in the region at level p,
// or -1 for the full sky.
func (e *Encoder) count(p float64) (int, error) {
	switch {
	case math.IsNaN(p) || math.IsInf(p, 0):
		return 0, invalid("contour.Contour", "level is not a finite number")
	case p <= 0:
		return 0, nil
	case p >= 1:
		return -1, nil
	}
	k := sort.Search(len(e.cum), func(k int) bool { return e.cum[k] >= p-Epsilon })
	return e.end(k), nil
}

// end returns the number of pixels included when the pixel at rank k is.
func (e *Encoder) end(k int) int {
	if e.split {
		return k + 1
	}
	return e.group[k]
}

// Contours returns the credible regions at each of levels, in the same
// order.  Levels are computed concurrently.
func (e *Encoder) Contours(levels []float64) ([]*moc.MOC, error) {
	out := make([]*moc.MOC, len(levels))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range levels {
		i, p := i, p
		g.Go(func() (err error) {
			out[i], err = e.Contour(p)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Regions is Contours returning each MOC paired with its level.
func (e *Encoder) Regions(levels []float64) ([]Region, error) {
	ms, err := e.Contours(levels)
	if err != nil {
		return nil, err
	}
	rs := make([]Region, len(ms))
	for i, m := range ms {
		rs[i] = Region{levels[i], m}
	}
	return rs, nil
}

// CredibleLevel returns the lowest level whose credible region includes
// cell c.  ok is false if c is not within a single pixel of the map.
func (e *Encoder) CredibleLevel(c healpix.Cell) (level float64, ok bool) {
	i, ok := e.m.Find(c)
	if !ok {
		return
	}
	return e.cum[e.end(e.rank[i])-1], true
}

// Searched returns the searched probability and searched area, as a sky
// fraction, for a source at position p: the probability and area of the
// smallest credible region containing p.
func (e *Encoder) Searched(p coord.Equa) (prob, area float64) {
	i, ok := e.m.Find(healpix.CellOf(e.m.depth, p))
	if !ok {
		// outside every pixel, found only by searching the whole sky
		return 1, 1
	}
	k := e.end(e.rank[i]) - 1
	return e.cum[k], e.cumArea[k]
}

// Peak returns the pixel of highest density and its center.  Among equal
// pixels it is the first by NUNIQ.
func (e *Encoder) Peak() (healpix.Cell, coord.Equa) {
	c := e.m.px[e.order[0]].Cell
	return c, healpix.Center(c)
}
