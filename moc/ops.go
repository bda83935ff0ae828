// Public domain.

package moc

import "github.com/soniakeys/gwmoc/healpix"

// Union returns the region covered by m or o.
func (m *MOC) Union(o *MOC) (*MOC, error) {
	if m.depth != o.depth {
		return nil, mismatch("moc.Union", m.depth, o.depth)
	}
	out := make([]Range, 0, len(m.rs)+len(o.rs))
	a, b := m.rs, o.rs
	for len(a) > 0 || len(b) > 0 {
		var r Range
		if len(b) == 0 || len(a) > 0 && a[0].Lo <= b[0].Lo {
			r, a = a[0], a[1:]
		} else {
			r, b = b[0], b[1:]
		}
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi {
			if r.Hi > out[n-1].Hi {
				out[n-1].Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return fromNormal(m.depth, out), nil
}

// Intersection returns the region covered by both m and o.
func (m *MOC) Intersection(o *MOC) (*MOC, error) {
	if m.depth != o.depth {
		return nil, mismatch("moc.Intersection", m.depth, o.depth)
	}
	return fromNormal(m.depth, intersect(m.rs, o.rs)), nil
}

// Difference returns the region covered by m but not by o.
func (m *MOC) Difference(o *MOC) (*MOC, error) {
	if m.depth != o.depth {
		return nil, mismatch("moc.Difference", m.depth, o.depth)
	}
	return fromNormal(m.depth, intersect(m.rs, complement(m.depth, o.rs))), nil
}

// Complement returns the region of the sky not covered by m.
func (m *MOC) Complement() *MOC {
	return fromNormal(m.depth, complement(m.depth, m.rs))
}

// Widen re-expresses m at the finer resolution order.  The covered region
// is unchanged.  Widening to a coarser order is an InvalidInput error;
// use Degrade.
func (m *MOC) Widen(order int) (*MOC, error) {
	if err := checkOrder("moc.Widen", order); err != nil {
		return nil, err
	}
	if order < m.depth {
		return nil, invalid("moc.Widen", "order coarser than max order")
	}
	s := 2 * uint(order-m.depth)
	out := make([]Range, len(m.rs))
	for i, r := range m.rs {
		out[i] = Range{r.Lo << s, r.Hi << s}
	}
	return fromNormal(order, out), nil
}

// Degrade re-expresses m at the coarser resolution order.  Every cell
// partially covered at order is included, so the result covers m.
func (m *MOC) Degrade(order int) (*MOC, error) {
	if err := checkOrder("moc.Degrade", order); err != nil {
		return nil, err
	}
	if order > m.depth {
		return nil, invalid("moc.Degrade", "order finer than max order")
	}
	s := 2 * uint(m.depth-order)
	out := make([]Range, len(m.rs))
	for i, r := range m.rs {
		out[i] = Range{r.Lo >> s, (r.Hi + 1<<s - 1) >> s}
	}
	return &MOC{order, normalize(out)}, nil
}

// Align widens whichever of a and b is coarser so both have the same
// resolution.
func Align(a, b *MOC) (*MOC, *MOC) {
	switch {
	case a.depth < b.depth:
		a, _ = a.Widen(b.depth)
	case b.depth < a.depth:
		b, _ = b.Widen(a.depth)
	}
	return a, b
}

func fromNormal(depth int, rs []Range) *MOC {
	if len(rs) == 0 {
		rs = nil
	}
	return &MOC{depth, rs}
}

func intersect(a, b []Range) []Range {
	var out []Range
	for len(a) > 0 && len(b) > 0 {
		lo, hi := a[0].Lo, a[0].Hi
		if b[0].Lo > lo {
			lo = b[0].Lo
		}
		if b[0].Hi < hi {
			hi = b[0].Hi
		}
		if lo < hi {
			out = append(out, Range{lo, hi})
		}
		if a[0].Hi < b[0].Hi {
			a = a[1:]
		} else {
			b = b[1:]
		}
	}
	return out
}

func complement(depth int, rs []Range) []Range {
	var out []Range
	var lo uint64
	for _, r := range rs {
		if r.Lo > lo {
			out = append(out, Range{lo, r.Lo})
		}
		lo = r.Hi
	}
	if n := healpix.NPix(depth); lo < n {
		out = append(out, Range{lo, n})
	}
	return out
}
