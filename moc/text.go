// Public domain.

package moc

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/soniakeys/gwmoc/healpix"
)

// byOrder groups the normalized cells of m by order, indexes ascending.
func (m *MOC) byOrder() map[int][]uint64 {
	g := map[int][]uint64{}
	for _, c := range m.Cells() {
		g[c.Order] = append(g[c.Order], c.Index)
	}
	for _, ix := range g {
		sort.Slice(ix, func(i, j int) bool { return ix[i] < ix[j] })
	}
	return g
}

// MarshalText encodes m in the IVOA MOC ASCII notation, orders ascending,
// consecutive indexes as ranges:
//
//	3/1-4 9 5/33
//
// If no cell has the maximum order, a trailing empty "order/" token
// records it.  An empty MOC encodes as just that token.
func (m *MOC) MarshalText() ([]byte, error) {
	g := m.byOrder()
	var sb strings.Builder
	for o := 0; o <= m.depth; o++ {
		ix, ok := g[o]
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(o))
		sb.WriteByte('/')
		for i := 0; i < len(ix); {
			j := i
			for j+1 < len(ix) && ix[j+1] == ix[j]+1 {
				j++
			}
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatUint(ix[i], 10))
			if j > i {
				sb.WriteByte('-')
				sb.WriteString(strconv.FormatUint(ix[j], 10))
			}
			i = j + 1
		}
	}
	if _, ok := g[m.depth]; !ok {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(m.depth))
		sb.WriteByte('/')
	}
	return []byte(sb.String()), nil
}

// UnmarshalText decodes MOC ASCII into m, which should be a zero MOC.
// Commas are accepted as separators as in MOC 1.1.  The maximum order is
// the highest order named.
func (m *MOC) UnmarshalText(text []byte) error {
	d, err := ParseText(string(text))
	if err != nil {
		return err
	}
	*m = *d
	return nil
}

// ParseText parses MOC ASCII notation.
func ParseText(s string) (*MOC, error) {
	const op = "moc.ParseText"
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	order, depth := -1, -1
	type span struct {
		order  int
		lo, hi uint64
	}
	var spans []span
	for _, f := range fields {
		if i := strings.IndexByte(f, '/'); i >= 0 {
			o, err := strconv.Atoi(f[:i])
			if err != nil || o < 0 || o > healpix.MaxOrder {
				return nil, corrupt(op, "bad order "+strconv.Quote(f), err)
			}
			order = o
			if o > depth {
				depth = o
			}
			if f = f[i+1:]; f == "" {
				continue
			}
		}
		if order < 0 {
			return nil, corrupt(op, "index before order", nil)
		}
		lo, hi, err := parseSpan(f)
		if err != nil {
			return nil, corrupt(op, "bad index "+strconv.Quote(f), err)
		}
		if hi >= healpix.NPix(order) || lo > hi {
			return nil, corrupt(op, "index out of range "+strconv.Quote(f), nil)
		}
		spans = append(spans, span{order, lo, hi})
	}
	if depth < 0 {
		return nil, corrupt(op, "no order given", nil)
	}
	rs := make([]Range, len(spans))
	for i, sp := range spans {
		sh := 2 * uint(depth-sp.order)
		rs[i] = Range{sp.lo << sh, (sp.hi + 1) << sh}
	}
	return &MOC{depth, normalize(rs)}, nil
}

func parseSpan(f string) (lo, hi uint64, err error) {
	a, b, isRange := strings.Cut(f, "-")
	if lo, err = strconv.ParseUint(a, 10, 64); err != nil {
		return
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err = strconv.ParseUint(b, 10, 64)
	return
}

// MarshalJSON encodes m as an object mapping order to index lists,
//
//	{"3":[1,2,3,4,9],"5":[33]}
//
// The maximum order is always present, with an empty list if it has no
// cells.
func (m *MOC) MarshalJSON() ([]byte, error) {
	g := m.byOrder()
	obj := make(map[string][]uint64, len(g)+1)
	for o, ix := range g {
		obj[strconv.Itoa(o)] = ix
	}
	if _, ok := g[m.depth]; !ok {
		obj[strconv.Itoa(m.depth)] = []uint64{}
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes the form written by MarshalJSON into m, which
// should be a zero MOC.
func (m *MOC) UnmarshalJSON(data []byte) error {
	const op = "moc.UnmarshalJSON"
	var obj map[string][]uint64
	if err := json.Unmarshal(data, &obj); err != nil {
		return corrupt(op, "not a MOC object", err)
	}
	depth := -1
	var cells []healpix.Cell
	for k, ix := range obj {
		o, err := strconv.Atoi(k)
		if err != nil || o < 0 || o > healpix.MaxOrder {
			return corrupt(op, "bad order "+strconv.Quote(k), err)
		}
		if o > depth {
			depth = o
		}
		for _, i := range ix {
			if i >= healpix.NPix(o) {
				return corrupt(op, "index out of range", nil)
			}
			cells = append(cells, healpix.Cell{Order: o, Index: i})
		}
	}
	if depth < 0 {
		return corrupt(op, "no order given", nil)
	}
	d, err := New(depth, cells...)
	if err != nil {
		return err
	}
	*m = *d
	return nil
}
