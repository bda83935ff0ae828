// Public domain.

package contour

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/soniakeys/gwmoc/healpix"
	"github.com/soniakeys/gwmoc/moc"
)

// ReadMap reads a probability map in text form.
//
// Blank lines and lines starting with # are ignored.  Other lines hold
// two fields, a NUNIQ cell number and a probability density per steradian:
//
//	# order 1 cells
//	16 0.0795774715459477
//	17 0.0795774715459477
//
// Any flat or multi-order HEALPix map can be written this way.
func ReadMap(r io.Reader) (*Map, error) {
	const op = "contour.ReadMap"
	var px []Pixel
	sc := bufio.NewScanner(r)
	n := 1
	for ; sc.Scan(); n++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if len(f) != 2 {
			return nil, invalid(op, "line "+strconv.Itoa(n)+": want uniq and density")
		}
		u, err := strconv.ParseUint(f[0], 10, 64)
		if err != nil {
			return nil, lineErr(op, n, err)
		}
		c, ok := healpix.FromUniq(u)
		if !ok {
			return nil, invalid(op, "line "+strconv.Itoa(n)+": bad uniq "+f[0])
		}
		d, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, lineErr(op, n, err)
		}
		px = append(px, Pixel{c, d})
	}
	if err := sc.Err(); err != nil {
		return nil, lineErr(op, n, err)
	}
	return NewMultiOrder(px)
}

func lineErr(op string, n int, err error) error {
	return &moc.Error{
		Kind:    moc.KindInvalidInput,
		Op:      op,
		Message: "line " + strconv.Itoa(n),
		Cause:   err,
	}
}

// WriteMap writes m in the form read by ReadMap.  Densities are written
// with full precision so a map survives the round trip exactly.
func WriteMap(w io.Writer, m *Map) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# uniq density\n")
	for _, p := range m.px {
		bw.WriteString(strconv.FormatUint(p.Cell.Uniq(), 10))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(p.Density, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
