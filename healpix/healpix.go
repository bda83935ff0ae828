// Public domain.

// Package healpix implements the cell arithmetic of the NESTED HEALPix
// tessellation of the sphere.
//
// Cells are identified by an order and a pixel index.  Order 0 divides the
// sky into 12 base cells, each increment in order splits every cell into
// 4 children of equal area.  In the NESTED scheme the children of cell i
// have indexes 4i .. 4i+3, so ancestor and descendant relations are plain
// shifts.  No tree is ever materialized.
package healpix

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/soniakeys/unit"
)

// MaxOrder is the finest order supported.  12*4^29 indexes still fit
// in 63 bits.
const MaxOrder = 29

// Cell identifies a single HEALPix cell.
type Cell struct {
	Order int
	Index uint64
}

// NSide returns the number of cells along a base cell edge at order.
func NSide(order int) uint64 { return 1 << uint(order) }

// NPix returns the number of cells covering the sphere at order.
func NPix(order int) uint64 { return 12 << (2 * uint(order)) }

// PixelArea returns the solid angle of one cell at order, in steradians.
func PixelArea(order int) float64 {
	return 4 * math.Pi / float64(NPix(order))
}

// Resolution returns the approximate angular size of a cell at order,
// the square root of the pixel area.
func Resolution(order int) unit.Angle {
	return unit.Angle(math.Sqrt(PixelArea(order)))
}

// Valid reports whether c has an order in range and an index on the sphere.
func (c Cell) Valid() bool {
	return c.Order >= 0 && c.Order <= MaxOrder && c.Index < NPix(c.Order)
}

// String formats c as order/index, the notation of MOC ASCII files.
func (c Cell) String() string {
	return fmt.Sprintf("%d/%d", c.Order, c.Index)
}

// Uniq packs c into the NUNIQ scheme, 4*4^order + index.  Every cell of
// every order gets a distinct value and coarser cells sort first.
func (c Cell) Uniq() uint64 {
	return 4<<(2*uint(c.Order)) + c.Index
}

// FromUniq unpacks a NUNIQ value.  ok is false for values that do not
// represent a cell up to MaxOrder.
func FromUniq(u uint64) (c Cell, ok bool) {
	if u < 4 {
		return
	}
	o := (bits.Len64(u) - 3) / 2
	if o > MaxOrder {
		return
	}
	c = Cell{Order: o, Index: u - 4<<(2*uint(o))}
	return c, c.Index < NPix(o)
}

// Parent returns the cell one order coarser containing c.  The parent
// of an order 0 cell is itself.
func (c Cell) Parent() Cell {
	if c.Order == 0 {
		return c
	}
	return Cell{c.Order - 1, c.Index >> 2}
}

// Ancestor returns the cell at the coarser order containing c.
// If order is not coarser than c, c is returned.
func (c Cell) Ancestor(order int) Cell {
	if order >= c.Order {
		return c
	}
	if order < 0 {
		order = 0
	}
	return Cell{order, c.Index >> (2 * uint(c.Order-order))}
}

// Children returns the four cells one order finer than c.
func (c Cell) Children() [4]Cell {
	i := c.Index << 2
	o := c.Order + 1
	return [4]Cell{{o, i}, {o, i + 1}, {o, i + 2}, {o, i + 3}}
}

// Range returns the half-open span of indexes at depth covered by c.
// Depth must not be coarser than c.Order.
func (c Cell) Range(depth int) (lo, hi uint64) {
	s := 2 * uint(depth-c.Order)
	return c.Index << s, (c.Index + 1) << s
}

// Contains reports whether d is c or one of its descendants.
func (c Cell) Contains(d Cell) bool {
	return d.Order >= c.Order && d.Ancestor(c.Order) == c
}

// Less orders cells by NUNIQ value.
func Less(a, b Cell) bool { return a.Uniq() < b.Uniq() }
