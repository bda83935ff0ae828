// Public domain.

package healpix

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"
)

// ring and face offsets of the 12 base cells.
var (
	jrll = [12]int64{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	jpll = [12]int64{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}
)

// spread interleaves zero bits between the low 32 bits of v.
func spread(v uint64) (r uint64) {
	for b := uint(0); v != 0; b++ {
		r |= (v & 1) << (2 * b)
		v >>= 1
	}
	return
}

// compress collects the even bits of v.
func compress(v uint64) (r uint64) {
	for b := uint(0); v != 0; b++ {
		r |= (v & 1) << b
		v >>= 2
	}
	return
}

func nestToXYF(order int, idx uint64) (ix, iy int64, face int) {
	s := 2 * uint(order)
	face = int(idx >> s)
	ipf := idx & (1<<s - 1)
	return int64(compress(ipf)), int64(compress(ipf >> 1)), face
}

func xyfToNest(order int, ix, iy int64, face int) uint64 {
	return uint64(face)<<(2*uint(order)) + spread(uint64(ix)) + spread(uint64(iy))<<1
}

// Center returns the position of the center of c.
//
// z and phi follow Górski et al. 2005, with z = sin(Dec) and phi = RA.
func Center(c Cell) coord.Equa {
	z, phi := centerZPhi(c)
	return coord.Equa{
		RA:  unit.RA(phi),
		Dec: unit.Angle(math.Asin(z)),
	}
}

func centerZPhi(c Cell) (z, phi float64) {
	nside := int64(NSide(c.Order))
	ix, iy, face := nestToXYF(c.Order, c.Index)
	jr := jrll[face]*nside - ix - iy - 1
	fact2 := 1 / float64(3*nside*nside)
	var nr int64
	switch {
	case jr < nside:
		nr = jr
		z = 1 - float64(nr*nr)*fact2
	case jr > 3*nside:
		nr = 4*nside - jr
		z = float64(nr*nr)*fact2 - 1
	default:
		nr = nside
		z = float64(2*nside-jr) * 2 / float64(3*nside)
	}
	tmp := jpll[face]*nr + ix - iy
	if tmp < 0 {
		tmp += 8 * nr
	} else if tmp >= 8*nr {
		tmp -= 8 * nr
	}
	phi = math.Pi * float64(tmp) / float64(4*nr)
	return
}

// CellOf returns the cell at order containing position p.
func CellOf(order int, p coord.Equa) Cell {
	z := math.Sin(float64(p.Dec))
	phi := float64(p.RA)
	nside := int64(NSide(order))
	za := math.Abs(z)
	tt := math.Mod(phi/(math.Pi/2), 4)
	if tt < 0 {
		tt += 4
	}
	if za <= 2./3 {
		// equatorial region
		t1 := float64(nside) * (.5 + tt)
		t2 := float64(nside) * z * .75
		jp := int64(t1 - t2) // ascending edge line
		jm := int64(t1 + t2) // descending edge line
		ifp := jp >> uint(order)
		ifm := jm >> uint(order)
		var face int64
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
		ix := jm & (nside - 1)
		iy := nside - (jp & (nside - 1)) - 1
		return Cell{order, xyfToNest(order, ix, iy, int(face))}
	}
	// polar caps
	ntt := int64(tt)
	if ntt > 3 {
		ntt = 3
	}
	tp := tt - float64(ntt)
	tmp := float64(nside) * math.Sqrt(3*(1-za))
	jp := int64(tp * tmp)
	jm := int64((1 - tp) * tmp)
	if jp > nside-1 {
		jp = nside - 1
	}
	if jm > nside-1 {
		jm = nside - 1
	}
	if z >= 0 {
		return Cell{order, xyfToNest(order, nside-jm-1, nside-jp-1, int(ntt))}
	}
	return Cell{order, xyfToNest(order, jp, jm, int(ntt+8))}
}
