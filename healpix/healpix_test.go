// Public domain.

package healpix_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/gwmoc/healpix"
)

func ExampleCell_Uniq() {
	c := healpix.Cell{Order: 3, Index: 17}
	u := c.Uniq()
	back, ok := healpix.FromUniq(u)
	fmt.Println(u, back, ok)
	// Output:
	// 273 3/17 true
}

func ExampleCenter() {
	for _, i := range []uint64{0, 4, 11} {
		p := healpix.Center(healpix.Cell{Order: 0, Index: i})
		fmt.Printf("%d: RA %.2f Dec %.2f\n",
			i, unit.Angle(p.RA).Deg(), p.Dec.Deg())
	}
	// Output:
	// 0: RA 45.00 Dec 41.81
	// 4: RA 0.00 Dec 0.00
	// 11: RA 315.00 Dec -41.81
}

func TestNPix(t *testing.T) {
	for o, want := range []uint64{12, 48, 192, 768} {
		if got := healpix.NPix(o); got != want {
			t.Fatalf("NPix(%d) = %d, want %d", o, got, want)
		}
	}
	if got := healpix.NPix(healpix.MaxOrder); got > math.MaxInt64 {
		t.Fatal("NPix(MaxOrder) overflows int64:", got)
	}
	sum := healpix.PixelArea(4) * float64(healpix.NPix(4))
	if math.Abs(sum-4*math.Pi) > 1e-12 {
		t.Fatal("pixel areas sum to", sum)
	}
}

func TestUniqRoundTrip(t *testing.T) {
	for o := 0; o <= healpix.MaxOrder; o++ {
		for _, i := range []uint64{0, 1, healpix.NPix(o) - 1} {
			c := healpix.Cell{Order: o, Index: i}
			got, ok := healpix.FromUniq(c.Uniq())
			if !ok || got != c {
				t.Fatalf("FromUniq(%d) = %v %t, want %v", c.Uniq(), got, ok, c)
			}
		}
	}
	for _, u := range []uint64{0, 1, 3, 1 << 62} {
		if _, ok := healpix.FromUniq(u); ok {
			t.Fatal("FromUniq accepted", u)
		}
	}
}

func TestAncestry(t *testing.T) {
	c := healpix.Cell{Order: 5, Index: 4097}
	a := c.Ancestor(2)
	if a != (healpix.Cell{Order: 2, Index: 64}) {
		t.Fatal("Ancestor(2) =", a)
	}
	if !a.Contains(c) || c.Contains(a) {
		t.Fatal("Contains relation wrong")
	}
	if p := c.Parent(); p != (healpix.Cell{Order: 4, Index: 1024}) {
		t.Fatal("Parent =", p)
	}
	for _, ch := range a.Children() {
		if ch.Parent() != a {
			t.Fatal("child", ch, "has parent", ch.Parent())
		}
	}
	lo, hi := a.Range(5)
	if lo != 4096 || hi != 4160 || c.Index < lo || c.Index >= hi {
		t.Fatal("Range(5) =", lo, hi)
	}
}

func TestCenterCellOf(t *testing.T) {
	for o := 0; o <= 5; o++ {
		for i := uint64(0); i < healpix.NPix(o); i++ {
			c := healpix.Cell{Order: o, Index: i}
			if got := healpix.CellOf(o, healpix.Center(c)); got != c {
				t.Fatalf("CellOf(Center(%v)) = %v", c, got)
			}
		}
	}
}

func TestCellOfPoles(t *testing.T) {
	north := coord.Equa{RA: 0, Dec: unit.AngleFromDeg(90)}
	south := coord.Equa{RA: 0, Dec: unit.AngleFromDeg(-90)}
	for o := 0; o <= 8; o++ {
		n := healpix.CellOf(o, north)
		if n.Ancestor(0).Index > 3 {
			t.Fatal("north pole in base cell", n.Ancestor(0))
		}
		s := healpix.CellOf(o, south)
		if s.Ancestor(0).Index < 8 {
			t.Fatal("south pole in base cell", s.Ancestor(0))
		}
	}
}
