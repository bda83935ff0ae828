// Public domain.

package moc_test

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/gwmoc/healpix"
	"github.com/soniakeys/gwmoc/moc"
)

func ExampleNew() {
	m, _ := moc.New(3,
		healpix.Cell{Order: 2, Index: 4},
		healpix.Cell{Order: 2, Index: 5},
		healpix.Cell{Order: 2, Index: 6},
		healpix.Cell{Order: 2, Index: 7},
		healpix.Cell{Order: 3, Index: 40},
		healpix.Cell{Order: 2, Index: 9},
		healpix.Cell{Order: 3, Index: 37}, // inside 2/9
	)
	fmt.Println(m)
	fmt.Println(m.Len(), "cells")
	fmt.Printf("%.6f of the sky\n", m.Area())
	// Output:
	// 1/1 2/9 3/40
	// 3 cells
	// 0.027344 of the sky
}

func ExampleMOC_Intersection() {
	a, _ := moc.ParseText("1/0-3")
	b, _ := moc.ParseText("0/0 1/")
	i, _ := a.Intersection(b)
	u, _ := a.Union(b)
	fmt.Println(i, "|", u)
	fmt.Printf("%.1f %.1f\n", i.SquareDegrees(), u.SquareDegrees())
	// Output:
	// 0/0 1/ | 0/0 1/
	// 3437.7 3437.7
}

// randomMOC builds a MOC from n random cells of order up to depth.
func randomMOC(t *testing.T, rnd *xrand.Rand, depth, n int) *moc.MOC {
	cells := make([]healpix.Cell, n)
	for i := range cells {
		o := rnd.Intn(depth + 1)
		cells[i] = healpix.Cell{Order: o, Index: rnd.Uint64n(healpix.NPix(o))}
	}
	m, err := moc.New(depth, cells...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newRand(seed uint64) *xrand.Rand {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	return rnd
}

func TestNormalForm(t *testing.T) {
	rnd := newRand(1)
	for trial := 0; trial < 50; trial++ {
		m := randomMOC(t, rnd, 5, 200)
		cells := m.Cells()
		again, err := moc.New(5, cells...)
		if err != nil {
			t.Fatal(err)
		}
		if !again.Equal(m) {
			t.Fatalf("normalize not idempotent:\n%v\n%v", m, again)
		}
		present := map[healpix.Cell]bool{}
		for _, c := range cells {
			present[c] = true
		}
		for _, c := range cells {
			for o := 0; o < c.Order; o++ {
				if present[c.Ancestor(o)] {
					t.Fatalf("%v present with ancestor %v", c, c.Ancestor(o))
				}
			}
			if c.Order > 0 {
				all := true
				for _, s := range c.Parent().Children() {
					all = all && present[s]
				}
				if all {
					t.Fatalf("siblings of %v not merged", c)
				}
			}
		}
	}
}

func TestInclusionExclusion(t *testing.T) {
	rnd := newRand(2)
	for trial := 0; trial < 50; trial++ {
		a := randomMOC(t, rnd, 6, 100)
		b := randomMOC(t, rnd, 6, 100)
		u, err := a.Union(b)
		if err != nil {
			t.Fatal(err)
		}
		i, err := a.Intersection(b)
		if err != nil {
			t.Fatal(err)
		}
		if d := u.Area() + i.Area() - a.Area() - b.Area(); math.Abs(d) > 1e-12 {
			t.Fatal("inclusion-exclusion off by", d)
		}
		if i.Area() > math.Min(a.Area(), b.Area()) {
			t.Fatal("intersection larger than an operand")
		}
		diff, err := a.Difference(b)
		if err != nil {
			t.Fatal(err)
		}
		if d := diff.Area() + i.Area() - a.Area(); math.Abs(d) > 1e-12 {
			t.Fatal("difference area off by", d)
		}
		if back, _ := diff.Union(i); !back.Equal(a) {
			t.Fatal("(a-b) ∪ (a∩b) != a")
		}
		if c := a.Complement(); math.Abs(c.Area()+a.Area()-1) > 1e-12 {
			t.Fatal("complement area", c.Area())
		}
	}
}

func TestDisjoint(t *testing.T) {
	a, _ := moc.New(4, healpix.Cell{Order: 0, Index: 0}, healpix.Cell{Order: 4, Index: 3000})
	b, _ := moc.New(4, healpix.Cell{Order: 1, Index: 4}, healpix.Cell{Order: 3, Index: 700})
	i, _ := a.Intersection(b)
	if !i.IsEmpty() || i.Area() != 0 {
		t.Fatal("disjoint intersection =", i)
	}
	u, _ := a.Union(b)
	if math.Abs(u.Area()-a.Area()-b.Area()) > 1e-15 {
		t.Fatal("disjoint union area", u.Area())
	}
}

func TestFullEmpty(t *testing.T) {
	f := moc.Full(3)
	if f.Area() != 1 || len(f.Cells()) != 12 {
		t.Fatal("full sky:", f)
	}
	if math.Abs(f.SquareDegrees()-41252.96) > .01 {
		t.Fatal("full sky square degrees", f.SquareDegrees())
	}
	if math.Abs(f.SolidAngle()-4*math.Pi) > 1e-12 {
		t.Fatal("full sky solid angle", f.SolidAngle())
	}
	e := moc.Empty(3)
	if !e.IsEmpty() || e.Area() != 0 || e.String() != "3/" {
		t.Fatal("empty:", e)
	}
	if !f.Complement().Equal(e) || !e.Complement().Equal(f) {
		t.Fatal("complement of full/empty")
	}
}

func TestContains(t *testing.T) {
	m, _ := moc.New(6, healpix.Cell{Order: 2, Index: 17}, healpix.Cell{Order: 6, Index: 3})
	cases := []struct {
		c    healpix.Cell
		want bool
	}{
		{healpix.Cell{Order: 2, Index: 17}, true},
		{healpix.Cell{Order: 4, Index: 17*16 + 5}, true},
		{healpix.Cell{Order: 9, Index: (17*256 + 1) * 64}, true},
		{healpix.Cell{Order: 1, Index: 4}, false},
		{healpix.Cell{Order: 2, Index: 16}, false},
		{healpix.Cell{Order: 6, Index: 3}, true},
		{healpix.Cell{Order: 5, Index: 0}, false},
		{healpix.Cell{Order: 0, Index: 12}, false},
	}
	for _, tc := range cases {
		if got := m.Contains(tc.c); got != tc.want {
			t.Errorf("Contains(%v) = %t, want %t", tc.c, got, tc.want)
		}
	}
	p := healpix.Center(healpix.Cell{Order: 8, Index: 17 * 4096})
	if !m.ContainsPoint(p) {
		t.Error("ContainsPoint false for point in 2/17")
	}
}

func TestResolution(t *testing.T) {
	a, _ := moc.New(3, healpix.Cell{Order: 3, Index: 9})
	b, _ := moc.New(5, healpix.Cell{Order: 5, Index: 9 * 16})
	if _, err := a.Union(b); !moc.IsKind(err, moc.KindResolutionMismatch) {
		t.Fatal("Union across orders:", err)
	}
	if _, err := a.Intersection(b); !moc.IsKind(err, moc.KindResolutionMismatch) {
		t.Fatal("Intersection across orders:", err)
	}
	w, err := a.Widen(5)
	if err != nil {
		t.Fatal(err)
	}
	if w.MaxOrder() != 5 || w.Area() != a.Area() || w.String() != "3/9 5/" {
		t.Fatal("Widen:", w)
	}
	i, err := w.Intersection(b)
	if err != nil || !i.Equal(b) {
		t.Fatal("Intersection after Widen:", i, err)
	}
	if _, err := w.Widen(4); !moc.IsKind(err, moc.KindInvalidInput) {
		t.Fatal("Widen to coarser order:", err)
	}
	aa, bb := moc.Align(a, b)
	if aa.MaxOrder() != 5 || bb != b {
		t.Fatal("Align")
	}
}

func TestDegrade(t *testing.T) {
	rnd := newRand(3)
	for trial := 0; trial < 20; trial++ {
		m := randomMOC(t, rnd, 7, 50)
		d, err := m.Degrade(4)
		if err != nil {
			t.Fatal(err)
		}
		w, _ := d.Widen(7)
		if i, _ := w.Intersection(m); !i.Equal(m) {
			t.Fatal("degraded MOC does not cover original")
		}
		if d.Area() < m.Area() {
			t.Fatal("degraded area smaller")
		}
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := moc.New(3, healpix.Cell{Order: 4, Index: 0}); !moc.IsKind(err, moc.KindInvalidInput) {
		t.Fatal("cell finer than max order:", err)
	}
	if _, err := moc.New(3, healpix.Cell{Order: 1, Index: 48}); !moc.IsKind(err, moc.KindInvalidInput) {
		t.Fatal("cell off the sphere:", err)
	}
	if _, err := moc.New(30); !moc.IsKind(err, moc.KindInvalidInput) {
		t.Fatal("max order 30:", err)
	}
	if _, err := moc.FromRanges(1, []moc.Range{{40, 49}}); !moc.IsKind(err, moc.KindInvalidInput) {
		t.Fatal("range off the sphere:", err)
	}
	m, err := moc.FromRanges(1, []moc.Range{{8, 12}, {4, 8}, {20, 20}, {10, 14}})
	if err != nil || m.String() != "0/1-2 1/12-13" {
		t.Fatal("FromRanges:", m, err)
	}
}

func TestRoundTrip(t *testing.T) {
	rnd := newRand(4)
	ms := []*moc.MOC{moc.Empty(0), moc.Empty(29), moc.Full(0), moc.Full(29)}
	for i := 0; i < 20; i++ {
		ms = append(ms, randomMOC(t, rnd, 1+rnd.Intn(12), 1+rnd.Intn(300)))
	}
	for _, m := range ms {
		b, err := m.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		d, err := moc.Decode(b)
		if err != nil || !d.Equal(m) {
			t.Fatal("binary round trip:", err)
		}

		txt, _ := m.MarshalText()
		var fromText moc.MOC
		if err := fromText.UnmarshalText(txt); err != nil || !fromText.Equal(m) {
			t.Fatalf("text round trip %s: %v", txt, err)
		}

		j, err := json.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		var fromJSON moc.MOC
		if err := json.Unmarshal(j, &fromJSON); err != nil || !fromJSON.Equal(m) {
			t.Fatalf("JSON round trip %s: %v", j, err)
		}

		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(m); err != nil {
			t.Fatal(err)
		}
		var fromGob moc.MOC
		if err := gob.NewDecoder(&buf).Decode(&fromGob); err != nil || !fromGob.Equal(m) {
			t.Fatal("gob round trip:", err)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	m, _ := moc.New(8, healpix.Cell{Order: 3, Index: 100}, healpix.Cell{Order: 8, Index: 7})
	b, _ := m.MarshalBinary()
	for n := 0; n < len(b); n++ {
		if _, err := moc.Decode(b[:n]); !moc.IsKind(err, moc.KindSerialization) {
			t.Fatalf("truncated to %d bytes: %v", n, err)
		}
	}
	for i := range b {
		c := append([]byte(nil), b...)
		c[i] ^= 0x10
		if _, err := moc.Decode(c); !moc.IsKind(err, moc.KindSerialization) {
			t.Fatalf("byte %d flipped: %v", i, err)
		}
	}
}

func TestParseText(t *testing.T) {
	m, err := moc.ParseText("1/1,3 2/4\n")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := moc.New(2,
		healpix.Cell{Order: 1, Index: 1},
		healpix.Cell{Order: 1, Index: 3},
		healpix.Cell{Order: 2, Index: 4})
	if !m.Equal(want) {
		t.Fatal("ParseText MOC 1.1 form:", m)
	}
	for _, bad := range []string{"", "5", "x/3", "3/x", "0/12", "1/5-2", "30/"} {
		if _, err := moc.ParseText(bad); !moc.IsKind(err, moc.KindSerialization) {
			t.Errorf("ParseText(%q): %v", bad, err)
		}
	}
	var j moc.MOC
	if err := j.UnmarshalJSON([]byte(`{"0":[13]}`)); !moc.IsKind(err, moc.KindSerialization) {
		t.Error("JSON index off the sphere:", err)
	}
}
