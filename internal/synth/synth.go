// Public domain.

// Package synth builds synthetic probability sky maps.
//
// Maps are mixtures of Gaussian blobs on the sphere, optionally with
// multiplicative noise, or uniform patches.  They stand in for real
// localizations in tests and in the demo mode of gwmoc.
package synth

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/angle"
	"github.com/soniakeys/unit"
	"golang.org/x/exp/rand"

	"github.com/soniakeys/gwmoc/healpix"
)

// Blob is a Gaussian concentration of probability.  A zero Weight counts
// as 1.
type Blob struct {
	Center coord.Equa
	Sigma  unit.Angle
	Weight float64
}

// Dense returns probabilities per pixel at order, NESTED indexed, for a
// mixture of blobs.  The result sums to 1.
func Dense(order int, blobs ...Blob) []float64 {
	p := make([]float64, healpix.NPix(order))
	for i := range p {
		c := healpix.Center(healpix.Cell{Order: order, Index: uint64(i)})
		for _, b := range blobs {
			w := b.Weight
			if w == 0 {
				w = 1
			}
			d := angle.Sep(c.RA.Angle(), c.Dec, b.Center.RA.Angle(), b.Center.Dec).Rad()
			s := b.Sigma.Rad()
			p[i] += w * math.Exp(-d*d/(2*s*s))
		}
	}
	return normalize(p)
}

// Uniform returns probabilities at order spread evenly over the listed
// pixels, zero elsewhere.
func Uniform(order int, pixels []uint64) []float64 {
	p := make([]float64, healpix.NPix(order))
	for _, i := range pixels {
		p[i] = 1
	}
	return normalize(p)
}

// Noisy scales each probability by a random factor in [1-frac, 1+frac]
// and renormalizes.  p is modified and returned.
func Noisy(p []float64, frac float64, rnd *rand.Rand) []float64 {
	for i := range p {
		p[i] *= 1 + frac*(2*rnd.Float64()-1)
	}
	return normalize(p)
}

// RandomBlobs returns n blobs of width sigma centered uniformly on the
// sphere.
func RandomBlobs(rnd *rand.Rand, n int, sigma unit.Angle) []Blob {
	bs := make([]Blob, n)
	for i := range bs {
		bs[i] = Blob{
			Center: coord.Equa{
				RA:  unit.RA(2 * math.Pi * rnd.Float64()),
				Dec: unit.Angle(math.Asin(2*rnd.Float64() - 1)),
			},
			Sigma:  sigma,
			Weight: .5 + rnd.Float64(),
		}
	}
	return bs
}

// NewRand returns a PCG generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	rnd := rand.New(&rand.PCGSource{})
	rnd.Seed(seed)
	return rnd
}

func normalize(p []float64) []float64 {
	var t float64
	for _, x := range p {
		t += x
	}
	if t == 0 {
		return p
	}
	for i := range p {
		p[i] /= t
	}
	return p
}
