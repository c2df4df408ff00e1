// Package randvar implements the small set of random-variable helpers the
// transport kernel needs: an open-interval uniform draw, a standard normal
// (for straggling), and the disk-rejection azimuth sampler that returns
// (cosφ, sinφ) together with a uniform variate u = 1-r² "for free" — saving
// one RNG call per flight-path sample.
package randvar

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// U01Open draws a float32 uniformly from the open interval (0,1), never
// returning exactly 0 or 1.
func U01Open(rng *rand.Rand) float32 {
	for {
		v := float32(rng.Float64())
		if v > 0 && v < 1 {
			return v
		}
	}
}

// Gaussian draws a standard-normal float32 variate, used for electronic
// straggling.
func Gaussian(rng *rand.Rand) float32 {
	return float32(rng.NormFloat64())
}

// AzimuthDirNorm rejection-samples a point uniformly inside the unit disk
// and returns its normalized direction cosine/sine (cosφ, sinφ) together
// with u = 1-(x²+y²), a uniform variate on (0,1) independent of the
// azimuth. Reusing u avoids a second RNG draw when the flight-path sampler
// needs both an azimuth and a uniform collision-decision variate in the
// same step.
func AzimuthDirNorm(rng *rand.Rand) (cosPhi, sinPhi, u float32) {
	for {
		x := 2*float32(rng.Float64()) - 1
		y := 2*float32(rng.Float64()) - 1
		r2 := x*x + y*y
		if r2 > 0 && r2 < 1 {
			inv := 1 / math32.Sqrt(r2)
			return x * inv, y * inv, 1 - r2
		}
	}
}
