// Package dedx implements electronic stopping and straggling interpolation:
// log-log interpolation of a tabulated stopping-power/straggling-coefficient
// curve on the shared quasi-log energy grid, with Bragg-rule mixing for
// polyatomic targets.
//
// The raw per-(Z1,Z2) table values are never computed here — they come from
// an injected Source function, since the actual libdedx data compilation is
// an explicit collaborator, not part of this module.
package dedx

import (
	"math"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/grid"
)

// ERange is the shared quasi-log energy grid every stopping/straggling
// interpolator is tabulated over: 16 eV to 2^30 eV in 4-bit (416-interval)
// steps, matching the original dedx_erange.
var ERange = grid.NewSeq(4, 4, 30)

// Source supplies raw stopping-power [eV/(10^15 at/cm2)] or straggling
// values at a single tabulated energy for one projectile/target species
// pair. A real Driver wires this to a libdedx-backed table; tests can wire
// a closed-form stand-in.
type Source func(z1 int, m1 float32, z2 int, energy float32) float32

// StoppingInterpolator gives electronic stopping power dE/dx [eV/nm] for one
// projectile species in one material, already Bragg-mixed over the
// material's atomic composition.
type StoppingInterpolator struct {
	interp *grid.LogInterp
}

// NewStoppingInterpolator builds the mixed stopping-power table for a
// projectile (z1,m1) through a target made of species z2[i] at atomic
// fraction x2[i] (must sum to 1) and atomic density n [at/nm^3]:
//
//	dE/dx(E) = 0.1 * n * Σ_i x2[i] * src(z1,m1,z2[i],E)
//
// (the 0.1 converts eV/(10^15 at/cm2) times at/nm^3 into eV/nm).
func NewStoppingInterpolator(src Source, z1 int, m1 float32, z2 []int, x2 []float32, n float32) *StoppingInterpolator {
	y := make([]float32, ERange.Size())
	for i := range y {
		e := ERange.Value(i)
		var s float32
		for k, z := range z2 {
			s += x2[k] * src(z1, m1, z, e)
		}
		v := 0.1 * n * s
		if v <= 0 {
			v = 1e-20 // log-log interpolation requires strictly positive samples
		}
		y[i] = v
	}
	return &StoppingInterpolator{interp: grid.NewLogInterp(ERange, y)}
}

// Eval returns dE/dx [eV/nm] at projectile energy E [eV], extrapolating
// below the table's minimum with a sqrt(E) scaling (the stopping power of
// a slow ion falls roughly as its velocity).
func (s *StoppingInterpolator) Eval(E float32) float32 {
	v := s.interp.Eval(E)
	if E < ERange.MinVal() {
		v *= float32(math.Sqrt(float64(E / ERange.MinVal())))
	}
	return v
}

// Data exposes the raw interpolation table.
func (s *StoppingInterpolator) Data() []float32 { return s.interp.Data() }

// StragglingInterpolator gives the electronic-straggling coefficient
// Ω(E) [eV/nm^(1/2)] for one projectile species in one material, Bragg-mixed
// in quadrature (Ω² is additive, not Ω itself).
type StragglingInterpolator struct {
	interp *grid.LogInterp
}

// NewStragglingInterpolator mirrors NewStoppingInterpolator but mixes
// Ω² = n * Σ_i x2[i] * src(...)² per the Bragg rule for straggling
// (dedx.h: "Ω² = N Σ Xi Ωi²").
func NewStragglingInterpolator(src Source, z1 int, m1 float32, z2 []int, x2 []float32, n float32) *StragglingInterpolator {
	y := make([]float32, ERange.Size())
	for i := range y {
		e := ERange.Value(i)
		var s2 float32
		for k, z := range z2 {
			w := src(z1, m1, z, e)
			s2 += x2[k] * w * w
		}
		v := n * s2
		if v <= 0 {
			v = 1e-20
		}
		y[i] = float32(math.Sqrt(float64(v)))
	}
	return &StragglingInterpolator{interp: grid.NewLogInterp(ERange, y)}
}

// Eval returns Ω(E) in eV/nm^(1/2).
func (s *StragglingInterpolator) Eval(E float32) float32 { return s.interp.Eval(E) }

// Data exposes the raw interpolation table.
func (s *StragglingInterpolator) Data() []float32 { return s.interp.Data() }
