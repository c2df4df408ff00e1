package dedx

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/randvar"
)

// Mode selects whether electronic stopping/straggling is applied at all
// along a flight segment.
type Mode int

const (
	// ModeOff disables electronic energy loss entirely.
	ModeOff Mode = iota
	// ModeStoppingOnly applies the mean stopping power, no straggling.
	ModeStoppingOnly
	// ModeStoppingAndStraggling applies both, drawing one Gaussian per
	// flight segment for the straggling term.
	ModeStoppingAndStraggling
)

// Calc is the per-(projectile,material) electronic energy-loss calculator
// the transport loop calls once per flight segment (dedx.h's
// dedx_calc::operator()).
type Calc struct {
	Mode       Mode
	stopping   *StoppingInterpolator
	straggling *StragglingInterpolator
}

// NewCalc pairs a stopping interpolator with an optional straggling
// interpolator (nil disables straggling regardless of mode).
func NewCalc(mode Mode, stopping *StoppingInterpolator, straggling *StragglingInterpolator) *Calc {
	if straggling == nil && mode == ModeStoppingAndStraggling {
		mode = ModeStoppingOnly
	}
	return &Calc{Mode: mode, stopping: stopping, straggling: straggling}
}

// DeltaE returns the electronic energy loss [eV] over a flight segment of
// length fp [nm] at current ion energy E [eV], clamped so it never exceeds
// E (a stopped ion keeps a small positive residual energy rather than
// going negative, matching dedx.h's __impl_de__).
func (c *Calc) DeltaE(E, fp float32, rng *rand.Rand) float32 {
	if c.Mode == ModeOff {
		return 0
	}
	de := fp * c.stopping.Eval(E)
	if c.Mode == ModeStoppingAndStraggling {
		de += c.straggling.Eval(E) * randvar.Gaussian(rng) * math32.Sqrt(fp)
	}
	return clampDeltaE(de, E)
}

// clampDeltaE caps de so that E-de stays strictly positive even under
// round-off, matching the original's "rare event" guard in __impl_de__.
func clampDeltaE(de, E float32) float32 {
	if de <= E {
		return de
	}
	const delta = 1e-3
	if E > 2*delta {
		return E - delta
	}
	return 0.5 * E
}
