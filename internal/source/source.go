// Package source samples the ion-beam seed for each history: projectile
// species, starting energy, incidence angle and beam-spot position. The
// three distribution kinds (SingleValue/Uniform/Gaussian) are shared
// across energy, angular and spatial spread, matching ion_beam::parameters'
// reuse of one distribution type across all three.
package source

import (
	"errors"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/mroth/weightedrand"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/randvar"
)

// DistributionType selects how a scalar beam parameter (energy, polar
// divergence angle, beam-spot radius) is drawn.
type DistributionType int

const (
	SingleValue DistributionType = iota
	Uniform
	Gaussian
)

// Distribution is one {type, center, spread} triple. FWHM is the full
// width for Uniform (the draw spans [Center-FWHM/2, Center+FWHM/2]) or the
// full width at half maximum for Gaussian; it is ignored for SingleValue.
type Distribution struct {
	Type DistributionType
	Center float32
	FWHM   float32
}

// fwhmToSigma converts a Gaussian's full width at half maximum to its
// standard deviation (2*sqrt(2*ln2) ~= 2.3548).
const fwhmToSigma = 2.3548200450309493

// Sample draws one value from d.
func (d Distribution) Sample(rng *rand.Rand) float32 {
	switch d.Type {
	case Uniform:
		return d.Center + d.FWHM*(float32(rng.Float64())-0.5)
	case Gaussian:
		sigma := d.FWHM / fwhmToSigma
		return d.Center + sigma*randvar.Gaussian(rng)
	default:
		return d.Center
	}
}

// Beam is the fully-resolved ion source for a run: a stoichiometric mix of
// projectile species (almost always a single species, but the chooser
// supports an isotope mixture the way target.Material does for target
// atoms), an energy distribution, a polar divergence angle distribution
// (degrees off Dir, uniform azimuth), and a beam-spot radius distribution
// (uniform azimuth in the plane perpendicular to Dir).
type Beam struct {
	Species   []ion.Species
	Energy    Distribution
	Angle     Distribution
	Spatial   Distribution
	Origin    geom.Vec3
	Dir       geom.Vec3

	chooser *weightedrand.Chooser[ion.Species, uint64]
	e1, e2  geom.Vec3 // orthonormal basis perpendicular to Dir
}

const fractionScale = 1 << 24

// NewBeam builds a Beam from its projectile species/fractions and its
// three distributions. Rejects an energy distribution centered at or below
// zero at construction time, closing the original's stray zero-initialised
// energy_distribution hazard instead of discovering it one history at a
// time.
func NewBeam(species []ion.Species, fractions []float32, energy, angle, spatial Distribution, origin, dir geom.Vec3) (*Beam, error) {
	if len(species) != len(fractions) {
		return nil, errors.New("source: species/fractions length mismatch")
	}
	if len(species) == 0 {
		return nil, errors.New("source: no projectile species given")
	}
	if energy.Center <= 0 {
		return nil, errors.New("source: energy distribution must have a positive center")
	}

	choices := make([]weightedrand.Choice[ion.Species, uint64], len(species))
	for i, sp := range species {
		w := uint64(fractions[i] * fractionScale)
		if w == 0 {
			w = 1
		}
		choices[i] = weightedrand.NewChoice(sp, w)
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, err
	}

	b := &Beam{
		Species: append([]ion.Species(nil), species...),
		Energy:  energy, Angle: angle, Spatial: spatial,
		Origin: origin, Dir: dir.Normalized(),
		chooser: chooser,
	}
	b.e1, b.e2 = orthonormalBasis(b.Dir)
	return b, nil
}

// orthonormalBasis returns two unit vectors spanning the plane
// perpendicular to dir.
func orthonormalBasis(dir geom.Vec3) (e1, e2 geom.Vec3) {
	up := geom.Vec3{Z: 1}
	if math32.Abs(dir.Z) > 0.999 {
		up = geom.Vec3{X: 1}
	}
	e1 = dir.Cross(up).Normalized()
	e2 = dir.Cross(e1).Normalized()
	return
}

// Sample draws one source ion: species, starting energy, position in the
// beam spot, and direction with the configured angular divergence applied.
// Rejects a non-positive energy draw (keeps retrying), matching the same
// "never launch a zero-energy ion" guarantee NewBeam enforces at
// construction for a SingleValue distribution.
func (b *Beam) Sample(rng *rand.Rand) (sp ion.Species, erg float32, pos, dir geom.Vec3) {
	sp = b.chooser.PickSource(rng)

	for {
		erg = b.Energy.Sample(rng)
		if erg > 0 {
			break
		}
	}

	r := b.Spatial.Sample(rng)
	cosA, sinA, _ := randvar.AzimuthDirNorm(rng)
	pos = b.Origin.Add(b.e1.Scale(r * cosA)).Add(b.e2.Scale(r * sinA))

	thetaDeg := b.Angle.Sample(rng)
	theta := thetaDeg / 180 * math32.Pi
	sinTheta, cosTheta := math32.Sincos(theta)
	cosPhi, sinPhi, _ := randvar.AzimuthDirNorm(rng)

	local := ion.State{Dir: b.Dir}
	local.Deflect(geom.Vec3{X: sinTheta * cosPhi, Y: sinTheta * sinPhi, Z: cosTheta})
	dir = local.Dir
	return
}
