package transport

import (
	"math/rand"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/dedx"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/flightpath"
)

// flightSampler bundles the two per-(projectile species, material) tables
// the transport loop needs together, refreshed as a single unit whenever
// the ion crosses into a new material (mccore.cpp's paired
// dedx_calc_.preload/flight_path_calc_.preload calls).
type flightSampler struct {
	fp   *flightpath.Sampler
	dedx *dedx.Calc

	cosPhi, sinPhi float32
}

// preload refreshes the sampler for atomID in material matID.
func (w *Worker) preload(atomID, matID int) *flightSampler {
	return &flightSampler{
		fp:   w.Ctx.FlightPath.Preload(atomID, matID),
		dedx: w.Ctx.DedxFor(atomID, matID),
	}
}

// sample draws a flight path/impact parameter pair at energy E, caching the
// azimuthal direction cosines the subsequent deflection step reuses
// (the SAMPLE_P_AND_N path).
func (s *flightSampler) sample(rng *rand.Rand, E float32) (fp, ip float32, collide bool) {
	fp, ip, collide = s.fp.Sample(rng, E)
	s.cosPhi, s.sinPhi = s.fp.CosPhi, s.fp.SinPhi
	return
}
