// Package transport implements the per-ion Monte-Carlo transport loop:
// flight-path sampling, boundary-crossing handling,
// electronic stopping, scattering, recoil generation, and cascade
// bookkeeping, wired together from internal/ion, internal/xs,
// internal/dedx, internal/flightpath, internal/cascade, internal/tally and
// internal/target.
package transport

import "github.com/ir2-lab/OpenTRIM-sub000/internal/xs"

// pairKey indexes a scattering calculator by (projectile atom id, target
// atom id) — internal/xs builds one LabScatteringCalc per ordered pair of
// atomic species participating in the run.
type pairKey struct{ z1, z2 int }

// ScatterRegistry adapts a set of per-species-pair xs.LabScatteringCalc
// instances to flightpath.ScatterQuery's per-call (z1,z2) signature:
// LabScatteringCalc itself is built once per pair and exposes Scatter/FindP
// with no z1/z2 arguments (the pair is baked into the receiver), while
// flightpath.Tables needs one ScatterQuery value that can answer for any
// pair of species appearing in a material. The registry is the single
// place that bridges the two shapes.
type ScatterRegistry struct {
	scr   xs.Screening
	calcs map[pairKey]*xs.LabScatteringCalc
}

// NewScatterRegistry returns an empty registry for the given screening
// kind. Calculators are added with Add as the run's atom table is built.
func NewScatterRegistry(scr xs.Screening) *ScatterRegistry {
	return &ScatterRegistry{scr: scr, calcs: make(map[pairKey]*xs.LabScatteringCalc)}
}

// Add registers the scattering calculator for projectile atom id z1
// (Z=pz, M=pm) against target atom id z2 (Z=tz, M=tm), building it if not
// already present. Atom ids, not atomic numbers, key the registry: two
// distinct atom-table entries sharing a Z (e.g. an isotope marker) still
// get distinct calculators.
func (r *ScatterRegistry) Add(z1 int, pz int, pm float32, z2 int, tz int, tm float32) *xs.LabScatteringCalc {
	k := pairKey{z1, z2}
	if c, ok := r.calcs[k]; ok {
		return c
	}
	c := xs.NewLabScatteringCalc(r.scr, pz, pm, tz, tm)
	r.calcs[k] = c
	return c
}

// Get returns the calculator previously registered for (z1,z2), or nil.
func (r *ScatterRegistry) Get(z1, z2 int) *xs.LabScatteringCalc {
	return r.calcs[pairKey{z1, z2}]
}

// Gamma implements flightpath.ScatterQuery.
func (r *ScatterRegistry) Gamma(z1, z2 int) float32 {
	if c := r.Get(z1, z2); c != nil {
		return c.Gamma
	}
	return 0
}

// MassRatio implements flightpath.ScatterQuery (A = M1/M2, already computed
// by LabScatteringCalc).
func (r *ScatterRegistry) MassRatio(z1, z2 int) float32 {
	if c := r.Get(z1, z2); c != nil {
		return c.A
	}
	return 0
}

// FindP implements flightpath.ScatterQuery.
func (r *ScatterRegistry) FindP(z1, z2 int, E, T float32) float32 {
	if c := r.Get(z1, z2); c != nil {
		return c.FindP(E, T)
	}
	return 0
}
