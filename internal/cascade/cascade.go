// Package cascade implements the recoil-cascade defect queue and
// intra-cascade vacancy/interstitial recombination: vacancy
// and interstitial records are accumulated as a cascade's recoils stop or
// leave the lattice, then matched against each other within a
// species-specific recombination radius, either in strict creation-time
// order or irrespective of time, per the configured engine.
package cascade

import (
	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

// DefectType distinguishes a vacancy from an interstitial record.
type DefectType int

const (
	DefectVacancy DefectType = iota
	DefectInterstitial
)

// Defect is one vacancy or interstitial record generated while processing
// a cascade: a frozen snapshot of the ion state that produced it.
type Defect struct {
	Type   DefectType
	HID    uint64 // source-ion history id
	RID    int    // recoil generation id
	CID    int    // cell id
	T      float32
	Pos    geom.Vec3
	Dir    geom.Vec3
	Atom   *target.Atom
	PairID uint64 // the originating ion's unique id
}

// FromIon fills d from the current (or, if initial, the track-start) state
// of i.
func FromIon(d *Defect, typ DefectType, i *ion.State, a *target.Atom, initial bool) {
	d.Type = typ
	d.T = i.T
	if initial {
		d.Pos = i.Pos0
		d.CID = i.CellID0
	} else {
		d.Pos = i.Pos
		d.CID = i.CellID
	}
	d.Dir = i.Dir
	d.Atom = a
	d.PairID = i.UID
	d.HID = i.IonID
	d.RID = i.RecoilID
}

// Pair is one recombined interstitial/vacancy match.
type Pair struct {
	I, V *Defect
}

// buffer is a simple allocate-or-recycle arena of *Defect records, reset
// once per cascade instead of freed (cascade.h's defect_buffer).
type buffer struct {
	all  []*Defect
	free []*Defect
}

func (b *buffer) get() *Defect {
	if n := len(b.free); n > 0 {
		d := b.free[n-1]
		b.free = b.free[:n-1]
		return d
	}
	d := &Defect{}
	b.all = append(b.all, d)
	return d
}

func (b *buffer) reset() {
	b.free = append(b.free[:0], b.all...)
}

// Grid abstracts the one geometric operation recombination-radius matching
// needs, so this package doesn't need to import internal/geom's full Grid
// type for tests.
type Grid interface {
	Distance(a, b geom.Vec3) float32
}

// Result is what a finished cascade contributes to the run: recombined
// pairs (for tally updates) and the remaining, unmatched defects (to be
// written to the event stream as permanent damage).
type Result struct {
	Pairs             []Pair
	Interstitials     []*Defect
	Vacancies         []*Defect
}

// CountRIV tallies recombined pairs per target-atom id into s, and the
// subset of those that are "correlated" (the interstitial and vacancy
// trace back to the same originating recoil) into sc. Both indexed by
// atom.ID-1, matching abstract_cascade::count_riv.
//
// This single implementation is shared by every Engine's Result, so
// correlated-recombination accounting is identical regardless of which
// recombination engine produced the pairs.
func (r Result) CountRIV(s, sc []float32) {
	for _, p := range r.Pairs {
		idx := p.I.Atom.ID - 1
		if idx < 0 || idx >= len(s) {
			continue
		}
		s[idx]++
		if p.I.PairID == p.V.PairID {
			sc[idx]++
		}
	}
}

// findPartner returns the index in candidates of the closest anti-defect to
// d within its species' recombination radius, or -1 if none qualifies (cascade.h's
// find_rc_partner, specialized to a plain slice since Go has no generic
// std::list equivalent worth reproducing here).
func findPartner(g Grid, d *Defect, candidates []*Defect) int {
	rc := d.Atom.Rc
	best := -1
	var bestDist float32
	for idx, c := range candidates {
		if c.Atom != d.Atom {
			continue
		}
		dist := g.Distance(d.Pos, c.Pos)
		if dist < rc && (best < 0 || dist < bestDist) {
			best = idx
			bestDist = dist
		}
	}
	return best
}

func removeAt(s []*Defect, i int) []*Defect {
	s[i] = s[len(s)-1]
	return s[:len(s)-1]
}
