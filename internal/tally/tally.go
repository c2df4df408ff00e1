// Package tally implements the per-(atom,cell) accumulator set the
// transport loop updates as each ion history unfolds: vacancy/implantation/
// replacement/displacement counts, deposited-energy channels, PKA damage
// estimators, and the ion-collision/flight-path statistics.
//
// A Tally is owned by exactly one worker; per-worker tallies are summed
// (with a companion sum-of-squares buffer for run-level variance) once a
// worker's share of histories is done.
package tally

import (
	"github.com/ir2-lab/OpenTRIM-sub000/internal/arrayset"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

// Channel names one accumulator array. The values match arrayName's index
// order in tally.cpp, minus the unused Totals/X padding slots.
type Channel int

const (
	Vacancies Channel = iota
	Implantations
	Replacements
	Recombinations
	Displacements
	Ionization
	Lattice
	Stored
	Lost
	Pka
	PkaEnergy
	Tdam
	TdamLSS
	Vnrt
	VnrtLSS
	FlightPath
	Collisions
	IonsExited
	numChannels
)

var channelNames = [numChannels]string{
	Vacancies:      "Vacancies",
	Implantations:  "Implantations",
	Replacements:   "Replacements",
	Recombinations: "Recombinations",
	Displacements:  "Displacements",
	Ionization:     "Ionization",
	Lattice:        "Lattice",
	Stored:         "Stored",
	Lost:           "Lost",
	Pka:            "Pka",
	PkaEnergy:      "Pka_energy",
	Tdam:           "Tdam",
	TdamLSS:        "Tdam_LSS",
	Vnrt:           "Vnrt",
	VnrtLSS:        "Vnrt_LSS",
	FlightPath:     "Flight_path",
	Collisions:     "Collisions",
	IonsExited:     "Lost",
}

// Name returns c's display name (tally.cpp's arrayName).
func (c Channel) Name() string { return channelNames[c] }

// Event names the transport-loop occurrences a Tally reacts to (ion.h's
// Event enum).
type Event int

const (
	EventBoundaryCrossing Event = iota
	EventReplacement
	EventIonStop
	EventIonExit
	EventCascadeComplete
)

// CascadeReport carries the five damage-energy estimates a finished cascade
// contributes at its PKA's cell (tally.cpp's CascadeComplete payload: PKA
// recoil energy, then Tdam_LSS/Vnrt_LSS/Tdam/Vnrt).
type CascadeReport struct {
	Energy    float32
	TdamLSS   float32
	VnrtLSS   float32
	Tdam      float32
	Vnrt      float32
}

// Tally holds one arrayset.ArrayND[float64] per Channel, each shaped
// (nAtoms, nCells), plus a companion sum-of-squares-per-history buffer (A2)
// used to report the variance of the per-history mean. Atom id 0 is the
// projectile species; ids 1..nAtoms-1 are target-material constituents
// (target.Atom.ID).
type Tally struct {
	nAtoms, nCells int
	A              [numChannels]*arrayset.ArrayND[float64]
	A2             [numChannels]*arrayset.ArrayND[float64]
	delta          [numChannels]*arrayset.ArrayND[float64]
	dirty          [numChannels][]bool // parallel to delta's flat buffer
	touched        [numChannels][]int  // indices touched since the last StartHistory
	Histories      uint64
}

// New allocates a zeroed Tally for a run with nAtoms species (including the
// projectile at id 0) and nCells grid cells.
func New(nAtoms, nCells int) *Tally {
	t := &Tally{nAtoms: nAtoms, nCells: nCells}
	for c := Channel(0); c < numChannels; c++ {
		t.A[c] = arrayset.New[float64](nAtoms, nCells)
		t.A2[c] = arrayset.New[float64](nAtoms, nCells)
		t.delta[c] = arrayset.New[float64](nAtoms, nCells)
		t.dirty[c] = make([]bool, nAtoms*nCells)
	}
	return t
}

// StartHistory must be called before tallying a new source-ion history; it
// clears the per-history delta buffers that EndHistory folds into A2.
func (t *Tally) StartHistory() {
	for c := Channel(0); c < numChannels; c++ {
		d := t.delta[c].Data()
		dirty := t.dirty[c]
		for _, idx := range t.touched[c] {
			d[idx] = 0
			dirty[idx] = false
		}
		t.touched[c] = t.touched[c][:0]
	}
}

// EndHistory squares each (atom,cell) cell touched since StartHistory and
// adds it into the channel's sum-of-squares buffer, then increments
// Histories. Call once per finished source-ion history.
func (t *Tally) EndHistory() {
	for c := Channel(0); c < numChannels; c++ {
		d := t.delta[c].Data()
		a2 := t.A2[c].Data()
		for _, idx := range t.touched[c] {
			v := d[idx]
			a2[idx] += v * v
		}
	}
	t.Histories++
}

// add records v at (channel, atomID, cellID) in both the running total and
// the current history's delta buffer.
func (t *Tally) add(c Channel, v float64, atomID, cellID int) {
	t.A[c].Add(v, atomID, cellID)
	if v == 0 {
		return
	}
	idx := atomID*t.nCells + cellID
	if !t.dirty[c][idx] {
		t.dirty[c][idx] = true
		t.touched[c] = append(t.touched[c], idx)
	}
	t.delta[c].Data()[idx] += v
}

// Update applies one transport-loop event to the tally, mirroring
// tally::operator()'s switch. self is the ion's own species descriptor
// (needed for its lattice binding energy El); replaced is only consulted
// for EventReplacement (the displaced atom's species); report is only
// consulted for EventCascadeComplete.
func (t *Tally) Update(ev Event, i *ion.State, self, replaced *target.Atom, report *CascadeReport) {
	iid, cid, pid := i.Atom.ID, i.CellID, i.PrevCellID

	switch ev {
	case EventBoundaryCrossing:
		t.add(Collisions, float64(i.NColl), iid, pid)
		t.add(FlightPath, float64(i.Path), iid, pid)
		t.add(Lattice, float64(i.Phonon), iid, pid)
		t.add(Ionization, float64(i.Ioniz), iid, pid)

	case EventReplacement:
		t.add(Replacements, 1, iid, cid)

		rid := replaced.ID
		t.add(Vacancies, -1, rid, cid)
		t.add(Stored, -float64(replaced.El)/2, rid, cid)
		t.add(Lattice, float64(replaced.El)/2, rid, cid)

		if i.RecoilID != 0 {
			t.add(Displacements, 1, iid, i.CellID0)
			t.add(Vacancies, 1, iid, i.CellID0)
			t.add(Stored, float64(self.El)/2, iid, i.CellID0)
			t.add(Lattice, float64(self.El)/2, iid, cid)
		}
		t.add(Collisions, float64(i.NColl), iid, cid)
		t.add(FlightPath, float64(i.Path), iid, cid)
		t.add(Ionization, float64(i.Ioniz), iid, cid)
		t.add(Lattice, float64(i.Erg)+float64(i.Phonon), iid, cid)

	case EventIonStop:
		t.add(Implantations, 1, iid, cid)
		if i.RecoilID != 0 {
			t.add(Displacements, 1, iid, i.CellID0)
			t.add(Vacancies, 1, iid, i.CellID0)
			t.add(Stored, float64(self.El)/2, iid, i.CellID0)
			t.add(Stored, float64(self.El)/2, iid, cid)
		}
		t.add(Collisions, float64(i.NColl), iid, cid)
		t.add(FlightPath, float64(i.Path), iid, cid)
		t.add(Ionization, float64(i.Ioniz), iid, cid)
		t.add(Lattice, float64(i.Erg)+float64(i.Phonon), iid, cid)

	case EventIonExit:
		t.add(IonsExited, 1, iid, pid)
		if i.RecoilID != 0 {
			t.add(Displacements, 1, iid, i.CellID0)
			t.add(Vacancies, 1, iid, i.CellID0)
			t.add(Stored, float64(self.El)/2, iid, i.CellID0)
			t.add(Lattice, float64(self.El)/2, iid, pid)
		}
		t.add(Collisions, float64(i.NColl), iid, pid)
		t.add(FlightPath, float64(i.Path), iid, pid)
		t.add(Ionization, float64(i.Ioniz), iid, pid)
		t.add(Lattice, float64(i.Phonon), iid, pid)
		t.add(Lost, float64(i.Erg), iid, pid)

	case EventCascadeComplete:
		t.add(Pka, 1, iid, cid)
		t.add(PkaEnergy, float64(report.Energy), iid, cid)
		t.add(TdamLSS, float64(report.TdamLSS), iid, cid)
		t.add(VnrtLSS, float64(report.VnrtLSS), iid, cid)
		t.add(Tdam, float64(report.Tdam), iid, cid)
		t.add(Vnrt, float64(report.Vnrt), iid, cid)
	}
}

// Recombine applies one intra-cascade vacancy/interstitial recombination at
// (atomID, cellID): it removes the standing vacancy and counts the
// recombination (tally.cpp's Recombinations channel). There is no separate
// "surviving interstitial" channel in this ledger (target atoms that settle
// back into the lattice are not tracked as a distinct standing count), so
// only Vacancies and Recombinations move; the testable "ΣV − ΣRecombinations
// equals net surviving vacancies" identity holds directly from these two
// channels.
func (t *Tally) Recombine(atomID, cellID int) {
	t.add(Recombinations, 1, atomID, cellID)
	t.add(Vacancies, -1, atomID, cellID)
}

// Merge adds other's accumulators, sum-of-squares buffers, and Histories
// into t in place (summing per-worker tallies into a run-level total).
func (t *Tally) Merge(other *Tally) {
	for c := Channel(0); c < numChannels; c++ {
		t.A[c].AddFrom(other.A[c])
		t.A2[c].AddFrom(other.A2[c])
	}
	t.Histories += other.Histories
}

// Variance returns the variance of the per-history mean at (atomID,cellID)
// on channel c, after N = t.Histories histories: (T2/N - (T/N)^2)/(N-1).
// Returns 0 if fewer than two histories have been tallied.
func (t *Tally) Variance(c Channel, atomID, cellID int) float64 {
	n := float64(t.Histories)
	if n < 2 {
		return 0
	}
	sum := t.A[c].At(atomID, cellID)
	sum2 := t.A2[c].At(atomID, cellID)
	mean := sum / n
	return (sum2/n - mean*mean) / (n - 1)
}

// totalEnergy sums the ionization+lattice+stored+lost channels across the
// given atom id's row (or, if id < 0, across every row), the quantity that
// must equal the run's injected energy budget.
func (t *Tally) totalEnergy(id int) float64 {
	var s float64
	add := func(c Channel) {
		a := t.A[c]
		if id >= 0 {
			row := a.Data()[id*t.nCells : (id+1)*t.nCells]
			for _, v := range row {
				s += v
			}
			return
		}
		for _, v := range a.Data() {
			s += v
		}
	}
	add(Ionization)
	add(Lattice)
	add(Stored)
	add(Lost)
	return s
}

// TotalEnergy returns the ionization+lattice+stored+lost energy summed over
// every atom id and cell (tally.cpp's totalErg()).
func (t *Tally) TotalEnergy() float64 { return t.totalEnergy(-1) }

// TotalEnergyFor returns the same sum restricted to one atom id
// (tally.cpp's totalErg(id)).
func (t *Tally) TotalEnergyFor(id int) float64 { return t.totalEnergy(id) }

// DebugCheck reports whether TotalEnergy() is within a relative tolerance of
// 1e-3 (|TotalEnergy()-e0| < 1e-3·|e0|) of e0, the energy budget the run was
// seeded with (tally.cpp's debugCheck(E0)).
func (t *Tally) DebugCheck(e0 float64) bool {
	d := t.TotalEnergy() - e0
	tol := 1e-3 * e0
	if tol < 0 {
		tol = -tol
	}
	return d > -tol && d < tol
}

// DebugCheckFor is DebugCheck restricted to one atom id
// (tally.cpp's debugCheck(id, E0)).
func (t *Tally) DebugCheckFor(id int, e0 float64) bool {
	d := t.TotalEnergyFor(id) - e0
	tol := 1e-3 * e0
	if tol < 0 {
		tol = -tol
	}
	return d > -tol && d < tol
}
