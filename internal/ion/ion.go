// Package ion implements the moving-particle state:
// position/direction/energy/time bookkeeping, cell-boundary-aware
// propagation, scattering deflection, and the recoil-generation lifecycle
// (source ion -> PKA -> higher-generation recoil -> vacancy/interstitial
// defect record).
package ion

import (
	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
)

// ErgToTimeConst converts an energy/path segment to a time-of-flight
// increment: dt = fp/sqrt(E) * ErgToTimeConst * sqrt(M), in ps/nm (matches
// the original S_ERG_TO_TIME_CONST).
const ErgToTimeConst = 7.198712007850257e-02

// Type distinguishes a moving particle from the two defect-record kinds
// queued after a cascade finishes.
type Type int

const (
	Moving Type = iota
	Vacancy
	Interstitial
)

// BoundaryCrossing reports what kind of cell/volume boundary a Propagate
// call crossed.
type BoundaryCrossing int

const (
	CrossNone BoundaryCrossing = iota
	CrossInternal
	CrossExternal
	CrossInternalPBC
)

// Species carries the static atomic identity a State is currently
// associated with (the projectile species, or a target atom after a
// recoil event reassigns it).
type Species struct {
	ID   int // index into the simulation's atom table
	Z    int
	Mass float32
}

// State is one moving ion/recoil/defect-record object. IonQueue owns a
// pool of these and recycles them between histories.
type State struct {
	Type Type

	Pos, Pos0 geom.Vec3
	Dir       geom.Vec3

	Erg, Erg0 float32
	T, T0     float32
	sErgToT   float32

	ICell                         geom.IVec3
	CellID, PrevCellID, CellID0 int

	IonID    uint64 // which top-level source-ion history this belongs to
	RecoilID int    // generation: 0=source ion, 1=PKA, 2+=further recoils
	UID      uint64 // unique id across the whole run

	Atom Species
	grid *geom.Grid

	NColl                          uint64
	Path, Ioniz, Phonon, RecoilLoss float32
}

// Reset restores a recycled State to its zero-value defaults (the
// ion_queue arena's recycling path never runs a constructor, just this).
func (s *State) Reset() {
	*s = State{Dir: geom.Vec3{Z: 1}, CellID: -1, PrevCellID: -1}
}

// SetGrid attaches the geometry grid used by Propagate/Move.
func (s *State) SetGrid(g *geom.Grid) { s.grid = g }

// SetPos places the ion at x, resolving its starting cell. Panics if x is
// outside the grid (matches the original's assertion — a caller bug, not a
// runtime condition reachable from valid source/target configuration).
func (s *State) SetPos(x geom.Vec3) {
	s.Pos, s.Pos0 = x, x
	c, ok := s.grid.Pos2Cell(x)
	if !ok {
		panic("ion: SetPos outside grid")
	}
	s.ICell = c
	s.CellID = s.grid.CellID(s.ICell)
	s.CellID0 = s.CellID
	s.PrevCellID = -1
}

// SetAtom assigns the ion's atomic species and recomputes the cached
// energy-to-time conversion factor (depends on sqrt(mass)).
func (s *State) SetAtom(a Species) {
	s.Atom = a
	s.sErgToT = ErgToTimeConst * math32.Sqrt(a.Mass)
}

// SetErg sets both current and initial energy.
func (s *State) SetErg(e float32) { s.Erg, s.Erg0 = e, e }

// SetTime sets both current and start time.
func (s *State) SetTime(t float32) { s.T, s.T0 = t, t }

// SetNormalizedDir sets the direction cosines from an already-unit vector.
func (s *State) SetNormalizedDir(d geom.Vec3) { s.Dir = d }

// InitRecoil reinitializes this (already-cloned) State as a recoil of
// species a carrying energy T, inheriting the parent's current position,
// cell and time as its track origin.
func (s *State) InitRecoil(a Species, T float32) {
	s.Pos0 = s.Pos
	s.CellID0 = s.CellID
	s.PrevCellID = -1
	s.SetErg(T)
	s.SetAtom(a)
	s.T0 = s.T
	s.RecoilID++
}

// ResetCounters zeroes the per-track accumulators (called whenever the ion
// changes cell, stops, or exits, matching the original's reset_counters).
func (s *State) ResetCounters() {
	s.NColl = 0
	s.Path, s.Ioniz, s.Phonon, s.RecoilLoss = 0, 0, 0, 0
}

// subErg subtracts de from the current energy, clamping to avoid a
// negative result from round-off when de is computed in lower precision
// than the comparison (e.g. a head-on collision's recoil energy T).
func (s *State) subErg(de float32, acc *float32) {
	if de > s.Erg {
		de = s.Erg
	}
	s.Erg -= de
	if acc != nil {
		*acc += de
	}
}

// DePhonon subtracts energy lost to phonon excitation (sub-threshold
// recoils).
func (s *State) DePhonon(de float32) { s.subErg(de, &s.Phonon) }

// DeIoniz subtracts energy lost to electronic stopping/straggling.
func (s *State) DeIoniz(de float32) { s.subErg(de, &s.Ioniz) }

// DeRecoil subtracts energy transferred to a generated recoil.
func (s *State) DeRecoil(de float32) { s.subErg(de, &s.RecoilLoss) }

// DeOther subtracts energy with no tallied destination.
func (s *State) DeOther(de float32) { s.subErg(de, nil) }

// AddColl increments the collision counter.
func (s *State) AddColl() { s.NColl++ }

// Deflect rotates the ion's direction by the local-frame scattering vector
// n = (cosφ·sinθ, sinφ·sinθ, cosθ), expressed relative to the ion's
// current direction as the local z-axis.
func (s *State) Deflect(n geom.Vec3) {
	s.Dir = deflectVector(s.Dir, n)
}

// deflectVector rotates local-frame vector n (z-axis aligned with u) into
// the lab frame, the standard BCA direction-update used throughout
// ion-transport codes. Falls back to the axis-aligned case near the poles
// to avoid dividing by a near-zero sinTheta-of-u.
func deflectVector(u, n geom.Vec3) geom.Vec3 {
	const polarEps = 1e-7
	ust2 := 1 - u.Z*u.Z
	if ust2 < polarEps {
		sign := float32(1)
		if u.Z < 0 {
			sign = -1
		}
		return geom.Vec3{X: n.X, Y: n.Y, Z: sign * n.Z}.Normalized()
	}
	ust := math32.Sqrt(ust2)
	nx := n.X*(u.X*u.Z/ust) - n.Y*(u.Y/ust) + u.X*n.Z
	ny := n.X*(u.Y*u.Z/ust) + n.Y*(u.X/ust) + u.Y*n.Z
	nz := -n.X*ust + u.Z*n.Z
	return geom.Vec3{X: nx, Y: ny, Z: nz}.Normalized()
}

// Propagate advances the ion by fp [nm] along its current direction,
// handling internal cell-boundary and external volume-boundary crossings.
// On a boundary crossing, fp is reduced in place to the distance actually
// traveled before the crossing.
func (s *State) Propagate(fp *float32) BoundaryCrossing {
	x := s.Pos.MulAdd(s.Dir, *fp)
	if s.grid.ContainsWithBC(x) {
		if s.grid.Contains(s.ICell, x) {
			s.advance(*fp, x)
			return CrossNone
		}
		return s.crossInternal(fp)
	}
	return s.crossExternal(fp)
}

func (s *State) advance(fp float32, x geom.Vec3) {
	s.Path += fp
	s.T += fp / math32.Sqrt(s.Erg) * s.sErgToT
	s.Pos = x
}

func (s *State) crossInternal(fp *float32) BoundaryCrossing {
	x := s.Pos
	*fp = s.grid.Bring2Boundary(s.ICell, &x, s.Dir)
	s.grid.ApplyBC(&x)
	ix, _ := s.grid.Pos2Cell(x)
	s.advance(*fp, x)
	if ix != s.ICell {
		s.ICell = ix
		s.PrevCellID = s.CellID
		s.CellID = s.grid.CellID(ix)
		return CrossInternal
	}
	// Boundary reached but the cell index did not change: periodic
	// wraparound with a single cell along the wrapped axis.
	return CrossInternalPBC
}

func (s *State) crossExternal(fp *float32) BoundaryCrossing {
	x := s.Pos
	*fp = s.grid.Bring2Boundary(s.ICell, &x, s.Dir)
	s.Path += *fp
	s.T += *fp / math32.Sqrt(s.Erg) * s.sErgToT
	s.grid.ApplyBC(&x)
	if !s.grid.ContainsWithBC(x) {
		s.Pos = x
		s.PrevCellID = s.CellID
		s.CellID = -1
		return CrossExternal
	}
	s.Pos = x
	s.PrevCellID = s.CellID
	s.ICell, _ = s.grid.Pos2Cell(x)
	s.CellID = s.grid.CellID(s.ICell)
	return CrossInternal
}

// Move advances the ion by s [nm] without any energy/path/time
// bookkeeping (used for the initial placement ray-cast before a source
// ion's transport actually begins). Returns the distance actually moved,
// which is 0 if the ion would immediately exit the simulation volume.
func (s *State) Move(dist float32) float32 {
	fp := dist
	x := s.Pos.MulAdd(s.Dir, fp)
	if !s.grid.ContainsWithBC(x) {
		return 0
	}
	if !s.grid.Contains(s.ICell, x) {
		x = s.Pos
		fp = s.grid.Bring2Boundary(s.ICell, &x, s.Dir)
		s.grid.ApplyBC(&x)
		ix, _ := s.grid.Pos2Cell(x)
		s.Pos = x
		if ix != s.ICell {
			s.ICell = ix
			s.PrevCellID = s.CellID
			s.CellID = s.grid.CellID(ix)
		}
		return fp
	}
	s.Pos = x
	return fp
}
