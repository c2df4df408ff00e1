// Package flightpath samples an ion's free flight path and impact
// parameter between collisions. Two algorithms are
// supported: Constant (a fixed multiple of the material's atomic radius)
// and Variable (energy-dependent mean free path, tabulated per
// ion-species/material pair on the shared 4-bit quasi-log energy grid).
package flightpath

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/dedx"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/randvar"
)

// sqrt4over3 is sqrt(4/3), the constant relating a material's atomic
// radius to the "ion sphere" used for the constant flight-path impact
// parameter scale (flight_path.h's SQRT_4over3).
const sqrt4over3 = 1.1547005

// Type selects the flight-path sampling algorithm.
type Type int

const (
	Constant Type = iota
	Variable
)

// ERange is the energy grid the Variable-mode tables are built on, shared
// with the electronic-stopping tables (same 16eV..2^30eV 4-bit grid).
var ERange = dedx.ERange

// Options configures flight-path table construction (the Transport
// config group).
type Options struct {
	Type                Type
	FlightPathConst     float32 // multiple of atomic radius, Constant mode
	MaxRelEloss         float32 // fpmax * dE/dx / E <= this
	MinRecoilEnergy     float32 // Tmin, eV
	MinScatteringAngle  float32 // degrees
	MfpRangeLow         float32 // lower bound on mfp, units of atomic radius
	MfpRangeHigh        float32 // upper bound on mfp, units of atomic radius
	ElectronicStopOn    bool
}

// ScatterQuery abstracts the two things the table builder needs per
// (projectile species, target atom species) pair from internal/xs, without
// importing it directly (avoids a flightpath->xs->grid->flightpath cycle
// risk and keeps this package testable with closed-form stand-ins).
type ScatterQuery interface {
	// Gamma returns the max fractional energy transfer 4·M1·M2/(M1+M2)².
	Gamma(z1, z2 int) float32
	// MassRatio returns M1/M2.
	MassRatio(z1, z2 int) float32
	// FindP returns the impact parameter [nm] giving recoil energy T at
	// projectile energy E for the (z1,z2) pair.
	FindP(z1, z2 int, E, T float32) float32
}

// MaterialComposition is the per-material input the table builder needs:
// atomic density/radius and the stoichiometric atom species it contains.
type MaterialComposition struct {
	AtomicDensity float32 // N, atoms/nm^3
	AtomicRadius  float32 // Rat = (3/(4*pi*N))^(1/3)
	AtomIDs       []int
	Fractions     []float32
}

// AtomicRadius computes Rat from an atomic density N [at/nm^3].
func AtomicRadius(n float32) float32 {
	return math32.Pow(3/(4*math32.Pi*n), 1.0/3.0)
}

// Tables holds the precomputed flight-path selection data for every
// (projectile species, material) pair in a simulation, shared read-only
// across worker clones.
type Tables struct {
	opts Options

	fpConst []float32 // per material, Constant mode flight path [nm]
	ip0     []float32 // per material, Constant mode impact-parameter scale

	nAtoms, nMat, nErg int
	mfp, ipmax, fpmax, umin []float32 // flat [atom][mat][erg]
}

func (t *Tables) idx(z1, mat, ie int) int {
	return (z1*t.nMat+mat)*t.nErg + ie
}

// NewTables builds the flight-path tables for nAtoms projectile species
// across the given materials. stopping, if non-nil, gives the electronic
// stopping interpolator for (z1, materialIndex), used to cap fpmax by
// max relative electronic energy loss.
func NewTables(opts Options, materials []MaterialComposition, nAtoms int, sq ScatterQuery, stopping func(z1, mat int) *dedx.StoppingInterpolator) *Tables {
	nMat := len(materials)
	nErg := ERange.Size()
	t := &Tables{
		opts: opts, nAtoms: nAtoms, nMat: nMat, nErg: nErg,
		fpConst: make([]float32, nMat), ip0: make([]float32, nMat),
		mfp: make([]float32, nAtoms*nMat*nErg), ipmax: make([]float32, nAtoms*nMat*nErg),
		fpmax: make([]float32, nAtoms*nMat*nErg), umin: make([]float32, nAtoms*nMat*nErg),
	}

	for im, m := range materials {
		if opts.Type == Constant {
			t.ip0[im] = sqrt4over3 / math32.Sqrt(opts.FlightPathConst) * m.AtomicRadius
			t.fpConst[im] = opts.FlightPathConst * m.AtomicRadius
		} else {
			t.fpConst[im] = m.AtomicRadius
			t.ip0[im] = sqrt4over3 * m.AtomicRadius
		}
	}

	thetaMin := opts.MinScatteringAngle / 180 * math32.Pi

	for z1 := 0; z1 < nAtoms; z1++ {
		for im, m := range materials {
			mfpLB := opts.MfpRangeLow * m.AtomicRadius
			mfpUB := opts.MfpRangeHigh * m.AtomicRadius
			N := m.AtomicDensity

			for ie := 0; ie < nErg; ie++ {
				k := t.idx(z1, im, ie)
				if opts.Type == Constant {
					mfp := opts.FlightPathConst * m.AtomicRadius
					t.mfp[k] = mfp
					t.ipmax[k] = math32.Sqrt(1 / (math32.Pi * mfp * N))
					t.fpmax[k] = mfp
					t.umin[k] = 0
					continue
				}

				E := ERange.Value(ie)
				T0 := opts.MinRecoilEnergy
				for zi, z2 := range m.AtomIDs {
					_ = zi
					Tm := E * sq.Gamma(z1, z2)
					tm := thetaMin * (1 + sq.MassRatio(z1, z2))
					ss := math32.Sin(0.5 * tm)
					cand := Tm * ss * ss
					if cand < T0 {
						T0 = cand
					}
				}

				var ipmax float32
				for zi, z2 := range m.AtomIDs {
					d := sq.FindP(z1, z2, E, T0)
					ipmax += m.Fractions[zi] * d * d
				}
				ipmax = math32.Sqrt(ipmax)

				fpmax := float32(1e30)
				if opts.ElectronicStopOn && stopping != nil {
					if s := stopping(z1, im); s != nil {
						fpmax = opts.MaxRelEloss * E / s.Eval(E)
					}
				}

				mfp := 1 / (math32.Pi * N * ipmax * ipmax)
				if mfp < mfpLB {
					mfp = mfpLB
					ipmax = math32.Sqrt(1 / (math32.Pi * mfp * N))
				}
				if mfp > mfpUB {
					mfp = mfpUB
					ipmax = math32.Sqrt(1 / (math32.Pi * mfp * N))
				}

				t.mfp[k] = mfp
				t.ipmax[k] = ipmax
				t.fpmax[k] = fpmax
				t.umin[k] = math32.Exp(-fpmax / mfp)
			}
		}
	}
	return t
}

// Sampler draws flight path / impact parameter pairs for one ion species
// in one material, using preloaded table rows from Tables. Not safe for
// concurrent use by more than one goroutine (each worker clone owns one).
type Sampler struct {
	tables *Tables
	matID  int

	fp, ip float32 // Constant-mode cached scale

	mfpRow, ipmaxRow, fpmaxRow, uminRow []float32

	// cosPhi/sinPhi from the last Sample call (azimuthal scattering
	// direction, reused by the transport loop's deflection step).
	CosPhi, SinPhi float32
}

// Preload selects the table rows for atom species atomID in material
// matID.
func (t *Tables) Preload(atomID, matID int) *Sampler {
	s := &Sampler{tables: t, matID: matID, fp: t.fpConst[matID], ip: t.ip0[matID]}
	if t.opts.Type == Variable {
		base := t.idx(atomID, matID, 0)
		end := base + t.nErg
		s.mfpRow = t.mfp[base:end]
		s.ipmaxRow = t.ipmax[base:end]
		s.fpmaxRow = t.fpmax[base:end]
		s.uminRow = t.umin[base:end]
	}
	return s
}

// Sample draws a flight path fp [nm] and impact parameter ip [nm] at
// energy E [eV], returning whether a collision occurs at the end of the
// segment (false means the ion travels the full fp with no collision, the
// Variable-mode rejection branch).
func (s *Sampler) Sample(rng *rand.Rand, E float32) (fp, ip float32, collide bool) {
	cosPhi, sinPhi, u := randvar.AzimuthDirNorm(rng)
	s.CosPhi, s.SinPhi = cosPhi, sinPhi

	if s.tables.opts.Type == Constant {
		return s.fp, s.ip * math32.Sqrt(u), true
	}

	ie := s.tables.indexOf(E)
	if u < s.uminRow[ie] {
		return s.fpmaxRow[ie], 0, false
	}
	fp = s.mfpRow[ie] * (-math32.Log(u))
	ip = s.ipmaxRow[ie] * math32.Sqrt(randvar.U01Open(rng))
	return fp, ip, true
}

func (t *Tables) indexOf(E float32) int { return ERange.Index(E) }
