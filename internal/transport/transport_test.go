package transport

import (
	"math/rand"
	"testing"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/cascade"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/flightpath"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/tally"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/xs"
)

// fixture builds a single-material, single-cell target (a block of iron)
// with a helium projectile species, wired exactly as a driver would wire a
// one-region run: one ScatterRegistry pair per (projectile-or-recoil,
// struck species) combination that can occur, Constant-mode flight paths
// (no energy grid to populate), and electronic stopping left off (a nil
// Dedx map, so DedxFor always resolves to nil and transportIon skips it).
func fixture(t *testing.T, opts Options) (*Context, []*target.Atom) {
	t.Helper()

	he := target.NewAtom(0, 2, 0, 0, 0, 0, 0)
	fe := target.NewAtom(1, 26, 25, 3, 4.34, 25, 0.3)

	mat, err := target.NewMaterial([]*target.Atom{fe}, []float32{1}, 0.0847, "Fe")
	if err != nil {
		t.Fatalf("NewMaterial: %v", err)
	}

	grid := geom.NewGrid(
		[]float32{0, 10},
		[]float32{0, 10},
		[]float32{0, 10},
		[3]bool{},
	)
	tgt := &target.Target{
		Grid:         grid,
		Materials:    []*target.Material{mat},
		CellMaterial: []int{0},
	}

	scr := NewScatterRegistry(xs.ScreeningZBL)
	scr.Add(0, he.Z, he.M, 1, fe.Z, fe.M)
	scr.Add(1, fe.Z, fe.M, 1, fe.Z, fe.M)

	fpOpts := flightpath.Options{Type: flightpath.Constant, FlightPathConst: 1}
	comp := flightpath.MaterialComposition{
		AtomicDensity: mat.N,
		AtomicRadius:  mat.Rat,
		AtomIDs:       []int{fe.ID},
		Fractions:     []float32{1},
	}
	tables := flightpath.NewTables(fpOpts, []flightpath.MaterialComposition{comp}, 2, scr, nil)

	ctx := NewContext(tgt, scr, tables, nil, opts)
	ctx.Atoms = []*target.Atom{he, fe}
	return ctx, ctx.Atoms
}

func newSourceIon(q *ion.Queue, grid *geom.Grid, atomID, z int, mass, erg float32) *ion.State {
	s := q.CreateIon()
	s.SetGrid(grid)
	s.SetPos(geom.Vec3{X: 5, Y: 5, Z: 5})
	s.SetAtom(ion.Species{ID: atomID, Z: z, Mass: mass})
	s.SetNormalizedDir(geom.Vec3{X: 0, Y: 0, Z: 1})
	s.SetErg(erg)
	s.IonID = 1
	return s
}

func TestEnergyConservedPerHistory(t *testing.T) {
	opts := Options{
		Sim:                       FullCascade,
		ECutoff:                   100,
		MoveRecoil:                true,
		IntraCascadeRecombination: true,
		NRT:                       NRTPerSpecies,
	}
	ctx, atoms := fixture(t, opts)

	tl := tally.New(2, 1)
	rng := rand.New(rand.NewSource(1))
	w := NewWorker(ctx, rng, tl, cascade.NewUnordered(), 1)

	const e0 = 50000
	src := newSourceIon(w.Queue, ctx.Target.Grid, atoms[0].ID, atoms[0].Z, atoms[0].M, e0)

	w.RunHistory(src)

	if !tl.DebugCheck(float64(e0)) {
		t.Errorf("run energy not conserved across all species rows: got %v, want %v", tl.TotalEnergy(), e0)
	}
}

func TestReplacementEvent(t *testing.T) {
	opts := Options{Sim: FullCascade, ECutoff: 100, NRT: NRTPerSpecies}
	ctx, atoms := fixture(t, opts)
	tl := tally.New(2, 1)
	rng := rand.New(rand.NewSource(7))
	w := NewWorker(ctx, rng, tl, nil, 1)

	fe := atoms[1]
	src := newSourceIon(w.Queue, ctx.Target.Grid, fe.ID, fe.Z, fe.M, fe.Er-1)
	dir0 := geom.Vec3{X: 0, Y: 0, Z: 1}
	replaced := w.spawnRecoil(src, fe, dir0, fe, fe.Ed+1, nil)
	if !replaced {
		t.Fatalf("expected a same-species sub-Er collision to register as a replacement")
	}
}

func TestCascadesOnlySeeding(t *testing.T) {
	opts := Options{Sim: CascadesOnly, ECutoff: 100, NRT: NRTPerSpecies}
	ctx, atoms := fixture(t, opts)
	tl := tally.New(2, 1)
	rng := rand.New(rand.NewSource(3))
	w := NewWorker(ctx, rng, tl, cascade.NewUnordered(), 1)

	fe := atoms[1]
	src := newSourceIon(w.Queue, ctx.Target.Grid, fe.ID, fe.Z, fe.M, 10000)
	w.RunHistory(src)

	if got := tl.A[tally.Pka].At(fe.ID, 0); got != 1 {
		t.Errorf("expected exactly one PKA from a CascadesOnly-seeded history, got %v", got)
	}
}

func TestScatterRegistryDelegation(t *testing.T) {
	scr := NewScatterRegistry(xs.ScreeningZBL)
	scr.Add(0, 2, 4.0026, 1, 26, 55.845)

	if g := scr.Gamma(0, 1); g <= 0 || g > 1 {
		t.Errorf("Gamma(0,1) = %v, want in (0,1]", g)
	}
	if a := scr.MassRatio(0, 1); a <= 0 {
		t.Errorf("MassRatio(0,1) = %v, want > 0", a)
	}
	if p := scr.FindP(0, 1, 1e4, 10); p <= 0 {
		t.Errorf("FindP(0,1,1e4,10) = %v, want > 0", p)
	}
	if g := scr.Gamma(5, 9); g != 0 {
		t.Errorf("Gamma for an unregistered pair = %v, want 0", g)
	}
}
