package tally

import (
	"testing"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

func projectileAndTarget() (*target.Atom, *target.Atom) {
	proj := &target.Atom{ID: 0, Z: 2, M: 4}
	tgt := &target.Atom{ID: 1, Z: 14, M: 28, El: 3}
	return proj, tgt
}

func TestTallyIonStopImplantsAndStores(t *testing.T) {
	tl := New(2, 1)
	proj, _ := projectileAndTarget()

	i := &ion.State{}
	i.Reset()
	i.Atom = ion.Species{ID: proj.ID, Z: proj.Z, Mass: proj.M}
	i.CellID, i.CellID0 = 0, 0
	i.RecoilID = 0
	i.Erg, i.Phonon, i.Ioniz = 100, 5, 2

	tl.StartHistory()
	tl.Update(EventIonStop, i, proj, nil, nil)
	tl.EndHistory()

	if got := tl.A[Implantations].At(0, 0); got != 1 {
		t.Errorf("Implantations = %v, want 1", got)
	}
	if got := tl.A[Lattice].At(0, 0); got != float64(i.Erg+i.Phonon) {
		t.Errorf("Lattice = %v, want %v", got, i.Erg+i.Phonon)
	}
	// non-recoil stop: no displacement/vacancy/stored contribution
	if got := tl.A[Displacements].At(0, 0); got != 0 {
		t.Errorf("Displacements = %v, want 0", got)
	}
}

func TestTallyIonStopRecoilAddsDisplacement(t *testing.T) {
	tl := New(2, 2)
	proj, tgt := projectileAndTarget()
	_ = proj

	i := &ion.State{}
	i.Reset()
	i.Atom = ion.Species{ID: tgt.ID, Z: tgt.Z, Mass: tgt.M}
	i.CellID0 = 0
	i.CellID = 1
	i.RecoilID = 1

	tl.StartHistory()
	tl.Update(EventIonStop, i, tgt, nil, nil)
	tl.EndHistory()

	if got := tl.A[Displacements].At(1, 0); got != 1 {
		t.Errorf("Displacements at start cell = %v, want 1", got)
	}
	if got := tl.A[Vacancies].At(1, 0); got != 1 {
		t.Errorf("Vacancies at start cell = %v, want 1", got)
	}
	wantStored := float64(tgt.El) / 2
	if got := tl.A[Stored].At(1, 0); got != wantStored {
		t.Errorf("Stored at start cell = %v, want %v", got, wantStored)
	}
	if got := tl.A[Stored].At(1, 1); got != wantStored {
		t.Errorf("Stored at end cell = %v, want %v", got, wantStored)
	}
}

func TestTallyReplacementRemovesVacancy(t *testing.T) {
	tl := New(2, 1)
	proj, tgt := projectileAndTarget()

	i := &ion.State{}
	i.Reset()
	i.Atom = ion.Species{ID: proj.ID, Z: proj.Z, Mass: proj.M}
	i.CellID = 0
	i.RecoilID = 0

	tl.StartHistory()
	tl.Update(EventReplacement, i, proj, tgt, nil)
	tl.EndHistory()

	if got := tl.A[Replacements].At(0, 0); got != 1 {
		t.Errorf("Replacements = %v, want 1", got)
	}
	if got := tl.A[Vacancies].At(1, 0); got != -1 {
		t.Errorf("Vacancies(replaced atom) = %v, want -1", got)
	}
}

func TestTallyCascadeCompleteDamageEstimators(t *testing.T) {
	tl := New(2, 1)
	proj, _ := projectileAndTarget()

	i := &ion.State{}
	i.Reset()
	i.Atom = ion.Species{ID: proj.ID}
	i.CellID = 0

	report := &CascadeReport{Energy: 1000, TdamLSS: 800, VnrtLSS: 6, Tdam: 750, Vnrt: 5.5}

	tl.StartHistory()
	tl.Update(EventCascadeComplete, i, proj, nil, report)
	tl.EndHistory()

	if got := tl.A[Pka].At(0, 0); got != 1 {
		t.Errorf("Pka = %v, want 1", got)
	}
	if got := tl.A[PkaEnergy].At(0, 0); got != float64(report.Energy) {
		t.Errorf("PkaEnergy = %v, want %v", got, report.Energy)
	}
	if got := tl.A[Vnrt].At(0, 0); got != float64(report.Vnrt) {
		t.Errorf("Vnrt = %v, want %v", got, report.Vnrt)
	}
}

func TestTallyEnergyConservation(t *testing.T) {
	tl := New(1, 1)
	proj, _ := projectileAndTarget()

	const e0 = 1000.0
	i := &ion.State{}
	i.Reset()
	i.Atom = ion.Species{ID: proj.ID}
	i.CellID = 0
	i.PrevCellID = 0
	i.Ioniz = 600
	i.Phonon = 300
	i.Erg = 100 // remaining energy lost as the ion exits

	tl.StartHistory()
	tl.Update(EventIonExit, i, proj, nil, nil)
	tl.EndHistory()

	if !tl.DebugCheck(e0) {
		t.Errorf("DebugCheck(%v) failed: total energy = %v", e0, tl.TotalEnergy())
	}
}

func TestTallyMergeSumsAcrossWorkers(t *testing.T) {
	a := New(1, 1)
	b := New(1, 1)

	a.A[Vacancies].Add(3, 0, 0)
	a.Histories = 5
	b.A[Vacancies].Add(4, 0, 0)
	b.Histories = 7

	a.Merge(b)

	if got := a.A[Vacancies].At(0, 0); got != 7 {
		t.Errorf("merged Vacancies = %v, want 7", got)
	}
	if a.Histories != 12 {
		t.Errorf("merged Histories = %v, want 12", a.Histories)
	}
}

func TestTallyVarianceIdentity(t *testing.T) {
	tl := New(1, 1)

	samples := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	var sum, sum2 float64
	for _, v := range samples {
		tl.StartHistory()
		tl.A[Vacancies].Add(v, 0, 0)
		// record the per-history delta manually, mirroring what add() would
		// do via Update, since this test drives A directly.
		tl.delta[Vacancies].Set(v, 0, 0)
		tl.touched[Vacancies] = []int{0}
		tl.EndHistory()
		sum += v
		sum2 += v * v
	}

	n := float64(len(samples))
	want := (sum2/n - (sum/n)*(sum/n)) / (n - 1)
	got := tl.Variance(Vacancies, 0, 0)
	const eps = 1e-9
	if diff := got - want; diff > eps || diff < -eps {
		t.Errorf("Variance = %v, want %v", got, want)
	}
}
