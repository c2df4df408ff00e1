package transport

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/cascade"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/events"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/nrt"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/tally"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

// Worker runs source-ion histories against a shared, read-only Context
// using its own PRNG, ion arena, cascade engine and tally — per-worker
// clones sharing read-only physics tables. Not safe for concurrent
// use — a Driver owns one Worker per goroutine.
type Worker struct {
	Ctx     *Context
	Queue   *ion.Queue
	RNG     *rand.Rand
	Cascade cascade.Engine // nil disables intra-cascade recombination
	Tally   *tally.Tally

	ExitStream   *events.Stream
	DamageStream *events.Stream
	PKAStream    *events.Stream

	pka *events.PKABuffer
}

// NewWorker builds a Worker. nTargetAtoms is the number of target-material
// atomic species (excluding the projectile), the PKA event row's per-atom
// block width.
func NewWorker(ctx *Context, rng *rand.Rand, tl *tally.Tally, cscd cascade.Engine, nTargetAtoms int) *Worker {
	return &Worker{
		Ctx:     ctx,
		Queue:   ion.NewQueue(),
		RNG:     rng,
		Cascade: cscd,
		Tally:   tl,
		pka:     events.NewPKABuffer(nTargetAtoms),
	}
}

func (w *Worker) atom(id int) *target.Atom { return w.Ctx.Atoms[id] }

// RunHistory transports one source-ion history to completion: the source
// ion itself (or, in CascadesOnly mode, its immediate conversion to a PKA),
// then every PKA and recoil it spawns, draining the PKA queue to exhaustion
// before returning (source.ion.h's "PKAs go to pka_queue, secondaries to
// recoil_queue; driver drains all recoils before the next PKA" ordering).
func (w *Worker) RunHistory(src *ion.State) {
	w.Tally.StartHistory()
	defer w.Tally.EndHistory()

	src.ResetCounters()

	if w.Ctx.Opts.Sim == CascadesOnly {
		w.seedCascadeOnly(src)
	} else {
		w.transportIon(src, nil, nil)
		w.Queue.FreeIon(src)
	}

	for {
		j, ok := w.Queue.PopPKA()
		if !ok {
			break
		}
		w.runPKA(j)
	}
}

// seedCascadeOnly converts the source particle directly into a PKA
// (recoil_id=1) without transporting it as a moving ion, matching
// mccore.cpp's CascadesOnly branch: the particle's own El is subtracted and
// (optionally) it is advanced by Rc and charged electronic-stopping loss
// before joining the PKA queue.
func (w *Worker) seedCascadeOnly(src *ion.State) {
	src.RecoilID = 1
	self := w.atom(src.Atom.ID)
	if src.Erg < self.Ed {
		w.Queue.FreeIon(src)
		return
	}
	T := src.Erg
	src.SetErg(src.Erg - self.El)
	if w.Ctx.Opts.MoveRecoil {
		src.Move(self.Rc)
		if calc := w.Ctx.DedxFor(src.Atom.ID, w.Ctx.materialIndexAt(src.CellID)); calc != nil {
			de := calc.DeltaE(src.Erg, self.Rc, w.RNG)
			src.DeIoniz(de)
		}
	}
	if w.Ctx.Opts.RecoilSubEd {
		de := src.Erg + self.Ed - T
		src.DePhonon(de)
	}
	w.Queue.PushPKA(src)
}

// runPKA transports PKA j (and, transitively, every recoil it spawns),
// recombines the resulting cascade, tallies the CascadeComplete event, and
// emits the PKA's event-stream row, mirroring mccore.cpp's per-PKA block
// inside run().
func (w *Worker) runPKA(j *ion.State) {
	j1 := *j // frozen value snapshot at cascade start, for CascadeComplete (same uid, not arena-tracked)
	storePKA := w.Ctx.Opts.StorePKAEvents && w.PKAStream != nil
	if storePKA {
		w.pka.Init(j)
	}

	var res cascade.Result
	haveRes := false

	if w.Ctx.Opts.Sim != IonsOnly {
		self := w.atom(j.Atom.ID)
		if w.Cascade != nil {
			w.Cascade.Init(j, self)
		} else if w.Ctx.Opts.StoreDamageEvents && w.DamageStream != nil {
			row := events.NewDamageRow(j.IonID, j.RecoilID, j.Atom.ID, events.DefectIDVacancy, j.Pos0)
			w.DamageStream.Write(row[:])
		}

		w.transportIon(j, self, w.Cascade)

		for {
			k, ok := w.Queue.PopRecoil()
			if !ok {
				break
			}
			w.transportIon(k, w.atom(k.Atom.ID), w.Cascade)
			w.Queue.FreeIon(k)
		}

		if w.Cascade != nil {
			res = w.Cascade.Recombine(w.Ctx.Target.Grid)
			haveRes = true
			w.applyCascadeResult(res)
		}
	}

	w.Queue.FreeIon(j)

	report := w.cascadeReport(&j1, res, haveRes)
	w.Tally.Update(tally.EventCascadeComplete, &j1, nil, nil, &report)

	if storePKA {
		w.pka.AddTdam(report.Tdam)
		if err := w.PKAStream.Write(w.pka.Row()); err != nil {
			_ = err // surfaced to the driver as a run failure, not here
		}
	}
}

// applyCascadeResult tallies every recombined pair and writes the surviving
// (unrecombined) defects to the damage stream / PKA buffer counters.
func (w *Worker) applyCascadeResult(res cascade.Result) {
	for _, p := range res.Pairs {
		w.Tally.Recombine(p.V.Atom.ID, p.V.CID)
		if w.pka != nil {
			w.pka.AddRecombination(p.V.Atom.ID)
			if w.Ctx.Opts.CorrelatedRecombination && p.I.PairID == p.V.PairID {
				w.pka.AddCorrelatedRecombination(p.V.Atom.ID)
			}
		}
	}
	for _, v := range res.Vacancies {
		if w.pka != nil {
			w.pka.AddVacancy(v.Atom.ID)
		}
		if w.Ctx.Opts.StoreDamageEvents && w.DamageStream != nil {
			row := events.NewDamageRow(v.HID, v.RID, v.Atom.ID, events.DefectIDVacancy, v.Pos)
			w.DamageStream.Write(row[:])
		}
	}
	for _, i := range res.Interstitials {
		if w.pka != nil {
			w.pka.AddInterstitial(i.Atom.ID)
		}
		if w.Ctx.Opts.StoreDamageEvents && w.DamageStream != nil {
			row := events.NewDamageRow(i.HID, i.RID, i.Atom.ID, events.DefectIDInterstitial, i.Pos)
			w.DamageStream.Write(row[:])
		}
	}
}

// cascadeReport computes the five CascadeComplete damage estimates for PKA
// j1 (its state at cascade start): TdamLSS/VnrtLSS are the NRT closed-form
// estimate from the PKA's raw recoil energy; Tdam/Vnrt are derived from the
// cascade's actual surviving-defect count when a recombination engine ran
// (nrt.Damage inverted: Tdam = 2·Ed·Vnrt/0.8), or left at zero when cascades
// aren't simulated (IonsOnly, or intra-cascade recombination disabled with
// no damage-stream bookkeeping to count from).
func (w *Worker) cascadeReport(j1 *ion.State, res cascade.Result, haveRes bool) tally.CascadeReport {
	self := w.atom(j1.Atom.ID)
	var tdamLSS, vnrtLSS float32
	if w.Ctx.Opts.NRT == NRTMaterialAverage {
		matID := w.Ctx.materialIndexAt(j1.CellID0)
		if matID >= 0 {
			mat := w.Ctx.Target.Materials[matID]
			species := make([]nrt.Species, len(mat.Atoms))
			for i, a := range mat.Atoms {
				species[i] = nrt.Species{Z: float32(a.Z), M: a.M, Ed: a.Ed}
			}
			tdamLSS, vnrtLSS = nrt.MaterialAverage(j1.Erg0, species, mat.Fractions)
		}
	} else {
		tdamLSS, vnrtLSS = nrt.Damage(j1.Erg0, nrt.Species{Z: float32(self.Z), M: self.M, Ed: self.Ed})
	}

	var tdam, vnrt float32
	if haveRes {
		vnrt = float32(len(res.Vacancies))
		if self.Ed > 0 {
			tdam = 2 * self.Ed * vnrt / 0.8
		}
	}

	return tally.CascadeReport{Energy: j1.Erg0, TdamLSS: tdamLSS, VnrtLSS: vnrtLSS, Tdam: tdam, Vnrt: vnrt}
}

// transportIon runs the per-ion transport loop until the ion
// stops, exits, or replaces a lattice atom. self is the ion's own species
// descriptor, used for EventIonStop/EventIonExit/EventReplacement tallying;
// it may be nil only when the ion being transported is the raw source
// particle in FullCascade/IonsOnly mode and RecoilID is still 0 for the
// whole history (self is then resolved from w.atom on entry).
// cscd is the cascade engine active for this call — nil while transporting
// the plain source ion (it has no cascade of its own yet; its first recoil
// becomes a PKA and only gets a cascade once popped off the PKA queue), and
// w.Cascade once inside a PKA's own run (mccore.cpp's transport(ion*,
// abstract_cascade*) taking cscd per call rather than off a fixed field).
func (w *Worker) transportIon(i *ion.State, self *target.Atom, cscd cascade.Engine) {
	if self == nil {
		self = w.atom(i.Atom.ID)
	}

	curMat := -2 // force a (re)preload on the first iteration
	var sampler *flightSampler

	for {
		if i.Erg < w.Ctx.Opts.ECutoff {
			w.Tally.Update(tally.EventIonStop, i, self, nil, nil)
			if cscd != nil {
				cscd.PushInterstitial(i, self)
			} else if w.Ctx.Opts.StoreDamageEvents && w.DamageStream != nil {
				row := events.NewDamageRow(i.IonID, i.RecoilID, i.Atom.ID, events.DefectIDInterstitial, i.Pos)
				w.DamageStream.Write(row[:])
			}
			return
		}

		matID := w.Ctx.materialIndexAt(i.CellID)

		if matID < 0 {
			fp := float32(1e30)
			switch i.Propagate(&fp) {
			case ion.CrossExternal:
				w.ionExit(i, self)
				return
			case ion.CrossInternal:
				w.Tally.Update(tally.EventBoundaryCrossing, i, nil, nil, nil)
				i.ResetCounters()
				curMat = -2
			case ion.CrossInternalPBC, ion.CrossNone:
			}
			continue
		}

		if matID != curMat {
			sampler = w.preload(i.Atom.ID, matID)
			curMat = matID
		}

		fp, ip, collide := sampler.sample(w.RNG, i.Erg)
		crossing := i.Propagate(&fp)

		if sampler.dedx != nil {
			de := sampler.dedx.DeltaE(i.Erg, fp, w.RNG)
			i.DeIoniz(de)
		}

		switch crossing {
		case ion.CrossExternal:
			w.ionExit(i, self)
			return
		case ion.CrossInternal:
			w.Tally.Update(tally.EventBoundaryCrossing, i, nil, nil, nil)
			i.ResetCounters()
			curMat = -2
			collide = false
		case ion.CrossInternalPBC:
			collide = false
		}

		if !collide {
			continue
		}

		mat := w.Ctx.Target.Materials[matID]
		atom2 := mat.PickAtom(w.RNG)
		calc := w.Ctx.Scatter.Get(i.Atom.ID, atom2.ID)
		T, sinTheta, cosTheta := calc.Scatter(i.Erg, ip)

		dir0 := i.Dir
		i.Deflect(geom.Vec3{X: sampler.cosPhi * sinTheta, Y: sampler.sinPhi * sinTheta, Z: cosTheta})
		i.AddColl()

		if T >= atom2.Ed {
			if w.spawnRecoil(i, self, dir0, atom2, T, cscd) {
				return // replacement event: history ends
			}
		} else {
			i.DePhonon(T)
		}
	}
}

// spawnRecoil subtracts T from i's energy, clones i into a recoil of
// species atom2 with the momentum-conservation direction, routes it to the
// PKA or recoil queue by generation depth, and handles the
// same-species-low-energy replacement case. Returns true if a replacement
// ended i's history. cscd is the cascade engine active for i's own
// transport call (see transportIon), used to record the vacancy this recoil
// leaves behind.
func (w *Worker) spawnRecoil(i *ion.State, self *target.Atom, dir0 geom.Vec3, atom2 *target.Atom, T float32, cscd cascade.Engine) bool {
	i.DeRecoil(T)

	// Momentum-conservation recoil direction: nt = dir0 - dir1*sqrt(b/(1+b)),
	// b = E/T (ion.cpp's new_recoil direction derivation).
	b := i.Erg / T
	scale := math32.Sqrt(b / (1 + b))
	nt := dir0.Sub(i.Dir.Scale(scale)).Normalized()

	j := w.Queue.CloneIon(i)
	j.InitRecoil(ion.Species{ID: atom2.ID, Z: atom2.Z, Mass: atom2.M}, T)
	j.SetNormalizedDir(nt)

	// j1 is a plain value snapshot of j at the instant the struck atom left
	// its site (same uid, not arena-tracked) — the position/species a
	// vacancy gets recorded at, taken before move_recoil or the El
	// subtraction below touch j (mccore.cpp's "ion j1(*j)").
	j1 := *j

	// j.Erg0 is left at the raw transferred energy T (the "PKA recoil
	// energy" CascadeComplete/the PKA event row report); only the current,
	// transportable energy pays the lattice binding cost, and only when
	// recoils are actually going to be transported.
	if w.Ctx.Opts.Sim != IonsOnly {
		j.Erg -= atom2.El
		if j.Erg < 0 {
			j.Erg = 0
		}
	}

	if w.Ctx.Opts.MoveRecoil {
		j.Move(atom2.Rc)
		if calc := w.Ctx.DedxFor(atom2.ID, w.Ctx.materialIndexAt(j.CellID)); calc != nil {
			de := calc.DeltaE(j.Erg, atom2.Rc, w.RNG)
			j.DeIoniz(de)
		}
		if w.Ctx.Opts.RecoilSubEd {
			de := j.Erg + atom2.Ed - T
			j.DePhonon(de)
		}
	}

	if j.RecoilID == 1 {
		w.Queue.PushPKA(j)
	} else {
		w.Queue.PushRecoil(j)
	}

	if i.Atom.Z == atom2.Z && i.Erg < atom2.Er {
		w.Tally.Update(tally.EventReplacement, i, self, atom2, nil)
		return true
	}

	// a vacancy has been created at the struck atom's original site (j1);
	// j itself becomes an interstitial once it comes to rest, pushed from
	// transportIon's IonStop handling under its own uid, so
	// the two share a PairID for correlated-recombination matching.
	if cscd != nil {
		cscd.PushVacancy(&j1, atom2)
	} else if w.Ctx.Opts.StoreDamageEvents && w.DamageStream != nil {
		row := events.NewDamageRow(j1.IonID, j1.RecoilID, atom2.ID, events.DefectIDVacancy, j1.Pos0)
		w.DamageStream.Write(row[:])
	}
	return false
}

// ionExit tallies an ion leaving the simulation volume and, if configured,
// emits its exit-event row.
func (w *Worker) ionExit(i *ion.State, self *target.Atom) {
	w.Tally.Update(tally.EventIonExit, i, self, nil, nil)
	if w.Ctx.Opts.StoreExitEvents && w.ExitStream != nil {
		row := events.NewExitRow(i)
		w.ExitStream.Write(row[:])
	}
}
