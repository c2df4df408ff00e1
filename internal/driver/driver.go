// Package driver implements the thread pool that runs a configured
// simulation to completion: physics-table construction at init, an atomic
// ion dispenser shared by N worker goroutines, and the single-mutex tally
// merge at the end of each worker's share of histories.
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/lunny/log"
	"lukechampine.com/blake3"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/cascade"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/config"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/dedx"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/events"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/flightpath"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/source"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/tally"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/transport"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/xs"
)

// ErrNotInitialized is returned by Exec when called before Init.
var ErrNotInitialized = errors.New("driver: not initialized")

// ErrAlreadyRunning is returned by Exec when a previous Exec call's workers
// haven't been joined with Wait yet.
var ErrAlreadyRunning = errors.New("driver: already running")

// ErrPersistenceUnavailable is returned by Save/Load: HDF5 persistence is a
// collaborator's job, outside this module.
var ErrPersistenceUnavailable = errors.New("driver: persistence is a collaborator's job (HDF5), not implemented here")

// ProgressCallback fires from Exec's calling goroutine roughly every
// msInterval while workers run.
type ProgressCallback func(Status)

// Status is the progress snapshot handed to a ProgressCallback or returned
// from Status().
type Status struct {
	IonsDone  uint64
	IonsTarget uint64
	Elapsed   time.Duration
	IPS       float64 // ions per second
	ETA       time.Duration
}

// RunRecord logs one Exec call (mcdriver.h's run_history).
type RunRecord = events.RunHistory

// DefaultThreads returns the number of worker goroutines to use when the
// config leaves Run.Threads at zero: the machine's logical core count,
// detected at init rather than hardcoding a worker count.
func DefaultThreads() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = 1
	}
	return n
}

// seedWorker derives worker i's PRNG seed from the run's base seed: a
// blake3 digest of the two numbers keeps workers' streams independent even
// for adjacent indices, which a bare baseSeed+i would not guarantee against
// correlated low-order bits in some PRNG algorithms.
func seedWorker(baseSeed uint64, i int) int64 {
	var buf [16]byte
	for k := 0; k < 8; k++ {
		buf[k] = byte(baseSeed >> (8 * k))
		buf[8+k] = byte(uint64(i) >> (8 * k))
	}
	sum := blake3.Sum256(buf[:])
	var seed uint64
	for k := 0; k < 8; k++ {
		seed |= uint64(sum[k]) << (8 * k)
	}
	return int64(seed)
}

// Driver owns the master simulation context, the worker clones and the
// shared master tally/event streams.
type Driver struct {
	cfg *config.Config

	ctx  *transport.Context
	beam *source.Beam

	nAtoms       int
	nTargetAtoms int
	threads      int
	maxIons      uint64

	masterTally *tally.Tally
	tallyMu     sync.Mutex

	exitMaster, pkaMaster, damageMaster *events.Stream
	exitBuf, pkaBuf, damageBuf          *bytes.Buffer
	streamMu                            sync.Mutex

	ionCounter uint64 // atomic
	abortFlag  int32  // atomic
	running    int32  // atomic

	execStart atomic.Value // time.Time, set once per Exec call

	wg sync.WaitGroup

	historyLog events.Log
	historyMu  sync.Mutex
}

// New returns an uninitialized Driver; call Init before Exec.
func New() *Driver {
	return &Driver{}
}

// Config returns the configuration Init was called with, or nil.
func (d *Driver) Config() *config.Config { return d.cfg }

// OutFileName returns the configured output file base name.
func (d *Driver) OutFileName() string {
	if d.cfg == nil {
		return ""
	}
	return d.cfg.Output.OutFileName
}

// IsRunning reports whether a previous Exec call's workers are still
// live (mcdriver.h's is_running: thread_pool_.size() > 0).
func (d *Driver) IsRunning() bool { return atomic.LoadInt32(&d.running) != 0 }

// Init builds every physics table from cfg (target geometry/composition,
// scattering calculators, flight-path tables, electronic-stopping
// calculators and the ion-beam sampler) and allocates the shared Context
// every worker clone reads. dedxSrc is the optional injectable raw
// stopping-power source (nil disables electronic stopping regardless of
// cfg's electronic_stopping setting, since the real libdedx data is a
// named collaborator, not part of this module).
func (d *Driver) Init(cfg *config.Config, dedxSrc dedx.Source) error {
	if cfg == nil {
		return errors.New("driver: nil config")
	}
	d.cfg = cfg

	atoms, materials, nTargetAtoms, err := buildAtomsAndMaterials(cfg)
	if err != nil {
		return fmt.Errorf("driver: init: %w", err)
	}
	d.nAtoms = len(atoms)
	d.nTargetAtoms = nTargetAtoms

	grid, err := buildGrid(cfg)
	if err != nil {
		return fmt.Errorf("driver: init: %w", err)
	}

	regions := make([]target.Region, len(cfg.Target.Regions))
	for i, r := range cfg.Target.Regions {
		regions[i] = target.Region{
			ID: r.ID, MaterialID: r.MaterialID,
			Origin: geom.Vec3{X: r.Origin.X, Y: r.Origin.Y, Z: r.Origin.Z},
			Size:   geom.Vec3{X: r.Size.X, Y: r.Size.Y, Z: r.Size.Z},
		}
	}
	tgt, err := target.Build(grid, materials, regions)
	if err != nil {
		return fmt.Errorf("driver: init: %w", err)
	}

	scr := screeningFromConfig(cfg.Simulation.ScreeningType)
	registry := transport.NewScatterRegistry(scr)
	for _, p := range atoms {
		for _, t := range atoms {
			registry.Add(p.ID, p.Z, p.M, t.ID, t.Z, t.M)
		}
	}

	comps := make([]flightpath.MaterialComposition, len(materials))
	for i, m := range materials {
		ids := make([]int, len(m.Atoms))
		for j, a := range m.Atoms {
			ids[j] = a.ID
		}
		comps[i] = flightpath.MaterialComposition{
			AtomicDensity: m.N, AtomicRadius: m.Rat,
			AtomIDs: ids, Fractions: m.Fractions,
		}
	}

	fpOpts := flightpath.Options{
		Type:               flightPathTypeFromConfig(cfg.Transport.FlightPathType),
		FlightPathConst:    cfg.Transport.FlightPathConst,
		MaxRelEloss:        cfg.Transport.MaxRelEloss,
		MinRecoilEnergy:    cfg.Transport.MinRecoilEnergy,
		MinScatteringAngle: cfg.Transport.MinScatteringAngle,
		MfpRangeLow:        cfg.Transport.MfpRangeLow,
		MfpRangeHigh:       cfg.Transport.MfpRangeHigh,
		ElectronicStopOn:   dedxSrc != nil && cfg.Simulation.ElectronicStopping != config.StoppingOff,
	}

	var stoppingLookup func(z1, mat int) *dedx.StoppingInterpolator
	dedxCalcs := map[[2]int]*dedx.Calc{}
	if dedxSrc != nil && cfg.Simulation.ElectronicStopping != config.StoppingOff {
		mode := dedx.ModeStoppingOnly
		if cfg.Simulation.ElectronicStraggling != config.StragglingOff {
			mode = dedx.ModeStoppingAndStraggling
		}
		stoppingByPair := map[[2]int]*dedx.StoppingInterpolator{}
		for _, p := range atoms {
			for mi, m := range materials {
				z2 := make([]int, len(m.Atoms))
				x2 := make([]float32, len(m.Atoms))
				for j, a := range m.Atoms {
					z2[j], x2[j] = a.Z, m.Fractions[j]
				}
				stop := dedx.NewStoppingInterpolator(dedxSrc, p.Z, p.M, z2, x2, m.N)
				stoppingByPair[[2]int{p.ID, mi}] = stop
				var strag *dedx.StragglingInterpolator
				if mode == dedx.ModeStoppingAndStraggling {
					strag = dedx.NewStragglingInterpolator(dedxSrc, p.Z, p.M, z2, x2, m.N)
				}
				dedxCalcs[[2]int{p.ID, mi}] = dedx.NewCalc(mode, stop, strag)
			}
		}
		stoppingLookup = func(z1, mat int) *dedx.StoppingInterpolator {
			return stoppingByPair[[2]int{z1, mat}]
		}
	}

	fpTables := flightpath.NewTables(fpOpts, comps, len(atoms), registry, stoppingLookup)

	opts := transport.Options{
		Sim:                       simTypeFromConfig(cfg.Simulation.SimulationType),
		ECutoff:                   cfg.Transport.MinEnergy,
		IntraCascadeRecombination: cfg.Simulation.IntraCascadeRecombination,
		TimeOrderedCascades:       cfg.Simulation.TimeOrderedCascades,
		CorrelatedRecombination:   cfg.Simulation.CorrelatedRecombination,
		MoveRecoil:                cfg.Simulation.MoveRecoil,
		RecoilSubEd:               cfg.Simulation.RecoilSubEd,
		NRT:                       nrtModeFromConfig(cfg.Simulation.NRTCalculation),
		StoreExitEvents:           cfg.Output.StoreExitEvents,
		StorePKAEvents:            cfg.Output.StorePKAEvents,
		StoreDamageEvents:         cfg.Output.StoreDamageEvents,
	}

	ctx := transport.NewContext(tgt, registry, fpTables, nil, opts)
	ctx.Atoms = atoms
	for k, c := range dedxCalcs {
		ctx.SetDedx(k[0], k[1], c)
	}
	d.ctx = ctx

	beam, err := buildBeam(cfg, atoms)
	if err != nil {
		return fmt.Errorf("driver: init: %w", err)
	}
	d.beam = beam

	d.threads = cfg.Run.Threads
	if d.threads <= 0 {
		d.threads = DefaultThreads()
	}
	d.maxIons = cfg.Run.MaxNoIons

	d.masterTally = tally.New(len(atoms), tgt.Grid.NCells())
	if opts.StoreExitEvents {
		d.exitBuf = &bytes.Buffer{}
		d.exitMaster = events.NewWriter(d.exitBuf, events.ExitCols)
	}
	if opts.StoreDamageEvents {
		d.damageBuf = &bytes.Buffer{}
		d.damageMaster = events.NewWriter(d.damageBuf, events.DamageCols)
	}
	if opts.StorePKAEvents {
		d.pkaBuf = &bytes.Buffer{}
		d.pkaMaster = events.NewWriter(d.pkaBuf, events.PKACols(nTargetAtoms))
	}

	atomic.StoreUint64(&d.ionCounter, 0)
	atomic.StoreInt32(&d.abortFlag, 0)

	log.Infof("driver: init complete: %d materials, %d regions, %d atom species, %d threads",
		len(materials), len(regions), len(atoms), d.threads)
	return nil
}

// Abort sets the atomic abort flag; checked at the top of every worker's
// per-ion loop.
func (d *Driver) Abort() {
	atomic.StoreInt32(&d.abortFlag, 1)
	log.Infof("driver: abort requested")
}

// Wait blocks until every worker goroutine from the most recent Exec call
// has returned.
func (d *Driver) Wait() { d.wg.Wait() }

// History returns the log of completed Exec calls.
func (d *Driver) History() []RunRecord {
	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	return append([]RunRecord(nil), d.historyLog.Entries()...)
}

// Status returns a point-in-time progress snapshot.
func (d *Driver) Status(start time.Time) Status {
	done := atomic.LoadUint64(&d.ionCounter)
	if done > d.maxIons {
		done = d.maxIons
	}
	elapsed := time.Since(start)
	var ips float64
	var eta time.Duration
	if elapsed > 0 {
		ips = float64(done) / elapsed.Seconds()
	}
	if ips > 0 && done < d.maxIons {
		eta = time.Duration(float64(d.maxIons-done)/ips) * time.Second
	}
	return Status{IonsDone: done, IonsTarget: d.maxIons, Elapsed: elapsed, IPS: ips, ETA: eta}
}

// Save/Load are stubs: HDF5 persistence is a named collaborator, outside
// this module's scope.
func (d *Driver) Save(path string) error { return ErrPersistenceUnavailable }
func (d *Driver) Load(path string) error { return ErrPersistenceUnavailable }

// Exec spawns d.threads worker goroutines, each dispensing ion indices from
// the shared atomic counter until it passes maxIons or abort() is called,
// and blocks until they all finish. cb, if non-nil, is invoked from this
// goroutine roughly every msInterval while workers run.
func (d *Driver) Exec(cb ProgressCallback, msInterval time.Duration) error {
	if d.ctx == nil {
		return ErrNotInitialized
	}
	if !atomic.CompareAndSwapInt32(&d.running, 0, 1) {
		return ErrAlreadyRunning
	}

	start := time.Now()
	d.execStart.Store(start)
	ionsStart := atomic.LoadUint64(&d.ionCounter)
	log.Infof("driver: exec start: %d ions requested, %d threads", d.maxIons, d.threads)

	errs := make([]error, d.threads)
	d.wg.Add(d.threads)
	for wi := 0; wi < d.threads; wi++ {
		go func(idx int) {
			defer d.wg.Done()
			errs[idx] = d.runWorker(idx)
		}(wi)
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	if cb != nil && msInterval > 0 {
		ticker := time.NewTicker(msInterval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ticker.C:
				cb(d.Status(start))
			case <-done:
				break loop
			}
		}
	} else {
		<-done
	}

	atomic.StoreInt32(&d.running, 0)

	end := time.Now()
	ionsEnd := atomic.LoadUint64(&d.ionCounter)
	cpuTime := end.Sub(start)
	var ips float64
	if cpuTime > 0 {
		ips = float64(ionsEnd-ionsStart) / cpuTime.Seconds()
	}

	d.historyMu.Lock()
	d.historyLog.Append(RunRecord{
		Start: start, End: end,
		IonsPerSecond: ips,
		CPUTime:       cpuTime,
		Threads:       d.threads,
		RunIonCount:   ionsEnd - ionsStart,
		TotalIonCount: ionsEnd,
		Aborted:       atomic.LoadInt32(&d.abortFlag) != 0,
	})
	d.historyMu.Unlock()

	for _, err := range errs {
		if err != nil {
			log.Errorf("driver: worker failed: %v", err)
			return fmt.Errorf("driver: exec: %w", err)
		}
	}
	log.Infof("driver: exec done: %d ions run", atomic.LoadUint64(&d.ionCounter))
	return nil
}

// runWorker dispenses ion indices from the shared atomic counter, running
// one full history per index until it exceeds maxIons or abort() fires
// (mccore.cpp's run() loop), accumulating into its own Tally/event streams
// and merging exactly once at the end: O(threads) merges total, not
// O(ions).
func (d *Driver) runWorker(idx int) error {
	rng := rand.New(rand.NewSource(seedWorker(d.cfg.Run.Seed, idx)))
	tl := tally.New(d.nAtoms, d.ctx.Target.Grid.NCells())

	var cscd cascade.Engine
	if d.ctx.Opts.IntraCascadeRecombination {
		if d.ctx.Opts.TimeOrderedCascades {
			cscd = cascade.NewTimeOrdered()
		} else {
			cscd = cascade.NewUnordered()
		}
	}

	w := transport.NewWorker(d.ctx, rng, tl, cscd, d.nTargetAtoms)

	var exitBuf, damageBuf, pkaBuf *bytes.Buffer
	if d.ctx.Opts.StoreExitEvents {
		exitBuf = &bytes.Buffer{}
		w.ExitStream = events.NewWriter(exitBuf, events.ExitCols)
	}
	if d.ctx.Opts.StoreDamageEvents {
		damageBuf = &bytes.Buffer{}
		w.DamageStream = events.NewWriter(damageBuf, events.DamageCols)
	}
	if d.ctx.Opts.StorePKAEvents {
		pkaBuf = &bytes.Buffer{}
		w.PKAStream = events.NewWriter(pkaBuf, events.PKACols(d.nTargetAtoms))
	}

	maxCPUTime := time.Duration(float64(d.cfg.Run.MaxCPUTime) * float64(time.Second))

	for {
		if atomic.LoadInt32(&d.abortFlag) != 0 {
			break
		}
		if maxCPUTime > 0 {
			if t, ok := d.execStart.Load().(time.Time); ok && time.Since(t) > maxCPUTime {
				break
			}
		}
		id := atomic.AddUint64(&d.ionCounter, 1)
		if id > d.maxIons {
			break
		}

		sp, erg, pos, dir := d.beam.Sample(rng)
		src := w.Queue.CreateIon()
		src.SetGrid(d.ctx.Target.Grid)
		src.SetAtom(ion.Species{ID: sp.ID, Z: sp.Z, Mass: sp.Mass})
		src.SetPos(pos)
		src.SetNormalizedDir(dir)
		src.SetErg(erg)
		src.IonID = id

		w.RunHistory(src)
	}

	d.mergeWorker(w, tl, exitBuf, damageBuf, pkaBuf)
	return nil
}

// mergeWorker folds one worker's final tally and event streams into the
// driver's master copies under the single tally/stream mutexes: the
// global tally is guarded by one mutex, and event streams are merged
// single-threaded on finalisation, one worker at a time.
func (d *Driver) mergeWorker(w *transport.Worker, tl *tally.Tally, exitBuf, damageBuf, pkaBuf *bytes.Buffer) {
	d.tallyMu.Lock()
	d.masterTally.Merge(tl)
	d.tallyMu.Unlock()

	d.streamMu.Lock()
	defer d.streamMu.Unlock()

	mergeOne := func(src *events.Stream, buf *bytes.Buffer, dst *events.Stream) {
		if src == nil || dst == nil {
			return
		}
		if err := src.Flush(); err != nil {
			log.Errorf("driver: flushing worker event stream: %v", err)
			return
		}
		r := events.NewReader(bytes.NewReader(buf.Bytes()), dst.Cols())
		if err := events.Merge(dst, r); err != nil {
			log.Errorf("driver: merging worker event stream: %v", err)
		}
	}
	mergeOne(w.ExitStream, exitBuf, d.exitMaster)
	mergeOne(w.DamageStream, damageBuf, d.damageMaster)
	mergeOne(w.PKAStream, pkaBuf, d.pkaMaster)
}

// ExitEvents/DamageEvents/PKAEvents expose the merged master event data
// (flushed) for a caller to persist however it likes: HDF5 writing is a
// collaborator's job.
func (d *Driver) ExitEvents() []byte {
	if d.exitMaster == nil {
		return nil
	}
	d.exitMaster.Flush()
	return d.exitBuf.Bytes()
}
func (d *Driver) DamageEvents() []byte {
	if d.damageMaster == nil {
		return nil
	}
	d.damageMaster.Flush()
	return d.damageBuf.Bytes()
}
func (d *Driver) PKAEvents() []byte {
	if d.pkaMaster == nil {
		return nil
	}
	d.pkaMaster.Flush()
	return d.pkaBuf.Bytes()
}

// MasterTally returns the accumulated tally across every Exec call so far.
func (d *Driver) MasterTally() *tally.Tally { return d.masterTally }

func screeningFromConfig(s config.Screening) xs.Screening {
	switch s {
	case config.ScreeningBohr:
		return xs.ScreeningBohr
	case config.ScreeningKrC:
		return xs.ScreeningKrC
	case config.ScreeningMoliere:
		return xs.ScreeningMoliere
	case config.ScreeningZBL:
		return xs.ScreeningZBL
	case config.ScreeningZBLMagic:
		return xs.ScreeningZBLMagic
	default:
		return xs.ScreeningNone
	}
}

func flightPathTypeFromConfig(t config.FlightPathType) flightpath.Type {
	if t == config.FlightPathVariableType {
		return flightpath.Variable
	}
	return flightpath.Constant
}

func simTypeFromConfig(s config.SimType) transport.SimType {
	switch s {
	case config.IonsOnly:
		return transport.IonsOnly
	case config.CascadesOnly:
		return transport.CascadesOnly
	default:
		return transport.FullCascade
	}
}

func nrtModeFromConfig(m config.NRTMode) transport.NRTMode {
	if m == config.NRTAverage {
		return transport.NRTMaterialAverage
	}
	return transport.NRTPerSpecies
}

// buildAtomsAndMaterials assigns dense atom ids across every material's
// constituent species and builds target.Material for each MaterialSpec.
// nTargetAtoms counts only species that appear in some material (the PKA
// event row's per-atom block repeats once per target species, excluding a
// projectile species that never occurs in the lattice).
func buildAtomsAndMaterials(cfg *config.Config) (atoms []*target.Atom, materials []*target.Material, nTargetAtoms int, err error) {
	nextID := 0
	seen := map[int]*target.Atom{} // by Z, first occurrence wins the shared Atom

	for _, ms := range cfg.Target.Materials {
		matAtoms := make([]*target.Atom, len(ms.Atoms))
		fractions := make([]float32, len(ms.Atoms))
		for i, as := range ms.Atoms {
			a, ok := seen[as.Z]
			if !ok {
				a = target.NewAtom(nextID, as.Z, as.Ed, as.El, as.Es, as.Er, as.Rc)
				seen[as.Z] = a
				atoms = append(atoms, a)
				nextID++
			}
			matAtoms[i] = a
			fractions[i] = as.Fraction
		}
		mat, merr := target.NewMaterial(matAtoms, fractions, ms.Density, ms.Color)
		if merr != nil {
			return nil, nil, 0, fmt.Errorf("material %d: %w", ms.ID, merr)
		}
		materials = append(materials, mat)
	}
	nTargetAtoms = len(atoms)

	for _, is := range cfg.IonBeam.Ion {
		if _, ok := seen[is.Z]; !ok {
			a := target.NewAtom(nextID, is.Z, 0, 0, 0, 0, 0)
			seen[is.Z] = a
			atoms = append(atoms, a)
			nextID++
		}
	}

	return atoms, materials, nTargetAtoms, nil
}

func buildGrid(cfg *config.Config) (*geom.Grid, error) {
	t := cfg.Target
	for i := 0; i < 3; i++ {
		n := t.CellCount[i]
		if n <= 0 {
			return nil, fmt.Errorf("target: cell_count[%d] must be positive", i)
		}
	}
	origin := [3]float32{t.Origin.X, t.Origin.Y, t.Origin.Z}
	size := [3]float32{t.Size.X, t.Size.Y, t.Size.Z}
	var edges [3][]float32
	for i := 0; i < 3; i++ {
		n := t.CellCount[i]
		e := make([]float32, n+1)
		step := size[i] / float32(n)
		for k := 0; k <= n; k++ {
			e[k] = origin[i] + step*float32(k)
		}
		edges[i] = e
	}
	return geom.NewGrid(edges[0], edges[1], edges[2], t.PeriodicBC), nil
}

func buildBeam(cfg *config.Config, atoms []*target.Atom) (*source.Beam, error) {
	ib := cfg.IonBeam
	species := make([]ion.Species, len(ib.Ion))
	fractions := make([]float32, len(ib.Ion))
	for i, is := range ib.Ion {
		var a *target.Atom
		for _, cand := range atoms {
			if cand.Z == is.Z {
				a = cand
				break
			}
		}
		if a == nil {
			return nil, fmt.Errorf("ion_beam: species Z=%d not found among target atoms", is.Z)
		}
		species[i] = ion.Species{ID: a.ID, Z: a.Z, Mass: a.M}
		fractions[i] = is.Fraction
	}

	toDist := func(d config.Distribution) source.Distribution {
		var typ source.DistributionType
		switch d.Type {
		case config.DistUniform:
			typ = source.Uniform
		case config.DistGaussian:
			typ = source.Gaussian
		default:
			typ = source.SingleValue
		}
		return source.Distribution{Type: typ, Center: d.Center, FWHM: d.FWHM}
	}

	t := cfg.Target
	origin := geom.Vec3{
		X: t.Origin.X + t.Size.X/2,
		Y: t.Origin.Y + t.Size.Y/2,
		Z: t.Origin.Z,
	}
	dir := geom.Vec3{Z: 1}

	return source.NewBeam(species, fractions,
		toDist(ib.EnergyDistribution), toDist(ib.AngularDistribution), toDist(ib.SpatialDistribution),
		origin, dir)
}
