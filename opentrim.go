package opentrim

import (
	"fmt"
	"time"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/config"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/dedx"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/driver"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/tally"
)

// Re-exported so callers never need to import internal/driver directly.
var (
	ErrNotInitialized         = driver.ErrNotInitialized
	ErrAlreadyRunning         = driver.ErrAlreadyRunning
	ErrPersistenceUnavailable = driver.ErrPersistenceUnavailable
)

// ProgressCallback is invoked periodically while a Run executes.
type ProgressCallback = driver.ProgressCallback

// Status is a point-in-time progress snapshot, as reported to a
// ProgressCallback or returned by Run.Status.
type Status = driver.Status

// RunRecord logs one completed or aborted Exec call.
type RunRecord = driver.RunRecord

// Run owns one configured simulation: its physics tables, worker pool, and
// accumulated tally/event streams. The zero value is not usable; build one
// with New.
type Run struct {
	d     *driver.Driver
	start time.Time
}

// New returns an unconfigured Run. Call Init before Exec.
func New() *Run {
	return &Run{d: driver.New()}
}

// Init builds every physics table cfg describes (target geometry and
// composition, scattering cross-sections, flight-path tables, electronic
// stopping, and the ion-beam sampler) and allocates the worker pool's
// shared state.
//
// dedxSrc supplies raw electronic stopping-power values; pass nil to
// disable electronic stopping regardless of what cfg.Simulation.
// ElectronicStopping requests (the reference stopping-power tables are a
// collaborator's data, not bundled with this module).
func (r *Run) Init(cfg *config.Config, dedxSrc dedx.Source) error {
	if err := r.d.Init(cfg, dedxSrc); err != nil {
		return fmt.Errorf("opentrim: init: %w", err)
	}
	return nil
}

// Exec runs cfg.Run.MaxNoIons ion histories across cfg.Run.Threads worker
// goroutines (or the machine's logical core count if unset), blocking until
// they all complete, Abort is called, or cfg.Run.MaxCPUTime elapses.
//
// cb, if non-nil, is invoked from the calling goroutine roughly every
// msInterval with a progress Status.
func (r *Run) Exec(cb ProgressCallback, msInterval time.Duration) error {
	r.start = time.Now()
	if err := r.d.Exec(cb, msInterval); err != nil {
		return fmt.Errorf("opentrim: exec: %w", err)
	}
	return nil
}

// Abort requests that every running worker stop after its current ion
// history. Exec returns once all workers have observed the request.
func (r *Run) Abort() { r.d.Abort() }

// Wait blocks until the most recent Exec call's workers have all returned.
func (r *Run) Wait() { r.d.Wait() }

// IsRunning reports whether a previous Exec call's workers are still live.
func (r *Run) IsRunning() bool { return r.d.IsRunning() }

// Status returns a progress snapshot relative to the most recent Exec
// call's start time.
func (r *Run) Status() Status { return r.d.Status(r.start) }

// History returns the log of this Run's completed Exec calls.
func (r *Run) History() []RunRecord { return r.d.History() }

// Tally returns the tally accumulated across every Exec call so far.
func (r *Run) Tally() *tally.Tally { return r.d.MasterTally() }

// ExitEvents, DamageEvents and PKAEvents return the merged per-kind event
// stream bytes a caller can persist however it likes (HDF5 writing is a
// collaborator's job, outside this module).
func (r *Run) ExitEvents() []byte   { return r.d.ExitEvents() }
func (r *Run) DamageEvents() []byte { return r.d.DamageEvents() }
func (r *Run) PKAEvents() []byte    { return r.d.PKAEvents() }

// Save and Load are reserved for HDF5 session persistence, not implemented
// in this module; both return ErrPersistenceUnavailable.
func (r *Run) Save(path string) error { return r.d.Save(path) }
func (r *Run) Load(path string) error { return r.d.Load(path) }
