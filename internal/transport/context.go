package transport

import (
	"github.com/ir2-lab/OpenTRIM-sub000/internal/dedx"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/flightpath"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

// dedxKey indexes the per-(projectile atom id, material index) electronic
// stopping calculator.
type dedxKey struct{ atomID, matID int }

// Context holds everything every worker shares read-only: the target
// geometry/composition, the scattering calculators, the flight-path
// sampling tables, and the electronic-stopping calculators.
type Context struct {
	Target     *target.Target
	Scatter    *ScatterRegistry
	FlightPath *flightpath.Tables
	Dedx       map[dedxKey]*dedx.Calc
	Opts       Options

	// Atoms indexes every atomic species participating in the run by
	// target.Atom.ID (id 0 is the projectile species), regardless of
	// which material's Atoms slice it also appears in — the transport
	// loop needs to resolve "the ion's own species descriptor" even for
	// atom ids that never appear as a struck target atom.
	Atoms []*target.Atom
}

// NewContext assembles a Context from its already-built shared tables.
// Building the tables themselves (iterating the target's atom/material
// list, calling NewScatterRegistry.Add, flightpath.NewTables, and
// dedx.NewStoppingInterpolator/NewStragglingInterpolator per pair) is the
// driver's job at init time; Context only holds the results.
func NewContext(tgt *target.Target, scatter *ScatterRegistry, fp *flightpath.Tables, dedxCalcs map[dedxKey]*dedx.Calc, opts Options) *Context {
	if dedxCalcs == nil {
		dedxCalcs = make(map[dedxKey]*dedx.Calc)
	}
	return &Context{Target: tgt, Scatter: scatter, FlightPath: fp, Dedx: dedxCalcs, Opts: opts}
}

// DedxFor returns the electronic-stopping calculator for atomID in material
// matID, or nil if electronic stopping wasn't configured for that pair.
func (c *Context) DedxFor(atomID, matID int) *dedx.Calc {
	return c.Dedx[dedxKey{atomID, matID}]
}

// SetDedx registers the calculator for (atomID, matID), used by the driver
// while assembling a Context.
func (c *Context) SetDedx(atomID, matID int, calc *dedx.Calc) {
	c.Dedx[dedxKey{atomID, matID}] = calc
}

// materialIndexAt returns the index into c.Target.Materials occupying
// cellID, or -1 if the cell is out of range, unassigned, or explicitly a
// vacuum material (target.Target.MaterialAt's logic, specialized to return
// an index the flight-path/dedx table lookups can key on directly instead
// of a fresh *Material value).
func (c *Context) materialIndexAt(cellID int) int {
	t := c.Target
	if cellID < 0 || cellID >= len(t.CellMaterial) {
		return -1
	}
	mi := t.CellMaterial[cellID]
	if mi < 0 || mi >= len(t.Materials) {
		return -1
	}
	if t.Materials[mi].Vacuum {
		return -1
	}
	return mi
}
