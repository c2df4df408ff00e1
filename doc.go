// Package opentrim implements a Monte Carlo binary-collision-approximation
// simulator for ion transport through layered, three-dimensional solid
// targets: elastic nuclear scattering, electronic stopping, recoil cascades
// with optional intra-cascade recombination, and NRT displacement-damage
// estimation.
//
// opentrim itself is a thin public wrapper around internal/driver.Driver:
// a caller builds a *config.Config (by hand or by decoding YAML with
// internal/config), passes it to New and Init, then calls Exec to run the
// configured number of ion histories across a worker-goroutine pool. The
// accumulated internal/tally.Tally and any requested event streams are
// read back through the returned *Run once Exec completes.
//
// HDF5 persistence and the reference implementation's on-disk session
// format are out of scope here: Save/Load are named but unimplemented,
// left for a collaborator package to wire up.
package opentrim
