// Package target holds the immutable, post-init description of the
// simulated sample: atomic species, materials (stoichiometric mixtures of
// species), and the regions that tile the simulation volume with one
// material per region.
package target

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/mroth/weightedrand"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/periodic"
)

// Atom is one atomic species participating in the run: either the
// projectile (ID==0) or a target-material constituent. IDs are dense,
// assigned by the caller during target construction; no two Atoms share an
// ID within a run.
type Atom struct {
	ID       int
	Z        int
	M        float32
	Symbol   string
	Ed       float32 // displacement energy, eV
	El       float32 // lattice binding energy, eV
	Es       float32 // surface binding energy, eV
	Er       float32 // replacement energy, eV
	Rc       float32 // recombination radius, nm
	Material *Material
}

// NewAtom builds an Atom, filling in Mass and Symbol from the periodic-table
// lookup for z.
func NewAtom(id, z int, ed, el, es, er, rc float32) *Atom {
	return &Atom{
		ID: id, Z: z, M: periodic.Mass(z), Symbol: periodic.Symbol(z),
		Ed: ed, El: el, Es: es, Er: er, Rc: rc,
	}
}

// Material is an ordered, stoichiometric mixture of Atoms plus its atomic
// density. Immutable after NewMaterial returns.
type Material struct {
	Atoms     []*Atom
	Fractions []float32 // sum to 1
	N         float32   // atomic density, at/nm^3
	Rat       float32   // atomic radius (3/(4*pi*N))^(1/3), nm
	Color     string
	Vacuum    bool

	chooser *weightedrand.Chooser[*Atom, uint64]
}

const fractionScale = 1 << 24

// NewMaterial builds a Material from its constituent atoms and
// stoichiometric fractions (must sum to ~1) and atomic density N (at/nm^3).
func NewMaterial(atoms []*Atom, fractions []float32, n float32, color string) (*Material, error) {
	if len(atoms) != len(fractions) {
		return nil, errors.New("target: atoms/fractions length mismatch")
	}
	var sum float32
	for _, f := range fractions {
		sum += f
	}
	if sum > 0 && (sum < 0.999 || sum > 1.001) {
		return nil, fmt.Errorf("target: stoichiometric fractions sum to %v, want 1", sum)
	}
	m := &Material{
		Atoms:     append([]*Atom(nil), atoms...),
		Fractions: append([]float32(nil), fractions...),
		N:         n,
	}
	if n > 0 {
		m.Rat = float32(math.Pow(3/(4*math.Pi*float64(n)), 1.0/3.0))
	}
	m.Color = color
	for _, a := range atoms {
		a.Material = m
	}
	choices := make([]weightedrand.Choice[*Atom, uint64], len(atoms))
	for i, a := range atoms {
		w := uint64(fractions[i] * fractionScale)
		if w == 0 {
			w = 1
		}
		choices[i] = weightedrand.NewChoice(a, w)
	}
	if len(choices) > 0 {
		c, err := weightedrand.NewChooser(choices...)
		if err != nil {
			return nil, fmt.Errorf("target: building atom chooser: %w", err)
		}
		m.chooser = c
	}
	return m, nil
}

// NewVacuum returns the special zero-density material used to fill regions the
// user did not cover, through which ions fly without collisions or stopping.
func NewVacuum() *Material {
	return &Material{Vacuum: true}
}

// PickAtom draws a target atom according to the material's stoichiometric
// fractions. Panics if the material has no atoms (vacuum): callers must
// special-case m.Vacuum before calling.
func (m *Material) PickAtom(rng *rand.Rand) *Atom {
	return m.chooser.PickSource(rng)
}

// Region is an axis-aligned box of one material, tiling part of the
// simulation volume.
type Region struct {
	ID         int
	MaterialID int
	Origin     geom.Vec3
	Size       geom.Vec3
}

// Validate checks the boundary-behavior requirements: a zero-thickness
// region, or one entirely outside the grid volume, is rejected at init.
func (r Region) Validate(gridOrigin, gridSize geom.Vec3) error {
	if r.Size.X <= 0 || r.Size.Y <= 0 || r.Size.Z <= 0 {
		return fmt.Errorf("target: region %d has zero or negative thickness", r.ID)
	}
	lo := r.Origin
	hi := r.Origin.Add(r.Size)
	glo := gridOrigin
	ghi := gridOrigin.Add(gridSize)
	if hi.X <= glo.X || lo.X >= ghi.X ||
		hi.Y <= glo.Y || lo.Y >= ghi.Y ||
		hi.Z <= glo.Z || lo.Z >= ghi.Z {
		return fmt.Errorf("target: region %d lies entirely outside the simulation grid", r.ID)
	}
	return nil
}

// Target binds a Grid, its per-cell material assignment and the full
// material list together: the complete, immutable geometry+composition
// description of a run.
type Target struct {
	Grid      *geom.Grid
	Materials []*Material
	Regions   []Region
	// CellMaterial maps a flat cell id to an index into Materials.
	CellMaterial []int
}

// Build validates every region against the grid volume (the zero-thickness
// / entirely-outside boundary checks) and rasterizes them
// onto a flat per-cell material index: each cell is assigned the material
// of the last region (in slice order) whose box contains the cell's
// center, or left unassigned (-1, read back as vacuum by MaterialAt) if no
// region covers it. Later regions painting over earlier ones lets the
// caller describe overlapping regions the way target_desc_t's ordered
// region list does.
func Build(grid *geom.Grid, materials []*Material, regions []Region) (*Target, error) {
	origin, size := grid.Origin(), grid.Size()
	for _, r := range regions {
		if err := r.Validate(origin, size); err != nil {
			return nil, err
		}
	}

	n := grid.NCells()
	cellMat := make([]int, n)
	for i := range cellMat {
		cellMat[i] = -1
	}

	cnt := grid.CellCount()
	for i := 0; i < cnt[0]; i++ {
		for j := 0; j < cnt[1]; j++ {
			for k := 0; k < cnt[2]; k++ {
				c := geom.IVec3{I: i, J: j, K: k}
				id := grid.CellID(c)
				center := grid.CellCenter(c)
				for _, r := range regions {
					lo, hi := r.Origin, r.Origin.Add(r.Size)
					if center.X < lo.X || center.X >= hi.X ||
						center.Y < lo.Y || center.Y >= hi.Y ||
						center.Z < lo.Z || center.Z >= hi.Z {
						continue
					}
					cellMat[id] = r.MaterialID
				}
			}
		}
	}

	return &Target{Grid: grid, Materials: materials, Regions: append([]Region(nil), regions...), CellMaterial: cellMat}, nil
}

// MaterialAt returns the material occupying cell id, or the vacuum material
// if id is OutsideCell or unassigned.
func (t *Target) MaterialAt(cellID int) *Material {
	if cellID < 0 || cellID >= len(t.CellMaterial) {
		return NewVacuum()
	}
	mi := t.CellMaterial[cellID]
	if mi < 0 || mi >= len(t.Materials) {
		return NewVacuum()
	}
	return t.Materials[mi]
}
