// Package geom implements the 3-D Cartesian cell grid that partitions the
// simulation volume: axis-separable edge arrays, per-axis periodic
// boundary conditions, point-in-cell tests and the "bring to boundary"
// step used by ion propagation.
package geom

import (
	"math"

	"github.com/chewxy/math32"
)

// OutsideCell is the cell id reported for a point outside the grid.
const OutsideCell = -1

// Grid is an axis-separable 3-D grid of rectangular cells.
type Grid struct {
	edges    [3][]float32 // sorted cell-boundary coordinates per axis
	periodic [3]bool
}

// NewGrid builds a grid from three sorted edge-coordinate slices (length
// ncells+1 along each axis) and per-axis periodicity flags.
func NewGrid(x, y, z []float32, periodic [3]bool) *Grid {
	g := &Grid{periodic: periodic}
	g.edges[0] = append([]float32(nil), x...)
	g.edges[1] = append([]float32(nil), y...)
	g.edges[2] = append([]float32(nil), z...)
	return g
}

// CellCount returns the number of cells along each axis.
func (g *Grid) CellCount() [3]int {
	return [3]int{len(g.edges[0]) - 1, len(g.edges[1]) - 1, len(g.edges[2]) - 1}
}

// Periodic reports whether axis i (0=X,1=Y,2=Z) has periodic boundaries.
func (g *Grid) Periodic(i int) bool { return g.periodic[i] }

// Origin and Size return the grid's bounding box.
func (g *Grid) Origin() Vec3 {
	return Vec3{g.edges[0][0], g.edges[1][0], g.edges[2][0]}
}
func (g *Grid) Size() Vec3 {
	n := g.CellCount()
	return Vec3{
		g.edges[0][n[0]] - g.edges[0][0],
		g.edges[1][n[1]] - g.edges[1][0],
		g.edges[2][n[2]] - g.edges[2][0],
	}
}

// CellID flattens a cell index to the row-major scalar id used by tallies,
// or OutsideCell if any component is out of range.
func (g *Grid) CellID(c IVec3) int {
	n := g.CellCount()
	if c.I < 0 || c.I >= n[0] || c.J < 0 || c.J >= n[1] || c.K < 0 || c.K >= n[2] {
		return OutsideCell
	}
	return c.I*n[1]*n[2] + c.J*n[2] + c.K
}

// NCells returns the total number of cells.
func (g *Grid) NCells() int {
	n := g.CellCount()
	return n[0] * n[1] * n[2]
}

// axisContainsBC reports whether v lies in [lo,hi) for axis i, accounting for
// periodic wrap: a periodic axis treats the domain as a ring, so any real
// value "contains" once wrapped.
func (g *Grid) axisContainsBC(i int, v float32) bool {
	e := g.edges[i]
	lo, hi := e[0], e[len(e)-1]
	if g.periodic[i] {
		return true
	}
	return v >= lo && v < hi
}

// ContainsWithBC tests whether pos lies within the simulation volume,
// treating periodic axes as always-satisfied (an ion on a periodic axis is
// never "outside" along that axis; it wraps instead).
func (g *Grid) ContainsWithBC(pos Vec3) bool {
	for i := 0; i < 3; i++ {
		if !g.axisContainsBC(i, pos.Component(i)) {
			return false
		}
	}
	return true
}

// cellBounds returns the [lo,hi) bounds of cell index idx along axis i.
func (g *Grid) cellBounds(i, idx int) (lo, hi float32) {
	e := g.edges[i]
	return e[idx], e[idx+1]
}

// Contains performs a strict [lo,hi) test of pos against the cell named by
// cellIndex (no boundary-condition wrap).
func (g *Grid) Contains(cellIndex IVec3, pos Vec3) bool {
	n := g.CellCount()
	idx := [3]int{cellIndex.I, cellIndex.J, cellIndex.K}
	for i := 0; i < 3; i++ {
		if idx[i] < 0 || idx[i] >= n[i] {
			return false
		}
		lo, hi := g.cellBounds(i, idx[i])
		v := pos.Component(i)
		if v < lo || v >= hi {
			return false
		}
	}
	return true
}

// findCell does a binary search for the [lo,hi) cell containing v on axis i,
// after optional periodic wrap has already been applied to v.
func (g *Grid) findCell(i int, v float32) int {
	e := g.edges[i]
	lo, hi := 0, len(e)-1
	if v < e[0] {
		return -1
	}
	if v >= e[hi] {
		return -1
	}
	for lo < hi-1 {
		mid := (lo + hi) / 2
		if v < e[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// wrapAxis maps v into [lo,hi) for a periodic axis.
func wrapAxis(v, lo, hi float32) float32 {
	span := hi - lo
	if span <= 0 {
		return v
	}
	w := math32.Mod(v-lo, span)
	if w < 0 {
		w += span
	}
	return w + lo
}

// ApplyBC wraps pos's coordinates on every periodic axis in place.
func (g *Grid) ApplyBC(pos *Vec3) {
	for i := 0; i < 3; i++ {
		if !g.periodic[i] {
			continue
		}
		e := g.edges[i]
		v := wrapAxis(pos.Component(i), e[0], e[len(e)-1])
		*pos = pos.WithComponent(i, v)
	}
}

// CellCenter returns the midpoint of cell index c (no bounds check; callers
// get indices from CellCount-bounded loops).
func (g *Grid) CellCenter(c IVec3) Vec3 {
	idx := [3]int{c.I, c.J, c.K}
	var v Vec3
	for i := 0; i < 3; i++ {
		lo, hi := g.cellBounds(i, idx[i])
		v = v.WithComponent(i, 0.5*(lo+hi))
	}
	return v
}

// Distance returns the Euclidean distance between a and b, using the
// minimum-image convention on periodic axes (the shorter of the direct and
// wrapped-around separation), matching grid3D::distance's use in
// recombination-radius checks.
func (g *Grid) Distance(a, b Vec3) float32 {
	var sum float32
	for i := 0; i < 3; i++ {
		d := a.Component(i) - b.Component(i)
		if g.periodic[i] {
			e := g.edges[i]
			span := e[len(e)-1] - e[0]
			if span > 0 {
				d = wrapAxis(d+span/2, 0, span) - span/2
			}
		}
		sum += d * d
	}
	return math32.Sqrt(sum)
}

// Pos2Cell returns the discrete cell index containing pos, wrapping
// periodic axes first. ok is false if pos lies outside the grid along a
// non-periodic axis.
func (g *Grid) Pos2Cell(pos Vec3) (c IVec3, ok bool) {
	p := pos
	g.ApplyBC(&p)
	idx := [3]int{}
	for i := 0; i < 3; i++ {
		fc := g.findCell(i, p.Component(i))
		if fc < 0 {
			return IVec3{}, false
		}
		idx[i] = fc
	}
	return IVec3{idx[0], idx[1], idx[2]}, true
}

// Bring2Boundary advances *pos along dir by the minimum positive distance
// that reaches a boundary of the cell named by cellIndex, updating *pos in
// place, and returns that distance. Ties among axes are broken by picking
// the smallest positive root; axes where dir's component is (numerically)
// zero never limit the step. The limiting coordinate is then set exactly on
// the upper face (moving up) or one float32 step below the lower face
// (moving down), so the [lo,hi) cell lookup that follows finds the
// neighbouring cell, or the outside of the grid, rather than the cell left.
func (g *Grid) Bring2Boundary(cellIndex IVec3, pos *Vec3, dir Vec3) float32 {
	idx := [3]int{cellIndex.I, cellIndex.J, cellIndex.K}
	best := float32(math32.Inf(1))
	axis := -1
	for i := 0; i < 3; i++ {
		d := dir.Component(i)
		if d == 0 {
			continue
		}
		lo, hi := g.cellBounds(i, idx[i])
		p := pos.Component(i)
		var target float32
		if d > 0 {
			target = hi
		} else {
			target = lo
		}
		s := (target - p) / d
		if s >= 0 && s < best {
			best = s
			axis = i
		}
	}
	if math32.IsInf(best, 1) {
		best = 0
	}
	*pos = pos.MulAdd(dir, best)
	if axis >= 0 {
		lo, hi := g.cellBounds(axis, idx[axis])
		if dir.Component(axis) > 0 {
			*pos = pos.WithComponent(axis, hi)
		} else {
			*pos = pos.WithComponent(axis, math.Nextafter32(lo, float32(math.Inf(-1))))
		}
	}
	return best
}
