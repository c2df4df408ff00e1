// table.go builds the precomputed sin²(θCM/2) tables on the shared
// (ε,s) grid (641 reduced-energy rows × 513 reduced-impact-parameter
// columns) for each screening kind, plus the base-2 log of the
// same table for bilog interpolation.
package xs

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/grid"
)

// EpsSeq and SSeq are the shared reduced-energy / reduced-impact-parameter
// quasi-log grids every ScatteringTable and LabScatteringCalc is built
// over: E in [2^-19, 2^21] (641 pts), s in [2^-26, 2^6] (513 pts).
var (
	EpsSeq = grid.NewSeq(4, -19, 21)
	SSeq   = grid.NewSeq(4, -26, 6)
	Grid2D = grid.NewBilinear2D(EpsSeq, SSeq)
)

// ScatteringTable is a precomputed, read-only sin²(θCM/2) table for one
// screening kind, shareable across worker goroutines without copying.
type ScatteringTable struct {
	Screening Screening
	Sin2      []float32 // row-major EpsSeq.Size() x SSeq.Size()
	Log2Sin2  []float32 // log2 of the above, for bilog interpolation
}

// tableCache memoizes tables per screening kind: building a 641x513 table
// calls the CMS scattering solver ~330K times, so every LabScatteringCalc
// for a given screening kind shares one ScatteringTable.
var (
	tableCacheMu sync.Mutex
	tableCache   = map[Screening]*ScatteringTable{}
)

// NewScatteringTable builds (or returns the cached) table for scr. Safe to
// call from concurrent init paths (multiple worker clones preloading
// different species pairs at the same screening kind).
func NewScatteringTable(scr Screening) *ScatteringTable {
	tableCacheMu.Lock()
	defer tableCacheMu.Unlock()
	if t, ok := tableCache[scr]; ok {
		return t
	}
	rows, cols := EpsSeq.Size(), SSeq.Size()
	t := &ScatteringTable{
		Screening: scr,
		Sin2:      make([]float32, rows*cols),
		Log2Sin2:  make([]float32, rows*cols),
	}
	for i := 0; i < rows; i++ {
		eps := EpsSeq.Value(i)
		for j := 0; j < cols; j++ {
			s := SSeq.Value(j)
			var sin2 float32
			if scr == ScreeningZBLMagic {
				sin2 = Sin2ThetaBy2Magic(eps, s)
			} else {
				th := Theta(scr, eps, s)
				half := th / 2
				sv := math32.Sin(half)
				sin2 = sv * sv
			}
			if sin2 < 1e-30 {
				sin2 = 1e-30
			}
			k := i*cols + j
			t.Sin2[k] = sin2
			t.Log2Sin2[k] = math32.Log2(sin2)
		}
	}
	tableCache[scr] = t
	return t
}

// Sin2ThetaBy2 looks up/interpolates sin²(θCM/2) at (eps,s) using bilog
// interpolation (the tabulated quantity spans many decades).
func (t *ScatteringTable) Sin2ThetaBy2(eps, s float32) float32 {
	return Grid2D.EvalLog(t.Log2Sin2, eps, s)
}
