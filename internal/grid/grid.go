// Package grid implements the quasi-log ("Corteo") index sequences used
// throughout the transport core to tabulate and interpolate physical
// quantities that span many decades: reduced energy, reduced impact
// parameter, and the dE/dx energy grid.
//
// The indexing scheme is the one described by Yuan et al., NIMB83(1993)
// p.413 and implemented in the Corteo BCA code: an integer index I maps to
// a real value X_I = m·2^e with m = 1 + (I mod 2^N)·2^-N and
// e = Emin + (I div 2^N). Because this has the same shape as an IEEE-754
// float with N mantissa bits, converting between I and X_I reduces to a few
// integer shifts on the bit pattern of a float32 — no calls to log2/exp2 on
// the hot path.
package grid

import "math"

// Seq is a quasi-log index sequence over [2^minExp, 2^maxExp] with nbits
// mantissa bits per octave.
type Seq struct {
	nbits          int
	minExp, maxExp int
	nm             int32 // 1<<nbits
	dim            int32 // (maxExp-minExp)*nm
	bias           int32
	shift          uint
	log2m          []float32 // precomputed log2(1+k/nm), k=0..nm-1
	minVal, maxVal float32
}

// float32MantissaDigits, float32MaxExponent are fixed for float32 per IEEE-754.
const (
	float32MantissaDigits = 24 // FLT_MANT_DIG
	float32MaxExponent    = 128
)

// NewSeq builds a Seq with nbits mantissa bits spanning [2^minExp, 2^maxExp].
func NewSeq(nbits, minExp, maxExp int) *Seq {
	if maxExp <= minExp {
		panic("grid: maxExp must be > minExp")
	}
	nm := int32(1) << uint(nbits)
	s := &Seq{
		nbits:  nbits,
		minExp: minExp,
		maxExp: maxExp,
		nm:     nm,
		dim:    int32(maxExp-minExp) * nm,
		bias:   int32(float32MaxExponent-1+minExp) * nm,
		shift:  uint(float32MantissaDigits - 1 - nbits),
	}
	s.log2m = make([]float32, nm)
	f := 1 / float32(nm)
	for i := int32(0); i < nm; i++ {
		s.log2m[i] = float32(math.Log2(1 + float64(f)*float64(i)))
	}
	s.minVal = pow2(minExp)
	s.maxVal = pow2(maxExp)
	return s
}

func pow2(e int) float32 {
	return float32(math.Ldexp(1, e))
}

// Dim returns the last valid index (the table holds Dim()+1 samples).
func (s *Seq) Dim() int { return int(s.dim) }

// Size returns the number of tabulated samples, Dim()+1.
func (s *Seq) Size() int { return int(s.dim) + 1 }

// MinVal and MaxVal are the range endpoints 2^minExp and 2^maxExp.
func (s *Seq) MinVal() float32 { return s.minVal }
func (s *Seq) MaxVal() float32 { return s.maxVal }

// Index converts a value to the quasi-log index of the grid point at or
// below it (Value(Index(v)) <= v), clamping to [0, Dim()] for values
// outside [minVal, maxVal].
func (s *Seq) Index(val float32) int {
	if val <= s.minVal {
		return 0
	}
	if val >= s.maxVal {
		return int(s.dim)
	}
	bits := int32(math.Float32bits(val))
	bits = (bits >> s.shift) - s.bias
	return int(bits)
}

// Value converts an index back to its real value X_I.
func (s *Seq) Value(idx int) float32 {
	bits := (int32(idx) + s.bias) << s.shift
	return math.Float32frombits(uint32(bits))
}

// Log2Value returns log2(X_I) directly from the precomputed mantissa table,
// avoiding a call to math.Log2.
func (s *Seq) Log2Value(idx int) float32 {
	i := int32(idx)
	m := i & (s.nm - 1)
	e := (i >> uint(s.nbits)) + int32(s.minExp)
	return s.log2m[m] + float32(e)
}

// LinInterp is a piecewise-linear interpolator over a Seq's x-range.
type LinInterp struct {
	seq    *Seq
	y      []float32
	dydx   []float32
}

// NewLinInterp builds a linear interpolator from y sampled at every index of
// seq. len(y) must be >= seq.Size().
func NewLinInterp(seq *Seq, y []float32) *LinInterp {
	n := seq.Size()
	li := &LinInterp{seq: seq, y: make([]float32, n), dydx: make([]float32, n)}
	copy(li.y, y[:n])
	for i := 0; i < n-1; i++ {
		dx := seq.Value(i+1) - seq.Value(i)
		li.dydx[i] = (li.y[i+1] - li.y[i]) / dx
	}
	return li
}

// Eval returns the linearly interpolated value y(x), clamped at the range
// edges.
func (li *LinInterp) Eval(x float32) float32 {
	if x <= li.seq.minVal {
		return li.y[0]
	}
	if x >= li.seq.maxVal {
		return li.y[len(li.y)-1]
	}
	i := li.seq.Index(x)
	return li.y[i] + li.dydx[i]*(x-li.seq.Value(i))
}

// Data exposes the raw sample table.
func (li *LinInterp) Data() []float32 { return li.y }

// LogInterp is a log-log (power-law-segment) interpolator over a Seq.
type LogInterp struct {
	seq *Seq
	y   []float32
	d   []float32 // d log2(y) / d log2(x) per segment
}

// NewLogInterp builds a log-log interpolator from y sampled at every index
// of seq. Every y[i] must be finite and positive.
func NewLogInterp(seq *Seq, y []float32) *LogInterp {
	n := seq.Size()
	li := &LogInterp{seq: seq, y: make([]float32, n), d: make([]float32, n)}
	copy(li.y, y[:n])
	for i := 0; i < n-1; i++ {
		dlogx := seq.Log2Value(i+1) - seq.Log2Value(i)
		li.d[i] = float32(math.Log2(float64(li.y[i+1]))-math.Log2(float64(li.y[i]))) / dlogx
	}
	return li
}

// Eval returns the log-log interpolated value y(x), clamped at the range
// edges.
func (li *LogInterp) Eval(x float32) float32 {
	if x <= li.seq.minVal {
		return li.y[0]
	}
	if x >= li.seq.maxVal {
		return li.y[len(li.y)-1]
	}
	i := li.seq.Index(x)
	logx := float32(math.Log2(float64(x)))
	return li.y[i] * float32(math.Exp2(float64(li.d[i]*(logx-li.seq.Log2Value(i)))))
}

// Data exposes the raw sample table.
func (li *LogInterp) Data() []float32 { return li.y }

// Bilinear2D holds two quasi-log sequences defining a 2-D grid (rows = seqA,
// cols = seqB) and produces interpolation indices/coefficients for a flat
// row-major table over that grid.
type Bilinear2D struct {
	Rows, Cols *Seq
	ncols      int
}

// NewBilinear2D builds a 2-D grid descriptor for a table shaped
// (rows.Size(), cols.Size()), row-major.
func NewBilinear2D(rows, cols *Seq) *Bilinear2D {
	return &Bilinear2D{Rows: rows, Cols: cols, ncols: cols.Size()}
}

// TableIndex returns the flat row-major index of the grid point at or below
// (x,y) on each axis, matching the original Corteo table_index (no
// interpolation).
func (b *Bilinear2D) TableIndex(x, y float32) int {
	return b.Rows.Index(x)*b.ncols + b.Cols.Index(y)
}

// Coeffs returns the four flat indices of the cell surrounding (x,y) — in
// row-major order (i,j), (i,j+1), (i+1,j), (i+1,j+1) — and their bilinear
// interpolation weights, summing to 1. Indices clamp to the last row/col
// when x or y is at or beyond the table edge, which makes the last two
// indices degenerate with the first two (the edge value is returned
// unchanged).
func (b *Bilinear2D) Coeffs(x, y float32) (idx [4]int, w [4]float32) {
	i := b.Rows.Index(x)
	j := b.Cols.Index(y)
	i1, j1 := i, j
	var tx, ty float32
	if i < b.Rows.Dim() {
		i1 = i + 1
		x0, x1 := b.Rows.Value(i), b.Rows.Value(i1)
		if x1 > x0 {
			tx = (x - x0) / (x1 - x0)
		}
	}
	if j < b.Cols.Dim() {
		j1 = j + 1
		y0, y1 := b.Cols.Value(j), b.Cols.Value(j1)
		if y1 > y0 {
			ty = (y - y0) / (y1 - y0)
		}
	}
	idx[0] = i*b.ncols + j
	idx[1] = i*b.ncols + j1
	idx[2] = i1*b.ncols + j
	idx[3] = i1*b.ncols + j1
	w[0] = (1 - tx) * (1 - ty)
	w[1] = (1 - tx) * ty
	w[2] = tx * (1 - ty)
	w[3] = tx * ty
	return
}

// Eval performs bilinear interpolation of table (flat, row-major, shaped
// Rows.Size() x Cols.Size()) at (x,y).
func (b *Bilinear2D) Eval(table []float32, x, y float32) float32 {
	idx, w := b.Coeffs(x, y)
	var v float32
	for k := 0; k < 4; k++ {
		v += w[k] * table[idx[k]]
	}
	return v
}

// EvalLog performs bilinear interpolation of log2(table) at (x,y) and
// returns 2^(interpolated value) — "bilog" interpolation, used when the
// tabulated quantity (e.g. sin²(θ/2)) spans many decades.
func (b *Bilinear2D) EvalLog(log2Table []float32, x, y float32) float32 {
	idx, w := b.Coeffs(x, y)
	var v float32
	for k := 0; k < 4; k++ {
		v += w[k] * log2Table[idx[k]]
	}
	return float32(math.Exp2(float64(v)))
}
