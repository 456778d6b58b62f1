package generate

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ForceMatrix builds an S×S force matrix from a named pattern. Entry (i, j) is how strongly
// species i is pulled toward (positive) or pushed from (negative) species j. Every entry lies in
// [-1, 1] and the diagonal is a mild self-repulsion (zero for the Zero pattern).
//
// Parameters:
//   - pattern: the generator
//   - s: species count
//   - rng: the random source
//
// Returns:
//   - *mat.Dense: the matrix
func ForceMatrix(pattern Matrix, s int, rng *rand.Rand) *mat.Dense {
	s = max(s, 1)
	m := mat.NewDense(s, s, nil)
	fs := float64(s)
	group := max((s+2)/3, 1)
	for i := 0; i < s; i++ {
		for j := 0; j < s; j++ {
			var v float64
			next, prev := j == (i+1)%s, j == (i+s-1)%s
			switch pattern {
			case MatrixRandom:
				v = rng.Float64()*2 - 1
			case MatrixSymmetry:
				if j < i {
					v = m.At(j, i)
				} else {
					v = rng.Float64()*2 - 1
				}
			case MatrixChains:
				switch {
				case next:
					v = 0.8
				case prev:
					v = 0.3
				default:
					v = -0.2
				}
			case MatrixSnakes:
				switch {
				case next:
					v = 0.9
				case prev:
					v = -0.4
				}
			case MatrixZero:
			case MatrixPredatorPrey:
				switch {
				case next:
					v = 0.8
				case prev:
					v = -0.8
				default:
					v = (rng.Float64()*2 - 1) * 0.1
				}
			case MatrixSymbiosis:
				if i/2 == j/2 {
					v = 0.7
				} else {
					v = -0.2
				}
			case MatrixTerritorial:
				v = -0.25 - 0.25*rng.Float64()
			case MatrixMagnetic:
				if (i+j)%2 == 1 {
					v = 0.6
				} else {
					v = -0.6
				}
			case MatrixCrystal:
				v = 0.8 * math.Cos(2*math.Pi*float64(i-j)/fs)
			case MatrixWave:
				v = 0.9 * math.Sin(2*math.Pi*float64(j-i)/fs)
			case MatrixHierarchy:
				w := 1 - math.Abs(float64(i-j))/fs
				if j > i {
					v = 0.6 * w
				} else {
					v = -0.3 * w
				}
			case MatrixClique:
				if i/group == j/group {
					v = 0.6
				} else {
					v = -0.3
				}
			case MatrixAntiClique:
				if i/group == j/group {
					v = -0.4
				} else {
					v = 0.5
				}
			case MatrixFibonacci:
				v = float64(fibonacci(i+j)%7)/3 - 1
			case MatrixPrime:
				if isPrime(i + j + 2) {
					v = 0.7
				} else {
					v = -0.3
				}
			case MatrixFractal:
				v = 0.7 / (1 + 0.25*math.Abs(float64(i-j)))
				if bits.OnesCount(uint(i^j))%2 == 1 {
					v = -v
				}
			case MatrixRockPaperScissors:
				switch {
				case next:
					v = 0.8
				case prev:
					v = -0.8
				}
			case MatrixCooperation:
				v = 0.3 + 0.3*rng.Float64()
			case MatrixCompetition:
				v = -0.3 - 0.3*rng.Float64()
			default:
				v = rng.Float64()*2 - 1
			}
			m.Set(i, j, v)
		}
	}
	finalize(m, pattern != MatrixZero, rng)
	return m
}

// finalize clamps entries to [-1, 1] and, when selfRepel is set, replaces the diagonal with a
// mild repulsion in [-0.2, -0.05].
func finalize(m *mat.Dense, selfRepel bool, rng *rand.Rand) {
	raw := m.RawMatrix()
	for i, v := range raw.Data {
		raw.Data[i] = math.Min(math.Max(v, -1), 1)
	}
	if !selfRepel {
		return
	}
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		m.Set(i, i, -(0.05 + 0.15*rng.Float64()))
	}
}

func fibonacci(n int) int {
	a, b := 0, 1
	for ; n > 0; n-- {
		a, b = b, (a+b)%1000003
	}
	return a
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// InRange reports whether every entry lies in [-1, 1] and the diagonal is not attractive.
func InRange(m *mat.Dense) bool {
	data := m.RawMatrix().Data
	if len(data) == 0 {
		return true
	}
	if floats.Min(data) < -1 || floats.Max(data) > 1 {
		return false
	}
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		if m.At(i, i) > 0 {
			return false
		}
	}
	return true
}

// Operation is an in-place edit of a force matrix.
type Operation string

const (
	OpRotateClockwise        Operation = "RotateClockwise"
	OpRotateCounterClockwise Operation = "RotateCounterClockwise"
	OpFlipHorizontal         Operation = "FlipHorizontal"
	OpFlipVertical           Operation = "FlipVertical"
	OpTranspose              Operation = "Transpose"
	OpNegate                 Operation = "Negate"
	OpSymmetrize             Operation = "Symmetrize"
	OpZero                   Operation = "Zero"
	OpRandomize              Operation = "Randomize"
)

// AllOperations lists every Operation.
var AllOperations = []Operation{
	OpRotateClockwise, OpRotateCounterClockwise, OpFlipHorizontal, OpFlipVertical,
	OpTranspose, OpNegate, OpSymmetrize, OpZero, OpRandomize,
}

// ParseOperation validates an operation name.
func ParseOperation(name string) (Operation, bool) {
	op := Operation(name)
	return op, slices.Contains(AllOperations, op)
}

// Apply returns the result of op on m. Randomize draws a fresh Random pattern.
//
// Parameters:
//   - op: the operation
//   - m: the square input matrix; not modified
//   - rng: the random source for Randomize
//
// Returns:
//   - *mat.Dense: the new matrix
func Apply(op Operation, m *mat.Dense, rng *rand.Rand) *mat.Dense {
	s, _ := m.Dims()
	out := mat.NewDense(s, s, nil)
	switch op {
	case OpRotateClockwise:
		out.Apply(func(i, j int, _ float64) float64 { return m.At(s-1-j, i) }, out)
	case OpRotateCounterClockwise:
		out.Apply(func(i, j int, _ float64) float64 { return m.At(j, s-1-i) }, out)
	case OpFlipHorizontal:
		out.Apply(func(i, j int, _ float64) float64 { return m.At(i, s-1-j) }, out)
	case OpFlipVertical:
		out.Apply(func(i, j int, _ float64) float64 { return m.At(s-1-i, j) }, out)
	case OpTranspose:
		out.Copy(m.T())
	case OpNegate:
		out.Scale(-1, m)
	case OpSymmetrize:
		out.Add(m, m.T())
		out.Scale(0.5, out)
	case OpZero:
	case OpRandomize:
		return ForceMatrix(MatrixRandom, s, rng)
	default:
		out.Copy(m)
	}
	return out
}

// Rows converts a matrix to nested float32 slices for JSON and GPU upload.
func Rows(m *mat.Dense) [][]float32 {
	r, c := m.Dims()
	out := make([][]float32, r)
	for i := range out {
		out[i] = make([]float32, c)
		for j := range out[i] {
			out[i][j] = float32(m.At(i, j))
		}
	}
	return out
}

// Flatten returns the matrix in row-major float32 order.
func Flatten(m *mat.Dense) []float32 {
	data := m.RawMatrix().Data
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}

// FromRows builds a matrix from nested slices. It reports false unless rows is square and
// non-empty.
func FromRows(rows [][]float64) (*mat.Dense, bool) {
	s := len(rows)
	if s == 0 {
		return nil, false
	}
	data := make([]float64, 0, s*s)
	for _, row := range rows {
		if len(row) != s {
			return nil, false
		}
		data = append(data, row...)
	}
	return mat.NewDense(s, s, data), true
}

// Resize grows or shrinks a matrix to s species, keeping the overlapping block and filling new
// entries from the Random pattern.
func Resize(m *mat.Dense, s int, rng *rand.Rand) *mat.Dense {
	fresh := ForceMatrix(MatrixRandom, s, rng)
	r, _ := m.Dims()
	n := min(r, s)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			fresh.Set(i, j, m.At(i, j))
		}
	}
	return fresh
}
