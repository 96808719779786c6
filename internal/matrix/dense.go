// Package matrix provides the one linear-algebra abstraction shared by
// the design matrix builder and the ridge solver: a row-major dense
// matrix plus the weighted normal-equation products and the Cholesky
// factorization the solve needs. Rating systems are small (about 130
// teams, under a thousand games per season) so dense storage is both
// simpler and faster than a sparse format here.
package matrix

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensions indicates non-positive or mismatched dimensions.
	ErrDimensions = errors.New("matrix: invalid dimensions")

	// ErrNotPositiveDefinite indicates a Cholesky pivot at or below
	// zero; the normal-equations matrix is rank deficient at working
	// precision.
	ErrNotPositiveDefinite = errors.New("matrix: not positive definite")
)

// Dense is a row-major matrix of float64 values backed by one flat
// slice.
type Dense struct {
	rows, cols int
	data       []float64
}

// NewDense returns a zeroed rows x cols matrix.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// Rows returns the row count.
func (m *Dense) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Dense) Cols() int { return m.cols }

// At returns the element at (r, c). Bounds are the caller's contract;
// the flat index panics on violation the same way a slice would.
func (m *Dense) At(r, c int) float64 {
	return m.data[r*m.cols+c]
}

// Set writes the element at (r, c).
func (m *Dense) Set(r, c int, v float64) {
	m.data[r*m.cols+c] = v
}

// Row returns a view of row r. The slice aliases the backing storage.
func (m *Dense) Row(r int) []float64 {
	return m.data[r*m.cols : (r+1)*m.cols]
}

// MulVec computes y = M * x.
func (m *Dense) MulVec(x []float64) ([]float64, error) {
	if len(x) != m.cols {
		return nil, fmt.Errorf("%w: vector length %d against %d columns", ErrDimensions, len(x), m.cols)
	}
	y := make([]float64, m.rows)
	for r := 0; r < m.rows; r++ {
		row := m.Row(r)
		var sum float64
		for c, v := range row {
			sum += v * x[c]
		}
		y[r] = sum
	}
	return y, nil
}

// WeightedNormal forms the weighted normal-equation pair
//
//	N = Aᵗ W A    rhs = Aᵗ W b
//
// with W the diagonal matrix of the weight vector. Row order is fixed,
// so identical inputs accumulate in an identical floating-point order
// and the result is bit-reproducible.
func (m *Dense) WeightedNormal(b, w []float64) (*Dense, []float64, error) {
	if len(b) != m.rows || len(w) != m.rows {
		return nil, nil, fmt.Errorf("%w: %d rows against len(b)=%d len(w)=%d",
			ErrDimensions, m.rows, len(b), len(w))
	}
	n, err := NewDense(m.cols, m.cols)
	if err != nil {
		return nil, nil, err
	}
	rhs := make([]float64, m.cols)

	for r := 0; r < m.rows; r++ {
		row := m.Row(r)
		wr := w[r]
		if wr == 0 {
			continue
		}
		for i := 0; i < m.cols; i++ {
			ai := row[i]
			if ai == 0 {
				continue
			}
			wai := wr * ai
			rhs[i] += wai * b[r]
			ni := n.Row(i)
			for j := 0; j < m.cols; j++ {
				if row[j] != 0 {
					ni[j] += wai * row[j]
				}
			}
		}
	}
	return n, rhs, nil
}

// Cholesky holds the lower-triangular factor of a symmetric positive
// definite matrix.
type Cholesky struct {
	l *Dense
}

// Factorize computes the Cholesky decomposition M = L Lᵗ. M must be
// symmetric; only the lower triangle is read. A non-positive pivot
// returns ErrNotPositiveDefinite.
func Factorize(m *Dense) (*Cholesky, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("%w: %dx%d not square", ErrDimensions, m.rows, m.cols)
	}
	n := m.rows
	l, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m.At(i, j)
			for k := 0; k < j; k++ {
				sum -= l.At(i, k) * l.At(j, k)
			}
			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, fmt.Errorf("%w: pivot %d = %g", ErrNotPositiveDefinite, i, sum)
				}
				l.Set(i, i, math.Sqrt(sum))
			} else {
				l.Set(i, j, sum/l.At(j, j))
			}
		}
	}
	return &Cholesky{l: l}, nil
}

// Solve solves L Lᵗ x = b by forward then backward substitution.
func (ch *Cholesky) Solve(b []float64) ([]float64, error) {
	n := ch.l.rows
	if len(b) != n {
		return nil, fmt.Errorf("%w: rhs length %d against order %d", ErrDimensions, len(b), n)
	}
	// Forward: L y = b.
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= ch.l.At(i, k) * y[k]
		}
		y[i] = sum / ch.l.At(i, i)
	}
	// Backward: Lᵗ x = y.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= ch.l.At(k, i) * x[k]
		}
		x[i] = sum / ch.l.At(i, i)
	}
	return x, nil
}

// ConditionEstimate returns a cheap spectral-condition estimate of the
// factorized matrix: (max diag(L) / min diag(L))². It is an
// order-of-magnitude signal for deciding whether to escalate
// regularization, not a tight kappa bound.
func (ch *Cholesky) ConditionEstimate() float64 {
	minD, maxD := math.Inf(1), 0.0
	for i := 0; i < ch.l.rows; i++ {
		d := ch.l.At(i, i)
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
	}
	if minD <= 0 {
		return math.Inf(1)
	}
	r := maxD / minD
	return r * r
}
