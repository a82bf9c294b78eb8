package matrix

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidShape reports zero-sized construction dimensions.
	ErrInvalidShape = errors.New("matrix: invalid shape")
	// ErrShapeMismatch reports incompatible operand dimensions.
	ErrShapeMismatch = errors.New("matrix: shape mismatch")
	// ErrOutOfBounds reports an index outside the matrix.
	ErrOutOfBounds = errors.New("matrix: index out of bounds")
)

// Matrix is a dense row-major 2-D container of float64 values.
// Invariant: len(Data) == Rows*Cols.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// New returns a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}, nil
}

// Randomize fills every element with an independent uniform draw on [low, high).
func (m *Matrix) Randomize(rng *rand.Rand, low, high float64) {
	for i := range m.Data {
		m.Data[i] = rng.Float64()*(high-low) + low
	}
}

// At returns the element at (r, c).
func (m *Matrix) At(r, c int) (float64, error) {
	if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, r, c, m.Rows, m.Cols)
	}
	return m.Data[r*m.Cols+c], nil
}

// Set stores v at (r, c).
func (m *Matrix) Set(r, c int, v float64) error {
	if r < 0 || r >= m.Rows || c < 0 || c >= m.Cols {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, r, c, m.Rows, m.Cols)
	}
	m.Data[r*m.Cols+c] = v
	return nil
}

// MustAt is the unchecked variant of At for loop-generated indices.
func (m *Matrix) MustAt(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Mul returns the matrix product a·b.
func Mul(a, b *Matrix) (*Matrix, error) {
	if a.Cols != b.Rows {
		return nil, fmt.Errorf("%w: %dx%d * %dx%d", ErrShapeMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := &Matrix{Rows: a.Rows, Cols: b.Cols, Data: make([]float64, a.Rows*b.Cols)}
	for i := 0; i < a.Rows; i++ {
		for k := 0; k < a.Cols; k++ {
			aik := a.Data[i*a.Cols+k]
			if aik == 0 {
				continue
			}
			rowOut := out.Data[i*b.Cols : (i+1)*b.Cols]
			rowB := b.Data[k*b.Cols : (k+1)*b.Cols]
			for j := range rowB {
				rowOut[j] += aik * rowB[j]
			}
		}
	}
	return out, nil
}

// AddInPlace adds b elementwise into m.
func (m *Matrix) AddInPlace(b *Matrix) error {
	if m.Rows != b.Rows || m.Cols != b.Cols {
		return fmt.Errorf("%w: %dx%d + %dx%d", ErrShapeMismatch, m.Rows, m.Cols, b.Rows, b.Cols)
	}
	for i := range m.Data {
		m.Data[i] += b.Data[i]
	}
	return nil
}

// Apply transforms every element through the given activation in place.
func (m *Matrix) Apply(kind Activation) {
	for i, v := range m.Data {
		m.Data[i] = kind.apply(v)
	}
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// Row returns row r as a new 1×Cols matrix.
func (m *Matrix) Row(r int) (*Matrix, error) {
	if r < 0 || r >= m.Rows {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, r, m.Rows)
	}
	out := &Matrix{Rows: 1, Cols: m.Cols, Data: make([]float64, m.Cols)}
	copy(out.Data, m.Data[r*m.Cols:(r+1)*m.Cols])
	return out, nil
}
