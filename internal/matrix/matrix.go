package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrDimension = errors.New("wrong dimensions")

// Matrix is a dense row-major matrix. Its shape is fixed at construction,
// Activate and Softmax rewrite Data in place.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

func New(data []float64, rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 || rows*cols != len(data) {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrDimension, len(data), rows, cols)
	}
	return &Matrix{Data: data, Rows: rows, Cols: cols}, nil
}

// At panics when i or j is out of range.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		panic(fmt.Sprintf("matrix: index (%d, %d) out of range for %dx%d", i, j, m.Rows, m.Cols))
	}
	return m.Data[i*m.Cols+j]
}

// Activate applies tanh to every element.
func (m *Matrix) Activate() {
	for i, x := range m.Data {
		m.Data[i] = math.Tanh(x)
	}
}

// Softmax normalizes the whole matrix into a probability distribution.
// The maximum is subtracted first so large logits cannot overflow exp.
func (m *Matrix) Softmax() {
	if len(m.Data) == 0 {
		return
	}
	d := floats.Max(m.Data)
	for i := range m.Data {
		m.Data[i] = math.Exp(m.Data[i] - d)
	}
	// Summed left to right, floats.Sum reorders the additions.
	s := 0.0
	for _, x := range m.Data {
		s += x
	}
	for i := range m.Data {
		m.Data[i] /= s
	}
}

// ArgMax returns the index of the largest element, the lowest index on ties.
func (m *Matrix) ArgMax() int {
	if len(m.Data) == 0 {
		return -1
	}
	return floats.MaxIdx(m.Data)
}

func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.Cols != b.Rows {
		return nil, fmt.Errorf("%w: cannot multiply %dx%d by %dx%d", ErrDimension, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	data := make([]float64, a.Rows*b.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			for k := 0; k < a.Cols; k++ {
				// The explicit conversion keeps the compiler from fusing into an FMA.
				data[i*b.Cols+j] += float64(a.Data[i*a.Cols+k] * b.Data[k*b.Cols+j])
			}
		}
	}
	return &Matrix{Data: data, Rows: a.Rows, Cols: b.Cols}, nil
}

func MatAdd(a, b *Matrix) (*Matrix, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("%w: cannot add %dx%d and %dx%d", ErrDimension, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = a.Data[i] + b.Data[i]
	}
	return &Matrix{Data: data, Rows: a.Rows, Cols: a.Cols}, nil
}
