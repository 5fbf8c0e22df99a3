package core

import "errors"

var ErrShape = errors.New("core: dimension mismatch")

// Matrix is a dense row-major matrix. Feature matrices use one row per pixel
// and one column per band.
type Matrix struct {
	R, C int
	Data []float64
}

// NewMatrix allocates a zero matrix.
func NewMatrix(r, c int) *Matrix {
	return &Matrix{R: r, C: c, Data: make([]float64, r*c)}
}

// FromSlice creates a Matrix from a nested slice (copies data).
func FromSlice(a [][]float64) *Matrix {
	r := len(a)
	if r == 0 {
		return &Matrix{R: 0, C: 0}
	}

	c := len(a[0])
	m := NewMatrix(r, c)
	k := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Data[k] = a[i][j]
			k++
		}
	}
	return m
}

// At returns element (i, j)
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.C+j] }

// Set sets element (i, j)
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.C+j] = v }

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.C : (i+1)*m.C] }

// AppendRow grows the matrix by one row. The first row fixes the column count.
func (m *Matrix) AppendRow(row []float64) error {
	if m.R == 0 && m.C == 0 {
		m.C = len(row)
	}
	if len(row) != m.C {
		return ErrShape
	}
	m.Data = append(m.Data, row...)
	m.R++
	return nil
}

// Clone Deep Copies of Matrix
func (m *Matrix) Clone() *Matrix {
	n := &Matrix{R: m.R, C: m.C, Data: make([]float64, len(m.Data))}
	copy(n.Data, m.Data)
	return n
}

// SelectRows copies the given rows, in order, into a new matrix.
func (m *Matrix) SelectRows(idx []int) *Matrix {
	out := NewMatrix(len(idx), m.C)
	for k, i := range idx {
		copy(out.Data[k*m.C:(k+1)*m.C], m.Data[i*m.C:(i+1)*m.C])
	}
	return out
}

// Slice returns rows [start, end) as a view sharing storage.
func (m *Matrix) Slice(start, end int) *Matrix {
	return &Matrix{R: end - start, C: m.C, Data: m.Data[start*m.C : end*m.C]}
}

// Apply applies f element-wise (in-place, pointer receiver for efficiency).
func (m *Matrix) Apply(f func(float64) float64) {
	for i := 0; i < len(m.Data); i++ {
		m.Data[i] = f(m.Data[i])
	}
}

// ColSlice returns a copy of column j.
func (m *Matrix) ColSlice(j int) []float64 {
	v := make([]float64, m.R)
	for i := 0; i < m.R; i++ {
		v[i] = m.Data[i*m.C+j]
	}
	return v
}
