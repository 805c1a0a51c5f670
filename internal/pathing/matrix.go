package pathing

// Matrix is a dense rows×cols table stored in one contiguous slice,
// addressed by row*cols+col.
type Matrix[T any] struct {
	rows int
	cols int
	data []T
}

// NewMatrix allocates a matrix with every element set to fill
func NewMatrix[T any](rows, cols int, fill T) *Matrix[T] {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	m := &Matrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
	for i := range m.data {
		m.data[i] = fill
	}
	return m
}

func (m *Matrix[T]) Rows() int { return m.rows }
func (m *Matrix[T]) Cols() int { return m.cols }

func (m *Matrix[T]) At(r, c int) T {
	return m.data[r*m.cols+c]
}

func (m *Matrix[T]) Set(r, c int, v T) {
	m.data[r*m.cols+c] = v
}

// Row returns a view of row r. Writes through the slice update the matrix.
func (m *Matrix[T]) Row(r int) []T {
	start := r * m.cols
	return m.data[start : start+m.cols : start+m.cols]
}
