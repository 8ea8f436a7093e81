package matrix

import (
	"fmt"
	"io"

	"github.com/edp1096/sparse"
	"github.com/pkg/errors"
)

// CircuitMatrix is one MNA system: a sparse coefficient matrix plus its
// right-hand side. Rows and columns are 1-based; row 0 is ground and is
// never stored.
type CircuitMatrix struct {
	Size         int
	matrix       *sparse.Matrix
	rhs          []float64
	rhsImag      []float64
	solution     []float64
	solutionImag []float64
	config       *sparse.Configuration
	outOfBounds  int
}

func NewMatrix(size int, isComplex bool) (*CircuitMatrix, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid matrix size %d", size)
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: true,
		Expandable:              true,
		Translate:               true, // Factor reorders; later stamps go through the translation table
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, errors.Wrap(err, "creating sparse matrix")
	}

	m := &CircuitMatrix{
		Size:         size,
		matrix:       mat,
		rhs:          make([]float64, size+1), // 1-based indexing
		rhsImag:      make([]float64, size+1),
		solution:     make([]float64, size+1),
		solutionImag: make([]float64, size+1),
		config:       config,
	}
	m.setupElements()

	return m, nil
}

// setupElements allocates every element once so later stamps never grow the
// structure after a factorization.
func (m *CircuitMatrix) setupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) IsComplex() bool {
	return m.config.Complex
}

func (m *CircuitMatrix) inBounds(i, j int) bool {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		m.outOfBounds++
		return false
	}
	return true
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if !m.inBounds(i, j) {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if !m.inBounds(i, j) {
		return
	}

	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if !m.inBounds(i, 1) {
		return
	}
	m.rhs[i] += value
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if !m.inBounds(i, 1) {
		return
	}
	m.rhs[i] += real
	m.rhsImag[i] += imag
}

// LoadGmin adds gmin on every node diagonal. Branch rows are left alone.
func (m *CircuitMatrix) LoadGmin(gmin float64, numNodes int) {
	if gmin == 0 {
		return
	}
	for i := 1; i <= numNodes && i <= m.Size; i++ {
		if diag := m.matrix.GetElement(int64(i), int64(i)); diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
		m.rhsImag[i] = 0
	}
	m.outOfBounds = 0
}

func (m *CircuitMatrix) Solve() error {
	var err error

	if m.outOfBounds > 0 {
		return errors.Errorf("%d stamps outside the %dx%d system", m.outOfBounds, m.Size, m.Size)
	}

	err = m.matrix.Factor()
	if err != nil {
		return errors.Wrap(err, "matrix factorization failed")
	}

	if m.config.Complex {
		m.solution, m.solutionImag, err = m.matrix.SolveComplex(m.rhs, m.rhsImag)
	} else {
		m.solution, err = m.matrix.Solve(m.rhs)
	}
	if err != nil {
		return errors.Wrap(err, "matrix solve failed")
	}

	return nil
}

// Solution returns the 1-based solution of the last Solve.
func (m *CircuitMatrix) Solution() []float64 {
	return m.solution
}

func (m *CircuitMatrix) GetComplexSolution(i int) (float64, float64) {
	if i <= 0 || i > m.Size {
		return 0, 0
	}
	if !m.config.Complex {
		return m.solution[i], 0
	}
	return m.solution[i], m.solutionImag[i]
}

// Vector copies the real solution into a zero-based slice.
func (m *CircuitMatrix) Vector() []float64 {
	out := make([]float64, m.Size)
	copy(out, m.solution[1:m.Size+1])
	return out
}

// ComplexVector copies the complex solution into a zero-based slice.
func (m *CircuitMatrix) ComplexVector() []complex128 {
	out := make([]complex128, m.Size)
	for i := range out {
		re, im := m.GetComplexSolution(i + 1)
		out[i] = complex(re, im)
	}
	return out
}

// PrintSystem writes the stamped equations, one row per unknown.
func (m *CircuitMatrix) PrintSystem(w io.Writer, names []string) {
	label := func(i int) string {
		if i-1 < len(names) {
			return names[i-1]
		}
		return fmt.Sprintf("x%d", i)
	}

	fmt.Fprintf(w, "\nCircuit Equations (%dx%d):\n", m.Size, m.Size)
	for i := 1; i <= m.Size; i++ {
		fmt.Fprintf(w, "%-8s", label(i))
		for j := 1; j <= m.Size; j++ {
			element := m.matrix.GetElement(int64(i), int64(j))
			if element.Real == 0 && element.Imag == 0 {
				continue
			}
			if m.config.Complex && element.Imag != 0 {
				fmt.Fprintf(w, "  (%g + j%g)*%s", element.Real, element.Imag, label(j))
			} else {
				fmt.Fprintf(w, "  %+g*%s", element.Real, label(j))
			}
		}
		if m.config.Complex {
			fmt.Fprintf(w, " = %g + j%g\n", m.rhs[i], m.rhsImag[i])
		} else {
			fmt.Fprintf(w, " = %g\n", m.rhs[i])
		}
	}
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}
