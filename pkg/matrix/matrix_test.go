package matrix

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSolve(t *testing.T) {
	m, err := NewMatrix(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	m.AddElement(1, 1, 2)
	m.AddElement(1, 2, -1)
	m.AddElement(2, 1, -1)
	m.AddElement(2, 2, 2)
	m.AddRHS(1, 1)

	require.NoError(t, m.Solve())
	x := m.Vector()
	assert.InDelta(t, 2.0/3.0, x[0], 1e-12)
	assert.InDelta(t, 1.0/3.0, x[1], 1e-12)

	var buf bytes.Buffer
	m.PrintSystem(&buf, []string{"V(1)", "V(2)"})
	assert.Contains(t, buf.String(), "V(1)")
}

func TestComplexSolve(t *testing.T) {
	m, err := NewMatrix(1, true)
	require.NoError(t, err)
	defer m.Destroy()
	assert.True(t, m.IsComplex())

	// (1 + j) x = 2  =>  x = 1 - j
	m.AddComplexElement(1, 1, 1, 1)
	m.AddComplexRHS(1, 2, 0)

	require.NoError(t, m.Solve())
	x := m.ComplexVector()
	assert.InDelta(t, 1.0, real(x[0]), 1e-12)
	assert.InDelta(t, -1.0, imag(x[0]), 1e-12)
}

func TestOutOfBoundsStamp(t *testing.T) {
	m, err := NewMatrix(1, false)
	require.NoError(t, err)
	defer m.Destroy()

	m.AddElement(1, 1, 1)
	m.AddElement(2, 1, 1)
	assert.Error(t, m.Solve())

	m.Clear()
	m.AddElement(1, 1, 4)
	m.AddRHS(1, 2)
	require.NoError(t, m.Solve())
	assert.InDelta(t, 0.5, m.Vector()[0], 1e-12)
}

func TestInvalidSize(t *testing.T) {
	_, err := NewMatrix(0, false)
	assert.Error(t, err)
}

func TestRestampAfterFactor(t *testing.T) {
	m, err := NewMatrix(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	stamp := func(g float64) {
		m.Clear()
		m.AddElement(1, 1, g)
		m.AddElement(1, 2, -1)
		m.AddElement(2, 1, -1)
		m.AddElement(2, 2, 2)
		m.AddRHS(1, 1)
	}

	for _, g := range []float64{2, 3, 5} {
		stamp(g)
		m.LoadGmin(1e-12, 2)
		require.NoError(t, m.Solve())

		// det = 2g - 1; x1 = 2/det, x2 = 1/det
		det := 2*g - 1
		x := m.Vector()
		assert.InDelta(t, 2/det, x[0], 1e-9, "g = %g", g)
		assert.InDelta(t, 1/det, x[1], 1e-9, "g = %g", g)
	}

	var buf bytes.Buffer
	assert.NotPanics(t, func() { m.PrintSystem(&buf, nil) })
}

func TestComplexRestamp(t *testing.T) {
	m, err := NewMatrix(1, true)
	require.NoError(t, err)
	defer m.Destroy()

	for _, w := range []float64{1, 2} {
		m.Clear()
		m.AddComplexElement(1, 1, 1, w)
		m.AddComplexRHS(1, 1+w*w, 0)
		require.NoError(t, m.Solve())

		// (1 + jw) x = 1 + w^2  =>  x = 1 - jw
		x := m.ComplexVector()
		assert.InDelta(t, 1.0, real(x[0]), 1e-12)
		assert.InDelta(t, -w, imag(x[0]), 1e-12)
	}
}
