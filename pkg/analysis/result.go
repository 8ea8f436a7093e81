package analysis

import (
	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/netlist"
)

// Point is one solved sweep value, frequency or time. Solution is zero-based
// and aligned with the result's Index.
type Point[T float64 | complex128] struct {
	X        float64
	Solution []T
}

type PointError struct {
	X   float64
	Err error
}

// Result collects points in sweep order. Points is append-only.
type Result[T float64 | complex128] struct {
	Kind   netlist.AnalysisKind
	Index  *circuit.Index
	Points []Point[T]
	Failed []PointError
}

type (
	DcResult   = Result[float64]
	AcResult   = Result[complex128]
	TranResult = Result[float64]
)

func newResult[T float64 | complex128](kind netlist.AnalysisKind, index *circuit.Index) *Result[T] {
	return &Result[T]{Kind: kind, Index: index}
}

func (r *Result[T]) add(x float64, solution []T) {
	r.Points = append(r.Points, Point[T]{X: x, Solution: solution})
}

func (r *Result[T]) fail(x float64, err error) {
	r.Failed = append(r.Failed, PointError{X: x, Err: err})
}

func (r *Result[T]) Len() int {
	return len(r.Points)
}

// X lists the independent variable of every solved point.
func (r *Result[T]) X() []float64 {
	xs := make([]float64, len(r.Points))
	for i, p := range r.Points {
		xs[i] = p.X
	}
	return xs
}

// Column returns one unknown across all points.
func (r *Result[T]) Column(pos int) []T {
	col := make([]T, len(r.Points))
	for i, p := range r.Points {
		col[i] = p.Solution[pos]
	}
	return col
}
