package device

import (
	"github.com/edp1096/mna-spice/pkg/matrix"
)

// VCCS: current g*(v(c1)-v(c2)) flows from n1 through the source to n2.
// Nodes are ordered n1, n2, c1, c2.
type VCCS struct {
	BaseDevice
}

func NewVCCS(name string, nodeNames []string, gain float64) *VCCS {
	return &VCCS{BaseDevice: newBaseDevice(name, nodeNames, gain)}
}

func (g *VCCS) GetType() string { return "G" }

func (g *VCCS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2, c1, c2 := g.Nodes[0], g.Nodes[1], g.Nodes[2], g.Nodes[3]

	add := matrix.AddElement
	if status.isComplex() {
		add = func(i, j int, v float64) { matrix.AddComplexElement(i, j, v, 0) }
	}
	for _, e := range []struct {
		row, col int
		v        float64
	}{
		{n1, c1, g.Value},
		{n1, c2, -g.Value},
		{n2, c1, -g.Value},
		{n2, c2, g.Value},
	} {
		if e.row != 0 && e.col != 0 {
			add(e.row, e.col, e.v)
		}
	}

	return nil
}

// VCVS: v(n1) - v(n2) = A*(v(c1) - v(c2)), with its own branch current.
type VCVS struct {
	BaseDevice
	branchIdx int
}

func NewVCVS(name string, nodeNames []string, gain float64) *VCVS {
	return &VCVS{BaseDevice: newBaseDevice(name, nodeNames, gain)}
}

func (e *VCVS) GetType() string { return "E" }

func (e *VCVS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2, c1, c2 := e.Nodes[0], e.Nodes[1], e.Nodes[2], e.Nodes[3]
	bIdx := e.branchIdx
	complexMode := status.isComplex()

	stampIncidence(matrix, n1, n2, bIdx, complexMode)

	add := matrix.AddElement
	if complexMode {
		add = func(i, j int, v float64) { matrix.AddComplexElement(i, j, v, 0) }
	}
	if c1 != 0 {
		add(bIdx, c1, -e.Value)
	}
	if c2 != 0 {
		add(bIdx, c2, e.Value)
	}

	return nil
}

func (e *VCVS) BranchIndex() int {
	return e.branchIdx
}

func (e *VCVS) SetBranchIndex(idx int) {
	e.branchIdx = idx
}
