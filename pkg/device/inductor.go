package device

import (
	"math"

	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/util"
)

// Inductor carries its current as a branch unknown, so it is a plain short in
// DC and stays regular at zero frequency.
type Inductor struct {
	BaseDevice
	branchIdx int
}

func NewInductor(name string, nodeNames []string, value float64) *Inductor {
	return &Inductor{BaseDevice: newBaseDevice(name, nodeNames, value)}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := l.Nodes[0], l.Nodes[1]
	bIdx := l.branchIdx

	stampIncidence(matrix, n1, n2, bIdx, status.isComplex())

	switch status.Mode {
	case ACAnalysis:
		// v1 - v2 - jωL*I = 0
		omega := 2 * math.Pi * status.Frequency
		matrix.AddComplexElement(bIdx, bIdx, 0, -omega*l.Value)

	case TransientAnalysis:
		// v1 - v2 = L * (c0*I(n) + c1*I(n-1) + ...)
		coeffs := util.GetBDFcoeffs(companionOrder(status), status.TimeStep)
		matrix.AddElement(bIdx, bIdx, -l.Value*coeffs[0])
		veq := 0.0
		for k := 1; k < len(coeffs); k++ {
			veq += l.Value * coeffs[k] * valueAt(status.History[k-1], bIdx)
		}
		matrix.AddRHS(bIdx, veq)
	}

	return nil
}

func (l *Inductor) BranchIndex() int {
	return l.branchIdx
}

func (l *Inductor) SetBranchIndex(idx int) {
	l.branchIdx = idx
}
