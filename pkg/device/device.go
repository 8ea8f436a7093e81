package device

import (
	"github.com/edp1096/mna-spice/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	SetNodes(nodes []int)
	Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error
}

// BranchDevice owns one branch-current unknown in the MNA system.
type BranchDevice interface {
	Device
	BranchIndex() int
	SetBranchIndex(idx int)
}

// NonLinear devices must be re-linearized on every Newton iteration.
type NonLinear interface {
	Device
	OperatingPoint(x []float64, temp float64) (vd, id, gd float64)
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     float64
	NodeNames []string
}

func newBaseDevice(name string, nodeNames []string, value float64) BaseDevice {
	return BaseDevice{
		Name:      name,
		Nodes:     make([]int, len(nodeNames)),
		NodeNames: nodeNames,
		Value:     value,
	}
}

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	DCSweep
	ACAnalysis
	TransientAnalysis
	TransientInit // DC operating point that seeds a transient run
)

func (m AnalysisMode) String() string {
	switch m {
	case OperatingPointAnalysis:
		return "op"
	case DCSweep:
		return "dc"
	case ACAnalysis:
		return "ac"
	case TransientAnalysis:
		return "tran"
	case TransientInit:
		return "tran-op"
	default:
		return "unknown"
	}
}

// SweepOverride replaces the DC level of one voltage source during a DC sweep,
// so the circuit itself is never mutated.
type SweepOverride struct {
	Source string
	Value  float64
}

// CircuitStatus is everything a stamp may depend on besides the device
// record. Solution vectors are 1-based, matching the matrix rows.
type CircuitStatus struct {
	Mode      AnalysisMode
	Time      float64
	TimeStep  float64
	Frequency float64 // AC frequency
	Temp      float64
	Gmin      float64
	Order     int         // integration order, 1 = backward Euler, 2 = Gear
	Guess     []float64   // linearization point
	History   [][]float64 // previous converged solutions, most recent first
	Bias      []float64   // DC operating point for AC small-signal
	Sweep     *SweepOverride
}

func (s *CircuitStatus) isComplex() bool {
	return s.Mode == ACAnalysis
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetNodeNames() []string {
	return d.NodeNames
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

// valueAt reads row from a 1-based solution; ground and missing vectors read 0.
func valueAt(x []float64, row int) float64 {
	if row <= 0 || row >= len(x) {
		return 0
	}
	return x[row]
}

func stampConductance(m matrix.DeviceMatrix, n1, n2 int, g float64) {
	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
		m.AddElement(n2, n2, g)
	}
}

func stampAdmittance(m matrix.DeviceMatrix, n1, n2 int, re, im float64) {
	if n1 != 0 {
		m.AddComplexElement(n1, n1, re, im)
		if n2 != 0 {
			m.AddComplexElement(n1, n2, -re, -im)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddComplexElement(n2, n1, -re, -im)
		}
		m.AddComplexElement(n2, n2, re, im)
	}
}

// stampCurrent loads a current i flowing from n1 through the device to n2.
func stampCurrent(m matrix.DeviceMatrix, n1, n2 int, i float64) {
	if n1 != 0 {
		m.AddRHS(n1, -i)
	}
	if n2 != 0 {
		m.AddRHS(n2, i)
	}
}

func stampComplexCurrent(m matrix.DeviceMatrix, n1, n2 int, re, im float64) {
	if n1 != 0 {
		m.AddComplexRHS(n1, -re, -im)
	}
	if n2 != 0 {
		m.AddComplexRHS(n2, re, im)
	}
}

// stampIncidence couples branch b to its terminals: KCL columns and the
// v(n1) - v(n2) part of the branch equation.
func stampIncidence(m matrix.DeviceMatrix, n1, n2, b int, complexMode bool) {
	add := m.AddElement
	if complexMode {
		add = func(i, j int, v float64) { m.AddComplexElement(i, j, v, 0) }
	}
	if n1 != 0 {
		add(n1, b, 1)
		add(b, n1, 1)
	}
	if n2 != 0 {
		add(n2, b, -1)
		add(b, n2, -1)
	}
}
