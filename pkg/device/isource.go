package device

import (
	"github.com/edp1096/mna-spice/pkg/matrix"
)

// CurrentSource drives DC from n1 through the source into n2.
type CurrentSource struct {
	BaseDevice
	DC        float64
	AC        float64
	TranConst float64
}

func NewCurrentSource(name string, nodeNames []string, dc, ac, tranConst float64) *CurrentSource {
	return &CurrentSource{
		BaseDevice: newBaseDevice(name, nodeNames, dc),
		DC:         dc,
		AC:         ac,
		TranConst:  tranConst,
	}
}

func (i *CurrentSource) GetType() string { return "I" }

// Level is the magnitude stamped in the given mode.
func (i *CurrentSource) Level(mode AnalysisMode) float64 {
	switch mode {
	case ACAnalysis:
		return i.AC
	case TransientAnalysis, TransientInit:
		return i.DC + i.TranConst
	default:
		return i.DC
	}
}

func (i *CurrentSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := i.Nodes[0], i.Nodes[1]

	if status.isComplex() {
		stampComplexCurrent(matrix, n1, n2, i.Level(status.Mode), 0)
		return nil
	}
	stampCurrent(matrix, n1, n2, i.Level(status.Mode))

	return nil
}
