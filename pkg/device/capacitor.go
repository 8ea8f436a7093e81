package device

import (
	"math"

	"github.com/edp1096/mna-spice/internal/consts"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/util"
)

type Capacitor struct {
	BaseDevice
}

func NewCapacitor(name string, nodeNames []string, value float64) *Capacitor {
	return &Capacitor{BaseDevice: newBaseDevice(name, nodeNames, value)}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	switch status.Mode {
	case ACAnalysis:
		omega := 2 * math.Pi * status.Frequency
		stampAdmittance(matrix, n1, n2, 0, omega*c.Value) // C * jω

	case TransientAnalysis:
		// i = C * (c0*v(n) + c1*v(n-1) + ...), companion: geq || ieq
		coeffs := util.GetBDFcoeffs(companionOrder(status), status.TimeStep)
		geq := c.Value * coeffs[0]
		ieq := 0.0
		for k := 1; k < len(coeffs); k++ {
			ieq += c.Value * coeffs[k] * c.voltage(status.History[k-1])
		}
		stampConductance(matrix, n1, n2, geq)
		stampCurrent(matrix, n1, n2, ieq)

	default:
		// Open circuit in DC; gmin keeps floating nodes solvable
		gmin := status.Gmin
		if gmin < consts.GMIN {
			gmin = consts.GMIN
		}
		stampConductance(matrix, n1, n2, gmin)
	}

	return nil
}

func (c *Capacitor) voltage(x []float64) float64 {
	return valueAt(x, c.Nodes[0]) - valueAt(x, c.Nodes[1])
}

// companionOrder clamps the integration order to the history available.
func companionOrder(status *CircuitStatus) int {
	order := status.Order
	if order < 1 {
		order = 1
	}
	if order > len(status.History) {
		order = len(status.History)
	}
	if order > 2 {
		order = 2
	}
	return order
}
