package device

import (
	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/matrix"
)

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, nodeNames []string, value float64) *Resistor {
	return &Resistor{BaseDevice: newBaseDevice(name, nodeNames, value)}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(r.Nodes) != 2 {
		return errors.Errorf("resistor %s: requires exactly 2 nodes", r.Name)
	}
	if r.Value == 0 {
		return errors.Errorf("resistor %s: zero resistance", r.Name)
	}

	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / r.Value // Conductance. G = 1/R

	if status.isComplex() {
		stampAdmittance(matrix, n1, n2, g, 0)
		return nil
	}
	stampConductance(matrix, n1, n2, g)

	return nil
}
