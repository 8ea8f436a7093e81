package device

import (
	"math"

	"github.com/edp1096/mna-spice/internal/consts"
	"github.com/edp1096/mna-spice/pkg/matrix"
)

// Exponent above which the junction current continues linearly.
const maxExponent = 40.0

type Diode struct {
	BaseDevice
	Model DiodeModel
}

func NewDiode(name string, nodeNames []string, model DiodeModel) *Diode {
	return &Diode{
		BaseDevice: newBaseDevice(name, nodeNames, 0),
		Model:      model,
	}
}

func (d *Diode) GetType() string { return "D" }

func (d *Diode) temperatureAdjustedIs(temp float64) float64 {
	if temp <= 0 {
		temp = consts.REFTEMP
	}
	ratio := temp / consts.REFTEMP
	if ratio == 1 {
		return d.Model.Is
	}
	nvt := d.Model.N * consts.ThermalVoltage(temp)
	return d.Model.Is * math.Pow(ratio, d.Model.Xti/d.Model.N) * math.Exp((ratio-1)*d.Model.Eg/nvt)
}

// Evaluate returns the junction current and its derivative at vd.
func (d *Diode) Evaluate(vd, temp float64) (id, gd float64) {
	is := d.temperatureAdjustedIs(temp)
	nvt := d.Model.N * consts.ThermalVoltage(temp)

	if vd > maxExponent*nvt {
		e := math.Exp(maxExponent)
		gd = is * e / nvt
		id = is*(e-1) + gd*(vd-maxExponent*nvt)
		return id, gd
	}

	e := math.Exp(vd / nvt)
	return is * (e - 1), is * e / nvt
}

// OperatingPoint linearizes the junction at the 1-based solution x.
func (d *Diode) OperatingPoint(x []float64, temp float64) (vd, id, gd float64) {
	vd = valueAt(x, d.Nodes[0]) - valueAt(x, d.Nodes[1])
	id, gd = d.Evaluate(vd, temp)
	return vd, id, gd
}

func (d *Diode) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := d.Nodes[0], d.Nodes[1]
	gmin := status.Gmin
	if gmin < consts.GMIN {
		gmin = consts.GMIN
	}

	if status.Mode == ACAnalysis {
		// Small-signal conductance at the DC bias point
		_, _, gd := d.OperatingPoint(status.Bias, status.Temp)
		stampAdmittance(matrix, n1, n2, gd+gmin, 0)
		return nil
	}

	vd, id, gd := d.OperatingPoint(status.Guess, status.Temp)
	ieq := id - gd*vd

	stampConductance(matrix, n1, n2, gd+gmin)
	stampCurrent(matrix, n1, n2, ieq)

	return nil
}
