package analysis

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
	"github.com/edp1096/mna-spice/pkg/netlist"
)

// AC solves the small-signal system at every sweep frequency. Diodes are
// linearized once at the DC operating point.
func (a *Analyzer) AC(ctx context.Context, ckt *circuit.Circuit, sweep netlist.ACSweep) (*AcResult, error) {
	res := newResult[complex128](netlist.KindAC, ckt.Index())

	var bias []float64
	if ckt.IsNonLinear() {
		mat, err := matrix.NewMatrix(ckt.Size(), false)
		if err != nil {
			return nil, err
		}
		bias, _, err = a.operatingPoint(ckt, mat, a.status(device.OperatingPointAnalysis))
		mat.Destroy()
		if err != nil {
			return nil, errors.Wrap(err, "ac bias point")
		}
	}

	mat, err := matrix.NewMatrix(ckt.Size(), true)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	for _, freq := range sweep.Frequencies() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		status := a.status(device.ACAnalysis)
		status.Frequency = freq
		status.Bias = bias

		mat.Clear()
		if err := ckt.Stamp(mat, status); err != nil {
			return res, err
		}
		err := mat.Solve()
		a.opts.Metrics.RecordPoint("ac", err == nil, 1)
		if err != nil {
			a.logger.Warn("ac point failed", slog.Float64("freq", freq), slog.Any("err", err))
			res.fail(freq, err)
			continue
		}

		res.add(freq, mat.ComplexVector())
	}

	return res, nil
}
