package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/internal/logging"
	"github.com/edp1096/mna-spice/pkg/netlist"
)

var ErrNoAnalysis = errors.New("no analysis directive")

// RunResult holds the one result matching the netlist's directive.
type RunResult struct {
	ID     string // tags every log line of the run
	Kind   netlist.AnalysisKind
	DC     *DcResult
	AC     *AcResult
	Tran   *TranResult
	Prints []netlist.PrintRequest
}

// Failed lists the points that did not solve, whatever the analysis kind.
func (r *RunResult) Failed() []PointError {
	switch {
	case r.DC != nil:
		return r.DC.Failed
	case r.AC != nil:
		return r.AC.Failed
	case r.Tran != nil:
		return r.Tran.Failed
	}
	return nil
}

// Run selects the driver from the netlist directive. ctx is only consulted
// between points.
func Run(ctx context.Context, nl *netlist.Netlist, opts Options) (*RunResult, error) {
	id := uuid.NewString()
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	opts.Logger = opts.Logger.With(slog.String("run", id))

	a := New(opts)
	d := nl.Directive
	out := &RunResult{ID: id, Kind: d.Kind, Prints: nl.Prints}

	start := time.Now()
	a.logger.Info("analysis started",
		slog.String("kind", d.Kind.String()),
		slog.Int("unknowns", nl.Circuit.Size()))

	var err error
	switch {
	case d.Kind == netlist.KindDC && d.DC != nil:
		out.DC, err = a.DCSweep(ctx, nl.Circuit, *d.DC)
	case d.Kind == netlist.KindDC:
		out.DC, err = a.OP(ctx, nl.Circuit)
	case d.Kind == netlist.KindAC && d.AC != nil:
		out.AC, err = a.AC(ctx, nl.Circuit, *d.AC)
	case d.Kind == netlist.KindTran && d.Tran != nil:
		out.Tran, err = a.Transient(ctx, nl.Circuit, *d.Tran)
	default:
		return nil, ErrNoAnalysis
	}
	if err != nil {
		return out, err
	}

	opts.Metrics.RecordRun(d.Kind.String(), nl.Circuit.Size(), time.Since(start))
	a.logger.Info("analysis finished",
		slog.String("kind", d.Kind.String()),
		slog.Int("failed", len(out.Failed())),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}
