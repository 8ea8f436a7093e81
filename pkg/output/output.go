package output

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/analysis"
	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/netlist"
	"github.com/edp1096/mna-spice/pkg/util"
)

var ErrKindMismatch = errors.New("print request does not match the analysis")

// Series is one PrintRequest resolved against a run: y over the sweep
// variable x.
type Series struct {
	Label  string
	XLabel string
	Kind   netlist.AnalysisKind
	X      []float64
	Y      []float64
}

func xLabel(kind netlist.AnalysisKind) string {
	switch kind {
	case netlist.KindAC:
		return "frequency"
	case netlist.KindTran:
		return "time"
	default:
		return "sweep"
	}
}

// position resolves the request target in the index. ok is false for ground.
func position(index *circuit.Index, req netlist.PrintRequest) (pos int, ok bool, err error) {
	if req.Var == netlist.VarCurrent {
		pos, err = index.Branch(req.Target)
		return pos, err == nil, err
	}
	if circuit.IsGround(req.Target) {
		return 0, false, nil
	}
	pos, err = index.Node(req.Target)
	return pos, err == nil, err
}

func Extract(run *analysis.RunResult, req netlist.PrintRequest) (Series, error) {
	if req.Kind != run.Kind {
		return Series{}, errors.Wrapf(ErrKindMismatch, "%s for %s", req.Label(), run.Kind)
	}

	s := Series{Label: req.Label(), XLabel: xLabel(run.Kind), Kind: run.Kind}

	switch run.Kind {
	case netlist.KindAC:
		if run.AC == nil {
			return Series{}, errors.New("no ac result")
		}
		pos, ok, err := position(run.AC.Index, req)
		if err != nil {
			return Series{}, err
		}
		s.X = run.AC.X()
		s.Y = make([]float64, len(s.X))
		for i, p := range run.AC.Points {
			var v complex128
			if ok {
				v = p.Solution[pos]
			}
			s.Y[i] = Transform(v, req.Transform)
		}

	default:
		res := run.DC
		if run.Kind == netlist.KindTran {
			res = run.Tran
		}
		if res == nil {
			return Series{}, errors.Errorf("no %s result", run.Kind)
		}
		pos, ok, err := position(res.Index, req)
		if err != nil {
			return Series{}, err
		}
		s.X = res.X()
		s.Y = make([]float64, len(s.X))
		if ok {
			s.Y = res.Column(pos)
		}
	}

	return s, nil
}

// Transform presents a phasor; phase is in degrees.
func Transform(v complex128, t netlist.Transform) float64 {
	switch t {
	case netlist.TransformReal:
		return real(v)
	case netlist.TransformImag:
		return imag(v)
	case netlist.TransformPhase:
		return cmplx.Phase(v) * 180 / math.Pi
	case netlist.TransformDB:
		return 20 * math.Log10(cmplx.Abs(v))
	default:
		return cmplx.Abs(v)
	}
}

// WriteTable prints series sharing one x axis as aligned columns.
func WriteTable(w io.Writer, series []Series) error {
	if len(series) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{series[0].XLabel}
	for _, s := range series {
		header = append(header, s.Label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i, x := range series[0].X {
		row := []string{formatX(series[0].Kind, x)}
		for _, s := range series {
			if i < len(s.Y) {
				row = append(row, util.FormatMagnitude(s.Y[i]))
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}

	return tw.Flush()
}

func formatX(kind netlist.AnalysisKind, x float64) string {
	switch kind {
	case netlist.KindAC:
		return util.FormatFrequency(x)
	case netlist.KindTran:
		return util.FormatValueFactor(x, "s")
	default:
		return util.FormatMagnitude(x)
	}
}

// WriteOperatingPoint prints every unknown of a single-point DC result.
func WriteOperatingPoint(w io.Writer, res *analysis.DcResult) error {
	if res == nil || res.Len() == 0 {
		return errors.New("no operating point")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	labels := res.Index.Labels()
	for i, v := range res.Points[0].Solution {
		unit := "V"
		if strings.HasPrefix(labels[i], "I(") {
			unit = "A"
		}
		fmt.Fprintf(tw, "%s\t%s\n", labels[i], util.FormatValueFactor(v, unit))
	}
	return tw.Flush()
}
