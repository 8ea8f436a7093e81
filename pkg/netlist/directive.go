package netlist

import (
	"fmt"
	"math"
)

// Relative slack when deciding whether a sweep end point is on the grid.
const gridSlack = 1e-6

type AnalysisKind int

const (
	KindNone AnalysisKind = iota
	KindDC
	KindAC
	KindTran
)

func (k AnalysisKind) String() string {
	switch k {
	case KindDC:
		return "dc"
	case KindAC:
		return "ac"
	case KindTran:
		return "tran"
	default:
		return "none"
	}
}

type DCSweep struct {
	Source string
	Start  float64
	End    float64
	Step   float64
}

// Values lists the swept levels, both ends included.
func (s DCSweep) Values() []float64 {
	n := int(math.Floor((s.End-s.Start)/s.Step + gridSlack))
	values := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		values = append(values, s.Start+float64(k)*s.Step)
	}
	return values
}

type SweepLaw int

const (
	SweepLin SweepLaw = iota
	SweepDec
	SweepOct
)

func (l SweepLaw) String() string {
	switch l {
	case SweepDec:
		return "dec"
	case SweepOct:
		return "oct"
	default:
		return "lin"
	}
}

func parseSweepLaw(s string) (SweepLaw, bool) {
	switch s {
	case "lin":
		return SweepLin, true
	case "dec":
		return SweepDec, true
	case "oct":
		return SweepOct, true
	}
	return SweepLin, false
}

// ACSweep: Lin spreads Points over [FStart, FEnd]; Dec and Oct place Points
// per decade or octave starting at FStart.
type ACSweep struct {
	Law    SweepLaw
	Points int
	FStart float64
	FEnd   float64
}

func (s ACSweep) Frequencies() []float64 {
	switch s.Law {
	case SweepDec:
		return s.logPoints(10)
	case SweepOct:
		return s.logPoints(2)
	}

	if s.Points == 1 || s.FEnd == s.FStart {
		return []float64{s.FStart}
	}
	freqs := make([]float64, s.Points)
	step := (s.FEnd - s.FStart) / float64(s.Points-1)
	for i := range freqs {
		freqs[i] = s.FStart + float64(i)*step
	}
	return freqs
}

func (s ACSweep) logPoints(base float64) []float64 {
	span := math.Log(s.FEnd/s.FStart) / math.Log(base)
	n := int(math.Floor(span*float64(s.Points) + gridSlack))
	freqs := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		freqs = append(freqs, s.FStart*math.Pow(base, float64(k)/float64(s.Points)))
	}
	return freqs
}

type TranSpec struct {
	Step  float64
	Stop  float64
	Start float64
	UIC   bool // skip the initial operating point, start from zero
}

// Times lists every output time from Start to Stop on the Step grid.
func (s TranSpec) Times() []float64 {
	n := int(math.Floor((s.Stop-s.Start)/s.Step + gridSlack))
	times := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		times = append(times, s.Start+float64(k)*s.Step)
	}
	return times
}

// Directive is the analysis selected by the netlist. For KindDC a nil DC
// sweep means a plain operating point.
type Directive struct {
	Kind AnalysisKind
	OP   bool
	DC   *DCSweep
	AC   *ACSweep
	Tran *TranSpec
}

type VarKind int

const (
	VarVoltage VarKind = iota
	VarCurrent
)

// Transform selects how an AC value is presented.
type Transform int

const (
	TransformMag Transform = iota
	TransformReal
	TransformImag
	TransformPhase
	TransformDB
)

func (t Transform) String() string {
	switch t {
	case TransformReal:
		return "r"
	case TransformImag:
		return "i"
	case TransformPhase:
		return "p"
	case TransformDB:
		return "db"
	default:
		return "m"
	}
}

type PrintRequest struct {
	Kind      AnalysisKind
	Var       VarKind
	Target    string
	Transform Transform
	Plot      bool
}

// Label renders the request the way it is written in a netlist.
func (r PrintRequest) Label() string {
	if r.Var == VarCurrent {
		return fmt.Sprintf("i(%s)", r.Target)
	}
	if r.Kind == KindAC {
		return fmt.Sprintf("v%s(%s)", r.Transform, r.Target)
	}
	return fmt.Sprintf("v(%s)", r.Target)
}
