package device

import (
	"math"

	"github.com/edp1096/mna-spice/pkg/matrix"
)

type SourceKind int

const (
	Constant SourceKind = iota
	Pulse
	Sine
)

func (k SourceKind) String() string {
	switch k {
	case Pulse:
		return "pulse"
	case Sine:
		return "sin"
	default:
		return "const"
	}
}

// SourceMode is the analysis tag of a constant source: a DC-tagged source is
// off in AC and an AC-tagged source is off everywhere else.
type SourceMode int

const (
	ModeDC SourceMode = iota
	ModeAC
)

type PulseParams struct {
	V1, V2, Delay, Rise, Fall, Width, Period float64
}

type SineParams struct {
	Offset, Amplitude, Freq, Delay, Damping float64
}

type VoltageSource struct {
	BaseDevice
	Kind  SourceKind
	Mode  SourceMode
	Pulse PulseParams
	Sine  SineParams

	branchIdx int
}

func NewVoltageSource(name string, nodeNames []string, mode SourceMode, value float64) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, nodeNames, value),
		Kind:       Constant,
		Mode:       mode,
	}
}

func NewPulseVoltageSource(name string, nodeNames []string, p PulseParams) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, nodeNames, p.V1),
		Kind:       Pulse,
		Pulse:      p,
	}
}

func NewSineVoltageSource(name string, nodeNames []string, s SineParams) *VoltageSource {
	return &VoltageSource{
		BaseDevice: newBaseDevice(name, nodeNames, s.Offset),
		Kind:       Sine,
		Sine:       s,
	}
}

func (v *VoltageSource) GetType() string { return "V" }

// GetVoltage is the large-signal value at time t.
func (v *VoltageSource) GetVoltage(t float64) float64 {
	switch v.Kind {
	case Pulse:
		return v.pulseVoltage(t)
	case Sine:
		return v.sineVoltage(t)
	default:
		if v.Mode == ModeAC {
			return 0
		}
		return v.Value
	}
}

// ACMagnitude is the small-signal excitation, zero unless AC-tagged.
func (v *VoltageSource) ACMagnitude() float64 {
	if v.Kind == Constant && v.Mode == ModeAC {
		return v.Value
	}
	return 0
}

func (v *VoltageSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx

	// v1 - v2 = V
	stampIncidence(matrix, n1, n2, bIdx, status.isComplex())

	switch status.Mode {
	case ACAnalysis:
		matrix.AddComplexRHS(bIdx, v.ACMagnitude(), 0)
	default:
		voltage := v.GetVoltage(status.Time)
		if status.Sweep != nil && status.Sweep.Source == v.Name {
			voltage = status.Sweep.Value
		}
		matrix.AddRHS(bIdx, voltage)
	}

	return nil
}

func (v *VoltageSource) pulseVoltage(t float64) float64 {
	p := v.Pulse
	if t < p.Delay {
		return p.V1
	}

	t -= p.Delay
	if p.Period > 0 {
		t = math.Mod(t, p.Period)
	}

	if t < p.Rise {
		return p.V1 + (p.V2-p.V1)*t/p.Rise
	}
	if t <= p.Rise+p.Width {
		return p.V2
	}

	fallStart := p.Rise + p.Width
	if t < fallStart+p.Fall {
		return p.V2 - (p.V2-p.V1)*(t-fallStart)/p.Fall
	}

	return p.V1
}

func (v *VoltageSource) sineVoltage(t float64) float64 {
	s := v.Sine
	if t < s.Delay {
		return s.Offset
	}
	t -= s.Delay
	return s.Offset + s.Amplitude*math.Exp(-s.Damping*t)*math.Sin(2*math.Pi*s.Freq*t)
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}
