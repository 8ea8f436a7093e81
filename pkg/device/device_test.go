package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/mna-spice/internal/consts"
)

type cell struct{ i, j int }

// stampRecorder accumulates stamps so tests can inspect them without a solver.
type stampRecorder struct {
	a   map[cell]complex128
	rhs map[int]complex128
}

func newRecorder() *stampRecorder {
	return &stampRecorder{a: map[cell]complex128{}, rhs: map[int]complex128{}}
}

func (r *stampRecorder) AddElement(i, j int, v float64) { r.a[cell{i, j}] += complex(v, 0) }
func (r *stampRecorder) AddRHS(i int, v float64)        { r.rhs[i] += complex(v, 0) }
func (r *stampRecorder) AddComplexElement(i, j int, re, im float64) {
	r.a[cell{i, j}] += complex(re, im)
}
func (r *stampRecorder) AddComplexRHS(i int, re, im float64) { r.rhs[i] += complex(re, im) }

func (r *stampRecorder) noGroundStamps(t *testing.T) {
	t.Helper()
	for c := range r.a {
		assert.NotZero(t, c.i, "row 0 stamped")
		assert.NotZero(t, c.j, "col 0 stamped")
	}
	for i := range r.rhs {
		assert.NotZero(t, i, "rhs 0 stamped")
	}
}

func TestResistorStamp(t *testing.T) {
	r := NewResistor("r1", []string{"1", "2"}, 1000)
	r.SetNodes([]int{1, 2})

	rec := newRecorder()
	require.NoError(t, r.Stamp(rec, &CircuitStatus{}))

	assert.Equal(t, complex(1e-3, 0), rec.a[cell{1, 1}])
	assert.Equal(t, complex(-1e-3, 0), rec.a[cell{1, 2}])
	assert.Equal(t, complex(-1e-3, 0), rec.a[cell{2, 1}])
	assert.Equal(t, complex(1e-3, 0), rec.a[cell{2, 2}])
}

func TestResistorToGround(t *testing.T) {
	r := NewResistor("r1", []string{"1", "0"}, 500)
	r.SetNodes([]int{1, 0})

	rec := newRecorder()
	require.NoError(t, r.Stamp(rec, &CircuitStatus{Mode: ACAnalysis}))
	rec.noGroundStamps(t)
	assert.Equal(t, complex(2e-3, 0), rec.a[cell{1, 1}])
}

func TestResistorZero(t *testing.T) {
	r := NewResistor("r1", []string{"1", "0"}, 0)
	r.SetNodes([]int{1, 0})
	assert.Error(t, r.Stamp(newRecorder(), &CircuitStatus{}))
}

func TestCapacitorAC(t *testing.T) {
	c := NewCapacitor("c1", []string{"1", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})

	rec := newRecorder()
	require.NoError(t, c.Stamp(rec, &CircuitStatus{Mode: ACAnalysis, Frequency: 1000}))
	assert.InDelta(t, 2*math.Pi*1000*1e-6, imag(rec.a[cell{1, 1}]), 1e-15)
	assert.Zero(t, real(rec.a[cell{1, 1}]))
}

func TestCapacitorBackwardEuler(t *testing.T) {
	c := NewCapacitor("c1", []string{"1", "0"}, 1e-6)
	c.SetNodes([]int{1, 0})

	prev := []float64{0, 2.0}
	rec := newRecorder()
	status := &CircuitStatus{Mode: TransientAnalysis, TimeStep: 1e-3, Order: 2, History: [][]float64{prev}}
	require.NoError(t, c.Stamp(rec, status))

	// Only one history point: order is clamped to backward Euler.
	assert.InDelta(t, 1e-3, real(rec.a[cell{1, 1}]), 1e-15)
	assert.InDelta(t, 2e-3, real(rec.rhs[1]), 1e-15)
}

func TestInductorBranch(t *testing.T) {
	l := NewInductor("l1", []string{"1", "2"}, 1e-3)
	l.SetNodes([]int{1, 2})
	l.SetBranchIndex(3)

	rec := newRecorder()
	require.NoError(t, l.Stamp(rec, &CircuitStatus{}))
	assert.Equal(t, complex(1, 0), rec.a[cell{1, 3}])
	assert.Equal(t, complex(-1, 0), rec.a[cell{2, 3}])
	assert.Equal(t, complex(1, 0), rec.a[cell{3, 1}])
	assert.Equal(t, complex(-1, 0), rec.a[cell{3, 2}])
	assert.Zero(t, rec.a[cell{3, 3}])

	rec = newRecorder()
	require.NoError(t, l.Stamp(rec, &CircuitStatus{Mode: ACAnalysis, Frequency: 1}))
	assert.InDelta(t, -2*math.Pi*1e-3, imag(rec.a[cell{3, 3}]), 1e-15)

	rec = newRecorder()
	status := &CircuitStatus{Mode: TransientAnalysis, TimeStep: 1e-6, Order: 1, History: [][]float64{{0, 0, 0, 0.5}}}
	require.NoError(t, l.Stamp(rec, status))
	assert.InDelta(t, -1e3, real(rec.a[cell{3, 3}]), 1e-9)
	assert.InDelta(t, -500, real(rec.rhs[3]), 1e-9)
}

func TestVoltageSourceLevels(t *testing.T) {
	v := NewVoltageSource("v1", []string{"1", "0"}, ModeDC, 5)
	v.SetNodes([]int{1, 0})
	v.SetBranchIndex(2)

	rec := newRecorder()
	require.NoError(t, v.Stamp(rec, &CircuitStatus{}))
	rec.noGroundStamps(t)
	assert.Equal(t, complex(5, 0), rec.rhs[2])
	assert.Equal(t, complex(1, 0), rec.a[cell{1, 2}])
	assert.Equal(t, complex(1, 0), rec.a[cell{2, 1}])

	rec = newRecorder()
	require.NoError(t, v.Stamp(rec, &CircuitStatus{Mode: ACAnalysis}))
	assert.Zero(t, rec.rhs[2])

	rec = newRecorder()
	require.NoError(t, v.Stamp(rec, &CircuitStatus{Sweep: &SweepOverride{Source: "v1", Value: -3}}))
	assert.Equal(t, complex(-3, 0), rec.rhs[2])

	ac := NewVoltageSource("v2", []string{"1", "0"}, ModeAC, 1)
	assert.Zero(t, ac.GetVoltage(0))
	assert.Equal(t, 1.0, ac.ACMagnitude())
}

func TestPulseWaveform(t *testing.T) {
	v := NewPulseVoltageSource("v1", []string{"1", "0"}, PulseParams{
		V1: 0, V2: 5, Delay: 1, Rise: 1, Fall: 1, Width: 2, Period: 10,
	})

	assert.Equal(t, 0.0, v.GetVoltage(0.5))
	assert.InDelta(t, 2.5, v.GetVoltage(1.5), 1e-12)
	assert.Equal(t, 5.0, v.GetVoltage(3))
	assert.InDelta(t, 2.5, v.GetVoltage(4.5), 1e-12)
	assert.Equal(t, 0.0, v.GetVoltage(6))
	assert.InDelta(t, 2.5, v.GetVoltage(11.5), 1e-12)

	step := NewPulseVoltageSource("v2", []string{"1", "0"}, PulseParams{V1: 0, V2: 1, Width: 1})
	assert.Equal(t, 1.0, step.GetVoltage(0))
}

func TestSineWaveform(t *testing.T) {
	v := NewSineVoltageSource("v1", []string{"1", "0"}, SineParams{Offset: 1, Amplitude: 2, Freq: 1, Delay: 0.5})
	assert.Equal(t, 1.0, v.GetVoltage(0.25))
	assert.InDelta(t, 3.0, v.GetVoltage(0.75), 1e-12)

	damped := NewSineVoltageSource("v2", []string{"1", "0"}, SineParams{Amplitude: 1, Freq: 1, Damping: 1})
	assert.InDelta(t, math.Exp(-0.25), damped.GetVoltage(0.25), 1e-12)
}

func TestCurrentSourceConvention(t *testing.T) {
	i := NewCurrentSource("i1", []string{"0", "1"}, 1e-3, 2e-3, 5e-4)
	i.SetNodes([]int{0, 1})

	rec := newRecorder()
	require.NoError(t, i.Stamp(rec, &CircuitStatus{}))
	rec.noGroundStamps(t)
	assert.Equal(t, complex(1e-3, 0), rec.rhs[1])

	assert.Equal(t, 2e-3, i.Level(ACAnalysis))
	assert.InDelta(t, 1.5e-3, i.Level(TransientAnalysis), 1e-15)
	assert.InDelta(t, 1.5e-3, i.Level(TransientInit), 1e-15)
	assert.Equal(t, 1e-3, i.Level(OperatingPointAnalysis))
}

func TestVCCSStamp(t *testing.T) {
	g := NewVCCS("g1", []string{"1", "0", "2", "3"}, 0.5)
	g.SetNodes([]int{1, 0, 2, 3})

	rec := newRecorder()
	require.NoError(t, g.Stamp(rec, &CircuitStatus{}))
	rec.noGroundStamps(t)
	assert.Equal(t, complex(0.5, 0), rec.a[cell{1, 2}])
	assert.Equal(t, complex(-0.5, 0), rec.a[cell{1, 3}])
	assert.Len(t, rec.a, 2)
}

func TestVCVSStamp(t *testing.T) {
	e := NewVCVS("e1", []string{"2", "0", "1", "0"}, 10)
	e.SetNodes([]int{2, 0, 1, 0})
	e.SetBranchIndex(3)

	rec := newRecorder()
	require.NoError(t, e.Stamp(rec, &CircuitStatus{}))
	rec.noGroundStamps(t)
	assert.Equal(t, complex(1, 0), rec.a[cell{3, 2}])
	assert.Equal(t, complex(-10, 0), rec.a[cell{3, 1}])
	assert.Equal(t, complex(1, 0), rec.a[cell{2, 3}])
}

func TestDiodeEvaluate(t *testing.T) {
	d := NewDiode("d1", []string{"1", "0"}, DefaultModels()["d"])
	d.SetNodes([]int{1, 0})

	id, gd := d.Evaluate(0, 0)
	assert.Zero(t, id)
	assert.Greater(t, gd, 0.0)

	// Continuous across the linear continuation threshold.
	vt := d.Model.N * consts.ThermalVoltage(0)
	lo, _ := d.Evaluate(maxExponent*vt-1e-9, 0)
	hi, _ := d.Evaluate(maxExponent*vt+1e-9, 0)
	assert.InEpsilon(t, lo, hi, 1e-6)

	big, _ := d.Evaluate(1e3, 0)
	assert.False(t, math.IsInf(big, 0))
}

func TestDiodeCompanion(t *testing.T) {
	d := NewDiode("d1", []string{"1", "0"}, DefaultModels()["d"])
	d.SetNodes([]int{1, 0})

	guess := []float64{0, 0.6}
	rec := newRecorder()
	require.NoError(t, d.Stamp(rec, &CircuitStatus{Guess: guess}))

	vd, id, gd := d.OperatingPoint(guess, 0)
	assert.Equal(t, 0.6, vd)
	assert.InDelta(t, gd, real(rec.a[cell{1, 1}]), 1e-9)
	assert.InDelta(t, -(id - gd*vd), real(rec.rhs[1]), 1e-15)
}

func TestModelTable(t *testing.T) {
	m := DefaultModels()
	_, ok := m.Lookup("1N4148")
	assert.True(t, ok)

	m.Add(DiodeModel{Name: "Custom", Is: 1e-12})
	c, ok := m.Lookup("custom")
	require.True(t, ok)
	assert.Equal(t, 1.0, c.N)
	assert.Equal(t, 1.11, c.Eg)
	assert.Contains(t, m.Names(), "custom")
}
