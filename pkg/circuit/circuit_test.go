package circuit

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
)

func dividerBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Add(device.NewVoltageSource("v1", []string{"1", "0"}, device.ModeDC, 10)))
	require.NoError(t, b.Add(device.NewResistor("r1", []string{"1", "2"}, 1000)))
	require.NoError(t, b.Add(device.NewResistor("r2", []string{"2", "gnd"}, 1000)))
	return b
}

func TestIndexOrdering(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(device.NewResistor("r1", []string{"3", "1"}, 1)))
	require.NoError(t, b.Add(device.NewResistor("r2", []string{"2", "0"}, 1)))
	require.NoError(t, b.Add(device.NewInductor("l1", []string{"1", "2"}, 1)))
	require.NoError(t, b.Add(device.NewVoltageSource("v1", []string{"3", "0"}, device.ModeDC, 1)))

	ckt, err := b.Build()
	require.NoError(t, err)

	x := ckt.Index()
	assert.Equal(t, []string{"1", "2", "3"}, x.NodeNames())
	for want, name := range []string{"1", "2", "3"} {
		got, err := x.Node(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Branches follow nodes in declaration order.
	l1, err := x.Branch("l1")
	require.NoError(t, err)
	v1, err := x.Branch("v1")
	require.NoError(t, err)
	assert.Equal(t, 3, l1)
	assert.Equal(t, 4, v1)
	assert.Equal(t, 5, x.Size())
	assert.Equal(t, []string{"V(1)", "V(2)", "V(3)", "I(l1)", "I(v1)"}, x.Labels())

	_, err = x.Node("0")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = x.Branch("r1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBuildIdempotent(t *testing.T) {
	b := dividerBuilder(t)
	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, first.Index().Labels(), second.Index().Labels())
	for i, dev := range first.GetDevices() {
		assert.Equal(t, dev.GetNodes(), second.GetDevices()[i].GetNodes())
	}
}

func TestDuplicateRejected(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(device.NewResistor("r1", []string{"1", "0"}, 1)))
	err := b.Add(device.NewResistor("r1", []string{"2", "0"}, 2))
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, 1, b.Len())

	// Another category may reuse nothing but its own namespace.
	assert.NoError(t, b.Add(device.NewCapacitor("c1", []string{"1", "0"}, 1)))
}

func TestGroundAlias(t *testing.T) {
	withAlias := NewBuilder()
	require.NoError(t, withAlias.Add(device.NewResistor("r1", []string{"1", "gnd"}, 1)))
	plain := NewBuilder()
	require.NoError(t, plain.Add(device.NewResistor("r1", []string{"1", "0"}, 1)))

	assert.True(t, withAlias.HasGround())
	a, err := withAlias.Build()
	require.NoError(t, err)
	p, err := plain.Build()
	require.NoError(t, err)
	assert.Equal(t, p.Index().Labels(), a.Index().Labels())
	assert.Equal(t, p.GetDevices()[0].GetNodes(), a.GetDevices()[0].GetNodes())
}

func TestBuildEmpty(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(device.NewResistor("r1", []string{"0", "gnd"}, 1)))
	_, err := b.Build()
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestDividerSolve(t *testing.T) {
	ckt, err := dividerBuilder(t).Build()
	require.NoError(t, err)

	m, err := matrix.NewMatrix(ckt.Size(), false)
	require.NoError(t, err)
	defer m.Destroy()

	require.NoError(t, ckt.Stamp(m, &device.CircuitStatus{}))
	require.NoError(t, m.Solve())

	sol := ckt.Solution(m.Vector())
	assert.InDelta(t, 10.0, sol["V(1)"], 1e-9)
	assert.InDelta(t, 5.0, sol["V(2)"], 1e-9)
	assert.InDelta(t, -5e-3, sol["I(v1)"], 1e-12)
	assert.InDelta(t, 5e-3, sol["I(r1)"], 1e-12)
}

func TestIndexProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("node positions are dense, sorted and stable", prop.ForAll(
		func(ids []int) bool {
			b := NewBuilder()
			for i, id := range ids {
				name := fmt.Sprintf("r%d", i)
				if err := b.Add(device.NewResistor(name, []string{fmt.Sprint(id), "0"}, 1)); err != nil {
					return false
				}
			}
			first, err := b.Build()
			if err != nil {
				return false
			}
			second, err := b.Build()
			if err != nil {
				return false
			}

			names := first.Index().NodeNames()
			for i, n := range names {
				pos, err := first.Index().Node(n)
				if err != nil || pos != i {
					return false
				}
				if i > 0 && names[i-1] >= n {
					return false
				}
			}
			return reflect.DeepEqual(names, second.Index().NodeNames())
		},
		gen.SliceOfN(8, gen.IntRange(1, 20)),
	))

	properties.TestingRun(t)
}
