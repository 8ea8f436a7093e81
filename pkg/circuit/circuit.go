package circuit

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/device"
	"github.com/edp1096/mna-spice/pkg/matrix"
)

var (
	ErrDuplicate = errors.New("duplicate device name")
	ErrEmpty     = errors.New("circuit has no unknowns")
)

// Builder registers devices in declaration order. Names are unique per
// device category.
type Builder struct {
	devices []device.Device
	names   map[string]map[string]device.Device
	ground  bool
}

func NewBuilder() *Builder {
	return &Builder{names: make(map[string]map[string]device.Device)}
}

func (b *Builder) Add(dev device.Device) error {
	category := dev.GetType()
	byName, ok := b.names[category]
	if !ok {
		byName = make(map[string]device.Device)
		b.names[category] = byName
	}
	if _, exists := byName[dev.GetName()]; exists {
		return errors.Wrapf(ErrDuplicate, "%s", dev.GetName())
	}

	nodeNames := dev.GetNodeNames()
	for i, n := range nodeNames {
		nodeNames[i] = CanonicalNode(n)
		if nodeNames[i] == Ground {
			b.ground = true
		}
	}

	byName[dev.GetName()] = dev
	b.devices = append(b.devices, dev)
	return nil
}

// Lookup finds a device by category ("V", "R", ...) and name.
func (b *Builder) Lookup(category, name string) (device.Device, bool) {
	dev, ok := b.names[category][name]
	return dev, ok
}

func (b *Builder) VoltageSource(name string) (*device.VoltageSource, bool) {
	dev, ok := b.Lookup("V", name)
	if !ok {
		return nil, false
	}
	v, ok := dev.(*device.VoltageSource)
	return v, ok
}

// HasGround reports whether any device touches the reference node.
func (b *Builder) HasGround() bool {
	return b.ground
}

func (b *Builder) Len() int {
	return len(b.devices)
}

// Build computes the index and resolves every terminal to a matrix row.
// Calling it again yields the same index.
func (b *Builder) Build() (*Circuit, error) {
	var nodeNames, branchNames []string
	for _, dev := range b.devices {
		nodeNames = append(nodeNames, dev.GetNodeNames()...)
		if _, ok := dev.(device.BranchDevice); ok {
			branchNames = append(branchNames, dev.GetName())
		}
	}

	index := newIndex(nodeNames, branchNames)
	if index.Size() == 0 {
		return nil, ErrEmpty
	}

	c := &Circuit{
		index:   index,
		devices: append([]device.Device(nil), b.devices...),
	}

	for _, dev := range c.devices {
		names := dev.GetNodeNames()
		rows := make([]int, len(names))
		for i, n := range names {
			row, err := index.Row(n)
			if err != nil {
				return nil, errors.Wrapf(err, "device %s", dev.GetName())
			}
			rows[i] = row
		}
		dev.SetNodes(rows)

		if bd, ok := dev.(device.BranchDevice); ok {
			pos, _ := index.Branch(dev.GetName())
			bd.SetBranchIndex(pos + 1)
		}
		if nl, ok := dev.(device.NonLinear); ok {
			c.nonlinear = append(c.nonlinear, nl)
		}
	}

	return c, nil
}

// Circuit is the frozen device list and its index. Nothing in it changes
// during analysis.
type Circuit struct {
	index     *Index
	devices   []device.Device
	nonlinear []device.NonLinear
}

func (c *Circuit) Index() *Index {
	return c.index
}

func (c *Circuit) Size() int {
	return c.index.Size()
}

func (c *Circuit) GetDevices() []device.Device {
	return c.devices
}

func (c *Circuit) NonLinearDevices() []device.NonLinear {
	return c.nonlinear
}

func (c *Circuit) IsNonLinear() bool {
	return len(c.nonlinear) > 0
}

// Stamp loads every device into m for one assembly pass.
func (c *Circuit) Stamp(m matrix.DeviceMatrix, status *device.CircuitStatus) error {
	for _, dev := range c.devices {
		if err := dev.Stamp(m, status); err != nil {
			return errors.Wrapf(err, "stamping device %s", dev.GetName())
		}
	}
	return nil
}

// Solution labels a zero-based solution vector. Resistor currents are
// derived from their terminal voltages.
func (c *Circuit) Solution(x []float64) map[string]float64 {
	solution := make(map[string]float64)
	labels := c.index.Labels()
	for i, v := range x {
		if i < len(labels) {
			solution[labels[i]] = v
		}
	}

	// V = IR -> I = V/R
	at := func(row int) float64 {
		if row <= 0 || row > len(x) {
			return 0
		}
		return x[row-1]
	}
	for _, dev := range c.devices {
		r, ok := dev.(*device.Resistor)
		if !ok || r.Value == 0 {
			continue
		}
		nodes := r.GetNodes()
		solution[fmt.Sprintf("I(%s)", r.GetName())] = (at(nodes[0]) - at(nodes[1])) / r.Value
	}

	return solution
}
