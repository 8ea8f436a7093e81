package circuit

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Ground is the reference node. It is never an unknown.
const Ground = "0"

var ErrNotFound = errors.New("not found")

// CanonicalNode maps the gnd alias onto the reference node.
func CanonicalNode(name string) string {
	if name == "gnd" {
		return Ground
	}
	return name
}

func IsGround(name string) bool {
	return CanonicalNode(name) == Ground
}

// Index maps node names and branch owners to zero-based positions in the
// unknown vector: sorted node voltages first, then branch currents in
// declaration order.
type Index struct {
	nodes     []string
	branches  []string
	nodePos   map[string]int
	branchPos map[string]int
}

func newIndex(nodeNames, branchNames []string) *Index {
	set := make(map[string]struct{}, len(nodeNames))
	for _, n := range nodeNames {
		n = CanonicalNode(n)
		if n == Ground {
			continue
		}
		set[n] = struct{}{}
	}

	nodes := make([]string, 0, len(set))
	for n := range set {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	x := &Index{
		nodes:     nodes,
		branches:  append([]string(nil), branchNames...),
		nodePos:   make(map[string]int, len(nodes)),
		branchPos: make(map[string]int, len(branchNames)),
	}
	for i, n := range nodes {
		x.nodePos[n] = i
	}
	for i, b := range x.branches {
		x.branchPos[b] = len(nodes) + i
	}

	return x
}

// Node returns the position of a node voltage. Ground has none.
func (x *Index) Node(name string) (int, error) {
	pos, ok := x.nodePos[CanonicalNode(name)]
	if !ok {
		return -1, errors.Wrapf(ErrNotFound, "node %q", name)
	}
	return pos, nil
}

// Branch returns the position of the branch current owned by a device.
func (x *Index) Branch(name string) (int, error) {
	pos, ok := x.branchPos[name]
	if !ok {
		return -1, errors.Wrapf(ErrNotFound, "branch %q", name)
	}
	return pos, nil
}

func (x *Index) NumNodes() int    { return len(x.nodes) }
func (x *Index) NumBranches() int { return len(x.branches) }
func (x *Index) Size() int        { return len(x.nodes) + len(x.branches) }

func (x *Index) NodeNames() []string {
	return append([]string(nil), x.nodes...)
}

// Labels names every unknown, V(node) then I(device).
func (x *Index) Labels() []string {
	labels := make([]string, 0, x.Size())
	for _, n := range x.nodes {
		labels = append(labels, fmt.Sprintf("V(%s)", n))
	}
	for _, b := range x.branches {
		labels = append(labels, fmt.Sprintf("I(%s)", b))
	}
	return labels
}

// Row converts a node name to its 1-based matrix row, 0 for ground.
func (x *Index) Row(name string) (int, error) {
	if IsGround(name) {
		return 0, nil
	}
	pos, err := x.Node(name)
	if err != nil {
		return 0, err
	}
	return pos + 1, nil
}
