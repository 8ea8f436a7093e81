package netlist

import (
	"fmt"
	"log/slog"
	"strings"
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	DuplicateNameError
	UnknownReferenceError
	TopologyError
	ConvergenceError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax"
	case DuplicateNameError:
		return "duplicate name"
	case UnknownReferenceError:
		return "unknown reference"
	case TopologyError:
		return "topology"
	case ConvergenceError:
		return "convergence"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem. Line is 0 when the problem is not
// tied to a netlist line.
type Diagnostic struct {
	Line int
	Name string
	Kind ErrorKind
	Msg  string
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("Error: line %d: failed to parse %s, %s", d.Line, d.Name, d.Msg)
	}
	return fmt.Sprintf("Error: %s: %s", d.Name, d.Msg)
}

// Diagnostics collects problems in the order they were found.
type Diagnostics struct {
	items  []Diagnostic
	logger *slog.Logger
}

func NewDiagnostics(logger *slog.Logger) *Diagnostics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Diagnostics{logger: logger}
}

func (d *Diagnostics) Add(line int, name string, kind ErrorKind, msg string) {
	diag := Diagnostic{Line: line, Name: name, Kind: kind, Msg: msg}
	d.items = append(d.items, diag)
	d.logger.Warn("netlist diagnostic",
		slog.Int("line", line),
		slog.String("name", name),
		slog.String("kind", kind.String()),
		slog.String("msg", msg))
}

func (d *Diagnostics) Items() []Diagnostic {
	return append([]Diagnostic(nil), d.items...)
}

func (d *Diagnostics) Len() int {
	return len(d.items)
}

func (d *Diagnostics) Count(kind ErrorKind) int {
	n := 0
	for _, item := range d.items {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

func (d *Diagnostics) Error() string {
	lines := make([]string, len(d.items))
	for i, item := range d.items {
		lines[i] = item.Error()
	}
	return strings.Join(lines, "\n")
}

