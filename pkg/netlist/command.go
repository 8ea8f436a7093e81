package netlist

import (
	"math"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
)

var printToken = regexp.MustCompile(`^(v|vr|vi|vm|vp|vdb|i)\(([^()]+)\)$`)

// CommandLine parses a dot command.
func (p *Parser) CommandLine(fields []string, lineNum int) {
	command := fields[0]

	var err error
	switch command {
	case ".op":
		err = p.parseOP(fields)
	case ".end":
		err = p.parseEnd(fields, lineNum)
	case ".dc":
		err = p.parseDC(fields, lineNum)
	case ".ac":
		err = p.parseAC(fields)
	case ".tran":
		err = p.parseTran(fields)
	case ".print", ".plot":
		err = p.parsePrint(fields)
	case ".model":
		err = p.parseModel(fields)
	default:
		err = errors.New("unknown command")
	}

	if err != nil {
		p.diag.Add(lineNum, command, SyntaxError, err.Error())
	}
}

func (p *Parser) parseOP(fields []string) error {
	if len(fields) != 1 {
		return errors.New("takes no arguments")
	}
	p.directive = Directive{Kind: KindDC, OP: true}
	return nil
}

// parseEnd freezes the circuit. Topology problems are reported here, not as
// syntax errors.
func (p *Parser) parseEnd(fields []string, lineNum int) error {
	if len(fields) != 1 {
		return errors.New("takes no arguments")
	}
	p.ended = true

	if !p.builder.HasGround() {
		p.diag.Add(lineNum, ".end", TopologyError, ErrNoGround.Error())
	}

	ckt, err := p.builder.Build()
	if err != nil {
		p.diag.Add(lineNum, ".end", TopologyError, err.Error())
		return nil
	}
	p.circuit = ckt

	p.logger.Debug("circuit frozen",
		"devices", p.builder.Len(),
		"nodes", ckt.Index().NumNodes(),
		"branches", ckt.Index().NumBranches())
	return nil
}

func (p *Parser) parseDC(fields []string, lineNum int) error {
	if len(fields) != 5 {
		return errors.Errorf("expected 5 fields, got %d", len(fields))
	}
	if _, ok := p.builder.VoltageSource(fields[1]); !ok {
		p.diag.Add(lineNum, ".dc", UnknownReferenceError, "target voltage source not exists")
		return nil
	}

	values, err := parseValues(fields[2:5])
	if err != nil {
		return err
	}
	sweep := DCSweep{Source: fields[1], Start: values[0], End: values[1], Step: values[2]}
	if sweep.Step == 0 {
		return errors.New("zero step")
	}
	if (sweep.End-sweep.Start)*sweep.Step < 0 {
		return errors.New("step points away from end")
	}

	p.directive = Directive{Kind: KindDC, DC: &sweep}
	return nil
}

func (p *Parser) parseAC(fields []string) error {
	if len(fields) != 5 {
		return errors.Errorf("expected 5 fields, got %d", len(fields))
	}
	law, ok := parseSweepLaw(fields[1])
	if !ok {
		return errors.Errorf("invalid sweep type %q", fields[1])
	}

	values, err := parseValues(fields[2:5])
	if err != nil {
		return err
	}
	points := values[0]
	if points < 1 || points != math.Trunc(points) {
		return errors.Errorf("invalid points number %q", fields[2])
	}

	sweep := ACSweep{Law: law, Points: int(points), FStart: values[1], FEnd: values[2]}
	if law != SweepLin && sweep.FStart <= 0 {
		return errors.New("start frequency must be positive")
	}
	if sweep.FStart < 0 || sweep.FEnd < sweep.FStart {
		return errors.New("invalid frequency range")
	}

	p.directive = Directive{Kind: KindAC, AC: &sweep}
	return nil
}

// parseTran reads .tran tstep tstop [tstart] [uic].
func (p *Parser) parseTran(fields []string) error {
	args := fields[1:]
	uic := false
	if len(args) > 0 && args[len(args)-1] == "uic" {
		uic = true
		args = args[:len(args)-1]
	}
	if len(args) != 2 && len(args) != 3 {
		return errors.Errorf("expected tstep tstop [tstart], got %d values", len(args))
	}

	values, err := parseValues(args)
	if err != nil {
		return err
	}
	ts := TranSpec{Step: values[0], Stop: values[1], UIC: uic}
	if len(values) == 3 {
		ts.Start = values[2]
	}
	if ts.Step <= 0 {
		return errors.New("step must be positive")
	}
	if ts.Start < 0 || ts.Stop <= ts.Start {
		return errors.New("stop must be after start")
	}

	p.directive = Directive{Kind: KindTran, Tran: &ts}
	return nil
}

func (p *Parser) parsePrint(fields []string) error {
	if len(fields) < 2 {
		return errors.New("need parameters")
	}
	if p.directive.Kind == KindNone {
		return errors.New("analysis type is not determined")
	}

	tokens := fields[1:]
	switch tokens[0] {
	case "dc", "ac", "tran":
		if tokens[0] != p.directive.Kind.String() {
			return errors.New("invalid analysis type")
		}
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return errors.New("need parameters")
	}

	requests := make([]PrintRequest, 0, len(tokens))
	for _, tok := range tokens {
		m := printToken.FindStringSubmatch(tok)
		if m == nil {
			return errors.Errorf("invalid output variable %q", tok)
		}

		req := PrintRequest{
			Kind:   p.directive.Kind,
			Target: circuit.CanonicalNode(strings.TrimSpace(m[2])),
			Plot:   fields[0] == ".plot",
		}
		switch m[1] {
		case "i":
			req.Var = VarCurrent
			req.Target = strings.TrimSpace(m[2])
		case "vr":
			req.Transform = TransformReal
		case "vi":
			req.Transform = TransformImag
		case "vp":
			req.Transform = TransformPhase
		case "vdb":
			req.Transform = TransformDB
		}
		requests = append(requests, req)
	}

	p.prints = append(p.prints, requests...)
	return nil
}

// parseModel reads .model <name> d [is=<v>] [n=<v>] into the model table.
func (p *Parser) parseModel(fields []string) error {
	params := splitParams(fields[1:])
	if len(params) < 2 {
		return errors.New("expected name and type")
	}
	if params[1] != "d" {
		return errors.Errorf("unsupported model type %q", params[1])
	}

	model := device.DiodeModel{Name: params[0], Is: 1e-14, N: 1}
	for _, kv := range params[2:] {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return errors.Errorf("invalid parameter %q", kv)
		}
		v, err := Value(raw)
		if err != nil {
			return err
		}
		switch key {
		case "is":
			model.Is = v
		case "n":
			model.N = v
		case "eg":
			model.Eg = v
		case "xti":
			model.Xti = v
		default:
			return errors.Errorf("unknown parameter %q", key)
		}
	}

	p.models.Add(model)
	return nil
}
