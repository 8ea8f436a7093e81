package netlist

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/edp1096/mna-spice/internal/logging"
	"github.com/edp1096/mna-spice/pkg/circuit"
	"github.com/edp1096/mna-spice/pkg/device"
)

var (
	ErrNotEnded = errors.New("netlist has no .end")
	ErrNoGround = errors.New("ground node 0 is not referenced")
)

// Netlist is a fully parsed and frozen input deck.
type Netlist struct {
	Circuit   *circuit.Circuit
	Directive Directive
	Prints    []PrintRequest
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithModels replaces the built-in diode model table.
func WithModels(models device.ModelTable) Option {
	return func(p *Parser) {
		p.models = device.ModelTable{}
		for _, m := range models {
			p.models.Add(m)
		}
	}
}

// Parser consumes a netlist line by line. Problems are collected in its
// Diagnostics and never stop parsing.
type Parser struct {
	builder   *circuit.Builder
	models    device.ModelTable
	diag      *Diagnostics
	logger    *slog.Logger
	directive Directive
	prints    []PrintRequest
	ended     bool
	circuit   *circuit.Circuit
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		builder: circuit.NewBuilder(),
		models:  device.DefaultModels(),
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.diag = NewDiagnostics(p.logger)
	return p
}

func (p *Parser) Diagnostics() *Diagnostics {
	return p.diag
}

func (p *Parser) Directive() Directive {
	return p.directive
}

func (p *Parser) Prints() []PrintRequest {
	return append([]PrintRequest(nil), p.prints...)
}

// ParseLine handles one physical line. lineNum is only used for diagnostics.
func (p *Parser) ParseLine(line string, lineNum int) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" || strings.HasPrefix(line, "*") {
		return
	}

	fields := strings.Fields(line)
	if p.ended {
		p.diag.Add(lineNum, fields[0], SyntaxError, "statement after .end")
		return
	}

	switch {
	case strings.HasPrefix(fields[0], "."):
		p.CommandLine(fields, lineNum)
	case strings.ContainsRune("virclged", rune(fields[0][0])):
		p.DeviceLine(fields, lineNum)
	default:
		p.diag.Add(lineNum, fields[0], SyntaxError, "unknown statement")
	}
}

// DeviceLine parses a device statement; the first letter selects the kind.
func (p *Parser) DeviceLine(fields []string, lineNum int) {
	name := fields[0]

	var dev device.Device
	var err error
	switch name[0] {
	case 'r', 'c', 'l':
		dev, err = p.parsePassive(fields)
	case 'g', 'e':
		dev, err = p.parseControlled(fields)
	case 'd':
		dev, err = p.parseDiode(fields, lineNum)
		if dev == nil && err == nil {
			return
		}
	case 'v':
		dev, err = parseVoltageSource(fields)
	case 'i':
		dev, err = parseCurrentSource(fields)
	default:
		err = errors.New("unknown device")
	}
	if err != nil {
		p.diag.Add(lineNum, name, SyntaxError, err.Error())
		return
	}

	if err := p.builder.Add(dev); err != nil {
		p.diag.Add(lineNum, name, DuplicateNameError, "which already exists")
		return
	}

	p.logger.Debug("parsed device",
		slog.String("name", name),
		slog.String("type", dev.GetType()),
		slog.Any("nodes", dev.GetNodeNames()))
}

func nodeNames(fields ...string) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = circuit.CanonicalNode(f)
	}
	return names
}

func (p *Parser) parsePassive(fields []string) (device.Device, error) {
	if len(fields) != 4 {
		return nil, errors.Errorf("expected 4 fields, got %d", len(fields))
	}
	value, err := Value(fields[3])
	if err != nil {
		return nil, err
	}

	nodes := nodeNames(fields[1], fields[2])
	switch fields[0][0] {
	case 'r':
		if value == 0 {
			return nil, errors.New("zero resistance")
		}
		return device.NewResistor(fields[0], nodes, value), nil
	case 'c':
		return device.NewCapacitor(fields[0], nodes, value), nil
	default:
		return device.NewInductor(fields[0], nodes, value), nil
	}
}

func (p *Parser) parseControlled(fields []string) (device.Device, error) {
	if len(fields) != 6 {
		return nil, errors.Errorf("expected 6 fields, got %d", len(fields))
	}
	gain, err := Value(fields[5])
	if err != nil {
		return nil, err
	}

	nodes := nodeNames(fields[1:5]...)
	if fields[0][0] == 'g' {
		return device.NewVCCS(fields[0], nodes, gain), nil
	}
	return device.NewVCVS(fields[0], nodes, gain), nil
}

// parseDiode reports an unknown model itself and returns (nil, nil).
func (p *Parser) parseDiode(fields []string, lineNum int) (device.Device, error) {
	if len(fields) != 4 {
		return nil, errors.New("parameter error")
	}
	model, ok := p.models.Lookup(fields[3])
	if !ok {
		p.diag.Add(lineNum, fields[0], UnknownReferenceError,
			"unknown model "+fields[3]+" (known: "+strings.Join(p.models.Names(), ", ")+")")
		return nil, nil
	}
	return device.NewDiode(fields[0], nodeNames(fields[1], fields[2]), model), nil
}

// splitParams drops parentheses and commas from a waveform clause.
func splitParams(fields []string) []string {
	joined := strings.Join(fields, " ")
	joined = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(joined)
	return strings.Fields(joined)
}

func parseValues(tokens []string) ([]float64, error) {
	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := Value(tok)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseVoltageSource(fields []string) (device.Device, error) {
	name := fields[0]
	if len(fields) < 4 {
		return nil, errors.Errorf("expected at least 4 fields, got %d", len(fields))
	}
	nodes := nodeNames(fields[1], fields[2])

	// V1 1 0 [tran] sin (0 1 1k 0 0), also written compactly as sin(0,1,1k)
	params := splitParams(fields[3:])

	switch len(params) {
	case 0:
		return nil, errors.New("missing value")

	case 1:
		value, err := Value(params[0])
		if err != nil {
			return nil, err
		}
		return device.NewVoltageSource(name, nodes, device.ModeDC, value), nil

	case 2:
		var mode device.SourceMode
		switch params[0] {
		case "dc":
			mode = device.ModeDC
		case "ac":
			mode = device.ModeAC
		default:
			return nil, errors.Errorf("unknown source mode %q", params[0])
		}
		value, err := Value(params[1])
		if err != nil {
			return nil, err
		}
		return device.NewVoltageSource(name, nodes, mode, value), nil
	}

	if params[0] == "tran" {
		params = params[1:]
	}
	if len(params) < 2 {
		return nil, errors.New("missing waveform")
	}

	values, err := parseValues(params[1:])
	if err != nil {
		return nil, err
	}

	switch params[0] {
	case "pulse":
		if len(values) != 7 {
			return nil, errors.Errorf("pulse needs 7 parameters, got %d", len(values))
		}
		return device.NewPulseVoltageSource(name, nodes, device.PulseParams{
			V1: values[0], V2: values[1], Delay: values[2],
			Rise: values[3], Fall: values[4], Width: values[5], Period: values[6],
		}), nil

	case "sin":
		if len(values) < 3 || len(values) > 5 {
			return nil, errors.Errorf("sin needs 3 to 5 parameters, got %d", len(values))
		}
		padded := make([]float64, 5)
		copy(padded, values)
		return device.NewSineVoltageSource(name, nodes, device.SineParams{
			Offset: padded[0], Amplitude: padded[1], Freq: padded[2],
			Delay: padded[3], Damping: padded[4],
		}), nil
	}

	return nil, errors.Errorf("unknown waveform %q", params[0])
}

// parseCurrentSource reads I n1 n2 [dc] [ac] [[tran] const(x)]. Bare numbers
// fill the DC level first, then the AC level.
func parseCurrentSource(fields []string) (device.Device, error) {
	name := fields[0]
	if len(fields) < 4 {
		return nil, errors.Errorf("expected at least 4 fields, got %d", len(fields))
	}

	var levels [2]float64 // dc, ac
	bare := 0
	tranConst := 0.0

	rest := fields[3:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case tok == "dc" || tok == "ac":
			if i+1 >= len(rest) {
				return nil, errors.Errorf("missing value after %s", tok)
			}
			v, err := Value(rest[i+1])
			if err != nil {
				return nil, err
			}
			if tok == "dc" {
				levels[0] = v
				bare = max(bare, 1)
			} else {
				levels[1] = v
				bare = 2
			}
			i++

		case tok == "tran":
			if i+1 >= len(rest) || !strings.HasPrefix(rest[i+1], "const") {
				return nil, errors.New("tran must be followed by const")
			}

		case strings.HasPrefix(tok, "const"):
			arg := strings.Trim(strings.TrimPrefix(tok, "const"), "()")
			if arg == "" {
				if i+1 >= len(rest) {
					return nil, errors.New("missing const value")
				}
				i++
				arg = strings.Trim(rest[i], "()")
			}
			v, err := Value(arg)
			if err != nil {
				return nil, err
			}
			tranConst = v

		default:
			v, ok := ParseValue(tok)
			if !ok {
				return nil, errors.Errorf("unexpected token %q", tok)
			}
			if bare >= len(levels) {
				return nil, errors.Errorf("too many values at %q", tok)
			}
			levels[bare] = v
			bare++
		}
	}

	return device.NewCurrentSource(name, nodeNames(fields[1], fields[2]), levels[0], levels[1], tranConst), nil
}

// FinalCheck is true once .end has been seen and the circuit is grounded.
func (p *Parser) FinalCheck() bool {
	return p.ended && p.circuit != nil && p.builder.HasGround()
}

// Netlist returns the frozen netlist after a successful FinalCheck.
func (p *Parser) Netlist() (*Netlist, error) {
	if !p.ended {
		return nil, ErrNotEnded
	}
	if !p.builder.HasGround() {
		return nil, ErrNoGround
	}
	if p.circuit == nil {
		return nil, errors.New("circuit was not built")
	}
	return &Netlist{
		Circuit:   p.circuit,
		Directive: p.directive,
		Prints:    p.Prints(),
	}, nil
}

// Parse reads a whole netlist. Lines starting with "+" continue the previous
// statement. The returned Diagnostics are never nil.
func Parse(r io.Reader, opts ...Option) (*Netlist, *Diagnostics, error) {
	p := NewParser(opts...)

	scanner := bufio.NewScanner(r)
	var pending string
	pendingLine := 0
	lineNum := 0

	flush := func() {
		if pending != "" {
			p.ParseLine(pending, pendingLine)
			pending = ""
		}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "+") {
			pending += " " + strings.TrimSpace(line[1:])
			continue
		}
		flush()
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		pending, pendingLine = line, lineNum
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, p.diag, errors.Wrap(err, "reading netlist")
	}

	nl, err := p.Netlist()
	if err != nil {
		return nil, p.diag, err
	}
	return nl, p.diag, nil
}
