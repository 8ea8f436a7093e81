package device

import (
	"sort"
	"strings"
)

// DiodeModel holds the exponential junction parameters.
type DiodeModel struct {
	Name string
	Is   float64 // Saturation current
	N    float64 // Emission coefficient
	Eg   float64 // Energy gap (eV)
	Xti  float64 // Saturation current temperature exponent
}

// ModelTable maps lower-case model names to diode parameters.
type ModelTable map[string]DiodeModel

func DefaultModels() ModelTable {
	t := ModelTable{}
	for _, m := range []DiodeModel{
		{Name: "d", Is: 1e-14, N: 1},
		{Name: "default", Is: 1e-14, N: 1},
		{Name: "1n4148", Is: 2.52e-9, N: 1.752},
		{Name: "1n914", Is: 2.52e-9, N: 1.752},
		{Name: "1n4001", Is: 14.11e-9, N: 1.984},
		{Name: "1n4007", Is: 7.02767e-9, N: 1.80803},
	} {
		t.Add(m)
	}
	return t
}

// Add inserts or replaces a model. Missing Eg/Xti take silicon defaults.
func (t ModelTable) Add(m DiodeModel) {
	m.Name = strings.ToLower(m.Name)
	if m.N == 0 {
		m.N = 1
	}
	if m.Eg == 0 {
		m.Eg = 1.11
	}
	if m.Xti == 0 {
		m.Xti = 3
	}
	t[m.Name] = m
}

func (t ModelTable) Lookup(name string) (DiodeModel, bool) {
	m, ok := t[strings.ToLower(name)]
	return m, ok
}

func (t ModelTable) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
