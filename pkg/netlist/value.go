package netlist

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)(e[+-]?\d+)?`)

// Scale suffixes, meg ahead of m and g so it is never read as milli or giga.
var scaleSuffixes = []struct {
	suffix string
	scale  float64
}{
	{"meg", 1e6},
	{"f", 1e-15},
	{"p", 1e-12},
	{"n", 1e-9},
	{"u", 1e-6},
	{"m", 1e-3},
	{"k", 1e3},
	{"g", 1e9},
	{"t", 1e12},
}

// ParseValue reads a SPICE number: a leading numeric prefix, then either a
// trailing "db" (20*log10) or a trailing scale suffix. Only the end of the
// token is matched, so "10uf" is femto and "3mv" is unscaled. ok is false
// when the token has no numeric prefix.
func ParseValue(tok string) (value float64, ok bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))

	num := leadingNumber.FindString(tok)
	if num == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}

	rest := tok[len(num):]
	if strings.HasSuffix(rest, "db") {
		return 20 * math.Log10(value), true
	}
	for _, s := range scaleSuffixes {
		if strings.HasSuffix(rest, s.suffix) {
			return value * s.scale, true
		}
	}

	return value, true
}

// Value is ParseValue for required fields.
func Value(tok string) (float64, error) {
	v, ok := ParseValue(tok)
	if !ok {
		return 0, errors.Errorf("invalid value %q", tok)
	}
	return v, nil
}
