package util

// Gear (BDF) formulas: x'(n) = (x(n) - sum a_i*x(n-i)) / (beta*dt).
type gearFormula struct {
	a    []float64
	beta float64
}

var gearFormulas = [...]gearFormula{
	{[]float64{1.0}, 1.0},                        // backward Euler
	{[]float64{4.0 / 3.0, -1.0 / 3.0}, 2.0 / 3.0}, // Gear-2
}

// MaxOrder is the highest integration order available to companion models.
const MaxOrder = len(gearFormulas)

// GetBDFcoeffs returns c such that x'(n) = c[0]*x(n) + c[1]*x(n-1) + ... .
// Out-of-range orders fall back to backward Euler.
func GetBDFcoeffs(order int, dt float64) []float64 {
	if order < 1 || order > MaxOrder {
		order = 1
	}

	f := gearFormulas[order-1]
	scale := 1.0 / (f.beta * dt)

	coeffs := make([]float64, order+1)
	coeffs[0] = scale
	for i, a := range f.a {
		coeffs[i+1] = -a * scale
	}

	return coeffs
}
