package matrix

// DeviceMatrix is what a device stamps into. Indices are 1-based; callers
// skip ground (0) themselves.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	AddComplexElement(i, j int, real, imag float64)
	AddComplexRHS(i int, real, imag float64)
}
