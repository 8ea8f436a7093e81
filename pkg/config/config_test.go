package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/mna-spice/pkg/analysis"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts := cfg.AnalysisOptions(nil)
	def := analysis.DefaultOptions()
	assert.Equal(t, def.MaxIter, opts.MaxIter)
	assert.Equal(t, def.AbsTol, opts.AbsTol)
	assert.Equal(t, def.RelTol, opts.RelTol)
	assert.Equal(t, def.Order, opts.Order)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	data := []byte(`
log:
  level: debug
  format: json
solver:
  max_iterations: 50
  reltol: 1e-4
  integration_order: 1
diode_models:
  - name: LED
    is: 1e-20
    n: 2
output:
  plot_format: svg
`)
	path := filepath.Join(t.TempDir(), "spice.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Solver.MaxIterations)
	assert.Equal(t, 1e-4, cfg.Solver.RelTol)
	assert.Equal(t, 1, cfg.Solver.IntegrationOrder)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1e-12, cfg.Solver.AbsTol)
	assert.Equal(t, "svg", cfg.Output.PlotFormat)
	assert.Equal(t, 16, cfg.Output.Width)

	led, ok := cfg.Models().Lookup("led")
	require.True(t, ok)
	assert.Equal(t, 1e-20, led.Is)
	assert.Equal(t, 2.0, led.N)
	_, ok = cfg.Models().Lookup("1n4148")
	assert.True(t, ok)

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"order":     "solver:\n  integration_order: 3\n",
		"reltol":    "solver:\n  reltol: 2\n",
		"format":    "log:\n  format: xml\n",
		"model":     "diode_models:\n  - is: 1e-14\n",
		"plot":      "output:\n  plot_format: gif\n",
		"iteration": "solver:\n  max_iterations: 0\n",
		"yaml":      "solver: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
