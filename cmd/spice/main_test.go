package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNetlist(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.cir")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunOperatingPoint(t *testing.T) {
	path := writeNetlist(t, "* divider\nv1 1 0 10\nr1 1 2 1k\nr2 2 0 1k\n.op\n.end\n")

	var out bytes.Buffer
	require.NoError(t, run(path, &out))
	assert.Contains(t, out.String(), "Operating Point")
	assert.Contains(t, out.String(), "V(2)")
	assert.Contains(t, out.String(), "5.000 V")
}

func TestRunPrintTable(t *testing.T) {
	path := writeNetlist(t, "v1 1 0 0\nr1 1 2 1k\nr2 2 0 1k\n.dc v1 0 2 1\n.print dc v(2)\n.end\n")

	var out bytes.Buffer
	require.NoError(t, run(path, &out))
	assert.Contains(t, out.String(), "v(2)")
}

func TestRunReportsDiagnostics(t *testing.T) {
	path := writeNetlist(t, "v1 1 0 10\nr1 1 0 1k\nr1 1 0 2k\n.op\n.end\n")

	var out bytes.Buffer
	require.NoError(t, run(path, &out))
	assert.Contains(t, out.String(), "Error: line 3: failed to parse r1")
}

func TestRunMissingFile(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(filepath.Join(t.TempDir(), "none.cir"), &out))
}
