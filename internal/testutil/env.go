package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/sample"
)

// SampleInterpreter returns an interpreter with E, D, Phone and
// ContractorPay bound.
func SampleInterpreter(t testing.TB) *engine.Interpreter {
	t.Helper()
	env := engine.NewEnvironment()
	sample.Load(env)
	return engine.NewInterpreter(env)
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
