package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Transcript renders a result the way a REPL session would show it:
// each query after a "codd> " prompt followed by its output.
func Transcript(result *Result) []byte {
	var b strings.Builder
	b.WriteString("# " + result.Name + "\n")
	for _, step := range result.Steps {
		b.WriteString("\ncodd> " + step.Query + "\n")
		b.WriteString(step.Output)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its transcript against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be run. Test failure (via goldie)
// occurs if the transcript doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's transcript against its
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Transcript(result))
}
