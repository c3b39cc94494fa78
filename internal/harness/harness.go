package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/format"
	"github.com/roach88/codd/internal/repl"
	"github.com/roach88/codd/internal/sample"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	interp *engine.Interpreter
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh environment for isolation.
//
// Execution flow:
// 1. Bind the sample relations if requested
// 2. Load files
// 3. Run setup statements
// 4. Run each step and check its expectation
//
// An error is returned only when the scenario cannot be prepared (a load
// or setup statement failed); failed checks are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a context for file and database access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		result.AddStep(h.runStep(i, step))
	}
	h.logger.Info("scenario finished", "name", scenario.Name, "pass", result.Pass)
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	var opts []engine.Option
	if scenario.MaxTuples > 0 {
		opts = append(opts, engine.WithMaxTuples(scenario.MaxTuples))
	}
	h := &Harness{
		interp: engine.NewInterpreter(nil, opts...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if scenario.Sample {
		sample.Load(h.interp.Env())
	}
	for i, l := range scenario.Load {
		rels, err := repl.Load(ctx, repl.Source{Path: l.Path, As: l.As, GenKey: l.GenKey, Table: l.Table})
		if err != nil {
			return nil, fmt.Errorf("load[%d] %s: %w", i, l.Path, err)
		}
		h.interp.Env().BindAll(rels)
	}
	for i, stmt := range scenario.Setup {
		if _, err := h.interp.Eval(stmt); err != nil {
			return nil, fmt.Errorf("setup[%d] %q: %w", i, stmt, err)
		}
	}
	return h, nil
}

// runStep evaluates a step. Steps expecting a value are scalar
// computations and go through EvalScalar.
func (h *Harness) runStep(index int, step Step) StepResult {
	var res engine.Result
	var err error
	if step.Expect != nil && step.Expect.Value != nil {
		res, err = h.interp.EvalScalar(step.Query)
	} else {
		res, err = h.interp.Eval(step.Query)
	}

	sr := StepResult{Query: step.Query, Pass: true}
	if err != nil {
		sr.Output = "Error: " + err.Error()
	} else {
		sr.Output = format.Result(res)
	}
	for _, e := range checkStep(index, step, res, err) {
		sr.Pass = false
		sr.Errors = append(sr.Errors, e.Error())
	}
	h.logger.Debug("step finished", "query", step.Query, "pass", sr.Pass)
	return sr
}
