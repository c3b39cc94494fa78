package engine

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/parser"
)

// Interpreter parses and executes source text against one Environment.
//
// It is the entry point used by the REPL, the CLI and the test harness:
//
//	interp := engine.NewInterpreter(env)
//	res, err := interp.Eval("E ? salary > 50000")
//
// Parse errors come back as *parser.Error (or *lexer.Error); execution
// failures as *Error.
type Interpreter struct {
	exec *Executor
}

// NewInterpreter creates an interpreter over env. A nil env starts empty.
func NewInterpreter(env *Environment, opts ...Option) *Interpreter {
	if env == nil {
		env = NewEnvironment()
	}
	return &Interpreter{exec: NewExecutor(env, opts...)}
}

// Env returns the interpreter's environment.
func (i *Interpreter) Env() *Environment {
	return i.exec.Env()
}

// Executor returns the underlying executor.
func (i *Interpreter) Executor() *Executor {
	return i.exec
}

// Eval parses and executes one statement.
func (i *Interpreter) Eval(src string) (Result, error) {
	src = strings.TrimSpace(src)
	stmt, err := parser.ParseString(src)
	if err != nil {
		slog.Debug("parse failed", "source", src, "error", err)
		return nil, err
	}
	res, err := i.exec.Execute(stmt)
	if err != nil {
		slog.Debug("execution failed", "source", src, "error", err)
		return nil, err
	}
	slog.Debug("statement evaluated", "source", src, "result", describeResult(res))
	return res, nil
}

// EvalScalar parses and evaluates a scalar computation such as
// "#. E" or "round(%. (E # salary) salary / 1000)".
func (i *Interpreter) EvalScalar(src string) (*ScalarResult, error) {
	e, err := parser.ParseExpr(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}
	return i.exec.EvalScalar(e)
}

// Bind binds rel under name.
func (i *Interpreter) Bind(name string, rel *model.Relation) {
	i.exec.Env().Bind(name, rel)
}

func describeResult(res Result) string {
	switch r := res.(type) {
	case *RelationResult:
		return "relation of " + strconv.Itoa(r.Relation.Len())
	case *TuplesResult:
		return "sequence of " + strconv.Itoa(len(r.Tuples))
	case *ScalarResult:
		return "scalar " + r.Value.String()
	}
	return "unknown"
}
