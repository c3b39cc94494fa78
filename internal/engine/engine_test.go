package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/sample"
)

// newSampleInterpreter creates an interpreter over the employee sample.
func newSampleInterpreter(t *testing.T, opts ...Option) *Interpreter {
	t.Helper()
	env := NewEnvironment()
	sample.Load(env)
	return NewInterpreter(env, opts...)
}

// evalRelation evaluates src and requires a relation result.
func evalRelation(t *testing.T, interp *Interpreter, src string) *model.Relation {
	t.Helper()
	res, err := interp.Eval(src)
	require.NoError(t, err, src)
	rr, ok := res.(*RelationResult)
	require.True(t, ok, "expected a relation from %q, got %T", src, res)
	return rr.Relation
}

// evalTuples evaluates src and requires a sequence result.
func evalTuples(t *testing.T, interp *Interpreter, src string) *TuplesResult {
	t.Helper()
	res, err := interp.Eval(src)
	require.NoError(t, err, src)
	tr, ok := res.(*TuplesResult)
	require.True(t, ok, "expected a sequence from %q, got %T", src, res)
	return tr
}

// names returns the sorted values of the name attribute.
func names(t *testing.T, rel *model.Relation) []string {
	t.Helper()
	values, err := rel.Values("name")
	require.NoError(t, err)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	sort.Strings(out)
	return out
}

// find returns the member whose attr equals v.
func find(t *testing.T, rel *model.Relation, attr string, v model.Value) model.Tuple {
	t.Helper()
	for _, tup := range rel.Tuples() {
		if model.Equal(tup.Value(attr), v) {
			return tup
		}
	}
	require.Failf(t, "tuple not found", "no member with %s = %s in %s", attr, v, rel)
	return model.Tuple{}
}

func TestInterpreter_Eval_NilEnvironment(t *testing.T) {
	interp := NewInterpreter(nil)
	require.NotNil(t, interp.Env())
	assert.Equal(t, 0, interp.Env().Len())

	interp.Bind("D", sample.Departments())
	rel := evalRelation(t, interp, "D # dept_name")
	assert.Equal(t, 2, rel.Len())
}

func TestInterpreter_Eval_ParseError(t *testing.T) {
	interp := newSampleInterpreter(t)

	_, err := interp.Eval("E ? ")
	require.Error(t, err)
	assert.False(t, IsExecutionError(err))
	assert.Contains(t, err.Error(), "parse error")
}

func TestInterpreter_Eval_LexError(t *testing.T) {
	interp := newSampleInterpreter(t)

	_, err := interp.Eval(`E ? name = "Alice`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated string literal")
}

func TestInterpreter_Eval_Assignment(t *testing.T) {
	interp := newSampleInterpreter(t)

	res, err := interp.Eval("high := E ? salary > 70000")
	require.NoError(t, err)
	rr, ok := res.(*RelationResult)
	require.True(t, ok)
	assert.Equal(t, 2, rr.Relation.Len())

	require.True(t, interp.Env().Contains("high"))
	assert.Equal(t, []string{"Alice", "Dave"}, names(t, evalRelation(t, interp, "high # name")))
}

func TestInterpreter_EvalScalar(t *testing.T) {
	interp := newSampleInterpreter(t)

	tests := []struct {
		src  string
		want string
	}{
		{"#. E", "5"},
		{"+. E.salary", "330000"},
		{"%. (E # salary) salary", "66000"},
		{">. (E ? dept_id = 20) salary", "55000"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"7 / 2", "3"},
		{"-7 / 2", "-4"},
		{"7.0 / 2", "3.5"},
		{"abs(-5)", "5"},
		{"round(2.5)", "2"},
		{"round(3.14159, 2)", "3.14"},
		{"#. (E * D ? dept_name = \"Sales\")", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := interp.EvalScalar(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value.String())
		})
	}
}

func TestInterpreter_EvalScalar_Errors(t *testing.T) {
	interp := newSampleInterpreter(t)

	tests := []struct {
		src  string
		code ErrorCode
	}{
		{"1 / 0", ErrCodeDivisionByZero},
		{"#. Nope", ErrCodeUnknownRelation},
		{"+. salary", ErrCodeAggregate},
		{"nope(1)", ErrCodeUnknownFunction},
		{"salary + 1", ErrCodeUnknownAttribute},
		{"%. (E ? salary > 1000000) salary", ErrCodeAggregate},
		{"9223372036854775807 + 1", ErrCodeOverflow},
		{"3037000500 * 3037000500", ErrCodeOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := interp.EvalScalar(tt.src)
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestInterpreter_EvalScalar_TrailingTokens(t *testing.T) {
	interp := newSampleInterpreter(t)

	_, err := interp.EvalScalar("1 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected token "2"`)
}

func TestInterpreter_Eval_IntegerOverflow(t *testing.T) {
	interp := newSampleInterpreter(t)

	for _, src := range []string{
		"E + big: 9223372036854775807 + 1 # big",
		"E + x: salary * 1000000000000000",
	} {
		_, err := interp.Eval(src)
		require.Error(t, err, src)
		assert.True(t, IsExecutionError(err), src)
		assert.True(t, HasCode(err, ErrCodeOverflow), "got %v", err)
	}
}

func TestInterpreter_Executor(t *testing.T) {
	interp := newSampleInterpreter(t)
	assert.Same(t, interp.Env(), interp.Executor().Env())
}
