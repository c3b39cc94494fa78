package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/model"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		op   string
		a, b model.Value
		want bool
	}{
		{ast.OpEq, model.Int(8000), model.MustDecimal("8000.0"), true},
		{ast.OpNe, model.Int(1), model.String("1"), true},
		{ast.OpEq, model.String("a"), model.Bool(true), false},
		{ast.OpGt, model.Int(2), model.MustDecimal("1.5"), true},
		{ast.OpLt, model.String("apple"), model.String("pear"), true},
		{ast.OpGe, model.Int(3), model.Int(3), true},
		{ast.OpLe, model.Bool(false), model.Bool(true), true},
	}

	for _, tt := range tests {
		got, err := compare(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s %s", tt.a, tt.op, tt.b)
	}
}

func TestCompare_OrderingAcrossKinds(t *testing.T) {
	_, err := compare(ast.OpGt, model.String("a"), model.Int(1))
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeTypeMismatch))
}

func TestCompileCondition_ShortCircuit(t *testing.T) {
	x := NewExecutor(NewEnvironment())

	// The right operand would fail on the missing attribute.
	cond := &ast.BoolOp{
		Op:    ast.OpOr,
		Left:  &ast.Comparison{Left: &ast.AttrRef{Parts: []string{"a"}}, Op: ast.OpEq, Right: &ast.IntLit{Value: 1}},
		Right: &ast.Comparison{Left: &ast.AttrRef{Parts: []string{"missing"}}, Op: ast.OpEq, Right: &ast.IntLit{Value: 1}},
	}
	pred, err := x.compileCondition(cond, scope{})
	require.NoError(t, err)

	ok, err := pred(model.TupleOf(model.P("a", model.Int(1))))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = pred(model.TupleOf(model.P("a", model.Int(2))))
	assert.True(t, HasCode(err, ErrCodeUnknownAttribute))
}

func TestCompileCondition_SetLiteralRequiresConstants(t *testing.T) {
	x := NewExecutor(NewEnvironment())

	cond := &ast.Comparison{
		Left:  &ast.AttrRef{Parts: []string{"a"}},
		Op:    ast.OpEq,
		Right: &ast.SetLit{Elems: []ast.Expr{&ast.AttrRef{Parts: []string{"b"}}}},
	}
	_, err := x.compileCondition(cond, scope{})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalid))
	assert.Contains(t, err.Error(), "constants")
}

func TestCompileCondition_NumericTextAgainstConstant(t *testing.T) {
	x := NewExecutor(NewEnvironment())

	cond := &ast.Comparison{Left: &ast.AttrRef{Parts: []string{"a"}}, Op: ast.OpGe, Right: &ast.IntLit{Value: 9}}
	pred, err := x.compileCondition(cond, scope{})
	require.NoError(t, err)

	ok, err := pred(model.TupleOf(model.P("a", model.String("10"))))
	require.NoError(t, err)
	assert.True(t, ok, "numeric text compares numerically, not lexically")
}

func TestCompileCondition_Nil(t *testing.T) {
	x := NewExecutor(NewEnvironment())

	_, err := x.compileCondition(nil, scope{})
	assert.True(t, HasCode(err, ErrCodeInvalid))
}
