package engine

import (
	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/model"
)

// compileCondition turns a filter condition into a predicate. Constant
// right-hand sides, set literals and subqueries are evaluated here, once.
func (x *Executor) compileCondition(c ast.Condition, sc scope) (model.Predicate, error) {
	switch n := c.(type) {
	case *ast.Comparison:
		return x.compileComparison(n, sc)
	case *ast.BoolOp:
		left, err := x.compileCondition(n.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := x.compileCondition(n.Right, sc)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case ast.OpAnd:
			return func(t model.Tuple) (bool, error) {
				ok, err := left(t)
				if err != nil || !ok {
					return false, err
				}
				return right(t)
			}, nil
		case ast.OpOr:
			return func(t model.Tuple) (bool, error) {
				ok, err := left(t)
				if err != nil || ok {
					return ok, err
				}
				return right(t)
			}, nil
		}
		return nil, errorf(ErrCodeInvalid, "unknown boolean operator %s", n.Op)
	case nil:
		return nil, errorf(ErrCodeInvalid, "empty condition")
	}
	return nil, errorf(ErrCodeInvalid, "unsupported condition %T", c)
}

func (x *Executor) compileComparison(n *ast.Comparison, sc scope) (model.Predicate, error) {
	left, err := x.compileOperand(n.Left)
	if err != nil {
		return nil, err
	}
	op := n.Op
	if _, known := comparators[op]; !known {
		return nil, errorf(ErrCodeInvalid, "unknown comparison operator %s", op)
	}

	if v, ok, err := literal(n.Right); ok {
		if err != nil {
			return nil, err
		}
		return constantComparison(left, op, v), nil
	}

	switch r := n.Right.(type) {
	case *ast.SetLit:
		members := make([]model.Value, len(r.Elems))
		for i, e := range r.Elems {
			v, ok, err := literal(e)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errorf(ErrCodeInvalid, "set literal elements must be constants, got %s", ast.String(e))
			}
			members[i] = v
		}
		return membership(left, op, members, "a set literal")

	case *ast.Subquery:
		rel, err := x.asRelation(r.Query, sc)
		if err != nil {
			return nil, err
		}
		heading := rel.Heading()
		if len(heading) != 1 {
			return nil, errorf(ErrCodeInvalid,
				"a subquery in a filter must return a single attribute, got %s", heading)
		}
		members, err := rel.Values(heading[0])
		if err != nil {
			return nil, wrap(err)
		}
		return membership(left, op, members, "a subquery")

	default:
		right, err := x.compileOperand(n.Right)
		if err != nil {
			return nil, err
		}
		return func(t model.Tuple) (bool, error) {
			l, err := left(t)
			if err != nil {
				return false, err
			}
			r, err := right(t)
			if err != nil {
				return false, err
			}
			l, r = coercePair(l, r)
			return compare(op, l, r)
		}, nil
	}
}

// compileOperand compiles one side of a comparison. Aggregates need an
// explicit source, resolved against the tuple under test.
func (x *Executor) compileOperand(e ast.Expr) (valueFn, error) {
	switch e.(type) {
	case *ast.AttrRef, *ast.AggregateCall:
		return x.compileExpr(e)
	}
	return nil, errorf(ErrCodeInvalid, "a comparison operand must be an attribute or aggregate, got %s", ast.String(e))
}

// constantComparison compares against a literal. A numeric literal
// promotes numeric text on the left.
func constantComparison(left valueFn, op string, v model.Value) model.Predicate {
	numeric := model.IsNumeric(v)
	return func(t model.Tuple) (bool, error) {
		l, err := left(t)
		if err != nil {
			return false, err
		}
		if numeric {
			l = model.Promote(l)
		}
		return compare(op, l, v)
	}
}

func membership(left valueFn, op string, members []model.Value, what string) (model.Predicate, error) {
	var want bool
	switch op {
	case ast.OpEq:
		want = true
	case ast.OpNe:
		want = false
	default:
		return nil, errorf(ErrCodeInvalid, "cannot use %s with %s (only = and !=)", op, what)
	}
	return func(t model.Tuple) (bool, error) {
		l, err := left(t)
		if err != nil {
			return false, err
		}
		for _, m := range members {
			a, b := coercePair(l, m)
			if model.Equal(a, b) {
				return want, nil
			}
		}
		return !want, nil
	}, nil
}

// coercePair promotes numeric text so that a string column compares
// numerically with a number, or with another numeric string.
func coercePair(a, b model.Value) (model.Value, model.Value) {
	as, bs := isString(a), isString(b)
	switch {
	case as && bs:
		return model.Promote(a), model.Promote(b)
	case as && model.IsNumeric(b):
		return model.Promote(a), b
	case bs && model.IsNumeric(a):
		return a, model.Promote(b)
	}
	return a, b
}

var comparators = map[string]func(c int) bool{
	ast.OpEq: func(c int) bool { return c == 0 },
	ast.OpNe: func(c int) bool { return c != 0 },
	ast.OpGt: func(c int) bool { return c > 0 },
	ast.OpLt: func(c int) bool { return c < 0 },
	ast.OpGe: func(c int) bool { return c >= 0 },
	ast.OpLe: func(c int) bool { return c <= 0 },
}

// compare applies a comparison operator. Equality never fails: values of
// different kinds are simply unequal. Ordering requires compatible kinds.
func compare(op string, a, b model.Value) (bool, error) {
	switch op {
	case ast.OpEq:
		return model.Equal(a, b), nil
	case ast.OpNe:
		return !model.Equal(a, b), nil
	}
	c, err := model.Compare(a, b)
	if err != nil {
		return false, wrap(err)
	}
	return comparators[op](c), nil
}
