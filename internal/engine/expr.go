package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/model"
)

// valueFn computes a scalar from the current tuple.
type valueFn func(t model.Tuple) (model.Value, error)

func constant(v model.Value) valueFn {
	return func(model.Tuple) (model.Value, error) { return v, nil }
}

// literal returns the value of a literal node, and false for any other
// expression.
func literal(e ast.Expr) (model.Value, bool, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return model.Int(n.Value), true, nil
	case *ast.FloatLit:
		d, err := model.ParseDecimal(n.Text)
		if err != nil {
			return nil, true, errorf(ErrCodeInvalid, "invalid number %s", n.Text)
		}
		return d, true, nil
	case *ast.StringLit:
		return model.String(n.Value), true, nil
	case *ast.BoolLit:
		return model.Bool(n.Value), true, nil
	}
	return nil, false, nil
}

// compileExpr turns a scalar expression into a closure. Everything that
// does not depend on the tuple (literal parsing, function lookup,
// condition compilation) happens here, once.
func (x *Executor) compileExpr(e ast.Expr) (valueFn, error) {
	if v, ok, err := literal(e); ok {
		if err != nil {
			return nil, err
		}
		return constant(v), nil
	}

	switch n := e.(type) {
	case *ast.AttrRef:
		parts := n.Parts
		return func(t model.Tuple) (model.Value, error) {
			return attrValue(t, parts)
		}, nil

	case *ast.BinOp:
		left, err := x.compileExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := x.compileExpr(n.Right)
		if err != nil {
			return nil, err
		}
		op := n.Op
		return func(t model.Tuple) (model.Value, error) {
			l, err := left(t)
			if err != nil {
				return nil, err
			}
			r, err := right(t)
			if err != nil {
				return nil, err
			}
			return arithmetic(op, l, r)
		}, nil

	case *ast.AggregateCall:
		call := n
		return func(t model.Tuple) (model.Value, error) {
			return x.tupleAggregate(call, t)
		}, nil

	case *ast.Subquery:
		query := n.Query
		return func(t model.Tuple) (model.Value, error) {
			return x.asRelation(query, scope{tuple: t})
		}, nil

	case *ast.Ternary:
		cond, err := x.compileCondition(n.Cond, scope{})
		if err != nil {
			return nil, err
		}
		then, err := x.compileExpr(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := x.compileExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return func(t model.Tuple) (model.Value, error) {
			ok, err := cond(t)
			if err != nil {
				return nil, err
			}
			if ok {
				return then(t)
			}
			return els(t)
		}, nil

	case *ast.FuncCall:
		fn, ok := x.funcs[n.Name]
		if !ok {
			return nil, errorf(ErrCodeUnknownFunction, "unknown function: %q", n.Name)
		}
		args := make([]valueFn, len(n.Args))
		for i, a := range n.Args {
			var err error
			if args[i], err = x.compileExpr(a); err != nil {
				return nil, err
			}
		}
		name := n.Name
		return func(t model.Tuple) (model.Value, error) {
			vals := make([]model.Value, len(args))
			for i, arg := range args {
				v, err := arg(t)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			v, err := fn(vals)
			if err != nil {
				return nil, wrapFunctionError(name, err)
			}
			return v, nil
		}, nil

	case *ast.SetLit:
		return nil, errorf(ErrCodeInvalid, "a set literal can only appear on the right of = or !=")
	}
	return nil, errorf(ErrCodeInvalid, "unsupported expression %T", e)
}

// attrValue resolves a possibly dotted attribute reference. Attributes of
// a relation-valued attribute are reached through aggregates only.
func attrValue(t model.Tuple, parts []string) (model.Value, error) {
	v, ok := t.Get(parts[0])
	if !ok {
		return nil, errorf(ErrCodeUnknownAttribute, "unknown attribute %q (tuple has %s)", parts[0], t.Heading())
	}
	if len(parts) == 1 {
		return v, nil
	}
	if _, isRel := v.(*model.Relation); isRel {
		return nil, errorf(ErrCodeInvalid,
			"cannot access .%s on relation %s directly; use an aggregate such as >. %s.%s",
			parts[1], parts[0], parts[0], parts[1])
	}
	return nil, errorf(ErrCodeTypeMismatch, "cannot access .%s on %s value %s", parts[1], v.Kind(), v)
}

// tupleAggregate evaluates an aggregate inside extend or a filter. The
// source must be explicit: a relation-valued attribute of t, a bound
// relation, or a parenthesized expression.
func (x *Executor) tupleAggregate(call *ast.AggregateCall, t model.Tuple) (model.Value, error) {
	if call.Source == nil {
		return nil, errorf(ErrCodeAggregate,
			"aggregate %s needs a relation source here (e.g. %s team or %s (E ? ...))", call.Func, call.Func, call.Func)
	}
	rel, err := x.asRelation(call.Source, scope{tuple: t})
	if err != nil {
		return nil, err
	}
	return applyAggregate(call.Func, call.Attr, rel)
}

// arithmetic applies + - * / after promoting numeric text. Int with Int
// stays Int and divides with floor; anything involving a Decimal is exact
// decimal arithmetic.
func arithmetic(op string, l, r model.Value) (model.Value, error) {
	lp, rp := model.Promote(l), model.Promote(r)
	if !model.IsNumeric(lp) || !model.IsNumeric(rp) {
		if isString(lp) || isString(rp) {
			return nil, errorf(ErrCodeTypeMismatch,
				"cannot apply %s to %s and %s (non-numeric string)", op, operand(lp), operand(rp))
		}
		return nil, errorf(ErrCodeTypeMismatch, "cannot apply %s to %s and %s", op, operand(lp), operand(rp))
	}

	li, lInt := lp.(model.Int)
	ri, rInt := rp.(model.Int)
	if lInt && rInt {
		return intArithmetic(op, int64(li), int64(ri))
	}

	a, _ := model.ToDecimal(lp)
	b, _ := model.ToDecimal(rp)
	switch op {
	case "+":
		return model.NewDecimal(a.Add(b)), nil
	case "-":
		return model.NewDecimal(a.Sub(b)), nil
	case "*":
		return model.NewDecimal(a.Mul(b)), nil
	case "/":
		if b.IsZero() {
			return nil, errorf(ErrCodeDivisionByZero, "division by zero: %s / %s", lp, rp)
		}
		return model.NewDecimal(trim(a.Div(b))), nil
	}
	return nil, errorf(ErrCodeInvalid, "unknown operator %s", op)
}

// intArithmetic applies op to two Ints and fails rather than wrap.
func intArithmetic(op string, a, b int64) (model.Value, error) {
	var (
		r  int64
		ok bool
	)
	switch op {
	case "+":
		r, ok = addInt(a, b)
	case "-":
		r, ok = subInt(a, b)
	case "*":
		r, ok = mulInt(a, b)
	case "/":
		if b == 0 {
			return nil, errorf(ErrCodeDivisionByZero, "division by zero: %d / 0", a)
		}
		if a == math.MinInt64 && b == -1 {
			break
		}
		r, ok = floorDiv(a, b), true
	default:
		return nil, errorf(ErrCodeInvalid, "unknown operator %s", op)
	}
	if !ok {
		return nil, errorf(ErrCodeOverflow, "integer overflow: %d %s %d", a, op, b)
	}
	return model.Int(r), nil
}

func addInt(a, b int64) (int64, bool) {
	r := a + b
	return r, (r > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	r := a - b
	return r, (r < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || r/b != a {
		return r, false
	}
	return r, true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// trim drops trailing fractional zeros left by division.
func trim(d decimal.Decimal) decimal.Decimal {
	return decimal.RequireFromString(d.String())
}

func isString(v model.Value) bool {
	_, ok := v.(model.String)
	return ok
}

func operand(v model.Value) string {
	if s, ok := v.(model.String); ok {
		return strconv.Quote(string(s))
	}
	if v == nil {
		return "nothing"
	}
	return v.String()
}

func wrapFunctionError(name string, err error) error {
	if ee, ok := err.(*Error); ok {
		if !strings.HasPrefix(ee.Message, name+"(") {
			return &Error{Code: ee.Code, Message: name + "(): " + ee.Message, Err: ee.Err}
		}
		return ee
	}
	return &Error{Code: ErrCodeInvalid, Message: name + "(): " + err.Error(), Err: err}
}
