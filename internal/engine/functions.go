package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/model"
)

// Function is a scalar function callable from extend computations,
// e.g. round(avg, 2). Arguments arrive fully evaluated.
type Function func(args []model.Value) (model.Value, error)

func builtinFunctions() map[string]Function {
	return map[string]Function{
		"round": round,
		"abs":   abs,
	}
}

// round rounds half to even. An Int stays an Int: positive places leave it
// unchanged and negative places round it to tens, hundreds and so on.
func round(args []model.Value) (model.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errorf(ErrCodeInvalid, "round(x[, places]) takes 1 or 2 arguments, got %d", len(args))
	}
	x, err := numericArg("round", args[0])
	if err != nil {
		return nil, err
	}
	places := int32(0)
	if len(args) == 2 {
		p, ok := model.Promote(args[1]).(model.Int)
		if !ok {
			return nil, errorf(ErrCodeTypeMismatch, "round places must be an int, got %s", operand(args[1]))
		}
		places = int32(p)
	}
	if i, ok := x.(model.Int); ok {
		if places >= 0 {
			return i, nil
		}
		r := decimal.NewFromInt(int64(i)).RoundBank(places).BigInt()
		if !r.IsInt64() {
			return nil, errorf(ErrCodeOverflow, "integer overflow: round(%d, %d)", i, places)
		}
		return model.Int(r.Int64()), nil
	}
	d, _ := model.ToDecimal(x)
	return model.NewDecimal(d.RoundBank(places)), nil
}

func abs(args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errorf(ErrCodeInvalid, "abs(x) takes 1 argument, got %d", len(args))
	}
	x, err := numericArg("abs", args[0])
	if err != nil {
		return nil, err
	}
	if i, ok := x.(model.Int); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	d, _ := model.ToDecimal(x)
	return model.NewDecimal(d.Abs()), nil
}

func numericArg(name string, v model.Value) (model.Value, error) {
	p := model.Promote(v)
	if !model.IsNumeric(p) {
		return nil, errorf(ErrCodeTypeMismatch, "%s requires a number, got %s", name, operand(v))
	}
	return p, nil
}
