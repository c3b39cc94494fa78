package engine

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/model"
)

// applyAggregate reduces rel with f. Values are promoted from numeric
// text before reduction, so string columns loaded from CSV aggregate
// numerically.
func applyAggregate(f ast.AggFunc, attr string, rel *model.Relation) (model.Value, error) {
	if f == ast.AggCount {
		return model.Int(rel.Len()), nil
	}
	if attr == "" {
		return nil, errorf(ErrCodeAggregate, "%s requires an attribute name", f)
	}
	raw, err := rel.Values(attr)
	if err != nil {
		return nil, wrap(err)
	}
	values := make([]model.Value, len(raw))
	for i, v := range raw {
		values[i] = model.Promote(v)
	}

	switch f {
	case ast.AggSum:
		return sum(f, values)
	case ast.AggMax:
		return extreme(f, values, 1)
	case ast.AggMin:
		return extreme(f, values, -1)
	case ast.AggMean:
		return mean(f, values)
	}
	return nil, errorf(ErrCodeAggregate, "unknown aggregate function %s", f)
}

// sum adds values; an empty group sums to 0.
func sum(f ast.AggFunc, values []model.Value) (model.Value, error) {
	var acc model.Value = model.Int(0)
	for _, v := range values {
		if !model.IsNumeric(v) {
			return nil, errorf(ErrCodeTypeMismatch, "%s cannot add non-numeric value %s", f, operand(v))
		}
		total, err := arithmetic("+", acc, v)
		if err != nil {
			return nil, err
		}
		acc = total
	}
	return acc, nil
}

// extreme returns the greatest (sign 1) or least (sign -1) value.
func extreme(f ast.AggFunc, values []model.Value, sign int) (model.Value, error) {
	if len(values) == 0 {
		return nil, errorf(ErrCodeAggregate, "%s of an empty relation", f)
	}
	best := values[0]
	for _, v := range values[1:] {
		c, err := model.Compare(v, best)
		if err != nil {
			return nil, wrap(err)
		}
		if c*sign > 0 {
			best = v
		}
	}
	return best, nil
}

// mean floor-divides when every value is an Int and otherwise returns an
// exact decimal quotient.
func mean(f ast.AggFunc, values []model.Value) (model.Value, error) {
	if len(values) == 0 {
		return nil, errorf(ErrCodeAggregate, "%s of an empty relation", f)
	}
	total, err := sum(f, values)
	if err != nil {
		return nil, err
	}
	allInt := true
	for _, v := range values {
		if _, ok := v.(model.Int); !ok {
			allInt = false
			break
		}
	}
	if allInt {
		return model.Int(floorDiv(int64(total.(model.Int)), int64(len(values)))), nil
	}
	d, _ := model.ToDecimal(total)
	return model.NewDecimal(trim(d.Div(decimal.NewFromInt(int64(len(values)))))), nil
}
