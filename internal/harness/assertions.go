package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/model"
)

// AssertionError is returned when a step's result does not match its
// expectation.
type AssertionError struct {
	Step     int    // 1-based step number
	Query    string // the step's query
	Check    string // which expectation failed: count, rows, error...
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("step %d (%s): %s: expected %s, got %s",
		e.Step, e.Query, e.Check, e.Expected, e.Actual)
}

// checkStep compares a step's outcome with its expectation. res is nil
// when the query failed with err.
func checkStep(index int, step Step, res engine.Result, err error) []error {
	fail := func(check, expected, actual string) error {
		return &AssertionError{Step: index + 1, Query: step.Query, Check: check, Expected: expected, Actual: actual}
	}

	if step.ExpectError != "" {
		if err == nil {
			return []error{fail("error", fmt.Sprintf("an error containing %q", step.ExpectError), "success")}
		}
		if !strings.Contains(err.Error(), step.ExpectError) {
			return []error{fail("error", fmt.Sprintf("an error containing %q", step.ExpectError), fmt.Sprintf("%q", err.Error()))}
		}
		return nil
	}
	if err != nil {
		return []error{fail("success", "success", fmt.Sprintf("error %q", err.Error()))}
	}
	if step.Expect == nil {
		return nil
	}
	e := step.Expect

	if e.Value != nil {
		sr, ok := res.(*engine.ScalarResult)
		if !ok {
			return []error{fail("value", "a scalar", resultKind(res))}
		}
		ok, convErr := valueMatches(e.Value, sr.Value)
		if convErr != nil {
			return []error{fail("value", fmt.Sprint(e.Value), convErr.Error())}
		}
		if !ok {
			return []error{fail("value", fmt.Sprint(e.Value), sr.Value.String())}
		}
		return nil
	}

	heading, tuples, ordered, ok := members(res)
	if !ok {
		return []error{fail("result", "a relation or sequence", resultKind(res))}
	}

	var errs []error
	if e.Count != nil && *e.Count != len(tuples) {
		errs = append(errs, fail("count", fmt.Sprint(*e.Count), fmt.Sprint(len(tuples))))
	}
	if e.Attributes != nil {
		want := model.NewHeading(e.Attributes...)
		if !want.Equal(heading) {
			errs = append(errs, fail("attributes", want.String(), heading.String()))
		}
	}
	if e.Ordered && !ordered {
		errs = append(errs, fail("ordered", "a sorted sequence", resultKind(res)))
	} else if e.Rows != nil {
		if msg := matchRows(e.Rows, tuples, e.Ordered); msg != "" {
			errs = append(errs, fail("rows", describeRows(e.Rows), msg))
		}
	}
	for _, row := range e.Contains {
		if !containsRow(row, tuples) {
			errs = append(errs, fail("contains", describeRow(row), "no matching tuple"))
		}
	}
	return errs
}

func members(res engine.Result) (model.Heading, []model.Tuple, bool, bool) {
	switch r := res.(type) {
	case *engine.RelationResult:
		return r.Relation.Heading(), r.Relation.Ordered(), false, true
	case *engine.TuplesResult:
		return r.Heading, r.Tuples, true, true
	}
	return nil, nil, false, false
}

func resultKind(res engine.Result) string {
	switch res.(type) {
	case *engine.RelationResult:
		return "a relation"
	case *engine.TuplesResult:
		return "a sorted sequence"
	case *engine.ScalarResult:
		return "a scalar"
	}
	return "nothing"
}

// matchRows pairs expected rows with tuples one to one and returns a
// description of the mismatch, or "" when every row matched.
func matchRows(rows []map[string]any, tuples []model.Tuple, ordered bool) string {
	if len(rows) != len(tuples) {
		return fmt.Sprintf("%d tuples", len(tuples))
	}
	if ordered {
		for i, row := range rows {
			if !rowMatches(row, tuples[i]) {
				return fmt.Sprintf("%s at position %d", tuples[i], i+1)
			}
		}
		return ""
	}

	used := make([]bool, len(tuples))
	for _, row := range rows {
		found := false
		for i, t := range tuples {
			if !used[i] && rowMatches(row, t) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("no tuple matching %s", describeRow(row))
		}
	}
	return ""
}

func containsRow(row map[string]any, tuples []model.Tuple) bool {
	for _, t := range tuples {
		if rowMatches(row, t) {
			return true
		}
	}
	return false
}

// rowMatches reports whether t has every attribute of row with an equal
// value.
func rowMatches(row map[string]any, t model.Tuple) bool {
	for attr, want := range row {
		got, ok := t.Get(attr)
		if !ok {
			return false
		}
		if ok, err := valueMatches(want, got); err != nil || !ok {
			return false
		}
	}
	return true
}

// valueMatches compares a YAML value with a model value. Lists of maps
// match nested relations row by row.
func valueMatches(want any, got model.Value) (bool, error) {
	if list, ok := want.([]any); ok {
		rel, isRel := got.(*model.Relation)
		if !isRel {
			return false, nil
		}
		rows := make([]map[string]any, 0, len(list))
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				return false, fmt.Errorf("nested rows must be mappings, got %T", item)
			}
			rows = append(rows, row)
		}
		return matchRows(rows, rel.Ordered(), false) == "", nil
	}

	v, err := yamlValue(want)
	if err != nil {
		return false, err
	}
	return model.Equal(v, got), nil
}

// yamlValue converts a decoded YAML scalar.
func yamlValue(raw any) (model.Value, error) {
	switch v := raw.(type) {
	case int:
		return model.Int(v), nil
	case int64:
		return model.Int(v), nil
	case uint64:
		return model.Int(int64(v)), nil
	case float64:
		return model.NewDecimal(decimal.NewFromFloat(v)), nil
	case bool:
		return model.Bool(v), nil
	case string:
		return model.String(v), nil
	}
	return nil, fmt.Errorf("unsupported expected value %v (%T)", raw, raw)
}

func describeRows(rows []map[string]any) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = describeRow(row)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// describeRow renders a YAML row with sorted keys.
func describeRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, row[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
