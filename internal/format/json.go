package format

import (
	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/model"
)

// Data converts a result into plain values ready for encoding/json.
// Decimals become strings so their scale survives.
//
//	relation: {"kind": "relation", "attributes": [...], "tuples": [...]}
//	sequence: {"kind": "tuples", "attributes": [...], "tuples": [...]}
//	scalar:   {"kind": "scalar", "value": ...}
func Data(res engine.Result) map[string]any {
	switch r := res.(type) {
	case *engine.RelationResult:
		body := relationData(r.Relation)
		body["kind"] = "relation"
		return body
	case *engine.TuplesResult:
		return map[string]any{
			"kind":       "tuples",
			"attributes": attributes(r.Heading),
			"tuples":     tuplesData(r.Heading, r.Tuples),
		}
	case *engine.ScalarResult:
		return map[string]any{"kind": "scalar", "value": valueData(r.Value)}
	}
	return nil
}

func relationData(r *model.Relation) map[string]any {
	return map[string]any{
		"attributes": attributes(r.Heading()),
		"tuples":     tuplesData(r.Heading(), r.Ordered()),
	}
}

func attributes(h model.Heading) []string {
	if h == nil {
		return []string{}
	}
	return h
}

func tuplesData(heading model.Heading, tuples []model.Tuple) []map[string]any {
	out := make([]map[string]any, 0, len(tuples))
	for _, t := range tuples {
		row := make(map[string]any, len(heading))
		for _, attr := range heading {
			row[attr] = valueData(t.Value(attr))
		}
		out = append(out, row)
	}
	return out
}

func valueData(v model.Value) any {
	switch val := v.(type) {
	case model.Int:
		return int64(val)
	case model.Decimal:
		return val.String()
	case model.Bool:
		return bool(val)
	case model.String:
		return string(val)
	case *model.Relation:
		return relationData(val)
	}
	return nil
}
