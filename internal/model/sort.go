package model

import "slices"

// SortKey orders tuples by one attribute.
type SortKey struct {
	Attr       string
	Descending bool
}

// Sort leaves the relational world and returns the members as a sequence
// ordered by keys, each ascending or descending.
//
// Keys combine into one composite comparison: the first key that differs
// decides, with its direction applied. Values must be mutually comparable
// per key (numbers with numbers, strings with strings); promotion of
// numeric text is the caller's job. Ties on every key fall back to a total
// order over the whole tuple, so the output never depends on storage order.
func (r *Relation) Sort(keys ...SortKey) ([]Tuple, error) {
	attrs := make([]string, len(keys))
	for i, k := range keys {
		attrs[i] = k.Attr
	}
	if err := r.requireAttrs(attrs); err != nil {
		return nil, err
	}

	var cmpErr error
	out := slices.Clone(r.tuples)
	slices.SortStableFunc(out, func(a, b Tuple) int {
		for _, k := range keys {
			c, err := Compare(a.values[k.Attr], b.values[k.Attr])
			if err != nil {
				if cmpErr == nil {
					cmpErr = err
				}
				return 0
			}
			if k.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compareTuples(r.heading, a, b)
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	return out, nil
}
