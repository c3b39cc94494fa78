package model

import (
	"slices"
	"strings"
)

// Relation is an immutable, duplicate-free set of tuples sharing one heading.
//
// INVARIANTS:
//   - every member tuple has exactly the relation's heading
//   - no two members are Equal
//   - the heading is kept even when the relation is empty
//
// Members are stored in construction order. That order is an artifact of
// how the relation was built and must not be relied on; use Sort for
// ordered output.
type Relation struct {
	heading Heading
	tuples  []Tuple
	index   map[string]struct{}
	key     string
}

func (*Relation) value()     {}
func (*Relation) Kind() Kind { return KindRelation }

// New creates a relation with an explicit heading.
// Every tuple must carry exactly the heading's attributes; duplicates collapse.
func New(heading Heading, tuples ...Tuple) (*Relation, error) {
	heading = NewHeading(heading...)
	for _, t := range tuples {
		if th := t.Heading(); !th.Equal(heading) {
			return nil, newError(ErrCodeHeadingMismatch,
				"tuple %s has attributes %s, relation heading is %s", t, th, heading)
		}
	}
	return build(heading, tuples), nil
}

// FromTuples creates a relation whose heading is inferred from the first
// tuple. With no tuples the result is the empty relation with no attributes.
func FromTuples(tuples ...Tuple) (*Relation, error) {
	if len(tuples) == 0 {
		return Empty(nil), nil
	}
	return New(tuples[0].Heading(), tuples...)
}

// MustNew is like New but panics on error. Intended for fixtures and tests.
func MustNew(heading Heading, tuples ...Tuple) *Relation {
	r, err := New(heading, tuples...)
	if err != nil {
		panic(err)
	}
	return r
}

// MustFromTuples is like FromTuples but panics on error.
func MustFromTuples(tuples ...Tuple) *Relation {
	r, err := FromTuples(tuples...)
	if err != nil {
		panic(err)
	}
	return r
}

// Empty returns the relation with the given heading and no tuples.
func Empty(heading Heading) *Relation {
	return build(NewHeading(heading...), nil)
}

// build assembles a relation without validating headings.
// Operators call it only with tuples they constructed to fit heading.
func build(heading Heading, tuples []Tuple) *Relation {
	r := &Relation{
		heading: heading,
		tuples:  make([]Tuple, 0, len(tuples)),
		index:   make(map[string]struct{}, len(tuples)),
	}
	for _, t := range tuples {
		k := t.Key()
		if _, dup := r.index[k]; dup {
			continue
		}
		r.index[k] = struct{}{}
		r.tuples = append(r.tuples, t)
	}
	r.key = canonicalRelation(r.heading, r.tuples)
	return r
}

// Heading returns the relation's attribute set.
func (r *Relation) Heading() Heading {
	return slices.Clone(r.heading)
}

// Len returns the number of tuples.
func (r *Relation) Len() int {
	return len(r.tuples)
}

// IsEmpty reports whether the relation has no tuples.
func (r *Relation) IsEmpty() bool {
	return len(r.tuples) == 0
}

// Tuples returns the members in construction order.
func (r *Relation) Tuples() []Tuple {
	return slices.Clone(r.tuples)
}

// Contains reports whether t is a member.
func (r *Relation) Contains(t Tuple) bool {
	_, ok := r.index[t.Key()]
	return ok
}

// Equal reports whether both relations have the same heading and members.
func (r *Relation) Equal(other *Relation) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.key == other.key
}

// Key returns the canonical encoding of the relation.
func (r *Relation) Key() string {
	return r.key
}

// Ordered returns the members in a deterministic order: attribute by
// attribute in heading order, using CompareTotal.
func (r *Relation) Ordered() []Tuple {
	out := slices.Clone(r.tuples)
	slices.SortFunc(out, func(a, b Tuple) int {
		return compareTuples(r.heading, a, b)
	})
	return out
}

// Values returns the values of attr across all members, in member order.
func (r *Relation) Values(attr string) ([]Value, error) {
	if !r.heading.Contains(attr) {
		return nil, unknownAttributes([]string{attr}, r.heading)
	}
	out := make([]Value, len(r.tuples))
	for i, t := range r.tuples {
		out[i] = t.values[attr]
	}
	return out, nil
}

// String renders the relation inline: {(a: 1), (a: 2)}, members ordered.
func (r *Relation) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, t := range r.Ordered() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte('}')
	return b.String()
}

func compareTuples(heading Heading, a, b Tuple) int {
	for _, name := range heading {
		if c := CompareTotal(a.values[name], b.values[name]); c != 0 {
			return c
		}
	}
	return 0
}
