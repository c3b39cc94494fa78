package model

// Predicate decides whether a tuple is kept by Where.
type Predicate func(Tuple) (bool, error)

// Aggregate computes one named result from a group of tuples.
type Aggregate struct {
	Name string
	Fn   func(group *Relation) (Value, error)
}

func (r *Relation) requireAttrs(attrs []string) error {
	if missing := r.heading.Missing(attrs); len(missing) > 0 {
		return unknownAttributes(missing, r.heading)
	}
	return nil
}

// Project keeps only attrs. The result heading is exactly attrs.
func (r *Relation) Project(attrs ...string) (*Relation, error) {
	if err := r.requireAttrs(attrs); err != nil {
		return nil, err
	}
	out := make([]Tuple, len(r.tuples))
	for i, t := range r.tuples {
		out[i] = t.Project(attrs...)
	}
	return build(NewHeading(attrs...), out), nil
}

// Remove drops attrs, keeping every other attribute.
func (r *Relation) Remove(attrs ...string) (*Relation, error) {
	if err := r.requireAttrs(attrs); err != nil {
		return nil, err
	}
	return r.Project(r.heading.Minus(NewHeading(attrs...))...)
}

// Where keeps the tuples for which pred returns true.
func (r *Relation) Where(pred Predicate) (*Relation, error) {
	var out []Tuple
	for _, t := range r.tuples {
		ok, err := pred(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return build(r.heading, out), nil
}

// Join is the natural join: every pair of tuples agreeing on the shared
// attributes merges into one result tuple.
func (r *Relation) Join(other *Relation) *Relation {
	var out []Tuple
	for _, left := range r.tuples {
		for _, right := range other.tuples {
			if left.Matches(right) {
				out = append(out, left.Merge(right))
			}
		}
	}
	return build(r.heading.Union(other.heading), out)
}

// NestJoin nests, under name, the right tuples matching each left tuple on
// the shared attributes, with the shared attributes projected away. Left
// tuples without matches get an empty nested relation.
func (r *Relation) NestJoin(other *Relation, name string) (*Relation, error) {
	if r.heading.Contains(name) {
		return nil, newError(ErrCodeDuplicateAttribute, "attribute %q already exists", name)
	}
	shared := r.heading.Intersect(other.heading)
	nestedHeading := other.heading.Minus(shared)

	out := make([]Tuple, 0, len(r.tuples))
	for _, left := range r.tuples {
		var members []Tuple
		for _, right := range other.tuples {
			if left.Matches(right) {
				members = append(members, right.Project(nestedHeading...))
			}
		}
		out = append(out, left.With(name, build(nestedHeading, members)))
	}
	return build(r.heading.Union(Heading{name}), out), nil
}

// Unnest flattens the relation-valued attribute name into its parent tuples.
// Tuples whose nested relation is empty produce no output. Every nested
// relation must share one heading. An empty source carries no nested
// heading, so its result has only the remaining parent attributes.
func (r *Relation) Unnest(name string) (*Relation, error) {
	if err := r.requireAttrs([]string{name}); err != nil {
		return nil, err
	}
	base := r.heading.Minus(Heading{name})
	var (
		inner     Heading
		haveInner bool
		out       []Tuple
	)
	for _, t := range r.tuples {
		nested, ok := t.values[name].(*Relation)
		if !ok {
			return nil, newError(ErrCodeTypeMismatch,
				"attribute %q is %s, not a relation", name, kindOf(t.values[name]))
		}
		if !haveInner {
			inner, haveInner = nested.heading, true
		} else if !inner.Equal(nested.heading) {
			return nil, newError(ErrCodeHeadingMismatch,
				"attribute %q holds relations with headings %s and %s", name, inner, nested.heading)
		}
		parent := t.Without(name)
		for _, child := range nested.tuples {
			out = append(out, child.Merge(parent))
		}
	}
	return build(base.Union(inner), out), nil
}

// Extend adds the attributes names, computed per tuple by compute.
// compute must return a value for every name.
func (r *Relation) Extend(names []string, compute func(Tuple) (map[string]Value, error)) (*Relation, error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if r.heading.Contains(name) || seen[name] {
			return nil, newError(ErrCodeDuplicateAttribute, "attribute %q already exists", name)
		}
		seen[name] = true
	}
	out := make([]Tuple, 0, len(r.tuples))
	for _, t := range r.tuples {
		extra, err := compute(t)
		if err != nil {
			return nil, err
		}
		if len(extra) != len(names) {
			return nil, newError(ErrCodeInvalidArgument,
				"extend computed %d attributes, expected %d", len(extra), len(names))
		}
		ext, err := t.Extend(extra)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return build(r.heading.Union(NewHeading(names...)), out), nil
}

// Rename relabels attributes (old to new). Every old name must exist and
// the resulting heading must not contain duplicates.
func (r *Relation) Rename(mapping map[string]string) (*Relation, error) {
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	if err := r.requireAttrs(NewHeading(olds...)); err != nil {
		return nil, err
	}
	renamed := make([]string, 0, len(r.heading))
	seen := make(map[string]bool, len(r.heading))
	for _, name := range r.heading {
		if to, ok := mapping[name]; ok {
			name = to
		}
		if seen[name] {
			return nil, newError(ErrCodeDuplicateAttribute,
				"rename produces duplicate attribute %q", name)
		}
		seen[name] = true
		renamed = append(renamed, name)
	}
	out := make([]Tuple, len(r.tuples))
	for i, t := range r.tuples {
		out[i] = t.Rename(mapping)
	}
	return build(NewHeading(renamed...), out), nil
}

func (r *Relation) requireSameHeading(op string, other *Relation) error {
	if !r.heading.Equal(other.heading) {
		return newError(ErrCodeHeadingMismatch,
			"%s requires identical headings, got %s and %s", op, r.heading, other.heading)
	}
	return nil
}

// Union returns the tuples in either relation.
func (r *Relation) Union(other *Relation) (*Relation, error) {
	if err := r.requireSameHeading("union", other); err != nil {
		return nil, err
	}
	out := make([]Tuple, 0, len(r.tuples)+len(other.tuples))
	out = append(out, r.tuples...)
	out = append(out, other.tuples...)
	return build(r.heading, out), nil
}

// Difference returns the tuples of r not in other.
func (r *Relation) Difference(other *Relation) (*Relation, error) {
	if err := r.requireSameHeading("difference", other); err != nil {
		return nil, err
	}
	var out []Tuple
	for _, t := range r.tuples {
		if !other.Contains(t) {
			out = append(out, t)
		}
	}
	return build(r.heading, out), nil
}

// Intersect returns the tuples present in both relations.
func (r *Relation) Intersect(other *Relation) (*Relation, error) {
	if err := r.requireSameHeading("intersect", other); err != nil {
		return nil, err
	}
	var out []Tuple
	for _, t := range r.tuples {
		if other.Contains(t) {
			out = append(out, t)
		}
	}
	return build(r.heading, out), nil
}

// group partitions the members by their projection onto keys, preserving
// first-seen order of the groups.
func (r *Relation) group(keys []string) (order []Tuple, members map[string][]Tuple) {
	members = make(map[string][]Tuple)
	for _, t := range r.tuples {
		k := t.Project(keys...)
		if _, seen := members[k.Key()]; !seen {
			order = append(order, k)
		}
		members[k.Key()] = append(members[k.Key()], t)
	}
	return order, members
}

func checkAggregateNames(heading Heading, aggs []Aggregate) error {
	seen := make(map[string]bool, len(aggs))
	for _, a := range aggs {
		if heading.Contains(a.Name) || seen[a.Name] {
			return newError(ErrCodeDuplicateAttribute, "attribute %q already exists", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Summarize groups tuples by keys and emits one tuple per group holding the
// key values and each aggregate's result. Aggregates receive the group as a
// relation with the full original heading.
func (r *Relation) Summarize(keys []string, aggs []Aggregate) (*Relation, error) {
	if err := r.requireAttrs(keys); err != nil {
		return nil, err
	}
	keyHeading := NewHeading(keys...)
	if err := checkAggregateNames(keyHeading, aggs); err != nil {
		return nil, err
	}
	order, members := r.group(keyHeading)
	out := make([]Tuple, 0, len(order))
	for _, k := range order {
		group := build(r.heading, members[k.Key()])
		values := k.Fields()
		for _, a := range aggs {
			v, err := a.Fn(group)
			if err != nil {
				return nil, err
			}
			values[a.Name] = v
		}
		out = append(out, newTupleOwned(values))
	}
	heading := keyHeading
	for _, a := range aggs {
		heading = append(heading, a.Name)
	}
	return build(NewHeading(heading...), out), nil
}

// SummarizeAll collapses the whole relation into exactly one tuple of
// aggregate results, even when the relation is empty.
func (r *Relation) SummarizeAll(aggs []Aggregate) (*Relation, error) {
	if err := checkAggregateNames(nil, aggs); err != nil {
		return nil, err
	}
	values := make(map[string]Value, len(aggs))
	names := make([]string, 0, len(aggs))
	for _, a := range aggs {
		v, err := a.Fn(r)
		if err != nil {
			return nil, err
		}
		values[a.Name] = v
		names = append(names, a.Name)
	}
	return build(NewHeading(names...), []Tuple{newTupleOwned(values)}), nil
}

// NestBy groups tuples by keys and nests each group's non-key attributes
// under name.
func (r *Relation) NestBy(keys []string, name string) (*Relation, error) {
	if err := r.requireAttrs(keys); err != nil {
		return nil, err
	}
	keyHeading := NewHeading(keys...)
	if keyHeading.Contains(name) {
		return nil, newError(ErrCodeDuplicateAttribute, "attribute %q already exists", name)
	}
	nestedHeading := r.heading.Minus(keyHeading)
	order, members := r.group(keyHeading)
	out := make([]Tuple, 0, len(order))
	for _, k := range order {
		group := members[k.Key()]
		stripped := make([]Tuple, len(group))
		for i, t := range group {
			stripped[i] = t.Without(keyHeading...)
		}
		out = append(out, k.With(name, build(nestedHeading, stripped)))
	}
	return build(keyHeading.Union(Heading{name}), out), nil
}

// Take returns up to n members in storage order. Storage order is
// unspecified, so the selection is not deterministic across constructions;
// sort first when the choice matters.
func (r *Relation) Take(n int) ([]Tuple, error) {
	return TakeTuples(r.tuples, n)
}

// TakeTuples returns the first n elements of a sequence.
func TakeTuples(tuples []Tuple, n int) ([]Tuple, error) {
	if n < 0 {
		return nil, newError(ErrCodeInvalidArgument, "take count must not be negative, got %d", n)
	}
	if n > len(tuples) {
		n = len(tuples)
	}
	out := make([]Tuple, n)
	copy(out, tuples[:n])
	return out, nil
}
