package model

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Tuple is an immutable mapping from attribute names to values.
// Tuples are compared by value; use Equal or Key, never ==.
type Tuple struct {
	values map[string]Value
	key    string
}

// NewTuple creates a tuple from an attribute map. The map is copied.
func NewTuple(values map[string]Value) Tuple {
	return newTupleOwned(maps.Clone(values))
}

// newTupleOwned takes ownership of values without copying.
func newTupleOwned(values map[string]Value) Tuple {
	if values == nil {
		values = map[string]Value{}
	}
	return Tuple{values: values, key: canonicalTuple(values)}
}

// Pair is a single attribute/value binding for tuple construction.
type Pair struct {
	Attr  string
	Value Value
}

// P is a shorthand for Pair.
// Example: TupleOf(P("name", String("Alice")), P("salary", Int(80000)))
func P(attr string, v Value) Pair {
	return Pair{Attr: attr, Value: v}
}

// TupleOf creates a tuple from attribute/value pairs.
func TupleOf(pairs ...Pair) Tuple {
	values := make(map[string]Value, len(pairs))
	for _, p := range pairs {
		values[p.Attr] = p.Value
	}
	return newTupleOwned(values)
}

// Get returns the value of attr and whether it is present.
func (t Tuple) Get(attr string) (Value, bool) {
	v, ok := t.values[attr]
	return v, ok
}

// Value returns the value of attr, or nil if absent.
func (t Tuple) Value(attr string) Value {
	return t.values[attr]
}

// Has reports whether the tuple carries attr.
func (t Tuple) Has(attr string) bool {
	_, ok := t.values[attr]
	return ok
}

// Len returns the number of attributes.
func (t Tuple) Len() int {
	return len(t.values)
}

// Heading returns the tuple's attribute names, sorted.
func (t Tuple) Heading() Heading {
	names := make(Heading, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Fields returns a copy of the attribute map.
func (t Tuple) Fields() map[string]Value {
	return maps.Clone(t.values)
}

// Project keeps only the named attributes. Names the tuple does not carry
// are ignored; Relation.Project validates names against the heading.
func (t Tuple) Project(attrs ...string) Tuple {
	values := make(map[string]Value, len(attrs))
	for _, a := range attrs {
		if v, ok := t.values[a]; ok {
			values[a] = v
		}
	}
	return newTupleOwned(values)
}

// Without drops the named attributes.
func (t Tuple) Without(attrs ...string) Tuple {
	values := maps.Clone(t.values)
	for _, a := range attrs {
		delete(values, a)
	}
	return newTupleOwned(values)
}

// Extend adds new attributes. It fails if any of them already exists.
func (t Tuple) Extend(extra map[string]Value) (Tuple, error) {
	values := maps.Clone(t.values)
	if values == nil {
		values = make(map[string]Value, len(extra))
	}
	for name, v := range extra {
		if _, exists := values[name]; exists {
			return Tuple{}, newError(ErrCodeDuplicateAttribute, "attribute %q already exists", name)
		}
		values[name] = v
	}
	return newTupleOwned(values), nil
}

// With returns a copy of the tuple with attr set to v, replacing any
// existing value.
func (t Tuple) With(attr string, v Value) Tuple {
	values := maps.Clone(t.values)
	if values == nil {
		values = map[string]Value{}
	}
	values[attr] = v
	return newTupleOwned(values)
}

// Rename relabels attributes according to mapping (old to new).
// Attributes absent from mapping keep their names.
func (t Tuple) Rename(mapping map[string]string) Tuple {
	values := make(map[string]Value, len(t.values))
	for name, v := range t.values {
		if to, ok := mapping[name]; ok {
			name = to
		}
		values[name] = v
	}
	return newTupleOwned(values)
}

// Matches reports whether both tuples agree on every attribute they share.
// Tuples with no shared attributes match vacuously.
func (t Tuple) Matches(other Tuple) bool {
	small, large := t.values, other.values
	if len(small) > len(large) {
		small, large = large, small
	}
	for name, v := range small {
		if ov, ok := large[name]; ok && !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Merge returns the union of both attribute sets. Callers must have checked
// Matches; on shared attributes the receiver's values win.
func (t Tuple) Merge(other Tuple) Tuple {
	values := make(map[string]Value, len(t.values)+len(other.values))
	maps.Copy(values, other.values)
	maps.Copy(values, t.values)
	return newTupleOwned(values)
}

// Equal reports whether both tuples have the same attributes and values.
func (t Tuple) Equal(other Tuple) bool {
	return t.Key() == other.Key()
}

// Key returns the canonical encoding of the tuple.
func (t Tuple) Key() string {
	if t.values == nil {
		return "()"
	}
	return t.key
}

// String renders the tuple inline, attributes sorted, strings quoted:
// (name: "Alice", salary: 80000)
func (t Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, name := range t.Heading() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		if s, ok := t.values[name].(String); ok {
			b.WriteString(strconv.Quote(string(s)))
		} else {
			b.WriteString(t.values[name].String())
		}
	}
	b.WriteByte(')')
	return b.String()
}
