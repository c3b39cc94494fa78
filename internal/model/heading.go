package model

import (
	"slices"
	"strings"
)

// Heading is the sorted, duplicate-free attribute set of a relation.
// Use NewHeading to construct one; the zero value is the empty heading.
type Heading []string

// NewHeading returns a sorted heading with duplicates removed.
func NewHeading(names ...string) Heading {
	h := slices.Clone(names)
	slices.Sort(h)
	return Heading(slices.Compact(h))
}

// Contains reports whether name is in the heading.
func (h Heading) Contains(name string) bool {
	_, found := slices.BinarySearch(h, name)
	return found
}

// Equal reports whether both headings hold the same attributes.
func (h Heading) Equal(other Heading) bool {
	return slices.Equal(h, other)
}

// Union returns the attributes in either heading.
func (h Heading) Union(other Heading) Heading {
	return NewHeading(append(slices.Clone(h), other...)...)
}

// Intersect returns the attributes present in both headings.
func (h Heading) Intersect(other Heading) Heading {
	var out Heading
	for _, name := range h {
		if other.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}

// Minus returns the attributes of h not present in other.
func (h Heading) Minus(other Heading) Heading {
	var out Heading
	for _, name := range h {
		if !other.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}

// Missing returns the names that are not in the heading, in input order.
func (h Heading) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if !h.Contains(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func (h Heading) String() string {
	return "[" + strings.Join(h, " ") + "]"
}
