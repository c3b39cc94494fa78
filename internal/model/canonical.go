package model

import (
	"slices"
	"strconv"
	"strings"
)

// Canonical encoding
//
// Every value has a canonical text form used as the identity of tuples and
// relations. Two values are Equal exactly when their encodings match:
//
//	Int, Decimal  "n" + normalized decimal text (8000 and 8000.0 both give "n8000")
//	Bool          "b1" or "b0"
//	String        "s" + Go-quoted text
//	*Relation     "r" + heading + "{" + sorted member tuple keys + "}"
//
// A tuple encodes as "(" followed by quoted attribute names and values in
// heading order, each terminated by ";", and a closing ")".

func appendCanonical(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case Int:
		b.WriteByte('n')
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case Decimal:
		// decimal.String trims trailing zeros, which normalizes the scale.
		b.WriteByte('n')
		b.WriteString(val.Decimal.String())
	case Bool:
		if val {
			b.WriteString("b1")
		} else {
			b.WriteString("b0")
		}
	case String:
		b.WriteByte('s')
		b.WriteString(strconv.Quote(string(val)))
	case *Relation:
		b.WriteByte('r')
		b.WriteString(val.Key())
	}
}

// canonicalTuple builds the key of a tuple from its attribute map.
func canonicalTuple(values map[string]Value) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteByte('(')
	for _, name := range names {
		b.WriteString(strconv.Quote(name))
		b.WriteByte('=')
		appendCanonical(&b, values[name])
		b.WriteByte(';')
	}
	b.WriteByte(')')
	return b.String()
}

// canonicalRelation builds the key of a relation from its heading and the
// keys of its members. Member order does not affect the result.
func canonicalRelation(heading Heading, tuples []Tuple) string {
	keys := make([]string, len(tuples))
	for i, t := range tuples {
		keys[i] = t.Key()
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteByte('[')
	for i, name := range heading {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(name))
	}
	b.WriteString("]{")
	b.WriteString(strings.Join(keys, ","))
	b.WriteByte('}')
	return b.String()
}

// CanonicalValue returns the canonical encoding of a single value.
func CanonicalValue(v Value) string {
	var b strings.Builder
	appendCanonical(&b, v)
	return b.String()
}
