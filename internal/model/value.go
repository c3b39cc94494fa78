package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the variant of a Value.
// The String form doubles as the workspace type tag.
type Kind int

const (
	KindInt Kind = iota
	KindDecimal
	KindBool
	KindString
	KindRelation
)

var kindNames = [...]string{
	KindInt:      "int",
	KindDecimal:  "Decimal",
	KindBool:     "bool",
	KindString:   "str",
	KindRelation: "Relation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a type tag back to its Kind.
func ParseKind(tag string) (Kind, bool) {
	for k, name := range kindNames {
		if name == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// Value is a sealed interface representing attribute values.
// Only Int, Decimal, Bool, String and *Relation implement this.
type Value interface {
	Kind() Kind
	String() string
	value() // Sealed
}

// Int is a signed integer value.
type Int int64

func (Int) value()           {}
func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Decimal is an arbitrary-precision decimal value.
// Float-form literals and non-integral CSV cells are represented as Decimal.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) value()     {}
func (Decimal) Kind() Kind { return KindDecimal }

// String renders the decimal keeping its scale, so 8000.0 stays "8000.0".
func (d Decimal) String() string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.Decimal.String()
}

// NewDecimal wraps a decimal.Decimal.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

// ParseDecimal parses a decimal literal such as "1.50".
func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}

// MustDecimal parses s or panics. Intended for literals in tests and fixtures.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Bool is a boolean value.
type Bool bool

func (Bool) value()     {}
func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// String is a text value.
type String string

func (String) value()           {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// IsNumeric reports whether v is an Int or a Decimal.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Decimal:
		return true
	}
	return false
}

// ToDecimal returns the numeric value of v as a decimal.Decimal.
// The second result is false when v is not numeric.
func ToDecimal(v Value) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case Int:
		return decimal.NewFromInt(int64(n)), true
	case Decimal:
		return n.Decimal, true
	}
	return decimal.Decimal{}, false
}

// Promote converts a String holding a numeric literal into an Int, or
// failing that a Decimal. Any other value is returned unchanged.
func Promote(v Value) Value {
	s, ok := v.(String)
	if !ok {
		return v
	}
	text := strings.TrimSpace(string(s))
	if text == "" {
		return v
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(n)
	}
	if d, err := decimal.NewFromString(text); err == nil {
		return Decimal{Decimal: d}
	}
	return v
}

// Equal reports whether two values are equal.
// Int and Decimal compare numerically; other kinds must match exactly.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumeric(a) && IsNumeric(b) {
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				return ai == bi
			}
		}
		ad, _ := ToDecimal(a)
		bd, _ := ToDecimal(b)
		return ad.Equal(bd)
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case *Relation:
		bv, ok := b.(*Relation)
		return ok && av.Equal(bv)
	}
	return false
}

// Compare orders two values of compatible kinds: both numeric, both
// strings, or both bools (false before true). Any other combination is a
// type mismatch.
func Compare(a, b Value) (int, error) {
	if IsNumeric(a) && IsNumeric(b) {
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				return cmpInt(int64(ai), int64(bi)), nil
			}
		}
		ad, _ := ToDecimal(a)
		bd, _ := ToDecimal(b)
		return ad.Cmp(bd), nil
	}
	switch av := a.(type) {
	case String:
		if bv, ok := b.(String); ok {
			return strings.Compare(string(av), string(bv)), nil
		}
	case Bool:
		if bv, ok := b.(Bool); ok {
			return cmpBool(bool(av), bool(bv)), nil
		}
	}
	return 0, newError(ErrCodeTypeMismatch, "cannot compare %s %s with %s %s",
		kindOf(a), quoteValue(a), kindOf(b), quoteValue(b))
}

// CompareTotal is a total order over all values, used where output must be
// deterministic regardless of kinds (display ordering, sort tie-breaks).
// Numbers sort before bools, bools before strings, strings before relations.
func CompareTotal(a, b Value) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	if ar, ok := a.(*Relation); ok {
		br := b.(*Relation)
		return strings.Compare(ar.Key(), br.Key())
	}
	c, _ := Compare(a, b)
	return c
}

func kindRank(v Value) int {
	switch v.(type) {
	case Int, Decimal:
		return 0
	case Bool:
		return 1
	case String:
		return 2
	case *Relation:
		return 3
	}
	return 4
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

func quoteValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case String:
		return strconv.Quote(string(val))
	default:
		return val.String()
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
