// Package model provides the immutable relational data model for codd.
//
// This package contains the value types (Int, Decimal, Bool, String and
// nested *Relation), Tuple, Heading and Relation together with the core
// algebraic operators. It imports nothing internal; every other package
// builds on it.
//
// Key design constraints:
//   - Values, tuples and relations are never mutated after construction
//   - Every tuple in a Relation has exactly the Relation's heading
//   - Equality is value-based and recursive through nested relations
//   - Equal values produce identical canonical keys and hashes
//   - Relation iteration order is construction order and carries no meaning
package model
