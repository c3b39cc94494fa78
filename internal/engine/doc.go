// Package engine evaluates codd syntax trees against an Environment of
// named relations.
//
// ARCHITECTURE:
//
// Tree walking with compiled closures:
// Relational nodes are evaluated recursively; every operator delegates to
// the immutable model.Relation API. Scalar expressions and filter
// conditions are compiled once per operator into closures
// (model.Predicate, valueFn) that are then applied to each tuple, so the
// syntax tree is never re-walked per tuple.
//
// Results:
// A statement yields a RelationResult, or a TuplesResult once a sort has
// left the relational world. A sorted sequence can only be taken from or
// displayed; using it where a relation is required is an error.
//
// Scopes:
// Relation names resolve against a scope before the Environment:
//  1. Inside summarize, the leftmost name of an aggregate source denotes
//     the current group.
//  2. Inside extend and filter aggregates, a name that is an attribute of
//     the current tuple denotes that relation-valued attribute.
//  3. Otherwise the name is looked up in the Environment.
//
// Numeric promotion:
// Strings holding numeric text are promoted to Int, then Decimal, when
// they meet arithmetic or a numeric comparison. Arithmetic on a string
// that does not promote is an error rather than a silent coercion.
//
// ERRORS:
//
// Every failure surfaces as *Error with a Code. Errors from the data model
// are re-wrapped at the operator boundary. A failed statement never
// modifies the Environment.
//
// CONCURRENCY:
//
// Evaluation is synchronous and single threaded. Relations are immutable
// and may be shared freely; the Environment is not safe for concurrent use.
package engine
