// Package ast defines the syntax tree of the codd query language.
//
// The parser produces these nodes; the engine evaluates them. Nothing else
// is shared between the two, so this package is the contract of the
// language front end.
//
// NODE FAMILIES:
//
//   - RelExpr: relation-producing expressions. A chain such as
//     E ? salary > 50000 # [name salary] $ salary- ^ 3 is a left-deep tree:
//     every postfix operator node holds the previous expression in Source.
//   - Expr: scalar expressions evaluated against one tuple (extend
//     computations, comparison operands, set elements, function arguments).
//   - Condition: filter conditions, a Comparison or a BoolOp combining two
//     conditions with & or |.
//   - Statement: what a line of input parses to, a RelExpr or an Assignment.
//
// SEALED INTERFACES:
//
// RelExpr, Expr, Condition and Statement are sealed with marker methods.
// Only types in this package implement them, which lets the engine use
// exhaustive type switches:
//
//	switch n := node.(type) {
//	case *RelName:
//	    // look the name up
//	case *Filter:
//	    // compile n.Cond, evaluate n.Source
//	...
//	}
//
// All nodes are pointers. A node is never mutated after the parser
// returns it.
//
// SOURCE FORM:
//
// String renders any node back to source text in a canonical spacing.
// Parsing the rendered text yields an equal tree, which `codd check` relies
// on to show how a query was understood.
package ast
