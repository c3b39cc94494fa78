package engine

import "github.com/roach88/codd/internal/model"

// Result is the outcome of executing a statement.
//
// Sealed: RelationResult, TuplesResult or ScalarResult.
type Result interface {
	result() // Marker method - seals interface to this package
}

// RelationResult is an unordered, duplicate-free relation.
type RelationResult struct {
	Relation *model.Relation
}

// TuplesResult is an ordered sequence produced by sort or take.
// Heading is the attribute set shared by every tuple.
type TuplesResult struct {
	Heading model.Heading
	Tuples  []model.Tuple
}

// ScalarResult is a single value from a scalar expression.
type ScalarResult struct {
	Value model.Value
}

func (*RelationResult) result() {}
func (*TuplesResult) result()   {}
func (*ScalarResult) result()   {}
