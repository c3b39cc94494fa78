package engine

import "github.com/roach88/codd/internal/model"

// scope carries what a relation name can denote besides an Environment
// binding.
//
// group is set while evaluating a summarize aggregate source and applies
// only along the Source chain; right operands and subqueries see a scope
// without it. tuple is the current tuple of an extend or filter aggregate;
// its relation-valued attributes shadow Environment names.
type scope struct {
	group *model.Relation
	tuple model.Tuple
}

// nested returns the scope for operands off the Source chain.
func (s scope) nested() scope {
	return scope{tuple: s.tuple}
}

// resolve finds the relation a name denotes in this scope. ok is false
// when the Environment should be consulted.
func (s scope) resolve(name string) (rel *model.Relation, ok bool, err error) {
	if s.group != nil {
		return s.group, true, nil
	}
	v, found := s.tuple.Get(name)
	if !found {
		return nil, false, nil
	}
	rel, isRel := v.(*model.Relation)
	if !isRel {
		return nil, false, errorf(ErrCodeNotARelation,
			"%s is not a relation-valued attribute (it is %s)", name, v.Kind())
	}
	return rel, true, nil
}
