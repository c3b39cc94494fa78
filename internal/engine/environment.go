package engine

import (
	"maps"
	"slices"

	"github.com/roach88/codd/internal/model"
)

// Environment maps relation names (relvars) to relations.
//
// The Environment rebinds and removes names but never mutates the
// relations themselves. Not safe for concurrent use.
type Environment struct {
	relations map[string]*model.Relation
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{relations: make(map[string]*model.Relation)}
}

// Bind binds name to rel, replacing any previous binding.
func (e *Environment) Bind(name string, rel *model.Relation) {
	e.relations[name] = rel
}

// Lookup returns the relation bound to name.
func (e *Environment) Lookup(name string) (*model.Relation, error) {
	rel, ok := e.relations[name]
	if !ok {
		return nil, errorf(ErrCodeUnknownRelation, "unknown relation: %q", name)
	}
	return rel, nil
}

// Unbind removes name and reports whether it was bound.
func (e *Environment) Unbind(name string) bool {
	if _, ok := e.relations[name]; !ok {
		return false
	}
	delete(e.relations, name)
	return true
}

// Contains reports whether name is bound.
func (e *Environment) Contains(name string) bool {
	_, ok := e.relations[name]
	return ok
}

// Names returns the bound names in sorted order.
func (e *Environment) Names() []string {
	return slices.Sorted(maps.Keys(e.relations))
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	return len(e.relations)
}

// BindAll binds every entry of rels.
func (e *Environment) BindAll(rels map[string]*model.Relation) {
	for name, rel := range rels {
		e.relations[name] = rel
	}
}

// Snapshot returns a copy of the bindings. Relations are shared, not
// copied; they are immutable.
func (e *Environment) Snapshot() map[string]*model.Relation {
	return maps.Clone(e.relations)
}
