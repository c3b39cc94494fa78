package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/model"
)

func TestScope_Resolve(t *testing.T) {
	team := model.MustFromTuples(model.TupleOf(model.P("n", model.Int(1))))
	group := model.MustFromTuples(model.TupleOf(model.P("g", model.Int(1))))
	tup := model.TupleOf(model.P("team", team), model.P("name", model.String("x")))

	t.Run("empty scope defers to environment", func(t *testing.T) {
		_, ok, err := scope{}.resolve("E")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("group wins", func(t *testing.T) {
		rel, ok, err := scope{group: group, tuple: tup}.resolve("team")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Same(t, group, rel)
	})

	t.Run("tuple attribute", func(t *testing.T) {
		rel, ok, err := scope{tuple: tup}.resolve("team")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Same(t, team, rel)
	})

	t.Run("scalar attribute", func(t *testing.T) {
		_, _, err := scope{tuple: tup}.resolve("name")
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeNotARelation))
		assert.Equal(t, "name is not a relation-valued attribute (it is str)", err.Error())
	})

	t.Run("absent attribute", func(t *testing.T) {
		_, ok, err := scope{tuple: tup}.resolve("E")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestScope_Nested(t *testing.T) {
	group := model.MustFromTuples(model.TupleOf(model.P("g", model.Int(1))))
	tup := model.TupleOf(model.P("name", model.String("x")))

	n := scope{group: group, tuple: tup}.nested()
	assert.Nil(t, n.group)
	assert.True(t, n.tuple.Equal(tup))
}
