package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/model"
)

type binder map[string]*model.Relation

func (b binder) Bind(name string, rel *model.Relation) { b[name] = rel }

func TestLoad(t *testing.T) {
	b := binder{}
	Load(b)

	require.Len(t, b, 4)
	assert.Equal(t, 5, b["E"].Len())
	assert.Equal(t, 2, b["D"].Len())
	assert.Equal(t, 3, b["Phone"].Len())
	assert.Equal(t, 1, b["ContractorPay"].Len())
}

func TestEmployees_Heading(t *testing.T) {
	assert.Equal(t, model.NewHeading("dept_id", "emp_id", "name", "role", "salary"), Employees().Heading())
}

func TestRelations_Fresh(t *testing.T) {
	a, b := Relations(), Relations()
	assert.NotSame(t, a["E"], b["E"])
	assert.True(t, a["E"].Equal(b["E"]))
}
