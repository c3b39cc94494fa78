package format

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/sample"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func eval(t *testing.T, src string) engine.Result {
	t.Helper()
	env := engine.NewEnvironment()
	sample.Load(env)
	res, err := engine.NewInterpreter(env).Eval(src)
	require.NoError(t, err, src)
	return res
}

func TestRelation_Golden(t *testing.T) {
	g := newGoldie(t)
	g.Assert(t, "employees", []byte(Relation(sample.Employees())+"\n"))
}

func TestResult_NestedGolden(t *testing.T) {
	g := newGoldie(t)
	out := Result(eval(t, "E *: Phone > phones # [name phones]"))
	g.Assert(t, "nested", []byte(out+"\n"))
}

func TestResult_SortedGolden(t *testing.T) {
	g := newGoldie(t)
	out := Result(eval(t, "E # [name salary] $ salary- ^ 3"))
	g.Assert(t, "sorted", []byte(out+"\n"))
}

func TestRelation_Empty(t *testing.T) {
	assert.Equal(t, "(empty relation)", Relation(model.Empty(nil)))

	want := "+------+\n| name |\n+------+\n+------+"
	assert.Equal(t, want, Relation(model.Empty(model.NewHeading("name"))))
}

func TestTuples_Empty(t *testing.T) {
	assert.Equal(t, "(empty array)", Tuples(nil))
	assert.Equal(t, "(empty array)", Result(&engine.TuplesResult{}))
}

func TestTuples_KeepsOrder(t *testing.T) {
	ts := []model.Tuple{
		model.TupleOf(model.P("n", model.Int(2))),
		model.TupleOf(model.P("n", model.Int(1))),
	}
	want := "+---+\n| n |\n+---+\n| 2 |\n| 1 |\n+---+"
	assert.Equal(t, want, Tuples(ts))
}

func TestValue(t *testing.T) {
	tests := []struct {
		name string
		v    model.Value
		want string
	}{
		{"int", model.Int(-3), "-3"},
		{"decimal keeps scale", model.MustDecimal("8000.0"), "8000.0"},
		{"bool", model.Bool(true), "true"},
		{"string unquoted", model.String("Alice"), "Alice"},
		{"empty nested", model.Empty(model.NewHeading("a")), "{}"},
		{
			"nested quotes strings",
			model.MustFromTuples(model.TupleOf(
				model.P("k", model.String("v")),
				model.P("n", model.Int(1)),
			)),
			`{(k: "v", n: 1)}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.v))
		})
	}
}

func TestResult_Scalar(t *testing.T) {
	assert.Equal(t, "5", Result(&engine.ScalarResult{Value: model.Int(5)}))
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, displayWidth("Alice"))
	assert.Equal(t, 4, displayWidth("東京"))
	assert.Equal(t, 3, displayWidth("ｱｲｳ"))
}

func TestRelation_WideRunes(t *testing.T) {
	rel := model.MustFromTuples(model.TupleOf(model.P("city", model.String("東京"))))
	want := "+------+\n| city |\n+------+\n| 東京 |\n+------+"
	assert.Equal(t, want, Relation(rel))
}

func TestData_JSON(t *testing.T) {
	res := &engine.RelationResult{Relation: model.MustFromTuples(model.TupleOf(
		model.P("bonus", model.MustDecimal("8000.0")),
		model.P("name", model.String("Alice")),
	))}
	out, err := json.Marshal(Data(res))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"relation","attributes":["bonus","name"],"tuples":[{"bonus":"8000.0","name":"Alice"}]}`,
		string(out))

	out, err = json.Marshal(Data(&engine.ScalarResult{Value: model.Int(5)}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"scalar","value":5}`, string(out))
}
