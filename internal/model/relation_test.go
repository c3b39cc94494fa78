package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

func emp(id int64, name string, salary int64, dept int64) Tuple {
	return TupleOf(
		P("emp_id", Int(id)),
		P("name", String(name)),
		P("salary", Int(salary)),
		P("dept_id", Int(dept)),
	)
}

func employees() *Relation {
	return MustFromTuples(
		emp(1, "Alice", 80000, 10),
		emp(2, "Bob", 60000, 10),
		emp(3, "Carol", 55000, 20),
		emp(4, "Dave", 90000, 10),
		emp(5, "Eve", 45000, 20),
	)
}

func departments() *Relation {
	return MustFromTuples(
		TupleOf(P("dept_id", Int(10)), P("dept_name", String("Engineering"))),
		TupleOf(P("dept_id", Int(20)), P("dept_name", String("Sales"))),
	)
}

func phones() *Relation {
	return MustFromTuples(
		TupleOf(P("emp_id", Int(1)), P("phone", String("555-1234"))),
		TupleOf(P("emp_id", Int(3)), P("phone", String("555-5678"))),
		TupleOf(P("emp_id", Int(3)), P("phone", String("555-9999"))),
	)
}

func names(t *testing.T, r *Relation) []string {
	t.Helper()
	var out []string
	for _, tup := range r.Ordered() {
		out = append(out, string(tup.Value("name").(String)))
	}
	return out
}

// =============================================================================
// Tuple
// =============================================================================

func TestTupleEqualityIgnoresConstructionOrder(t *testing.T) {
	a := TupleOf(P("a", Int(1)), P("b", String("x")))
	b := TupleOf(P("b", String("x")), P("a", Int(1)))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	c := TupleOf(P("a", Int(2)), P("b", String("x")))
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestTupleExtendRejectsExisting(t *testing.T) {
	tup := TupleOf(P("a", Int(1)))
	_, err := tup.Extend(map[string]Value{"a": Int(2)})
	require.Error(t, err)
	assert.True(t, IsModelError(err, ErrCodeDuplicateAttribute))

	ext, err := tup.Extend(map[string]Value{"b": Int(2)})
	require.NoError(t, err)
	assert.Equal(t, Heading{"a", "b"}, ext.Heading())
	assert.Equal(t, 1, tup.Len(), "receiver must not change")
}

func TestTupleMatchesAndMerge(t *testing.T) {
	a := TupleOf(P("id", Int(1)), P("x", String("a")))
	b := TupleOf(P("id", Int(1)), P("y", String("b")))
	c := TupleOf(P("id", Int(2)), P("y", String("c")))
	d := TupleOf(P("z", Int(9)))

	assert.True(t, a.Matches(b))
	assert.False(t, a.Matches(c))
	assert.True(t, a.Matches(d), "no shared attributes matches vacuously")

	merged := a.Merge(b)
	assert.Equal(t, Heading{"id", "x", "y"}, merged.Heading())
}

func TestTupleRenameAndString(t *testing.T) {
	tup := TupleOf(P("pay", Int(70000)), P("name", String("Frank")))
	renamed := tup.Rename(map[string]string{"pay": "salary"})
	assert.Equal(t, `(name: "Frank", salary: 70000)`, renamed.String())
}

// =============================================================================
// Construction
// =============================================================================

func TestNewRejectsHeadingMismatch(t *testing.T) {
	_, err := New(NewHeading("a", "b"), TupleOf(P("a", Int(1))))
	require.Error(t, err)
	assert.True(t, IsModelError(err, ErrCodeHeadingMismatch))
}

func TestFromTuplesDeduplicates(t *testing.T) {
	r := MustFromTuples(
		TupleOf(P("a", Int(1))),
		TupleOf(P("a", Int(1))),
		TupleOf(P("a", MustDecimal("1.0"))),
	)
	assert.Equal(t, 1, r.Len())
}

func TestEmptyRelationKeepsHeading(t *testing.T) {
	r := Empty(NewHeading("b", "a"))
	assert.Equal(t, Heading{"a", "b"}, r.Heading())
	assert.True(t, r.IsEmpty())
	assert.False(t, r.Equal(Empty(NewHeading("a"))))
}

func TestRelationEqualityAndHash(t *testing.T) {
	a := employees()
	b := MustFromTuples(employees().Ordered()...)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), departments().Hash())
}

// =============================================================================
// Operators
// =============================================================================

func TestProject(t *testing.T) {
	r, err := employees().Project("dept_id")
	require.NoError(t, err)
	assert.Equal(t, Heading{"dept_id"}, r.Heading())
	assert.Equal(t, 2, r.Len())

	_, err = employees().Project("nope")
	require.Error(t, err)
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))
}

func TestProjectNeverGrows(t *testing.T) {
	src := employees()
	for _, attrs := range [][]string{{"name"}, {"dept_id"}, {"salary", "dept_id"}, {}} {
		r, err := src.Project(attrs...)
		require.NoError(t, err)
		assert.Equal(t, NewHeading(attrs...), r.Heading())
		assert.LessOrEqual(t, r.Len(), src.Len())
	}
}

func TestRemove(t *testing.T) {
	r, err := employees().Remove("salary", "emp_id")
	require.NoError(t, err)
	assert.Equal(t, Heading{"dept_id", "name"}, r.Heading())

	_, err = employees().Remove("bogus")
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))
}

func TestWhereIsIdempotent(t *testing.T) {
	pred := func(t Tuple) (bool, error) {
		c, err := Compare(t.Value("salary"), Int(50000))
		return c > 0, err
	}
	once, err := employees().Where(pred)
	require.NoError(t, err)
	twice, err := once.Where(pred)
	require.NoError(t, err)

	assert.Equal(t, 4, once.Len())
	assert.True(t, once.Equal(twice))
}

func TestJoin(t *testing.T) {
	r := employees().Join(departments())
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, Heading{"dept_id", "dept_name", "emp_id", "name", "salary"}, r.Heading())
	for _, tup := range r.Tuples() {
		want := String("Sales")
		if tup.Value("dept_id") == Int(10) {
			want = String("Engineering")
		}
		assert.Equal(t, want, tup.Value("dept_name"))
	}
}

func TestNestJoin(t *testing.T) {
	r, err := employees().NestJoin(phones(), "phones")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len())

	counts := map[int64]int{}
	for _, tup := range r.Tuples() {
		nested := tup.Value("phones").(*Relation)
		assert.Equal(t, Heading{"phone"}, nested.Heading())
		counts[int64(tup.Value("emp_id").(Int))] = nested.Len()
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 0, 3: 2, 4: 0, 5: 0}, counts)
}

func TestNestJoinUnnestRoundTrip(t *testing.T) {
	withPhones, err := employees().Where(func(t Tuple) (bool, error) {
		id := t.Value("emp_id").(Int)
		return id == 1 || id == 3, nil
	})
	require.NoError(t, err)

	nested, err := withPhones.NestJoin(phones(), "n")
	require.NoError(t, err)
	unnested, err := nested.Unnest("n")
	require.NoError(t, err)

	assert.True(t, unnested.Equal(withPhones.Join(phones())))
}

func TestUnnestDropsEmptyNests(t *testing.T) {
	nested, err := employees().NestJoin(phones(), "phones")
	require.NoError(t, err)
	r, err := nested.Unnest("phones")
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	assert.ElementsMatch(t, []string{"Alice", "Carol", "Carol"}, names(t, r))
}

func TestUnnestKeepsNestedHeadingWhenAllNestsEmpty(t *testing.T) {
	nested, err := employees().NestJoin(phones(), "phones")
	require.NoError(t, err)
	bob, err := nested.Where(func(t Tuple) (bool, error) {
		return t.Value("name") == String("Bob"), nil
	})
	require.NoError(t, err)

	r, err := bob.Unnest("phones")
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Equal(t, NewHeading("dept_id", "emp_id", "name", "phone", "salary"), r.Heading())
}

func TestUnnestEmptySource(t *testing.T) {
	nested, err := employees().NestJoin(phones(), "phones")
	require.NoError(t, err)
	none, err := nested.Where(func(Tuple) (bool, error) { return false, nil })
	require.NoError(t, err)

	r, err := none.Unnest("phones")
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Equal(t, NewHeading("dept_id", "emp_id", "name", "salary"), r.Heading())
}

func TestUnnestRejectsMixedNestedHeadings(t *testing.T) {
	r := MustFromTuples(
		TupleOf(P("id", Int(1)), P("n", MustFromTuples(TupleOf(P("a", Int(1)))))),
		TupleOf(P("id", Int(2)), P("n", MustFromTuples(TupleOf(P("b", Int(2)))))),
	)

	_, err := r.Unnest("n")
	require.Error(t, err)
	assert.True(t, IsModelError(err, ErrCodeHeadingMismatch))
}

func TestUnnestRequiresRelation(t *testing.T) {
	_, err := employees().Unnest("name")
	require.Error(t, err)
	assert.True(t, IsModelError(err, ErrCodeTypeMismatch))
}

func TestExtend(t *testing.T) {
	r, err := employees().Extend([]string{"double"}, func(t Tuple) (map[string]Value, error) {
		return map[string]Value{"double": t.Value("salary").(Int) * 2}, nil
	})
	require.NoError(t, err)
	assert.True(t, r.Heading().Contains("double"))

	_, err = employees().Extend([]string{"salary"}, func(Tuple) (map[string]Value, error) {
		return nil, nil
	})
	assert.True(t, IsModelError(err, ErrCodeDuplicateAttribute))
}

func TestRename(t *testing.T) {
	r, err := employees().Rename(map[string]string{"salary": "pay"})
	require.NoError(t, err)
	assert.True(t, r.Heading().Contains("pay"))
	assert.False(t, r.Heading().Contains("salary"))

	_, err = employees().Rename(map[string]string{"wage": "pay"})
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))

	_, err = employees().Rename(map[string]string{"salary": "name"})
	assert.True(t, IsModelError(err, ErrCodeDuplicateAttribute))
}

func TestSetOperations(t *testing.T) {
	ids, err := employees().Project("emp_id")
	require.NoError(t, err)
	phoneIDs, err := phones().Project("emp_id")
	require.NoError(t, err)

	union, err := ids.Union(phoneIDs)
	require.NoError(t, err)
	assert.LessOrEqual(t, union.Len(), ids.Len()+phoneIDs.Len())
	assert.Equal(t, 5, union.Len())

	diff, err := ids.Difference(phoneIDs)
	require.NoError(t, err)
	assert.Equal(t, 3, diff.Len())
	for _, tup := range diff.Tuples() {
		assert.False(t, phoneIDs.Contains(tup))
	}

	inter, err := ids.Intersect(phoneIDs)
	require.NoError(t, err)
	assert.Equal(t, 2, inter.Len())
	for _, tup := range inter.Tuples() {
		assert.True(t, ids.Contains(tup))
	}
}

func TestSetOperationsRequireSameHeading(t *testing.T) {
	_, err := employees().Union(departments())
	assert.True(t, IsModelError(err, ErrCodeHeadingMismatch))
	_, err = employees().Difference(departments())
	assert.True(t, IsModelError(err, ErrCodeHeadingMismatch))
	_, err = employees().Intersect(departments())
	assert.True(t, IsModelError(err, ErrCodeHeadingMismatch))
}

func countAgg(name string) Aggregate {
	return Aggregate{Name: name, Fn: func(g *Relation) (Value, error) {
		return Int(g.Len()), nil
	}}
}

func TestSummarize(t *testing.T) {
	var groupHeadings []Heading
	headingAgg := Aggregate{Name: "width", Fn: func(g *Relation) (Value, error) {
		groupHeadings = append(groupHeadings, g.Heading())
		return Int(len(g.Heading())), nil
	}}

	r, err := employees().Summarize([]string{"dept_id"}, []Aggregate{countAgg("n"), headingAgg})
	require.NoError(t, err)
	assert.Equal(t, Heading{"dept_id", "n", "width"}, r.Heading())
	assert.Equal(t, 2, r.Len())

	for _, tup := range r.Tuples() {
		if tup.Value("dept_id") == Int(10) {
			assert.Equal(t, Int(3), tup.Value("n"))
		} else {
			assert.Equal(t, Int(2), tup.Value("n"))
		}
	}
	for _, h := range groupHeadings {
		assert.Equal(t, employees().Heading(), h, "groups keep the full heading")
	}

	_, err = employees().Summarize([]string{"nope"}, nil)
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))
}

func TestSummarizeAll(t *testing.T) {
	r, err := employees().SummarizeAll([]Aggregate{countAgg("n")})
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, Int(5), r.Tuples()[0].Value("n"))

	empty, err := Empty(NewHeading("a")).SummarizeAll([]Aggregate{countAgg("n")})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Len())
}

func TestNestBy(t *testing.T) {
	r, err := employees().NestBy([]string{"dept_id"}, "team")
	require.NoError(t, err)
	assert.Equal(t, Heading{"dept_id", "team"}, r.Heading())
	for _, tup := range r.Tuples() {
		team := tup.Value("team").(*Relation)
		assert.False(t, team.Heading().Contains("dept_id"))
		if tup.Value("dept_id") == Int(10) {
			assert.Equal(t, 3, team.Len())
		} else {
			assert.Equal(t, 2, team.Len())
		}
	}

	_, err = employees().NestBy([]string{"nope"}, "team")
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))
}

func TestNestedRelationsCompareStructurally(t *testing.T) {
	a, err := employees().NestBy([]string{"dept_id"}, "team")
	require.NoError(t, err)
	b, err := MustFromTuples(employees().Ordered()...).NestBy([]string{"dept_id"}, "team")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

// =============================================================================
// Sort and take
// =============================================================================

func TestSortDescending(t *testing.T) {
	seq, err := employees().Sort(SortKey{Attr: "salary", Descending: true})
	require.NoError(t, err)
	var got []string
	for _, tup := range seq {
		got = append(got, string(tup.Value("name").(String)))
	}
	assert.Equal(t, []string{"Dave", "Alice", "Bob", "Carol", "Eve"}, got)
}

func TestSortComposite(t *testing.T) {
	seq, err := employees().Sort(SortKey{Attr: "dept_id"}, SortKey{Attr: "salary", Descending: true})
	require.NoError(t, err)
	var got []string
	for _, tup := range seq {
		got = append(got, string(tup.Value("name").(String)))
	}
	assert.Equal(t, []string{"Dave", "Alice", "Bob", "Carol", "Eve"}, got)

	byName, err := employees().Sort(SortKey{Attr: "name", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, String("Eve"), byName[0].Value("name"))
}

func TestSortTiesAreDeterministic(t *testing.T) {
	a, err := employees().Sort(SortKey{Attr: "dept_id"})
	require.NoError(t, err)
	b, err := MustFromTuples(employees().Ordered()...).Sort(SortKey{Attr: "dept_id"})
	require.NoError(t, err)
	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].Equal(b[i]))
	}
}

func TestSortErrors(t *testing.T) {
	_, err := employees().Sort(SortKey{Attr: "bogus"})
	assert.True(t, IsModelError(err, ErrCodeUnknownAttribute))

	mixed := MustFromTuples(TupleOf(P("v", Int(1))), TupleOf(P("v", String("x"))))
	_, err = mixed.Sort(SortKey{Attr: "v"})
	assert.True(t, IsModelError(err, ErrCodeTypeMismatch))
}

func TestTake(t *testing.T) {
	seq, err := employees().Sort(SortKey{Attr: "salary", Descending: true})
	require.NoError(t, err)
	top, err := TakeTuples(seq, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, String("Bob"), top[2].Value("name"))

	all, err := employees().Take(10)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = TakeTuples(seq, -1)
	assert.True(t, IsModelError(err, ErrCodeInvalidArgument))
}
