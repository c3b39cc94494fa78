package engine

import (
	"log/slog"

	"github.com/roach88/codd/internal/ast"
	"github.com/roach88/codd/internal/model"
)

// Executor evaluates statements against an Environment.
type Executor struct {
	env   *Environment
	funcs map[string]Function
	quota TupleQuota
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxTuples limits the size of every intermediate relation.
// Zero means unlimited.
func WithMaxTuples(n int) Option {
	return func(x *Executor) {
		x.quota = NewTupleQuota(n)
	}
}

// WithFunction registers fn under name, replacing a builtin of the same
// name.
func WithFunction(name string, fn Function) Option {
	return func(x *Executor) {
		x.funcs[name] = fn
	}
}

// NewExecutor creates an executor over env.
func NewExecutor(env *Environment, opts ...Option) *Executor {
	x := &Executor{env: env, funcs: builtinFunctions()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Env returns the environment the executor binds into.
func (x *Executor) Env() *Environment {
	return x.env
}

// Execute runs one statement. An assignment binds its relation and
// returns it; any failure leaves the Environment unchanged.
func (x *Executor) Execute(stmt ast.Statement) (Result, error) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		res, err := x.evalRel(s.Expr, scope{})
		if err != nil {
			return nil, err
		}
		rr, ok := res.(*RelationResult)
		if !ok {
			return nil, errorf(ErrCodeNotARelation,
				"cannot assign a sorted sequence to %s: sort produces an ordered sequence, not a relation", s.Name)
		}
		x.env.Bind(s.Name, rr.Relation)
		slog.Debug("relation bound", "name", s.Name, "tuples", rr.Relation.Len())
		return rr, nil
	case ast.RelExpr:
		return x.evalRel(s, scope{})
	case nil:
		return nil, errorf(ErrCodeInvalid, "empty statement")
	}
	return nil, errorf(ErrCodeInvalid, "unsupported statement %T", stmt)
}

// EvalScalar evaluates a scalar expression outside any tuple. Aggregates
// need an explicit source, e.g. #. E or %. (E # salary) salary.
func (x *Executor) EvalScalar(e ast.Expr) (*ScalarResult, error) {
	fn, err := x.compileExpr(e)
	if err != nil {
		return nil, err
	}
	v, err := fn(model.Tuple{})
	if err != nil {
		return nil, err
	}
	return &ScalarResult{Value: v}, nil
}

func (x *Executor) asRelation(node ast.RelExpr, sc scope) (*model.Relation, error) {
	res, err := x.evalRel(node, sc)
	if err != nil {
		return nil, err
	}
	rr, ok := res.(*RelationResult)
	if !ok {
		return nil, errorf(ErrCodeNotARelation, "expected a relation, got a sorted sequence (did you sort?)")
	}
	return rr.Relation, nil
}

// relation wraps an operator's output, applying the tuple quota.
func (x *Executor) relation(op string, rel *model.Relation, err error) (Result, error) {
	if err != nil {
		return nil, wrap(err)
	}
	if err := x.quota.Check(op, rel); err != nil {
		return nil, err
	}
	return &RelationResult{Relation: rel}, nil
}

func (x *Executor) evalRel(node ast.RelExpr, sc scope) (Result, error) {
	switch n := node.(type) {
	case *ast.RelName:
		rel, ok, err := sc.resolve(n.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			if rel, err = x.env.Lookup(n.Name); err != nil {
				return nil, err
			}
		}
		return &RelationResult{Relation: rel}, nil

	case *ast.Filter, *ast.NegatedFilter:
		return x.evalFilter(n, sc)

	case *ast.Project:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.Project(n.Attrs...)
		return x.relation("#", rel, err)

	case *ast.Remove:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.Remove(n.Attrs...)
		return x.relation("#!", rel, err)

	case *ast.NaturalJoin:
		left, right, err := x.operands(n.Source, n.Right, sc)
		if err != nil {
			return nil, err
		}
		return x.relation("*", left.Join(right), nil)

	case *ast.NestJoin:
		left, right, err := x.operands(n.Source, n.Right, sc)
		if err != nil {
			return nil, err
		}
		rel, err := left.NestJoin(right, n.Name)
		return x.relation("*:", rel, err)

	case *ast.Unnest:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.Unnest(n.Name)
		return x.relation("<:", rel, err)

	case *ast.Extend:
		return x.evalExtend(n, sc)

	case *ast.Rename:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		mapping := make(map[string]string, len(n.Pairs))
		for _, p := range n.Pairs {
			if _, dup := mapping[p.Old]; dup {
				return nil, errorf(ErrCodeInvalid, "attribute %q renamed twice", p.Old)
			}
			mapping[p.Old] = p.New
		}
		rel, err := src.Rename(mapping)
		return x.relation("@", rel, err)

	case *ast.Union:
		left, right, err := x.operands(n.Source, n.Right, sc)
		if err != nil {
			return nil, err
		}
		rel, err := left.Union(right)
		return x.relation("|", rel, err)

	case *ast.Difference:
		left, right, err := x.operands(n.Source, n.Right, sc)
		if err != nil {
			return nil, err
		}
		rel, err := left.Difference(right)
		return x.relation("-", rel, err)

	case *ast.Intersect:
		left, right, err := x.operands(n.Source, n.Right, sc)
		if err != nil {
			return nil, err
		}
		rel, err := left.Intersect(right)
		return x.relation("&", rel, err)

	case *ast.Summarize:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		aggs, err := x.groupAggregates(n.Aggregates, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.Summarize(n.Keys, aggs)
		return x.relation("/", rel, err)

	case *ast.SummarizeAll:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		aggs, err := x.groupAggregates(n.Aggregates, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.SummarizeAll(aggs)
		return x.relation("/.", rel, err)

	case *ast.NestBy:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		rel, err := src.NestBy(n.Keys, n.Name)
		return x.relation("/:", rel, err)

	case *ast.Sort:
		src, err := x.asRelation(n.Source, sc)
		if err != nil {
			return nil, err
		}
		keys := make([]model.SortKey, len(n.Keys))
		for i, k := range n.Keys {
			keys[i] = model.SortKey{Attr: k.Attr, Descending: k.Descending}
		}
		tuples, err := src.Sort(keys...)
		if err != nil {
			return nil, wrap(err)
		}
		return &TuplesResult{Heading: src.Heading(), Tuples: tuples}, nil

	case *ast.Take:
		res, err := x.evalRel(n.Source, sc)
		if err != nil {
			return nil, err
		}
		switch r := res.(type) {
		case *RelationResult:
			tuples, err := r.Relation.Take(n.Count)
			if err != nil {
				return nil, wrap(err)
			}
			return &TuplesResult{Heading: r.Relation.Heading(), Tuples: tuples}, nil
		case *TuplesResult:
			tuples, err := model.TakeTuples(r.Tuples, n.Count)
			if err != nil {
				return nil, wrap(err)
			}
			return &TuplesResult{Heading: r.Heading, Tuples: tuples}, nil
		}
		return nil, errorf(ErrCodeNotARelation, "^ (take) requires a relation or sorted sequence")
	}
	return nil, errorf(ErrCodeInvalid, "unsupported expression %T", node)
}

// operands evaluates the source and right operand of a binary operator.
func (x *Executor) operands(source, right ast.RelExpr, sc scope) (*model.Relation, *model.Relation, error) {
	left, err := x.asRelation(source, sc)
	if err != nil {
		return nil, nil, err
	}
	r, err := x.asRelation(right, sc.nested())
	if err != nil {
		return nil, nil, err
	}
	return left, r, nil
}

func (x *Executor) evalFilter(node ast.RelExpr, sc scope) (Result, error) {
	var (
		source  ast.RelExpr
		cond    ast.Condition
		negated bool
	)
	switch n := node.(type) {
	case *ast.Filter:
		source, cond = n.Source, n.Cond
	case *ast.NegatedFilter:
		source, cond, negated = n.Source, n.Cond, true
	}

	src, err := x.asRelation(source, sc)
	if err != nil {
		return nil, err
	}
	pred, err := x.compileCondition(cond, sc.nested())
	if err != nil {
		return nil, err
	}
	op := "?"
	if negated {
		op = "?!"
		inner := pred
		pred = func(t model.Tuple) (bool, error) {
			ok, err := inner(t)
			return !ok, err
		}
	}
	rel, err := src.Where(pred)
	return x.relation(op, rel, err)
}

func (x *Executor) evalExtend(n *ast.Extend, sc scope) (Result, error) {
	src, err := x.asRelation(n.Source, sc)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(n.Computations))
	fns := make([]valueFn, len(n.Computations))
	for i, c := range n.Computations {
		names[i] = c.Name
		if fns[i], err = x.compileExpr(c.Expr); err != nil {
			return nil, err
		}
	}
	rel, err := src.Extend(names, func(t model.Tuple) (map[string]model.Value, error) {
		extra := make(map[string]model.Value, len(fns))
		for i, fn := range fns {
			v, err := fn(t)
			if err != nil {
				return nil, err
			}
			extra[names[i]] = v
		}
		return extra, nil
	})
	return x.relation("+", rel, err)
}

// groupAggregates builds the per-group functions of a summarize. Inside
// them an omitted source is the group itself, and an explicit source is
// evaluated with the group standing in for its leftmost name.
func (x *Executor) groupAggregates(named []ast.NamedAggregate, sc scope) ([]model.Aggregate, error) {
	aggs := make([]model.Aggregate, len(named))
	for i, na := range named {
		call := na.Call
		if call.Func.NeedsAttr() && call.Attr == "" {
			return nil, errorf(ErrCodeAggregate, "%s requires an attribute name", call.Func)
		}
		aggs[i] = model.Aggregate{
			Name: na.Name,
			Fn: func(group *model.Relation) (model.Value, error) {
				rel := group
				if call.Source != nil {
					var err error
					if rel, err = x.asRelation(call.Source, scope{group: group, tuple: sc.tuple}); err != nil {
						return nil, err
					}
				}
				return applyAggregate(call.Func, call.Attr, rel)
			},
		}
	}
	return aggs, nil
}
