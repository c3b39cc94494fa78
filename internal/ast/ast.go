package ast

// Node is any syntax tree node.
type Node interface {
	node()
}

// Statement is what one line of input parses to: a RelExpr or an
// *Assignment.
type Statement interface {
	Node
	statementNode()
}

// RelExpr is a relation-producing expression.
//
// Every variant except RelName carries the expression it applies to in
// Source. Sort and Take produce ordered sequences rather than relations;
// the engine rejects them where a relation is required.
type RelExpr interface {
	Statement
	relNode()
}

// Expr is a scalar expression evaluated against a single tuple.
type Expr interface {
	Node
	exprNode()
}

// Condition is a filter condition: *Comparison or *BoolOp.
type Condition interface {
	Node
	conditionNode()
}

// AggFunc names an aggregate function by its operator symbol.
type AggFunc string

const (
	AggCount AggFunc = "#."
	AggSum   AggFunc = "+."
	AggMax   AggFunc = ">."
	AggMin   AggFunc = "<."
	AggMean  AggFunc = "%."
)

// NeedsAttr reports whether the aggregate reads an attribute value.
// Only count works on tuples alone.
func (f AggFunc) NeedsAttr() bool {
	return f != AggCount
}

// Comparison operators.
const (
	OpEq = "="
	OpNe = "!="
	OpGt = ">"
	OpLt = "<"
	OpGe = ">="
	OpLe = "<="
)

// Boolean connectives.
const (
	OpAnd = "&"
	OpOr  = "|"
)

// ============================================================================
// Scalar expressions
// ============================================================================

// IntLit is an integer literal. Negative literals are folded by the parser.
type IntLit struct {
	Value int64
}

// FloatLit is a fractional literal. The source text is kept so the engine
// can build an exact decimal from it.
type FloatLit struct {
	Text string
}

// StringLit is a double-quoted string literal with escapes resolved.
type StringLit struct {
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// AttrRef references an attribute of the current tuple. Parts has more
// than one element for dotted references such as team.salary.
type AttrRef struct {
	Parts []string
}

// Name returns the dotted form of the reference.
func (a *AttrRef) Name() string {
	return joinDotted(a.Parts)
}

// BinOp is arithmetic: Op is one of + - * /.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// SetLit is a set of constants on the right of = or !=.
type SetLit struct {
	Elems []Expr
}

// AggregateCall applies an aggregate function to a relation.
//
// Source is nil when the relation is implied by context (the group inside
// summarize). Attr is empty for count and required for the others.
//
// Forms:
//
//	#.                 count of the implied relation
//	#. team            count of relation team
//	+. salary          sum of salary over the implied relation
//	>. team.salary     max of salary over relation team
//	#. (team ? x > 1)  count of a computed relation
//	+. (team ? x > 1) salary
type AggregateCall struct {
	Func   AggFunc
	Attr   string
	Source RelExpr
}

// Subquery is a parenthesized relational expression used as a value, on
// the right of a comparison.
type Subquery struct {
	Query RelExpr
}

// Ternary is ? cond then else.
type Ternary struct {
	Cond Condition
	Then Expr
	Else Expr
}

// FuncCall is name(args...).
type FuncCall struct {
	Name string
	Args []Expr
}

// ============================================================================
// Conditions
// ============================================================================

// Comparison is Left Op Right. Left is an *AttrRef or an *AggregateCall.
type Comparison struct {
	Left  Expr
	Op    string
	Right Expr
}

// BoolOp combines two conditions with & or |.
type BoolOp struct {
	Op    string
	Left  Condition
	Right Condition
}

// ============================================================================
// Relational expressions
// ============================================================================

// RelName refers to a bound relation (or, inside aggregates, a
// relation-valued attribute of the current tuple).
type RelName struct {
	Name string
}

// Filter keeps the tuples satisfying Cond: source ? cond.
type Filter struct {
	Source RelExpr
	Cond   Condition
}

// NegatedFilter keeps the tuples not satisfying Cond: source ?! cond.
type NegatedFilter struct {
	Source RelExpr
	Cond   Condition
}

// Project keeps Attrs: source # [a b].
type Project struct {
	Source RelExpr
	Attrs  []string
}

// Remove drops Attrs: source #! [a b].
type Remove struct {
	Source RelExpr
	Attrs  []string
}

// NaturalJoin is source * right.
//
// Semantics: every pair of tuples agreeing on the shared attributes merges
// into one result tuple. With no shared attributes this is the cartesian
// product.
type NaturalJoin struct {
	Source RelExpr
	Right  RelExpr
}

// NestJoin is source *: right > name.
//
// Semantics: each source tuple gains attribute Name holding the matching
// right tuples with the shared attributes removed. Unmatched tuples get an
// empty relation rather than being dropped.
type NestJoin struct {
	Source RelExpr
	Right  RelExpr
	Name   string
}

// Unnest flattens a relation-valued attribute: source <: name.
type Unnest struct {
	Source RelExpr
	Name   string
}

// Computation is one named expression of an Extend.
type Computation struct {
	Name string
	Expr Expr
}

// Extend adds computed attributes: source + [name: expr ...].
type Extend struct {
	Source       RelExpr
	Computations []Computation
}

// RenamePair maps one attribute name to another.
type RenamePair struct {
	Old string
	New string
}

// Rename relabels attributes: source @ [old > new ...].
type Rename struct {
	Source RelExpr
	Pairs  []RenamePair
}

// Union is source | right.
type Union struct {
	Source RelExpr
	Right  RelExpr
}

// Difference is source - right.
type Difference struct {
	Source RelExpr
	Right  RelExpr
}

// Intersect is source & right.
type Intersect struct {
	Source RelExpr
	Right  RelExpr
}

// NamedAggregate is one name: aggregate entry of a summarize.
type NamedAggregate struct {
	Name string
	Call *AggregateCall
}

// Summarize groups by Keys and computes Aggregates per group:
// source / [keys] [name: agg ...].
//
// Semantics: inside an aggregate, an omitted source and the leftmost
// relation name of an explicit source both denote the current group.
type Summarize struct {
	Source     RelExpr
	Keys       []string
	Aggregates []NamedAggregate
}

// SummarizeAll collapses the whole relation into one tuple:
// source /. [name: agg ...].
type SummarizeAll struct {
	Source     RelExpr
	Aggregates []NamedAggregate
}

// NestBy groups by Keys and nests the remaining attributes under Name:
// source /: [keys] > name.
type NestBy struct {
	Source RelExpr
	Keys   []string
	Name   string
}

// SortKey is one attribute of a sort, ascending unless Descending.
type SortKey struct {
	Attr       string
	Descending bool
}

// Sort orders the relation into a sequence: source $ [a b-].
type Sort struct {
	Source RelExpr
	Keys   []SortKey
}

// Take keeps the first Count members: source ^ n.
//
// Applied to an unsorted relation the selection is arbitrary.
type Take struct {
	Source RelExpr
	Count  int
}

// ============================================================================
// Statements
// ============================================================================

// Assignment binds a relation to a name: name := expr.
type Assignment struct {
	Name string
	Expr RelExpr
}

// Marker methods - seal interfaces to this package

func (*IntLit) node()        {}
func (*FloatLit) node()      {}
func (*StringLit) node()     {}
func (*BoolLit) node()       {}
func (*AttrRef) node()       {}
func (*BinOp) node()         {}
func (*SetLit) node()        {}
func (*AggregateCall) node() {}
func (*Subquery) node()      {}
func (*Ternary) node()       {}
func (*FuncCall) node()      {}

func (*IntLit) exprNode()        {}
func (*FloatLit) exprNode()      {}
func (*StringLit) exprNode()     {}
func (*BoolLit) exprNode()       {}
func (*AttrRef) exprNode()       {}
func (*BinOp) exprNode()         {}
func (*SetLit) exprNode()        {}
func (*AggregateCall) exprNode() {}
func (*Subquery) exprNode()      {}
func (*Ternary) exprNode()       {}
func (*FuncCall) exprNode()      {}

func (*Comparison) node()          {}
func (*BoolOp) node()              {}
func (*Comparison) conditionNode() {}
func (*BoolOp) conditionNode()     {}

func (*RelName) node()       {}
func (*Filter) node()        {}
func (*NegatedFilter) node() {}
func (*Project) node()       {}
func (*Remove) node()        {}
func (*NaturalJoin) node()   {}
func (*NestJoin) node()      {}
func (*Unnest) node()        {}
func (*Extend) node()        {}
func (*Rename) node()        {}
func (*Union) node()         {}
func (*Difference) node()    {}
func (*Intersect) node()     {}
func (*Summarize) node()     {}
func (*SummarizeAll) node()  {}
func (*NestBy) node()        {}
func (*Sort) node()          {}
func (*Take) node()          {}
func (*Assignment) node()    {}

func (*RelName) relNode()       {}
func (*Filter) relNode()        {}
func (*NegatedFilter) relNode() {}
func (*Project) relNode()       {}
func (*Remove) relNode()        {}
func (*NaturalJoin) relNode()   {}
func (*NestJoin) relNode()      {}
func (*Unnest) relNode()        {}
func (*Extend) relNode()        {}
func (*Rename) relNode()        {}
func (*Union) relNode()         {}
func (*Difference) relNode()    {}
func (*Intersect) relNode()     {}
func (*Summarize) relNode()     {}
func (*SummarizeAll) relNode()  {}
func (*NestBy) relNode()        {}
func (*Sort) relNode()          {}
func (*Take) relNode()          {}

func (*RelName) statementNode()       {}
func (*Filter) statementNode()        {}
func (*NegatedFilter) statementNode() {}
func (*Project) statementNode()       {}
func (*Remove) statementNode()        {}
func (*NaturalJoin) statementNode()   {}
func (*NestJoin) statementNode()      {}
func (*Unnest) statementNode()        {}
func (*Extend) statementNode()        {}
func (*Rename) statementNode()        {}
func (*Union) statementNode()         {}
func (*Difference) statementNode()    {}
func (*Intersect) statementNode()     {}
func (*Summarize) statementNode()     {}
func (*SummarizeAll) statementNode()  {}
func (*NestBy) statementNode()        {}
func (*Sort) statementNode()          {}
func (*Take) statementNode()          {}
func (*Assignment) statementNode()    {}

// Root returns the leftmost relation name of a chain, following Source
// links. It returns nil when the chain does not start with a name.
func Root(e RelExpr) *RelName {
	for {
		switch n := e.(type) {
		case *RelName:
			return n
		case *Filter:
			e = n.Source
		case *NegatedFilter:
			e = n.Source
		case *Project:
			e = n.Source
		case *Remove:
			e = n.Source
		case *NaturalJoin:
			e = n.Source
		case *NestJoin:
			e = n.Source
		case *Unnest:
			e = n.Source
		case *Extend:
			e = n.Source
		case *Rename:
			e = n.Source
		case *Union:
			e = n.Source
		case *Difference:
			e = n.Source
		case *Intersect:
			e = n.Source
		case *Summarize:
			e = n.Source
		case *SummarizeAll:
			e = n.Source
		case *NestBy:
			e = n.Source
		case *Sort:
			e = n.Source
		case *Take:
			e = n.Source
		default:
			return nil
		}
	}
}
