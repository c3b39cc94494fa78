package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders a node as source text. The output parses back to an
// equal tree.
func String(n Node) string {
	var b strings.Builder
	p := printer{&b}
	p.node(n)
	return b.String()
}

type printer struct {
	b *strings.Builder
}

func (p printer) write(parts ...string) {
	for _, s := range parts {
		p.b.WriteString(s)
	}
}

func (p printer) node(n Node) {
	switch n := n.(type) {
	case nil:
	case *Assignment:
		p.write(n.Name, " := ")
		p.rel(n.Expr)
	case RelExpr:
		p.rel(n)
	case Condition:
		p.cond(n)
	case Expr:
		p.expr(n)
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}
}

func (p printer) rel(e RelExpr) {
	switch n := e.(type) {
	case *RelName:
		p.write(n.Name)
	case *Filter:
		p.rel(n.Source)
		p.write(" ? ")
		p.cond(n.Cond)
	case *NegatedFilter:
		p.rel(n.Source)
		p.write(" ?! ")
		p.cond(n.Cond)
	case *Project:
		p.rel(n.Source)
		p.write(" # ", attrList(n.Attrs))
	case *Remove:
		p.rel(n.Source)
		p.write(" #! ", attrList(n.Attrs))
	case *NaturalJoin:
		p.binary(n.Source, " * ", n.Right)
	case *NestJoin:
		p.binary(n.Source, " *: ", n.Right)
		p.write(" > ", n.Name)
	case *Unnest:
		p.rel(n.Source)
		p.write(" <: ", n.Name)
	case *Extend:
		p.rel(n.Source)
		p.write(" + ")
		p.computations(n.Computations)
	case *Rename:
		p.rel(n.Source)
		p.write(" @ ")
		p.renames(n.Pairs)
	case *Union:
		p.binary(n.Source, " | ", n.Right)
	case *Difference:
		p.binary(n.Source, " - ", n.Right)
	case *Intersect:
		p.binary(n.Source, " & ", n.Right)
	case *Summarize:
		p.rel(n.Source)
		p.write(" / ", attrList(n.Keys), " ")
		p.aggregates(n.Aggregates)
	case *SummarizeAll:
		p.rel(n.Source)
		p.write(" /. ")
		p.aggregates(n.Aggregates)
	case *NestBy:
		p.rel(n.Source)
		p.write(" /: ", attrList(n.Keys), " > ", n.Name)
	case *Sort:
		p.rel(n.Source)
		p.write(" $ ", sortKeys(n.Keys))
	case *Take:
		p.rel(n.Source)
		p.write(" ^ ", strconv.Itoa(n.Count))
	default:
		panic(fmt.Sprintf("ast: unexpected relational expression %T", e))
	}
}

// binary prints the right operand as an atom: a bare name or a
// parenthesized chain.
func (p printer) binary(left RelExpr, op string, right RelExpr) {
	p.rel(left)
	p.write(op)
	p.atom(right)
}

func (p printer) atom(e RelExpr) {
	if n, ok := e.(*RelName); ok {
		p.write(n.Name)
		return
	}
	p.write("(")
	p.rel(e)
	p.write(")")
}

// computations are always bracketed: a bare trailing computation would
// absorb a following - * or / operator as arithmetic.
func (p printer) computations(cs []Computation) {
	p.write("[")
	for i, c := range cs {
		if i > 0 {
			p.write(" ")
		}
		p.write(c.Name, ": ")
		p.expr(c.Expr)
	}
	p.write("]")
}

func (p printer) renames(pairs []RenamePair) {
	if len(pairs) == 1 {
		p.write(pairs[0].Old, " > ", pairs[0].New)
		return
	}
	p.write("[")
	for i, r := range pairs {
		if i > 0 {
			p.write(" ")
		}
		p.write(r.Old, " > ", r.New)
	}
	p.write("]")
}

func (p printer) aggregates(aggs []NamedAggregate) {
	p.write("[")
	for i, a := range aggs {
		if i > 0 {
			p.write(" ")
		}
		p.write(a.Name, ": ")
		p.aggregate(a.Call)
	}
	p.write("]")
}

func (p printer) aggregate(a *AggregateCall) {
	p.write(string(a.Func))
	switch src := a.Source.(type) {
	case nil:
		if a.Attr != "" {
			p.write(" ", a.Attr)
		}
	case *RelName:
		p.write(" ", src.Name)
		if a.Attr != "" {
			p.write(".", a.Attr)
		}
	default:
		p.write(" (")
		p.rel(src)
		p.write(")")
		if a.Attr != "" {
			p.write(" ", a.Attr)
		}
	}
}

func (p printer) cond(c Condition) {
	switch n := c.(type) {
	case *Comparison:
		p.expr(n.Left)
		p.write(" ", n.Op, " ")
		p.expr(n.Right)
	case *BoolOp:
		p.write("(")
		p.chain(n)
		p.write(")")
	default:
		panic(fmt.Sprintf("ast: unexpected condition %T", c))
	}
}

// chain prints a left-leaning run of boolean operators without the
// parentheses the parser does not need.
func (p printer) chain(c Condition) {
	n, ok := c.(*BoolOp)
	if !ok {
		p.cond(c)
		return
	}
	p.chain(n.Left)
	p.write(" ", n.Op, " ")
	p.cond(n.Right)
}

func (p printer) expr(e Expr) {
	switch n := e.(type) {
	case *IntLit:
		p.write(strconv.FormatInt(n.Value, 10))
	case *FloatLit:
		p.write(n.Text)
	case *StringLit:
		p.write(Quote(n.Value))
	case *BoolLit:
		p.write(strconv.FormatBool(n.Value))
	case *AttrRef:
		p.write(n.Name())
	case *BinOp:
		p.operand(n.Left, precedence(n.Op), false)
		p.write(" ", n.Op, " ")
		p.operand(n.Right, precedence(n.Op), true)
	case *SetLit:
		p.write("{")
		for i, el := range n.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.expr(el)
		}
		p.write("}")
	case *AggregateCall:
		p.aggregate(n)
	case *Subquery:
		p.write("(")
		p.rel(n.Query)
		p.write(")")
	case *Ternary:
		p.write("? ")
		p.cond(n.Cond)
		p.write(" ")
		if plainLiteral(n.Then) {
			p.expr(n.Then)
		} else {
			p.paren(n.Then)
		}
		p.write(" ")
		if leadingMinus(n.Else) {
			p.paren(n.Else)
		} else {
			p.expr(n.Else)
		}
	case *FuncCall:
		p.write(n.Name, "(")
		for i, arg := range n.Args {
			if i > 0 {
				p.write(", ")
			}
			p.expr(arg)
		}
		p.write(")")
	default:
		panic(fmt.Sprintf("ast: unexpected expression %T", e))
	}
}

// operand prints one side of an arithmetic operator, adding parentheses
// when the tree would otherwise regroup on reparse.
func (p printer) operand(e Expr, outer int, right bool) {
	paren := false
	switch n := e.(type) {
	case *BinOp:
		inner := precedence(n.Op)
		paren = inner < outer || (right && inner == outer)
	case *Ternary:
		paren = true
	}
	if paren {
		p.paren(e)
		return
	}
	p.expr(e)
}

func (p printer) paren(e Expr) {
	p.write("(")
	p.expr(e)
	p.write(")")
}

// plainLiteral reports whether e can stand as a ternary arm without
// parentheses: any other arm could run into the one after it.
func plainLiteral(e Expr) bool {
	switch n := e.(type) {
	case *StringLit, *BoolLit:
		return true
	case *IntLit:
		return n.Value >= 0
	case *FloatLit:
		return !strings.HasPrefix(n.Text, "-")
	}
	return false
}

func leadingMinus(e Expr) bool {
	switch n := e.(type) {
	case *IntLit:
		return n.Value < 0
	case *FloatLit:
		return strings.HasPrefix(n.Text, "-")
	case *BinOp:
		return leadingMinus(n.Left)
	}
	return false
}

func precedence(op string) int {
	switch op {
	case "*", "/":
		return 2
	default:
		return 1
	}
}

func attrList(attrs []string) string {
	if len(attrs) == 1 {
		return attrs[0]
	}
	return "[" + strings.Join(attrs, " ") + "]"
}

func sortKeys(keys []SortKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Attr
		if k.Descending {
			parts[i] += "-"
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func joinDotted(parts []string) string {
	return strings.Join(parts, ".")
}

// Quote renders s as a string literal using only the escapes the lexer
// understands.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
