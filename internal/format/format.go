// Package format renders query results as ASCII tables.
//
// Columns are sorted alphabetically. Relations print their members in
// model.Relation.Ordered order so output is stable across runs; sorted
// sequences keep their own order. Nested relations render inline:
//
//	{(number: "555-1234"), (number: "555-9999")}
//
// Cell widths are measured in terminal columns, so East Asian wide
// characters count as two.
package format

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/model"
)

const (
	emptyRelation = "(empty relation)"
	emptyArray    = "(empty array)"
)

// Result renders any engine result.
func Result(res engine.Result) string {
	switch r := res.(type) {
	case *engine.RelationResult:
		return Relation(r.Relation)
	case *engine.TuplesResult:
		if len(r.Tuples) == 0 {
			return emptyArray
		}
		return table(r.Heading, r.Tuples)
	case *engine.ScalarResult:
		return Value(r.Value)
	}
	return ""
}

// Relation renders r as a table. An empty relation still shows its
// heading; one without attributes prints "(empty relation)".
func Relation(r *model.Relation) string {
	if r.IsEmpty() && len(r.Heading()) == 0 {
		return emptyRelation
	}
	return table(r.Heading(), r.Ordered())
}

// Tuples renders an ordered sequence, taking the columns from the first
// tuple.
func Tuples(ts []model.Tuple) string {
	if len(ts) == 0 {
		return emptyArray
	}
	return table(ts[0].Heading(), ts)
}

// Value renders a single value for a table cell. Strings are unquoted at
// the top level and quoted inside nested relations.
func Value(v model.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case model.String:
		return string(val)
	case *model.Relation:
		if val.IsEmpty() {
			return "{}"
		}
		return val.String()
	}
	return v.String()
}

func table(heading model.Heading, tuples []model.Tuple) string {
	cells := make([][]string, len(tuples))
	for i, t := range tuples {
		row := make([]string, len(heading))
		for j, attr := range heading {
			row[j] = Value(t.Value(attr))
		}
		cells[i] = row
	}

	widths := make([]int, len(heading))
	for j, attr := range heading {
		widths[j] = displayWidth(attr)
	}
	for _, row := range cells {
		for j, cell := range row {
			widths[j] = max(widths[j], displayWidth(cell))
		}
	}

	var b strings.Builder
	sep := separator(widths)
	b.WriteString(sep)
	b.WriteByte('\n')
	writeRow(&b, heading, widths)
	b.WriteString(sep)
	b.WriteByte('\n')
	for _, row := range cells {
		writeRow(&b, row, widths)
	}
	b.WriteString(sep)
	return b.String()
}

func separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return "+-" + strings.Join(parts, "-+-") + "-+"
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteString("| ")
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-displayWidth(cell)))
	}
	b.WriteString(" |\n")
}

// displayWidth counts terminal columns: wide and fullwidth runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
