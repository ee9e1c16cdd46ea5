package query

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Compile renders the plan as a single SELECT of (id, sort_order) with "?"
// placeholders. Args are returned in placeholder order.
func (d Dialect) Compile(p *Plan) (string, []any) {
	c := compiler{dialect: d}

	c.sb.WriteString("SELECT r.id, r.sort_order FROM grid_row r")
	for _, j := range p.Joins {
		fmt.Fprintf(&c.sb, " LEFT JOIN grid_cell %[1]s ON %[1]s.row_id = r.id AND %[1]s.column_id = ?", j.Alias)
		c.args = append(c.args, j.ColumnID)
	}

	c.sb.WriteString(" WHERE ")
	for i, pred := range p.Where {
		if i > 0 {
			c.sb.WriteString(" AND ")
		}
		c.predicate(pred)
	}

	c.sb.WriteString(" ORDER BY ")
	for _, o := range p.Orders {
		c.sb.WriteString(d.orderTerm(slot(o.Field), o.Desc))
		c.sb.WriteString(", ")
	}
	c.sb.WriteString("r.sort_order ASC LIMIT ?")
	c.args = append(c.args, p.FetchLimit())

	return c.sb.String(), c.args
}

type compiler struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func (c *compiler) predicate(p Predicate) {
	switch p.Kind {
	case PredTable:
		c.sb.WriteString("r.table_id = ?")
		c.args = append(c.args, p.Arg)
	case PredAfter:
		c.sb.WriteString("r.id > ?")
		c.args = append(c.args, p.Arg)
	case PredCompare:
		fmt.Fprintf(&c.sb, "%s %s ?", slot(p.Field), p.Op)
		c.args = append(c.args, p.Arg)
	case PredContains:
		fmt.Fprintf(&c.sb, "%s LIKE ? ESCAPE '%c'", c.dialect.lower(c.text(p.Field)), likeEscape)
		c.args = append(c.args, p.Arg)
	case PredNotContains:
		t := c.text(p.Field)
		fmt.Fprintf(&c.sb, "(%s IS NULL OR %s NOT LIKE ? ESCAPE '%c')", t, c.dialect.lower(t), likeEscape)
		c.args = append(c.args, p.Arg)
	case PredEmpty:
		t := c.text(p.Field)
		fmt.Fprintf(&c.sb, "(%s IS NULL OR %s = '')", t, t)
	case PredNotEmpty:
		t := c.text(p.Field)
		fmt.Fprintf(&c.sb, "(%s IS NOT NULL AND %s <> '')", t, t)
	case PredAny:
		if len(p.Any) == 0 {
			c.sb.WriteString("1 = 0")
			return
		}
		c.sb.WriteByte('(')
		for i, child := range p.Any {
			if i > 0 {
				c.sb.WriteString(" OR ")
			}
			c.predicate(child)
		}
		c.sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("query: unknown predicate kind %d", p.Kind))
	}
}

// slot is the physical column holding the field's typed value.
func slot(f Field) string {
	if f.Type == types.ColumnNumber {
		return f.Alias + ".numeric_value"
	}
	return f.Alias + ".value"
}

// text is the field's value as text, for substring and emptiness tests.
func (c *compiler) text(f Field) string {
	if f.Type == types.ColumnNumber {
		return c.dialect.castText(slot(f))
	}
	return slot(f)
}
