package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Join is one LEFT JOIN of grid_cell for a column, keyed on
// (row_id, column_id). A plan joins each referenced column once.
type Join struct {
	Alias    string
	ColumnID int64
}

// Field is the typed slot of a joined cell: numeric_value for NUMBER
// columns, value for TEXT columns.
type Field struct {
	Alias string
	Type  types.ColumnType
}

// PredicateKind enumerates the predicate shapes a plan can hold.
type PredicateKind int

// Predicate kinds.
const (
	PredTable       PredicateKind = iota // r.table_id = Arg
	PredAfter                            // r.id > Arg (keyset)
	PredCompare                          // Field Op Arg on the typed slot
	PredContains                         // text of Field matches the LIKE pattern Arg
	PredNotContains                      // text of Field is NULL or does not match Arg
	PredEmpty                            // text of Field is NULL or ''
	PredNotEmpty                         // text of Field is neither NULL nor ''
	PredAny                              // OR over Any
)

// Predicate is one node of the WHERE clause. All top-level predicates of a
// plan are ANDed.
type Predicate struct {
	Kind  PredicateKind
	Field Field
	Op    string // "=", ">" or "<" for PredCompare
	Arg   any
	Any   []Predicate
}

// Order is one sort key. Nulls always sort last.
type Order struct {
	Field Field
	Desc  bool
}

// Plan is the compiled shape of a page query.
type Plan struct {
	TableID int64
	Limit   int // rows returned; the query fetches Limit+1 to detect a next page
	Joins   []Join
	Where   []Predicate
	Orders  []Order
	Columns []types.Column // table columns ordered by Order
}

// FetchLimit is the LIMIT of the compiled query.
func (p *Plan) FetchLimit() int {
	return p.Limit + 1
}

// Build validates q against the table's columns and returns its plan.
// Sorts and filters that reference a column not in columns are dropped.
// Malformed input fails with a validation error from package types.
func Build(q types.ViewQuery, columns []types.Column) (*Plan, error) {
	if err := q.ValidateLimit(); err != nil {
		return nil, err
	}

	cols := append([]types.Column(nil), columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })

	b := &planBuilder{
		plan: &Plan{
			TableID: q.TableID,
			Limit:   q.Limit,
			Columns: cols,
		},
		aliases: make(map[int64]string),
	}
	p := b.plan

	p.Where = append(p.Where, Predicate{Kind: PredTable, Arg: q.TableID})
	if q.Cursor != nil {
		p.Where = append(p.Where, Predicate{Kind: PredAfter, Arg: *q.Cursor})
	}

	sorts := make([]types.SortSpec, 0, len(q.Sorts))
	for _, s := range q.Sorts {
		if _, ok := types.ColumnByID(cols, s.ColumnID); !ok {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		sorts = append(sorts, s)
	}
	sort.SliceStable(sorts, func(i, j int) bool { return sorts[i].Priority < sorts[j].Priority })
	for _, s := range sorts {
		col, _ := types.ColumnByID(cols, s.ColumnID)
		p.Orders = append(p.Orders, Order{Field: b.field(col), Desc: s.Direction == types.SortDesc})
	}

	for _, f := range q.Filters {
		col, ok := types.ColumnByID(cols, f.ColumnID)
		if !ok {
			continue
		}
		pred, err := b.filter(col, f)
		if err != nil {
			return nil, fmt.Errorf("filter on column %d: %w", col.ID, err)
		}
		p.Where = append(p.Where, pred)
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := containsPattern(term)
		anyOf := make([]Predicate, 0, len(cols))
		for _, col := range cols {
			anyOf = append(anyOf, Predicate{Kind: PredContains, Field: b.field(col), Arg: pattern})
		}
		p.Where = append(p.Where, Predicate{Kind: PredAny, Any: anyOf})
	}

	return p, nil
}

type planBuilder struct {
	plan    *Plan
	aliases map[int64]string
}

// field returns the typed slot for col, adding its join on first use.
func (b *planBuilder) field(col types.Column) Field {
	alias, ok := b.aliases[col.ID]
	if !ok {
		alias = fmt.Sprintf("c%d", len(b.plan.Joins))
		b.aliases[col.ID] = alias
		b.plan.Joins = append(b.plan.Joins, Join{Alias: alias, ColumnID: col.ID})
	}
	return Field{Alias: alias, Type: col.Type}
}

func (b *planBuilder) filter(col types.Column, f types.FilterSpec) (Predicate, error) {
	if err := f.Validate(col.Type); err != nil {
		return Predicate{}, err
	}
	field := b.field(col)

	switch f.Operator {
	case types.OpGreaterThan, types.OpLessThan:
		n, _ := f.Number()
		op := ">"
		if f.Operator == types.OpLessThan {
			op = "<"
		}
		return Predicate{Kind: PredCompare, Field: field, Op: op, Arg: n}, nil
	case types.OpEqual:
		if col.Type == types.ColumnNumber {
			n, _ := f.Number()
			return Predicate{Kind: PredCompare, Field: field, Op: "=", Arg: n}, nil
		}
		return Predicate{Kind: PredCompare, Field: field, Op: "=", Arg: f.Value}, nil
	case types.OpContains:
		return Predicate{Kind: PredContains, Field: field, Arg: containsPattern(f.Value)}, nil
	case types.OpNotContains:
		return Predicate{Kind: PredNotContains, Field: field, Arg: containsPattern(f.Value)}, nil
	case types.OpEmpty:
		return Predicate{Kind: PredEmpty, Field: field}, nil
	case types.OpNotEmpty:
		return Predicate{Kind: PredNotEmpty, Field: field}, nil
	}
	return Predicate{}, fmt.Errorf("%w: %q", types.ErrInvalidOperator, f.Operator)
}

// likeEscape is the ESCAPE character used in every LIKE the compiler emits.
// A backslash would need different quoting in MySQL string literals.
const likeEscape = '!'

// containsPattern returns a lower-cased LIKE pattern matching term anywhere,
// with LIKE wildcards in term escaped.
func containsPattern(term string) string {
	var sb strings.Builder
	sb.WriteByte('%')
	for _, r := range strings.ToLower(term) {
		if r == '%' || r == '_' || r == likeEscape {
			sb.WriteRune(likeEscape)
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('%')
	return sb.String()
}
