package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

var testColumns = []types.Column{
	{ID: 10, Name: "Age", Type: types.ColumnNumber, Order: 1},
	{ID: 11, Name: "Name", Type: types.ColumnText, Order: 0},
	{ID: 12, Name: "City", Type: types.ColumnText, Order: 2},
}

func TestBuild_ColumnsOrdered(t *testing.T) {
	p, err := Build(types.ViewQuery{TableID: 1, Limit: 10}, testColumns)
	require.NoError(t, err)

	ids := make([]int64, len(p.Columns))
	for i, c := range p.Columns {
		ids[i] = c.ID
	}
	assert.Equal(t, []int64{11, 10, 12}, ids)
	assert.Empty(t, p.Joins)
	assert.Equal(t, 11, p.FetchLimit())
}

func TestBuild_Cursor(t *testing.T) {
	cursor := int64(42)
	p, err := Build(types.ViewQuery{TableID: 1, Limit: 5, Cursor: &cursor}, testColumns)
	require.NoError(t, err)

	require.Len(t, p.Where, 2)
	assert.Equal(t, Predicate{Kind: PredTable, Arg: int64(1)}, p.Where[0])
	assert.Equal(t, Predicate{Kind: PredAfter, Arg: int64(42)}, p.Where[1])
}

func TestBuild_UnknownColumnsDropped(t *testing.T) {
	q := types.ViewQuery{
		TableID: 1,
		Limit:   10,
		Sorts:   []types.SortSpec{{ColumnID: 99, Direction: types.SortAsc}},
		Filters: []types.FilterSpec{{ColumnID: 98, Operator: types.OpGreaterThan, Value: "x"}},
	}
	p, err := Build(q, testColumns)
	require.NoError(t, err)
	assert.Empty(t, p.Orders)
	assert.Empty(t, p.Joins)
	assert.Len(t, p.Where, 1)
}

func TestBuild_SortsByPriority(t *testing.T) {
	q := types.ViewQuery{
		TableID: 1,
		Limit:   10,
		Sorts: []types.SortSpec{
			{ColumnID: 12, Direction: types.SortAsc, Priority: 2},
			{ColumnID: 10, Direction: types.SortDesc, Priority: 1},
		},
	}
	p, err := Build(q, testColumns)
	require.NoError(t, err)

	require.Len(t, p.Orders, 2)
	assert.Equal(t, Field{Alias: "c0", Type: types.ColumnNumber}, p.Orders[0].Field)
	assert.True(t, p.Orders[0].Desc)
	assert.Equal(t, Field{Alias: "c1", Type: types.ColumnText}, p.Orders[1].Field)
	assert.False(t, p.Orders[1].Desc)
}

func TestBuild_OneJoinPerColumn(t *testing.T) {
	q := types.ViewQuery{
		TableID: 1,
		Limit:   10,
		Sorts:   []types.SortSpec{{ColumnID: 10, Direction: types.SortAsc}},
		Filters: []types.FilterSpec{{ColumnID: 10, Operator: types.OpGreaterThan, Value: "18"}},
		Search:  "  ann ",
	}
	p, err := Build(q, testColumns)
	require.NoError(t, err)

	assert.Equal(t, []Join{
		{Alias: "c0", ColumnID: 10},
		{Alias: "c1", ColumnID: 11},
		{Alias: "c2", ColumnID: 12},
	}, p.Joins)

	search := p.Where[len(p.Where)-1]
	require.Equal(t, PredAny, search.Kind)
	require.Len(t, search.Any, 3)
	for _, child := range search.Any {
		assert.Equal(t, PredContains, child.Kind)
		assert.Equal(t, "%ann%", child.Arg)
	}
}

func TestBuild_FilterTranslation(t *testing.T) {
	tests := []struct {
		name   string
		filter types.FilterSpec
		want   Predicate
	}{
		{
			name:   "gt numeric",
			filter: types.FilterSpec{ColumnID: 10, Operator: types.OpGreaterThan, Value: " 18 "},
			want:   Predicate{Kind: PredCompare, Field: Field{Alias: "c0", Type: types.ColumnNumber}, Op: ">", Arg: 18.0},
		},
		{
			name:   "lt numeric",
			filter: types.FilterSpec{ColumnID: 10, Operator: types.OpLessThan, Value: "2.5"},
			want:   Predicate{Kind: PredCompare, Field: Field{Alias: "c0", Type: types.ColumnNumber}, Op: "<", Arg: 2.5},
		},
		{
			name:   "eq numeric",
			filter: types.FilterSpec{ColumnID: 10, Operator: types.OpEqual, Value: "30"},
			want:   Predicate{Kind: PredCompare, Field: Field{Alias: "c0", Type: types.ColumnNumber}, Op: "=", Arg: 30.0},
		},
		{
			name:   "eq text",
			filter: types.FilterSpec{ColumnID: 11, Operator: types.OpEqual, Value: "Anna"},
			want:   Predicate{Kind: PredCompare, Field: Field{Alias: "c0", Type: types.ColumnText}, Op: "=", Arg: "Anna"},
		},
		{
			name:   "contains lowercases and escapes",
			filter: types.FilterSpec{ColumnID: 11, Operator: types.OpContains, Value: "50%_Off!"},
			want:   Predicate{Kind: PredContains, Field: Field{Alias: "c0", Type: types.ColumnText}, Arg: "%50!%!_off!!%"},
		},
		{
			name:   "not contains",
			filter: types.FilterSpec{ColumnID: 11, Operator: types.OpNotContains, Value: "x"},
			want:   Predicate{Kind: PredNotContains, Field: Field{Alias: "c0", Type: types.ColumnText}, Arg: "%x%"},
		},
		{
			name:   "empty",
			filter: types.FilterSpec{ColumnID: 12, Operator: types.OpEmpty},
			want:   Predicate{Kind: PredEmpty, Field: Field{Alias: "c0", Type: types.ColumnText}},
		},
		{
			name:   "not empty on number",
			filter: types.FilterSpec{ColumnID: 10, Operator: types.OpNotEmpty},
			want:   Predicate{Kind: PredNotEmpty, Field: Field{Alias: "c0", Type: types.ColumnNumber}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(types.ViewQuery{TableID: 1, Limit: 10, Filters: []types.FilterSpec{tt.filter}}, testColumns)
			require.NoError(t, err)
			require.Len(t, p.Where, 2)
			assert.Equal(t, tt.want, p.Where[1])
		})
	}
}

func TestBuild_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		q       types.ViewQuery
		wantErr error
	}{
		{name: "zero limit", q: types.ViewQuery{TableID: 1}, wantErr: types.ErrInvalidLimit},
		{name: "limit too large", q: types.ViewQuery{TableID: 1, Limit: types.MaxPageSize + 1}, wantErr: types.ErrInvalidLimit},
		{
			name:    "bad direction",
			q:       types.ViewQuery{TableID: 1, Limit: 1, Sorts: []types.SortSpec{{ColumnID: 10, Direction: "up"}}},
			wantErr: types.ErrInvalidDirection,
		},
		{
			name:    "gt on text",
			q:       types.ViewQuery{TableID: 1, Limit: 1, Filters: []types.FilterSpec{{ColumnID: 11, Operator: types.OpGreaterThan, Value: "1"}}},
			wantErr: types.ErrOperatorNotSupported,
		},
		{
			name:    "non-numeric value",
			q:       types.ViewQuery{TableID: 1, Limit: 1, Filters: []types.FilterSpec{{ColumnID: 10, Operator: types.OpLessThan, Value: "abc"}}},
			wantErr: types.ErrInvalidFilterValue,
		},
		{
			name:    "unknown operator",
			q:       types.ViewQuery{TableID: 1, Limit: 1, Filters: []types.FilterSpec{{ColumnID: 10, Operator: "between"}}},
			wantErr: types.ErrInvalidOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.q, testColumns)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, types.IsValidation(err))
		})
	}
}

func TestBuild_SearchWithoutColumns(t *testing.T) {
	p, err := Build(types.ViewQuery{TableID: 1, Limit: 10, Search: "x"}, nil)
	require.NoError(t, err)
	require.Len(t, p.Where, 2)
	assert.Equal(t, PredAny, p.Where[1].Kind)
	assert.Empty(t, p.Where[1].Any)
}

func TestBuild_BlankSearchIgnored(t *testing.T) {
	p, err := Build(types.ViewQuery{TableID: 1, Limit: 10, Search: "   "}, testColumns)
	require.NoError(t, err)
	assert.Len(t, p.Where, 1)
	assert.Empty(t, p.Joins)
}
