package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

var testColumns = []types.Column{
	{ID: 10, Name: "Name", Type: types.ColumnText, Order: 0},
	{ID: 11, Name: "Age", Type: types.ColumnNumber, Order: 1},
	{ID: 42, Name: "City", Type: types.ColumnText, Order: 2},
}

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		ref  string
		want int64
		ok   bool
	}{
		{"Name", 10, true},
		{"age", 11, true},
		{"42", 42, true},
		{"99", 0, false},
		{"Zip", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			col, err := resolveColumn(testColumns, tt.ref)
			if !tt.ok {
				require.Error(t, err)
				assert.Equal(t, exitUserError, exitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, col.ID)
		})
	}
}

func TestParseSorts(t *testing.T) {
	sorts, err := parseSorts(testColumns, []string{"Age:DESC", "Name"})
	require.NoError(t, err)
	assert.Equal(t, []types.SortSpec{
		{ColumnID: 11, Direction: types.SortDesc, Priority: 0},
		{ColumnID: 10, Direction: types.SortAsc, Priority: 1},
	}, sorts)

	_, err = parseSorts(testColumns, []string{"Zip:asc"})
	assert.Error(t, err)
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters(testColumns, []string{"Age:gt:30", "City:contains:new:york", "Name:empty"})
	require.NoError(t, err)
	assert.Equal(t, []types.FilterSpec{
		{ColumnID: 11, Operator: types.OpGreaterThan, Value: "30"},
		{ColumnID: 42, Operator: types.OpContains, Value: "new:york"},
		{ColumnID: 10, Operator: types.OpEmpty},
	}, filters)

	for _, bad := range []string{"Age", "Age:gt", "Zip:eq:1"} {
		_, err := parseFilters(testColumns, []string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("table id", "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID("table id", bad)
		assert.Error(t, err, bad)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", usagef("bad"), exitUserError},
		{"validation", fmt.Errorf("page: %w", types.ErrInvalidLimit), exitUserError},
		{"access", types.ErrAccessDenied, exitUserError},
		{"config", fmt.Errorf("config: %w", types.ErrBackendUnknown), exitUserError},
		{"transient", fmt.Errorf("%w: busy", types.ErrTransient), exitSysError},
		{"other", errors.New("disk full"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
