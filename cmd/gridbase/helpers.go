package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s: accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// parseID parses a positive integer id argument.
func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s %q", what, s)
	}
	return id, nil
}

// resolveColumn finds a column by id or by case-insensitive name.
func resolveColumn(columns []types.Column, ref string) (types.Column, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if c, ok := types.ColumnByID(columns, id); ok {
			return c, nil
		}
	}
	for _, c := range columns {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return types.Column{}, usagef("unknown column %q", ref)
}

// parseSorts parses "column[:asc|desc]" values in priority order.
func parseSorts(columns []types.Column, specs []string) ([]types.SortSpec, error) {
	sorts := make([]types.SortSpec, 0, len(specs))
	for i, spec := range specs {
		ref, dir := spec, string(types.SortAsc)
		if idx := strings.LastIndex(spec, ":"); idx >= 0 {
			ref, dir = spec[:idx], strings.ToLower(spec[idx+1:])
		}
		col, err := resolveColumn(columns, ref)
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, types.SortSpec{ColumnID: col.ID, Direction: types.SortDirection(dir), Priority: i})
	}
	return sorts, nil
}

// parseFilters parses "column:operator[:value]" values.
func parseFilters(columns []types.Column, specs []string) ([]types.FilterSpec, error) {
	filters := make([]types.FilterSpec, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 {
			return nil, usagef("invalid filter %q: want column:operator[:value]", spec)
		}
		col, err := resolveColumn(columns, parts[0])
		if err != nil {
			return nil, err
		}
		f := types.FilterSpec{ColumnID: col.ID, Operator: types.FilterOperator(strings.ToLower(parts[1]))}
		if len(parts) == 3 {
			f.Value = parts[2]
		}
		if f.Operator.NeedsValue() && len(parts) < 3 {
			return nil, usagef("filter %q needs a value", spec)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printTable writes a header and rows aligned in columns, trimming
// trailing padding.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
