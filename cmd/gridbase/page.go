package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// pageFlags are the query options shared by page and view.
type pageFlags struct {
	sorts   []string
	filters []string
	search  string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "sort key column[:asc|desc], repeatable, first has highest priority")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filter column:operator[:value], repeatable (gt lt eq contains not_contains empty not_empty)")
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive text matched against every column")
}

// specs resolves the flag values against the table's columns.
func (f *pageFlags) specs(columns []types.Column) ([]types.SortSpec, []types.FilterSpec, error) {
	sorts, err := parseSorts(columns, f.sorts)
	if err != nil {
		return nil, nil, err
	}
	filters, err := parseFilters(columns, f.filters)
	if err != nil {
		return nil, nil, err
	}
	return sorts, filters, nil
}

func newPageCmd(a *app) *cobra.Command {
	var (
		qf     pageFlags
		cursor int64
		limit  int
		viewID int64
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "page [table-id]",
		Short: "Print one page of a table",
		Long: `Print one page of rows. Columns in --sort and --filter are named or
given by id. Pass the printed next cursor with --cursor to continue.

Example:
  gridbase page 1 --sort Age:desc --filter City:contains:york --limit 20
  gridbase page --view 3 --all --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if viewID != 0 {
				return exactArgs(0)(cmd, args)
			}
			return exactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.GetInt(cfgKeyPageLimit)
			}
			var start *int64
			if cursor > 0 {
				start = &cursor
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				var q types.ViewQuery
				if viewID != 0 {
					view, err := e.GetView(ctx, user, viewID)
					if err != nil {
						return err
					}
					q = view.Query(limit, start)
				} else {
					tableID, err := parseID("table id", args[0])
					if err != nil {
						return err
					}
					table, err := e.GetTable(ctx, user, tableID)
					if err != nil {
						return err
					}
					sorts, filters, err := qf.specs(table.Columns)
					if err != nil {
						return err
					}
					q = types.ViewQuery{TableID: tableID, Limit: limit, Cursor: start, Sorts: sorts, Filters: filters, Search: qf.search}
				}

				if !all {
					page, err := e.ListViewPage(ctx, user, q)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), page)
					}
					printPage(cmd.OutOrStdout(), page.Columns, page.Items)
					if page.HasNextPage {
						fmt.Fprintf(cmd.OutOrStdout(), "Next cursor: %d\n", *page.NextCursor)
					}
					return nil
				}

				items, columns, err := fetchAll(ctx, e, user, q)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), (&types.Page{Items: items, Columns: columns}).Records())
				}
				printPage(cmd.OutOrStdout(), columns, items)
				return nil
			})
		},
	}
	qf.register(cmd)
	cmd.Flags().Int64Var(&cursor, "cursor", 0, "next cursor printed by the previous page")
	cmd.Flags().IntVar(&limit, "limit", types.DefaultPageSize, "rows per page (1..1000)")
	cmd.Flags().Int64Var(&viewID, "view", 0, "use the search, sorts and filters of a saved view")
	cmd.Flags().BoolVar(&all, "all", false, "follow cursors until the last page")
	return cmd
}

// fetchAll follows next cursors from q until the last page.
func fetchAll(ctx context.Context, e types.Engine, user string, q types.ViewQuery) ([]types.RowRecord, []types.Column, error) {
	var items []types.RowRecord
	for {
		page, err := e.ListViewPage(ctx, user, q)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, page.Items...)
		if !page.HasNextPage {
			return items, page.Columns, nil
		}
		q.Cursor = page.NextCursor
	}
}

// printPage prints rows with one column per table column. Empty cells are
// blank.
func printPage(w io.Writer, columns []types.Column, items []types.RowRecord) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No rows found.")
		return
	}
	header := []string{"ID", "ORDER"}
	for _, c := range columns {
		header = append(header, c.Name)
	}
	rows := make([][]string, len(items))
	for i, item := range items {
		row := []string{itoa(item.ID), itoa(item.Order)}
		for _, c := range columns {
			row = append(row, truncate(item.Value(c.ID).Display(), 30))
		}
		rows[i] = row
	}
	printTable(w, header, rows)
}
