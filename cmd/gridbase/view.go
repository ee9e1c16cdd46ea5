package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newViewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Manage saved views",
	}
	cmd.AddCommand(
		newViewSaveCmd(a, "create <table-id> <name>", "Save a view of a table", false),
		newViewSaveCmd(a, "edit <view-id> <name>", "Replace a view's name, search, sorts and filters", true),
		&cobra.Command{
			Use:   "list <table-id>",
			Short: "List the saved views of a table",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tableID, err := parseID("table id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					views, err := e.ListViews(ctx, user, tableID)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), views)
					}
					if len(views) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No views found.")
						return nil
					}
					rows := make([][]string, len(views))
					for i, v := range views {
						search := ""
						if v.SearchQuery != nil {
							search = *v.SearchQuery
						}
						rows[i] = []string{itoa(v.ID), truncate(v.Name, 30), fmt.Sprint(len(v.Sorts)), fmt.Sprint(len(v.Filters)), truncate(search, 30)}
					}
					printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "SORTS", "FILTERS", "SEARCH"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <view-id>",
			Short: "Show a saved view",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				viewID, err := parseID("view id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					view, err := e.GetView(ctx, user, viewID)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), view)
					}
					table, err := e.GetTable(ctx, user, view.TableID)
					if err != nil {
						return err
					}
					printView(cmd.OutOrStdout(), view, table.Columns)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <view-id>",
			Short: "Delete a saved view",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				viewID, err := parseID("view id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					if err := e.DeleteView(ctx, user, viewID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted view %d\n", viewID)
					return nil
				})
			},
		},
	)
	return cmd
}

// newViewSaveCmd builds create and edit, which differ only in whether the
// first argument names a table or an existing view.
func newViewSaveCmd(a *app, use, short string, edit bool) *cobra.Command {
	var qf pageFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "table id"
			if edit {
				what = "view id"
			}
			id, err := parseID(what, args[0])
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				tableID := id
				if edit {
					existing, err := e.GetView(ctx, user, id)
					if err != nil {
						return err
					}
					tableID = existing.TableID
				}
				table, err := e.GetTable(ctx, user, tableID)
				if err != nil {
					return err
				}
				sorts, filters, err := qf.specs(table.Columns)
				if err != nil {
					return err
				}
				in := types.ViewInput{Name: args[1], Sorts: sorts, Filters: filters}
				if qf.search != "" {
					in.SearchQuery = &qf.search
				}

				var view *types.View
				if edit {
					view, err = e.EditView(ctx, user, id, in)
				} else {
					view, err = e.CreateView(ctx, user, tableID, in)
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), view)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved view %d %q\n", view.ID, view.Name)
				return nil
			})
		},
	}
	qf.register(cmd)
	return cmd
}

// printView prints a view with column names in place of ids.
func printView(w io.Writer, view *types.View, columns []types.Column) {
	name := func(id int64) string {
		if c, ok := types.ColumnByID(columns, id); ok {
			return c.Name
		}
		return fmt.Sprintf("#%d", id)
	}
	fmt.Fprintf(w, "View %d %q (table %d)\n", view.ID, view.Name, view.TableID)
	if view.SearchQuery != nil {
		fmt.Fprintf(w, "Search:  %s\n", *view.SearchQuery)
	}
	for _, s := range view.Sorts {
		fmt.Fprintf(w, "Sort:    %s %s\n", name(s.ColumnID), strings.ToUpper(string(s.Direction)))
	}
	for _, f := range view.Filters {
		fmt.Fprintf(w, "Filter:  %s %s %s\n", name(f.ColumnID), f.Operator, f.Value)
	}
}
