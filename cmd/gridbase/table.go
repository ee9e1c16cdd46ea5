package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Create, list and show tables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <base-id> <name>",
			Short: "Create a table with default columns and rows",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				baseID, err := parseID("base id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					table, err := e.CreateTable(ctx, user, baseID, args[1])
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), table)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created table %d %q\n", table.ID, table.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list <base-id>",
			Short: "List the tables of a base",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				baseID, err := parseID("base id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					tables, err := e.ListTables(ctx, user, baseID)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), tables)
					}
					rows := make([][]string, len(tables))
					for i, t := range tables {
						rows[i] = []string{itoa(t.ID), truncate(t.Name, 40)}
					}
					printTable(cmd.OutOrStdout(), []string{"ID", "NAME"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <table-id>",
			Short: "Show a table and its columns",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tableID, err := parseID("table id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					table, err := e.GetTable(ctx, user, tableID)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), table)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Table %d %q (base %d)\n", table.ID, table.Name, table.BaseID)
					rows := make([][]string, len(table.Columns))
					for i, c := range table.Columns {
						rows[i] = []string{itoa(c.ID), c.Name, string(c.Type)}
					}
					printTable(cmd.OutOrStdout(), []string{"ID", "COLUMN", "TYPE"}, rows)
					return nil
				})
			},
		},
	)
	return cmd
}
