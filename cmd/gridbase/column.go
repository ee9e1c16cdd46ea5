package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newColumnCmd(a *app) *cobra.Command {
	var columnType string
	add := &cobra.Command{
		Use:   "add <table-id> <name>",
		Short: "Append a typed column to a table",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableID, err := parseID("table id", args[0])
			if err != nil {
				return err
			}
			ct, err := types.ParseColumnType(columnType)
			if err != nil {
				return usagef("--type %q: want text or number", columnType)
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				col, err := e.CreateColumn(ctx, user, tableID, args[1], ct)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), col)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created column %d %q (%s)\n", col.ID, col.Name, col.Type)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&columnType, "type", "t", "text", "column type: text or number")

	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage table columns",
	}
	cmd.AddCommand(add)
	return cmd
}
