package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newRowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Manage table rows",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <table-id>",
		Short: "Append an empty row to a table",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableID, err := parseID("table id", args[0])
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				row, err := e.CreateRow(ctx, user, tableID)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), row)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created row %d (order %d)\n", row.ID, row.Order)
				return nil
			})
		},
	})
	return cmd
}
