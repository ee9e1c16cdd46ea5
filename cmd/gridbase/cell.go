package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newCellCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Read and write cells",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <row-id> <column-id> <value>",
		Short: "Write raw input into a cell",
		Long:  "Write raw input into a cell. NUMBER columns parse the input; blank or\nnon-numeric input clears the cell unless strict_numbers is set.",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := parseID("row id", args[0])
			if err != nil {
				return err
			}
			columnID, err := parseID("column id", args[1])
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				cell, err := e.UpdateCell(ctx, user, rowID, columnID, args[2])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), cell)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated cell (%d, %d)\n", cell.RowID, cell.ColumnID)
				return nil
			})
		},
	})
	return cmd
}
