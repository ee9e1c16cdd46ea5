package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <table-id> <file.jsonl>",
		Short: "Write every row of a table as JSON lines keyed by column name",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableID, err := parseID("table id", args[0])
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				n, err := e.ExportTable(ctx, user, tableID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", n, args[1])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <table-id> <file.jsonl>",
		Short: "Append rows from JSON lines; keys that match no column are ignored",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableID, err := parseID("table id", args[0])
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				n, err := e.ImportTable(ctx, user, tableID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows from %s\n", n, args[1])
				return nil
			})
		},
	}
}
