package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newBaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base",
		Short: "Create, list and delete bases",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a base with a seeded table",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					base, err := e.CreateBase(ctx, user, args[0])
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), base)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created base %d %q\n", base.ID, base.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List your bases",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					bases, err := e.ListBases(ctx, user)
					if err != nil {
						return err
					}
					if a.flags.jsonMode {
						return printJSON(cmd.OutOrStdout(), bases)
					}
					if len(bases) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No bases found.")
						return nil
					}
					rows := make([][]string, len(bases))
					for i, b := range bases {
						rows[i] = []string{itoa(b.ID), truncate(b.Name, 40), b.CreatedAt.Format("2006-01-02")}
					}
					printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CREATED"}, rows)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <base-id>",
			Short: "Delete a base and everything in it",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("base id", args[0])
				if err != nil {
					return err
				}
				return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
					if err := e.DeleteBase(ctx, user, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted base %d\n", id)
					return nil
				})
			},
		},
	)
	return cmd
}
