package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newGenerateCmd(a *app) *cobra.Command {
	var policy types.BatchPolicy
	cmd := &cobra.Command{
		Use:   "generate <table-id> <count>",
		Short: "Append rows of synthetic data",
		Long: `Append rows of synthetic data, one transaction per chunk. Values are
chosen from column names (email, city, price, age, ...); other columns stay
empty. A failed chunk rolls back alone: earlier chunks stay committed.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableID, err := parseID("table id", args[0])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return usagef("invalid count %q", args[1])
			}
			return a.withEngine(cmd, func(ctx context.Context, e types.Engine, user string) error {
				start := time.Now()
				res, err := e.GenerateRows(ctx, user, tableID, count, policy)
				if err != nil {
					if res != nil && res.Count > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "Committed %d rows (orders %d..%d) before the failure\n", res.Count, res.FirstOrder, res.LastOrder)
					}
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rows (orders %d..%d) in %s\n",
					res.Count, res.FirstOrder, res.LastOrder, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&policy.ChunkSize, "chunk-size", 0, "rows per transaction (default: generate.chunk_size)")
	cmd.Flags().IntVar(&policy.CellBatchSize, "cell-batch-size", 0, "cells per INSERT statement (default: generate.cell_batch_size)")
	cmd.Flags().DurationVar(&policy.ChunkTimeout, "chunk-timeout", 0, "timeout for one chunk transaction (default: generate.chunk_timeout)")
	return cmd
}
