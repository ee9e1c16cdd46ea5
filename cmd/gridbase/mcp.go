package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/mcpserver"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve gridbase tools over MCP on stdin/stdout",
		Long:  "Serve gridbase tools over MCP on stdin/stdout. Every tool acts as the\nconfigured user. Logs go to stderr.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(_ context.Context, e types.Engine, user string) error {
				srv := mcpserver.New(mcpserver.Deps{
					Engine:    e,
					UserID:    user,
					Version:   version,
					Logger:    logrus.NewEntry(a.log),
					PageLimit: a.cfg.GetInt(cfgKeyPageLimit),
				})
				return srv.ServeStdio()
			})
		},
	}
}
