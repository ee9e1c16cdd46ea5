// Package mcpserver exposes the gridbase engine as MCP tools over stdio so
// agents can browse and edit tables on behalf of one user.
package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Server is the MCP server for one user's gridbase data.
type Server struct {
	mcp    *server.MCPServer
	engine types.Engine
	userID string
	limit  int
	log    *logrus.Entry
}

// Deps holds what the server needs from the CLI layer.
type Deps struct {
	Engine  types.Engine
	UserID  string
	Version string
	Logger  *logrus.Entry
	// PageLimit is the page size used when a tool call gives none.
	PageLimit int
}

// New creates a server with every tool registered.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	limit := deps.PageLimit
	if limit <= 0 {
		limit = types.DefaultPageSize
	}
	s := &Server{
		engine: deps.Engine,
		userID: deps.UserID,
		limit:  limit,
		log:    log.WithField("component", "mcp"),
	}
	s.mcp = server.NewMCPServer("gridbase", deps.Version, server.WithToolCapabilities(true))

	s.registerBaseTools()
	s.registerTableTools()
	s.registerCellTools()
	s.registerViewTools()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.WithField("user", s.userID).Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports an engine error to the agent as a failed tool call.
// Errors that are neither validation nor access errors are also logged.
func (s *Server) errorResult(tool string, err error) (*mcp.CallToolResult, error) {
	if !types.IsValidation(err) && !errors.Is(err, types.ErrAccessDenied) && !errors.Is(err, types.ErrNotFound) {
		s.log.WithError(err).WithField("tool", tool).Warn("tool failed")
	}
	return mcp.NewToolResultError(err.Error()), nil
}

// requireID reads a required numeric id argument.
func requireID(req mcp.CallToolRequest, key string) (int64, error) {
	f, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int64(f), nil
}
