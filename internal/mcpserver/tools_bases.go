package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBaseTools() {
	s.mcp.AddTool(mcp.NewTool("list_bases",
		mcp.WithDescription("List the bases owned by the current user"),
	), s.handleListBases)

	s.mcp.AddTool(mcp.NewTool("create_base",
		mcp.WithDescription("Create a base. The base starts with one table holding Name, Notes and Number columns and three empty rows."),
		mcp.WithString("name", mcp.Description("Base name"), mcp.Required()),
	), s.handleCreateBase)

	s.mcp.AddTool(mcp.NewTool("list_tables",
		mcp.WithDescription("List the tables of a base, ordered by id"),
		mcp.WithNumber("base_id", mcp.Description("Base ID"), mcp.Required()),
	), s.handleListTables)
}

func (s *Server) handleListBases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bases, err := s.engine.ListBases(ctx, s.userID)
	if err != nil {
		return s.errorResult("list_bases", err)
	}
	return jsonResult(bases)
}

func (s *Server) handleCreateBase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	base, err := s.engine.CreateBase(ctx, s.userID, name)
	if err != nil {
		return s.errorResult("create_base", err)
	}
	return jsonResult(base)
}

func (s *Server) handleListTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseID, err := requireID(req, "base_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tables, err := s.engine.ListTables(ctx, s.userID, baseID)
	if err != nil {
		return s.errorResult("list_tables", err)
	}
	return jsonResult(tables)
}
