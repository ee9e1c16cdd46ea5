package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (s *Server) registerViewTools() {
	s.mcp.AddTool(mcp.NewTool("list_views",
		mcp.WithDescription("List the saved views of a table"),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
	), s.handleListViews)

	s.mcp.AddTool(mcp.NewTool("create_view",
		mcp.WithDescription("Save a named combination of search, sorts and filters for a table"),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("View name"), mcp.Required()),
		mcp.WithString("search", mcp.Description("Search text")),
		mcp.WithArray("sorts", mcp.Description("Sort keys"), mcp.Items(sortSchema)),
		mcp.WithArray("filters", mcp.Description("Filters"), mcp.Items(filterSchema)),
	), s.handleCreateView)

	s.mcp.AddTool(mcp.NewTool("delete_view",
		mcp.WithDescription("Delete a saved view"),
		mcp.WithNumber("view_id", mcp.Description("View ID"), mcp.Required()),
	), s.handleDeleteView)
}

// viewArgs is the argument shape of create_view.
type viewArgs struct {
	TableID int64              `json:"table_id"`
	Name    string             `json:"name"`
	Search  string             `json:"search"`
	Sorts   []types.SortSpec   `json:"sorts"`
	Filters []types.FilterSpec `json:"filters"`
}

func (s *Server) handleListViews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := requireID(req, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views, err := s.engine.ListViews(ctx, s.userID, tableID)
	if err != nil {
		return s.errorResult("list_views", err)
	}
	return jsonResult(views)
}

func (s *Server) handleCreateView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args viewArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if args.TableID == 0 {
		return mcp.NewToolResultError("table_id is required"), nil
	}
	in := types.ViewInput{Name: args.Name, Sorts: args.Sorts, Filters: args.Filters}
	if args.Search != "" {
		in.SearchQuery = &args.Search
	}
	for i := range in.Sorts {
		if in.Sorts[i].Priority == 0 {
			in.Sorts[i].Priority = i
		}
	}
	view, err := s.engine.CreateView(ctx, s.userID, args.TableID, in)
	if err != nil {
		return s.errorResult("create_view", err)
	}
	return jsonResult(view)
}

func (s *Server) handleDeleteView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	viewID, err := requireID(req, "view_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.DeleteView(ctx, s.userID, viewID); err != nil {
		return s.errorResult("delete_view", err)
	}
	return mcp.NewToolResultText("deleted"), nil
}
