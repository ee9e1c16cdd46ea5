package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (s *Server) registerCellTools() {
	s.mcp.AddTool(mcp.NewTool("update_cell",
		mcp.WithDescription("Write a value into a cell. NUMBER columns parse the value; blank input clears the cell."),
		mcp.WithNumber("row_id", mcp.Description("Row ID"), mcp.Required()),
		mcp.WithNumber("column_id", mcp.Description("Column ID"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Raw input as typed by a user"), mcp.Required()),
	), s.handleUpdateCell)

	s.mcp.AddTool(mcp.NewTool("list_view_page",
		mcp.WithDescription("Fetch one page of rows. Pass next_cursor from the previous page to continue. With view_id the saved view's search, sorts and filters are used."),
		mcp.WithNumber("table_id", mcp.Description("Table ID (ignored when view_id is set)")),
		mcp.WithNumber("view_id", mcp.Description("Saved view ID")),
		mcp.WithNumber("limit", mcp.Description("Rows per page, 1..1000")),
		mcp.WithNumber("cursor", mcp.Description("next_cursor of the previous page")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring matched against every column")),
		mcp.WithArray("sorts", mcp.Description("Sort keys"), mcp.Items(sortSchema)),
		mcp.WithArray("filters", mcp.Description("Filters, combined with AND"), mcp.Items(filterSchema)),
	), s.handleListViewPage)
}

var sortSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"column_id": map[string]any{"type": "number"},
		"direction": map[string]any{"type": "string", "enum": []string{"asc", "desc"}},
		"priority":  map[string]any{"type": "number"},
	},
	"required": []string{"column_id", "direction"},
}

var filterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"column_id": map[string]any{"type": "number"},
		"operator": map[string]any{"type": "string", "enum": []string{
			"gt", "lt", "eq", "contains", "not_contains", "empty", "not_empty",
		}},
		"value": map[string]any{"type": "string"},
	},
	"required": []string{"column_id", "operator"},
}

// pageArgs is the argument shape of list_view_page.
type pageArgs struct {
	TableID int64              `json:"table_id"`
	ViewID  int64              `json:"view_id"`
	Limit   int                `json:"limit"`
	Cursor  *int64             `json:"cursor"`
	Search  string             `json:"search"`
	Sorts   []types.SortSpec   `json:"sorts"`
	Filters []types.FilterSpec `json:"filters"`
}

func (s *Server) handleUpdateCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rowID, err := requireID(req, "row_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	columnID, err := requireID(req, "column_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cell, err := s.engine.UpdateCell(ctx, s.userID, rowID, columnID, raw)
	if err != nil {
		return s.errorResult("update_cell", err)
	}
	return jsonResult(cell)
}

func (s *Server) handleListViewPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args pageArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if args.Limit == 0 {
		args.Limit = s.limit
	}

	var q types.ViewQuery
	if args.ViewID != 0 {
		view, err := s.engine.GetView(ctx, s.userID, args.ViewID)
		if err != nil {
			return s.errorResult("list_view_page", err)
		}
		q = view.Query(args.Limit, args.Cursor)
	} else {
		if args.TableID == 0 {
			return mcp.NewToolResultError("table_id or view_id is required"), nil
		}
		for i := range args.Sorts {
			if args.Sorts[i].Priority == 0 {
				args.Sorts[i].Priority = i
			}
		}
		q = types.ViewQuery{
			TableID: args.TableID,
			Limit:   args.Limit,
			Cursor:  args.Cursor,
			Sorts:   args.Sorts,
			Filters: args.Filters,
			Search:  args.Search,
		}
	}

	page, err := s.engine.ListViewPage(ctx, s.userID, q)
	if err != nil {
		return s.errorResult("list_view_page", err)
	}
	return jsonResult(page)
}
