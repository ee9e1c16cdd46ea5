package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (s *Server) registerTableTools() {
	s.mcp.AddTool(mcp.NewTool("get_table",
		mcp.WithDescription("Get a table with its columns in display order"),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
	), s.handleGetTable)

	s.mcp.AddTool(mcp.NewTool("create_column",
		mcp.WithDescription("Append a column to a table. Every existing row gets an empty cell."),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Column name"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Column type"), mcp.Required(), mcp.Enum("TEXT", "NUMBER")),
	), s.handleCreateColumn)

	s.mcp.AddTool(mcp.NewTool("create_row",
		mcp.WithDescription("Append an empty row to a table"),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
	), s.handleCreateRow)

	s.mcp.AddTool(mcp.NewTool("generate_rows",
		mcp.WithDescription("Append rows of synthetic data. Columns whose names are not recognised stay empty."),
		mcp.WithNumber("table_id", mcp.Description("Table ID"), mcp.Required()),
		mcp.WithNumber("count", mcp.Description("Number of rows to create"), mcp.Required()),
		mcp.WithNumber("chunk_size", mcp.Description("Rows per transaction (optional)")),
		mcp.WithNumber("cell_batch_size", mcp.Description("Cells per INSERT statement (optional)")),
	), s.handleGenerateRows)
}

func (s *Server) handleGetTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := requireID(req, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	table, err := s.engine.GetTable(ctx, s.userID, tableID)
	if err != nil {
		return s.errorResult("get_table", err)
	}
	return jsonResult(table)
}

func (s *Server) handleCreateColumn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := requireID(req, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	columnType, err := types.ParseColumnType(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := s.engine.CreateColumn(ctx, s.userID, tableID, name, columnType)
	if err != nil {
		return s.errorResult("create_column", err)
	}
	return jsonResult(col)
}

func (s *Server) handleCreateRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := requireID(req, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := s.engine.CreateRow(ctx, s.userID, tableID)
	if err != nil {
		return s.errorResult("create_row", err)
	}
	return jsonResult(row)
}

func (s *Server) handleGenerateRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := requireID(req, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count, err := req.RequireFloat("count")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	policy := types.BatchPolicy{
		ChunkSize:     int(req.GetFloat("chunk_size", 0)),
		CellBatchSize: int(req.GetFloat("cell_batch_size", 0)),
	}
	res, err := s.engine.GenerateRows(ctx, s.userID, tableID, int(count), policy)
	if err != nil {
		if res != nil && res.Count > 0 {
			return mcp.NewToolResultError(fmt.Sprintf("%v (%d rows committed, orders %d..%d)", err, res.Count, res.FirstOrder, res.LastOrder)), nil
		}
		return s.errorResult("generate_rows", err)
	}
	return jsonResult(res)
}
