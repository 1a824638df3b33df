// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/slick/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the spill MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Slick Spill Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: build_groups ---
	s.AddTool(mcp.NewTool("build_groups",
		mcp.WithDescription("Build level-of-detail groups of spill points per timestamp, record and density."),
		mcp.WithString("input_path", mcp.Description("JSON file with spill records or an upload document. Uses the record store when omitted.")),
		mcp.WithString("id", mcp.Description("Restrict the build to a single spill id.")),
		mcp.WithString("detail", mcp.Description("Level of detail. Defaults to 'medium'."), mcp.Enum("single", "low", "medium", "high")),
		mcp.WithBoolean("sun", mcp.Description("Include the subsolar point for every timestamp.")),
	), h.handleBuildGroups)

	// --- 2. Tool: aggregate_stats ---
	s.AddTool(mcp.NewTool("aggregate_stats",
		mcp.WithDescription("Aggregate precomputed spill stats and rank the spills by a field."),
		mcp.WithString("input_path", mcp.Description("JSON file with spill records. Uses the record store when omitted.")),
		mcp.WithString("rank_by", mcp.Description("Stat field to rank by, such as area, duration or density. Defaults to 'area'.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked spills returned.")),
	), h.handleAggregateStats)

	// --- 3. Tool: spill_outline ---
	s.AddTool(mcp.NewTool("spill_outline",
		mcp.WithDescription("Compute convex-hull outlines of the density buckets of one spill as GeoJSON."),
		mcp.WithString("id", mcp.Description("The spill id."), mcp.Required()),
		mcp.WithString("input_path", mcp.Description("JSON file holding the spill. Uses the record store when omitted.")),
		mcp.WithString("timestamp", mcp.Description("Only outline this timestamp.")),
		mcp.WithString("density", mcp.Description("Only outline this density bucket, for example '2'.")),
		mcp.WithString("detail", mcp.Description("Level of detail."), mcp.Enum("single", "low", "medium", "high")),
	), h.handleSpillOutline)

	// --- 4. Tool: list_spills ---
	s.AddTool(mcp.NewTool("list_spills",
		mcp.WithDescription("List spill records in the record store."),
		mcp.WithNumber("page", mcp.Description("1-based page number.")),
		mcp.WithNumber("size", mcp.Description("Page size.")),
		mcp.WithString("id_contains", mcp.Description("Case-insensitive id filter, applied from 3 characters on.")),
		mcp.WithString("sort", mcp.Description("Sort field."), mcp.Enum("id", "area", "imported_at")),
		mcp.WithString("order", mcp.Description("Sort order."), mcp.Enum("asc", "desc")),
	), h.handleListSpills)

	return s
}

// StartMCPServer starts the spill MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
