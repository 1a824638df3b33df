package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/slick/core"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/outwriter"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleBuildGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input_path", "")
	cfg.SpillID = request.GetString("id", "")
	cfg.WithSun = request.GetBool("sun", cfg.WithSun)
	if err := contract.RevalidateDetail(cfg, request.GetString("detail", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	doc, err := core.GetGroupsDocument(core.WithQuiet(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}
	return jsonResult(doc)
}

func (h *toolHandler) handleAggregateStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input_path", "")
	limit := request.GetInt("limit", 0)
	if limit < 0 || limit > contract.MaxResultLimit {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: limit cannot be negative or exceed %d", contract.MaxResultLimit)), nil
	}
	if limit > 0 {
		cfg.Limit = limit
	}
	if err := contract.RevalidateRankBy(cfg, request.GetString("rank_by", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	stats, ranked, err := core.GetStatsResults(core.WithQuiet(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"stats":   stats,
		"rank_by": cfg.RankBy,
		"top":     ranked,
	})
}

func (h *toolHandler) handleSpillOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.SpillID = request.GetString("id", "")
	cfg.InputPath = request.GetString("input_path", "")
	cfg.Timestamp = request.GetString("timestamp", "")
	cfg.Density = request.GetString("density", "")
	if cfg.SpillID == "" {
		return mcp.NewToolResultError("invalid parameters: id is required"), nil
	}
	if err := contract.RevalidateDetail(cfg, request.GetString("detail", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	outlines, err := core.GetOutlines(core.WithQuiet(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("outline failed: %v", err)), nil
	}
	return jsonResult(outwriter.OutlineCollection(outlines))
}

func (h *toolHandler) handleListSpills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	input := &contract.ConfigRawInput{
		Page:       request.GetInt("page", 0),
		Size:       request.GetInt("size", 0),
		IDContains: request.GetString("id_contains", ""),
		Sort:       request.GetString("sort", ""),
		Order:      request.GetString("order", ""),
	}
	if err := contract.RevalidateQuery(cfg, input); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	page, err := core.GetRecordPage(core.WithQuiet(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}
	return jsonResult(page)
}
