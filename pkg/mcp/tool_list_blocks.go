package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListBlocksParams defines parameters for the list_blocks tool.
type ListBlocksParams struct{}

// BlockInfo describes a block of the loaded report definition.
type BlockInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	RepeatCount string `json:"repeatCount,omitempty"`
	Rules       int    `json:"rules"`
}

// ListBlocksResult lists the blocks of the loaded report definition.
type ListBlocksResult struct {
	Report  string      `json:"report"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Blocks  []BlockInfo `json:"blocks"`
}

func (s *Server) handleListBlocks(
	_ context.Context,
	_ *ToolRequest[ListBlocksParams],
) (*mcp.CallToolResultFor[ListBlocksResult], error) {
	if s.builder == nil {
		result := ListBlocksResult{Error: "no report definition loaded", Blocks: []BlockInfo{}}
		result.Message = "ERROR: " + result.Error

		return errorResult(result.Message, result), nil
	}

	r := s.builder.Report()

	result := ListBlocksResult{
		Report: r.Name,
		Blocks: make([]BlockInfo, 0, len(r.Blocks)),
	}

	var sb strings.Builder

	for _, b := range r.Blocks {
		info := BlockInfo{
			ID:          b.ID,
			Description: b.Description,
			Rules:       len(b.Rules),
		}
		if b.Repeat != nil {
			info.RepeatCount = b.Repeat.Count
		}

		result.Blocks = append(result.Blocks, info)

		fmt.Fprintf(&sb, "\n- %s", b.ID)

		if info.RepeatCount != "" {
			fmt.Fprintf(&sb, " (repeated by %s)", info.RepeatCount)
		}

		if b.Description != "" {
			fmt.Fprintf(&sb, ": %s", b.Description)
		}
	}

	result.Message = fmt.Sprintf("%s has %d block(s).", r.Name, len(result.Blocks))

	return &mcp.CallToolResultFor[ListBlocksResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message + sb.String()}},
		StructuredContent: result,
	}, nil
}
