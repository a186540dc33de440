package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/report"
)

// RenderReportParams defines parameters for the render_report tool.
type RenderReportParams struct {
	Data   map[string]any `json:"data"`
	Blocks []string       `json:"blocks,omitempty"`
}

// RenderReportResult contains the text of a built report.
type RenderReportResult struct {
	Blocks      map[string]string    `json:"blocks"`
	Error       string               `json:"error,omitempty"`
	Report      string               `json:"report"`
	Text        string               `json:"text"`
	Message     string               `json:"message"`
	Diagnostics []*report.Diagnostic `json:"diagnostics,omitempty"`
	Count       int                  `json:"count"`
}

func (s *Server) handleRenderReport(
	ctx context.Context,
	req *ToolRequest[RenderReportParams],
) (*mcp.CallToolResultFor[RenderReportResult], error) {
	if s.builder == nil {
		result := RenderReportResult{Error: "no report definition loaded"}
		result.Message = "ERROR: " + result.Error

		return errorResult(result.Message, result), nil
	}

	in := req.Params.Arguments

	ids := s.builder.Report().BlockIDs()
	for _, id := range in.Blocks {
		if !slices.Contains(ids, id) {
			result := RenderReportResult{Error: fmt.Sprintf("unknown block %q", id)}
			result.Message = "INVALID INPUT ERROR: " + result.Error

			return errorResult(result.Message, result), nil
		}
	}

	out, err := s.builder.Build(ctx, expr.Context(in.Data))
	if err != nil {
		result := RenderReportResult{Error: err.Error()}
		result.Message = "BUILD ERROR: " + result.Error

		return errorResult(result.Message, result), nil
	}

	blocks := out.Blocks
	if len(in.Blocks) > 0 {
		blocks = make(map[string]string, len(in.Blocks))
		for _, id := range in.Blocks {
			blocks[id] = out.Blocks[id]
		}
	}

	result := RenderReportResult{
		Report:      out.Report,
		Count:       out.Count,
		Blocks:      blocks,
		Text:        out.Text(in.Blocks...),
		Diagnostics: out.Diagnostics,
	}

	result.Message = fmt.Sprintf("Built %d block(s) of %s.", len(blocks), out.Report)
	if n := len(out.Diagnostics); n > 0 {
		result.Message += fmt.Sprintf(" %d block(s) could not be rendered; see diagnostics.", n)
	}

	text := result.Message
	if result.Text != "" {
		text += "\n\n" + truncateString(result.Text, previewLength)
	}

	return &mcp.CallToolResultFor[RenderReportResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: text}},
		StructuredContent: result,
	}, nil
}
