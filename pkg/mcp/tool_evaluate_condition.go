package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/dictamen/pkg/expr"
)

// EvaluateConditionParams defines parameters for the evaluate_condition tool.
type EvaluateConditionParams struct {
	Data       map[string]any `json:"data,omitempty"`
	Expression string         `json:"expression"`
}

// EvaluateConditionResult contains the result of evaluating a condition.
type EvaluateConditionResult struct {
	Error     string   `json:"error,omitempty"`
	Canonical string   `json:"canonical,omitempty"`
	Message   string   `json:"message"`
	Variables []string `json:"variables"`
	Result    bool     `json:"result"`
}

func (s *Server) handleEvaluateCondition(
	_ context.Context,
	req *ToolRequest[EvaluateConditionParams],
) (*mcp.CallToolResultFor[EvaluateConditionResult], error) {
	in := req.Params.Arguments

	x, err := s.evaluator.Compile(in.Expression)
	if err != nil {
		result := EvaluateConditionResult{
			Error:     err.Error(),
			Message:   "INVALID INPUT ERROR: " + err.Error(),
			Variables: []string{},
		}

		return errorResult(result.Message, result), nil
	}

	result := EvaluateConditionResult{
		Result:    x.Eval(expr.Context(in.Data)),
		Canonical: x.String(),
		Variables: x.Variables(),
	}
	result.Message = fmt.Sprintf("%s is %t.", result.Canonical, result.Result)

	return &mcp.CallToolResultFor[EvaluateConditionResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
		StructuredContent: result,
	}, nil
}
