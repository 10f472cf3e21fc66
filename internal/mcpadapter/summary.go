package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/service"
)

// SummarizeInput is the MCP tool input schema for deep-dive summaries.
type SummarizeInput struct {
	Mode       string `json:"mode" jsonschema:"search mode used for summarization: arxiv or local"`
	PaperIndex int    `json:"paper_index" jsonschema:"1-based paper rank from an earlier search (1-5)"`
	SessionID  string `json:"session_id" jsonschema:"session id returned by search_papers"`
}

// NewSummarizeHandler returns a tool handler backed by the given service.
// Pass the returned function to mcp.AddTool.
func NewSummarizeHandler(svc *service.Service) func(context.Context, *mcp.CallToolRequest, SummarizeInput) (*mcp.CallToolResult, models.SummaryResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, models.SummaryResponse, error) {
		return SummarizePaper(ctx, svc, req, input)
	}
}

// SummarizePaper generates and persists the summary for one paper of an
// existing session.
func SummarizePaper(
	ctx context.Context,
	svc *service.Service,
	req *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, models.SummaryResponse, error) {
	result, err := svc.Summarize(ctx, models.SummaryRequest{
		Mode:       input.Mode,
		PaperIndex: input.PaperIndex,
		SessionID:  input.SessionID,
	})
	if err != nil {
		return nil, models.SummaryResponse{}, err
	}
	return nil, *result, nil
}
