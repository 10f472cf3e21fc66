package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/service"
)

// SearchInput is the MCP tool input schema (matches HTTP API field names).
type SearchInput struct {
	Mode     string `json:"mode" jsonschema:"search mode: arxiv (online) or local (offline corpus)"`
	Abstract string `json:"abstract" jsonschema:"query abstract, at least 50 characters"`
}

// NewSearchHandler returns a tool handler backed by the given service.
// Pass the returned function to mcp.AddTool.
func NewSearchHandler(svc *service.Service) func(context.Context, *mcp.CallToolRequest, SearchInput) (*mcp.CallToolResult, models.SearchResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, models.SearchResponse, error) {
		return SearchPapers(ctx, svc, req, input)
	}
}

// SearchPapers runs the similarity search and returns the session-scoped
// result view.
func SearchPapers(
	ctx context.Context,
	svc *service.Service,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, models.SearchResponse, error) {
	result, err := svc.Search(ctx, models.SearchRequest{
		Mode:     input.Mode,
		Abstract: input.Abstract,
	})
	if err != nil {
		return nil, models.SearchResponse{}, err
	}
	return nil, *result, nil
}
