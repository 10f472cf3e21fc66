package pipeline

import (
	"context"

	"arxiv-similarity-search/internal/models"
)

// Pipeline is one mode's search/summary capability. A nil ResultSet or nil
// Summary returned without an error is the pipeline's defined internal-failure
// signal; an error return is an unhandled fault and propagates as such.
type Pipeline interface {
	RunPipeline(ctx context.Context, abstract string) (*models.ResultSet, error)
	GenerateSummary(ctx context.Context, paper models.PaperRecord) (*models.Summary, error)
}
