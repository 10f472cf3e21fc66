package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/localdb"
	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline/rank"
	"arxiv-similarity-search/internal/summarizer"
)

// LocalPipeline searches the offline corpus: FTS5 recall over the SQLite
// index, TF-IDF rerank on top.
type LocalPipeline struct {
	store      *localdb.Store
	maxResults int
	topK       int
	generator  *summarizer.Generator
	logger     *zerolog.Logger
}

// NewLocalPipeline opens the local corpus index under folder and syncs the
// sidecar metadata files into it.
func NewLocalPipeline(folder string, maxResults, topK int, generator *summarizer.Generator, logger *zerolog.Logger) (*LocalPipeline, error) {
	store, err := localdb.Open(folder)
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	ingested, err := store.Sync(context.Background())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("syncing local database: %w", err)
	}
	logger.Info().Int("papers", ingested).Str("folder", folder).Msg("Local corpus indexed")

	if maxResults <= 0 {
		maxResults = 20
	}
	return &LocalPipeline{
		store:      store,
		maxResults: maxResults,
		topK:       topK,
		generator:  generator,
		logger:     logger,
	}, nil
}

func (p *LocalPipeline) RunPipeline(ctx context.Context, abstract string) (*models.ResultSet, error) {
	start := time.Now()

	keywords := rank.ExtractKeywords(abstract, maxQueryKeywords)
	if len(keywords) == 0 {
		p.logger.Warn().Msg("No keywords extracted from query abstract")
		return nil, nil
	}

	candidates, err := p.store.Search(ctx, keywords, p.maxResults)
	if err != nil {
		return nil, fmt.Errorf("local recall failed: %w", err)
	}
	if len(candidates) == 0 {
		p.logger.Warn().Strs("keywords", keywords).Msg("Local index returned no candidates")
		return nil, nil
	}

	papers, err := rankCandidates(abstract, keywords, candidates, p.topK)
	if err != nil {
		return nil, fmt.Errorf("reranking failed: %w", err)
	}

	duration := time.Since(start)
	p.logger.Info().
		Int("candidates", len(candidates)).
		Int("top_k", len(papers)).
		Dur("duration", duration).
		Msg("Local pipeline complete")

	return &models.ResultSet{
		QueryTimestamp: time.Now().UTC(),
		Keywords:       keywords,
		Metrics: map[string]any{
			"mode":          string(models.ModeLocal),
			"total_results": len(candidates),
			"top_k":         len(papers),
			"duration_ms":   duration.Milliseconds(),
		},
		Papers: papers,
	}, nil
}

func (p *LocalPipeline) GenerateSummary(ctx context.Context, paper models.PaperRecord) (*models.Summary, error) {
	if p.generator == nil {
		p.logger.Warn().Msg("Summarizer not configured")
		return nil, nil
	}
	return p.generator.Generate(ctx, paper)
}

// Close releases the corpus index.
func (p *LocalPipeline) Close() error {
	return p.store.Close()
}
