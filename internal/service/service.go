// Package service implements the session-scoped search/summary orchestration:
// request validation, pipeline resolution, session materialization, and the
// positional consistency rules for follow-up summary requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline"
	"arxiv-similarity-search/internal/session"
)

const (
	minAbstractLength = 50

	// maxPaperIndex is a fixed bound, independent of how many papers a
	// session actually holds.
	maxPaperIndex = 5

	// abstractPreviewLength is the response preview cut. The "..." suffix is
	// appended unconditionally, also when nothing was cut.
	abstractPreviewLength = 300

	sessionIDTimeFormat = "20060102_150405"
)

// Pipelines resolves the pipeline handle for a mode. Satisfied by
// pipeline.Registry.
type Pipelines interface {
	Get(mode models.Mode) (pipeline.Pipeline, error)
}

type Service struct {
	pipelines Pipelines
	sessions  session.Store
	logger    *zerolog.Logger

	// now is injectable so session-id tests control the clock.
	now func() time.Time
}

func New(pipelines Pipelines, sessions session.Store, logger *zerolog.Logger) *Service {
	return &Service{
		pipelines: pipelines,
		sessions:  sessions,
		logger:    logger,
		now:       time.Now,
	}
}

// Search validates the request, runs the mode's pipeline, materializes the
// result set as a new session and projects the bounded public view.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	// Validation order is part of the contract: length first, then mode.
	if utf8.RuneCountInString(req.Abstract) < minAbstractLength {
		return nil, ErrAbstractTooShort
	}

	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	p, err := s.pipelines.Get(mode)
	if err != nil {
		return nil, err
	}

	results, err := p.RunPipeline(ctx, req.Abstract)
	if err != nil {
		return nil, err
	}
	if results == nil {
		return nil, ErrSearchFailed
	}

	// Same mode + same second collides and overwrites the earlier session.
	sessionID := fmt.Sprintf("%s_%s", mode, s.now().Format(sessionIDTimeFormat))
	if err := s.sessions.Put(ctx, sessionID, results); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("mode", string(mode)).
		Int("papers", len(results.Papers)).
		Msg("Search session created")

	return s.projectSearchResponse(sessionID, mode, req.Abstract, results), nil
}

func (s *Service) projectSearchResponse(sessionID string, mode models.Mode, abstract string, results *models.ResultSet) *models.SearchResponse {
	papers := make([]models.PaperRecord, 0, maxPaperIndex)
	for i, paper := range results.Papers {
		if i >= maxPaperIndex {
			break
		}
		paper.Summary = nil
		paper.Abstract = truncateAbstract(paper.Abstract)
		papers = append(papers, paper)
	}

	keywords := results.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	metrics := results.Metrics
	if metrics == nil {
		metrics = map[string]any{}
	}

	return &models.SearchResponse{
		SessionID:           sessionID,
		Mode:                string(mode),
		QueryAbstract:       abstract,
		Timestamp:           results.QueryTimestamp,
		Keywords:            keywords,
		Metrics:             metrics,
		TopPapers:           papers,
		ComparativeAnalysis: results.ComparativeAnalysis,
	}
}

// truncateAbstract cuts to the preview length in code points and always
// appends the ellipsis, also for short abstracts.
func truncateAbstract(abstract string) string {
	runes := []rune(abstract)
	if len(runes) > abstractPreviewLength {
		runes = runes[:abstractPreviewLength]
	}
	return string(runes) + "..."
}

// Summarize locates the paper at the 1-based rank inside the session, runs
// summary generation, merges the summary into the stored record and returns
// the normalized view. The pipeline is resolved from the request's mode, not
// the session's original one.
func (s *Service) Summarize(ctx context.Context, req models.SummaryRequest) (*models.SummaryResponse, error) {
	results, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if req.PaperIndex < 1 || req.PaperIndex > maxPaperIndex {
		return nil, ErrInvalidPaperIndex
	}
	if req.PaperIndex > len(results.Papers) {
		return nil, ErrPaperNotFound
	}
	paper := results.Papers[req.PaperIndex-1]

	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	p, err := s.pipelines.Get(mode)
	if err != nil {
		return nil, err
	}

	summary, err := p.GenerateSummary(ctx, paper)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrSummaryFailed
	}
	if summary.KeyFindings == nil {
		summary.KeyFindings = []string{}
	}

	if err := s.sessions.SetSummary(ctx, req.SessionID, req.PaperIndex-1, summary); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, session.ErrPaperOutOfRange):
			return nil, ErrPaperNotFound
		default:
			return nil, fmt.Errorf("persisting summary: %w", err)
		}
	}

	s.logger.Info().
		Str("session_id", req.SessionID).
		Int("paper_index", req.PaperIndex).
		Msg("Summary generated")

	authors := paper.Authors
	if authors == nil {
		authors = []string{}
	}

	return &models.SummaryResponse{
		Paper: models.PaperIdentity{
			Rank:    paper.Rank,
			Title:   paper.Title,
			Authors: authors,
			Year:    paper.Year,
			ArxivID: paper.ArxivID,
		},
		Summary: *summary,
	}, nil
}

// Session returns the raw stored ResultSet for an existing session.
func (s *Service) Session(ctx context.Context, sessionID string) (*models.ResultSet, error) {
	results, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return results, nil
}
