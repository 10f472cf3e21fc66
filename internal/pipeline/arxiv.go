package pipeline

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline/rank"
	"arxiv-similarity-search/internal/summarizer"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const maxQueryKeywords = 8

// ArxivPipeline searches the live arXiv corpus: keyword extraction from the
// query abstract, Atom API recall, TF-IDF rerank.
type ArxivPipeline struct {
	client     *http.Client
	maxResults int
	topK       int
	generator  *summarizer.Generator
	logger     *zerolog.Logger
}

func NewArxivPipeline(maxResults, topK int, generator *summarizer.Generator, logger *zerolog.Logger) *ArxivPipeline {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &ArxivPipeline{
		client:     &http.Client{Timeout: 30 * time.Second},
		maxResults: maxResults,
		topK:       topK,
		generator:  generator,
		logger:     logger,
	}
}

func (p *ArxivPipeline) RunPipeline(ctx context.Context, abstract string) (*models.ResultSet, error) {
	start := time.Now()

	keywords := rank.ExtractKeywords(abstract, maxQueryKeywords)
	if len(keywords) == 0 {
		p.logger.Warn().Msg("No keywords extracted from query abstract")
		return nil, nil
	}

	candidates, err := p.fetchCandidates(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("arXiv recall failed: %w", err)
	}
	if len(candidates) == 0 {
		p.logger.Warn().Strs("keywords", keywords).Msg("ArXiv query returned no candidates")
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
		Msg("ArXiv pipeline complete")

	return &models.ResultSet{
		QueryTimestamp: time.Now().UTC(),
		Keywords:       keywords,
		Metrics: map[string]any{
			"mode":          string(models.ModeArxiv),
			"total_results": len(candidates),
			"top_k":         len(papers),
			"duration_ms":   duration.Milliseconds(),
		},
		Papers:              papers,
		ComparativeAnalysis: comparativeAnalysis(papers),
	}, nil
}

func (p *ArxivPipeline) GenerateSummary(ctx context.Context, paper models.PaperRecord) (*models.Summary, error) {
	if p.generator == nil {
		p.logger.Warn().Msg("Summarizer not configured")
		return nil, nil
	}
	return p.generator.Generate(ctx, paper)
}

func (p *ArxivPipeline) fetchCandidates(ctx context.Context, keywords []string) ([]models.PaperRecord, error) {
	query := buildArxivQuery(keywords)
	endpoint := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, query, p.maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var candidates []models.PaperRecord
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		record := models.PaperRecord{
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			ArxivID:  arxivID,
			URL:      "https://arxiv.org/abs/" + arxivID,
			Abstract: strings.TrimSpace(entry.Summary),
		}
		for _, a := range entry.Authors {
			record.Authors = append(record.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			record.Year = t.Year()
		}

		candidates = append(candidates, record)
	}
	return candidates, nil
}

// buildArxivQuery joins keywords with OR for recall; the rerank stage narrows
// the set afterwards.
func buildArxivQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		parts = append(parts, "all:"+url.QueryEscape(kw))
	}
	return strings.Join(parts, "+OR+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
