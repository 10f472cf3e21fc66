package models

import (
	"fmt"
	"time"
)

// Mode selects which paper corpus a request targets.
type Mode string

const (
	// ModeArxiv searches the live arXiv corpus.
	ModeArxiv Mode = "arxiv"
	// ModeLocal searches the offline pre-indexed corpus.
	ModeLocal Mode = "local"
)

// ParseMode validates a raw mode string at the request boundary. Everything
// past the boundary carries the typed value.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeArxiv, ModeLocal:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be 'arxiv' or 'local'", raw)
	}
}

// PaperRecord is one candidate paper inside a ResultSet. The summary field is
// the only field written after creation, and only by the summary orchestration.
type PaperRecord struct {
	Rank        int      `json:"rank"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        int      `json:"year"`
	ArxivID     string   `json:"arxiv_id"`
	URL         string   `json:"url"`
	Similarity  float64  `json:"similarity"`
	RerankScore float64  `json:"rerank_score"`
	Abstract    string   `json:"abstract"`
	Summary     *Summary `json:"summary,omitempty"`
}

// ResultSet is the full output of one pipeline invocation. Papers are
// rank-ordered best first, at most five entries.
type ResultSet struct {
	QueryTimestamp      time.Time      `json:"query_timestamp"`
	Keywords            []string       `json:"keywords"`
	Metrics             map[string]any `json:"metrics"`
	Papers              []PaperRecord  `json:"top_5_papers"`
	ComparativeAnalysis map[string]any `json:"comparative_analysis,omitempty"`
}

// Summary holds the deep-dive summary fields produced by the summarization
// capability.
type Summary struct {
	ResearchObjective         string   `json:"research_objective"`
	MethodologySummary        string   `json:"methodology_summary"`
	KeyFindings               []string `json:"key_findings"`
	InnovationAndContribution string   `json:"innovation_and_contribution"`
	TechnicalDetails          string   `json:"technical_details"`
	LimitationsAndFutureWork  string   `json:"limitations_and_future_work"`
}

// Input messages

type SearchRequest struct {
	Mode     string `json:"mode" description:"'arxiv' or 'local'"`
	Abstract string `json:"abstract" description:"Query abstract, at least 50 characters"`
}

type SummaryRequest struct {
	Mode       string `json:"mode"`
	PaperIndex int    `json:"paper_index" description:"1-based paper rank (1-5)"`
	SessionID  string `json:"session_id"`
}

// Responses

type SearchResponse struct {
	SessionID           string         `json:"session_id"`
	Mode                string         `json:"mode"`
	QueryAbstract       string         `json:"query_abstract"`
	Timestamp           time.Time      `json:"timestamp"`
	Keywords            []string       `json:"keywords"`
	Metrics             map[string]any `json:"metrics"`
	TopPapers           []PaperRecord  `json:"top_5_papers"`
	ComparativeAnalysis map[string]any `json:"comparative_analysis,omitempty"`
}

// PaperIdentity echoes the identity fields of the summarized paper.
type PaperIdentity struct {
	Rank    int      `json:"rank"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    int      `json:"year"`
	ArxivID string   `json:"arxiv_id"`
}

type SummaryResponse struct {
	Paper   PaperIdentity `json:"paper"`
	Summary Summary       `json:"summary"`
}
