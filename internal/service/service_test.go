package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline"
	"arxiv-similarity-search/internal/pipeline/mocks"
	"arxiv-similarity-search/internal/session"
)

const validAbstract = "We study transformer architectures for long-context retrieval and propose a sparse attention variant."

// modePipelines is a fixed resolver for tests, one handle per mode.
type modePipelines map[models.Mode]pipeline.Pipeline

func (m modePipelines) Get(mode models.Mode) (pipeline.Pipeline, error) {
	p, ok := m[mode]
	if !ok {
		return nil, errors.New("no pipeline for mode " + string(mode))
	}
	return p, nil
}

func newTestService(t *testing.T, pipelines Pipelines) (*Service, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(100, 0)
	logger := zerolog.Nop()
	svc := New(pipelines, store, &logger)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	}
	return svc, store
}

func sampleResults(n int) *models.ResultSet {
	papers := make([]models.PaperRecord, n)
	for i := range papers {
		papers[i] = models.PaperRecord{
			Rank:        i + 1,
			Title:       "Paper " + string(rune('A'+i)),
			Authors:     []string{"Author One"},
			Year:        2020 + i,
			ArxivID:     "2001.0000" + string(rune('1'+i)),
			URL:         "https://arxiv.org/abs/2001.0000" + string(rune('1'+i)),
			Similarity:  0.9 - float64(i)*0.1,
			RerankScore: 0.9 - float64(i)*0.1,
			Abstract:    strings.Repeat("x", 400),
		}
	}
	return &models.ResultSet{
		QueryTimestamp: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC),
		Keywords:       []string{"transformer", "retrieval"},
		Metrics:        map[string]any{"mode": "arxiv", "total_results": n},
		Papers:         papers,
	}
}

func TestSearch_ValidationOrder(t *testing.T) {
	// Resolver that must never be reached.
	svc, _ := newTestService(t, modePipelines{})
	ctx := context.Background()

	// Short abstract wins over invalid mode.
	_, err := svc.Search(ctx, models.SearchRequest{Mode: "bogus", Abstract: "too short"})
	if !errors.Is(err, ErrAbstractTooShort) {
		t.Fatalf("Expected ErrAbstractTooShort, got %v", err)
	}

	_, err = svc.Search(ctx, models.SearchRequest{Mode: "bogus", Abstract: validAbstract})
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("Expected ErrInvalidMode, got %v", err)
	}
}

func TestSearch_AbstractLengthInCodePoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), gomock.Any()).Return(sampleResults(1), nil)

	svc, _ := newTestService(t, modePipelines{models.ModeArxiv: p})

	// 50 multibyte code points pass the minimum although the byte length of
	// each rune is 2.
	abstract := strings.Repeat("ü", 50)
	if _, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: abstract}); err != nil {
		t.Fatalf("Expected 50 code points to pass validation, got %v", err)
	}
}

func TestSearch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), validAbstract).Return(sampleResults(3), nil)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})

	resp, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: validAbstract})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if resp.SessionID != "arxiv_20250102_150405" {
		t.Errorf("Unexpected session id: %q", resp.SessionID)
	}
	if resp.Mode != "arxiv" || resp.QueryAbstract != validAbstract {
		t.Errorf("Request echo mismatch: mode=%q abstract=%q", resp.Mode, resp.QueryAbstract)
	}
	if len(resp.TopPapers) != 3 {
		t.Fatalf("Expected 3 papers, got %d", len(resp.TopPapers))
	}

	// Previews cut to 300 code points plus ellipsis; stored records unchanged.
	for _, paper := range resp.TopPapers {
		if got := len([]rune(paper.Abstract)); got != 303 {
			t.Errorf("Expected 303 code point preview, got %d", got)
		}
		if !strings.HasSuffix(paper.Abstract, "...") {
			t.Errorf("Preview missing ellipsis: %q", paper.Abstract)
		}
	}

	stored, err := store.Get(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("Session not stored: %v", err)
	}
	if len([]rune(stored.Papers[0].Abstract)) != 400 {
		t.Error("Stored abstract was truncated; truncation must only affect the response view")
	}
}

func TestSearch_EllipsisAlsoOnShortAbstracts(t *testing.T) {
	ctrl := gomock.NewController(t)
	results := sampleResults(1)
	results.Papers[0].Abstract = "brief"
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), gomock.Any()).Return(results, nil)

	svc, _ := newTestService(t, modePipelines{models.ModeArxiv: p})

	resp, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: validAbstract})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.TopPapers[0].Abstract != "brief..." {
		t.Errorf("Expected unconditional ellipsis, got %q", resp.TopPapers[0].Abstract)
	}
}

func TestSearch_ResponseCapsAtFivePapers(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), gomock.Any()).Return(sampleResults(7), nil)

	svc, _ := newTestService(t, modePipelines{models.ModeArxiv: p})

	resp, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: validAbstract})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.TopPapers) != 5 {
		t.Errorf("Expected response capped at 5 papers, got %d", len(resp.TopPapers))
	}
}

func TestSearch_NilResultIsPipelineFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), gomock.Any()).Return(nil, nil)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})

	_, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: validAbstract})
	if !errors.Is(err, ErrSearchFailed) {
		t.Fatalf("Expected ErrSearchFailed, got %v", err)
	}

	// No session materialized for a failed search.
	if _, err := store.Get(context.Background(), "arxiv_20250102_150405"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected no session stored, got %v", err)
	}
}

func TestSearch_PipelineErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := errors.New("upstream unreachable")
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().RunPipeline(gomock.Any(), gomock.Any()).Return(nil, boom)

	svc, _ := newTestService(t, modePipelines{models.ModeArxiv: p})

	_, err := svc.Search(context.Background(), models.SearchRequest{Mode: "arxiv", Abstract: validAbstract})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected pipeline error to propagate, got %v", err)
	}
	if errors.Is(err, ErrSearchFailed) {
		t.Error("Pipeline errors must stay distinct from the nil-result failure")
	}
}

func searchSession(t *testing.T, svc *Service, store *session.MemoryStore, papers int) string {
	t.Helper()
	id := "arxiv_20250102_150405"
	if err := store.Put(context.Background(), id, sampleResults(papers)); err != nil {
		t.Fatalf("Seeding session failed: %v", err)
	}
	return id
}

func TestSummarize_SessionCheckedBeforeIndex(t *testing.T) {
	svc, _ := newTestService(t, modePipelines{})

	// Wildly out-of-range index, but the unknown session wins.
	_, err := svc.Summarize(context.Background(), models.SummaryRequest{
		Mode: "arxiv", PaperIndex: 99, SessionID: "arxiv_19990101_000000",
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSummarize_IndexBounds(t *testing.T) {
	svc, store := newTestService(t, modePipelines{})
	id := searchSession(t, svc, store, 3)
	ctx := context.Background()

	for _, index := range []int{0, -1, 6} {
		_, err := svc.Summarize(ctx, models.SummaryRequest{Mode: "arxiv", PaperIndex: index, SessionID: id})
		if !errors.Is(err, ErrInvalidPaperIndex) {
			t.Errorf("index %d: expected ErrInvalidPaperIndex, got %v", index, err)
		}
	}

	// Within [1,5] but past the session's actual count.
	_, err := svc.Summarize(ctx, models.SummaryRequest{Mode: "arxiv", PaperIndex: 4, SessionID: id})
	if !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("Expected ErrPaperNotFound, got %v", err)
	}
}

func TestSummarize_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	summary := &models.Summary{
		ResearchObjective:  "Study long-context retrieval",
		MethodologySummary: "Sparse attention over retrieved chunks",
		KeyFindings:        []string{"finding one", "finding two"},
	}
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(summary, nil)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})
	id := searchSession(t, svc, store, 3)

	resp, err := svc.Summarize(context.Background(), models.SummaryRequest{Mode: "arxiv", PaperIndex: 2, SessionID: id})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if resp.Paper.Rank != 2 || resp.Paper.Title != "Paper B" {
		t.Errorf("Wrong paper identity: %+v", resp.Paper)
	}
	if resp.Summary.ResearchObjective != summary.ResearchObjective {
		t.Errorf("Summary not echoed: %+v", resp.Summary)
	}

	// The summary is merged into the stored session at the same position.
	stored, _ := store.Get(context.Background(), id)
	if stored.Papers[1].Summary == nil || stored.Papers[1].Summary.ResearchObjective != summary.ResearchObjective {
		t.Error("Summary was not persisted into the session")
	}
	if stored.Papers[0].Summary != nil || stored.Papers[2].Summary != nil {
		t.Error("Other papers must stay untouched")
	}
}

func TestSummarize_IdempotentOverwrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	gomock.InOrder(
		p.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(&models.Summary{ResearchObjective: "first"}, nil),
		p.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(&models.Summary{ResearchObjective: "second"}, nil),
	)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})
	id := searchSession(t, svc, store, 2)
	ctx := context.Background()

	req := models.SummaryRequest{Mode: "arxiv", PaperIndex: 1, SessionID: id}
	if _, err := svc.Summarize(ctx, req); err != nil {
		t.Fatalf("First summarize failed: %v", err)
	}
	if _, err := svc.Summarize(ctx, req); err != nil {
		t.Fatalf("Repeat summarize failed: %v", err)
	}

	stored, _ := store.Get(ctx, id)
	if stored.Papers[0].Summary.ResearchObjective != "second" {
		t.Errorf("Expected in-place overwrite, got %q", stored.Papers[0].Summary.ResearchObjective)
	}
	if stored.Papers[0].Title != "Paper A" {
		t.Error("Overwrite corrupted paper fields")
	}
}

func TestSummarize_UsesRequestMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	arxivPipeline := mocks.NewMockPipeline(ctrl)
	localPipeline := mocks.NewMockPipeline(ctrl)
	// Only the request's mode may be asked for a summary.
	localPipeline.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(&models.Summary{ResearchObjective: "via local"}, nil)

	svc, store := newTestService(t, modePipelines{
		models.ModeArxiv: arxivPipeline,
		models.ModeLocal: localPipeline,
	})
	// Session was created by an arxiv search, request says local.
	id := searchSession(t, svc, store, 1)

	resp, err := svc.Summarize(context.Background(), models.SummaryRequest{Mode: "local", PaperIndex: 1, SessionID: id})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if resp.Summary.ResearchObjective != "via local" {
		t.Errorf("Expected the request's mode to pick the pipeline, got %+v", resp.Summary)
	}
}

func TestSummarize_NilSummaryIsPipelineFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(nil, nil)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})
	id := searchSession(t, svc, store, 2)

	_, err := svc.Summarize(context.Background(), models.SummaryRequest{Mode: "arxiv", PaperIndex: 1, SessionID: id})
	if !errors.Is(err, ErrSummaryFailed) {
		t.Fatalf("Expected ErrSummaryFailed, got %v", err)
	}

	stored, _ := store.Get(context.Background(), id)
	if stored.Papers[0].Summary != nil {
		t.Error("Failed summary must not be persisted")
	}
}

func TestSummarize_NormalizesNilKeyFindings(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockPipeline(ctrl)
	p.EXPECT().GenerateSummary(gomock.Any(), gomock.Any()).Return(&models.Summary{ResearchObjective: "obj"}, nil)

	svc, store := newTestService(t, modePipelines{models.ModeArxiv: p})
	id := searchSession(t, svc, store, 1)

	resp, err := svc.Summarize(context.Background(), models.SummaryRequest{Mode: "arxiv", PaperIndex: 1, SessionID: id})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if resp.Summary.KeyFindings == nil {
		t.Error("Expected key findings normalized to an empty slice")
	}
}

func TestSession_Lookup(t *testing.T) {
	svc, store := newTestService(t, modePipelines{})
	id := searchSession(t, svc, store, 2)

	got, err := svc.Session(context.Background(), id)
	if err != nil {
		t.Fatalf("Session lookup failed: %v", err)
	}
	if len(got.Papers) != 2 {
		t.Errorf("Expected 2 papers, got %d", len(got.Papers))
	}

	if _, err := svc.Session(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
