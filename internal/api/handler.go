package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/api/middleware"
	"arxiv-similarity-search/internal/config"
	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/service"
)

const apiVersion = "1.0.0"

type Handler struct {
	service *service.Service
	config  *config.Config
	logger  *zerolog.Logger
}

func NewHandler(svc *service.Service, cfg *config.Config, logger *zerolog.Logger) *Handler {
	return &Handler{
		service: svc,
		config:  cfg,
		logger:  logger,
	}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type LocalDatabaseStatus struct {
	Path     string `json:"path"`
	PDFCount int    `json:"pdf_count"`
	Ready    bool   `json:"ready"`
}

type ModeStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type ConfigResponse struct {
	ArxivMaxResults int                   `json:"arxiv_max_results"`
	TopKPapers      int                   `json:"top_k_papers"`
	LocalDatabase   LocalDatabaseStatus   `json:"local_database"`
	Modes           map[string]ModeStatus `json:"modes"`
}

// POST /api/search
func (h *Handler) Search(req *restful.Request, resp *restful.Response) {
	var searchRequest models.SearchRequest
	if err := req.ReadEntity(&searchRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("mode", searchRequest.Mode).
		Int("abstract_length", len(searchRequest.Abstract)).
		Msg("Start search")

	result, err := h.service.Search(req.Request.Context(), searchRequest)
	if err != nil {
		h.writeServiceError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// POST /api/summary
func (h *Handler) Summarize(req *restful.Request, resp *restful.Response) {
	var summaryRequest models.SummaryRequest
	if err := req.ReadEntity(&summaryRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("session_id", summaryRequest.SessionID).
		Int("paper_index", summaryRequest.PaperIndex).
		Msg("Start summary")

	result, err := h.service.Summarize(req.Request.Context(), summaryRequest)
	if err != nil {
		h.writeServiceError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /api/session/{session_id}
func (h *Handler) GetSession(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")

	result, err := h.service.Session(req.Request.Context(), sessionID)
	if err != nil {
		h.writeServiceError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /api/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   apiVersion,
	})
}

// GET /api/config
func (h *Handler) Config(req *restful.Request, resp *restful.Response) {
	localCount := countPDFs(h.config.LocalDatabase.FolderPath)
	sampleCount := countPDFs(h.config.Paths.SamplePDFs)
	pdfCount := localCount
	if sampleCount > pdfCount {
		pdfCount = sampleCount
	}

	localStatus := "no_pdfs"
	if pdfCount > 0 {
		localStatus = "ready"
	}

	resp.WriteHeaderAndEntity(http.StatusOK, ConfigResponse{
		ArxivMaxResults: h.config.Arxiv.MaxResults,
		TopKPapers:      h.config.Reranking.TopK,
		LocalDatabase: LocalDatabaseStatus{
			Path:     h.config.LocalDatabase.FolderPath,
			PDFCount: pdfCount,
			Ready:    pdfCount > 0,
		},
		Modes: map[string]ModeStatus{
			"arxiv": {
				Name:        "ArXiv Mode",
				Description: "Search from ArXiv (online)",
				Status:      "online",
			},
			"local": {
				Name:        "Local Database",
				Description: "Search from local papers (offline)",
				Status:      localStatus,
			},
		},
	})
}

func countPDFs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			count++
		}
	}
	return count
}

// writeServiceError maps the service sentinels onto HTTP statuses and stable
// error codes. Everything unrecognized is an unhandled fault.
func (h *Handler) writeServiceError(resp *restful.Response, err error) {
	switch {
	case errors.Is(err, service.ErrAbstractTooShort):
		middleware.WriteError(resp, http.StatusBadRequest, "abstract_too_short",
			"Abstract too short. Please provide at least 50 characters.")
	case errors.Is(err, service.ErrInvalidMode):
		middleware.WriteError(resp, http.StatusBadRequest, "invalid_mode",
			"Invalid mode. Use 'arxiv' or 'local'.")
	case errors.Is(err, service.ErrInvalidPaperIndex):
		middleware.WriteError(resp, http.StatusBadRequest, "invalid_paper_index",
			"Paper index must be between 1 and 5.")
	case errors.Is(err, service.ErrSessionNotFound):
		middleware.WriteError(resp, http.StatusNotFound, "session_not_found",
			"Session not found. Please run a search first.")
	case errors.Is(err, service.ErrPaperNotFound):
		middleware.WriteError(resp, http.StatusNotFound, "paper_not_found",
			"Paper not found in this session.")
	case errors.Is(err, service.ErrSearchFailed):
		middleware.WriteError(resp, http.StatusInternalServerError, "search_failed",
			"Search failed. Please try again.")
	case errors.Is(err, service.ErrSummaryFailed):
		middleware.WriteError(resp, http.StatusInternalServerError, "summary_failed",
			"Summary generation failed. Please try again.")
	default:
		h.logger.Error().Err(err).Msg("Unhandled fault")
		middleware.WriteError(resp, http.StatusInternalServerError, "internal_error",
			"Internal server error")
	}
}
