package api

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// InferenceLogReader reads persisted inference call records.
type InferenceLogReader interface {
	List(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error)
	Stats(ctx context.Context) (models.InferenceLogStats, error)
}

// InferenceLogHandler serves the admin inference-audit endpoints.
type InferenceLogHandler struct {
	repo   InferenceLogReader
	logger *slog.Logger
}

// NewInferenceLogHandler creates a new handler.
func NewInferenceLogHandler(repo InferenceLogReader, logger *slog.Logger) *InferenceLogHandler {
	return &InferenceLogHandler{repo: repo, logger: logger}
}

// List handles GET /api/admin/inference-logs.
func (h *InferenceLogHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	query := models.InferenceLogQuery{
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
		Task:     q.Get("task"),
		Status:   q.Get("status"),
		Limit:    100,
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 && n <= 1000 {
			query.Limit = n
		}
	}

	logs, err := h.repo.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list inference logs", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

// Stats handles GET /api/admin/inference-logs/stats.
func (h *InferenceLogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to load inference stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}
