package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Analyzer runs the multi-model analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.CompositeVerdict, error)
}

// MarketData supplies quote and price history inputs.
type MarketData interface {
	Snapshot(ctx context.Context, symbol string) (models.Quote, []models.Bar, error)
}

// NewsFetcher supplies recent news inputs.
type NewsFetcher interface {
	FetchForSymbol(ctx context.Context, symbol string) ([]models.NewsItem, error)
}

// PredictionStore persists verdicts and their validation lifecycle.
type PredictionStore interface {
	Create(ctx context.Context, verdict models.CompositeVerdict) (models.Prediction, error)
	List(ctx context.Context, query models.PredictionQuery) ([]models.Prediction, error)
	RecordOutcome(ctx context.Context, id string, actualPrice float64) (models.Prediction, error)
}

// Handler serves the analysis and prediction endpoints.
type Handler struct {
	analyzer    Analyzer
	market      MarketData
	news        NewsFetcher
	predictions PredictionStore
	healthCheck func(ctx context.Context) error
	logger      *slog.Logger
	startTime   time.Time
}

// NewHandler creates the API handler. market, news, predictions and
// healthCheck may each be nil when the corresponding collaborator is not
// configured.
func NewHandler(analyzer Analyzer, market MarketData, news NewsFetcher, predictions PredictionStore, healthCheck func(ctx context.Context) error, logger *slog.Logger) *Handler {
	return &Handler{
		analyzer:    analyzer,
		market:      market,
		news:        news,
		predictions: predictions,
		healthCheck: healthCheck,
		logger:      logger,
		startTime:   time.Now(),
	}
}

// AnalyzeRequest is the body of POST /api/analyze. Price, bars and news are
// optional; missing inputs are fetched from the market data and news
// collaborators.
type AnalyzeRequest struct {
	Symbol             string             `json:"symbol"`
	CurrentPrice       float64            `json:"current_price,omitempty"`
	PriceChangePercent float64            `json:"price_change_percent,omitempty"`
	Bars               []models.Bar       `json:"historical_bars,omitempty"`
	News               []models.NewsItem  `json:"news_items,omitempty"`
	Indicators         map[string]float64 `json:"indicators,omitempty"`
}

// AnalyzeResponse wraps the verdict and, when persistence is configured, the
// stored prediction ID.
type AnalyzeResponse struct {
	PredictionID string                  `json:"prediction_id,omitempty"`
	Verdict      models.CompositeVerdict `json:"verdict"`
}

// AnalyzeHandler handles POST /api/analyze.
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	analysisReq := models.AnalysisRequest{
		Symbol:             req.Symbol,
		CurrentPrice:       req.CurrentPrice,
		PriceChangePercent: req.PriceChangePercent,
		Bars:               req.Bars,
		News:               req.News,
		Indicators:         req.Indicators,
	}

	if analysisReq.CurrentPrice <= 0 {
		if h.market == nil {
			http.Error(w, "current_price is required when market data is not configured", http.StatusBadRequest)
			return
		}
		quote, bars, err := h.market.Snapshot(ctx, req.Symbol)
		if err != nil {
			h.logger.Error("market data fetch failed", "symbol", req.Symbol, "error", err)
			http.Error(w, "Failed to fetch market data", http.StatusBadGateway)
			return
		}
		analysisReq.CurrentPrice = quote.CurrentPrice
		analysisReq.PriceChangePercent = quote.PriceChangePercent
		if len(analysisReq.Bars) == 0 {
			analysisReq.Bars = bars
		}
	}

	if len(analysisReq.News) == 0 && h.news != nil {
		news, err := h.news.FetchForSymbol(ctx, req.Symbol)
		if err != nil {
			// News is an enrichment input, not a hard dependency.
			h.logger.Warn("news fetch failed", "symbol", req.Symbol, "error", err)
		} else {
			analysisReq.News = news
		}
	}

	verdict, err := h.analyzer.Analyze(ctx, analysisReq)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("analysis failed", "symbol", req.Symbol, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := AnalyzeResponse{Verdict: verdict}

	if h.predictions != nil {
		prediction, err := h.predictions.Create(ctx, verdict)
		if err != nil {
			// The verdict is still valid; persistence failure is logged only.
			h.logger.Error("failed to store prediction", "symbol", req.Symbol, "error", err)
		} else {
			response.PredictionID = prediction.ID
		}
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}

// PredictionsResponse is the body of GET /api/predictions.
type PredictionsResponse struct {
	Predictions []models.Prediction `json:"predictions"`
	Count       int                 `json:"count"`
}

// GetPredictionsHandler handles GET /api/predictions.
func (h *Handler) GetPredictionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.predictions == nil {
		http.Error(w, "Prediction storage not configured", http.StatusServiceUnavailable)
		return
	}

	query := models.PredictionQuery{
		Symbol: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol"))),
		Limit:  50,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query.Status = models.PredictionStatus(status)
	}

	predictions, err := h.predictions.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list predictions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, PredictionsResponse{
		Predictions: predictions,
		Count:       len(predictions),
	})
}

// OutcomeRequest is the body of PUT /api/predictions/{id}/outcome.
type OutcomeRequest struct {
	ActualPrice float64 `json:"actual_price"`
}

// UpdateOutcomeHandler handles PUT /api/predictions/{id}/outcome.
func (h *Handler) UpdateOutcomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.predictions == nil {
		http.Error(w, "Prediction storage not configured", http.StatusServiceUnavailable)
		return
	}

	// Path shape: /api/predictions/{id}/outcome
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "outcome" || parts[2] == "" {
		http.Error(w, "Prediction ID required", http.StatusBadRequest)
		return
	}
	id := parts[2]

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActualPrice <= 0 {
		http.Error(w, "actual_price must be positive", http.StatusBadRequest)
		return
	}

	prediction, err := h.predictions.RecordOutcome(r.Context(), id, req.ActualPrice)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Prediction not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to record outcome", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, prediction)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database,omitempty"`
}

// HealthHandler handles GET /healthz.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			response.Status = "degraded"
			response.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "ok"
		}
	}

	writeJSON(w, h.logger, status, response)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
