package api

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/auth"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/metrics"
)

// RouterDeps carries everything the route table needs. Optional collaborators
// may be nil; the handlers degrade accordingly.
type RouterDeps struct {
	Handler             *Handler
	AuthHandler         *AuthHandler
	InferenceLogHandler *InferenceLogHandler
	AuthConfig          auth.Config
	Metrics             *metrics.Collector
	Logger              *slog.Logger
}

// SetupRoutes configures all API routes.
func SetupRoutes(mux *http.ServeMux, deps RouterDeps) {
	authMiddleware := auth.Middleware(deps.AuthConfig)

	// Authentication routes (public login, protected validation)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.Login)
	mux.Handle("/api/auth/validate", authMiddleware(http.HandlerFunc(deps.AuthHandler.ValidateToken)))

	// Analysis routes (public)
	mux.HandleFunc("/api/analyze", deps.Handler.AnalyzeHandler)
	mux.HandleFunc("/api/predictions", deps.Handler.GetPredictionsHandler)

	// PUT /api/predictions/{id}/outcome requires auth; everything else under
	// the prefix is unknown.
	mux.HandleFunc("/api/predictions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/outcome") {
			authMiddleware(http.HandlerFunc(deps.Handler.UpdateOutcomeHandler)).ServeHTTP(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})

	// Admin audit routes
	if deps.InferenceLogHandler != nil {
		mux.Handle("/api/admin/inference-logs", authMiddleware(http.HandlerFunc(deps.InferenceLogHandler.List)))
		mux.Handle("/api/admin/inference-logs/stats", authMiddleware(http.HandlerFunc(deps.InferenceLogHandler.Stats)))
	}

	// Operational routes
	mux.HandleFunc("/healthz", deps.Handler.HealthHandler)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}
}
