package inference

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// LogRepository persists inference call records.
type LogRepository interface {
	Create(ctx context.Context, log models.InferenceLog) error
}

// Logger records every backend model call for cost and reliability auditing.
type Logger struct {
	repo   LogRepository
	logger *slog.Logger
}

// NewLogger creates a new inference call logger.
func NewLogger(repo LogRepository, logger *slog.Logger) *Logger {
	return &Logger{
		repo:   repo,
		logger: logger,
	}
}

// LogCallParams describes one inference API call.
type LogCallParams struct {
	Provider     string
	Model        string
	Task         string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
	Err          error
}

// LogCall stores the call record. The insert runs asynchronously so auditing
// never blocks or fails an analysis.
func (l *Logger) LogCall(ctx context.Context, params LogCallParams) {
	inputTokens := params.InputTokens
	outputTokens := params.OutputTokens
	latencyMs := int(params.Latency.Milliseconds())

	record := models.InferenceLog{
		Provider:     params.Provider,
		Model:        params.Model,
		Task:         params.Task,
		TokensUsed:   inputTokens + outputTokens,
		InputTokens:  &inputTokens,
		OutputTokens: &outputTokens,
		LatencyMs:    &latencyMs,
		Status:       "success",
	}

	if params.Err != nil {
		record.Status = "error"
		msg := params.Err.Error()
		record.ErrorMessage = &msg
	}

	go func() {
		bgCtx := context.Background()
		if err := l.repo.Create(bgCtx, record); err != nil {
			l.logger.Error("failed to log inference call", "error", err)
		}
	}()
}
