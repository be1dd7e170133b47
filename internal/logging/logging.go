package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
)

const serviceName = "stockanalyzer"

// New builds the process logger for the analysis service. Every record
// carries a service attribute so aggregated logs from the API, dispatcher
// and watcher can be filtered to this binary.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	handler, err := buildHandler(w, cfg)
	if err != nil {
		return nil, err
	}

	return slog.New(handler).With("service", serviceName), nil
}

// buildHandler selects the output encoding. JSON is what Cloud Run's log
// collector expects; text is for local runs.
func buildHandler(w io.Writer, cfg config.LoggingConfig) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}
