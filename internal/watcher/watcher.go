package watcher

import (
	"context"
	"math"
	"time"

	"log/slog"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// QuoteFetcher supplies price snapshots for watched symbols.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// AnalysisRunner triggers a full analysis for a symbol.
type AnalysisRunner interface {
	AnalyzeSymbol(ctx context.Context, symbol string) error
}

// Watcher polls configured symbols and triggers an analysis whenever the
// day's price move crosses the configured threshold. At most one analysis
// fires per symbol per polling cycle.
type Watcher struct {
	cfg      config.WatcherConfig
	quotes   QuoteFetcher
	runner   AnalysisRunner
	logger   *slog.Logger
	stopChan chan struct{}
}

// New creates a watcher.
func New(cfg config.WatcherConfig, quotes QuoteFetcher, runner AnalysisRunner, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		quotes:   quotes,
		runner:   runner,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop. It blocks until Stop is called or the
// context is canceled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("starting price watcher",
		"symbols", w.cfg.Symbols,
		"interval", w.cfg.CheckInterval,
		"threshold_percent", w.cfg.TriggerThreshold)

	ticker := time.NewTicker(w.cfg.CheckInterval)
	defer ticker.Stop()

	w.checkSymbols(ctx)

	for {
		select {
		case <-ticker.C:
			w.checkSymbols(ctx)
		case <-w.stopChan:
			w.logger.Info("price watcher stopped")
			return
		case <-ctx.Done():
			w.logger.Info("price watcher stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the watcher loop.
func (w *Watcher) Stop() {
	close(w.stopChan)
}

func (w *Watcher) checkSymbols(ctx context.Context) {
	for _, symbol := range w.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}

		quote, err := w.quotes.Quote(ctx, symbol)
		if err != nil {
			w.logger.Error("failed to fetch quote", "symbol", symbol, "error", err)
			continue
		}

		move := math.Abs(quote.PriceChangePercent)
		if move < w.cfg.TriggerThreshold {
			w.logger.Debug("price move below threshold",
				"symbol", symbol,
				"change_percent", quote.PriceChangePercent)
			continue
		}

		w.logger.Info("price move triggered analysis",
			"symbol", symbol,
			"change_percent", quote.PriceChangePercent,
			"price", quote.CurrentPrice)

		if err := w.runner.AnalyzeSymbol(ctx, symbol); err != nil {
			w.logger.Error("triggered analysis failed", "symbol", symbol, "error", err)
		}
	}
}
