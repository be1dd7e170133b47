package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/dispatch"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/ensemble"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/inference"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/normalize"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/tasks"
)

// Observer receives final verdicts, typically for metrics.
type Observer interface {
	ObserveVerdict(verdict models.CompositeVerdict)
}

// Orchestrator runs the full analysis pipeline: fan the four specialized
// tasks out to the inference backend, normalize their outputs and fuse them
// into a single verdict.
type Orchestrator struct {
	registry   tasks.Registry
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	observer   Observer
}

// New creates an Orchestrator. observer may be nil.
func New(registry tasks.Registry, dispatcher *dispatch.Dispatcher, logger *slog.Logger, observer Observer) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		observer:   observer,
	}
}

// Analyze runs one full analysis for the request. It returns an error only
// for invalid input or a canceled context; task failures degrade the verdict
// instead of failing the call.
func (o *Orchestrator) Analyze(ctx context.Context, req models.AnalysisRequest) (models.CompositeVerdict, error) {
	if err := req.Validate(); err != nil {
		return models.CompositeVerdict{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.CompositeVerdict{}, fmt.Errorf("analysis aborted: %w", err)
	}

	start := time.Now()
	o.logger.Info("analysis started", "symbol", req.Symbol, "price", req.CurrentPrice)

	calls := make([]inference.Call, 0, len(models.AllTaskKinds))
	for _, kind := range models.AllTaskKinds {
		spec, ok := o.registry[kind]
		if !ok {
			return models.CompositeVerdict{}, fmt.Errorf("no task spec registered for %q", kind)
		}
		calls = append(calls, spec.Call(req))
	}

	results := o.dispatcher.Dispatch(ctx, calls)
	normalized := normalize.Normalize(results)

	verdict := ensemble.Decide(req.Symbol, req.CurrentPrice, normalized)
	verdict.ModelsUsed = o.registry.Models()
	verdict.AnalysisTime = time.Since(start)
	verdict.AnalysisTimeSec = verdict.AnalysisTime.Seconds()
	verdict.Timestamp = time.Now().UTC()

	o.logger.Info("analysis completed",
		"symbol", req.Symbol,
		"action", verdict.Action,
		"confidence", verdict.Confidence,
		"ensemble_score", verdict.EnsembleScore,
		"consensus", verdict.Consensus,
		"degraded", normalized.Degraded(),
		"duration_ms", verdict.AnalysisTime.Milliseconds())

	if o.observer != nil {
		o.observer.ObserveVerdict(verdict)
	}

	return verdict, nil
}
