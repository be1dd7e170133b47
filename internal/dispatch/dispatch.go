package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/inference"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Invoker executes a single inference call and returns the parsed payload or
// a classified failure.
type Invoker interface {
	Invoke(ctx context.Context, call inference.Call) (map[string]any, *models.TaskFailure)
}

// Observer receives per-task outcomes, typically for metrics.
type Observer interface {
	ObserveTask(result models.TaskResult)
}

// Dispatcher fans a set of inference calls out to the backend concurrently
// and joins the results. Each call gets its own deadline; one slow or failed
// task never blocks or poisons the others.
type Dispatcher struct {
	invoker  Invoker
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// New creates a Dispatcher. observer may be nil.
func New(invoker Invoker, timeout time.Duration, logger *slog.Logger, observer Observer) *Dispatcher {
	return &Dispatcher{
		invoker:  invoker,
		timeout:  timeout,
		logger:   logger,
		observer: observer,
	}
}

// Dispatch runs all calls concurrently and returns one TaskResult per call,
// keyed by task kind. It always returns exactly len(calls) entries; failures
// are recorded in the result rather than returned as an error. The parent ctx
// cancels all in-flight tasks.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []inference.Call) models.TaskResults {
	results := make(models.TaskResults, len(calls))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, call := range calls {
		wg.Add(1)
		go func(call inference.Call) {
			defer wg.Done()

			taskCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			start := time.Now()
			payload, failure := d.invoker.Invoke(taskCtx, call)
			elapsed := time.Since(start)

			result := models.TaskResult{
				Task:     call.Task,
				Model:    call.Model,
				Payload:  payload,
				Err:      failure,
				Duration: elapsed,
			}

			if failure != nil {
				d.logger.Warn("task failed",
					"task", call.Task,
					"model", call.Model,
					"kind", failure.Kind,
					"error", failure.Message,
					"duration_ms", elapsed.Milliseconds())
			} else {
				d.logger.Debug("task completed",
					"task", call.Task,
					"model", call.Model,
					"duration_ms", elapsed.Milliseconds())
			}

			if d.observer != nil {
				d.observer.ObserveTask(result)
			}

			mu.Lock()
			results[call.Task] = result
			mu.Unlock()
		}(call)
	}

	wg.Wait()
	return results
}
