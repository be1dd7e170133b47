package dispatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/inference"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

type fakeInvoker struct {
	mu       sync.Mutex
	delay    time.Duration
	payloads map[models.TaskKind]map[string]any
	failures map[models.TaskKind]*models.TaskFailure
	calls    []models.TaskKind
}

func (f *fakeInvoker) Invoke(ctx context.Context, call inference.Call) (map[string]any, *models.TaskFailure) {
	f.mu.Lock()
	f.calls = append(f.calls, call.Task)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &models.TaskFailure{Kind: models.FailureTimeout, Message: ctx.Err().Error()}
		}
	}

	if failure, ok := f.failures[call.Task]; ok {
		return nil, failure
	}
	return f.payloads[call.Task], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCalls() []inference.Call {
	calls := make([]inference.Call, 0, len(models.AllTaskKinds))
	for _, kind := range models.AllTaskKinds {
		calls = append(calls, inference.Call{Task: kind, Model: "test-model"})
	}
	return calls
}

func TestDispatchReturnsAllResults(t *testing.T) {
	invoker := &fakeInvoker{
		payloads: map[models.TaskKind]map[string]any{
			models.TaskSentiment: {"sentiment": "bullish"},
			models.TaskTechnical: {"signal": "buy"},
			models.TaskRisk:      {"risk_score": 40.0},
			models.TaskAnomaly:   {"anomaly": false},
		},
	}
	d := New(invoker, time.Second, testLogger(), nil)

	results := d.Dispatch(context.Background(), testCalls())

	if len(results) != len(models.AllTaskKinds) {
		t.Fatalf("got %d results, want %d", len(results), len(models.AllTaskKinds))
	}
	for _, kind := range models.AllTaskKinds {
		result, ok := results[kind]
		if !ok {
			t.Fatalf("missing result for %s", kind)
		}
		if !result.OK() {
			t.Errorf("%s failed: %v", kind, result.Err)
		}
		if result.Model != "test-model" {
			t.Errorf("%s model = %q", kind, result.Model)
		}
	}
}

func TestDispatchRunsConcurrently(t *testing.T) {
	invoker := &fakeInvoker{delay: 100 * time.Millisecond}
	d := New(invoker, time.Second, testLogger(), nil)

	start := time.Now()
	results := d.Dispatch(context.Background(), testCalls())
	elapsed := time.Since(start)

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	// Sequential execution would take at least 400ms.
	if elapsed > 300*time.Millisecond {
		t.Errorf("dispatch took %v, tasks appear to run sequentially", elapsed)
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	invoker := &fakeInvoker{
		payloads: map[models.TaskKind]map[string]any{
			models.TaskSentiment: {"sentiment": "bullish"},
			models.TaskRisk:      {"risk_score": 30.0},
			models.TaskAnomaly:   {"anomaly": false},
		},
		failures: map[models.TaskKind]*models.TaskFailure{
			models.TaskTechnical: {Kind: models.FailureBackendError, Message: "503"},
		},
	}
	d := New(invoker, time.Second, testLogger(), nil)

	results := d.Dispatch(context.Background(), testCalls())

	if results[models.TaskTechnical].OK() {
		t.Errorf("technical should have failed")
	}
	if results[models.TaskTechnical].Err.Kind != models.FailureBackendError {
		t.Errorf("failure kind = %v", results[models.TaskTechnical].Err.Kind)
	}
	for _, kind := range []models.TaskKind{models.TaskSentiment, models.TaskRisk, models.TaskAnomaly} {
		if !results[kind].OK() {
			t.Errorf("%s failed alongside technical: %v", kind, results[kind].Err)
		}
	}
}

func TestDispatchPerTaskTimeout(t *testing.T) {
	invoker := &fakeInvoker{delay: 200 * time.Millisecond}
	d := New(invoker, 20*time.Millisecond, testLogger(), nil)

	results := d.Dispatch(context.Background(), testCalls())

	for _, kind := range models.AllTaskKinds {
		result := results[kind]
		if result.OK() {
			t.Errorf("%s should have timed out", kind)
			continue
		}
		if result.Err.Kind != models.FailureTimeout {
			t.Errorf("%s failure kind = %v, want timeout", kind, result.Err.Kind)
		}
	}
}

func TestDispatchCallerCancel(t *testing.T) {
	invoker := &fakeInvoker{delay: time.Second}
	d := New(invoker, 5*time.Second, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := d.Dispatch(ctx, testCalls())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("dispatch did not honor caller cancellation, took %v", elapsed)
	}
	for _, kind := range models.AllTaskKinds {
		if results[kind].OK() {
			t.Errorf("%s succeeded after cancellation", kind)
		}
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	results []models.TaskResult
}

func (r *recordingObserver) ObserveTask(result models.TaskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestDispatchNotifiesObserver(t *testing.T) {
	invoker := &fakeInvoker{
		payloads: map[models.TaskKind]map[string]any{},
	}
	observer := &recordingObserver{}
	d := New(invoker, time.Second, testLogger(), observer)

	d.Dispatch(context.Background(), testCalls())

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if len(observer.results) != 4 {
		t.Errorf("observer saw %d results, want 4", len(observer.results))
	}
}
