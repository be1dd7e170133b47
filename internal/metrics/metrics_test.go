package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `stockanalyzer_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `stockanalyzer_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsTaskOutcomes(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.ObserveTask(models.TaskResult{
		Task:     models.TaskSentiment,
		Duration: 800 * time.Millisecond,
	})
	collector.ObserveTask(models.TaskResult{
		Task:     models.TaskRisk,
		Err:      &models.TaskFailure{Kind: models.FailureTimeout},
		Duration: 10 * time.Second,
	})

	body := scrape(t, collector)
	if !strings.Contains(body, `stockanalyzer_analysis_tasks_total{outcome="success",task="sentiment"} 1`) {
		t.Fatalf("success task counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `stockanalyzer_analysis_tasks_total{outcome="timeout",task="risk"} 1`) {
		t.Fatalf("timeout task counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `stockanalyzer_analysis_task_duration_seconds_count{task="sentiment"} 1`) {
		t.Fatalf("task duration histogram not recorded, body=%q", body)
	}
}

func TestCollectorRecordsVerdicts(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.ObserveVerdict(models.CompositeVerdict{
		Action:       models.ActionBuy,
		Confidence:   models.ConfidenceHigh,
		AnalysisTime: 3 * time.Second,
	})

	body := scrape(t, collector)
	if !strings.Contains(body, `stockanalyzer_analysis_verdicts_total{action="BUY",confidence="HIGH"} 1`) {
		t.Fatalf("verdict counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `stockanalyzer_analysis_duration_seconds_count 1`) {
		t.Fatalf("analysis duration histogram not recorded, body=%q", body)
	}
}

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
