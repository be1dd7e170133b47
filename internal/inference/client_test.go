package inference

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chatHandler serves an OpenAI-compatible chat completions endpoint returning
// the given content.
func chatHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestClient(baseURL string) *Client {
	cfg := config.InferenceConfig{
		OpenAIAPIKey:    "test-key",
		OpenAIBaseURL:   baseURL,
		TaskTimeout:     time.Second,
		MaxPromptChars:  12000,
		MaxOutputTokens: 500,
	}
	return NewClient(cfg, testLogger(), nil)
}

func sentimentCall() Call {
	return Call{
		Task:        models.TaskSentiment,
		Provider:    ProviderOpenAI,
		Model:       "meta/llama-3.1-70b-instruct",
		Temperature: 0.3,
		System:      "You are a sentiment analyzer.",
		Prompt:      "Stock: RELIANCE",
		Schema:      sentimentSchema(),
	}
}

func TestInvokeParsesStructuredResponse(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, "SENTIMENT: bullish\nSCORE: 78\nDRIVERS: earnings beat\nMOOD: optimistic"))
	defer srv.Close()

	client := newTestClient(srv.URL + "/v1")

	payload, failure := client.Invoke(context.Background(), sentimentCall())
	if failure != nil {
		t.Fatalf("Invoke: %v", failure)
	}
	if payload["sentiment"] != "bullish" || payload["score"] != 78.0 {
		t.Errorf("payload = %v", payload)
	}
}

func TestInvokeSchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, "I'm sorry, I cannot analyze this stock."))
	defer srv.Close()

	client := newTestClient(srv.URL + "/v1")

	_, failure := client.Invoke(context.Background(), sentimentCall())
	if failure == nil {
		t.Fatalf("Invoke accepted unstructured response")
	}
	if failure.Kind != models.FailureSchemaMismatch {
		t.Errorf("failure kind = %v, want schema_mismatch", failure.Kind)
	}
}

func TestInvokeBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL + "/v1")

	_, failure := client.Invoke(context.Background(), sentimentCall())
	if failure == nil {
		t.Fatalf("Invoke succeeded against failing backend")
	}
	if failure.Kind != models.FailureBackendError {
		t.Errorf("failure kind = %v, want backend_error", failure.Kind)
	}
}

func TestInvokeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL + "/v1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, failure := client.Invoke(ctx, sentimentCall())
	if failure == nil {
		t.Fatalf("Invoke succeeded past deadline")
	}
	if failure.Kind != models.FailureTimeout {
		t.Errorf("failure kind = %v, want timeout", failure.Kind)
	}
}

func TestInvokeValidatesCall(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0/v1")

	tests := []struct {
		name   string
		mutate func(*Call)
	}{
		{"missing model", func(c *Call) { c.Model = "" }},
		{"temperature too high", func(c *Call) { c.Temperature = 1.5 }},
		{"temperature negative", func(c *Call) { c.Temperature = -0.1 }},
		{"prompt too long", func(c *Call) { c.Prompt = strings.Repeat("x", 20001) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := sentimentCall()
			tt.mutate(&call)

			_, failure := client.Invoke(context.Background(), call)
			if failure == nil {
				t.Fatalf("Invoke accepted invalid call")
			}
			if failure.Kind != models.FailureBackendError {
				t.Errorf("failure kind = %v, want backend_error", failure.Kind)
			}
		})
	}
}
