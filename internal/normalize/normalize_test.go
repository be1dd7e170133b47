package normalize

import (
	"testing"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

func TestNormalizeFullResults(t *testing.T) {
	results := models.TaskResults{
		models.TaskSentiment: {
			Task:  models.TaskSentiment,
			Model: "model-a",
			Payload: map[string]any{
				"sentiment": "bullish",
				"score":     78.0,
				"drivers":   "strong earnings",
				"mood":      "optimistic",
			},
		},
		models.TaskTechnical: {
			Task:  models.TaskTechnical,
			Model: "model-b",
			Payload: map[string]any{
				"signal":         "buy",
				"strength":       82.0,
				"key_indicators": "RSI 62, price above SMA20",
				"patterns":       "ascending triangle",
			},
		},
		models.TaskRisk: {
			Task:  models.TaskRisk,
			Model: "model-c",
			Payload: map[string]any{
				"risk_score":   35.0,
				"risk_level":   "low",
				"risk_factors": "sector rotation",
			},
		},
		models.TaskAnomaly: {
			Task:    models.TaskAnomaly,
			Model:   "model-a",
			Payload: map[string]any{"anomaly": false},
		},
	}

	normalized := Normalize(results)

	if normalized.Degraded() {
		t.Fatalf("Degraded() = true, Defaulted = %v", normalized.Defaulted)
	}
	if normalized.Sentiment.Sentiment != "bullish" || normalized.Sentiment.Score != 78 {
		t.Errorf("Sentiment = %+v", normalized.Sentiment)
	}
	if normalized.Technical.Signal != "buy" || normalized.Technical.Strength != 82 {
		t.Errorf("Technical = %+v", normalized.Technical)
	}
	if normalized.Risk.RiskLevel != "low" || normalized.Risk.RiskScore != 35 {
		t.Errorf("Risk = %+v", normalized.Risk)
	}
	if normalized.Anomaly.Detected {
		t.Errorf("Anomaly.Detected = true, want false")
	}
}

func TestNormalizeDefaultsFailedTasks(t *testing.T) {
	failure := &models.TaskFailure{Kind: models.FailureTimeout, Message: "deadline exceeded"}

	tests := []struct {
		name   string
		failed models.TaskKind
		check  func(t *testing.T, n models.NormalizedResults)
	}{
		{
			name:   "sentiment falls back to neutral",
			failed: models.TaskSentiment,
			check: func(t *testing.T, n models.NormalizedResults) {
				if n.Sentiment.Sentiment != models.SentimentNeutral || n.Sentiment.Score != 50 {
					t.Errorf("Sentiment = %+v, want neutral/50", n.Sentiment)
				}
			},
		},
		{
			name:   "technical falls back to hold",
			failed: models.TaskTechnical,
			check: func(t *testing.T, n models.NormalizedResults) {
				if n.Technical.Signal != models.SignalHold || n.Technical.Strength != 50 {
					t.Errorf("Technical = %+v, want hold/50", n.Technical)
				}
			},
		},
		{
			name:   "risk falls back to medium",
			failed: models.TaskRisk,
			check: func(t *testing.T, n models.NormalizedResults) {
				if n.Risk.RiskLevel != models.RiskMedium || n.Risk.RiskScore != 50 {
					t.Errorf("Risk = %+v, want medium/50", n.Risk)
				}
			},
		},
		{
			name:   "anomaly falls back to not detected",
			failed: models.TaskAnomaly,
			check: func(t *testing.T, n models.NormalizedResults) {
				if n.Anomaly.Detected {
					t.Errorf("Anomaly = %+v, want not detected", n.Anomaly)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := healthyResults()
			r := results[tt.failed]
			r.Payload = nil
			r.Err = failure
			results[tt.failed] = r

			normalized := Normalize(results)
			tt.check(t, normalized)

			if !normalized.WasDefaulted(tt.failed) {
				t.Errorf("WasDefaulted(%s) = false", tt.failed)
			}
			if len(normalized.Defaulted) != 1 {
				t.Errorf("Defaulted = %v, want exactly one entry", normalized.Defaulted)
			}
		})
	}
}

func TestNormalizeMissingTask(t *testing.T) {
	results := healthyResults()
	delete(results, models.TaskRisk)

	normalized := Normalize(results)
	if !normalized.WasDefaulted(models.TaskRisk) {
		t.Errorf("missing risk task not defaulted")
	}
	if normalized.Risk.RiskScore != 50 {
		t.Errorf("Risk.RiskScore = %v, want 50", normalized.Risk.RiskScore)
	}
}

func TestNormalizeAnomalySeverity(t *testing.T) {
	results := healthyResults()
	results[models.TaskAnomaly] = models.TaskResult{
		Task:    models.TaskAnomaly,
		Payload: map[string]any{"anomaly": true, "type": "spike", "reason": "gap up"},
	}

	normalized := Normalize(results)
	if !normalized.Anomaly.Detected {
		t.Fatalf("Anomaly.Detected = false")
	}
	if normalized.Anomaly.Severity != models.SeverityLow {
		t.Errorf("Severity = %q, want low default when detected without severity", normalized.Anomaly.Severity)
	}
}

func healthyResults() models.TaskResults {
	return models.TaskResults{
		models.TaskSentiment: {
			Task:    models.TaskSentiment,
			Payload: map[string]any{"sentiment": "bullish", "score": 70.0},
		},
		models.TaskTechnical: {
			Task:    models.TaskTechnical,
			Payload: map[string]any{"signal": "buy", "strength": 65.0},
		},
		models.TaskRisk: {
			Task:    models.TaskRisk,
			Payload: map[string]any{"risk_score": 40.0, "risk_level": "medium"},
		},
		models.TaskAnomaly: {
			Task:    models.TaskAnomaly,
			Payload: map[string]any{"anomaly": false},
		},
	}
}
