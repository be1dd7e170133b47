package normalize

import (
	"strings"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Neutral fallbacks substituted for failed tasks. A missing opinion must not
// bias the ensemble in either direction.
const (
	defaultScore = 50.0
)

// Normalize converts raw task payloads into the canonical result shapes the
// ensemble consumes. Failed tasks are replaced with neutral defaults and
// recorded in Defaulted so downstream consumers can flag degraded verdicts.
func Normalize(results models.TaskResults) models.NormalizedResults {
	var out models.NormalizedResults

	if r, ok := results[models.TaskSentiment]; ok && r.OK() {
		out.Sentiment = sentimentFrom(r.Payload)
	} else {
		out.Sentiment = models.SentimentResult{Sentiment: models.SentimentNeutral, Score: defaultScore}
		out.Defaulted = append(out.Defaulted, models.TaskSentiment)
	}

	if r, ok := results[models.TaskTechnical]; ok && r.OK() {
		out.Technical = technicalFrom(r.Payload)
	} else {
		out.Technical = models.TechnicalResult{Signal: models.SignalHold, Strength: defaultScore}
		out.Defaulted = append(out.Defaulted, models.TaskTechnical)
	}

	if r, ok := results[models.TaskRisk]; ok && r.OK() {
		out.Risk = riskFrom(r.Payload)
	} else {
		out.Risk = models.RiskResult{RiskScore: defaultScore, RiskLevel: models.RiskMedium}
		out.Defaulted = append(out.Defaulted, models.TaskRisk)
	}

	if r, ok := results[models.TaskAnomaly]; ok && r.OK() {
		out.Anomaly = anomalyFrom(r.Payload)
	} else {
		out.Anomaly = models.AnomalyResult{Detected: false}
		out.Defaulted = append(out.Defaulted, models.TaskAnomaly)
	}

	return out
}

func sentimentFrom(payload map[string]any) models.SentimentResult {
	return models.SentimentResult{
		Sentiment: stringField(payload, "sentiment", models.SentimentNeutral),
		Score:     numberField(payload, "score", defaultScore),
		Drivers:   stringField(payload, "drivers", ""),
		Mood:      stringField(payload, "mood", ""),
	}
}

func technicalFrom(payload map[string]any) models.TechnicalResult {
	return models.TechnicalResult{
		Signal:        stringField(payload, "signal", models.SignalHold),
		Strength:      numberField(payload, "strength", defaultScore),
		KeyIndicators: stringField(payload, "key_indicators", ""),
		Patterns:      stringField(payload, "patterns", ""),
	}
}

func riskFrom(payload map[string]any) models.RiskResult {
	return models.RiskResult{
		RiskScore:   numberField(payload, "risk_score", defaultScore),
		RiskLevel:   stringField(payload, "risk_level", models.RiskMedium),
		RiskFactors: stringField(payload, "risk_factors", ""),
		Downside:    stringField(payload, "downside", ""),
		RiskReward:  stringField(payload, "risk_reward", ""),
	}
}

func anomalyFrom(payload map[string]any) models.AnomalyResult {
	result := models.AnomalyResult{
		Detected: boolField(payload, "anomaly"),
		Type:     stringField(payload, "type", ""),
		Severity: stringField(payload, "severity", ""),
		Reason:   stringField(payload, "reason", ""),
	}
	if !result.Detected {
		result.Severity = ""
	} else if result.Severity == "" {
		result.Severity = models.SeverityLow
	}
	return result
}

func stringField(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func numberField(payload map[string]any, key string, fallback float64) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func boolField(payload map[string]any, key string) bool {
	v, ok := payload[key].(bool)
	return ok && v
}
