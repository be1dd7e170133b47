package models

import (
	"fmt"
	"time"
)

// Action is the final trading recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ConfidenceBand qualifies how strongly the ensemble backs its action.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "HIGH"
	ConfidenceMedium ConfidenceBand = "MEDIUM"
	ConfidenceLow    ConfidenceBand = "LOW"
)

// ConsensusLabel summarizes directional agreement across the tasks.
type ConsensusLabel string

const (
	ConsensusStrong   ConsensusLabel = "strong_consensus"
	ConsensusModerate ConsensusLabel = "moderate_agreement"
	ConsensusMixed    ConsensusLabel = "mixed_signals"
)

// Canonical enum values shared by task schemas and normalized results.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"

	SignalBuy  = "buy"
	SignalSell = "sell"
	SignalHold = "hold"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AnalysisRequest carries all inputs for one analysis call. Immutable once
// dispatched; indicator values arrive precomputed from the technical-analysis
// collaborator and are bound into prompts without recomputation.
type AnalysisRequest struct {
	Symbol             string             `json:"symbol"`
	CurrentPrice       float64            `json:"current_price"`
	Bars               []Bar              `json:"historical_bars,omitempty"`
	PriceChangePercent float64            `json:"price_change_percent"`
	News               []NewsItem         `json:"news_items,omitempty"`
	Indicators         map[string]float64 `json:"indicators,omitempty"`
}

// ValidationError rejects a malformed AnalysisRequest before dispatch. It is
// the only error class surfaced to the caller instead of a verdict.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid analysis request: %s", e.Reason)
}

// Validate checks the request against the constraints the pipeline assumes.
func (r AnalysisRequest) Validate() error {
	if r.Symbol == "" {
		return &ValidationError{Reason: "symbol is required"}
	}
	if r.CurrentPrice <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("current price must be positive, got %v", r.CurrentPrice)}
	}
	return nil
}

// SentimentResult is the canonical shape of the sentiment task output.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Drivers   string  `json:"drivers,omitempty"`
	Mood      string  `json:"mood,omitempty"`
}

// TechnicalResult is the canonical shape of the technical task output.
type TechnicalResult struct {
	Signal        string  `json:"signal"`
	Strength      float64 `json:"strength"`
	KeyIndicators string  `json:"key_indicators,omitempty"`
	Patterns      string  `json:"patterns,omitempty"`
}

// RiskResult is the canonical shape of the risk task output.
type RiskResult struct {
	RiskLevel   string  `json:"risk_level"`
	RiskScore   float64 `json:"risk_score"`
	RiskFactors string  `json:"risk_factors,omitempty"`
	Downside    string  `json:"downside,omitempty"`
	RiskReward  string  `json:"risk_reward,omitempty"`
}

// AnomalyResult is the canonical shape of the anomaly task output.
type AnomalyResult struct {
	Detected bool   `json:"anomaly_detected"`
	Type     string `json:"type,omitempty"`
	Severity string `json:"severity,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// NormalizedResults holds the four canonical task outputs after defaulting.
// Defaulted records which tasks fell back to their neutral defaults.
type NormalizedResults struct {
	Sentiment SentimentResult `json:"sentiment"`
	Technical TechnicalResult `json:"technical"`
	Risk      RiskResult      `json:"risk"`
	Anomaly   AnomalyResult   `json:"anomaly"`
	Defaulted []TaskKind      `json:"defaulted_tasks"`
}

// Degraded reports whether any task fell back to defaults.
func (n NormalizedResults) Degraded() bool {
	return len(n.Defaulted) > 0
}

// WasDefaulted reports whether the given task used its neutral default.
func (n NormalizedResults) WasDefaulted(kind TaskKind) bool {
	for _, k := range n.Defaulted {
		if k == kind {
			return true
		}
	}
	return false
}

// CompositeVerdict is the final, immutable output of one analysis call.
type CompositeVerdict struct {
	Symbol          string              `json:"symbol"`
	CurrentPrice    float64             `json:"current_price"`
	Action          Action              `json:"action"`
	Confidence      ConfidenceBand      `json:"confidence"`
	ConfidenceScore float64             `json:"confidence_score"` // 0-100, model agreement
	EnsembleScore   float64             `json:"ensemble_score"`   // 0-100, weighted combination
	TargetPrice     float64             `json:"target_price"`
	StopLoss        float64             `json:"stop_loss"`
	Consensus       ConsensusLabel      `json:"consensus"`
	Reasoning       string              `json:"reasoning"`
	ModelVotes      map[string]string   `json:"model_votes"`
	Results         NormalizedResults   `json:"results"`
	ModelsUsed      map[TaskKind]string `json:"models_used"`
	AnalysisTime    time.Duration       `json:"-"`
	AnalysisTimeSec float64             `json:"analysis_time_seconds"`
	Timestamp       time.Time           `json:"timestamp"`
}
