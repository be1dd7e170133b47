package models

import (
	"time"
)

// PredictionStatus tracks whether a stored prediction has been checked
// against a later-observed market price.
type PredictionStatus string

const (
	PredictionPending   PredictionStatus = "pending"
	PredictionValidated PredictionStatus = "validated"
)

// Prediction is a persisted CompositeVerdict plus its validation lifecycle.
// The verdict itself is immutable; only the outcome fields are filled in
// later for accuracy tracking.
type Prediction struct {
	ID            string           `json:"id"`
	Symbol        string           `json:"symbol"`
	Action        Action           `json:"action"`
	Confidence    ConfidenceBand   `json:"confidence"`
	EnsembleScore float64          `json:"ensemble_score"`
	CurrentPrice  float64          `json:"current_price"`
	TargetPrice   float64          `json:"target_price"`
	StopLoss      float64          `json:"stop_loss"`
	Consensus     ConsensusLabel   `json:"consensus"`
	Verdict       CompositeVerdict `json:"verdict"`
	Status        PredictionStatus `json:"status"`
	ActualPrice   *float64         `json:"actual_price,omitempty"`
	ValidatedAt   *time.Time       `json:"validated_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// PredictionQuery filters stored predictions.
type PredictionQuery struct {
	Symbol string
	Status PredictionStatus
	Limit  int
}
