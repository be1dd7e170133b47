package models

import "time"

// InferenceLog represents a single backend model API call.
type InferenceLog struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"` // 'openai', 'anthropic'
	Model        string    `json:"model"`
	Task         string    `json:"task"` // 'sentiment', 'technical', 'risk', 'anomaly'
	TokensUsed   int       `json:"tokens_used"`
	InputTokens  *int      `json:"input_tokens,omitempty"`
	OutputTokens *int      `json:"output_tokens,omitempty"`
	LatencyMs    *int      `json:"latency_ms,omitempty"`
	Status       string    `json:"status"` // 'success', 'error'
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// InferenceLogQuery filters stored inference call records.
type InferenceLogQuery struct {
	Provider string
	Model    string
	Task     string
	Status   string
	Limit    int
	Offset   int
}

// InferenceLogStats aggregates call counts per provider/model.
type InferenceLogStats struct {
	TotalCalls      int     `json:"total_calls"`
	TotalTokens     int64   `json:"total_tokens"`
	SuccessfulCalls int     `json:"successful_calls"`
	FailedCalls     int     `json:"failed_calls"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}
