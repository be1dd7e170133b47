package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// InferenceLogRepository handles inference log database operations.
type InferenceLogRepository struct {
	db *sql.DB
}

// NewInferenceLogRepository creates a new repository.
func NewInferenceLogRepository(db *sql.DB) *InferenceLogRepository {
	return &InferenceLogRepository{db: db}
}

// Create logs a new inference call.
func (r *InferenceLogRepository) Create(ctx context.Context, log models.InferenceLog) error {
	query := `
		INSERT INTO inference_logs (
			provider, model, task, tokens_used, input_tokens, output_tokens,
			latency_ms, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.Provider,
		log.Model,
		log.Task,
		log.TokensUsed,
		log.InputTokens,
		log.OutputTokens,
		log.LatencyMs,
		log.Status,
		log.ErrorMessage,
	)

	return err
}

// List retrieves inference logs with optional filtering.
func (r *InferenceLogRepository) List(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error) {
	sqlQuery := `
		SELECT id, provider, model, task, tokens_used, input_tokens, output_tokens,
		       latency_ms, status, error_message, created_at
		FROM inference_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if query.Provider != "" {
		sqlQuery += fmt.Sprintf(" AND provider = $%d", argPos)
		args = append(args, query.Provider)
		argPos++
	}

	if query.Model != "" {
		sqlQuery += fmt.Sprintf(" AND model = $%d", argPos)
		args = append(args, query.Model)
		argPos++
	}

	if query.Task != "" {
		sqlQuery += fmt.Sprintf(" AND task = $%d", argPos)
		args = append(args, query.Task)
		argPos++
	}

	if query.Status != "" {
		sqlQuery += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, query.Status)
		argPos++
	}

	sqlQuery += " ORDER BY created_at DESC"

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, query.Limit)
		argPos++
	}

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, query.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inference logs: %w", err)
	}
	defer rows.Close()

	var logs []models.InferenceLog
	for rows.Next() {
		var log models.InferenceLog
		err := rows.Scan(
			&log.ID,
			&log.Provider,
			&log.Model,
			&log.Task,
			&log.TokensUsed,
			&log.InputTokens,
			&log.OutputTokens,
			&log.LatencyMs,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inference log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// Stats aggregates call volume and latency across all logged calls.
func (r *InferenceLogRepository) Stats(ctx context.Context) (models.InferenceLogStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(tokens_used), 0),
		       COUNT(*) FILTER (WHERE status = 'success'),
		       COUNT(*) FILTER (WHERE status = 'error'),
		       COALESCE(AVG(latency_ms), 0)
		FROM inference_logs
	`

	var stats models.InferenceLogStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalCalls,
		&stats.TotalTokens,
		&stats.SuccessfulCalls,
		&stats.FailedCalls,
		&stats.AvgLatencyMs,
	)
	if err != nil {
		return models.InferenceLogStats{}, fmt.Errorf("failed to query inference stats: %w", err)
	}

	return stats, nil
}
