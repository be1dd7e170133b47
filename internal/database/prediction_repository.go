package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// PredictionRepository handles prediction database operations.
type PredictionRepository struct {
	db *sql.DB
}

// NewPredictionRepository creates a new repository.
func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create stores a verdict as a pending prediction and returns it with its
// assigned ID.
func (r *PredictionRepository) Create(ctx context.Context, verdict models.CompositeVerdict) (models.Prediction, error) {
	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to marshal verdict: %w", err)
	}

	prediction := models.Prediction{
		ID:            uuid.New().String(),
		Symbol:        verdict.Symbol,
		Action:        verdict.Action,
		Confidence:    verdict.Confidence,
		EnsembleScore: verdict.EnsembleScore,
		CurrentPrice:  verdict.CurrentPrice,
		TargetPrice:   verdict.TargetPrice,
		StopLoss:      verdict.StopLoss,
		Consensus:     verdict.Consensus,
		Verdict:       verdict,
		Status:        models.PredictionPending,
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO predictions (
			id, symbol, action, confidence, ensemble_score, current_price,
			target_price, stop_loss, consensus, verdict, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		prediction.ID,
		prediction.Symbol,
		prediction.Action,
		prediction.Confidence,
		prediction.EnsembleScore,
		prediction.CurrentPrice,
		prediction.TargetPrice,
		prediction.StopLoss,
		prediction.Consensus,
		verdictJSON,
		prediction.Status,
		prediction.CreatedAt,
	)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to insert prediction: %w", err)
	}

	return prediction, nil
}

// GetByID retrieves a single prediction.
func (r *PredictionRepository) GetByID(ctx context.Context, id string) (models.Prediction, error) {
	query := `
		SELECT id, symbol, action, confidence, ensemble_score, current_price,
		       target_price, stop_loss, consensus, verdict, status,
		       actual_price, validated_at, created_at
		FROM predictions
		WHERE id = $1
	`

	prediction, err := scanPrediction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return models.Prediction{}, fmt.Errorf("prediction %s not found", id)
	}
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to get prediction: %w", err)
	}
	return prediction, nil
}

// List retrieves predictions newest first, with optional filtering.
func (r *PredictionRepository) List(ctx context.Context, query models.PredictionQuery) ([]models.Prediction, error) {
	sqlQuery := `
		SELECT id, symbol, action, confidence, ensemble_score, current_price,
		       target_price, stop_loss, consensus, verdict, status,
		       actual_price, validated_at, created_at
		FROM predictions
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if query.Symbol != "" {
		sqlQuery += fmt.Sprintf(" AND symbol = $%d", argPos)
		args = append(args, query.Symbol)
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
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}

	return predictions, rows.Err()
}

// RecordOutcome marks a prediction validated against an observed price.
func (r *PredictionRepository) RecordOutcome(ctx context.Context, id string, actualPrice float64) (models.Prediction, error) {
	query := `
		UPDATE predictions
		SET status = $1, actual_price = $2, validated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, models.PredictionValidated, actualPrice, time.Now().UTC(), id)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to record outcome: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return models.Prediction{}, fmt.Errorf("prediction %s not found", id)
	}

	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (models.Prediction, error) {
	var prediction models.Prediction
	var verdictJSON []byte

	err := row.Scan(
		&prediction.ID,
		&prediction.Symbol,
		&prediction.Action,
		&prediction.Confidence,
		&prediction.EnsembleScore,
		&prediction.CurrentPrice,
		&prediction.TargetPrice,
		&prediction.StopLoss,
		&prediction.Consensus,
		&verdictJSON,
		&prediction.Status,
		&prediction.ActualPrice,
		&prediction.ValidatedAt,
		&prediction.CreatedAt,
	)
	if err != nil {
		return models.Prediction{}, err
	}

	if err := json.Unmarshal(verdictJSON, &prediction.Verdict); err != nil {
		return models.Prediction{}, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}

	return prediction, nil
}
