package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type migration struct {
	version string
	sql     string
}

// Schema migrations run in order at startup; each version is applied at most
// once. Statements must stay idempotent since older deployments may predate
// the schema_migrations table.
var migrations = []migration{
	{
		version: "001_create_predictions",
		sql: `
			CREATE TABLE IF NOT EXISTS predictions (
				id UUID PRIMARY KEY,
				symbol VARCHAR(32) NOT NULL,
				action VARCHAR(8) NOT NULL,
				confidence VARCHAR(8) NOT NULL,
				ensemble_score DOUBLE PRECISION NOT NULL,
				current_price DOUBLE PRECISION NOT NULL,
				target_price DOUBLE PRECISION NOT NULL,
				stop_loss DOUBLE PRECISION NOT NULL,
				consensus VARCHAR(32) NOT NULL,
				verdict JSONB NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				actual_price DOUBLE PRECISION,
				validated_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_predictions_symbol ON predictions (symbol);
			CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions (status);
			CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC);
		`,
	},
	{
		version: "002_create_inference_logs",
		sql: `
			CREATE TABLE IF NOT EXISTS inference_logs (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				provider VARCHAR(32) NOT NULL,
				model VARCHAR(128) NOT NULL,
				task VARCHAR(32) NOT NULL,
				tokens_used INTEGER NOT NULL DEFAULT 0,
				input_tokens INTEGER,
				output_tokens INTEGER,
				latency_ms INTEGER,
				status VARCHAR(16) NOT NULL,
				error_message TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_inference_logs_task ON inference_logs (task);
			CREATE INDEX IF NOT EXISTS idx_inference_logs_created_at ON inference_logs (created_at DESC);
		`,
	},
}

// RunMigrations applies all pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := 0
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}

		logger.Info("applying migration", "version", m.version)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.version, err)
		}
		pending++
	}

	if pending > 0 {
		logger.Info("migrations applied", "count", pending)
	} else {
		logger.Info("database schema up to date")
	}

	return nil
}
