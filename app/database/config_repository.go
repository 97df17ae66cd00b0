package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/news-crawl/app/summary"
)

const summaryStrategyKey = "summary_strategy"

type ConfigRepo struct {
	db *DB
}

var _ ConfigRepository = (*ConfigRepo)(nil)

func NewConfigRepository(db *DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// GetStrategy returns the stored summary strategy, or the default when none
// has been set.
func (r *ConfigRepo) GetStrategy(ctx context.Context) (summary.Strategy, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_config WHERE key = ?`, summaryStrategyKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return summary.DefaultStrategy, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get summary strategy: %w", err)
	}

	return summary.ParseStrategy(value)
}

// SeedStrategy stores strategy only when no strategy has been set yet and
// reports whether it did.
func (r *ConfigRepo) SeedStrategy(ctx context.Context, strategy summary.Strategy) (bool, error) {
	if !strategy.Valid() {
		return false, fmt.Errorf("unknown summary strategy %q", strategy)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO NOTHING
	`, summaryStrategyKey, string(strategy), "Summary generation strategy", time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to seed summary strategy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to seed summary strategy: %w", err)
	}

	return rows > 0, nil
}

func (r *ConfigRepo) SetStrategy(ctx context.Context, strategy summary.Strategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("unknown summary strategy %q", strategy)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, summaryStrategyKey, string(strategy), "Summary generation strategy", time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set summary strategy: %w", err)
	}

	return nil
}
