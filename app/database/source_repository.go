package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lysyi3m/news-crawl/app/feed"
)

var ErrDuplicateSource = errors.New("RSS source with this name already exists")

type SourceRepo struct {
	db *DB
}

var _ SourceRepository = (*SourceRepo)(nil)

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, name, url_template, supports_query, is_active, priority, created_at`

// ActiveSources returns the active sources ordered by priority.
func (r *SourceRepo) ActiveSources(ctx context.Context) ([]feed.Source, error) {
	sources, err := r.querySources(ctx,
		`SELECT `+sourceColumns+` FROM rss_sources WHERE is_active = 1 ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, err
	}

	active := make([]feed.Source, 0, len(sources))
	for _, source := range sources {
		active = append(active, source.Source)
	}

	return active, nil
}

func (r *SourceRepo) ListSources(ctx context.Context) ([]Source, error) {
	return r.querySources(ctx, `SELECT `+sourceColumns+` FROM rss_sources ORDER BY priority ASC, id ASC`)
}

func (r *SourceRepo) GetSource(ctx context.Context, id int64) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM rss_sources WHERE id = ?`, id)

	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *SourceRepo) CreateSource(ctx context.Context, source feed.Source) (*Source, error) {
	if err := feed.ValidateSource(source); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO rss_sources (name, url_template, supports_query, is_active, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, source.Name, source.URLTemplate, source.SupportsQuery, source.Active, source.Priority, time.Now().UTC())
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSource
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	return r.GetSource(ctx, id)
}

// UpdateSource replaces every field of an existing source. It returns
// (nil, nil) when id does not exist.
func (r *SourceRepo) UpdateSource(ctx context.Context, id int64, source feed.Source) (*Source, error) {
	if err := feed.ValidateSource(source); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE rss_sources
		SET name = ?, url_template = ?, supports_query = ?, is_active = ?, priority = ?
		WHERE id = ?
	`, source.Name, source.URLTemplate, source.SupportsQuery, source.Active, source.Priority, id)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSource
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	} else if affected == 0 {
		return nil, nil
	}

	return r.GetSource(ctx, id)
}

func (r *SourceRepo) DeleteSource(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rss_sources WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete source: %w", err)
	}

	return affected > 0, nil
}

// SeedSources inserts sources only when the table is empty and reports how
// many were added.
func (r *SourceRepo) SeedSources(ctx context.Context, sources []feed.Source) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rss_sources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, source := range sources {
		if _, err := r.CreateSource(ctx, source); err != nil {
			return seeded, fmt.Errorf("failed to seed source %q: %w", source.Name, err)
		}
		seeded++
	}

	return seeded, nil
}

func (r *SourceRepo) querySources(ctx context.Context, query string, args ...any) ([]Source, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	err := row.Scan(
		&source.ID, &source.Name, &source.URLTemplate, &source.SupportsQuery,
		&source.Active, &source.Priority, &source.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
