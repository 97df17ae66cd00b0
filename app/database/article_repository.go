package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/news-crawl/app/feed"
)

type ArticleRepo struct {
	db *DB
}

var _ ArticleRepository = (*ArticleRepo)(nil)

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, task_id, title, source, url, published, summary, text, tags,
	relevance_score, created_at`

// UpsertArticle stores an article keyed by URL. A URL seen again moves to
// the latest task and takes the new content.
func (r *ArticleRepo) UpsertArticle(ctx context.Context, taskID string, article feed.Article) error {
	tags := article.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO articles (
			id, task_id, title, source, url, published, summary, text, tags,
			relevance_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			task_id = excluded.task_id,
			title = excluded.title,
			source = excluded.source,
			published = excluded.published,
			summary = excluded.summary,
			text = excluded.text,
			tags = excluded.tags,
			relevance_score = excluded.relevance_score
	`, uuid.NewString(), taskID, article.Title, article.Source, article.URL,
		nullTime(article.Published), article.Summary, article.Text, string(tagsJSON),
		article.RelevanceScore, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store article: %w", err)
	}

	return nil
}

func (r *ArticleRepo) GetArticle(ctx context.Context, id string) (*Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)

	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (r *ArticleRepo) ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error) {
	var where []string
	var args []any

	if filter.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY relevance_score DESC, created_at ASC LIMIT ? OFFSET ?"
	args = append(args, pageSize(filter.Limit), max(filter.Offset, 0))

	return r.queryArticles(ctx, query, args...)
}

// ArticlesByIDs returns the articles that exist among ids, in no particular order.
func (r *ArticleRepo) ArticlesByIDs(ctx context.Context, ids []string) ([]Article, error) {
	if len(ids) == 0 {
		return []Article{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id IN (` + placeholders + `)`

	return r.queryArticles(ctx, query, args...)
}

func (r *ArticleRepo) UpdateSummary(ctx context.Context, id, summary string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE articles SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return nil
}

func (r *ArticleRepo) GetSummaryCounts(ctx context.Context) (SummaryCounts, error) {
	var counts SummaryCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN summary <> '' THEN 1 ELSE 0 END), 0)
		FROM articles
	`).Scan(&counts.TotalArticles, &counts.ArticlesWithSummary)
	if err != nil {
		return SummaryCounts{}, fmt.Errorf("failed to get summary counts: %w", err)
	}
	return counts, nil
}

func (r *ArticleRepo) queryArticles(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	var tagsJSON string
	var published sql.NullTime

	err := row.Scan(
		&article.ID, &article.TaskID, &article.Title, &article.Source, &article.URL,
		&published, &article.Summary, &article.Text, &tagsJSON,
		&article.RelevanceScore, &article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &article.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	article.Published = timePtr(published)

	return &article, nil
}
