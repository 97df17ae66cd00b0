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

	"github.com/lysyi3m/news-crawl/app/crawl"
)

type TaskRepo struct {
	db *DB
}

var _ TaskRepository = (*TaskRepo)(nil)

func NewTaskRepository(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, query, since, max_articles, custom_feeds, status, progress,
	total_articles, processed_articles, error_message, created_at, started_at, completed_at`

func (r *TaskRepo) CreateTask(ctx context.Context, req crawl.Request) (*Task, error) {
	feeds := req.CustomFeeds
	if feeds == nil {
		feeds = []string{}
	}
	feedsJSON, err := json.Marshal(feeds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode custom feeds: %w", err)
	}

	task := &Task{
		ID:          uuid.NewString(),
		Query:       req.Query,
		Since:       req.Since,
		MaxArticles: req.Limit,
		CustomFeeds: feeds,
		Status:      crawl.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO crawl_tasks (id, query, since, max_articles, custom_feeds, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Query, nullTime(task.Since), task.MaxArticles, string(feedsJSON),
		string(task.Status), task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (r *TaskRepo) GetTask(ctx context.Context, id string) (*Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM crawl_tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (r *TaskRepo) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	var where []string
	var args []any

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + taskColumns + ` FROM crawl_tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize(filter.Limit), max(filter.Offset, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// DeleteTask removes the task and, by cascade, its articles.
func (r *TaskRepo) DeleteTask(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM crawl_tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	return affected > 0, nil
}

func (r *TaskRepo) SaveState(ctx context.Context, id string, snapshot crawl.Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE crawl_tasks
		SET status = ?, progress = ?, total_articles = ?, processed_articles = ?,
		    error_message = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`, string(snapshot.Status), snapshot.Progress, snapshot.TotalArticles, snapshot.ProcessedArticles,
		snapshot.ErrorMessage, nullTime(snapshot.StartedAt), nullTime(snapshot.CompletedAt), id)
	if err != nil {
		return fmt.Errorf("failed to save task state: %w", err)
	}

	return nil
}

// ResetTask returns a task to pending with cleared counters so it can run again.
func (r *TaskRepo) ResetTask(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE crawl_tasks
		SET status = ?, progress = 0, total_articles = 0, processed_articles = 0,
		    error_message = '', started_at = NULL, completed_at = NULL
		WHERE id = ?
	`, string(crawl.StatusPending), id)
	if err != nil {
		return fmt.Errorf("failed to reset task: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var status, feedsJSON string
	var since, startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID, &task.Query, &since, &task.MaxArticles, &feedsJSON, &status, &task.Progress,
		&task.TotalArticles, &task.ProcessedArticles, &task.ErrorMessage, &task.CreatedAt,
		&startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(feedsJSON), &task.CustomFeeds); err != nil {
		return nil, fmt.Errorf("failed to decode custom feeds: %w", err)
	}

	task.Status = crawl.Status(status)
	task.Since = timePtr(since)
	task.StartedAt = timePtr(startedAt)
	task.CompletedAt = timePtr(completedAt)

	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}
