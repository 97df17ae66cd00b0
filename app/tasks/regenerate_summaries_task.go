package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-crawl/app/database"
	"github.com/lysyi3m/news-crawl/app/summary"
)

// RegenerateSummariesTask recomputes the summary of each listed article,
// ignoring any cached or feed-provided summary. A failure on one article is
// logged and the batch continues.
type RegenerateSummariesTask struct {
	Task
	articleIDs  []string
	strategy    summary.Strategy
	summaries   *summary.Engine
	articleRepo database.ArticleRepository
}

// NewRegenerateSummariesTask builds the batch. A non-empty strategy becomes
// the active strategy before the batch runs.
func NewRegenerateSummariesTask(articleIDs []string, strategy summary.Strategy,
	summaries *summary.Engine, articleRepo database.ArticleRepository) *RegenerateSummariesTask {
	return &RegenerateSummariesTask{
		Task:        NewTask(TaskTypeRegenerateSummaries, fmt.Sprintf("%d articles", len(articleIDs))),
		articleIDs:  articleIDs,
		strategy:    strategy,
		summaries:   summaries,
		articleRepo: articleRepo,
	}
}

func (t *RegenerateSummariesTask) Execute(ctx context.Context) error {
	if t.strategy != "" {
		if err := t.summaries.SetStrategy(ctx, t.strategy); err != nil {
			return fmt.Errorf("failed to set summary strategy: %w", err)
		}
		// The strategy change is applied once; retries must not repeat it.
		t.strategy = ""
	}

	articles, err := t.articleRepo.ArticlesByIDs(ctx, t.articleIDs)
	if err != nil {
		return fmt.Errorf("failed to load articles: %w", err)
	}

	updated := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}

		text := t.summaries.Generate(ctx, &article.Article, true)
		if err := t.articleRepo.UpdateSummary(ctx, article.ID, text); err != nil {
			slog.Error("Failed to store regenerated summary", "article_id", article.ID, "error", err)
			continue
		}

		slog.Info("Generated summary for article", "article_id", article.ID)
		updated++
	}

	slog.Info("Summary regeneration completed",
		"requested", len(t.articleIDs),
		"found", len(articles),
		"updated", updated)

	return nil
}
