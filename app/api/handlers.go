package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-crawl/app/crawl"
	"github.com/lysyi3m/news-crawl/app/database"
	"github.com/lysyi3m/news-crawl/app/export"
	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/summary"
	"github.com/lysyi3m/news-crawl/app/tasks"
)

const heartbeatInterval = 15 * time.Second

func NewHandler(taskRepo database.TaskRepository, articleRepo database.ArticleRepository,
	sourceRepo database.SourceRepository, summaries *summary.Engine,
	scheduler tasks.TaskSchedulerInterface, runner tasks.CrawlRunner,
	broadcaster *Broadcaster, baseURL, version string) *Handler {
	return &Handler{
		taskRepo:    taskRepo,
		articleRepo: articleRepo,
		sourceRepo:  sourceRepo,
		summaries:   summaries,
		scheduler:   scheduler,
		runner:      runner,
		broadcaster: broadcaster,
		generator:   export.NewRSSGenerator(),
		baseURL:     baseURL,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if reporter, ok := h.scheduler.(HealthReporter); ok {
		health["scheduler"] = reporter.Health()
	}

	if sources, err := h.sourceRepo.ActiveSources(c.Request.Context()); err == nil {
		health["active_sources"] = len(sources)
	}

	health["event_subscribers"] = h.broadcaster.Count()

	c.JSON(http.StatusOK, health)
}

// Tasks

func (h *Handler) CreateTask(c *gin.Context) {
	var body createTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	req, err := crawl.NewRequest(body.Query, body.Since, body.Limit, body.CustomFeeds)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	task, err := h.taskRepo.CreateTask(ctx, req)
	if err != nil {
		slog.Error("Database error", "operation", "create_task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewCrawlTask(task.ID, req, h.runner)); err != nil {
		slog.Error("Error enqueueing crawl task", "task_id", task.ID, "error", err)
		h.markFailed(c, task.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue crawl task", "details": err.Error()})
		return
	}

	slog.Info("Crawl task created", "task_id", task.ID, "query", req.Query, "limit", req.Limit)

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) ListTasks(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	filter := database.TaskFilter{
		Status: crawl.Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}

	list, err := h.taskRepo.ListTasks(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_tasks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	if task.Status == crawl.StatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "Task is running"})
		return
	}

	if _, err := h.taskRepo.DeleteTask(c.Request.Context(), task.ID); err != nil {
		slog.Error("Database error", "operation", "delete_task", "task_id", task.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) RetryTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	if !task.Status.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not in a retryable state"})
		return
	}

	ctx := c.Request.Context()

	if err := h.taskRepo.ResetTask(ctx, task.ID); err != nil {
		slog.Error("Database error", "operation", "reset_task", "task_id", task.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.scheduler.EnqueueTask(tasks.NewCrawlTask(task.ID, task.Request(), h.runner)); err != nil {
		slog.Error("Error enqueueing crawl task", "task_id", task.ID, "error", err)
		h.markFailed(c, task.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue crawl task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task retry initiated", "task_id": task.ID})
}

func (h *Handler) GetTaskFeed(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	articles, err := h.articleRepo.ListArticles(c.Request.Context(), database.ArticleFilter{
		TaskID: task.ID,
		Limit:  crawl.MaxLimit,
	})
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "task_id", task.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := make([]feed.Article, 0, len(articles))
	for _, article := range articles {
		items = append(items, article.Article)
	}

	channel := export.Channel{
		Title:       "News: " + task.Query,
		Link:        h.publicURL(c, ""),
		Description: fmt.Sprintf("Articles collected for %q", task.Query),
		SelfLink:    h.publicURL(c, "/tasks/"+task.ID+"/feed"),
		Generator:   "News-Crawl/" + h.version,
	}
	if task.CompletedAt != nil {
		channel.BuiltAt = *task.CompletedAt
	}

	rss, err := h.generator.Run(channel, items)
	if err != nil {
		slog.Error("RSS generation error", "task_id", task.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.String(http.StatusOK, rss)
}

// Articles

func (h *Handler) ListArticles(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	filter := database.ArticleFilter{
		TaskID: c.Query("task_id"),
		Source: c.Query("source"),
		Limit:  limit,
		Offset: offset,
	}

	list, err := h.articleRepo.ListArticles(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetArticle(c *gin.Context) {
	article, ok := h.loadArticle(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *Handler) RegenerateArticleSummary(c *gin.Context) {
	article, ok := h.loadArticle(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if name := c.Query("strategy"); name != "" {
		strategy, err := summary.ParseStrategy(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := h.summaries.SetStrategy(ctx, strategy); err != nil {
			slog.Error("Failed to set summary strategy", "strategy", strategy, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set summary strategy"})
			return
		}
	}

	text := h.summaries.Generate(ctx, &article.Article, true)
	if err := h.articleRepo.UpdateSummary(ctx, article.ID, text); err != nil {
		slog.Error("Database error", "operation", "update_summary", "article_id", article.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Summary regenerated", "summary": text})
}

// RSS sources

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListSources(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, sources)
}

func (h *Handler) CreateSource(c *gin.Context) {
	var body sourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	source, err := h.sourceRepo.CreateSource(c.Request.Context(), body.toSource())
	if !h.handleSourceError(c, "create_source", err) {
		return
	}

	c.JSON(http.StatusCreated, source)
}

func (h *Handler) UpdateSource(c *gin.Context) {
	id, ok := sourceID(c)
	if !ok {
		return
	}

	var body sourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	source, err := h.sourceRepo.UpdateSource(c.Request.Context(), id, body.toSource())
	if !h.handleSourceError(c, "update_source", err) {
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "RSS source not found"})
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *Handler) DeleteSource(c *gin.Context) {
	id, ok := sourceID(c)
	if !ok {
		return
	}

	deleted, err := h.sourceRepo.DeleteSource(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "delete_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "RSS source not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "RSS source deleted successfully"})
}

// Summaries

func (h *Handler) GetSummaryStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.articleRepo.GetSummaryCounts(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "summary_counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var coverage float64
	if counts.TotalArticles > 0 {
		coverage = float64(counts.ArticlesWithSummary) / float64(counts.TotalArticles) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"total_articles":        counts.TotalArticles,
		"articles_with_summary": counts.ArticlesWithSummary,
		"coverage_percentage":   coverage,
		"current_strategy":      h.summaries.Strategy(ctx),
		"cache_size":            h.summaries.CacheSize(),
		"ai_available":          h.summaries.AIAvailable(),
	})
}

func (h *Handler) RegenerateSummaries(c *gin.Context) {
	var body regenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if len(body.ArticleIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_ids is required"})
		return
	}

	var strategy summary.Strategy
	if body.Strategy != "" {
		var err error
		if strategy, err = summary.ParseStrategy(body.Strategy); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	task := tasks.NewRegenerateSummariesTask(body.ArticleIDs, strategy, h.summaries, h.articleRepo)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing summary task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue summary task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Summaries regeneration queued for %d articles", len(body.ArticleIDs)),
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) SetSummaryStrategy(c *gin.Context) {
	name := c.Query("strategy")
	if name == "" {
		var body strategyRequest
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		name = body.Strategy
	}

	strategy, err := summary.ParseStrategy(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.summaries.SetStrategy(c.Request.Context(), strategy); err != nil {
		slog.Error("Failed to set summary strategy", "strategy", strategy, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set summary strategy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Summary strategy set to: " + strategy.String()})
}

// StreamEvents sends crawl progress as server-sent events until the client
// disconnects.
func (h *Handler) StreamEvents(c *gin.Context) {
	events, unsubscribe := h.broadcaster.Subscribe()
	defer unsubscribe()

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("Cannot clear write deadline for event stream", "error", err)
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.SSEvent("connected", gin.H{"subscribers": h.broadcaster.Count()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case progress := <-events:
			c.SSEvent("progress", progress)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) loadTask(c *gin.Context) (*database.Task, bool) {
	id := c.Param("id")

	task, err := h.taskRepo.GetTask(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_task", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, false
	}

	return task, true
}

func (h *Handler) loadArticle(c *gin.Context) (*database.Article, bool) {
	id := c.Param("id")

	article, err := h.articleRepo.GetArticle(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return nil, false
	}

	return article, true
}

// handleSourceError writes the response for a failed source write and
// reports whether the caller may continue.
func (h *Handler) handleSourceError(c *gin.Context, operation string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, database.ErrDuplicateSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, feed.ErrInvalidSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Database error", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
	return false
}

func (h *Handler) markFailed(c *gin.Context, taskID string, cause error) {
	now := time.Now().UTC()
	snapshot := crawl.Snapshot{
		Status:       crawl.StatusFailed,
		ErrorMessage: cause.Error(),
		CompletedAt:  &now,
	}
	if err := h.taskRepo.SaveState(c.Request.Context(), taskID, snapshot); err != nil {
		slog.Error("Failed to mark task failed", "task_id", taskID, "error", err)
	}
}

func (h *Handler) publicURL(c *gin.Context, path string) string {
	if h.baseURL != "" {
		return h.baseURL + path
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + path
}

func pagination(c *gin.Context) (limit, offset int, ok bool) {
	parse := func(name string) (int, bool) {
		raw := c.Query(name)
		if raw == "" {
			return 0, true
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s parameter", name)})
			return 0, false
		}
		return v, true
	}

	if limit, ok = parse("limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = parse("skip"); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

func sourceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source id"})
		return 0, false
	}
	return id, true
}
