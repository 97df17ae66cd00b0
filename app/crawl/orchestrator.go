package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/news-crawl/app/feed"
	"github.com/lysyi3m/news-crawl/app/fetch"
	"github.com/lysyi3m/news-crawl/app/summary"
)

var (
	ErrNoFeeds         = errors.New("no feeds available")
	ErrStateNotPending = errors.New("crawl state is not pending")
)

// Catalog supplies the feed sources a crawl resolves its feed list from.
type Catalog interface {
	ActiveSources(ctx context.Context) ([]feed.Source, error)
}

// Sink receives crawl results as they are produced. Saving the same article
// URL twice must not create a duplicate.
type Sink interface {
	SaveArticle(ctx context.Context, taskID string, article feed.Article) error
	SaveState(ctx context.Context, taskID string, snapshot Snapshot) error
}

type Progress struct {
	TaskID            string `json:"task_id"`
	Status            Status `json:"status"`
	Progress          int    `json:"progress"`
	ProcessedArticles int    `json:"processed_articles"`
	TotalArticles     int    `json:"total_articles"`
	Message           string `json:"message,omitempty"`
}

// Notifier receives progress events. Notify must not block.
type Notifier interface {
	Notify(progress Progress)
}

type Options struct {
	RequestDelay    time.Duration
	RequestTimeout  time.Duration
	PerHostThrottle bool
	FeedWorkers     int
	UserAgent       string
	HTTPClient      *http.Client
}

func DefaultOptions() Options {
	return Options{
		RequestDelay:   fetch.DefaultDelay,
		RequestTimeout: fetch.DefaultTimeout,
		FeedWorkers:    8,
		UserAgent:      fetch.DefaultUserAgent,
	}
}

// Orchestrator runs the crawl pipeline: resolve feeds, fetch them in
// parallel, normalize entries, then extract, summarize and score each
// accepted article in order.
type Orchestrator struct {
	catalog   Catalog
	sink      Sink
	notifier  Notifier
	summaries *summary.Engine
	parser    *feed.Parser
	extractor *feed.ContentExtractor
	opts      Options
}

func NewOrchestrator(catalog Catalog, sink Sink, notifier Notifier, summaries *summary.Engine, opts Options) *Orchestrator {
	if sink == nil {
		sink = discardSink{}
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if summaries == nil {
		summaries = summary.NewEngine(nil, nil, nil)
	}
	if opts.FeedWorkers <= 0 {
		opts.FeedWorkers = DefaultOptions().FeedWorkers
	}

	return &Orchestrator{
		catalog:   catalog,
		sink:      sink,
		notifier:  notifier,
		summaries: summaries,
		parser:    feed.NewParser(),
		extractor: feed.NewContentExtractor(),
		opts:      opts,
	}
}

// Run executes one crawl, updating state as it goes. Any error marks the run
// failed; articles saved before the failure are kept. State must be pending:
// a finished state is only rerun after State.Reset.
func (o *Orchestrator) Run(ctx context.Context, taskID string, req Request, state *State) (err error) {
	if state.Status != StatusPending {
		return fmt.Errorf("%w: %s", ErrStateNotPending, state.Status)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl panicked: %v", r)
		}
		if err != nil {
			o.fail(ctx, taskID, state, err)
		}
	}()

	state.start()
	if err := o.sink.SaveState(ctx, taskID, state.Snapshot()); err != nil {
		return fmt.Errorf("failed to save task state: %w", err)
	}
	o.notify(taskID, state, "crawl started")

	feedURLs, err := o.resolveFeeds(ctx, req)
	if err != nil {
		return err
	}

	slog.Info("Starting crawl",
		"task_id", taskID,
		"query", req.Query,
		"feeds", len(feedURLs),
		"limit", req.Limit)

	client := fetch.NewClient(o.opts.HTTPClient, o.newLimiter(), o.opts.UserAgent, o.opts.RequestTimeout)

	results := o.fetchFeeds(ctx, client, feedURLs)

	normalizer := feed.NewNormalizer(req.Query, req.Since, req.Limit, state.seenURLs)
	var articles []feed.Article
	for i, entries := range results {
		if normalizer.Full() {
			break
		}
		articles = append(articles, normalizer.Run(entries, feedURLs[i])...)
	}

	state.TotalArticles = len(articles)
	if err := o.sink.SaveState(ctx, taskID, state.Snapshot()); err != nil {
		return fmt.Errorf("failed to save task state: %w", err)
	}

	slog.Info("Feed entries collected", "task_id", taskID, "articles", len(articles))

	for i := range articles {
		if state.ProcessedArticles >= req.Limit {
			break
		}

		article := &articles[i]
		o.processArticle(ctx, client, article, req.Query)

		if err := o.sink.SaveArticle(ctx, taskID, *article); err != nil {
			return fmt.Errorf("failed to save article %s: %w", article.URL, err)
		}

		state.advance(req.Limit)
		if err := o.sink.SaveState(ctx, taskID, state.Snapshot()); err != nil {
			return fmt.Errorf("failed to save task state: %w", err)
		}

		slog.Debug("Article processed",
			"task_id", taskID,
			"url", article.URL,
			"processed", state.ProcessedArticles,
			"total", min(state.TotalArticles, req.Limit),
			"score", article.RelevanceScore)

		o.notify(taskID, state, "")
	}

	state.complete()
	if err := o.sink.SaveState(ctx, taskID, state.Snapshot()); err != nil {
		return fmt.Errorf("failed to save task state: %w", err)
	}
	o.notify(taskID, state, "crawl completed")

	slog.Info("Crawl completed", "task_id", taskID, "processed", state.ProcessedArticles)

	return nil
}

func (o *Orchestrator) resolveFeeds(ctx context.Context, req Request) ([]string, error) {
	var sources []feed.Source
	if len(req.CustomFeeds) == 0 && o.catalog != nil {
		var err error
		sources, err = o.catalog.ActiveSources(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load feed sources: %w", err)
		}
	}

	feedURLs := feed.ResolveFeeds(sources, req.Query, req.CustomFeeds)
	if len(feedURLs) == 0 {
		return nil, ErrNoFeeds
	}

	return feedURLs, nil
}

func (o *Orchestrator) newLimiter() fetch.Limiter {
	if o.opts.PerHostThrottle {
		return fetch.NewHostLimiter(o.opts.RequestDelay)
	}
	return fetch.NewIntervalLimiter(o.opts.RequestDelay)
}

// fetchFeeds fetches and parses every feed with bounded parallelism. A
// failing feed yields no entries and never cancels the others. Results keep
// the order of feedURLs.
func (o *Orchestrator) fetchFeeds(ctx context.Context, client *fetch.Client, feedURLs []string) [][]feed.Entry {
	results := make([][]feed.Entry, len(feedURLs))

	var g errgroup.Group
	g.SetLimit(o.opts.FeedWorkers)

	for i, feedURL := range feedURLs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Feed fetch panicked", "feed_url", feedURL, "panic", r)
				}
			}()

			entries, err := o.fetchFeed(ctx, client, feedURL)
			if err != nil {
				slog.Warn("Feed fetch failed", "feed_url", feedURL, "error", err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}

	g.Wait()

	return results
}

func (o *Orchestrator) fetchFeed(ctx context.Context, client *fetch.Client, feedURL string) ([]feed.Entry, error) {
	data, err := client.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	metadata, entries, err := o.parser.Run(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Feed fetched",
		"feed_url", feedURL,
		"title", metadata.Title,
		"entries", len(entries))

	return entries, nil
}

// processArticle fills in body text, summary and relevance score. Content
// failures leave the body empty.
func (o *Orchestrator) processArticle(ctx context.Context, client *fetch.Client, article *feed.Article, query string) {
	article.Text = o.fetchContent(ctx, client, article.URL)
	article.Summary = o.summaries.Generate(ctx, article, false)
	article.RelevanceScore = feed.Score(*article, query)
}

func (o *Orchestrator) fetchContent(ctx context.Context, client *fetch.Client, articleURL string) string {
	data, err := client.Get(ctx, articleURL)
	if err != nil {
		slog.Warn("Failed to fetch article content", "url", articleURL, "error", err)
		return ""
	}

	pageURL, _ := url.Parse(articleURL)
	text, err := o.extractor.Run(data, pageURL)
	if err != nil {
		slog.Warn("Failed to extract article content", "url", articleURL, "error", err)
		return ""
	}

	return text
}

func (o *Orchestrator) fail(ctx context.Context, taskID string, state *State, err error) {
	slog.Error("Crawl failed", "task_id", taskID, "error", err)

	state.fail(err)
	if saveErr := o.sink.SaveState(context.WithoutCancel(ctx), taskID, state.Snapshot()); saveErr != nil {
		slog.Error("Failed to save failed task state", "task_id", taskID, "error", saveErr)
	}
	o.notify(taskID, state, err.Error())
}

func (o *Orchestrator) notify(taskID string, state *State, message string) {
	o.notifier.Notify(Progress{
		TaskID:            taskID,
		Status:            state.Status,
		Progress:          state.Progress,
		ProcessedArticles: state.ProcessedArticles,
		TotalArticles:     state.TotalArticles,
		Message:           message,
	})
}

type discardSink struct{}

func (discardSink) SaveArticle(context.Context, string, feed.Article) error { return nil }
func (discardSink) SaveState(context.Context, string, Snapshot) error { return nil }

type discardNotifier struct{}

func (discardNotifier) Notify(Progress) {}
