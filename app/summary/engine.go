package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/news-crawl/app/feed"
)

const (
	aiSummaryMinLength   = 200 // existing summaries longer than this count as AI output
	rssSummaryMinLength  = 10
	hybridRSSMinLength   = 50
	hybridTextMinLength  = 100
	aiTextMinLength      = 50
	aiInputMaxLength     = 1024
	aiSummaryMaxTokens   = 150
	aiSummaryMinTokens   = 30
	simpleTruncateLength = 200
)

// Summarizer produces an abstractive summary of text within the given
// length bounds.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// Error wraps a summarizer failure.
type Error struct {
	Strategy Strategy
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("summarization failed (%s): %v", e.Strategy, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Engine picks or generates a summary for an article according to the active
// strategy. Summarizer may be nil, in which case AI strategies degrade to the
// simple extractive summary.
type Engine struct {
	store      StrategyStore
	summarizer Summarizer
	cache      *Cache
}

func NewEngine(store StrategyStore, summarizer Summarizer, cache *Cache) *Engine {
	if store == nil {
		store = NewMemoryStore(DefaultStrategy)
	}
	if cache == nil {
		cache = NewCache(DefaultCacheTTL)
	}
	return &Engine{
		store:      store,
		summarizer: summarizer,
		cache:      cache,
	}
}

// Strategy returns the active strategy, falling back to the default when the
// store fails or holds an unknown value.
func (e *Engine) Strategy(ctx context.Context) Strategy {
	strategy, err := e.store.GetStrategy(ctx)
	if err != nil {
		slog.Warn("Failed to load summary strategy, using default", "error", err)
		return DefaultStrategy
	}
	if !strategy.Valid() {
		return DefaultStrategy
	}
	return strategy
}

func (e *Engine) SetStrategy(ctx context.Context, strategy Strategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("unknown summary strategy %q", strategy)
	}
	return e.store.SetStrategy(ctx, strategy)
}

func (e *Engine) AIAvailable() bool {
	return e.summarizer != nil
}

func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

// Generate returns the summary for article. Without force, an acceptable
// existing summary or a live cache entry is returned as is.
func (e *Engine) Generate(ctx context.Context, article *feed.Article, force bool) string {
	strategy := e.Strategy(ctx)

	if !force && article.Summary != "" {
		switch strategy {
		case StrategyRSSFirst:
			return article.Summary
		case StrategyAIGenerated:
			if utf8.RuneCountInString(article.Summary) > aiSummaryMinLength {
				return article.Summary
			}
		}
	}

	key := CacheKey(bodyOrTitle(article), strategy)
	if !force {
		if cached, ok := e.cache.Get(key); ok {
			return cached
		}
	}

	var summary string
	switch strategy {
	case StrategyAIGenerated:
		summary = e.aiGenerated(ctx, article)
	case StrategyHybrid:
		summary = e.hybrid(ctx, article)
	case StrategySimple:
		summary = simpleSummary(article)
	default:
		summary = rssFirst(article)
	}

	if summary != "" {
		e.cache.Set(key, summary)
	}

	return summary
}

func rssFirst(article *feed.Article) string {
	if utf8.RuneCountInString(strings.TrimSpace(article.Summary)) > rssSummaryMinLength {
		return article.Summary
	}
	return simpleSummary(article)
}

func (e *Engine) aiGenerated(ctx context.Context, article *feed.Article) string {
	if e.summarizer == nil {
		slog.Debug("AI summarizer not available, falling back to simple strategy")
		return simpleSummary(article)
	}

	text := bodyOrTitle(article)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < aiTextMinLength {
		return simpleSummary(article)
	}

	summary, err := e.summarize(ctx, StrategyAIGenerated, text)
	if err != nil {
		slog.Error("AI summarization failed", "url", article.URL, "error", err)
		return simpleSummary(article)
	}

	return summary
}

func (e *Engine) hybrid(ctx context.Context, article *feed.Article) string {
	if utf8.RuneCountInString(strings.TrimSpace(article.Summary)) > hybridRSSMinLength {
		return article.Summary
	}

	text := bodyOrTitle(article)
	if e.summarizer != nil && utf8.RuneCountInString(strings.TrimSpace(text)) > hybridTextMinLength {
		summary, err := e.summarize(ctx, StrategyHybrid, text)
		if err == nil {
			return summary
		}
		slog.Error("Hybrid summarization failed", "url", article.URL, "error", err)
	}

	return simpleSummary(article)
}

func (e *Engine) summarize(ctx context.Context, strategy Strategy, text string) (string, error) {
	summary, err := e.summarizer.Summarize(ctx, truncateRunes(text, aiInputMaxLength), aiSummaryMaxTokens, aiSummaryMinTokens)
	if err != nil {
		return "", &Error{Strategy: strategy, Err: err}
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", &Error{Strategy: strategy, Err: fmt.Errorf("empty summary")}
	}

	return summary, nil
}

// simpleSummary keeps the first two ". "-delimited sentences of the body. A
// body without a sentence break is cut to simpleTruncateLength runes.
func simpleSummary(article *feed.Article) string {
	text := bodyOrTitle(article)
	if text == "" {
		return ""
	}

	if sentences := strings.Split(text, ". "); len(sentences) >= 2 {
		return sentences[0] + ". " + sentences[1] + "."
	}

	if utf8.RuneCountInString(text) > simpleTruncateLength {
		return truncateRunes(text, simpleTruncateLength) + "..."
	}
	return text + "."
}

func bodyOrTitle(article *feed.Article) string {
	if article.Text != "" {
		return article.Text
	}
	return article.Title
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
