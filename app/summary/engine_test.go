package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/news-crawl/app/feed"
)

type mockSummarizer struct {
	result string
	err    error
	calls  int
	input  string
}

func (m *mockSummarizer) Summarize(_ context.Context, text string, maxLength, minLength int) (string, error) {
	m.calls++
	m.input = text
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

func newTestEngine(strategy Strategy, summarizer Summarizer) *Engine {
	return NewEngine(NewMemoryStore(strategy), summarizer, nil)
}

func TestSimpleStrategyFirstTwoSentences(t *testing.T) {
	engine := newTestEngine(StrategySimple, nil)
	article := &feed.Article{Text: "Hello world. This is news. More text."}

	got := engine.Generate(context.Background(), article, false)

	if got != "Hello world. This is news." {
		t.Errorf("Expected 'Hello world. This is news.', got %q", got)
	}
}

func TestSimpleStrategySingleSentence(t *testing.T) {
	engine := newTestEngine(StrategySimple, nil)
	article := &feed.Article{Title: "Markets close higher"}

	if got := engine.Generate(context.Background(), article, false); got != "Markets close higher." {
		t.Errorf("Expected title with period, got %q", got)
	}
}

func TestSimpleStrategyTruncatesLongSentence(t *testing.T) {
	engine := newTestEngine(StrategySimple, nil)
	article := &feed.Article{Text: strings.Repeat("word ", 60)}

	got := engine.Generate(context.Background(), article, false)

	want := strings.Repeat("word ", 40) + "..."
	if got != want {
		t.Errorf("Expected %d-rune cut with ellipsis, got %q", simpleTruncateLength, got)
	}
}

func TestSimpleStrategyEmpty(t *testing.T) {
	engine := newTestEngine(StrategySimple, nil)

	if got := engine.Generate(context.Background(), &feed.Article{}, false); got != "" {
		t.Errorf("Expected empty summary, got %q", got)
	}
	if engine.CacheSize() != 0 {
		t.Errorf("Expected empty summary not to be cached, cache size %d", engine.CacheSize())
	}
}

func TestRSSFirstKeepsExistingSummary(t *testing.T) {
	engine := newTestEngine(StrategyRSSFirst, nil)
	article := &feed.Article{Summary: "short", Text: "Body one. Body two. Body three."}

	if got := engine.Generate(context.Background(), article, false); got != "short" {
		t.Errorf("Expected existing summary, got %q", got)
	}
}

func TestRSSFirstForcedShortSummaryFallsBackToSimple(t *testing.T) {
	engine := newTestEngine(StrategyRSSFirst, nil)
	article := &feed.Article{Summary: "too short", Text: "Body one. Body two. Body three."}

	if got := engine.Generate(context.Background(), article, true); got != "Body one. Body two." {
		t.Errorf("Expected simple summary, got %q", got)
	}

	article.Summary = "A feed summary that is long enough"
	if got := engine.Generate(context.Background(), article, true); got != article.Summary {
		t.Errorf("Expected RSS summary, got %q", got)
	}
}

func TestAIStrategiesWithoutSummarizerMatchSimple(t *testing.T) {
	article := &feed.Article{
		Title: "Rates",
		Text:  strings.Repeat("The central bank held rates steady again. ", 10),
	}
	simple := newTestEngine(StrategySimple, nil).Generate(context.Background(), article, true)

	for _, strategy := range []Strategy{StrategyAIGenerated, StrategyHybrid} {
		engine := newTestEngine(strategy, nil)
		if got := engine.Generate(context.Background(), article, true); got != simple {
			t.Errorf("%s: expected simple summary %q, got %q", strategy, simple, got)
		}
	}
}

func TestAIGeneratedUsesSummarizer(t *testing.T) {
	summarizer := &mockSummarizer{result: "  AI summary.  "}
	engine := newTestEngine(StrategyAIGenerated, summarizer)
	article := &feed.Article{Text: strings.Repeat("x", 2000)}

	got := engine.Generate(context.Background(), article, false)

	if got != "AI summary." {
		t.Errorf("Expected trimmed AI summary, got %q", got)
	}
	if len(summarizer.input) != aiInputMaxLength {
		t.Errorf("Expected input truncated to %d, got %d", aiInputMaxLength, len(summarizer.input))
	}
}

func TestAIGeneratedShortTextUsesSimple(t *testing.T) {
	summarizer := &mockSummarizer{result: "AI summary."}
	engine := newTestEngine(StrategyAIGenerated, summarizer)
	article := &feed.Article{Text: "Short body. Still short."}

	if got := engine.Generate(context.Background(), article, false); got != "Short body. Still short.." {
		t.Errorf("Expected simple summary, got %q", got)
	}
	if summarizer.calls != 0 {
		t.Errorf("Expected summarizer not to be called, got %d calls", summarizer.calls)
	}
}

func TestAIGeneratedFailureFallsBackToSimple(t *testing.T) {
	summarizer := &mockSummarizer{err: errors.New("quota exceeded")}
	engine := newTestEngine(StrategyAIGenerated, summarizer)
	article := &feed.Article{Text: "First sentence here. Second sentence here. " + strings.Repeat("More. ", 20)}

	if got := engine.Generate(context.Background(), article, false); got != "First sentence here. Second sentence here." {
		t.Errorf("Expected simple fallback, got %q", got)
	}
}

func TestAIGeneratedKeepsLongExistingSummary(t *testing.T) {
	summarizer := &mockSummarizer{result: "new"}
	engine := newTestEngine(StrategyAIGenerated, summarizer)
	long := strings.Repeat("s", 201)

	if got := engine.Generate(context.Background(), &feed.Article{Summary: long, Text: strings.Repeat("t", 100)}, false); got != long {
		t.Error("Expected long existing summary to be kept")
	}
	if summarizer.calls != 0 {
		t.Errorf("Expected summarizer not to be called, got %d calls", summarizer.calls)
	}

	got := engine.Generate(context.Background(), &feed.Article{Summary: "short", Text: strings.Repeat("t", 100)}, false)
	if got != "new" {
		t.Errorf("Expected regenerated summary, got %q", got)
	}
}

func TestHybridStrategy(t *testing.T) {
	summarizer := &mockSummarizer{result: "hybrid AI"}
	engine := newTestEngine(StrategyHybrid, summarizer)
	ctx := context.Background()

	rss := strings.Repeat("r", 51)
	if got := engine.Generate(ctx, &feed.Article{Summary: rss, Text: "a"}, false); got != rss {
		t.Errorf("Expected RSS summary, got %q", got)
	}

	if got := engine.Generate(ctx, &feed.Article{Text: strings.Repeat("b", 101)}, false); got != "hybrid AI" {
		t.Errorf("Expected AI summary, got %q", got)
	}

	if got := engine.Generate(ctx, &feed.Article{Text: "Tiny body. Two."}, false); got != "Tiny body. Two.." {
		t.Errorf("Expected simple summary for short body, got %q", got)
	}
}

func TestGenerateIsCached(t *testing.T) {
	summarizer := &mockSummarizer{result: "first"}
	engine := newTestEngine(StrategyAIGenerated, summarizer)
	article := &feed.Article{Text: strings.Repeat("cached body ", 20)}

	first := engine.Generate(context.Background(), article, false)
	summarizer.result = "second"
	second := engine.Generate(context.Background(), article, false)

	if first != second {
		t.Errorf("Expected identical cached summaries, got %q and %q", first, second)
	}
	if summarizer.calls != 1 {
		t.Errorf("Expected 1 summarizer call, got %d", summarizer.calls)
	}

	forced := engine.Generate(context.Background(), article, true)
	if forced != "second" {
		t.Errorf("Expected forced regeneration to bypass cache, got %q", forced)
	}
}

func TestCacheKeyDependsOnStrategy(t *testing.T) {
	if CacheKey("text", StrategySimple) == CacheKey("text", StrategyHybrid) {
		t.Error("Expected different keys for different strategies")
	}
	if CacheKey("text", StrategySimple) != CacheKey("text", StrategySimple) {
		t.Error("Expected stable keys")
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("k", "v")
	if v, ok := cache.Get("k"); !ok || v != "v" {
		t.Fatalf("Expected cached value, got %q %v", v, ok)
	}

	now = now.Add(time.Hour)
	if _, ok := cache.Get("k"); ok {
		t.Error("Expected entry to expire")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry to be evicted, len %d", cache.Len())
	}
}

func TestParseStrategy(t *testing.T) {
	for _, strategy := range Strategies {
		got, err := ParseStrategy(strings.ToUpper(string(strategy)))
		if err != nil || got != strategy {
			t.Errorf("ParseStrategy(%q) = %q, %v", strategy, got, err)
		}
	}

	if _, err := ParseStrategy("bart"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

type failingStore struct{}

func (failingStore) GetStrategy(context.Context) (Strategy, error) {
	return "", errors.New("db down")
}

func (failingStore) SetStrategy(context.Context, Strategy) error {
	return errors.New("db down")
}

func TestEngineStrategyFallsBackToDefault(t *testing.T) {
	engine := NewEngine(failingStore{}, nil, nil)

	if got := engine.Strategy(context.Background()); got != DefaultStrategy {
		t.Errorf("Expected default strategy, got %s", got)
	}
	if err := engine.SetStrategy(context.Background(), "bogus"); err == nil {
		t.Error("Expected error for invalid strategy")
	}
}
