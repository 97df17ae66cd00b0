package feed

import (
	"slices"
	"testing"
)

func TestResolveFeedsSubstitutesQuery(t *testing.T) {
	sources := []Source{
		{Name: "Example", URLTemplate: "https://example.com/rss?q={query}", SupportsQuery: true, Priority: 1, Active: true},
	}

	got := ResolveFeeds(sources, "ai", nil)
	want := []string{"https://example.com/rss?q=ai"}

	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestResolveFeedsEscapesQuery(t *testing.T) {
	sources := []Source{
		{Name: "Search", URLTemplate: "https://example.com/rss?q={query}&hl=en", SupportsQuery: true, Priority: 1, Active: true},
		{Name: "Path", URLTemplate: "https://example.com/search/{query}/rss", SupportsQuery: true, Priority: 2, Active: true},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"AT&T", []string{"https://example.com/rss?q=AT%26T&hl=en", "https://example.com/search/AT&T/rss"}},
		{"c#", []string{"https://example.com/rss?q=c%23&hl=en", "https://example.com/search/c%23/rss"}},
		{"interest rates", []string{"https://example.com/rss?q=interest+rates&hl=en", "https://example.com/search/interest%20rates/rss"}},
	}

	for _, tt := range tests {
		if got := ResolveFeeds(sources, tt.query, nil); !slices.Equal(got, tt.want) {
			t.Errorf("ResolveFeeds(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestResolveFeedsOrdersQueryFeedsFirst(t *testing.T) {
	sources := []Source{
		{Name: "Static A", URLTemplate: "https://a.example.com/rss", Priority: 1, Active: true},
		{Name: "Query B", URLTemplate: "https://b.example.com/rss?q={query}", SupportsQuery: true, Priority: 5, Active: true},
		{Name: "Inactive", URLTemplate: "https://c.example.com/rss", Priority: 0, Active: false},
		{Name: "Query D", URLTemplate: "https://d.example.com/search/{query}", SupportsQuery: true, Priority: 2, Active: true},
		{Name: "Static E", URLTemplate: "https://e.example.com/rss", Priority: 0, Active: true},
	}

	got := ResolveFeeds(sources, "nvidia", nil)
	want := []string{
		"https://d.example.com/search/nvidia",
		"https://b.example.com/rss?q=nvidia",
		"https://e.example.com/rss",
		"https://a.example.com/rss",
	}

	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestResolveFeedsSkipsQuerySourceWithoutPlaceholder(t *testing.T) {
	sources := []Source{
		{Name: "Broken", URLTemplate: "https://example.com/rss", SupportsQuery: true, Priority: 1, Active: true},
	}

	if got := ResolveFeeds(sources, "ai", nil); len(got) != 0 {
		t.Errorf("Expected no feeds, got %v", got)
	}
}

func TestResolveFeedsCustomFeedsReplaceCatalog(t *testing.T) {
	sources := DefaultSources()
	custom := []string{
		"https://custom.example.com/feed.xml",
		"https://search.example.com/rss?q={query}",
	}

	got := ResolveFeeds(sources, "rates", custom)
	want := []string{
		"https://search.example.com/rss?q=rates",
		"https://custom.example.com/feed.xml",
	}

	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestResolveFeedsEmptyCatalog(t *testing.T) {
	if got := ResolveFeeds(nil, "ai", nil); len(got) != 0 {
		t.Errorf("Expected no feeds, got %v", got)
	}
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		feedURL string
		want    string
	}{
		{"https://www.bing.com/news/search?q=ai&format=rss", "Bing News"},
		{"https://news.google.com/rss/search?q=ai", "Google News"},
		{"https://feeds.a.dj.com/rss/RSSMarketsMain.xml", "Wall Street Journal"},
		{"https://www.reuters.com/markets/rss", "Reuters"},
		{"https://www.nasdaq.com/feed/rssoutbound?category=markets", "Nasdaq"},
		{"https://Blog.Example.com/feed", "blog.example.com"},
	}

	for _, tt := range tests {
		if got := SourceName(tt.feedURL); got != tt.want {
			t.Errorf("SourceName(%q) = %q, want %q", tt.feedURL, got, tt.want)
		}
	}
}
