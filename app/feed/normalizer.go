package feed

import (
	"log/slog"
	"strings"
	"time"
)

// Normalizer turns parsed feed entries into candidate articles for a single
// crawl. It shares its seen-URL set and accepted count across every feed of
// that crawl, so it must not be used from more than one goroutine.
type Normalizer struct {
	queryWords map[string]struct{}
	since      *time.Time
	limit      int
	seen       URLSet
	accepted   int
}

func NewNormalizer(query string, since *time.Time, limit int, seen URLSet) *Normalizer {
	if seen == nil {
		seen = make(URLSet)
	}
	return &Normalizer{
		queryWords: QueryWords(query),
		since:      since,
		limit:      limit,
		seen:       seen,
	}
}

// Run normalizes entries fetched from feedURL, stopping as soon as the crawl
// limit of accepted articles is reached.
func (n *Normalizer) Run(entries []Entry, feedURL string) []Article {
	articles := make([]Article, 0, len(entries))
	rejected := 0

	for _, entry := range entries {
		if n.Full() {
			break
		}

		article, ok := n.normalizeEntry(entry, feedURL)
		if !ok {
			rejected++
			continue
		}

		n.accepted++
		articles = append(articles, article)
	}

	slog.Debug("Feed entries normalized",
		"feed_url", feedURL,
		"entries", len(entries),
		"accepted", len(articles),
		"rejected", rejected)

	return articles
}

// Full reports whether the crawl limit has been reached.
func (n *Normalizer) Full() bool {
	return n.limit > 0 && n.accepted >= n.limit
}

func (n *Normalizer) Accepted() int {
	return n.accepted
}

func (n *Normalizer) normalizeEntry(entry Entry, feedURL string) (Article, bool) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	summary := strings.TrimSpace(entry.Description)

	if title == "" || link == "" {
		return Article{}, false
	}

	// A URL counts as seen even if a later filter rejects it.
	if !n.seen.Add(link) {
		return Article{}, false
	}

	published := entry.PublishedAt
	if published == nil {
		published = entry.UpdatedAt
	}
	if published != nil {
		utc := published.UTC()
		published = &utc
	}

	if n.since != nil && published != nil && published.Before(*n.since) {
		return Article{}, false
	}

	source := strings.TrimSpace(entry.SourceTitle)
	if source == "" {
		source = SourceName(feedURL)
	}

	summary = CleanText(StripTags(summary))

	if !IsRelevant(title, summary, n.queryWords) {
		return Article{}, false
	}

	return Article{
		Title:     title,
		Source:    source,
		URL:       link,
		Published: published,
		Summary:   summary,
		Tags:      extractTags(entry),
	}, true
}

func extractTags(entry Entry) []string {
	tags := make([]string, 0, len(entry.Categories))
	for _, category := range entry.Categories {
		if category = strings.TrimSpace(category); category != "" {
			tags = append(tags, category)
		}
	}
	return tags
}
