package feed

import (
	"log/slog"
	"net/url"
	"slices"
	"strings"
)

const QueryPlaceholder = "{query}"

// ResolveFeeds turns the source catalog (or a custom feed list, which replaces
// it) into the concrete feed URLs to fetch for query. The raw query is escaped
// for the part of the URL the placeholder sits in. Query-capable feeds come
// first, each group ordered by source priority.
func ResolveFeeds(sources []Source, query string, customFeeds []string) []string {
	if len(customFeeds) > 0 {
		sources = make([]Source, 0, len(customFeeds))
		for i, feedURL := range customFeeds {
			sources = append(sources, Source{
				Name:          feedURL,
				URLTemplate:   feedURL,
				SupportsQuery: strings.Contains(feedURL, QueryPlaceholder),
				Priority:      i,
				Active:        true,
			})
		}
	}

	active := make([]Source, 0, len(sources))
	for _, source := range sources {
		if source.Active {
			active = append(active, source)
		}
	}
	slices.SortStableFunc(active, func(a, b Source) int {
		return a.Priority - b.Priority
	})

	queryFeeds := make([]string, 0, len(active))
	staticFeeds := make([]string, 0, len(active))
	for _, source := range active {
		switch {
		case !source.SupportsQuery:
			staticFeeds = append(staticFeeds, source.URLTemplate)
		case strings.Contains(source.URLTemplate, QueryPlaceholder):
			queryFeeds = append(queryFeeds, substituteQuery(source.URLTemplate, query))
		default:
			slog.Warn("Skipping query source without placeholder",
				"source", source.Name,
				"url_template", source.URLTemplate)
		}
	}

	return append(queryFeeds, staticFeeds...)
}

// substituteQuery fills the placeholder, query-escaping it after the "?" and
// path-escaping it before.
func substituteQuery(template, query string) string {
	escaped := url.PathEscape(query)
	if q := strings.IndexByte(template, '?'); q >= 0 && q < strings.Index(template, QueryPlaceholder) {
		escaped = url.QueryEscape(query)
	}
	return strings.ReplaceAll(template, QueryPlaceholder, escaped)
}

var knownSourceHosts = map[string]string{
	"www.bing.com":    "Bing News",
	"news.google.com": "Google News",
	"feeds.a.dj.com":  "Wall Street Journal",
	"www.reuters.com": "Reuters",
	"www.nasdaq.com":  "Nasdaq",
}

// SourceName maps a feed URL to a display name, falling back to the host.
func SourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if name, ok := knownSourceHosts[host]; ok {
		return name
	}
	return host
}
