package crawl

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Request describes one crawl. It is not modified once built.
type Request struct {
	Query       string     `json:"query"`
	Since       *time.Time `json:"since,omitempty"`
	Limit       int        `json:"limit"`
	CustomFeeds []string   `json:"custom_feeds,omitempty"`
}

// NewRequest validates crawl parameters. A zero limit selects DefaultLimit.
func NewRequest(query, since string, limit int, customFeeds []string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}

	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return Request{}, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}

	sinceTime, err := ParseSince(since)
	if err != nil {
		return Request{}, err
	}

	feeds := make([]string, 0, len(customFeeds))
	for _, feedURL := range customFeeds {
		if feedURL = strings.TrimSpace(feedURL); feedURL != "" {
			feeds = append(feeds, feedURL)
		}
	}

	return Request{
		Query:       query,
		Since:       sinceTime,
		Limit:       limit,
		CustomFeeds: feeds,
	}, nil
}

// ParseSince parses a date or date-time in any common layout. Values without
// a zone are taken as UTC; a bare date means midnight.
func ParseSince(since string) (*time.Time, error) {
	since = strings.TrimSpace(since)
	if since == "" {
		return nil, nil
	}

	t, err := dateparse.ParseIn(since, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid since date %q: %w", since, err)
	}

	t = t.UTC()
	return &t, nil
}
