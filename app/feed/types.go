package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Entry is a single feed item as the parser saw it, before normalization.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	SourceTitle string // <source> element of the item, if any
	Categories  []string
}

type Article struct {
	Title          string     `json:"title"`
	Source         string     `json:"source"`
	URL            string     `json:"url"`
	Published      *time.Time `json:"published"`
	Summary        string     `json:"summary"`
	Text           string     `json:"text"`
	Tags           []string   `json:"tags"`
	RelevanceScore int        `json:"relevance_score"`
}

// Source catalog types

type Source struct {
	Name          string `yaml:"name" json:"name"`
	URLTemplate   string `yaml:"url_template" json:"url_template"`
	SupportsQuery bool   `yaml:"supports_query" json:"supports_query"`
	Priority      int    `yaml:"priority" json:"priority"`
	Active        bool   `yaml:"active" json:"is_active"`
}

// URLSet tracks article URLs already accepted during one crawl.
type URLSet map[string]struct{}

// Add inserts url and reports whether it was not yet present.
func (s URLSet) Add(url string) bool {
	if _, ok := s[url]; ok {
		return false
	}
	s[url] = struct{}{}
	return true
}
