package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSources is the built-in catalog used when no source file is given
// and to seed an empty database.
func DefaultSources() []Source {
	return []Source{
		{Name: "Bing News", URLTemplate: "https://www.bing.com/news/search?q={query}&format=rss", SupportsQuery: true, Priority: 1, Active: true},
		{Name: "Google News", URLTemplate: "https://news.google.com/rss/search?q={query}", SupportsQuery: true, Priority: 2, Active: true},
		{Name: "Wall Street Journal", URLTemplate: "https://feeds.a.dj.com/rss/RSSMarketsMain.xml", Priority: 3, Active: true},
		{Name: "Reuters", URLTemplate: "https://www.reuters.com/markets/rss", Priority: 4, Active: true},
		{Name: "Nasdaq", URLTemplate: "https://www.nasdaq.com/feed/rssoutbound?category=markets", Priority: 5, Active: true},
	}
}

var ErrInvalidSource = errors.New("invalid source")

type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// SourceCatalog is a read-only in-memory source catalog, optionally loaded
// from a YAML file.
type SourceCatalog struct {
	sources []Source
}

func NewSourceCatalog(sources []Source) *SourceCatalog {
	return &SourceCatalog{sources: slices.Clone(sources)}
}

// LoadSourceFile reads a YAML catalog of the form:
//
//	sources:
//	  - name: Example
//	    url_template: https://example.com/rss?q={query}
//	    supports_query: true
//	    priority: 1
//	    active: true
func LoadSourceFile(path string) (*SourceCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file sourceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, source := range file.Sources {
		if err := ValidateSource(source); err != nil {
			return nil, fmt.Errorf("invalid source at index %d in %s: %w", i, path, err)
		}
	}

	slog.Debug("Source catalog loaded", "path", path, "sources", len(file.Sources))

	return NewSourceCatalog(file.Sources), nil
}

// ValidateSource checks the fields every catalog entry needs.
func ValidateSource(source Source) error {
	requiredFields := map[string]string{
		"source name":  source.Name,
		"URL template": source.URLTemplate,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidSource, fieldName)
		}
	}

	if source.Priority < 0 {
		return fmt.Errorf("%w: priority must be non-negative", ErrInvalidSource)
	}

	if source.SupportsQuery && !strings.Contains(source.URLTemplate, QueryPlaceholder) {
		return fmt.Errorf("%w: query source %q has no %s placeholder", ErrInvalidSource, source.Name, QueryPlaceholder)
	}

	return nil
}

// ActiveSources returns the active sources ordered by priority.
func (c *SourceCatalog) ActiveSources(_ context.Context) ([]Source, error) {
	active := make([]Source, 0, len(c.sources))
	for _, source := range c.sources {
		if source.Active {
			active = append(active, source)
		}
	}
	slices.SortStableFunc(active, func(a, b Source) int {
		return a.Priority - b.Priority
	})

	return active, nil
}

// Sources returns every source in file order, inactive ones included.
func (c *SourceCatalog) Sources() []Source {
	return slices.Clone(c.sources)
}

func (c *SourceCatalog) Count() int {
	return len(c.sources)
}
