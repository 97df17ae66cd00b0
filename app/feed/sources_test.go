package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSourceFile(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sources:
  - name: "Static"
    url_template: "https://static.example.com/rss"
    priority: 2
    active: true
  - name: "Search"
    url_template: "https://search.example.com/rss?q={query}"
    supports_query: true
    priority: 1
    active: true
  - name: "Disabled"
    url_template: "https://disabled.example.com/rss"
    priority: 0
    active: false
`

	path := filepath.Join(tempDir, "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadSourceFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if catalog.Count() != 3 {
		t.Errorf("Expected 3 sources, got %d", catalog.Count())
	}

	active, err := catalog.ActiveSources(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(active) != 2 {
		t.Fatalf("Expected 2 active sources, got %d", len(active))
	}
	if active[0].Name != "Search" {
		t.Errorf("Expected 'Search' first by priority, got '%s'", active[0].Name)
	}
	if !active[0].SupportsQuery {
		t.Error("Expected 'Search' to support queries")
	}

	all := catalog.Sources()
	if len(all) != 3 || all[2].Name != "Disabled" || all[2].Active {
		t.Errorf("Expected all sources in file order, got %+v", all)
	}
}

func TestLoadSourceFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name: "missing url",
			content: `
sources:
  - name: "No URL"
    active: true
`,
			errText: "URL template is required",
		},
		{
			name: "query without placeholder",
			content: `
sources:
  - name: "Search"
    url_template: "https://search.example.com/rss"
    supports_query: true
`,
			errText: "placeholder",
		},
		{
			name:    "bad yaml",
			content: "sources: [",
			errText: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := LoadSourceFile(path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestLoadSourceFileMissing(t *testing.T) {
	if _, err := LoadSourceFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()

	if len(sources) != 5 {
		t.Fatalf("Expected 5 default sources, got %d", len(sources))
	}

	for _, source := range sources {
		if err := ValidateSource(source); err != nil {
			t.Errorf("Default source %s is invalid: %v", source.Name, err)
		}
	}

	feeds := ResolveFeeds(sources, "ai", nil)
	if len(feeds) != 5 {
		t.Fatalf("Expected 5 feeds, got %d", len(feeds))
	}
	if feeds[0] != "https://www.bing.com/news/search?q=ai&format=rss" {
		t.Errorf("Expected Bing first, got %s", feeds[0])
	}
}
