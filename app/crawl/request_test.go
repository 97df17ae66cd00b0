package crawl

import (
	"testing"
	"time"
)

func TestNewRequestDefaults(t *testing.T) {
	req, err := NewRequest("  nvidia  ", "", 0, []string{" https://example.com/rss ", ""})
	if err != nil {
		t.Fatal(err)
	}

	if req.Query != "nvidia" {
		t.Errorf("Expected trimmed query, got %q", req.Query)
	}
	if req.Limit != DefaultLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultLimit, req.Limit)
	}
	if req.Since != nil {
		t.Errorf("Expected no since, got %v", req.Since)
	}
	if len(req.CustomFeeds) != 1 || req.CustomFeeds[0] != "https://example.com/rss" {
		t.Errorf("Expected cleaned custom feeds, got %v", req.CustomFeeds)
	}
}

func TestNewRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		since string
		limit int
	}{
		{"empty query", "   ", "", 10},
		{"negative limit", "ai", "", -1},
		{"limit too high", "ai", "", MaxLimit + 1},
		{"bad since", "ai", "not a date", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRequest(tt.query, tt.since, tt.limit, nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15 08:30:00", time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)},
		{"2024-03-15T08:30:00+02:00", time.Date(2024, 3, 15, 6, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseSince(tt.input)
		if err != nil {
			t.Errorf("ParseSince(%q) returned error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSince(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if got, err := ParseSince(""); got != nil || err != nil {
		t.Errorf("Expected nil for empty since, got %v %v", got, err)
	}
}
