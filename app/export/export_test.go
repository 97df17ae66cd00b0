package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/news-crawl/app/feed"
)

func sampleArticles() []feed.Article {
	published := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	return []feed.Article{
		{
			Title:          "Nvidia beats estimates & more",
			Source:         "Reuters",
			URL:            "https://example.com/nvidia?a=1&b=2",
			Published:      &published,
			Summary:        "Chipmaker reports record quarter.",
			Text:           "Full body with ]]> inside and ünïcödé.",
			Tags:           []string{"Markets", "Tech"},
			RelevanceScore: 83,
		},
		{
			Title: "Undated story",
			URL:   "https://example.com/undated",
		},
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, sampleArticles()); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(&buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	if !strings.Contains(lines[0], "ünïcödé") {
		t.Error("Expected non-ASCII text to be written unescaped")
	}
	if !strings.Contains(lines[0], "&") || strings.Contains(lines[0], `\u0026`) {
		t.Error("Expected ampersands to be written unescaped")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["published"] != nil {
		t.Errorf("Expected null published, got %v", decoded["published"])
	}
	for _, key := range []string{"title", "source", "url", "published", "summary", "text", "tags"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in output", key)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleArticles()); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(records))
	}

	if strings.Join(records[0], ",") != "title,source,url,published,summary,text,tags" {
		t.Errorf("Unexpected header: %v", records[0])
	}

	first := records[1]
	if first[3] != "2024-03-15T08:30:00Z" {
		t.Errorf("Expected RFC 3339 published, got %q", first[3])
	}
	if first[6] != `["Markets","Tech"]` {
		t.Errorf("Expected JSON tags, got %q", first[6])
	}

	second := records[2]
	if second[3] != "" || second[6] != "[]" {
		t.Errorf("Expected empty published and tags, got %q %q", second[3], second[6])
	}
}

func TestSaveFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	written, err := SaveFiles(dir, sampleArticles())
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("Expected 2 files, got %v", written)
	}

	for _, name := range []string{JSONLFile, CSVFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}

func TestSaveFilesWithoutArticlesSkipsCSV(t *testing.T) {
	dir := t.TempDir()

	written, err := SaveFiles(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 {
		t.Errorf("Expected only the JSONL file, got %v", written)
	}

	if _, err := os.Stat(filepath.Join(dir, CSVFile)); !os.IsNotExist(err) {
		t.Error("Expected no CSV file for an empty crawl")
	}

	data, err := os.ReadFile(filepath.Join(dir, JSONLFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty JSONL, got %q", data)
	}
}

func TestRSSGenerator(t *testing.T) {
	builtAt := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	channel := Channel{
		Title:       "News: nvidia",
		Link:        "https://news.example.com",
		Description: "Articles for nvidia",
		SelfLink:    "https://news.example.com/tasks/1/feed?x=1&y=2",
		Generator:   "News-Crawl/test",
		BuiltAt:     builtAt,
	}

	rss, err := NewRSSGenerator().Run(channel, sampleArticles())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	checks := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0"`,
		"<title>News: nvidia</title>",
		`<atom:link href="https://news.example.com/tasks/1/feed?x=1&amp;y=2" rel="self"`,
		"<lastBuildDate>" + builtAt.Format(time.RFC1123Z) + "</lastBuildDate>",
		"<generator>News-Crawl/test</generator>",
		"<title>Nvidia beats estimates &amp; more</title>",
		`<guid isPermaLink="true">https://example.com/nvidia?a=1&amp;b=2</guid>`,
		"<description>Chipmaker reports record quarter.</description>",
		"<content:encoded><![CDATA[Full body with ]]]]><![CDATA[> inside",
		"<pubDate>Fri, 15 Mar 2024 08:30:00 +0000</pubDate>",
		"<source>Reuters</source>",
		"<category>Markets</category>",
		"<category>Tech</category>",
		"<title>Undated story</title>",
	}

	for _, check := range checks {
		if !strings.Contains(rss, check) {
			t.Errorf("RSS should contain %q", check)
		}
	}

	if strings.Count(rss, "<item>") != 2 {
		t.Errorf("Expected 2 items, got %d", strings.Count(rss, "<item>"))
	}
	if strings.Count(rss, "<pubDate>") != 1 {
		t.Error("Expected undated article to have no pubDate")
	}
}
