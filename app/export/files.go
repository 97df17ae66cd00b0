package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/news-crawl/app/feed"
)

const (
	JSONLFile = "news.jsonl"
	CSVFile   = "news.csv"
)

var csvHeader = []string{"title", "source", "url", "published", "summary", "text", "tags"}

// WriteJSONL writes one JSON object per article per line. Non-ASCII text is
// written as is.
func WriteJSONL(w io.Writer, articles []feed.Article) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, article := range articles {
		if err := enc.Encode(article); err != nil {
			return fmt.Errorf("failed to encode article %s: %w", article.URL, err)
		}
	}

	return nil
}

// WriteCSV writes a header row and one row per article. Published is
// RFC 3339 or empty; tags are a JSON array.
func WriteCSV(w io.Writer, articles []feed.Article) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, article := range articles {
		var published string
		if article.Published != nil {
			published = article.Published.Format(time.RFC3339)
		}

		tags := article.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for %s: %w", article.URL, err)
		}

		record := []string{
			article.Title,
			article.Source,
			article.URL,
			published,
			article.Summary,
			article.Text,
			string(tagsJSON),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", article.URL, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveFiles writes news.jsonl and, when there are articles, news.csv into
// dir, creating it if needed. It returns the paths written.
func SaveFiles(dir string, articles []feed.Article) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string

	jsonlPath := filepath.Join(dir, JSONLFile)
	if err := writeFile(jsonlPath, articles, WriteJSONL); err != nil {
		return written, err
	}
	written = append(written, jsonlPath)
	slog.Info("Saved articles", "count", len(articles), "path", jsonlPath)

	if len(articles) == 0 {
		return written, nil
	}

	csvPath := filepath.Join(dir, CSVFile)
	if err := writeFile(csvPath, articles, WriteCSV); err != nil {
		return written, err
	}
	written = append(written, csvPath)
	slog.Info("Saved articles", "count", len(articles), "path", csvPath)

	return written, nil
}

func writeFile(path string, articles []feed.Article, write func(io.Writer, []feed.Article) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f, articles); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
