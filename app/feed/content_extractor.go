package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

// ExtractionError means neither extraction stage produced any text.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no content extracted from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("no content extracted from %s", e.URL)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

const (
	minParagraphLength = 25
	minMainTextLength  = 100
)

const boilerplateSelector = "head, script, style, noscript, template, iframe, form, aside, nav, header, footer, " +
	"[class*='social'], [class*='share'], [class*='comment'], [id*='comment'], " +
	"[class*='advert'], [class*='promo'], [class*='newsletter'], [class*='related']"

var mainContentSelectors = []string{
	"[itemprop='articleBody']",
	"article",
	".article-body",
	".article-content",
	".story-body",
	".entry-content",
	".post-content",
	"main",
	"#content",
	".content",
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run extracts the readable body text of an article page. The boilerplate
// stripping pass is tried first; readability scoring is the fallback.
func (e *ContentExtractor) Run(data []byte, pageURL *url.URL) (string, error) {
	rawURL := ""
	if pageURL != nil {
		rawURL = pageURL.String()
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return "", &ExtractionError{URL: rawURL, Err: fmt.Errorf("HTML data is empty")}
	}

	if text := CleanText(e.extractMainContent(data)); text != "" {
		slog.Debug("Content extracted from main content block",
			"url", rawURL,
			"content_length", len(text))
		return text, nil
	}

	text, err := e.extractReadability(data, pageURL)
	if err != nil {
		return "", &ExtractionError{URL: rawURL, Err: err}
	}

	text = CleanText(text)
	if text == "" {
		return "", &ExtractionError{URL: rawURL}
	}

	slog.Debug("Content extracted with readability fallback",
		"url", rawURL,
		"content_length", len(text))

	return text, nil
}

func (e *ContentExtractor) extractMainContent(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	doc.Find(boilerplateSelector).Remove()

	for _, selector := range mainContentSelectors {
		var paragraphs []string
		length := 0

		doc.Find(selector).First().Find("p").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) >= minParagraphLength {
				paragraphs = append(paragraphs, text)
				length += len(text)
			}
		})

		if length >= minMainTextLength {
			return strings.Join(paragraphs, "\n\n")
		}
	}

	return ""
}

func (e *ContentExtractor) extractReadability(data []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability failed: %w", err)
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return "", fmt.Errorf("failed to render article text: %w", err)
	}

	return buf.String(), nil
}
