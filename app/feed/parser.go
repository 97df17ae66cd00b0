package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

// ParseError is returned when a feed cannot be parsed even after repair.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS, Atom or JSON feed. Malformed XML gets one repair pass
// (bare ampersands and invalid characters). When that still fails, the
// complete items are salvaged one by one; ParseError means nothing was
// recoverable.
func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	metadata, entries, err := p.parse(data)
	if err == nil {
		return metadata, entries, nil
	}

	repaired := repairXML(data)
	if !bytes.Equal(repaired, data) {
		if metadata, entries, retryErr := p.parse(repaired); retryErr == nil {
			slog.Warn("Feed parsed after repairing malformed markup",
				"title", metadata.Title,
				"error", err)
			return metadata, entries, nil
		}
	}

	metadata, entries, dropped := p.salvage(repaired)
	if len(entries) == 0 {
		return nil, nil, &ParseError{Err: err}
	}

	slog.Warn("Feed partially parsed, keeping complete items",
		"title", metadata.Title,
		"entries", len(entries),
		"dropped", dropped,
		"error", err)

	return metadata, entries, nil
}

type envelope struct {
	open      string
	close     string
	itemOpen  string
	itemClose string
}

var (
	rssEnvelope  = envelope{`<rss version="2.0"><channel>`, `</channel></rss>`, "<item", "</item>"}
	atomEnvelope = envelope{`<feed xmlns="http://www.w3.org/2005/Atom">`, `</feed>`, "<entry", "</entry>"}
)

// salvage rebuilds a feed from its channel header and every complete item
// that parses on its own. It reports how many complete items were dropped.
func (p *Parser) salvage(data []byte) (*Metadata, []Entry, int) {
	var env envelope
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		env = rssEnvelope
	case gofeed.FeedTypeAtom:
		env = atomEnvelope
	default:
		return nil, nil, 0
	}

	header, items := splitItems(data, env)
	if len(items) == 0 {
		return nil, nil, 0
	}

	wrap := func(head []byte, items ...[]byte) []byte {
		var buf bytes.Buffer
		buf.Write(head)
		for _, item := range items {
			buf.Write(item)
		}
		buf.WriteString(env.close)
		return buf.Bytes()
	}

	if _, _, err := p.parse(wrap(header)); err != nil {
		header = []byte(env.open)
	}

	kept := make([][]byte, 0, len(items))
	for _, item := range items {
		if _, _, err := p.parse(wrap(header, item)); err == nil {
			kept = append(kept, item)
		}
	}
	dropped := len(items) - len(kept)
	if len(kept) == 0 {
		return nil, nil, dropped
	}

	metadata, entries, err := p.parse(wrap(header, kept...))
	if err != nil {
		return nil, nil, len(items)
	}

	return metadata, entries, dropped
}

// splitItems returns the markup before the first item and each complete
// item element. Self-closing and unterminated items are left out.
func splitItems(data []byte, env envelope) ([]byte, [][]byte) {
	var (
		header []byte
		items  [][]byte
	)

	rest := data
	offset := 0
	for {
		start := indexElement(rest, env.itemOpen)
		if start < 0 {
			break
		}
		if header == nil {
			header = data[:offset+start]
		}

		tagEnd := bytes.IndexByte(rest[start:], '>')
		if tagEnd < 0 {
			break
		}
		if rest[start+tagEnd-1] == '/' {
			rest = rest[start+tagEnd+1:]
			offset += start + tagEnd + 1
			continue
		}

		end := bytes.Index(rest[start:], []byte(env.itemClose))
		if end < 0 {
			break
		}
		end += start + len(env.itemClose)

		items = append(items, rest[start:end])
		rest = rest[end:]
		offset += end
	}

	return header, items
}

// indexElement finds an opening tag by name, ignoring longer names that
// share the prefix (<items>, <entryset>).
func indexElement(data []byte, tag string) int {
	from := 0
	for {
		i := bytes.Index(data[from:], []byte(tag))
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(tag)
		if next < len(data) && strings.IndexByte("> \t\r\n", data[next]) >= 0 {
			return i
		}
		from = next
	}
}

func (p *Parser) parse(data []byte) (*Metadata, []Entry, error) {
	var (
		feed         *gofeed.Feed
		sourceTitles []string
		err          error
	)

	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		feed, sourceTitles, err = p.parseRSS(data)
	case gofeed.FeedTypeAtom:
		feed, sourceTitles, err = p.parseAtom(data)
	default:
		feed, err = p.gofeedParser.Parse(bytes.NewReader(data))
	}
	if err != nil {
		return nil, nil, err
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	entries := make([]Entry, 0, len(feed.Items))
	for i, item := range feed.Items {
		entry := p.normalizeItem(item)
		if i < len(sourceTitles) {
			entry.SourceTitle = sourceTitles[i]
		}
		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

// The universal translator drops the per-item <source> element, so RSS and
// Atom are parsed with the format parsers first to keep it.

func (p *Parser) parseRSS(data []byte) (*gofeed.Feed, []string, error) {
	rssFeed, err := (&rss.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	feed, err := (&gofeed.DefaultRSSTranslator{}).Translate(rssFeed)
	if err != nil {
		return nil, nil, err
	}

	sourceTitles := make([]string, len(rssFeed.Items))
	for i, item := range rssFeed.Items {
		if item != nil && item.Source != nil {
			sourceTitles[i] = item.Source.Title
		}
	}

	return feed, sourceTitles, nil
}

func (p *Parser) parseAtom(data []byte) (*gofeed.Feed, []string, error) {
	atomFeed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	feed, err := (&gofeed.DefaultAtomTranslator{}).Translate(atomFeed)
	if err != nil {
		return nil, nil, err
	}

	sourceTitles := make([]string, len(atomFeed.Entries))
	for i, entry := range atomFeed.Entries {
		if entry != nil && entry.Source != nil {
			sourceTitles[i] = entry.Source.Title
		}
	}

	return feed, sourceTitles, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
		PublishedAt: item.PublishedParsed,
		UpdatedAt:   item.UpdatedParsed,
	}

	for _, category := range item.Categories {
		entry.Categories = append(entry.Categories, strings.TrimSpace(category))
	}

	return entry
}

var entityPattern = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// repairXML escapes ampersands that do not start an entity and drops bytes
// that are not valid in XML 1.0.
func repairXML(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))

	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		switch {
		case r == '&' && !entityPattern.Match(data[i:]):
			buf.WriteString("&amp;")
		case r == utf8.RuneError && size == 1:
		case !isXMLChar(r):
		default:
			buf.Write(data[i : i+size])
		}
		i += size
	}

	return buf.Bytes()
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
