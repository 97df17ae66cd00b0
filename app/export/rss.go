package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/news-crawl/app/feed"
)

// Channel describes the RSS channel wrapping exported articles.
type Channel struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	Generator   string
	BuiltAt     time.Time
}

type RSSGenerator struct{}

func NewRSSGenerator() *RSSGenerator {
	return &RSSGenerator{}
}

func (g *RSSGenerator) Run(channel Channel, articles []feed.Article) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", channel.Title, 4)
	writeElement(&buf, "link", channel.Link, 4)
	writeElement(&buf, "description", channel.Description, 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := channel.BuiltAt
	if lastBuildDate.IsZero() {
		lastBuildDate = time.Now().In(time.Local)
	}
	writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", channel.Generator, 4)

	for _, article := range articles {
		writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func writeItem(buf *bytes.Buffer, article feed.Article) {
	buf.WriteString("    <item>\n")

	if article.URL != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(article.URL)))
		xmlEscape(buf, article.URL)
		buf.WriteString("</guid>\n")
	}

	writeElement(buf, "title", article.Title, 6)
	writeElement(buf, "link", article.URL, 6)
	writeElement(buf, "description", article.Summary, 6)

	if article.Text != "" && article.Text != article.Summary {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(article.Text, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if article.Published != nil {
		writeElement(buf, "pubDate", article.Published.Format(time.RFC1123Z), 6)
	}

	if article.Source != "" {
		writeElement(buf, "source", article.Source, 6)
	}

	for _, tag := range article.Tags {
		writeElement(buf, "category", tag, 6)
	}

	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xmlEscape(buf, content)
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func xmlEscape(buf *bytes.Buffer, s string) {
	xml.EscapeText(buf, []byte(s))
}
