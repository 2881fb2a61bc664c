package normalize

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// dateLayouts are tried in order by Date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006/01/02",
}

// Date reduces a timestamp to YYYY-MM-DD. Anything that does not parse is
// returned unchanged.
func Date(s string) string {
	v := strings.TrimSpace(s)
	if v == "" {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// Text converts an HTML fragment to plain text. Block elements and <br>
// end a line and blank lines are dropped. Input without markup is
// only trimmed.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithNodes(newline())
	})
	doc.Find("p, li, div, h1, h2, h3, h4, blockquote").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendNodes(newline())
	})
	doc.Find("script, style").Remove()

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}
