// Package markdown converts between scraped HTML, markdown and plain text.
package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	bfRenderer   = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{})
	bfExtensions = blackfriday.NoIntraEmphasis | blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.NoEmptyLineBeforeBlock
	strict       = bluemonday.StrictPolicy()
	whitespace   = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines   = regexp.MustCompile(`\n\s*\n+`)
)

// PlainText renders markdown and strips the markup, leaving readable text.
// Model output often decorates steps with emphasis or list markers.
func PlainText(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	out := blackfriday.Run([]byte(source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
	return StripHTML(string(out))
}

// StripHTML removes markup from scraped text, decodes entities and collapses
// runs of whitespace. Paragraph breaks survive as a single blank line.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(strict.Sanitize(s))
	text = whitespace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FromHTML converts an HTML fragment into markdown. Relative links are
// resolved against domain when it is set.
func FromHTML(fragment, domain string) (string, error) {
	converter := md.NewConverter(domain, true, nil)
	out, err := converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}
