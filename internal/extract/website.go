package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/utils/markdown"
)

const (
	maxMainContentChars = 10000
	maxPageImages       = 10
)

// mainContentSelectors are tried in order when readability finds nothing.
var mainContentSelectors = []string{
	"article",
	`[class*="recipe"]`,
	`[class*="content"]`,
	"main",
	".post-content",
	".entry-content",
}

// WebsiteExtractor scrapes a recipe page: its embedded schema.org Recipe,
// OpenGraph metadata and readable main content.
type WebsiteExtractor struct {
	HTTP *http.Client
}

func (w *WebsiteExtractor) Extract(ctx context.Context, in source.Info) (*RawContent, error) {
	body, pageURL, err := fetchPage(ctx, w.HTTP, in.URL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, extractionErr(source.Website, nil, "Failed to fetch website: %d", se.StatusCode)
		}
		return nil, extractionErr(source.Website, err, "Failed to parse website content")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, extractionErr(source.Website, err, "Failed to parse website content")
	}

	title := metaContent(doc, "og:title")
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	description := metaContent(doc, "og:description")
	if description == "" {
		description = metaContent(doc, "description")
	}

	raw := &RawContent{
		URL:         in.URL,
		Title:       markdown.StripHTML(title),
		Description: markdown.StripHTML(description),
		Schema:      findRecipeSchema(doc),
	}

	ogImage := absoluteURL(pageURL, metaContent(doc, "og:image"))
	images := pageImages(doc, pageURL)

	// The synthesizer looks at these in order; the first one is the thumbnail.
	if raw.Schema != nil && len(raw.Schema.Images) > 0 {
		raw.ImageURLs = append(raw.ImageURLs, absoluteURL(pageURL, raw.Schema.Images[0]))
	}
	if ogImage != "" {
		raw.ImageURLs = append(raw.ImageURLs, ogImage)
	}
	if len(images) > 0 {
		raw.ImageURLs = append(raw.ImageURLs, images[0])
	}
	if len(raw.ImageURLs) > 0 {
		raw.ThumbnailURL = raw.ImageURLs[0]
	}
	if raw.Schema != nil {
		raw.AuthorName = raw.Schema.Author
	}

	raw.MainContent = mainContent(body, doc, pageURL)

	slog.Info("Extracted website content",
		"url", in.URL,
		"has_schema", raw.Schema != nil,
		"content_chars", len(raw.MainContent),
	)
	return raw, nil
}

// mainContent prefers readability's article converted to markdown and falls
// back to the text of the first matching content container.
func mainContent(body []byte, doc *goquery.Document, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		domain := ""
		if pageURL != nil {
			domain = pageURL.Scheme + "://" + pageURL.Host
		}
		if out, err := markdown.FromHTML(article.Content, domain); err == nil && out != "" {
			return truncateRunes(out, maxMainContentChars)
		}
	}

	doc.Find("script, style, nav, header, footer, aside, .ads, .advertisement").Remove()
	for _, sel := range mainContentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return truncateRunes(collapseSpace(s.Text()), maxMainContentChars)
		}
	}
	return truncateRunes(collapseSpace(doc.Find("body").Text()), maxMainContentChars)
}

func pageImages(doc *goquery.Document, pageURL *url.URL) []string {
	var out []string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
				if abs := absoluteURL(pageURL, v); strings.HasPrefix(abs, "http") {
					out = append(out, abs)
				}
				break
			}
		}
		return len(out) < maxPageImages
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
