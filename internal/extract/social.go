package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/ytdlp"
)

// pageMeta is the OpenGraph summary of a social post page.
type pageMeta struct {
	Title        string
	Caption      string
	ThumbnailURL string
	AuthorName   string
}

// SocialExtractor handles Instagram and Facebook posts. Media comes from
// yt-dlp and post metadata from the page's OpenGraph tags. When no
// downloadable media can be resolved it falls back to the caption and
// thumbnail alone.
type SocialExtractor struct {
	Kind     source.Kind
	Metadata MetadataSource
	HTTP     *http.Client
}

func (s *SocialExtractor) Extract(ctx context.Context, in source.Info) (*RawContent, error) {
	var (
		info    *ytdlp.Info
		infoErr error
		meta    pageMeta
	)

	// Both lookups are independent; neither failure aborts the other.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		info, infoErr = s.Metadata.GetInfo(ctx, in.URL)
	}()
	go func() {
		defer wg.Done()
		meta = s.fetchMeta(ctx, in.URL)
	}()
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := s.Kind.DisplayName()
	raw := &RawContent{
		URL:          in.URL,
		Description:  meta.Caption,
		AuthorName:   meta.AuthorName,
		ThumbnailURL: meta.ThumbnailURL,
	}

	if infoErr == nil && info != nil {
		raw.MediaURL = info.MediaURL()
		raw.DurationSeconds = info.Duration
		if raw.ThumbnailURL == "" {
			raw.ThumbnailURL = info.Thumbnail
		}
		if raw.AuthorName == "" {
			raw.AuthorName = info.Author()
		}
		if raw.Description == "" {
			raw.Description = strings.TrimSpace(info.Description)
		}
		if meta.Title == "" {
			meta.Title = strings.TrimSpace(info.Title)
		}
	}

	raw.Title = firstNonEmpty(meta.Title, raw.Description, raw.AuthorName, name)
	if raw.ThumbnailURL != "" {
		raw.ImageURLs = []string{raw.ThumbnailURL}
	}

	if raw.MediaURL != "" {
		return raw, nil
	}

	if raw.Description == "" && raw.ThumbnailURL == "" {
		if infoErr != nil {
			return nil, extractionErr(s.Kind, infoErr, "Failed to parse %s content", name)
		}
		return nil, extractionErr(s.Kind, nil, "%s returned no media for this URL", name)
	}

	slog.Warn("No downloadable media, using caption and thumbnail only",
		"source", s.Kind,
		"url", in.URL,
		"error", infoErr,
	)
	return raw, nil
}

func (s *SocialExtractor) fetchMeta(ctx context.Context, pageURL string) pageMeta {
	body, finalURL, err := fetchPage(ctx, s.HTTP, pageURL)
	if err != nil {
		slog.Warn("Failed to fetch post metadata", "source", s.Kind, "url", pageURL, "error", err)
		return pageMeta{}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}
	}

	meta := pageMeta{
		Title:        metaContent(doc, "og:title"),
		Caption:      metaContent(doc, "og:description"),
		ThumbnailURL: absoluteURL(finalURL, metaContent(doc, "og:image")),
	}
	switch s.Kind {
	case source.Instagram:
		meta.AuthorName = instagramAuthor(metaContent(doc, "article:author"), meta.Title, meta.Caption)
	case source.Facebook:
		meta.AuthorName = facebookAuthor(meta.Title)
	}
	return meta
}

// metaContent reads <meta property=name> falling back to <meta name=name>.
func metaContent(doc *goquery.Document, name string) string {
	if v, ok := doc.Find(`meta[property="` + name + `"]`).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="` + name + `"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

var (
	igProfileURL    = regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/`)
	igOnInstagram   = regexp.MustCompile(`(?i)^(.+?)\s+on Instagram:?`)
	igVideoBy       = regexp.MustCompile(`(?i)Video by (.+?) on Instagram`)
	igCaptionAuthor = regexp.MustCompile(`(?i)\s-\s+([^(]+?)(?:\s*\(@[\w.]+\))?\s+on Instagram:`)
	igHandle        = regexp.MustCompile(`@([\w.]+)`)
	fbDashAuthor    = regexp.MustCompile(`^(.+?)\s+[-\x{2013}\x{2014}]\s+`)
	fbPipeAuthor    = regexp.MustCompile(`(?i)^(.+?)\s*\|\s*Facebook`)
)

func instagramAuthor(articleAuthor, title, caption string) string {
	if articleAuthor != "" {
		name := igProfileURL.ReplaceAllString(articleAuthor, "")
		if name = strings.TrimSpace(strings.TrimSuffix(name, "/")); name != "" {
			return name
		}
	}
	if title != "" {
		if m := igVideoBy.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := igOnInstagram.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1])
		}
		if before, _, ok := strings.Cut(title, " • "); ok && strings.TrimSpace(before) != "" {
			return strings.TrimSpace(before)
		}
	}
	if caption != "" {
		if m := igCaptionAuthor.FindStringSubmatch(caption); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := igHandle.FindStringSubmatch(caption); m != nil {
			return m[1]
		}
	}
	return ""
}

func facebookAuthor(title string) string {
	if title == "" {
		return ""
	}
	if m := fbDashAuthor.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := fbPipeAuthor.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
