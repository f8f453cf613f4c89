package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/ytdlp"
)

// VideoExtractor handles YouTube and TikTok through yt-dlp metadata.
type VideoExtractor struct {
	Metadata MetadataSource
	HTTP     *http.Client
	// Languages orders caption preference. Empty means English.
	Languages []string
}

func (v *VideoExtractor) Extract(ctx context.Context, in source.Info) (*RawContent, error) {
	target := in.URL
	if in.Source == source.YouTube {
		if in.ID == "" {
			return nil, extractionErr(in.Source, nil, "Invalid YouTube URL")
		}
		target = "https://www.youtube.com/watch?v=" + in.ID
	}

	info, err := v.Metadata.GetInfo(ctx, target)
	if err != nil {
		return nil, extractionErr(in.Source, err, "Failed to parse %s content", in.Source.DisplayName())
	}

	mediaURL := info.MediaURL()
	if mediaURL == "" {
		return nil, extractionErr(in.Source, nil, "Could not extract video URL from %s", in.Source.DisplayName())
	}

	raw := &RawContent{
		URL:             in.URL,
		MediaURL:        mediaURL,
		Title:           strings.TrimSpace(info.Title),
		Description:     strings.TrimSpace(info.Description),
		AuthorName:      info.Author(),
		ThumbnailURL:    info.Thumbnail,
		DurationSeconds: info.Duration,
	}
	if raw.ThumbnailURL != "" {
		raw.ImageURLs = []string{raw.ThumbnailURL}
	}
	raw.Transcript = v.transcript(ctx, info)

	slog.Info("Extracted video content",
		"source", in.Source,
		"id", info.ID,
		"duration", info.Duration,
		"transcript_chars", len(raw.Transcript),
	)
	return raw, nil
}

// transcript fetches and flattens the best caption track. Failures are
// logged and yield an empty transcript.
func (v *VideoExtractor) transcript(ctx context.Context, info *ytdlp.Info) string {
	subURL := info.SubtitleURL(v.Languages...)
	if subURL == "" {
		return ""
	}

	text, err := fetchTranscript(ctx, httpClient(v.HTTP), subURL)
	if err != nil {
		slog.Warn("Failed to fetch captions", "id", info.ID, "error", err)
		return ""
	}
	return text
}

func fetchTranscript(ctx context.Context, client *http.Client, subURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("captions: unexpected status %d", resp.StatusCode)
	}
	return ytdlp.FlattenVTT(resp.Body)
}
