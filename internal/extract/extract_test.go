package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/ytdlp"
)

type fakeMetadata struct {
	info  *ytdlp.Info
	err   error
	calls []string
}

func (f *fakeMetadata) GetInfo(_ context.Context, url string, _ ...string) (*ytdlp.Info, error) {
	f.calls = append(f.calls, url)
	return f.info, f.err
}

type fakeImages struct {
	data string
	err  error
}

func (f fakeImages) DownloadImageBase64(context.Context, string) (string, error) {
	return f.data, f.err
}

func progressive(url string) []ytdlp.Format {
	return []ytdlp.Format{{FormatID: "18", URL: url, Protocol: "https", VCodec: "avc1", ACodec: "mp4a", Height: 360}}
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := Registry{}
	_, err := r.Extract(context.Background(), source.Info{Source: source.Website, URL: "https://example.com"})
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Unsupported content source: website", ee.Error())
}

func TestRegistry_StampsSourceAndURL(t *testing.T) {
	r := Registry{
		source.Website: ExtractorFunc(func(context.Context, source.Info) (*RawContent, error) {
			return &RawContent{Title: "x"}, nil
		}),
	}
	raw, err := r.Extract(context.Background(), source.Info{Source: source.Website, URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, source.Website, raw.Source)
	assert.Equal(t, "https://example.com/a", raw.URL)
}

func TestNewRegistry_CoversEveryKind(t *testing.T) {
	r := NewRegistry(Deps{})
	for _, k := range source.Kinds {
		assert.Contains(t, r, k)
	}
}

func TestImageExtractor(t *testing.T) {
	e := &ImageExtractor{Images: fakeImages{data: "data:image/png;base64,AAAA"}}
	raw, err := e.Extract(context.Background(), source.Info{Source: source.Image, URL: "https://x.test/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", raw.ImageBase64)

	boom := errors.New("download failed: 404 Not Found")
	e = &ImageExtractor{Images: fakeImages{err: boom}}
	_, err = e.Extract(context.Background(), source.Info{Source: source.Image, URL: "https://x.test/a.png"})
	assert.ErrorIs(t, err, boom)
}

func TestVideoExtractor_YouTube(t *testing.T) {
	captions := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nBoil the <c>pasta</c>\n\n00:00:02.000 --> 00:00:04.000\nBoil the pasta\n\n00:00:04.000 --> 00:00:06.000\nAdd salt\n")
	}))
	defer captions.Close()

	md := &fakeMetadata{info: &ytdlp.Info{
		ID:          "dQw4w9WgXcQ",
		Title:       " Pasta ",
		Description: "Quick pasta",
		Uploader:    "Chef",
		Thumbnail:   "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq.jpg",
		Duration:    61,
		Formats:     progressive("https://v.test/18.mp4"),
		Subtitles: map[string][]ytdlp.SubtitleTrack{
			"en": {{Ext: "json3", URL: "https://ignored"}, {Ext: "vtt", URL: captions.URL}},
		},
	}}
	v := &VideoExtractor{Metadata: md}

	raw, err := v.Extract(context.Background(), source.Info{Source: source.YouTube, URL: "https://youtu.be/dQw4w9WgXcQ", ID: "dQw4w9WgXcQ"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, md.calls)
	assert.Equal(t, "https://v.test/18.mp4", raw.MediaURL)
	assert.Equal(t, "Pasta", raw.Title)
	assert.Equal(t, "Chef", raw.AuthorName)
	assert.Equal(t, float64(61), raw.DurationSeconds)
	assert.Equal(t, []string{"https://i.ytimg.com/vi/dQw4w9WgXcQ/hq.jpg"}, raw.ImageURLs)
	assert.Equal(t, "Boil the pasta Add salt", raw.Transcript)
}

func TestVideoExtractor_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&VideoExtractor{Metadata: &fakeMetadata{}}).Extract(ctx, source.Info{Source: source.YouTube, URL: "https://youtube.com/"})
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Invalid YouTube URL", ee.Message)

	noMedia := &fakeMetadata{info: &ytdlp.Info{ID: "1", Formats: []ytdlp.Format{{URL: "https://v.test/a.m3u8", Protocol: "m3u8_native", VCodec: "avc1"}}}}
	_, err = (&VideoExtractor{Metadata: noMedia}).Extract(ctx, source.Info{Source: source.TikTok, URL: "https://www.tiktok.com/@a/video/1"})
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Could not extract video URL from TikTok", ee.Message)

	boom := errors.New("exit 1")
	_, err = (&VideoExtractor{Metadata: &fakeMetadata{err: boom}}).Extract(ctx, source.Info{Source: source.TikTok, URL: "https://www.tiktok.com/@a/video/1"})
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, source.TikTok, ee.Source)
}

func TestVideoExtractor_CaptionFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	md := &fakeMetadata{info: &ytdlp.Info{
		ID:        "1",
		Formats:   progressive("https://v.test/1.mp4"),
		Subtitles: map[string][]ytdlp.SubtitleTrack{"en": {{Ext: "vtt", URL: srv.URL}}},
	}}
	raw, err := (&VideoExtractor{Metadata: md}).Extract(context.Background(), source.Info{Source: source.TikTok, URL: "https://www.tiktok.com/@a/video/1"})
	require.NoError(t, err)
	assert.Empty(t, raw.Transcript)
}
