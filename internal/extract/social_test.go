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

func ogServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const instagramPost = `<html><head>
<meta property="og:title" content="Maria Lopez on Instagram: &quot;Tacos al pastor&quot;">
<meta property="og:description" content="Tacos al pastor with pineapple salsa #tacos">
<meta property="og:image" content="https://scontent.test/thumb.jpg">
</head></html>`

func TestSocialExtractor_Instagram(t *testing.T) {
	srv := ogServer(t, instagramPost)
	md := &fakeMetadata{info: &ytdlp.Info{
		Title:    "Video by maria",
		Uploader: "maria",
		Duration: 30,
		Formats:  progressive("https://cdn.test/reel.mp4"),
	}}
	s := &SocialExtractor{Kind: source.Instagram, Metadata: md, HTTP: srv.Client()}

	raw, err := s.Extract(context.Background(), source.Info{Source: source.Instagram, URL: srv.URL + "/reel/abc/"})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/reel.mp4", raw.MediaURL)
	assert.Equal(t, `Maria Lopez on Instagram: "Tacos al pastor"`, raw.Title)
	assert.Equal(t, "Tacos al pastor with pineapple salsa #tacos", raw.Description)
	assert.Equal(t, "Maria Lopez", raw.AuthorName)
	assert.Equal(t, "https://scontent.test/thumb.jpg", raw.ThumbnailURL)
	assert.Equal(t, []string{"https://scontent.test/thumb.jpg"}, raw.ImageURLs)
	assert.Equal(t, float64(30), raw.DurationSeconds)
}

func TestSocialExtractor_FallsBackToCaption(t *testing.T) {
	srv := ogServer(t, `<html><head>
<meta property="og:description" content="Crispy gnocchi, 3 ingredients">
<meta property="og:image" content="https://fb.test/thumb.jpg">
</head></html>`)
	s := &SocialExtractor{Kind: source.Facebook, Metadata: &fakeMetadata{err: errors.New("login required")}, HTTP: srv.Client()}

	raw, err := s.Extract(context.Background(), source.Info{Source: source.Facebook, URL: srv.URL + "/reel/1"})
	require.NoError(t, err)
	assert.Empty(t, raw.MediaURL)
	assert.Equal(t, "Crispy gnocchi, 3 ingredients", raw.Title)
	assert.Equal(t, "https://fb.test/thumb.jpg", raw.ThumbnailURL)
}

func TestSocialExtractor_NothingUsable(t *testing.T) {
	srv := ogServer(t, `<html><head></head></html>`)

	boom := errors.New("login required")
	s := &SocialExtractor{Kind: source.Instagram, Metadata: &fakeMetadata{err: boom}, HTTP: srv.Client()}
	_, err := s.Extract(context.Background(), source.Info{Source: source.Instagram, URL: srv.URL})
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Failed to parse Instagram content", ee.Message)

	s = &SocialExtractor{Kind: source.Facebook, Metadata: &fakeMetadata{info: &ytdlp.Info{}}, HTTP: srv.Client()}
	_, err = s.Extract(context.Background(), source.Info{Source: source.Facebook, URL: srv.URL})
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Facebook returned no media for this URL", ee.Message)
}

func TestSocialExtractor_TitleFallsBackToPlatform(t *testing.T) {
	srv := ogServer(t, `<html></html>`)
	md := &fakeMetadata{info: &ytdlp.Info{Formats: progressive("https://cdn.test/v.mp4")}}
	s := &SocialExtractor{Kind: source.Facebook, Metadata: md, HTTP: srv.Client()}

	raw, err := s.Extract(context.Background(), source.Info{Source: source.Facebook, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Facebook", raw.Title)
}

func TestSocialExtractor_Cancelled(t *testing.T) {
	srv := ogServer(t, instagramPost)
	md := &fakeMetadata{info: &ytdlp.Info{Formats: progressive("https://cdn.test/reel.mp4")}}
	s := &SocialExtractor{Kind: source.Instagram, Metadata: md, HTTP: srv.Client()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw, err := s.Extract(ctx, source.Info{Source: source.Instagram, URL: srv.URL + "/reel/abc/"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, raw)
}

func TestInstagramAuthor(t *testing.T) {
	tests := []struct {
		name, articleAuthor, title, caption, want string
	}{
		{"profile url", "https://www.instagram.com/chefmaria/", "", "", "chefmaria"},
		{"on instagram", "", "Maria Lopez on Instagram: \"x\"", "", "Maria Lopez"},
		{"video by", "", "Reel: Video by chefmaria on Instagram", "", "chefmaria"},
		{"bullet", "", "Maria Lopez • Instagram reel", "", "Maria Lopez"},
		{"caption dash", "", "", "12K likes - Maria Lopez (@chefmaria) on Instagram: \"tacos\"", "Maria Lopez"},
		{"caption handle", "", "", "recipe by @chef.maria", "chef.maria"},
		{"nothing", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, instagramAuthor(tt.articleAuthor, tt.title, tt.caption))
		})
	}
}

func TestFacebookAuthor(t *testing.T) {
	assert.Equal(t, "Tasty", facebookAuthor("Tasty - Crispy gnocchi"))
	assert.Equal(t, "Tasty", facebookAuthor("Tasty | Facebook"))
	assert.Equal(t, "", facebookAuthor("Crispy gnocchi"))
	assert.Equal(t, "", facebookAuthor(""))
}
