package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleeqtechnologies/rechef/internal/source"
)

const recipeArticle = `<!doctype html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Best Banana Bread">
<meta name="description" content="Moist &amp; easy.">
<meta property="og:image" content="/img/og.jpg">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Best Banana Bread",
 "image":{"@type":"ImageObject","url":"https://cdn.test/bread.jpg"},
 "recipeIngredient":["3 ripe bananas","250g flour"],
 "recipeInstructions":[{"@type":"HowToStep","text":"Mash the bananas."},{"@type":"HowToStep","text":"Bake 60 minutes."}],
 "prepTime":"PT10M","cookTime":"PT1H","recipeYield":"8 slices","author":{"@type":"Person","name":"Jo Baker"}}
</script>
</head><body>
<nav>Home | Recipes | About</nav>
<article>
<h1>Best Banana Bread</h1>
<img src="/img/step1.jpg">
<p>This banana bread is the one we make every week. Whisk the eggs with the sugar until pale, then fold in the mashed bananas and the melted butter.</p>
<p>Sift the flour with the baking soda and a pinch of salt, and stir it into the wet ingredients until just combined. Do not overmix the batter or the loaf will be tough.</p>
<p>Scrape into a lined loaf tin and bake for about an hour, until a skewer comes out clean. Cool in the tin for ten minutes before turning out onto a rack.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestWebsiteExtractor(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, recipeArticle)
	}))
	defer srv.Close()

	w := &WebsiteExtractor{HTTP: srv.Client()}
	raw, err := w.Extract(context.Background(), source.Info{Source: source.Website, URL: srv.URL + "/banana-bread"})
	require.NoError(t, err)

	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "Best Banana Bread", raw.Title)
	assert.Equal(t, "Moist & easy.", raw.Description)
	require.NotNil(t, raw.Schema)
	assert.True(t, raw.Schema.Complete())
	assert.Equal(t, "Jo Baker", raw.AuthorName)

	assert.Equal(t, []string{
		"https://cdn.test/bread.jpg",
		srv.URL + "/img/og.jpg",
		srv.URL + "/img/step1.jpg",
	}, raw.ImageURLs)
	assert.Equal(t, "https://cdn.test/bread.jpg", raw.ThumbnailURL)

	assert.Contains(t, raw.MainContent, "Whisk the eggs")
	assert.NotContains(t, raw.MainContent, "<p>")
	assert.LessOrEqual(t, len([]rune(raw.MainContent)), maxMainContentChars)
}

func TestWebsiteExtractor_FallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Plain &amp; Simple</title></head><body><main>Stir.</main></body></html>`)
	}))
	defer srv.Close()

	raw, err := (&WebsiteExtractor{HTTP: srv.Client()}).Extract(context.Background(), source.Info{Source: source.Website, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Plain & Simple", raw.Title)
	assert.Nil(t, raw.Schema)
	assert.Empty(t, raw.ImageURLs)
	assert.Empty(t, raw.ThumbnailURL)
}

func TestWebsiteExtractor_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := (&WebsiteExtractor{HTTP: srv.Client()}).Extract(context.Background(), source.Info{Source: source.Website, URL: srv.URL})
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Failed to fetch website: 404", ee.Error())
	assert.Equal(t, source.Website, ee.Source)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, 10, len([]rune(truncateRunes(strings.Repeat("é", 20), 10))))
}
