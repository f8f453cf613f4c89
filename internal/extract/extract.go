// Package extract turns a classified source URL into normalized raw content
// ready for recipe synthesis. There is one extractor per source kind.
package extract

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sleeqtechnologies/rechef/internal/source"
	"github.com/sleeqtechnologies/rechef/pkg/ytdlp"
)

// RecipeSchema is a schema.org Recipe found embedded in a web page.
type RecipeSchema struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Images       []string `json:"image"`
	Ingredients  []string `json:"recipeIngredient"`
	Instructions []string `json:"recipeInstructions"`
	PrepTime     string   `json:"prepTime,omitempty"`
	CookTime     string   `json:"cookTime,omitempty"`
	TotalTime    string   `json:"totalTime,omitempty"`
	Servings     string   `json:"recipeYield,omitempty"`
	Author       string   `json:"author,omitempty"`
}

// Complete reports whether the schema carries enough to build a recipe
// without a model.
func (s *RecipeSchema) Complete() bool {
	return s != nil && len(s.Ingredients) > 0 && len(s.Instructions) > 0
}

// RawContent is everything an extractor learned about a submission. Empty
// strings mean unknown.
type RawContent struct {
	Source          source.Kind
	URL             string
	Transcript      string
	MediaURL        string
	Title           string
	Description     string
	AuthorName      string
	AuthorAvatarURL string
	ThumbnailURL    string
	DurationSeconds float64
	// ImageBase64 is the submitted picture for image sources, as a data URL.
	ImageBase64 string
	// ImageURLs are remote pictures the synthesizer may look at when no
	// frames are available.
	ImageURLs []string
	// MainContent is the readable body of a web page as markdown.
	MainContent string
	Schema      *RecipeSchema
}

// ExtractionError means the platform content was unavailable or unparseable.
type ExtractionError struct {
	Source  source.Kind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func extractionErr(kind source.Kind, err error, format string, args ...any) *ExtractionError {
	return &ExtractionError{Source: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Extractor produces RawContent for one kind of source.
type Extractor interface {
	Extract(ctx context.Context, info source.Info) (*RawContent, error)
}

type ExtractorFunc func(ctx context.Context, info source.Info) (*RawContent, error)

func (f ExtractorFunc) Extract(ctx context.Context, info source.Info) (*RawContent, error) {
	return f(ctx, info)
}

// Registry dispatches on the classified source kind.
type Registry map[source.Kind]Extractor

func (r Registry) Extract(ctx context.Context, info source.Info) (*RawContent, error) {
	ex, ok := r[info.Source]
	if !ok {
		return nil, extractionErr(info.Source, nil, "Unsupported content source: %s", info.Source)
	}
	raw, err := ex.Extract(ctx, info)
	if err != nil {
		return nil, err
	}
	raw.Source = info.Source
	if raw.URL == "" {
		raw.URL = info.URL
	}
	return raw, nil
}

// MetadataSource resolves platform metadata and media renditions.
type MetadataSource interface {
	GetInfo(ctx context.Context, url string, extraArgs ...string) (*ytdlp.Info, error)
}

// ImageFetcher downloads a picture as a data URL.
type ImageFetcher interface {
	DownloadImageBase64(ctx context.Context, imageURL string) (string, error)
}

// Deps are the collaborators shared by the default extractors.
type Deps struct {
	Metadata MetadataSource
	HTTP     *http.Client
	Images   ImageFetcher
}

// NewRegistry wires one extractor per source kind.
func NewRegistry(d Deps) Registry {
	video := &VideoExtractor{Metadata: d.Metadata, HTTP: d.HTTP}
	return Registry{
		source.YouTube:   video,
		source.TikTok:    video,
		source.Instagram: &SocialExtractor{Kind: source.Instagram, Metadata: d.Metadata, HTTP: d.HTTP},
		source.Facebook:  &SocialExtractor{Kind: source.Facebook, Metadata: d.Metadata, HTTP: d.HTTP},
		source.Website:   &WebsiteExtractor{HTTP: d.HTTP},
		source.Image:     &ImageExtractor{Images: d.Images},
	}
}
