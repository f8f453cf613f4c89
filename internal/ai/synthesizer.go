// Package ai turns extracted content into structured recipes and classifies
// sampled frames, backed by langchaingo models or llmkit.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
	"github.com/sleeqtechnologies/rechef/pkg/utils/markdown"
)

const (
	// MaxPromptFrames caps how many frames accompany a synthesis request.
	MaxPromptFrames = 5
	// MaxWebsiteChars caps the page text sent when no schema is present.
	MaxWebsiteChars = 5000
)

// WebsiteContent is the scraped part of a web page handed to synthesis.
type WebsiteContent struct {
	MainContent string
	Schema      *extract.RecipeSchema
}

// Input is whatever combination of content is available for one job.
type Input struct {
	Transcript string
	// Frames are the selected food-relevant frames, in timestamp order.
	Frames []media.Frame
	// FirstFrame is the earliest sampled frame, sent when no frame was
	// food-relevant.
	FirstFrame *media.Frame
	Website    *WebsiteContent
	// ImageBase64 is a submitted picture as a data URL.
	ImageBase64 string
	// ImageURLs are remote pictures used when nothing else is visual.
	ImageURLs         []string
	SourceTitle       string
	SourceDescription string
}

// Synthesizer produces a recipe from extracted content.
type Synthesizer interface {
	Synthesize(ctx context.Context, in Input) (*recipe.Generated, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, in Input) (*recipe.Generated, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, in Input) (*recipe.Generated, error) {
	return f(ctx, in)
}

// SynthesisError is a failed recipe generation. The message is what users
// see; the cause is kept for logs.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return "Failed to generate recipe from content"
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func synthesisErr(err error) error {
	var se *SynthesisError
	if errors.As(err, &se) {
		return err
	}
	return &SynthesisError{Err: err}
}

// promptText assembles the text part of the user message.
func promptText(intro string, in Input) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")

	if in.SourceTitle != "" {
		fmt.Fprintf(&b, "Source Title: %s\n", in.SourceTitle)
	}
	if in.SourceDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n\n", in.SourceDescription)
	}
	if in.Transcript != "" {
		fmt.Fprintf(&b, "Video Transcript:\n%s\n\n", in.Transcript)
	}

	if w := in.Website; w != nil {
		if s := w.Schema; s != nil {
			b.WriteString("Existing Recipe Data:\n")
			fmt.Fprintf(&b, "Name: %s\n", s.Name)
			fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(s.Ingredients, ", "))
			fmt.Fprintf(&b, "Instructions: %s\n\n", strings.Join(s.Instructions, " "))
		} else if w.MainContent != "" {
			fmt.Fprintf(&b, "Website Content:\n%s\n\n", truncate(w.MainContent, MaxWebsiteChars))
		}
	}
	return strings.TrimSpace(b.String())
}

// promptFrames picks the frames sent with a request.
func promptFrames(in Input) []media.Frame {
	if len(in.Frames) > 0 {
		if len(in.Frames) > MaxPromptFrames {
			return in.Frames[:MaxPromptFrames]
		}
		return in.Frames
	}
	if in.FirstFrame != nil {
		return []media.Frame{*in.FirstFrame}
	}
	return nil
}

// parseGenerated decodes a model reply, tolerating markdown code fences and
// markdown inside the description and steps.
func parseGenerated(text string) (*recipe.Generated, error) {
	text = stripFences(text)
	if text == "" {
		return nil, errors.New("empty model response")
	}
	var g recipe.Generated
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, fmt.Errorf("parse recipe json: %w", err)
	}
	g.Description = markdown.PlainText(g.Description)
	for i, step := range g.Instructions {
		g.Instructions[i] = markdown.PlainText(step)
	}
	g.Normalize()
	return &g, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallbackImage fills ImageURL from the first remote picture when the model
// gave none.
func fallbackImage(g *recipe.Generated, in Input) {
	if g.ImageURL != nil {
		return
	}
	for _, u := range in.ImageURLs {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			g.ImageURL = &u
			return
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
