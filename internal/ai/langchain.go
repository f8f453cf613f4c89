package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/sleeqtechnologies/rechef/internal/food"
	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
)

// LangchainSynthesizer generates recipes with any langchaingo chat model
// that accepts images.
type LangchainSynthesizer struct {
	Model   llms.Model
	Prompts Prompts
	// MaxTokens bounds the reply. Zero leaves the provider default.
	MaxTokens int
}

func NewLangchainSynthesizer(model llms.Model) *LangchainSynthesizer {
	return &LangchainSynthesizer{Model: model, Prompts: DefaultPrompts(), MaxTokens: 4096}
}

func (s *LangchainSynthesizer) Synthesize(ctx context.Context, in Input) (*recipe.Generated, error) {
	images, err := imageParts(in)
	if err != nil {
		return nil, synthesisErr(err)
	}
	parts := append([]llms.ContentPart{llms.TextPart(promptText(s.Prompts.RecipeIntro, in))}, images...)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.Prompts.RecipeSystem),
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}

	opts := []llms.CallOption{llms.WithJSONMode()}
	if s.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.MaxTokens))
	}

	start := time.Now()
	resp, err := s.Model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		slog.Error("Recipe generation failed", "error", err)
		return nil, synthesisErr(fmt.Errorf("generate: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, synthesisErr(fmt.Errorf("no response choices"))
	}

	g, err := parseGenerated(resp.Choices[0].Content)
	if err != nil {
		slog.Error("Recipe generation returned unusable output", "error", err)
		return nil, synthesisErr(err)
	}
	fallbackImage(g, in)

	slog.Info("Recipe generated",
		"name", g.Name,
		"ingredients", len(g.Ingredients),
		"steps", len(g.Instructions),
		"images", len(parts)-1,
		"elapsed", time.Since(start),
	)
	return g, nil
}

// imageParts renders the visual inputs: frames first, then an uploaded
// picture, then remote images when nothing else is available. An upload
// that cannot be decoded is an error.
func imageParts(in Input) ([]llms.ContentPart, error) {
	var parts []llms.ContentPart
	for _, f := range promptFrames(in) {
		data, err := f.Bytes()
		if err != nil {
			slog.Warn("Skipping undecodable frame", "frame", f.Index, "error", err)
			continue
		}
		parts = append(parts, llms.BinaryPart(f.MIMEType, data))
	}

	if in.ImageBase64 != "" {
		mime, data, err := media.ParseDataURL(in.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("uploaded image: %w", err)
		}
		parts = append(parts, llms.BinaryPart(mime, data))
	}

	if len(parts) == 0 {
		for _, u := range in.ImageURLs {
			if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
				parts = append(parts, llms.ImageURLPart(u))
			}
			if len(parts) >= MaxPromptFrames {
				break
			}
		}
	}
	return parts, nil
}

// VisionClassifier asks a langchaingo vision model whether a frame shows
// food.
type VisionClassifier struct {
	Model   llms.Model
	Prompts Prompts
}

func NewVisionClassifier(model llms.Model) *VisionClassifier {
	return &VisionClassifier{Model: model, Prompts: DefaultPrompts()}
}

var _ food.Classifier = (*VisionClassifier)(nil)

func (c *VisionClassifier) Classify(ctx context.Context, frame media.Frame) (food.Detection, error) {
	data, err := frame.Bytes()
	if err != nil {
		return food.Detection{}, fmt.Errorf("decode frame: %w", err)
	}

	parts := []llms.ContentPart{
		llms.TextPart(c.Prompts.ClassifierPrompt),
		llms.BinaryPart(frame.MIMEType, data),
	}
	messages := []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts}}

	resp, err := c.Model.GenerateContent(ctx, messages, llms.WithJSONMode(), llms.WithMaxTokens(256))
	if err != nil {
		return food.Detection{}, fmt.Errorf("classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return food.Detection{}, fmt.Errorf("classify: no response choices")
	}

	var d food.Detection
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Content)), &d); err != nil {
		return food.Detection{}, fmt.Errorf("parse detection: %w", err)
	}
	switch d.Confidence {
	case food.ConfidenceHigh, food.ConfidenceMedium, food.ConfidenceLow:
	default:
		d.Confidence = food.ConfidenceMedium
	}
	d.Description = strings.TrimSpace(d.Description)
	return d, nil
}
