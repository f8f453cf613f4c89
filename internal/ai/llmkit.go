package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
)

// LLMKitSynthesizer generates recipes through Anthropic structured output.
// Frames and uploaded pictures are sent as uploaded files.
type LLMKitSynthesizer struct {
	APIKey    string
	Model     string
	MaxTokens int
	Prompts   Prompts
	// TempDir holds images while they upload. Empty means the OS default.
	TempDir string

	// prompt and upload default to the llmkit anthropic client.
	prompt func(system, user, schema, apiKey string, settings types.RequestSettings, files ...types.File) (string, error)
	upload func(path, apiKey string) (string, error)
}

func NewLLMKitSynthesizer(apiKey, model string) *LLMKitSynthesizer {
	return &LLMKitSynthesizer{
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: 4096,
		Prompts:   DefaultPrompts(),
		prompt:    llmkitPrompt,
		upload:    llmkitUpload,
	}
}

func llmkitPrompt(system, user, schema, apiKey string, settings types.RequestSettings, files ...types.File) (string, error) {
	resp, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings, files...)
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return resp.Content[0].Text, nil
}

func llmkitUpload(path, apiKey string) (string, error) {
	f, err := anthropic.UploadFile(path, apiKey)
	if err != nil {
		return "", err
	}
	return f.ID, nil
}

func (s *LLMKitSynthesizer) Synthesize(ctx context.Context, in Input) (*recipe.Generated, error) {
	if err := ctx.Err(); err != nil {
		return nil, synthesisErr(err)
	}

	files, err := s.uploadImages(ctx, in)
	if err != nil {
		return nil, synthesisErr(err)
	}

	settings := types.RequestSettings{
		Model:       s.Model,
		MaxTokens:   s.MaxTokens,
		Temperature: 0.2,
	}
	text, err := s.prompt(s.Prompts.RecipeSystem, promptText(s.Prompts.RecipeIntro, in), s.Prompts.RecipeSchema, s.APIKey, settings, files...)
	if err != nil {
		slog.Error("Recipe generation failed", "provider", "llmkit", "error", err)
		return nil, synthesisErr(fmt.Errorf("generate: %w", err))
	}

	g, err := parseGenerated(text)
	if err != nil {
		return nil, synthesisErr(err)
	}
	fallbackImage(g, in)

	slog.Info("Recipe generated", "provider", "llmkit", "name", g.Name, "images", len(files))
	return g, nil
}

func (s *LLMKitSynthesizer) uploadImages(ctx context.Context, in Input) ([]types.File, error) {
	type image struct {
		mime string
		data []byte
	}
	var images []image
	for _, f := range promptFrames(in) {
		data, err := f.Bytes()
		if err != nil {
			continue
		}
		images = append(images, image{f.MIMEType, data})
	}
	if in.ImageBase64 != "" {
		mime, data, err := media.ParseDataURL(in.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("uploaded image: %w", err)
		}
		images = append(images, image{mime, data})
	}
	if len(images) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp(s.TempDir, "llmkit-*")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := make([]types.File, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("image-%02d%s", i, imageExt(img.mime)))
		if err := os.WriteFile(path, img.data, 0o600); err != nil {
			return nil, fmt.Errorf("write upload: %w", err)
		}
		id, err := s.upload(path, s.APIKey)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		files = append(files, types.File{ID: id})
	}
	return files, nil
}

func imageExt(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
