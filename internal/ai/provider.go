package ai

import (
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/food"
)

// NewModel creates a langchaingo chat model for the configured provider.
// The llmkit provider uses Anthropic models.
func NewModel(cfg config.LLMConfig, model string) (llms.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		m, err := ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return m, nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		m, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return m, nil

	case config.ProviderAnthropic, config.ProviderLLMKit:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		m, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// New builds the recipe synthesizer and frame classifier for cfg. Pages
// with a complete embedded recipe never reach the model.
func New(cfg config.LLMConfig, prompts Prompts) (Synthesizer, food.Classifier, error) {
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.LLMModel
	}
	vision, err := NewModel(cfg, visionModel)
	if err != nil {
		return nil, nil, err
	}
	classifier := &VisionClassifier{Model: vision, Prompts: prompts}

	var next Synthesizer
	if cfg.LLMProvider == config.ProviderLLMKit {
		s := NewLLMKitSynthesizer(cfg.AnthropicAPIKey, cfg.LLMModel)
		s.Prompts = prompts
		next = s
	} else {
		model, err := NewModel(cfg, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		s := NewLangchainSynthesizer(model)
		s.Prompts = prompts
		next = s
	}

	slog.Info("AI providers ready", "provider", cfg.LLMProvider, "model", cfg.LLMModel, "vision_model", visionModel)
	return &SchemaSynthesizer{Next: next}, classifier, nil
}
