package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// LLM providers understood by the ai package.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderLLMKit    = "llmkit"
)

// Frame sampling modes. Stream classifies each frame as it is extracted;
// batch extracts every frame first and classifies them in groups.
const (
	FrameSamplingStream = "stream"
	FrameSamplingBatch  = "batch"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int `mapstructure:"WEBSERVER_PORT"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LogFile  string `mapstructure:"LOG_FILE"`

	MediaConfig
	LLMConfig
	FrameConfig
}

type MediaConfig struct {
	SpoolDir             string        `mapstructure:"SPOOL_DIR"`
	YtDlpPath            string        `mapstructure:"YTDLP_PATH"`
	YtDlpCookiesFile     string        `mapstructure:"YTDLP_COOKIES_FILE"`
	MediaDownloadTimeout time.Duration `mapstructure:"MEDIA_DOWNLOAD_TIMEOUT"`
	// SlotTimeout bounds how long a job waits for the processing slot. Zero waits forever.
	SlotTimeout time.Duration `mapstructure:"SLOT_TIMEOUT" validate:"gte=0"`
}

type LLMConfig struct {
	LLMProvider     string `mapstructure:"LLM_PROVIDER" validate:"oneof=openai anthropic ollama llmkit"`
	LLMModel        string `mapstructure:"LLM_MODEL"`
	VisionModel     string `mapstructure:"VISION_MODEL"`
	OpenAIAPIKey    string `mapstructure:"OPENAI_API_KEY"`
	AnthropicAPIKey string `mapstructure:"ANTHROPIC_API_KEY"`
	OllamaHost      string `mapstructure:"OLLAMA_HOST"`
	PromptsFile     string `mapstructure:"PROMPTS_FILE"`
}

type FrameConfig struct {
	FrameSelectMax    int    `mapstructure:"FRAME_SELECT_MAX" validate:"gte=1"`
	FrameSamplingMode string `mapstructure:"FRAME_SAMPLING_MODE" validate:"oneof=stream batch"`
	// ClassifyBatchSize is the group size in batch sampling mode.
	ClassifyBatchSize int `mapstructure:"CLASSIFY_BATCH_SIZE" validate:"gte=1"`
}

// ToolConfig is the part of Config that rechefctl needs. It does not
// require a database.
type ToolConfig struct {
	LogFile string `mapstructure:"LOG_FILE"`

	MediaConfig
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c any) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Debug("Environment variables bound")
}

func setDefaults() {
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("MEDIA_DOWNLOAD_TIMEOUT", 10*time.Minute)
	viper.SetDefault("SLOT_TIMEOUT", time.Duration(0))
	viper.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("FRAME_SELECT_MAX", 5)
	viper.SetDefault("FRAME_SAMPLING_MODE", FrameSamplingStream)
	viper.SetDefault("CLASSIFY_BATCH_SIZE", 5)
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()
	setDefaults()

	cfg := Config{}
	// Embedded groups read the same flat env keys as top-level fields.
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) { dc.Squash = true }); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.LLMModel
	}

	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"slot_timeout", cfg.SlotTimeout,
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadToolConfig reads the logging and media settings with the same keys and
// defaults as LoadConfig.
func LoadToolConfig(ctx context.Context) (*ToolConfig, error) {
	bindEnv(ToolConfig{})
	viper.AutomaticEnv()
	setDefaults()

	cfg := ToolConfig{}
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) { dc.Squash = true }); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
