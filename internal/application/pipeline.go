package application

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sleeqtechnologies/rechef/internal/ai"
	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/food"
	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/metrics"
	"github.com/sleeqtechnologies/rechef/internal/pipeline"
	"github.com/sleeqtechnologies/rechef/internal/slot"
	"github.com/sleeqtechnologies/rechef/pkg/ytdlp"
)

// Stores is the persistence the orchestrator needs. *db.Store and
// *jobstore.Memory both satisfy it.
type Stores interface {
	pipeline.Store
	pipeline.RecipeRepository
}

// NewYtDlp returns a yt-dlp client configured from conf.
func NewYtDlp(conf config.MediaConfig) *ytdlp.Client {
	c := ytdlp.New()
	if conf.YtDlpPath != "" {
		c.Path = conf.YtDlpPath
	}
	c.CookiesFile = conf.YtDlpCookiesFile
	return c
}

// NewStager returns the media stager configured from conf.
func NewStager(conf config.MediaConfig) *media.Stager {
	return &media.Stager{SpoolDir: conf.SpoolDir, Timeout: conf.MediaDownloadTimeout}
}

// NewExtractors wires the per-source extractors onto the shared yt-dlp
// client and stager.
func NewExtractors(conf config.MediaConfig, stager *media.Stager) extract.Registry {
	return extract.NewRegistry(extract.Deps{
		Metadata: NewYtDlp(conf),
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Images:   stager,
	})
}

// NewOrchestrator builds the full ingestion pipeline on top of stores.
func NewOrchestrator(conf config.Config, stores Stores, m *metrics.Metrics) (*pipeline.Orchestrator, error) {
	prompts := ai.DefaultPrompts()
	if conf.PromptsFile != "" {
		p, err := ai.LoadPrompts(conf.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
		prompts = p
	}

	synth, classifier, err := ai.New(conf.LLMConfig, prompts)
	if err != nil {
		return nil, fmt.Errorf("init ai: %w", err)
	}

	stager := NewStager(conf.MediaConfig)

	deps := pipeline.Deps{
		Store:      stores,
		Recipes:    stores,
		Extractors: NewExtractors(conf.MediaConfig, stager),
		Stager:     stager,
		Sampler:    media.NewSampler(conf.SpoolDir),
		Filter: &food.Filter{
			Classifier:   classifier,
			BatchSize:    conf.ClassifyBatchSize,
			OnClassified: m.FrameClassified,
		},
		Synthesizer: synth,
		Slot:        slot.New(slot.WithTimeout(conf.SlotTimeout), slot.WithObserver(m.SlotObserver())),
		Metrics:     m,
	}

	return pipeline.New(deps, orchestratorOptions(conf.FrameConfig)), nil
}

func orchestratorOptions(conf config.FrameConfig) pipeline.Options {
	return pipeline.Options{
		FrameSelectMax: conf.FrameSelectMax,
		BatchFrames:    conf.FrameSamplingMode == config.FrameSamplingBatch,
	}
}
