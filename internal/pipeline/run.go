package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sleeqtechnologies/rechef/internal/ai"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/food"
	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
	"github.com/sleeqtechnologies/rechef/internal/source"
)

// Progress checkpoints recorded as a job moves through its stages.
const (
	progressStarted     = 10
	progressExtracted   = 30
	progressFrames      = 60
	progressSynthesized = 80
	progressDone        = 100
)

func (o *Orchestrator) run(ctx context.Context, t task) {
	start := time.Now()
	log := slog.With("job_id", t.jobID, "source", t.info.Source)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r, "stack", string(debug.Stack()))
			o.fail(ctx, t, fmt.Errorf("internal error: %v", r))
			o.deps.Metrics.JobFinished(string(t.info.Source), string(db.JobStatusFailed), time.Since(start))
		}
	}()

	if err := o.process(ctx, t, log); err != nil {
		log.Error("Job failed", "error", err, "elapsed", time.Since(start))
		o.fail(ctx, t, err)
		o.deps.Metrics.JobFinished(string(t.info.Source), string(db.JobStatusFailed), time.Since(start))
		return
	}

	log.Info("Job completed", "elapsed", time.Since(start))
	o.deps.Metrics.JobFinished(string(t.info.Source), string(db.JobStatusCompleted), time.Since(start))
}

func (o *Orchestrator) process(ctx context.Context, t task, log *slog.Logger) error {
	if err := o.setProgress(ctx, t.jobID, progressStarted); err != nil {
		return err
	}

	raw, err := o.extract(ctx, t)
	if err != nil {
		return err
	}
	log.Info("Content extracted",
		"title", raw.Title,
		"has_media", raw.MediaURL != "",
		"transcript_chars", len(raw.Transcript),
	)
	if err := o.setProgress(ctx, t.jobID, progressExtracted); err != nil {
		return err
	}

	in := ai.Input{
		Transcript:        raw.Transcript,
		ImageBase64:       raw.ImageBase64,
		ImageURLs:         raw.ImageURLs,
		SourceTitle:       raw.Title,
		SourceDescription: raw.Description,
	}
	if raw.Source == source.Website {
		in.Website = &ai.WebsiteContent{MainContent: raw.MainContent, Schema: raw.Schema}
	}

	if raw.Source.IsVideoPlatform() && raw.MediaURL != "" {
		relevant, first, err := o.foodFrames(ctx, raw)
		if err != nil {
			return err
		}
		in.Frames = food.SelectRepresentative(relevant, o.opts.FrameSelectMax)
		if len(in.Frames) == 0 {
			in.FirstFrame = first
		}
		log.Info("Frames selected", "relevant", len(relevant), "selected", len(in.Frames))
	}
	if err := o.setProgress(ctx, t.jobID, progressFrames); err != nil {
		return err
	}

	generated, err := o.deps.Synthesizer.Synthesize(ctx, in)
	if err != nil {
		return err
	}
	if err := o.setProgress(ctx, t.jobID, progressSynthesized); err != nil {
		return err
	}

	meta := db.ContentMetadata{Title: nonEmpty(raw.Title), ThumbnailURL: nonEmpty(raw.ThumbnailURL)}
	if meta.Title != nil || meta.ThumbnailURL != nil {
		if err := o.deps.Store.UpdateSavedContentMetadata(ctx, t.savedContentID, meta); err != nil {
			return fmt.Errorf("update saved content metadata: %w", err)
		}
	}

	rec, err := o.deps.Recipes.CreateRecipe(ctx, db.NewRecipeParams{
		OwnerID:        t.ownerID,
		SavedContentID: &t.savedContentID,
		Recipe:         *generated,
		Provenance:     provenance(t, raw),
	})
	if err != nil {
		return fmt.Errorf("save recipe: %w", err)
	}

	done := progressDone
	if _, err := o.deps.Store.UpdateJobStatus(ctx, t.jobID, db.JobUpdate{
		Status:          db.JobStatusCompleted,
		Progress:        &done,
		ResultReference: &rec.ID,
	}); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if err := o.deps.Store.UpdateSavedContentStatus(ctx, t.savedContentID, db.SavedContentStatusProcessed); err != nil {
		log.Warn("Failed to mark saved content processed", "error", err)
	}
	return nil
}

// extract produces raw content. Direct uploads skip extraction entirely.
func (o *Orchestrator) extract(ctx context.Context, t task) (*extract.RawContent, error) {
	if t.imageBase64 != "" {
		return &extract.RawContent{
			Source:      source.Image,
			URL:         ImageUploadSourceURL,
			ImageBase64: t.imageBase64,
		}, nil
	}
	return o.deps.Extractors.Extract(ctx, t.info)
}

// foodFrames holds the processing slot across staging, sampling and
// classification. It returns the food-relevant frames in order and the
// first sampled frame.
func (o *Orchestrator) foodFrames(ctx context.Context, raw *extract.RawContent) ([]media.Frame, *media.Frame, error) {
	var (
		relevant []media.Frame
		first    *media.Frame
	)
	err := o.deps.Slot.Do(ctx, func(ctx context.Context) error {
		staged, err := o.deps.Stager.Stage(ctx, raw.MediaURL)
		if err != nil {
			return err
		}
		defer staged.Cleanup()

		opts := o.frameOptions(raw.Source)
		if o.opts.BatchFrames {
			relevant, first, err = o.batchFrames(ctx, staged.Path, opts)
			return err
		}
		keep := func(ctx context.Context, f media.Frame) (*media.Frame, error) {
			o.deps.Metrics.FrameSampled()
			if first == nil {
				c := f
				first = &c
			}
			return o.deps.Filter.Keep(ctx, f)
		}
		relevant, err = media.StreamKept(ctx, o.deps.Sampler, staged.Path, opts, keep)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return relevant, first, nil
}

// batchFrames samples the whole clip, then classifies it in bounded groups.
func (o *Orchestrator) batchFrames(ctx context.Context, path string, opts media.Options) ([]media.Frame, *media.Frame, error) {
	frames, err := o.deps.Sampler.Sample(ctx, path, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, nil
	}
	for range frames {
		o.deps.Metrics.FrameSampled()
	}
	first := frames[0]
	relevant, err := o.deps.Filter.FilterBatch(ctx, frames)
	if err != nil {
		return nil, nil, err
	}
	return relevant, &first, nil
}

func (o *Orchestrator) frameOptions(k source.Kind) media.Options {
	if opts, ok := o.opts.FrameOptions[k]; ok {
		return opts
	}
	return DefaultFrameOptions[source.TikTok]
}

func (o *Orchestrator) setProgress(ctx context.Context, jobID uuid.UUID, p int) error {
	if _, err := o.deps.Store.UpdateJobStatus(ctx, jobID, db.JobUpdate{Status: db.JobStatusProcessing, Progress: &p}); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// fail records err on the job and its saved content. The writes outlive a
// cancelled job context so shutdown still leaves a terminal state.
func (o *Orchestrator) fail(ctx context.Context, t task, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	msg := failureMessage(err)
	if _, uerr := o.deps.Store.UpdateJobStatus(ctx, t.jobID, db.JobUpdate{Status: db.JobStatusFailed, ErrorMessage: &msg}); uerr != nil {
		if errors.Is(uerr, db.ErrJobTerminal) {
			return
		}
		slog.Error("Failed to record job failure", "job_id", t.jobID, "error", uerr)
	}
	if uerr := o.deps.Store.UpdateSavedContentStatus(ctx, t.savedContentID, db.SavedContentStatusFailed); uerr != nil {
		slog.Error("Failed to mark saved content failed", "saved_content_id", t.savedContentID, "error", uerr)
	}
}

func failureMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Processing was cancelled"
	}
	if media.IsTransient(err) {
		return "Media download was interrupted, please try again"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Unknown error"
}

func provenance(t task, raw *extract.RawContent) recipe.Provenance {
	p := recipe.Provenance{
		SourceTitle:           nonEmpty(raw.Title),
		SourceAuthorName:      nonEmpty(raw.AuthorName),
		SourceAuthorAvatarURL: nonEmpty(raw.AuthorAvatarURL),
	}
	if t.imageBase64 == "" {
		p.SourceURL = t.info.URL
	}
	return p
}

func nonEmpty(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
