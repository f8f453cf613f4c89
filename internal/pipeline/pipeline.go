// Package pipeline runs content-ingestion jobs: it accepts submissions,
// drives each job through extraction, the frame pipeline and synthesis in
// the background, and serves job status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sleeqtechnologies/rechef/internal/ai"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/extract"
	"github.com/sleeqtechnologies/rechef/internal/food"
	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/internal/metrics"
	"github.com/sleeqtechnologies/rechef/internal/slot"
	"github.com/sleeqtechnologies/rechef/internal/source"
)

// RecoveredAfterRestart is the error recorded on jobs failed by the startup
// sweep.
const RecoveredAfterRestart = "Recovered after process restart"

// ImageUploadSourceURL is stored as the source of direct picture uploads.
const ImageUploadSourceURL = "image-upload"

// MaxURLLength matches the saved_content.source_url column.
const MaxURLLength = 2048

var (
	ErrNotFound  = errors.New("job not found")
	ErrForbidden = errors.New("job belongs to another user")
)

// ValidationError is a malformed submission. Nothing is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store persists submissions and job state.
type Store interface {
	CreateSubmission(ctx context.Context, content db.NewSavedContentParams) (*db.SavedContent, *db.ContentJob, error)
	GetSavedContent(ctx context.Context, id uuid.UUID) (*db.SavedContent, error)
	UpdateSavedContentStatus(ctx context.Context, id uuid.UUID, status db.SavedContentStatus) error
	UpdateSavedContentMetadata(ctx context.Context, id uuid.UUID, meta db.ContentMetadata) error
	GetJob(ctx context.Context, id uuid.UUID) (*db.ContentJob, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, upd db.JobUpdate) (*db.ContentJob, error)
	ListJobsByOwner(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*db.ContentJob, error)
	RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error)
}

// RecipeRepository persists generated recipes.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, arg db.NewRecipeParams) (*db.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*db.Recipe, error)
}

// Stager downloads media to scratch space.
type Stager interface {
	Stage(ctx context.Context, mediaURL string) (*media.Staged, error)
}

type Deps struct {
	Store       Store
	Recipes     RecipeRepository
	Extractors  extract.Extractor
	Stager      Stager
	Sampler     *media.Sampler
	Filter      *food.Filter
	Synthesizer ai.Synthesizer
	// Slot is shared by every job in the process.
	Slot *slot.Slot
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

type Options struct {
	// FrameSelectMax is how many food frames reach synthesis.
	FrameSelectMax int
	// FrameOptions overrides the sampling plan per source.
	FrameOptions map[source.Kind]media.Options
	// BatchFrames samples every frame up front and classifies them in
	// groups of Filter.BatchSize instead of streaming them one at a time.
	BatchFrames bool
}

// DefaultFrameOptions samples long-form YouTube videos more sparsely than
// short social clips.
var DefaultFrameOptions = map[source.Kind]media.Options{
	source.YouTube:   {IntervalSeconds: 3, MaxFrames: 10},
	source.TikTok:    {IntervalSeconds: 2, MaxFrames: 8},
	source.Instagram: {IntervalSeconds: 2, MaxFrames: 8},
	source.Facebook:  {IntervalSeconds: 2, MaxFrames: 8},
}

const DefaultFrameSelectMax = 5

type SubmitRequest struct {
	URL         string `json:"url"`
	ImageBase64 string `json:"imageBase64"`
}

type SubmitResult struct {
	JobID          uuid.UUID `json:"jobId"`
	SavedContentID uuid.UUID `json:"savedContentId"`
}

// Orchestrator owns background job execution.
type Orchestrator struct {
	deps Deps
	opts Options

	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

func New(deps Deps, opts Options) *Orchestrator {
	if opts.FrameSelectMax <= 0 {
		opts.FrameSelectMax = DefaultFrameSelectMax
	}
	if opts.FrameOptions == nil {
		opts.FrameOptions = DefaultFrameOptions
	}
	if deps.Slot == nil {
		deps.Slot = slot.New()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{deps: deps, opts: opts, base: base, cancel: cancel}
}

// task is one accepted submission.
type task struct {
	jobID          uuid.UUID
	savedContentID uuid.UUID
	ownerID        uuid.UUID
	info           source.Info
	imageBase64    string
}

// Submit validates and persists a submission, then schedules it. It returns
// as soon as the job record exists; the request context does not bound the
// job.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest, ownerID uuid.UUID) (*SubmitResult, error) {
	t, params, err := validate(req, ownerID)
	if err != nil {
		return nil, err
	}

	sc, job, err := o.deps.Store.CreateSubmission(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	t.jobID = job.ID
	t.savedContentID = sc.ID

	o.deps.Metrics.JobSubmitted(string(t.info.Source))
	slog.Info("Job submitted", "job_id", job.ID, "source", t.info.Source, "url", sc.SourceURL)

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		stop := context.AfterFunc(o.base, cancel)
		defer stop()
		o.run(jobCtx, t)
	}()

	return &SubmitResult{JobID: job.ID, SavedContentID: sc.ID}, nil
}

func validate(req SubmitRequest, ownerID uuid.UUID) (task, db.NewSavedContentParams, error) {
	rawURL := strings.TrimSpace(req.URL)
	image := strings.TrimSpace(req.ImageBase64)

	switch {
	case rawURL == "" && image == "":
		return task{}, db.NewSavedContentParams{}, &ValidationError{Message: "Either url or imageBase64 is required"}
	case rawURL != "" && image != "":
		return task{}, db.NewSavedContentParams{}, &ValidationError{Message: "Provide either url or imageBase64, not both"}
	}

	if image != "" {
		image = imageDataURL(image)
		if _, _, err := media.ParseDataURL(image); err != nil {
			return task{}, db.NewSavedContentParams{}, &ValidationError{Message: "Invalid imageBase64"}
		}
		t := task{ownerID: ownerID, info: source.Info{Source: source.Image, URL: ImageUploadSourceURL}, imageBase64: image}
		return t, db.NewSavedContentParams{
			OwnerID:     ownerID,
			ContentType: db.ContentTypeImage,
			SourceURL:   ImageUploadSourceURL,
		}, nil
	}

	if len(rawURL) > MaxURLLength {
		return task{}, db.NewSavedContentParams{}, &ValidationError{Message: fmt.Sprintf("URL is longer than %d characters", MaxURLLength)}
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return task{}, db.NewSavedContentParams{}, &ValidationError{Message: "Invalid URL"}
	}

	info := source.Classify(rawURL)
	t := task{ownerID: ownerID, info: info}
	return t, db.NewSavedContentParams{
		OwnerID:     ownerID,
		ContentType: info.Source.ContentType(),
		SourceURL:   rawURL,
	}, nil
}

// imageDataURL accepts either a data URL or bare base64 (assumed JPEG).
func imageDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		return s
	}
	return "data:image/jpeg;base64," + s
}

// Wait blocks until every running job has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels every running job. Jobs record the cancellation as a
// failure where the store is still reachable.
func (o *Orchestrator) Close() {
	o.cancel()
}

// StaleJobRecoverer fails jobs interrupted by a restart.
type StaleJobRecoverer interface {
	RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error)
}

// RecoverStaleJobs fails every job left in processing by a previous process
// and marks its saved content failed. Running it again changes nothing.
func RecoverStaleJobs(ctx context.Context, store StaleJobRecoverer, m *metrics.Metrics) (int, error) {
	n, err := store.RecoverStaleProcessingJobs(ctx, RecoveredAfterRestart)
	if err != nil {
		return 0, fmt.Errorf("recover stale jobs: %w", err)
	}
	m.Recovered(n)
	if n > 0 {
		slog.Warn("Recovered stale processing jobs", "count", n)
	} else {
		slog.Info("No stale processing jobs")
	}
	return n, nil
}

// RecoverStaleJobs runs the recovery sweep against the orchestrator's store.
// It must run before the first Submit.
func (o *Orchestrator) RecoverStaleJobs(ctx context.Context) (int, error) {
	return RecoverStaleJobs(ctx, o.deps.Store, o.deps.Metrics)
}
