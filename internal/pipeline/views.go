package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sleeqtechnologies/rechef/internal/db"
)

// ContentSummary is the saved-content part of a job view.
type ContentSummary struct {
	SourceURL    string  `json:"sourceUrl"`
	Title        *string `json:"title,omitempty"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// JobView is a job as shown to its owner.
type JobView struct {
	db.ContentJob
	Recipe       *db.Recipe      `json:"recipe,omitempty"`
	SavedContent *ContentSummary `json:"savedContent,omitempty"`
}

// Terminal reports whether the job will not change again.
func (v *JobView) Terminal() bool { return v.Status.Terminal() }

// GetJobStatus returns the job if ownerID owns it.
func (o *Orchestrator) GetJobStatus(ctx context.Context, jobID, ownerID uuid.UUID) (*JobView, error) {
	job, err := o.deps.Store.GetJob(ctx, jobID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return o.view(ctx, job)
}

// ListJobs returns the owner's jobs newest first. An empty statuses list
// means every status.
func (o *Orchestrator) ListJobs(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*JobView, error) {
	jobs, err := o.deps.Store.ListJobsByOwner(ctx, ownerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	views := make([]*JobView, 0, len(jobs))
	for _, job := range jobs {
		v, err := o.view(ctx, job)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (o *Orchestrator) view(ctx context.Context, job *db.ContentJob) (*JobView, error) {
	v := &JobView{ContentJob: *job}

	if job.SavedContentID != nil {
		sc, err := o.deps.Store.GetSavedContent(ctx, *job.SavedContentID)
		switch {
		case err == nil:
			v.SavedContent = &ContentSummary{SourceURL: sc.SourceURL, Title: sc.Title, ThumbnailURL: sc.ThumbnailURL}
		case !errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("get saved content: %w", err)
		}
	}

	if job.Status == db.JobStatusCompleted && job.ResultReference != nil {
		rec, err := o.deps.Recipes.GetRecipe(ctx, *job.ResultReference)
		switch {
		case err == nil:
			v.Recipe = rec
		case !errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("get recipe: %w", err)
		}
	}
	return v, nil
}
