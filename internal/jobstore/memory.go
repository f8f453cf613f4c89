// Package jobstore provides an in-memory job store with the same semantics
// as the Postgres store in internal/db: terminal jobs are write-once,
// progress never moves backwards and recovery fails every processing job.
package jobstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sleeqtechnologies/rechef/internal/db"
)

type Memory struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]db.SavedContent
	jobs     map[uuid.UUID]db.ContentJob
	recipes  map[uuid.UUID]db.Recipe
	// order keeps job ids in creation order for listing.
	order []uuid.UUID
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		contents: make(map[uuid.UUID]db.SavedContent),
		jobs:     make(map[uuid.UUID]db.ContentJob),
		recipes:  make(map[uuid.UUID]db.Recipe),
		now:      time.Now,
	}
}

func (m *Memory) CreateSubmission(ctx context.Context, content db.NewSavedContentParams) (*db.SavedContent, *db.ContentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.createSavedContent(content)
	job := m.createJob(db.NewJobParams{OwnerID: content.OwnerID, SavedContentID: &sc.ID})
	return &sc, &job, nil
}

func (m *Memory) CreateSavedContent(ctx context.Context, arg db.NewSavedContentParams) (*db.SavedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.createSavedContent(arg)
	return &sc, nil
}

func (m *Memory) createSavedContent(arg db.NewSavedContentParams) db.SavedContent {
	now := m.now()
	sc := db.SavedContent{
		ID:           uuid.New(),
		OwnerID:      arg.OwnerID,
		ContentType:  arg.ContentType,
		SourceURL:    arg.SourceURL,
		Title:        db.TruncateText(arg.Title, db.TitleMaxLength),
		ThumbnailURL: arg.ThumbnailURL,
		Status:       db.SavedContentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.contents[sc.ID] = sc
	return sc
}

func (m *Memory) CreateJob(ctx context.Context, arg db.NewJobParams) (*db.ContentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.createJob(arg)
	return &job, nil
}

func (m *Memory) createJob(arg db.NewJobParams) db.ContentJob {
	now := m.now()
	job := db.ContentJob{
		ID:             uuid.New(),
		OwnerID:        arg.OwnerID,
		SavedContentID: arg.SavedContentID,
		Status:         db.JobStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	return job
}

func (m *Memory) GetSavedContent(ctx context.Context, id uuid.UUID) (*db.SavedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.contents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &sc, nil
}

func (m *Memory) UpdateSavedContentStatus(ctx context.Context, id uuid.UUID, status db.SavedContentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.contents[id]
	if !ok {
		return db.ErrNotFound
	}
	sc.Status = status
	sc.UpdatedAt = m.now()
	m.contents[id] = sc
	return nil
}

func (m *Memory) UpdateSavedContentMetadata(ctx context.Context, id uuid.UUID, meta db.ContentMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.contents[id]
	if !ok {
		return db.ErrNotFound
	}
	if sc.Title == nil {
		sc.Title = db.TruncateText(meta.Title, db.TitleMaxLength)
	}
	if sc.ThumbnailURL == nil {
		sc.ThumbnailURL = meta.ThumbnailURL
	}
	sc.UpdatedAt = m.now()
	m.contents[id] = sc
	return nil
}

func (m *Memory) GetJob(ctx context.Context, id uuid.UUID) (*db.ContentJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &job, nil
}

func (m *Memory) UpdateJobStatus(ctx context.Context, id uuid.UUID, upd db.JobUpdate) (*db.ContentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil, db.ErrJobTerminal
	}

	job.Status = upd.Status
	if upd.Progress != nil {
		job.Progress = max(job.Progress, db.ClampProgress(*upd.Progress))
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = upd.ErrorMessage
	}
	if upd.ResultReference != nil {
		job.ResultReference = upd.ResultReference
	}
	job.UpdatedAt = m.now()
	m.jobs[id] = job
	return &job, nil
}

// ListJobsByOwner returns the owner's jobs newest first, optionally filtered
// by status.
func (m *Memory) ListJobsByOwner(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*db.ContentJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*db.ContentJob
	for i := len(m.order) - 1; i >= 0; i-- {
		job := m.jobs[m.order[i]]
		if job.OwnerID != ownerID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, job.Status) {
			continue
		}
		out = append(out, &job)
	}
	return out, nil
}

func (m *Memory) FindStaleProcessingJobs(ctx context.Context) ([]*db.ContentJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*db.ContentJob
	for _, id := range m.order {
		if job := m.jobs[id]; job.Status == db.JobStatusProcessing {
			out = append(out, &job)
		}
	}
	return out, nil
}

func (m *Memory) RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, id := range m.order {
		job := m.jobs[id]
		if job.Status != db.JobStatusProcessing {
			continue
		}
		job.Status = db.JobStatusFailed
		job.ErrorMessage = &message
		job.UpdatedAt = now
		m.jobs[id] = job
		n++

		if job.SavedContentID == nil {
			continue
		}
		if sc, ok := m.contents[*job.SavedContentID]; ok && sc.Status == db.SavedContentStatusPending {
			sc.Status = db.SavedContentStatusFailed
			sc.UpdatedAt = now
			m.contents[sc.ID] = sc
		}
	}
	return n, nil
}

func (m *Memory) CreateRecipe(ctx context.Context, arg db.NewRecipeParams) (*db.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	r := db.Recipe{
		ID:                    uuid.New(),
		OwnerID:               arg.OwnerID,
		SavedContentID:        arg.SavedContentID,
		Generated:             arg.Recipe,
		SourceTitle:           db.TruncateText(arg.Provenance.SourceTitle, db.TitleMaxLength),
		SourceAuthorName:      db.TruncateText(arg.Provenance.SourceAuthorName, db.TitleMaxLength),
		SourceAuthorAvatarURL: arg.Provenance.SourceAuthorAvatarURL,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if arg.Provenance.SourceURL != "" {
		u := arg.Provenance.SourceURL
		r.SourceURL = &u
	}
	m.recipes[r.ID] = r
	return &r, nil
}

func (m *Memory) GetRecipe(ctx context.Context, id uuid.UUID) (*db.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &r, nil
}

// Recipes returns every stored recipe.
func (m *Memory) Recipes() []db.Recipe {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]db.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		out = append(out, r)
	}
	return out
}
