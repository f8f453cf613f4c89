package jobstore

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleeqtechnologies/rechef/internal/db"
)

func ptr[T any](v T) *T { return &v }

func submit(t *testing.T, m *Memory, owner uuid.UUID) (*db.SavedContent, *db.ContentJob) {
	t.Helper()
	sc, job, err := m.CreateSubmission(context.Background(), db.NewSavedContentParams{
		OwnerID:     owner,
		ContentType: db.ContentTypeWebsite,
		SourceURL:   "https://example.com/recipe",
	})
	require.NoError(t, err)
	return sc, job
}

func TestMemory_CreateSubmission(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	sc, job := submit(t, m, owner)

	assert.Equal(t, db.SavedContentStatusPending, sc.Status)
	assert.Equal(t, db.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	require.NotNil(t, job.SavedContentID)
	assert.Equal(t, sc.ID, *job.SavedContentID)
}

func TestMemory_UpdateJobStatus_WriteOnceAndMonotone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, job := submit(t, m, uuid.New())

	got, err := m.UpdateJobStatus(ctx, job.ID, db.JobUpdate{Status: db.JobStatusProcessing, Progress: ptr(60)})
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)

	got, err = m.UpdateJobStatus(ctx, job.ID, db.JobUpdate{Status: db.JobStatusProcessing, Progress: ptr(30)})
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress, "progress must not regress")

	_, err = m.UpdateJobStatus(ctx, job.ID, db.JobUpdate{Status: db.JobStatusFailed, ErrorMessage: ptr("boom")})
	require.NoError(t, err)

	_, err = m.UpdateJobStatus(ctx, job.ID, db.JobUpdate{Status: db.JobStatusCompleted, Progress: ptr(100)})
	assert.ErrorIs(t, err, db.ErrJobTerminal)

	final, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, db.JobStatusFailed, final.Status)
	assert.Equal(t, "boom", *final.ErrorMessage)

	_, err = m.UpdateJobStatus(ctx, uuid.New(), db.JobUpdate{Status: db.JobStatusProcessing})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestMemory_RecoverStaleProcessingJobs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := uuid.New()

	var processing []uuid.UUID
	for i := 0; i < 3; i++ {
		_, job := submit(t, m, owner)
		_, err := m.UpdateJobStatus(ctx, job.ID, db.JobUpdate{Status: db.JobStatusProcessing, Progress: ptr(10)})
		require.NoError(t, err)
		processing = append(processing, job.ID)
	}
	_, pending := submit(t, m, owner)
	_, done := submit(t, m, owner)
	_, err := m.UpdateJobStatus(ctx, done.ID, db.JobUpdate{Status: db.JobStatusCompleted, Progress: ptr(100)})
	require.NoError(t, err)

	stale, err := m.FindStaleProcessingJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 3)

	n, err := m.RecoverStaleProcessingJobs(ctx, "Recovered after process restart")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, id := range processing {
		job, err := m.GetJob(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, db.JobStatusFailed, job.Status)
		assert.Equal(t, "Recovered after process restart", *job.ErrorMessage)
		sc, err := m.GetSavedContent(ctx, *job.SavedContentID)
		require.NoError(t, err)
		assert.Equal(t, db.SavedContentStatusFailed, sc.Status)
	}

	p, _ := m.GetJob(ctx, pending.ID)
	assert.Equal(t, db.JobStatusPending, p.Status)
	d, _ := m.GetJob(ctx, done.ID)
	assert.Equal(t, db.JobStatusCompleted, d.Status)

	n, err = m.RecoverStaleProcessingJobs(ctx, "Recovered after process restart")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "recovery is idempotent")
}

func TestMemory_ListJobsByOwner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	owner := uuid.New()

	_, first := submit(t, m, owner)
	_, second := submit(t, m, owner)
	submit(t, m, uuid.New())
	_, err := m.UpdateJobStatus(ctx, first.ID, db.JobUpdate{Status: db.JobStatusFailed})
	require.NoError(t, err)

	all, err := m.ListJobsByOwner(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	failed, err := m.ListJobsByOwner(ctx, owner, []db.JobStatus{db.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, first.ID, failed[0].ID)
}

func TestMemory_MetadataOnlyFillsUnset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	sc, _ := submit(t, m, uuid.New())

	long := strings.Repeat("é", db.TitleMaxLength+10)
	require.NoError(t, m.UpdateSavedContentMetadata(ctx, sc.ID, db.ContentMetadata{Title: &long, ThumbnailURL: ptr("https://t/1.jpg")}))
	require.NoError(t, m.UpdateSavedContentMetadata(ctx, sc.ID, db.ContentMetadata{Title: ptr("Other"), ThumbnailURL: ptr("https://t/2.jpg")}))

	got, err := m.GetSavedContent(ctx, sc.ID)
	require.NoError(t, err)
	assert.Len(t, []rune(*got.Title), db.TitleMaxLength)
	assert.Equal(t, "https://t/1.jpg", *got.ThumbnailURL)

	assert.ErrorIs(t, m.UpdateSavedContentMetadata(ctx, uuid.New(), db.ContentMetadata{}), db.ErrNotFound)
}
