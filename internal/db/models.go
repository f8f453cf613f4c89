package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
)

var (
	// ErrNotFound is returned when a row lookup matches nothing.
	ErrNotFound = errors.New("db: not found")
	// ErrJobTerminal is returned when an update targets a completed or failed job.
	ErrJobTerminal = errors.New("db: job is in a terminal state")
)

// TitleMaxLength is the persisted limit for SavedContent titles, in characters.
const TitleMaxLength = 255

type ContentType string

const (
	ContentTypeVideo   ContentType = "video"
	ContentTypeImage   ContentType = "image"
	ContentTypeWebsite ContentType = "website"
)

type SavedContentStatus string

const (
	SavedContentStatusPending   SavedContentStatus = "pending"
	SavedContentStatusProcessed SavedContentStatus = "processed"
	SavedContentStatusFailed    SavedContentStatus = "failed"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus validates a status name from user input.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return JobStatus(s), true
	}
	return "", false
}

type SavedContent struct {
	ID           uuid.UUID          `json:"id"`
	OwnerID      uuid.UUID          `json:"ownerId"`
	ContentType  ContentType        `json:"contentType"`
	SourceURL    string             `json:"sourceUrl"`
	Title        *string            `json:"title,omitempty"`
	ThumbnailURL *string            `json:"thumbnailUrl,omitempty"`
	Status       SavedContentStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

type ContentJob struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"ownerId"`
	SavedContentID  *uuid.UUID `json:"savedContentId,omitempty"`
	Status          JobStatus  `json:"status"`
	Progress        int        `json:"progress"`
	ErrorMessage    *string    `json:"error,omitempty"`
	ResultReference *uuid.UUID `json:"resultReference,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Recipe struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"ownerId"`
	SavedContentID *uuid.UUID `json:"savedContentId,omitempty"`
	recipe.Generated
	SourceURL             *string   `json:"sourceUrl,omitempty"`
	SourceTitle           *string   `json:"sourceTitle,omitempty"`
	SourceAuthorName      *string   `json:"sourceAuthorName,omitempty"`
	SourceAuthorAvatarURL *string   `json:"sourceAuthorAvatarUrl,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type NewSavedContentParams struct {
	OwnerID      uuid.UUID
	ContentType  ContentType
	SourceURL    string
	Title        *string
	ThumbnailURL *string
}

type NewJobParams struct {
	OwnerID        uuid.UUID
	SavedContentID *uuid.UUID
}

// JobUpdate carries the optional parts of a job status write.
type JobUpdate struct {
	Status          JobStatus
	Progress        *int
	ErrorMessage    *string
	ResultReference *uuid.UUID
}

type ContentMetadata struct {
	Title        *string
	ThumbnailURL *string
}

type NewRecipeParams struct {
	OwnerID        uuid.UUID
	SavedContentID *uuid.UUID
	Recipe         recipe.Generated
	Provenance     recipe.Provenance
}
