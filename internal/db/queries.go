package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sleeqtechnologies/rechef/internal/recipe"
)

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const savedContentColumns = `id, owner_id, content_type, source_url, title, thumbnail_url, status, created_at, updated_at`

func scanSavedContent(row pgx.Row) (*SavedContent, error) {
	var sc SavedContent
	var contentType, status string
	if err := row.Scan(&sc.ID, &sc.OwnerID, &contentType, &sc.SourceURL, &sc.Title, &sc.ThumbnailURL, &status, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	sc.ContentType = ContentType(contentType)
	sc.Status = SavedContentStatus(status)
	return &sc, nil
}

const createSavedContent = `INSERT INTO saved_contents (id, owner_id, content_type, source_url, title, thumbnail_url, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING ` + savedContentColumns

func (q *Queries) CreateSavedContent(ctx context.Context, arg NewSavedContentParams) (*SavedContent, error) {
	row := q.db.QueryRow(ctx, createSavedContent,
		uuid.New(),
		arg.OwnerID,
		string(arg.ContentType),
		arg.SourceURL,
		TruncateText(arg.Title, TitleMaxLength),
		arg.ThumbnailURL,
	)
	return scanSavedContent(row)
}

const getSavedContent = `SELECT ` + savedContentColumns + ` FROM saved_contents WHERE id = $1`

func (q *Queries) GetSavedContent(ctx context.Context, id uuid.UUID) (*SavedContent, error) {
	return scanSavedContent(q.db.QueryRow(ctx, getSavedContent, id))
}

const updateSavedContentStatus = `UPDATE saved_contents SET status = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateSavedContentStatus(ctx context.Context, id uuid.UUID, status SavedContentStatus) error {
	tag, err := q.db.Exec(ctx, updateSavedContentStatus, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Only fields that are still unset are filled; a nil argument leaves the column alone.
const updateSavedContentMetadata = `UPDATE saved_contents
SET title = COALESCE(title, $2),
    thumbnail_url = COALESCE(thumbnail_url, $3),
    updated_at = now()
WHERE id = $1`

func (q *Queries) UpdateSavedContentMetadata(ctx context.Context, id uuid.UUID, meta ContentMetadata) error {
	tag, err := q.db.Exec(ctx, updateSavedContentMetadata, id, TruncateText(meta.Title, TitleMaxLength), meta.ThumbnailURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const jobColumns = `id, owner_id, saved_content_id, status, progress, error_message, result_reference, created_at, updated_at`

func scanJob(row pgx.Row) (*ContentJob, error) {
	var j ContentJob
	var status string
	if err := row.Scan(&j.ID, &j.OwnerID, &j.SavedContentID, &status, &j.Progress, &j.ErrorMessage, &j.ResultReference, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	j.Status = JobStatus(status)
	return &j, nil
}

const createJob = `INSERT INTO content_jobs (id, owner_id, saved_content_id, status, progress)
VALUES ($1, $2, $3, 'pending', 0)
RETURNING ` + jobColumns

func (q *Queries) CreateJob(ctx context.Context, arg NewJobParams) (*ContentJob, error) {
	return scanJob(q.db.QueryRow(ctx, createJob, uuid.New(), arg.OwnerID, arg.SavedContentID))
}

const getJob = `SELECT ` + jobColumns + ` FROM content_jobs WHERE id = $1`

func (q *Queries) GetJob(ctx context.Context, id uuid.UUID) (*ContentJob, error) {
	return scanJob(q.db.QueryRow(ctx, getJob, id))
}

// Terminal rows never match, and progress only moves forward.
const updateJobStatus = `UPDATE content_jobs
SET status = $2,
    progress = GREATEST(progress, COALESCE($3, progress)),
    error_message = COALESCE($4, error_message),
    result_reference = COALESCE($5, result_reference),
    updated_at = now()
WHERE id = $1 AND status NOT IN ('completed', 'failed')
RETURNING ` + jobColumns

func (q *Queries) UpdateJobStatus(ctx context.Context, id uuid.UUID, upd JobUpdate) (*ContentJob, error) {
	var progress *int
	if upd.Progress != nil {
		p := ClampProgress(*upd.Progress)
		progress = &p
	}
	job, err := scanJob(q.db.QueryRow(ctx, updateJobStatus, id, string(upd.Status), progress, upd.ErrorMessage, upd.ResultReference))
	if errors.Is(err, ErrNotFound) {
		// Distinguish a missing row from a terminal one.
		if _, getErr := q.GetJob(ctx, id); getErr == nil {
			return nil, ErrJobTerminal
		}
	}
	return job, err
}

const listJobsByOwner = `SELECT ` + jobColumns + ` FROM content_jobs
WHERE owner_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
ORDER BY created_at DESC`

func (q *Queries) ListJobsByOwner(ctx context.Context, ownerID uuid.UUID, statuses []JobStatus) ([]*ContentJob, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}
	rows, err := q.db.Query(ctx, listJobsByOwner, ownerID, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*ContentJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

const findStaleProcessingJobs = `SELECT ` + jobColumns + ` FROM content_jobs WHERE status = 'processing' ORDER BY created_at`

func (q *Queries) FindStaleProcessingJobs(ctx context.Context) ([]*ContentJob, error) {
	rows, err := q.db.Query(ctx, findStaleProcessingJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*ContentJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

const recoverStaleJobs = `WITH recovered AS (
    UPDATE content_jobs
    SET status = 'failed', error_message = $1, updated_at = now()
    WHERE status = 'processing'
    RETURNING saved_content_id
), contents AS (
    UPDATE saved_contents
    SET status = 'failed', updated_at = now()
    WHERE id IN (SELECT saved_content_id FROM recovered WHERE saved_content_id IS NOT NULL)
      AND status = 'pending'
)
SELECT count(*) FROM recovered`

// RecoverStaleProcessingJobs fails every processing job with message and
// returns how many were touched.
func (q *Queries) RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, recoverStaleJobs, message).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

const recipeColumns = `id, owner_id, saved_content_id, name, description, ingredients, instructions, servings,
prep_time_minutes, cook_time_minutes, image_url, source_url, source_title, source_author_name,
source_author_avatar_url, created_at, updated_at`

func scanRecipe(row pgx.Row) (*Recipe, error) {
	var r Recipe
	var ingredients, instructions []byte
	if err := row.Scan(&r.ID, &r.OwnerID, &r.SavedContentID, &r.Name, &r.Description, &ingredients, &instructions,
		&r.Servings, &r.PrepTimeMinutes, &r.CookTimeMinutes, &r.ImageURL, &r.SourceURL, &r.SourceTitle,
		&r.SourceAuthorName, &r.SourceAuthorAvatarURL, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(ingredients, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if err := json.Unmarshal(instructions, &r.Instructions); err != nil {
		return nil, fmt.Errorf("decode instructions: %w", err)
	}
	return &r, nil
}

const createRecipe = `INSERT INTO recipes (id, owner_id, saved_content_id, name, description, ingredients, instructions,
servings, prep_time_minutes, cook_time_minutes, image_url, source_url, source_title, source_author_name,
source_author_avatar_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + recipeColumns

func (q *Queries) CreateRecipe(ctx context.Context, arg NewRecipeParams) (*Recipe, error) {
	g := arg.Recipe
	if g.Ingredients == nil {
		g.Ingredients = []recipe.Ingredient{}
	}
	if g.Instructions == nil {
		g.Instructions = []string{}
	}
	ingredients, err := json.Marshal(g.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}
	instructions, err := json.Marshal(g.Instructions)
	if err != nil {
		return nil, fmt.Errorf("encode instructions: %w", err)
	}

	var sourceURL *string
	if arg.Provenance.SourceURL != "" {
		sourceURL = &arg.Provenance.SourceURL
	}
	name := g.Name
	if n := TruncateText(&name, TitleMaxLength); n != nil {
		name = *n
	}

	return scanRecipe(q.db.QueryRow(ctx, createRecipe,
		uuid.New(), arg.OwnerID, arg.SavedContentID, name, g.Description, ingredients, instructions,
		g.Servings, g.PrepTimeMinutes, g.CookTimeMinutes, g.ImageURL, sourceURL,
		TruncateText(arg.Provenance.SourceTitle, TitleMaxLength),
		TruncateText(arg.Provenance.SourceAuthorName, TitleMaxLength),
		arg.Provenance.SourceAuthorAvatarURL,
	))
}

const getRecipe = `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

func (q *Queries) GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	return scanRecipe(q.db.QueryRow(ctx, getRecipe, id))
}
