package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the durable job store backed by Postgres.
type Store struct {
	dbc *DatabaseConnection
}

func NewStore(dbc *DatabaseConnection) *Store {
	return &Store{dbc: dbc}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.dbc.Ping(ctx)
}

// CreateSubmission inserts a SavedContent and its linked pending ContentJob in
// one transaction.
func (s *Store) CreateSubmission(ctx context.Context, content NewSavedContentParams) (*SavedContent, *ContentJob, error) {
	q, tx, err := s.dbc.NewWithTX(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	sc, err := q.CreateSavedContent(ctx, content)
	if err != nil {
		return nil, nil, fmt.Errorf("create saved content: %w", err)
	}
	job, err := q.CreateJob(ctx, NewJobParams{OwnerID: content.OwnerID, SavedContentID: &sc.ID})
	if err != nil {
		return nil, nil, fmt.Errorf("create job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit submission: %w", err)
	}
	return sc, job, nil
}

func (s *Store) CreateSavedContent(ctx context.Context, arg NewSavedContentParams) (*SavedContent, error) {
	return s.dbc.Queries(ctx).CreateSavedContent(ctx, arg)
}

func (s *Store) CreateJob(ctx context.Context, arg NewJobParams) (*ContentJob, error) {
	return s.dbc.Queries(ctx).CreateJob(ctx, arg)
}

func (s *Store) GetSavedContent(ctx context.Context, id uuid.UUID) (*SavedContent, error) {
	return s.dbc.Queries(ctx).GetSavedContent(ctx, id)
}

func (s *Store) UpdateSavedContentStatus(ctx context.Context, id uuid.UUID, status SavedContentStatus) error {
	return s.dbc.Queries(ctx).UpdateSavedContentStatus(ctx, id, status)
}

func (s *Store) UpdateSavedContentMetadata(ctx context.Context, id uuid.UUID, meta ContentMetadata) error {
	return s.dbc.Queries(ctx).UpdateSavedContentMetadata(ctx, id, meta)
}

func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*ContentJob, error) {
	return s.dbc.Queries(ctx).GetJob(ctx, id)
}

func (s *Store) UpdateJobStatus(ctx context.Context, id uuid.UUID, upd JobUpdate) (*ContentJob, error) {
	return s.dbc.Queries(ctx).UpdateJobStatus(ctx, id, upd)
}

func (s *Store) ListJobsByOwner(ctx context.Context, ownerID uuid.UUID, statuses []JobStatus) ([]*ContentJob, error) {
	return s.dbc.Queries(ctx).ListJobsByOwner(ctx, ownerID, statuses)
}

func (s *Store) FindStaleProcessingJobs(ctx context.Context) ([]*ContentJob, error) {
	return s.dbc.Queries(ctx).FindStaleProcessingJobs(ctx)
}

func (s *Store) RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error) {
	return s.dbc.Queries(ctx).RecoverStaleProcessingJobs(ctx, message)
}

func (s *Store) CreateRecipe(ctx context.Context, arg NewRecipeParams) (*Recipe, error) {
	return s.dbc.Queries(ctx).CreateRecipe(ctx, arg)
}

func (s *Store) GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	return s.dbc.Queries(ctx).GetRecipe(ctx, id)
}
