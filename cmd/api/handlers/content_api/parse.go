// Package content_api provides content ingestion API handlers.
package content_api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sleeqtechnologies/rechef/cmd/api/handlers/common"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/pipeline"
)

// Jobs is the part of the orchestrator the handlers use.
type Jobs interface {
	Submit(ctx context.Context, req pipeline.SubmitRequest, ownerID uuid.UUID) (*pipeline.SubmitResult, error)
	GetJobStatus(ctx context.Context, jobID, ownerID uuid.UUID) (*pipeline.JobView, error)
	ListJobs(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*pipeline.JobView, error)
}

// HandleParse accepts a URL or an uploaded picture and starts a job. It
// answers 202 as soon as the job exists.
func HandleParse(jobs Jobs) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := common.RequireOwner(c)
		if err != nil {
			return err
		}

		var req pipeline.SubmitRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
		}

		res, err := jobs.Submit(c.Request().Context(), req, ownerID)
		if err != nil {
			var verr *pipeline.ValidationError
			if errors.As(err, &verr) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Message})
			}
			slog.Error("failed to submit content", "error", err, "owner_id", ownerID)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start processing"})
		}

		return c.JSON(http.StatusAccepted, res)
	}
}
