package content_api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sleeqtechnologies/rechef/cmd/api/handlers/common"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/pipeline"
)

// HandleStatus returns one job with its saved content and, once completed,
// its recipe.
func HandleStatus(jobs Jobs) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := common.RequireOwner(c)
		if err != nil {
			return err
		}
		jobID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		view, err := jobs.GetJobStatus(c.Request().Context(), jobID, ownerID)
		if err != nil {
			return jobError(c, err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

// HandleList returns the caller's jobs newest first. The optional status
// query parameter is a comma separated list of job statuses.
func HandleList(jobs Jobs) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := common.RequireOwner(c)
		if err != nil {
			return err
		}

		var statuses []db.JobStatus
		for _, part := range strings.Split(c.QueryParam("status"), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, ok := db.ParseJobStatus(part)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status: " + part})
			}
			statuses = append(statuses, s)
		}

		views, err := jobs.ListJobs(c.Request().Context(), ownerID, statuses)
		if err != nil {
			slog.Error("failed to list jobs", "error", err, "owner_id", ownerID)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch jobs"})
		}
		return c.JSON(http.StatusOK, map[string]any{"jobs": views})
	}
}

func jobError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	case errors.Is(err, pipeline.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	default:
		slog.Error("failed to fetch job", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch job"})
	}
}
