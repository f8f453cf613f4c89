package content_api

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/sleeqtechnologies/rechef/cmd/api/handlers/common"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/internal/pipeline"
)

// JobSignals is the datastar signal set patched on every job change.
type JobSignals struct {
	JobStatus   db.JobStatus `json:"jobStatus"`
	JobProgress int          `json:"jobProgress"`
	JobError    string       `json:"jobError"`
	RecipeID    string       `json:"recipeId"`
}

func signalsFor(v *pipeline.JobView) JobSignals {
	s := JobSignals{JobStatus: v.Status, JobProgress: v.Progress}
	if v.ErrorMessage != nil {
		s.JobError = *v.ErrorMessage
	}
	if v.ResultReference != nil {
		s.RecipeID = v.ResultReference.String()
	}
	return s
}

// EventsOptions tunes the job event stream.
type EventsOptions struct {
	PollInterval time.Duration
	// Timeout closes streams that never see a terminal state.
	Timeout time.Duration
}

// HandleEvents streams job progress as datastar signal patches until the job
// completes or fails.
func HandleEvents(jobs Jobs, opts EventsOptions) echo.HandlerFunc {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}

	return func(c echo.Context) error {
		ownerID, err := common.RequireOwner(c)
		if err != nil {
			return err
		}
		jobID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		view, err := jobs.GetJobStatus(ctx, jobID, ownerID)
		if err != nil {
			return jobError(c, err)
		}

		// Set up SSE
		common.SetSSEHeaders(c)

		sse := datastar.NewSSE(c.Response().Writer, c.Request())

		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()

		// Add timeout to prevent zombie connections
		timeout := time.NewTimer(opts.Timeout)
		defer timeout.Stop()

		var last JobSignals
		for {
			signals := signalsFor(view)
			if signals != last {
				last = signals
				payload, err := json.Marshal(signals)
				if err != nil {
					return err
				}
				if err := sse.PatchSignals(payload); err != nil {
					slog.Error("failed to send SSE patch", "error", err, "job_id", jobID)
					return err
				}
			}
			if view.Terminal() {
				slog.Info("Job finished, closing SSE connection", "job_id", jobID, "status", view.Status)
				return nil
			}

			select {
			case <-ctx.Done():
				slog.Info("SSE connection closed by client", "job_id", jobID)
				return nil
			case <-timeout.C:
				slog.Warn("SSE connection timeout", "job_id", jobID)
				return nil
			case <-ticker.C:
				view, err = jobs.GetJobStatus(ctx, jobID, ownerID)
				if err != nil {
					slog.Error("failed to fetch job for SSE", "error", err, "job_id", jobID)
					return err
				}
			}
		}
	}
}
