package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/application"
	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/db"
	"github.com/sleeqtechnologies/rechef/pkg/utils/format"
)

var (
	jobsOwner    string
	jobsStatuses []string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List a user's content jobs",
	Long: `List content jobs for one owner, newest first.

Examples:
  rechefctl jobs --owner 5f0c...
  rechefctl jobs --owner 5f0c... --status failed,processing`,
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsOwner, "owner", "", "owner user id")
	jobsCmd.Flags().StringSliceVarP(&jobsStatuses, "status", "s", nil, "filter by status")
	_ = jobsCmd.MarkFlagRequired("owner")
}

// jobStore is the part of the job store the CLI reads and repairs.
type jobStore interface {
	ListJobsByOwner(ctx context.Context, ownerID uuid.UUID, statuses []db.JobStatus) ([]*db.ContentJob, error)
	FindStaleProcessingJobs(ctx context.Context) ([]*db.ContentJob, error)
	RecoverStaleProcessingJobs(ctx context.Context, message string) (int, error)
}

// openStore connects to DATABASE_DSN. Tests replace it.
var openStore = func(ctx context.Context) (jobStore, func(), error) {
	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return application.OpenStore(ctx, *conf, false)
}

func runJobs(cmd *cobra.Command, args []string) error {
	owner, err := uuid.Parse(jobsOwner)
	if err != nil {
		return fmt.Errorf("invalid owner id: %w", err)
	}
	var statuses []db.JobStatus
	for _, s := range jobsStatuses {
		st, ok := db.ParseJobStatus(s)
		if !ok {
			return fmt.Errorf("invalid status %q", s)
		}
		statuses = append(statuses, st)
	}

	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	jobs, err := store.ListJobsByOwner(cmd.Context(), owner, statuses)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	renderJobs(cmd, jobs)
	return nil
}

func renderJobs(cmd *cobra.Command, jobs []*db.ContentJob) {
	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
		return
	}
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Status", "Progress", "Updated", "Error"})
	for _, j := range jobs {
		msg := ""
		if j.ErrorMessage != nil {
			msg = format.Truncate(*j.ErrorMessage, 48)
		}
		t.AppendRow(table.Row{j.ID, j.Status, fmt.Sprintf("%d%%", j.Progress), humanize.Time(j.UpdatedAt), msg})
	}
	t.Render()
}
