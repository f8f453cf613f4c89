package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/pipeline"
)

var recoverDryRun bool

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Fail jobs interrupted by a restart",
	Long: `Mark every job still in processing as failed with the recovery message.

The api service runs this on startup. Run it by hand only when no api process
is running, or live jobs will be failed as well.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().BoolVar(&recoverDryRun, "dry-run", false, "list stale jobs without changing them")
}

func runRecover(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	if recoverDryRun {
		stale, err := store.FindStaleProcessingJobs(cmd.Context())
		if err != nil {
			return fmt.Errorf("find stale jobs: %w", err)
		}
		renderJobs(cmd, stale)
		return nil
	}

	n, err := pipeline.RecoverStaleJobs(cmd.Context(), store, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recovered %d jobs\n", n)
	return nil
}
