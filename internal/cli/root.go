// Package cli provides the rechefctl operator command-line interface.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/config"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags
	verbose bool

	// toolConf is loaded before every command runs.
	toolConf = &config.ToolConfig{}
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rechefctl",
	Short: "Operate the rechef content ingestion pipeline",
	Long: `rechefctl inspects and operates the rechef ingestion pipeline.

It can classify submission URLs, dry-run platform extraction, sample frames
from a local video, list a user's jobs, and run the stale job recovery sweep.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(); err != nil {
			return err
		}
		conf, err := config.LoadToolConfig(cmd.Context())
		if err != nil {
			return err
		}
		toolConf = conf

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		var logger *slog.Logger
		logger, closeLog = config.NewLogger(cmd.ErrOrStderr(), conf.LogFile, level)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(versionCmd)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
