package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/application"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "rechefctl %s\n", Version)
		v, err := ytdlpVersion(cmd.Context())
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "yt-dlp: unavailable (%v)\n", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "yt-dlp %s\n", v)
		return nil
	},
}

// ytdlpVersion reports the installed yt-dlp version. Tests replace it.
var ytdlpVersion = func(ctx context.Context) (string, error) {
	return application.NewYtDlp(toolConf.MediaConfig).Version(ctx)
}
