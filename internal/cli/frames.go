package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sleeqtechnologies/rechef/internal/media"
	"github.com/sleeqtechnologies/rechef/pkg/utils/format"
)

var (
	framesInterval float64
	framesMax      int
	framesFormat   string
	framesWidth    int
)

var framesCmd = &cobra.Command{
	Use:   "frames <video>",
	Short: "Sample frames from a local video",
	Long: `Probe a local video and sample frames the way the pipeline does, without
classifying them. Useful for checking ffmpeg and the sampling plan.

Examples:
  rechefctl frames clip.mp4
  rechefctl frames --interval 3 --max 10 long-video.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func init() {
	framesCmd.Flags().Float64Var(&framesInterval, "interval", 2, "seconds between frames")
	framesCmd.Flags().IntVarP(&framesMax, "max", "n", 8, "max frames")
	framesCmd.Flags().StringVar(&framesFormat, "format", "jpg", "frame format: jpg or png")
	framesCmd.Flags().IntVar(&framesWidth, "width", media.DefaultFrameWidth, "max frame width")
}

// newSampler builds the frame sampler. Tests replace it.
var newSampler = func() *media.Sampler {
	return media.NewSampler(toolConf.SpoolDir)
}

func runFrames(cmd *cobra.Command, args []string) error {
	opts := media.Options{
		IntervalSeconds: framesInterval,
		MaxFrames:       framesMax,
		Format:          framesFormat,
		Width:           framesWidth,
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Timestamp", "Type", "Size"})

	var total uint64
	frames, err := media.StreamKept(cmd.Context(), newSampler(), args[0], opts, func(_ context.Context, f media.Frame) (*media.Frame, error) {
		data, err := f.Bytes()
		if err != nil {
			return nil, err
		}
		total += uint64(len(data))
		t.AppendRow(table.Row{f.Index, format.Offset(f.TimestampSeconds), f.MIMEType, humanize.Bytes(uint64(len(data)))})
		return &f, nil
	})
	if err != nil {
		return fmt.Errorf("sample frames: %w", err)
	}

	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames, %s\n", len(frames), humanize.Bytes(total))
	return nil
}
