package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// FrameOptions configures single-frame extraction.
type FrameOptions struct {
	MaxWidth int // Maximum width (default: 640)
	Quality  int // JPEG quality 1-31, lower is better (default: 4)
}

// FrameCommand builds the command that writes the frame at offset seconds of
// input to output. The output extension selects the image encoder.
func FrameCommand(input, output string, offset float64, opts *FrameOptions) *Command {
	if opts == nil {
		opts = &FrameOptions{}
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 640
	}
	if opts.Quality == 0 {
		opts.Quality = 4
	}

	cmdOpts := []Option{
		LogLevel("error"),
		SeekSeconds(offset),
		ScaleWidth(opts.MaxWidth),
		Frames(1),
		NoAudio,
	}
	if ext := strings.ToLower(filepath.Ext(output)); ext == ".jpg" || ext == ".jpeg" {
		cmdOpts = append(cmdOpts, Quality(opts.Quality))
	}
	return NewCommand(input, output, cmdOpts...)
}

// ExtractFrame writes a single still image taken offset seconds into input.
func ExtractFrame(ctx context.Context, input, output string, offset float64, opts *FrameOptions) error {
	if offset < 0 {
		return fmt.Errorf("ffmpeg: negative frame offset %v", offset)
	}
	return FrameCommand(input, output, offset, opts).Run(ctx)
}
