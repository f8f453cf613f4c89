// Package ffmpeg builds and runs the ffmpeg/ffprobe invocations used to sample
// still frames from staged videos.
package ffmpeg

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Command represents an ffmpeg command being built.
type Command struct {
	input     string
	output    string
	preInput  []string // args before -i (like -ss for input seeking)
	postInput []string // args after -i
	filters   []string // collected -vf filters
}

// Option modifies a Command. Options are composable and order-independent
// (ffmpeg will receive args in correct order regardless of option order).
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command with input/output and applies options.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{
		input:  input,
		output: output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}

	// Pre-input args (seeking)
	args = append(args, c.preInput...)

	args = append(args, "-i", c.input)

	args = append(args, c.postInput...)

	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}

	args = append(args, c.output)

	return args
}

// Run executes the ffmpeg command.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.Build())
}

// --- Seeking Options ---

// Seek sets the start position (input seeking, before -i).
func Seek(start time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatDuration(start))
	})
}

// SeekSeconds is Seek for fractional second offsets.
func SeekSeconds(seconds float64) Option {
	return Seek(time.Duration(seconds * float64(time.Second)))
}

// --- Output Options ---

// Frames sets the number of frames to output (-frames:v).
func Frames(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-frames:v", itoa(n))
	})
}

// Quality sets the output quality for images (-q:v).
func Quality(q int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-q:v", itoa(q))
	})
}

// NoAudio disables audio in output (-an).
var NoAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-an")
})

// --- Filter Options ---

// Filter adds a video filter to the filter chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// --- Misc ---

// LogLevel sets the logging level.
func LogLevel(level string) Option {
	return OptionFunc(func(cmd *Command) {
		// Insert at beginning of preInput so it's early in args
		cmd.preInput = append([]string{"-loglevel", level}, cmd.preInput...)
	})
}

// --- Utility ---

func formatDuration(d time.Duration) string {
	// Format as seconds with millisecond precision for ffmpeg
	secs := d.Seconds()
	return strconv.FormatFloat(secs, 'f', 3, 64)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
