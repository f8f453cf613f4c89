package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Binary and ProbeBinary name the executables; override for non-PATH installs.
var (
	Binary      = "ffmpeg"
	ProbeBinary = "ffprobe"
)

// run executes ffmpeg and waits for it. Stderr is only kept for the error.
func run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, Binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Stderr: stderr.String(), Err: err}
	}
	return nil
}

// Error is a failed ffmpeg or ffprobe invocation.
type Error struct {
	Stderr string
	Err    error
}

// Error reports the exit status with the tail of stderr.
func (e *Error) Error() string {
	lines := strings.Split(strings.TrimSpace(e.Stderr), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	if tail := strings.Join(lines, "\n"); tail != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, tail)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
