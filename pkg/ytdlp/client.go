package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ExecError is a failed yt-dlp invocation.
type ExecError struct {
	Cmd      string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Cause    error
}

func (e *ExecError) Error() string {
	cmdline := strings.TrimSpace(e.Cmd + " " + strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		return fmt.Sprintf("ytdlp: command failed (exit %d): %s", e.ExitCode, cmdline)
	}
	return fmt.Sprintf("ytdlp: command failed: %s", cmdline)
}

func (e *ExecError) Unwrap() error { return e.Cause }

// Reason returns the last "ERROR:" line yt-dlp printed, if any.
func (e *ExecError) Reason() string {
	lines := strings.Split(e.Stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "ERROR:"))
		}
	}
	return ""
}

// Client runs yt-dlp in metadata-only mode.
type Client struct {
	// Path to yt-dlp executable. Defaults to "yt-dlp" (PATH lookup).
	Path string

	// CookiesFile is passed as --cookies when set; Instagram and Facebook
	// often refuse anonymous metadata requests.
	CookiesFile string

	// ExtraArgs are always appended before per-call args.
	ExtraArgs []string

	execFn func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

func New() *Client {
	return &Client{Path: "yt-dlp"}
}

// NewWithExec returns a client whose commands are served by fn instead of a
// real yt-dlp process.
func NewWithExec(fn func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)) *Client {
	return &Client{Path: "yt-dlp", execFn: fn}
}

func (c *Client) exec(ctx context.Context, args ...string) (stdout []byte, stderr []byte, err error) {
	name := c.PathOrDefault()

	fullArgs := make([]string, 0, len(c.ExtraArgs)+len(args)+3)
	fullArgs = append(fullArgs, c.ExtraArgs...)
	if c.CookiesFile != "" {
		fullArgs = append(fullArgs, "--cookies", c.CookiesFile)
	}
	fullArgs = append(fullArgs, args...)

	if c.execFn != nil {
		return c.execFn(ctx, name, fullArgs...)
	}

	slog.Debug("ytdlp: executing command", "cmd", name, "args", fullArgs)
	cmd := exec.CommandContext(ctx, name, fullArgs...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Version returns `yt-dlp --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := c.exec(ctx, "--version")
	if err != nil {
		return "", wrapExecError(c.PathOrDefault(), []string{"--version"}, stdout, stderr, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Format is one downloadable rendition from yt-dlp's format list.
type Format struct {
	FormatID string  `json:"format_id"`
	URL      string  `json:"url"`
	Ext      string  `json:"ext"`
	Protocol string  `json:"protocol"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	TBR      float64 `json:"tbr"`
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// SubtitleTrack is one entry of yt-dlp's subtitles/automatic_captions maps.
type SubtitleTrack struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Info is a light wrapper over yt-dlp JSON output. It intentionally models only common fields.
// The full JSON is preserved in Raw.
type Info struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Description       string                     `json:"description"`
	WebpageURL        string                     `json:"webpage_url"`
	Extractor         string                     `json:"extractor"`
	ExtractorKey      string                     `json:"extractor_key"`
	Uploader          string                     `json:"uploader"`
	Channel           string                     `json:"channel"`
	Thumbnail         string                     `json:"thumbnail"`
	Duration          float64                    `json:"duration"`
	URL               string                     `json:"url"`
	Ext               string                     `json:"ext"`
	VCodec            string                     `json:"vcodec"`
	Formats           []Format                   `json:"formats"`
	Subtitles         map[string][]SubtitleTrack `json:"subtitles"`
	AutomaticCaptions map[string][]SubtitleTrack `json:"automatic_captions"`
	Entries           []json.RawMessage          `json:"entries,omitempty"`
	Raw               json.RawMessage            `json:"-"`
}

// Author returns the best available display name for the uploader.
func (i *Info) Author() string {
	if s := strings.TrimSpace(i.Uploader); s != "" {
		return s
	}
	return strings.TrimSpace(i.Channel)
}

// GetInfo runs yt-dlp in "metadata only" mode and parses its JSON output.
// It uses: --dump-single-json --skip-download
func (c *Client) GetInfo(ctx context.Context, url string, extraArgs ...string) (*Info, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("ytdlp: url is required")
	}

	args := []string{"--dump-single-json", "--skip-download", "--no-warnings", "--no-playlist"}
	args = append(args, extraArgs...)
	args = append(args, url)

	stdout, stderr, err := c.exec(ctx, args...)
	if err != nil {
		return nil, wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}

	raw := bytes.TrimSpace(stdout)
	info := &Info{Raw: append([]byte(nil), raw...)}
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, fmt.Errorf("ytdlp: parse json: %w", err)
	}

	return info, nil
}

// PathOrDefault returns the configured path or "yt-dlp" if unset.
func (c *Client) PathOrDefault() string {
	if strings.TrimSpace(c.Path) == "" {
		return "yt-dlp"
	}
	return c.Path
}

func wrapExecError(cmd string, args []string, stdout []byte, stderr []byte, cause error) error {
	exitCode := 0
	var ee *exec.ExitError
	if errors.As(cause, &ee) {
		exitCode = ee.ExitCode()
	}

	return &ExecError{
		Cmd:      cmd,
		Args:     args,
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
		Cause:    cause,
	}
}
