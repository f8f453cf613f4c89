package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const stagedFileName = "video.mp4"

// DownloadError reports a media URL that answered with a non-2xx status.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransientError wraps network, timeout and write failures while staging.
type TransientError struct {
	URL string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("download interrupted: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Stager streams remote media into a private temporary directory.
type Stager struct {
	Client *http.Client
	// SpoolDir is the parent of every staging directory. Empty uses os.TempDir.
	SpoolDir string
	// Timeout bounds a single download. Zero relies on the context alone.
	Timeout time.Duration
}

// Staged is a downloaded media file and the directory that owns it.
type Staged struct {
	Dir  string
	Path string
	Size int64
}

// Cleanup removes the staging directory. Failures are logged.
func (s *Staged) Cleanup() {
	if s == nil || s.Dir == "" {
		return
	}
	removeDir(s.Dir)
}

func (st *Stager) client() *http.Client {
	if st.Client != nil {
		return st.Client
	}
	return http.DefaultClient
}

// Stage downloads mediaURL into a fresh directory. On error nothing is left
// on disk; on success the caller owns the returned Staged and must call Cleanup.
func (st *Stager) Stage(ctx context.Context, mediaURL string) (*Staged, error) {
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(st.SpoolDir, "video-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	staged, err := st.download(ctx, mediaURL, dir)
	if err != nil {
		removeDir(dir)
		return nil, err
	}

	slog.Info("Staged media", "dir", dir, "size", humanize.Bytes(uint64(staged.Size)))
	return staged, nil
}

func (st *Stager) download(ctx context.Context, mediaURL, dir string) (*Staged, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}

	resp, err := st.client().Do(req)
	if err != nil {
		return nil, &TransientError{URL: mediaURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DownloadError{URL: mediaURL, StatusCode: resp.StatusCode}
	}

	path := filepath.Join(dir, stagedFileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return nil, &TransientError{URL: mediaURL, Err: copyErr}
	}
	if closeErr != nil {
		return nil, &TransientError{URL: mediaURL, Err: closeErr}
	}

	return &Staged{Dir: dir, Path: path, Size: n}, nil
}

// DownloadImageBase64 fetches an image and returns it as a data URL.
func (st *Stager) DownloadImageBase64(ctx context.Context, imageURL string) (string, error) {
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := st.client().Do(req)
	if err != nil {
		return "", &TransientError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{URL: imageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{URL: imageURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
	}

	return DataURL(contentType, body), nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a "data:<mime>;base64,<payload>" URL and decodes the
// payload. An empty payload is an error.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URL")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("data URL is empty")
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data, nil
}

// IsTransient reports whether err came from a network-level staging failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging dir", "dir", dir, "error", err)
	}
}
