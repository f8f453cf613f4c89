package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/sleeqtechnologies/rechef/pkg/ffmpeg"
)

const DefaultFrameWidth = 640

// Frame is one still sampled from a staged video. Frames are never persisted.
type Frame struct {
	Base64           string  `json:"-"`
	MIMEType         string  `json:"mimeType"`
	TimestampSeconds float64 `json:"timestampSeconds"`
	Index            int     `json:"index"`
	FoodRelevant     bool    `json:"foodRelevant"`
	FoodDescription  *string `json:"foodDescription,omitempty"`
}

// DataURL returns the frame as a data URL suitable for vision model input.
func (f Frame) DataURL() string {
	return "data:" + f.MIMEType + ";base64," + f.Base64
}

// Bytes decodes the frame payload.
func (f Frame) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Base64)
}

// Options controls frame sampling.
type Options struct {
	IntervalSeconds float64
	MaxFrames       int
	// Format is the image encoding, "jpg" or "png". Empty means jpg.
	Format string
	// Width caps the frame width. Zero means DefaultFrameWidth.
	Width int
}

func (o Options) ext() string {
	if o.Format == "png" {
		return "png"
	}
	return "jpg"
}

func (o Options) mimeType() string {
	if o.Format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return DefaultFrameWidth
}

// FrameCount is min(floor(duration/interval), maxFrames), never negative.
func FrameCount(duration float64, opts Options) int {
	if duration <= 0 || opts.IntervalSeconds <= 0 || opts.MaxFrames <= 0 {
		return 0
	}
	n := int(math.Floor(duration / opts.IntervalSeconds))
	if n > opts.MaxFrames {
		n = opts.MaxFrames
	}
	return n
}

type (
	ProbeFunc   func(ctx context.Context, path string) (float64, error)
	ExtractFunc func(ctx context.Context, input, output string, offset float64, width int) error
)

// Sampler extracts frames at a fixed interval from a local video.
type Sampler struct {
	Probe   ProbeFunc
	Extract ExtractFunc
	// TempDir is the parent of per-run frame directories. Empty uses os.TempDir.
	TempDir string
}

// NewSampler returns a Sampler backed by ffprobe and ffmpeg.
func NewSampler(tempDir string) *Sampler {
	return &Sampler{
		Probe:   probeVideo,
		Extract: ffmpegExtract,
		TempDir: tempDir,
	}
}

// probeVideo reads the clip duration with ffprobe.
func probeVideo(ctx context.Context, path string) (float64, error) {
	info, err := ffmpeg.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return videoDuration(info)
}

// videoDuration rejects media without a video stream and logs what the
// frames will be cut from.
func videoDuration(info *ffmpeg.ProbeResult) (float64, error) {
	if info.VideoStreams == 0 {
		return 0, fmt.Errorf("no video stream in %s media", info.FormatName)
	}
	slog.Debug("Probed media",
		"format", info.FormatName,
		"codec", info.VideoCodec,
		"width", info.Width,
		"height", info.Height,
		"fps", info.FPS,
		"duration", info.Duration,
		"audio_streams", info.AudioStreams,
		"size", humanize.Bytes(uint64(info.Size)),
	)
	return info.Duration, nil
}

func ffmpegExtract(ctx context.Context, input, output string, offset float64, width int) error {
	return ffmpeg.ExtractFrame(ctx, input, output, offset, &ffmpeg.FrameOptions{MaxWidth: width})
}

func (s *Sampler) plan(ctx context.Context, path string, opts Options) (int, error) {
	if opts.IntervalSeconds <= 0 {
		return 0, fmt.Errorf("frame interval must be positive, got %v", opts.IntervalSeconds)
	}
	duration, err := s.Probe(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	count := FrameCount(duration, opts)
	slog.Debug("Planned frame sampling", "path", path, "duration", duration, "interval", opts.IntervalSeconds, "frames", count)
	return count, nil
}

func (s *Sampler) extractOne(ctx context.Context, dir, path string, i int, opts Options) (Frame, error) {
	ts := float64(i) * opts.IntervalSeconds
	out := filepath.Join(dir, fmt.Sprintf("frame_%04d.%s", i, opts.ext()))
	if err := s.Extract(ctx, path, out, ts, opts.width()); err != nil {
		return Frame{}, fmt.Errorf("extract frame %d at %.2fs: %w", i, ts, err)
	}
	return encodeFrame(out, i, ts, opts)
}

func encodeFrame(file string, i int, ts float64, opts Options) (Frame, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame %d: %w", i, err)
	}
	return Frame{
		Base64:           base64.StdEncoding.EncodeToString(data),
		MIMEType:         opts.mimeType(),
		TimestampSeconds: ts,
		Index:            i,
	}, nil
}

// Sample extracts every planned frame to disk, then encodes them in order.
// The frame files and their directory are removed before returning.
func (s *Sampler) Sample(ctx context.Context, path string, opts Options) ([]Frame, error) {
	count, err := s.plan(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []Frame{}, nil
	}

	dir, err := os.MkdirTemp(s.TempDir, "frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	defer removeDir(dir)

	files := make([]string, count)
	for i := 0; i < count; i++ {
		ts := float64(i) * opts.IntervalSeconds
		files[i] = filepath.Join(dir, fmt.Sprintf("frame_%04d.%s", i, opts.ext()))
		if err := s.Extract(ctx, path, files[i], ts, opts.width()); err != nil {
			return nil, fmt.Errorf("extract frame %d at %.2fs: %w", i, ts, err)
		}
	}

	frames := make([]Frame, 0, count)
	for i, file := range files {
		f, err := encodeFrame(file, i, float64(i)*opts.IntervalSeconds, opts)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Stream extracts frames one at a time and hands each to fn while the next
// one is being extracted. Each frame file is deleted as soon as it has been
// encoded, so only a bounded number of frames is held in memory. Stream stops
// at the first error from extraction or from fn.
func (s *Sampler) Stream(ctx context.Context, path string, opts Options, fn func(ctx context.Context, f Frame) error) error {
	count, err := s.plan(ctx, path, opts)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	dir, err := os.MkdirTemp(s.TempDir, "frames-*")
	if err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	defer removeDir(dir)

	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan Frame, 1)

	g.Go(func() error {
		defer close(frames)
		for i := 0; i < count; i++ {
			f, err := s.extractOne(gctx, dir, path, i, opts)
			_ = os.Remove(filepath.Join(dir, fmt.Sprintf("frame_%04d.%s", i, opts.ext())))
			if err != nil {
				return err
			}
			select {
			case frames <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for f := range frames {
			if err := fn(gctx, f); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// StreamKept streams frames through keep and collects the non-nil results in
// frame order.
func StreamKept[T any](ctx context.Context, s *Sampler, path string, opts Options, keep func(ctx context.Context, f Frame) (*T, error)) ([]T, error) {
	var kept []T
	err := s.Stream(ctx, path, opts, func(ctx context.Context, f Frame) error {
		v, err := keep(ctx, f)
		if err != nil {
			return err
		}
		if v != nil {
			kept = append(kept, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}
