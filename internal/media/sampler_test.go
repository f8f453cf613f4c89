package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleeqtechnologies/rechef/pkg/ffmpeg"
)

func fakeSampler(t *testing.T, duration float64) (*Sampler, *atomic.Int32) {
	t.Helper()
	var extracted atomic.Int32
	return &Sampler{
		Probe: func(ctx context.Context, path string) (float64, error) {
			return duration, nil
		},
		Extract: func(ctx context.Context, input, output string, offset float64, width int) error {
			extracted.Add(1)
			return os.WriteFile(output, []byte(fmt.Sprintf("%s@%.1f", filepath.Base(input), offset)), 0o644)
		},
		TempDir: t.TempDir(),
	}, &extracted
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		opts     Options
		want     int
	}{
		{"capped", 60, Options{IntervalSeconds: 3, MaxFrames: 10}, 10},
		{"floor", 7.9, Options{IntervalSeconds: 2, MaxFrames: 8}, 3},
		{"shorter than interval", 1.5, Options{IntervalSeconds: 2, MaxFrames: 8}, 0},
		{"zero duration", 0, Options{IntervalSeconds: 2, MaxFrames: 8}, 0},
		{"zero max", 30, Options{IntervalSeconds: 2, MaxFrames: 0}, 0},
		{"bad interval", 30, Options{IntervalSeconds: 0, MaxFrames: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameCount(tt.duration, tt.opts))
		})
	}
}

func TestSampler_Sample(t *testing.T) {
	s, _ := fakeSampler(t, 10)

	frames, err := s.Sample(context.Background(), "/videos/clip.mp4", Options{IntervalSeconds: 3, MaxFrames: 10})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	for i, f := range frames {
		assert.Equal(t, i, f.Index)
		assert.InDelta(t, float64(i)*3, f.TimestampSeconds, 0.0001)
		assert.Equal(t, "image/jpeg", f.MIMEType)
		data, err := f.Bytes()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("clip.mp4@%.1f", float64(i)*3), string(data))
	}
	requireEmptyDir(t, s.TempDir)
}

func TestSampler_SampleZeroFramesIsNotAnError(t *testing.T) {
	s, extracted := fakeSampler(t, 1)

	frames, err := s.Sample(context.Background(), "clip.mp4", Options{IntervalSeconds: 2, MaxFrames: 8})
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Zero(t, extracted.Load())
}

func TestSampler_ProbeFailure(t *testing.T) {
	s, _ := fakeSampler(t, 10)
	s.Probe = func(ctx context.Context, path string) (float64, error) {
		return 0, errors.New("moov atom not found")
	}

	_, err := s.Sample(context.Background(), "clip.mp4", Options{IntervalSeconds: 2, MaxFrames: 8})
	require.ErrorContains(t, err, "moov atom not found")
}

func TestSampler_StreamDeliversInOrder(t *testing.T) {
	s, _ := fakeSampler(t, 20)

	var got []float64
	err := s.Stream(context.Background(), "clip.mp4", Options{IntervalSeconds: 2, MaxFrames: 8, Format: "png"},
		func(ctx context.Context, f Frame) error {
			got = append(got, f.TimestampSeconds)
			assert.Equal(t, "image/png", f.MIMEType)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10, 12, 14}, got)
	requireEmptyDir(t, s.TempDir)
}

func TestSampler_StreamStopsOnCallbackError(t *testing.T) {
	s, extracted := fakeSampler(t, 100)
	boom := errors.New("classifier exploded")

	calls := 0
	err := s.Stream(context.Background(), "clip.mp4", Options{IntervalSeconds: 1, MaxFrames: 50},
		func(ctx context.Context, f Frame) error {
			calls++
			if f.Index == 1 {
				return boom
			}
			return nil
		})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Less(t, int(extracted.Load()), 50)
	requireEmptyDir(t, s.TempDir)
}

func TestSampler_StreamExtractionError(t *testing.T) {
	s, _ := fakeSampler(t, 10)
	s.Extract = func(ctx context.Context, input, output string, offset float64, width int) error {
		if offset >= 4 {
			return errors.New("decode error")
		}
		return os.WriteFile(output, []byte("ok"), 0o644)
	}

	var seen int
	err := s.Stream(context.Background(), "clip.mp4", Options{IntervalSeconds: 2, MaxFrames: 5},
		func(ctx context.Context, f Frame) error {
			seen++
			return nil
		})
	require.ErrorContains(t, err, "decode error")
	assert.LessOrEqual(t, seen, 2)
}

func TestStreamKept(t *testing.T) {
	s, _ := fakeSampler(t, 10)

	kept, err := StreamKept(context.Background(), s, "clip.mp4", Options{IntervalSeconds: 1, MaxFrames: 10},
		func(ctx context.Context, f Frame) (*Frame, error) {
			if f.Index%3 != 0 {
				return nil, nil
			}
			f.FoodRelevant = true
			return &f, nil
		})
	require.NoError(t, err)
	require.Len(t, kept, 4)
	for i, f := range kept {
		assert.Equal(t, i*3, f.Index)
		assert.True(t, f.FoodRelevant)
	}
}

func TestVideoDuration(t *testing.T) {
	d, err := videoDuration(&ffmpeg.ProbeResult{
		Duration:     42.5,
		FormatName:   "mov,mp4",
		VideoCodec:   "h264",
		Width:        1080,
		Height:       1920,
		FPS:          30,
		VideoStreams: 1,
		AudioStreams: 1,
		Size:         4 << 20,
	})
	require.NoError(t, err)
	assert.InDelta(t, 42.5, d, 0.0001)

	_, err = videoDuration(&ffmpeg.ProbeResult{Duration: 180, FormatName: "mp3", AudioStreams: 1})
	require.ErrorContains(t, err, "no video stream in mp3 media")
}
