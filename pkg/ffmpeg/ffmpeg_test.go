package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		output   string
		opts     []Option
		wantArgs []string
	}{
		{
			name:   "seek single frame",
			input:  "input.mp4",
			output: "frame.jpg",
			opts: []Option{
				Seek(10 * time.Second),
				Frames(1),
				Quality(4),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-ss", "10.000",
				"-i", "input.mp4",
				"-frames:v", "1",
				"-q:v", "4",
				"frame.jpg",
			},
		},
		{
			name:   "filters are joined",
			input:  "in.mp4",
			output: "out.png",
			opts: []Option{
				ScaleWidth(320),
				Filter("format=rgb24"),
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-vf", "scale='min(320,iw)':-2,format=rgb24",
				"out.png",
			},
		},
		{
			name:   "log level goes first",
			input:  "in.mp4",
			output: "out.jpg",
			opts: []Option{
				SeekSeconds(2.5),
				LogLevel("error"),
				NoAudio,
			},
			wantArgs: []string{
				"-hide_banner", "-y",
				"-loglevel", "error",
				"-ss", "2.500",
				"-i", "in.mp4",
				"-an",
				"out.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCommand(tt.input, tt.output, tt.opts...).Build()
			assert.Equal(t, tt.wantArgs, got)
		})
	}
}

func TestFrameCommand_Defaults(t *testing.T) {
	got := FrameCommand("video.mp4", "/tmp/frame_0001.jpg", 6, nil).Build()
	assert.Equal(t, []string{
		"-hide_banner", "-y",
		"-loglevel", "error",
		"-ss", "6.000",
		"-i", "video.mp4",
		"-frames:v", "1",
		"-an",
		"-q:v", "4",
		"-vf", "scale='min(640,iw)':-2",
		"/tmp/frame_0001.jpg",
	}, got)
}

func TestFrameCommand_PNGSkipsQuality(t *testing.T) {
	got := FrameCommand("video.mp4", "frame.png", 0, &FrameOptions{MaxWidth: 320}).Build()
	assert.NotContains(t, got, "-q:v")
	assert.Contains(t, got, "scale='min(320,iw)':-2")
}

func TestExtractFrame_RejectsNegativeOffset(t *testing.T) {
	err := ExtractFrame(context.Background(), "in.mp4", "out.jpg", -1, nil)
	require.Error(t, err)
}

func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{
		"format": {"format_name": "mov,mp4", "duration": "31.250000", "size": "1048576"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920, "r_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"}
		]
	}`)

	res, err := parseProbeOutput(raw)
	require.NoError(t, err)
	assert.InDelta(t, 31.25, res.Duration, 0.0001)
	assert.Equal(t, int64(1048576), res.Size)
	assert.Equal(t, "h264", res.VideoCodec)
	assert.Equal(t, 1080, res.Width)
	assert.InDelta(t, 29.97, res.FPS, 0.01)
	assert.Equal(t, 1, res.VideoStreams)
	assert.Equal(t, 1, res.AudioStreams)
}

func TestParseProbeOutput_StreamDurationFallback(t *testing.T) {
	raw := []byte(`{"format": {}, "streams": [{"codec_type": "video", "duration": "12.5"}]}`)
	res, err := parseProbeOutput(raw)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, res.Duration, 0.0001)
}

func TestError_Message(t *testing.T) {
	e := &Error{
		Stderr: "line1\nline2\nline3\nline4",
		Err:    errors.New("exit status 1"),
	}
	assert.Equal(t, "ffmpeg: exit status 1: line2\nline3\nline4", e.Error())
	assert.ErrorIs(t, e, e.Err)
}

func TestExtractFrame_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test")
	}
	if _, err := exec.LookPath(Binary); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	video := dir + "/test.mp4"
	err := exec.Command(Binary, "-hide_banner", "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=3:size=320x240:rate=10", video).Run()
	require.NoError(t, err)

	out := dir + "/frame.jpg"
	require.NoError(t, ExtractFrame(context.Background(), video, out, 1, nil))
	assert.FileExists(t, out)

	if _, err := exec.LookPath(ProbeBinary); err == nil {
		res, err := Probe(context.Background(), video)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, res.Duration, 0.2)
		assert.Equal(t, 320, res.Width)
		assert.Equal(t, 240, res.Height)
	}
}
