package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult contains media file metadata.
type ProbeResult struct {
	Width      int     // Video width in pixels
	Height     int     // Video height in pixels
	FPS        float64 // Frames per second
	VideoCodec string  // Video codec name (h264, vp9, etc.)

	Duration   float64 // Duration in seconds
	Size       int64   // File size in bytes
	FormatName string  // Container format (mp4, webm, mkv, etc.)

	VideoStreams int
	AudioStreams int
}

// ffprobeOutput matches ffprobe JSON output structure.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

// Probe runs ffprobe on a file and returns metadata.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, ProbeBinary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(raw []byte) (*ProbeResult, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	result := &ProbeResult{FormatName: output.Format.FormatName}
	if output.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(output.Format.Duration, 64)
	}
	if output.Format.Size != "" {
		result.Size, _ = strconv.ParseInt(output.Format.Size, 10, 64)
	}

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			result.VideoStreams++
			// Only take first video stream metadata
			if result.VideoCodec == "" {
				result.Width = stream.Width
				result.Height = stream.Height
				result.VideoCodec = stream.CodecName
				result.FPS = parseFrameRate(stream.RFrameRate)
				// Some containers only report duration on the stream.
				if result.Duration == 0 && stream.Duration != "" {
					result.Duration, _ = strconv.ParseFloat(stream.Duration, 64)
				}
			}
		case "audio":
			result.AudioStreams++
		}
	}

	return result, nil
}

// parseFrameRate parses ffprobe frame rate format (e.g., "30/1" or "30000/1001").
func parseFrameRate(rate string) float64 {
	var num, den int
	_, err := fmt.Sscanf(rate, "%d/%d", &num, &den)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
