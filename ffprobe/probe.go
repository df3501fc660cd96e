// Package ffprobe reads container metadata of rendered files with the
// ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// DefaultTolerance is the largest duration difference CheckTimeline accepts
// between a rendered file and its timeline.
const DefaultTolerance = 500 * time.Millisecond

// Chapter represents a chapter marker in a media file.
type Chapter struct {
	ID        int64  `json:"id"`
	TimeBase  string `json:"time_base"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Tags      struct {
		Title string `json:"title"`
	} `json:"tags"`
}

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
}

// Format represents the container format information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// ProbeResult holds the metadata ffprobe reports for a file.
type ProbeResult struct {
	Chapters []Chapter `json:"chapters"`
	Streams  []Stream  `json:"streams"`
	Format   Format    `json:"format"`
}

// ParseProbe decodes ffprobe's JSON output.
func ParseProbe(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// Duration returns the container duration.
func (pr *ProbeResult) Duration() (time.Duration, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	seconds, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", pr.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// StreamCount returns the number of streams of the given codec type.
func (pr *ProbeResult) StreamCount(codecType string) int {
	n := 0
	for _, s := range pr.Streams {
		if s.CodecType == codecType {
			n++
		}
	}
	return n
}

// CheckTimeline compares the probed file against the expected duration and
// chapter count. A negative chapter count skips the chapter check.
func (pr *ProbeResult) CheckTimeline(want time.Duration, chapters int, tolerance time.Duration) error {
	got, err := pr.Duration()
	if err != nil {
		return err
	}

	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return fmt.Errorf("duration %v differs from timeline %v by %v", got, want, diff)
	}

	if chapters >= 0 && len(pr.Chapters) != chapters {
		return fmt.Errorf("found %d chapters, expected %d", len(pr.Chapters), chapters)
	}
	return nil
}

// Probe runs ffprobe on path and parses its output.
func Probe(ctx context.Context, ffprobePath, path string) (*ProbeResult, error) {
	if path == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_chapters",
		"-show_streams",
		"-show_format",
		path,
	}

	output, err := exec.CommandContext(ctx, ffprobePath, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe failed on %s: %w", path, err)
	}

	return ParseProbe(output)
}
