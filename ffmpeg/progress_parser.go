// Package ffmpeg parses the machine-readable progress ffmpeg writes while
// rendering a timeline.
package ffmpeg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mkvlink/internal/timeutil"
	"mkvlink/models"
)

// ProgressParser parses the key=value blocks written by "ffmpeg -progress".
type ProgressParser struct {
	lineRegex  *regexp.Regexp
	speedRegex *regexp.Regexp
}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		lineRegex: regexp.MustCompile(`^([a-z_]+)=\s*(.*)$`),
		// Match "2.34x" as well as " 2.34x"
		speedRegex: regexp.MustCompile(`^([0-9.]+)x?$`),
	}
}

// ParseLine parses a single line of progress output and updates progress.
// It reports whether a block ended, which is when callers should publish.
func (pp *ProgressParser) ParseLine(line string, progress *models.RenderProgress) bool {
	line = strings.TrimSpace(line)
	matches := pp.lineRegex.FindStringSubmatch(line)
	if len(matches) < 3 {
		return false
	}
	key, value := matches[1], strings.TrimSpace(matches[2])
	if value == "N/A" {
		return false
	}

	switch key {
	case "frame":
		if frame, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Frame = frame
		}
	case "fps":
		if fps, err := strconv.ParseFloat(value, 64); err == nil {
			progress.FPS = fps
		}
	case "total_size":
		if size, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Size = size
		}
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.SetCurrentTime(time.Duration(us) * time.Microsecond)
		}
	case "out_time":
		if d, err := timeutil.ParseTimestamp(value); err == nil && progress.CurrentTime == 0 {
			progress.SetCurrentTime(d)
		}
	case "speed":
		if m := pp.speedRegex.FindStringSubmatch(value); len(m) > 1 {
			if speed, err := strconv.ParseFloat(m[1], 64); err == nil {
				progress.Speed = speed
			}
		}
	case "progress":
		if value == "end" {
			progress.State = models.ProgressStateCompleted
			progress.SetCurrentTime(progress.TotalDuration)
		} else {
			progress.State = models.ProgressStateRunning
		}
		return true
	}
	return false
}

// StreamProgress reads progress output and calls callback after every
// complete block.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.RenderProgress, callback models.ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	blocks := 0
	for scanner.Scan() {
		if pp.ParseLine(scanner.Text(), progress) {
			blocks++
			if callback != nil {
				callback(progress)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ffmpeg output: %w", err)
	}

	if blocks == 0 {
		return fmt.Errorf("no progress output captured from ffmpeg")
	}

	return nil
}

// FormatProgressJSON converts progress to JSON for logging
func FormatProgressJSON(progress *models.RenderProgress) (string, error) {
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
