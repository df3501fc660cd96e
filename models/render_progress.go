package models

import (
	"fmt"
	"time"
)

// RenderProgress represents real-time metrics of an ffmpeg render of a
// resolved timeline.
type RenderProgress struct {
	// Current position in the output
	Frame       int64         // Current frame number
	FPS         float64       // Frames per second being processed
	CurrentTime time.Duration // Output timestamp reached so far

	Speed float64 // Processing speed multiplier (e.g., 2.34 means 2.34x realtime)
	Size  int64   // Bytes written so far

	TotalDuration time.Duration // Length of the timeline being rendered
	Progress      float64       // Percentage complete (0-100)

	State     ProgressState
	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressState represents the current state of a render
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateRunning   ProgressState = "running"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
	ProgressStateCancelled ProgressState = "cancelled"
)

// ProgressCallback receives progress updates during a render
type ProgressCallback func(progress *RenderProgress)

// NewRenderProgress creates a new progress tracker
func NewRenderProgress(total time.Duration) *RenderProgress {
	now := time.Now()
	return &RenderProgress{
		TotalDuration: total,
		State:         ProgressStateQueued,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// SetCurrentTime records the output position and recomputes the percentage.
func (rp *RenderProgress) SetCurrentTime(current time.Duration) {
	rp.CurrentTime = current
	if rp.TotalDuration > 0 {
		rp.Progress = float64(current) / float64(rp.TotalDuration) * 100
		if rp.Progress > 100 {
			rp.Progress = 100
		}
		if rp.Progress < 0 {
			rp.Progress = 0
		}
	}
	rp.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining calculates ETA from the elapsed time and progress
func (rp *RenderProgress) EstimatedTimeRemaining() time.Duration {
	if rp.Progress <= 0 {
		return 0
	}

	elapsed := rp.UpdatedAt.Sub(rp.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (rp.Progress / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress
func (rp *RenderProgress) FormatSummary() string {
	return fmt.Sprintf(
		"Progress: %.1f%% | Speed: %.2fx | Frame: %d | ETA: %s",
		rp.Progress,
		rp.Speed,
		rp.Frame,
		formatDuration(rp.EstimatedTimeRemaining()),
	)
}

// formatDuration converts a duration to a human-readable string
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
