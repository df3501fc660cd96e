package models

import (
	"fmt"
	"strings"
	"time"
)

// TimelinePart is a contiguous interval of the unified timeline backed by a
// single source segment.
//
// Start and End are positions on the unified timeline; SourceStart is the
// offset into the source where playback of this part begins. Source indexes
// the source list of the resolved timeline the part belongs to.
type TimelinePart struct {
	Start       time.Duration `json:"start"`
	End         time.Duration `json:"end"`
	SourceStart time.Duration `json:"source_start"`
	Source      int           `json:"source"`
	SourcePath  string        `json:"source_path"`
}

// Length returns the duration covered by the part.
func (p TimelinePart) Length() time.Duration {
	return p.End - p.Start
}

// SourceEnd returns the offset into the source where the part stops.
func (p TimelinePart) SourceEnd() time.Duration {
	return p.SourceStart + p.Length()
}

// Validate checks if the part has consistent data.
//
// Returns an error if:
//   - SourcePath is empty or whitespace-only
//   - Source is negative
//   - End is before Start
//   - SourceStart is negative
func (p TimelinePart) Validate() error {
	if strings.TrimSpace(p.SourcePath) == "" {
		return fmt.Errorf("source_path cannot be empty")
	}
	if p.Source < 0 {
		return fmt.Errorf("source index cannot be negative")
	}
	if p.End < p.Start {
		return fmt.Errorf("end must not be before start")
	}
	if p.SourceStart < 0 {
		return fmt.Errorf("source_start cannot be negative")
	}
	return nil
}

// ValidateParts validates a finalized part sequence.
//
// The sequence must be non-empty, start at 0 and be contiguous: every part
// ends exactly where the next one begins.
func ValidateParts(parts []TimelinePart) error {
	if len(parts) == 0 {
		return fmt.Errorf("part list is empty")
	}

	for i, p := range parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d is invalid: %w", i, err)
		}
	}

	if parts[0].Start != 0 {
		return fmt.Errorf("first part starts at %v, expected 0", parts[0].Start)
	}

	for i := 0; i < len(parts)-1; i++ {
		if parts[i].End != parts[i+1].Start {
			return fmt.Errorf("parts %d and %d are not contiguous: part %d ends at %v, part %d starts at %v",
				i, i+1, i, parts[i].End, i+1, parts[i+1].Start)
		}
	}

	return nil
}

// TotalDuration returns the end of the last part, i.e. the length of the
// unified timeline.
func TotalDuration(parts []TimelinePart) time.Duration {
	if len(parts) == 0 {
		return 0
	}
	return parts[len(parts)-1].End
}
