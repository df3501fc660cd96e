package models

import (
	"fmt"
	"time"
)

// ChapterEntry is one entry of a segment's ordered chapter table.
//
// Start and End are expressed in the timebase of the segment the chapter
// plays from (Target), not in the timebase of the owning segment. When the
// entry carries no explicit segment reference, HasTarget is false and Target
// is the owning segment's own UID.
type ChapterEntry struct {
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	Target    SegmentUID    `json:"target"`
	HasTarget bool          `json:"has_target"`
	Name      string        `json:"name,omitempty"`
}

// Length returns End-Start, or 0 for malformed entries where End < Start.
func (c ChapterEntry) Length() time.Duration {
	if c.End < c.Start {
		return 0
	}
	return c.End - c.Start
}

// Validate checks the chapter's time range.
func (c ChapterEntry) Validate() error {
	if c.Start < 0 {
		return fmt.Errorf("chapter start cannot be negative")
	}
	if c.End < c.Start {
		return fmt.Errorf("chapter end %v is before start %v", c.End, c.Start)
	}
	return nil
}

// Chapter is a marker on the unified timeline.
//
// Index is the position of the chapter in the root segment's chapter table,
// so consumers can map markers back to the authoring data after unreachable
// chapters have been dropped.
type Chapter struct {
	Index int           `json:"index"`
	Start time.Duration `json:"start"`
	Title string        `json:"title,omitempty"`
}
