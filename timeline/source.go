// Package timeline resolves Matroska ordered chapters into a single flat
// playback timeline.
//
// A root segment whose ordered edition references other segments is turned
// into a list of parts, each backed by one physical segment, by locating the
// referenced files next to the root, matching them by segment UID and
// flattening nested ordered editions.
//
// The package does not parse containers itself. Segments are opened through
// the Opener interface; see package mkvtoolnix for an implementation backed
// by the MKVToolNix command-line tools.
package timeline

import (
	"context"
	"errors"
	"time"

	"mkvlink/models"
)

// ErrNoSegment is returned by an Opener when the file holds no segment at the
// requested index. It ends probing of a multi-segment file.
var ErrNoSegment = errors.New("no segment at requested index")

// Segment is one opened Matroska segment.
type Segment interface {
	// Path returns the file the segment was opened from.
	Path() string
	// UID returns the segment UID. Its edition is the UID of the edition
	// that was selected when opening, or 0.
	UID() models.SegmentUID
	// Duration returns the total duration of the segment.
	Duration() time.Duration
	// Chapters returns the chapter table of the selected edition when that
	// edition is ordered, and nil otherwise.
	Chapters() []models.ChapterEntry
	// Tracks returns the tracks of the segment.
	Tracks() []models.Track
	// Close releases the segment.
	Close() error
}

// AttachmentLister is implemented by segments that carry attachments such as
// subtitle fonts.
type AttachmentLister interface {
	Attachments() []models.Attachment
}

// OpenParams controls how an Opener opens a segment.
type OpenParams struct {
	// Index selects a segment within a file holding several concatenated
	// segments. 0 is the first segment.
	Index int

	// WantedUIDs lists the segment UIDs the caller is looking for. An
	// Opener uses it to select the edition a reference asks for.
	WantedUIDs []models.SegmentUID

	// DisableTimeline asks the Opener not to resolve ordered chapters of
	// the opened segment itself.
	DisableTimeline bool

	// Edition is the index of the edition to select, or -1 to select
	// automatically. Only meaningful for the root file.
	Edition int
}

// Opener opens segments. Implementations must honor ctx cancellation.
type Opener interface {
	OpenSegment(ctx context.Context, path string, p OpenParams) (Segment, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, path string, p OpenParams) (Segment, error)

// OpenSegment calls f.
func (f OpenerFunc) OpenSegment(ctx context.Context, path string, p OpenParams) (Segment, error) {
	return f(ctx, path, p)
}
