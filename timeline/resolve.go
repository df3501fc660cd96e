package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mkvlink/internal/logger"
	"mkvlink/locator"
	"mkvlink/models"
)

var (
	// ErrDisabled is returned when ordered chapter support is switched off.
	ErrDisabled = errors.New("ordered chapters support is disabled")

	// ErrNotOrdered is returned when the root segment has no ordered
	// chapter table.
	ErrNotOrdered = errors.New("file does not use ordered chapters")
)

// DefaultMergeThreshold is the largest gap or overlap between two chapters
// of the same source that is absorbed instead of producing a new part.
const DefaultMergeThreshold = 100 * time.Millisecond

// CandidateFinder lists files that may hold referenced segments, in the
// order they should be probed.
type CandidateFinder interface {
	Locate(rootPath string) []string
}

// Timeline is the result of resolving a root segment.
type Timeline struct {
	// Parts are contiguous and start at 0.
	Parts []models.TimelinePart
	// Chapters are the markers of the root's chapters that were reached.
	Chapters []models.Chapter
	// Sources holds every segment parts refer to; Sources[0] is the root.
	Sources []Segment
	// TrackLayout indexes the source whose tracks define the track set.
	TrackLayout int
	// Missing is the total duration no source could provide.
	Missing time.Duration
	// Attachments collected from referenced sources.
	Attachments []models.Attachment
	// Warnings lists the diagnostics emitted while resolving.
	Warnings []string
}

// Duration returns the length of the unified timeline.
func (t *Timeline) Duration() time.Duration {
	return models.TotalDuration(t.Parts)
}

// Close closes every source except the root, which belongs to the caller.
func (t *Timeline) Close() error {
	var errs []error
	for _, s := range t.Sources[min(1, len(t.Sources)):] {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.Path(), err))
		}
	}
	return errors.Join(errs...)
}

// Resolver builds timelines for ordered chapter files.
type Resolver struct {
	opener    Opener
	log       logger.Logger
	enabled   bool
	threshold time.Duration
	files     []string
	listFile  string
	finder    CandidateFinder
}

// NewResolver creates a resolver opening referenced segments through
// opener.
func NewResolver(opener Opener, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		opener:    opener,
		log:       log,
		enabled:   true,
		threshold: DefaultMergeThreshold,
	}
}

// SetEnabled switches ordered chapter support on or off.
func (r *Resolver) SetEnabled(enabled bool) *Resolver {
	r.enabled = enabled
	return r
}

// SetMergeThreshold sets the merge tolerance between adjacent chapters.
// Negative values are treated as 0.
func (r *Resolver) SetMergeThreshold(d time.Duration) *Resolver {
	if d < 0 {
		d = 0
	}
	r.threshold = d
	return r
}

// SetFiles restricts the candidate files to an explicit list.
func (r *Resolver) SetFiles(files []string) *Resolver {
	r.files = append([]string(nil), files...)
	return r
}

// SetFilesList sets an index file listing the candidate files.
func (r *Resolver) SetFilesList(path string) *Resolver {
	r.listFile = path
	return r
}

// SetLocator replaces the default candidate finder. SetFiles and
// SetFilesList have no effect once a finder is set.
func (r *Resolver) SetLocator(f CandidateFinder) *Resolver {
	r.finder = f
	return r
}

func (r *Resolver) candidateFinder() CandidateFinder {
	if r.finder != nil {
		return r.finder
	}
	return locator.New(r.log).SetFiles(r.files).SetListFile(r.listFile)
}

// resolution is the state of a single Resolve call.
type resolution struct {
	opener      Opener
	log         logger.Logger
	finder      CandidateFinder
	threshold   time.Duration
	table       *sourceTable
	attachments []models.Attachment
	warnings    []string
}

func (r *resolution) warnf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	r.log.Warnf("%s", msg)
	r.warnings = append(r.warnings, msg)
}

// Resolve builds the timeline of root. root stays owned by the caller;
// the other sources of the returned timeline are released by
// Timeline.Close.
//
// On cancellation every segment opened so far is closed and the returned
// error wraps ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, root Segment) (*Timeline, error) {
	if len(root.Chapters()) == 0 {
		return nil, ErrNotOrdered
	}
	if !r.enabled {
		r.log.Infof("File uses ordered chapters, but you have disabled support for them. Ignoring.")
		return nil, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, errCancelled(err)
	}

	r.log.Infof("File uses ordered chapters, will build edit timeline.")

	res := &resolution{
		opener:    r.opener,
		log:       r.log,
		finder:    r.candidateFinder(),
		threshold: r.threshold,
		table:     newSourceTable(root),
	}

	rootUID := root.UID()
	for _, c := range root.Chapters() {
		// A reference to the root's own UID must match its edition too;
		// the "any edition" form would not honor a non-default edition.
		if !c.HasTarget || c.Target == rootUID {
			continue
		}
		res.table.request(c.Target)
	}

	m := &matcher{r: res, failed: make(map[string]bool)}
	if err := m.findSources(ctx); err != nil {
		res.table.closeReferenced()
		return nil, errCancelled(err)
	}

	b := newBuilder(res)
	b.build(0, &window{top: true})
	parts, chapters := b.finish()

	layout := trackLayout(parts)
	res.checkTrackCompatibility(parts, layout)

	return &Timeline{
		Parts:       parts,
		Chapters:    chapters,
		Sources:     res.table.segments(),
		TrackLayout: layout,
		Missing:     b.missing,
		Attachments: res.attachments,
		Warnings:    res.warnings,
	}, nil
}
