package timeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"mkvlink/models"
)

func uid(b byte, edition uint64) models.SegmentUID {
	var id uuid.UUID
	for i := range id {
		id[i] = b
	}
	return models.SegmentUID{Bytes: id, Edition: edition}
}

func sec(n float64) time.Duration {
	return time.Duration(math.Round(n * float64(time.Second)))
}

// chapter builds a chapter entry playing [start, end) of target. A zero
// target means the owning segment.
func chapter(start, end float64, target models.SegmentUID) models.ChapterEntry {
	return models.ChapterEntry{
		Start:     sec(start),
		End:       sec(end),
		Target:    target,
		HasTarget: !target.IsZero(),
		Name:      fmt.Sprintf("%g-%g", start, end),
	}
}

type fakeSegment struct {
	path        string
	uid         models.SegmentUID
	duration    time.Duration
	chapters    []models.ChapterEntry
	tracks      []models.Track
	attachments []models.Attachment

	mu     sync.Mutex
	closed int
}

func (s *fakeSegment) Path() string                    { return s.path }
func (s *fakeSegment) UID() models.SegmentUID          { return s.uid }
func (s *fakeSegment) Duration() time.Duration         { return s.duration }
func (s *fakeSegment) Chapters() []models.ChapterEntry { return s.chapters }
func (s *fakeSegment) Tracks() []models.Track          { return s.tracks }

func (s *fakeSegment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSegment) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSegment) clone() *fakeSegment {
	return &fakeSegment{
		path:        s.path,
		uid:         s.uid,
		duration:    s.duration,
		chapters:    s.chapters,
		tracks:      s.tracks,
		attachments: s.attachments,
	}
}

type fakeLister struct {
	*fakeSegment
}

func (l fakeLister) Attachments() []models.Attachment { return l.attachments }

// fakeOpener serves segments from memory. Every open returns a fresh handle
// so tests can check which handles were closed.
type fakeOpener struct {
	files  map[string][]*fakeSegment
	onOpen func(path string, index int) error

	mu     sync.Mutex
	opened []*fakeSegment
	calls  map[string]int
}

func newFakeOpener(segs ...*fakeSegment) *fakeOpener {
	o := &fakeOpener{files: make(map[string][]*fakeSegment), calls: make(map[string]int)}
	for _, s := range segs {
		o.files[s.path] = append(o.files[s.path], s)
	}
	return o
}

func (o *fakeOpener) OpenSegment(ctx context.Context, path string, p OpenParams) (Segment, error) {
	o.mu.Lock()
	o.calls[path]++
	o.mu.Unlock()

	if o.onOpen != nil {
		if err := o.onOpen(path, p.Index); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segs, ok := o.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	if p.Index >= len(segs) {
		return nil, ErrNoSegment
	}

	seg := segs[p.Index].clone()
	o.mu.Lock()
	o.opened = append(o.opened, seg)
	o.mu.Unlock()
	if len(seg.attachments) > 0 {
		return fakeLister{seg}, nil
	}
	return seg, nil
}

func (o *fakeOpener) callCount(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[path]
}

type staticFinder []string

func (f staticFinder) Locate(string) []string { return f }
