package mkvtoolnix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mkvlink/internal/logger"
	"mkvlink/models"
	"mkvlink/timeline"
)

const (
	DefaultMkvmerge   = "mkvmerge"
	DefaultMkvextract = "mkvextract"
)

// runFunc executes an external tool and returns its standard output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Toolset opens segments by running mkvmerge and mkvextract. It implements
// timeline.Opener.
type Toolset struct {
	mkvmerge   string
	mkvextract string
	log        logger.Logger
	run        runFunc
}

// NewToolset creates a Toolset. Empty paths fall back to looking the tools
// up in PATH.
func NewToolset(mkvmergePath, mkvextractPath string, log logger.Logger) *Toolset {
	if mkvmergePath == "" {
		mkvmergePath = DefaultMkvmerge
	}
	if mkvextractPath == "" {
		mkvextractPath = DefaultMkvextract
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Toolset{
		mkvmerge:   mkvmergePath,
		mkvextract: mkvextractPath,
		log:        log,
		run:        runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s failed: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s failed: %w", filepath.Base(name), err)
	}
	return out, nil
}

// CheckAvailable verifies that both tools can be found.
func (t *Toolset) CheckAvailable() error {
	for _, tool := range []string{t.mkvmerge, t.mkvextract} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found: %w", tool, err)
		}
	}
	return nil
}

// Identify runs "mkvmerge -J" on path.
func (t *Toolset) Identify(ctx context.Context, path string) (*Identification, error) {
	out, err := t.run(ctx, t.mkvmerge, "-J", path)
	// mkvmerge exits non-zero for unrecognized files but still prints JSON.
	if err != nil && (ctx.Err() != nil || len(out) == 0) {
		return nil, err
	}
	id, perr := ParseIdentification(out)
	if perr != nil {
		return nil, fmt.Errorf("%s: %w", path, perr)
	}
	return id, nil
}

// ExtractChapters runs mkvextract to dump the chapter XML of path and parses
// it.
func (t *Toolset) ExtractChapters(ctx context.Context, path string) ([]Edition, error) {
	tmp, err := os.CreateTemp("", "mkvlink-chapters-*.xml")
	if err != nil {
		return nil, fmt.Errorf("failed to create chapter file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if _, err := t.run(ctx, t.mkvextract, path, "chapters", tmpPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	return ParseChapters(data, t.log)
}

// OpenSegment opens the segment at p.Index of path.
//
// mkvmerge only reports the first segment of a file, so any other index
// yields timeline.ErrNoSegment. Ordered chapters of the opened segment are
// never resolved here, whatever p.DisableTimeline says.
func (t *Toolset) OpenSegment(ctx context.Context, path string, p timeline.OpenParams) (timeline.Segment, error) {
	if p.Index > 0 {
		return nil, timeline.ErrNoSegment
	}

	id, err := t.Identify(ctx, path)
	if err != nil {
		return nil, err
	}
	uid, err := id.SegmentUID()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	seg := &Segment{
		path:        path,
		uid:         uid,
		duration:    id.Duration(),
		tracks:      id.ModelTracks(),
		attachments: id.ModelAttachments(path),
		EditionIdx:  -1,
	}

	if !id.HasChapters() {
		return seg, nil
	}

	editions, err := t.ExtractChapters(ctx, path)
	if err != nil {
		return nil, err
	}
	seg.Editions = len(editions)

	idx, wanted := SelectEdition(editions, uid, p.WantedUIDs, p.Edition)
	if idx < 0 {
		return seg, nil
	}
	seg.EditionIdx = idx
	if p.Edition >= len(editions) {
		t.log.Warnf("Edition %d does not exist in %s, using %d", p.Edition, filepath.Base(path), idx)
	}
	if len(editions) > 1 {
		t.log.Infof("Found %d editions in %s, selected %d", len(editions), filepath.Base(path), idx)
	}

	ed := editions[idx]
	if wanted {
		seg.uid = uid.WithEdition(ed.UID)
	}
	if !ed.Ordered {
		return seg, nil
	}

	chapters := make([]models.ChapterEntry, len(ed.Chapters))
	for i, c := range ed.Chapters {
		if !c.HasTarget {
			c.Target = uid
		}
		chapters[i] = c
	}
	seg.chapters = chapters
	return seg, nil
}

// Segment is a segment identified by the MKVToolNix tools. It holds no open
// resources.
type Segment struct {
	path        string
	uid         models.SegmentUID
	duration    time.Duration
	chapters    []models.ChapterEntry
	tracks      []models.Track
	attachments []models.Attachment

	// Editions is the number of editions in the file.
	Editions int
	// EditionIdx is the selected edition, or -1.
	EditionIdx int
}

func (s *Segment) Path() string { return s.path }
func (s *Segment) UID() models.SegmentUID { return s.uid }
func (s *Segment) Duration() time.Duration { return s.duration }
func (s *Segment) Chapters() []models.ChapterEntry { return s.chapters }
func (s *Segment) Tracks() []models.Track { return s.tracks }
func (s *Segment) Attachments() []models.Attachment { return s.attachments }
func (s *Segment) Close() error { return nil }

var (
	_ timeline.Opener           = (*Toolset)(nil)
	_ timeline.Segment          = (*Segment)(nil)
	_ timeline.AttachmentLister = (*Segment)(nil)
)
