// Package export writes resolved timelines in formats other players and
// tools understand.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mkvlink/internal/timeutil"
	"mkvlink/models"
	"mkvlink/timeline"
)

// Format identifies an output format.
type Format string

const (
	FormatEDL        Format = "edl"
	FormatFFConcat   Format = "ffconcat"
	FormatFFMetadata Format = "ffmetadata"
)

// Write writes tl to w in the given format.
func Write(w io.Writer, format Format, tl *timeline.Timeline) error {
	switch format {
	case FormatEDL:
		return WriteEDL(w, tl)
	case FormatFFConcat:
		return WriteFFConcat(w, tl)
	case FormatFFMetadata:
		return WriteFFMetadata(w, tl)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile writes tl to path in the given format, replacing any existing
// file.
func WriteFile(path string, format Format, tl *timeline.Timeline) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, format, tl); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Job writes a timeline to a file. It satisfies orchestrator.Runner.
type Job struct {
	Path     string
	Format   Format
	Timeline *timeline.Timeline
}

// Run writes the file unless ctx is already cancelled.
func (j *Job) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFile(j.Path, j.Format, j.Timeline)
}

// GetOutputPath returns the file the job writes.
func (j *Job) GetOutputPath() string {
	return j.Path
}

func checkParts(tl *timeline.Timeline) error {
	if tl == nil {
		return fmt.Errorf("no timeline to export")
	}
	if err := models.ValidateParts(tl.Parts); err != nil {
		return fmt.Errorf("invalid timeline: %w", err)
	}
	return nil
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", p, err)
	}
	return abs, nil
}

// WriteEDL writes an mpv EDL (v0) with one entry per part:
//
//	# mpv EDL v0
//	%17%/media/ep01.mkv,0,90
//
// Paths are length-prefixed so they may contain commas.
func WriteEDL(w io.Writer, tl *timeline.Timeline) error {
	if err := checkParts(tl); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# mpv EDL v0")
	for _, p := range tl.Parts {
		path, err := absPath(p.SourcePath)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%%%d%%%s,%s,%s\n",
			len(path), path, timeutil.Seconds(p.SourceStart), timeutil.Seconds(p.Length()))
	}
	return bw.Flush()
}

// WriteFFConcat writes a script for ffmpeg's concat demuxer. Each part
// becomes a file directive trimmed with inpoint and outpoint.
func WriteFFConcat(w io.Writer, tl *timeline.Timeline) error {
	if err := checkParts(tl); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ffconcat version 1.0")
	for _, p := range tl.Parts {
		path, err := absPath(p.SourcePath)
		if err != nil {
			return err
		}
		// Escape single quotes in path (replace ' with '\'')
		escaped := strings.ReplaceAll(path, "'", `'\''`)

		fmt.Fprintf(bw, "file '%s'\n", escaped)
		fmt.Fprintf(bw, "inpoint %s\n", timeutil.Seconds(p.SourceStart))
		fmt.Fprintf(bw, "outpoint %s\n", timeutil.Seconds(p.SourceEnd()))
	}
	return bw.Flush()
}

var metadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\n", "\\\n",
)

// WriteFFMetadata writes the timeline's chapters as an ffmpeg metadata file.
// Each chapter ends where the next begins; the last one ends with the
// timeline.
func WriteFFMetadata(w io.Writer, tl *timeline.Timeline) error {
	if err := checkParts(tl); err != nil {
		return err
	}

	total := tl.Duration()
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, ";FFMETADATA1")
	for i, c := range tl.Chapters {
		end := total
		if i+1 < len(tl.Chapters) {
			end = tl.Chapters[i+1].Start
		}
		if end < c.Start {
			end = c.Start
		}

		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "[CHAPTER]")
		fmt.Fprintln(bw, "TIMEBASE=1/1000000000")
		fmt.Fprintf(bw, "START=%d\n", c.Start.Nanoseconds())
		fmt.Fprintf(bw, "END=%d\n", end.Nanoseconds())
		if c.Title != "" {
			fmt.Fprintf(bw, "title=%s\n", metadataEscaper.Replace(c.Title))
		}
	}
	return bw.Flush()
}
