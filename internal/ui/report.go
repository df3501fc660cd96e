package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"mkvlink/internal/timeutil"
	"mkvlink/timeline"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Section writes a section heading followed by a rule.
func Section(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	fmt.Fprintln(w, DimStyle.Render(rule))
}

// WriteReport writes a human-readable description of tl.
func WriteReport(w io.Writer, tl *timeline.Timeline) {
	Section(w, "Timeline")
	fmt.Fprintf(w, "  Duration:     %s\n", timeutil.FormatDuration(tl.Duration()))
	fmt.Fprintf(w, "  Parts:        %d\n", len(tl.Parts))
	fmt.Fprintf(w, "  Sources:      %d\n", len(tl.Sources))
	if tl.TrackLayout >= 0 && tl.TrackLayout < len(tl.Sources) {
		fmt.Fprintf(w, "  Track layout: %s\n", filepath.Base(tl.Sources[tl.TrackLayout].Path()))
	}
	fmt.Fprintln(w)

	for i, p := range tl.Parts {
		style := SourceStyle
		if p.Source != 0 {
			style = ForeignSourceStyle
		}
		fmt.Fprintf(w, "  %3d  %s - %s  %s  %s\n",
			i+1,
			TimestampStyle.Render(timeutil.FormatDuration(p.Start)),
			TimestampStyle.Render(timeutil.FormatDuration(p.End)),
			style.Render(filepath.Base(p.SourcePath)),
			DimStyle.Render("@ "+timeutil.FormatDuration(p.SourceStart)),
		)
	}
	fmt.Fprintln(w)

	if len(tl.Chapters) > 0 {
		Section(w, "Chapters")
		for _, c := range tl.Chapters {
			title := c.Title
			if title == "" {
				title = fmt.Sprintf("Chapter %d", c.Index+1)
			}
			fmt.Fprintf(w, "  %s  %s\n", TimestampStyle.Render(timeutil.FormatDuration(c.Start)), title)
		}
		fmt.Fprintln(w)
	}

	if len(tl.Attachments) > 0 {
		Section(w, "Attachments")
		for _, a := range tl.Attachments {
			fmt.Fprintf(w, "  %-32s %10s  %s\n", a.Name, humanize.IBytes(uint64(max(a.Size, 0))), DimStyle.Render(filepath.Base(a.Source)))
		}
		fmt.Fprintln(w)
	}

	if len(tl.Warnings) > 0 {
		Section(w, "Warnings")
		for _, msg := range tl.Warnings {
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("⚠"), strings.TrimSpace(msg))
		}
		fmt.Fprintln(w)
	}

	if tl.Missing > 0 {
		fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("Missing: %s seconds of the timeline could not be resolved", timeutil.Seconds(tl.Missing))))
	} else {
		fmt.Fprintln(w, OKStyle.Render("✓ All referenced segments found"))
	}
}
