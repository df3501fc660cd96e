package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// MergeFromFlags parses command-line flags and overrides config values.
// A positional argument is taken as the input file when -input is absent.
func (c *Config) MergeFromFlags(args []string) error {
	// Define flags
	fs := flag.NewFlagSet("mkvlink", flag.ContinueOnError)
	fs.Usage = printUsage

	input := fs.String("input", "", "Root Matroska file (required)")

	// Config file override (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Ordered chapter settings
	ordered := fs.Bool("ordered-chapters", false, "Enable ordered chapter resolution")
	noOrdered := fs.Bool("no-ordered-chapters", false, "Disable ordered chapter resolution")
	filesList := fs.String("ordered-chapters-files", "", "Playlist file listing candidate segment files")
	files := fs.String("files", "", "Comma-separated candidate segment files")
	threshold := fs.Int("chapter-merge-threshold", -1, "Merge threshold in milliseconds (default: from config)")
	edition := fs.Int("edition", -2, "Edition index, -1 for the default edition (default: from config)")

	// Tools
	mkvmerge := fs.String("mkvmerge", "", "Path to mkvmerge (default: from config)")
	mkvextract := fs.String("mkvextract", "", "Path to mkvextract (default: from config)")
	ffmpegPath := fs.String("ffmpeg", "", "Path to ffmpeg (default: from config)")
	ffprobePath := fs.String("ffprobe", "", "Path to ffprobe (default: from config)")
	noVerify := fs.Bool("no-verify", false, "Skip checking the rendered file with ffprobe")

	// Exports
	edl := fs.String("edl", "", "Write an mpv EDL to this path")
	ffconcat := fs.String("ffconcat", "", "Write an ffmpeg concat script to this path")
	ffmetadata := fs.String("ffmetadata", "", "Write ffmpeg chapter metadata to this path")
	render := fs.String("render", "", "Render the timeline into this Matroska file")
	keepScripts := fs.Bool("keep-scripts", false, "Keep the render scripts next to the output")

	// Behavioral flags
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default: from config)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	dryRun := fs.Bool("dry-run", false, "Resolve and report without writing outputs")

	// Parse flags
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Override with flag values (only if explicitly set)
	if *input != "" {
		c.Input = *input
	} else if fs.NArg() > 0 {
		c.Input = fs.Arg(0)
	}

	if *ordered {
		c.OrderedChapters = true
	}
	if *noOrdered {
		c.OrderedChapters = false
	}
	if *filesList != "" {
		c.OrderedChaptersFiles = *filesList
	}
	if *files != "" {
		c.Files = splitList(*files)
	}
	// -1 means not set
	if *threshold >= 0 {
		c.ChapterMergeThreshold = *threshold
	}
	// -2 means not set
	if *edition != -2 {
		c.Edition = *edition
	}

	if *mkvmerge != "" {
		c.Tools.Mkvmerge = *mkvmerge
	}
	if *mkvextract != "" {
		c.Tools.Mkvextract = *mkvextract
	}
	if *ffmpegPath != "" {
		c.Tools.FFmpeg = *ffmpegPath
	}
	if *ffprobePath != "" {
		c.Tools.FFprobe = *ffprobePath
	}
	if *noVerify {
		c.Tools.FFprobe = ""
	}

	if *edl != "" {
		c.Export.EDL = *edl
	}
	if *ffconcat != "" {
		c.Export.FFConcat = *ffconcat
	}
	if *ffmetadata != "" {
		c.Export.FFMetadata = *ffmetadata
	}
	if *render != "" {
		c.Export.Render = *render
	}
	if *keepScripts {
		c.Export.KeepScripts = true
	}

	if *logLevel != "" {
		c.LogLevel = *logLevel
	}
	if *verbose {
		c.Verbose = true
	}
	if *dryRun {
		c.DryRun = true
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `mkvlink - Resolve Matroska ordered chapters into a single timeline

USAGE:
  mkvlink [OPTIONS] FILE
  mkvlink -input FILE [OPTIONS]

CONFIGURATION:
  -config string
        Path to config file (default: search ./mkvlink.yaml, ~/.mkvlink/config.yaml, /etc/mkvlink/config.yaml)

ORDERED CHAPTERS:
  --ordered-chapters
        Enable ordered chapter resolution (default: true)
  --no-ordered-chapters
        Disable ordered chapter resolution
  -ordered-chapters-files string
        Playlist file listing candidate segment files, one per line
  -files string
        Comma-separated candidate segment files
  -chapter-merge-threshold int
        Gap or overlap in milliseconds absorbed between chapters (default: 100)
  -edition int
        Edition index of the input file, -1 for the default edition (default: -1)

TOOLS:
  -mkvmerge string
        Path to mkvmerge (default: mkvmerge)
  -mkvextract string
        Path to mkvextract (default: mkvextract)
  -ffmpeg string
        Path to ffmpeg (default: ffmpeg)
  -ffprobe string
        Path to ffprobe used to check renders (default: ffprobe)
  --no-verify
        Skip checking the rendered file

OUTPUTS:
  -edl string
        Write an mpv EDL playlist
  -ffconcat string
        Write an ffmpeg concat demuxer script
  -ffmetadata string
        Write ffmpeg chapter metadata
  -render string
        Render the timeline into a single Matroska file (stream copy)
  --keep-scripts
        Keep the concat and metadata scripts used for rendering

BEHAVIORAL FLAGS:
  -log-level string
        Log level: debug, info, warn, error (default: info)
  --verbose
        Enable verbose logging
  --dry-run
        Resolve and print the timeline without writing outputs

EXAMPLES:
  # Show the resolved timeline
  mkvlink episode01.mkv

  # Write an EDL for mpv
  mkvlink -edl episode01.edl episode01.mkv

  # Use segments from another directory
  mkvlink -files /mnt/extras/op.mkv,/mnt/extras/ed.mkv episode01.mkv

  # Flatten into one file
  mkvlink -render episode01-flat.mkv episode01.mkv

CONFIGURATION FILES:
  Config files (YAML or TOML) are searched in order:
    1. ./mkvlink.yaml
    2. ~/.mkvlink/config.yaml
    3. /etc/mkvlink/config.yaml

  Priority: CLI flags > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig() {
	c.WriteConfig(os.Stdout)
}

// WriteConfig writes the effective configuration to w
func (c *Config) WriteConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Input:            %s\n", c.Input)
	fmt.Fprintf(w, "Ordered Chapters: %v\n", c.OrderedChapters)
	fmt.Fprintf(w, "Merge Threshold:  %d ms\n", c.ChapterMergeThreshold)
	if c.Edition >= 0 {
		fmt.Fprintf(w, "Edition:          %d\n", c.Edition)
	} else {
		fmt.Fprintf(w, "Edition:          auto\n")
	}
	if c.OrderedChaptersFiles != "" {
		fmt.Fprintf(w, "File List:        %s\n", c.OrderedChaptersFiles)
	}
	if len(c.Files) > 0 {
		fmt.Fprintf(w, "Files:            %s\n", strings.Join(c.Files, ", "))
	}

	fmt.Fprintln(w, "\nTools:")
	fmt.Fprintf(w, "  mkvmerge:     %s\n", c.Tools.Mkvmerge)
	fmt.Fprintf(w, "  mkvextract:   %s\n", c.Tools.Mkvextract)
	fmt.Fprintf(w, "  ffmpeg:       %s\n", c.Tools.FFmpeg)
	if c.Tools.FFprobe != "" {
		fmt.Fprintf(w, "  ffprobe:      %s\n", c.Tools.FFprobe)
	}

	if c.HasExports() {
		fmt.Fprintln(w, "\nOutputs:")
		if c.Export.EDL != "" {
			fmt.Fprintf(w, "  EDL:          %s\n", c.Export.EDL)
		}
		if c.Export.FFConcat != "" {
			fmt.Fprintf(w, "  ffconcat:     %s\n", c.Export.FFConcat)
		}
		if c.Export.FFMetadata != "" {
			fmt.Fprintf(w, "  ffmetadata:   %s\n", c.Export.FFMetadata)
		}
		if c.Export.Render != "" {
			fmt.Fprintf(w, "  Render:       %s\n", c.Export.Render)
		}
	}

	fmt.Fprintln(w, "\nBehavioral Flags:")
	fmt.Fprintf(w, "  Log Level:    %s\n", c.EffectiveLogLevel())
	fmt.Fprintf(w, "  Dry Run:      %v\n", c.DryRun)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}
