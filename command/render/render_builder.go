// Package render flattens a resolved timeline into a single Matroska file
// with ffmpeg, stream-copying every part.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mkvlink/command"
	"mkvlink/export"
	"mkvlink/ffmpeg"
	"mkvlink/ffprobe"
	"mkvlink/internal/logger"
	"mkvlink/models"
	"mkvlink/timeline"
)

// RenderBuilder builds and runs the ffmpeg invocation that concatenates the
// parts of a timeline. Parts are fed through the concat demuxer and chapters
// through an ffmetadata input.
type RenderBuilder struct {
	timeline   *timeline.Timeline
	outputPath string
	ffmpegPath string
	workDir    string

	// ffprobePath enables a check of the rendered file when set
	ffprobePath string

	keepScripts      bool
	extraArgs        []string
	progressCallback models.ProgressCallback
	log              logger.Logger
}

// NewRenderBuilder creates a render command for tl writing to outputPath.
func NewRenderBuilder(tl *timeline.Timeline, outputPath string) *RenderBuilder {
	return &RenderBuilder{
		timeline:   tl,
		outputPath: outputPath,
		ffmpegPath: "ffmpeg",
		extraArgs:  []string{},
		log:        logger.Nop(),
	}
}

// SetFFmpegPath sets the ffmpeg binary to run
func (r *RenderBuilder) SetFFmpegPath(path string) *RenderBuilder {
	if path != "" {
		r.ffmpegPath = path
	}
	return r
}

// SetFFprobePath enables checking the rendered file's duration and chapter
// count with the given ffprobe binary.
func (r *RenderBuilder) SetFFprobePath(path string) *RenderBuilder {
	r.ffprobePath = path
	return r
}

// SetWorkDir sets the directory receiving the concat and metadata scripts.
// Defaults to the output directory.
func (r *RenderBuilder) SetWorkDir(dir string) *RenderBuilder {
	r.workDir = dir
	return r
}

// KeepScripts leaves the generated scripts in place after Run.
func (r *RenderBuilder) KeepScripts(keep bool) *RenderBuilder {
	r.keepScripts = keep
	return r
}

// AddExtraArgs adds custom ffmpeg output arguments
func (r *RenderBuilder) AddExtraArgs(args ...string) *RenderBuilder {
	r.extraArgs = append(r.extraArgs, args...)
	return r
}

// SetProgressCallback sets a callback for progress updates
func (r *RenderBuilder) SetProgressCallback(callback models.ProgressCallback) *RenderBuilder {
	r.progressCallback = callback
	return r
}

// SetLogger sets the logger used for diagnostics
func (r *RenderBuilder) SetLogger(log logger.Logger) *RenderBuilder {
	if log != nil {
		r.log = log
	}
	return r
}

func (r *RenderBuilder) scriptBase() string {
	dir := r.workDir
	if dir == "" {
		dir = filepath.Dir(r.outputPath)
	}
	name := strings.TrimSuffix(filepath.Base(r.outputPath), filepath.Ext(r.outputPath))
	return filepath.Join(dir, name)
}

// ConcatPath returns where the concat script is written.
func (r *RenderBuilder) ConcatPath() string {
	return r.scriptBase() + ".ffconcat"
}

// MetadataPath returns where the chapter metadata is written.
func (r *RenderBuilder) MetadataPath() string {
	return r.scriptBase() + ".ffmeta"
}

// BuildArgs constructs the ffmpeg arguments for the render
func (r *RenderBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner",
		"-nostats",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", r.ConcatPath(),
		"-i", r.MetadataPath(),
		"-map", "0",
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-c", "copy",
		"-progress", "pipe:1",
	}

	args = append(args, r.extraArgs...)

	// Overwrite output
	args = append(args, "-y", r.outputPath)

	return args
}

// Prepare writes the concat and metadata scripts.
func (r *RenderBuilder) Prepare() error {
	if r.timeline == nil {
		return fmt.Errorf("no timeline to render")
	}
	if err := export.WriteFile(r.ConcatPath(), export.FormatFFConcat, r.timeline); err != nil {
		return fmt.Errorf("failed to write concat script: %w", err)
	}
	if err := export.WriteFile(r.MetadataPath(), export.FormatFFMetadata, r.timeline); err != nil {
		os.Remove(r.ConcatPath())
		return fmt.Errorf("failed to write chapter metadata: %w", err)
	}
	return nil
}

func (r *RenderBuilder) cleanup() {
	if r.keepScripts {
		return
	}
	os.Remove(r.ConcatPath())
	os.Remove(r.MetadataPath())
}

// Run renders the timeline. Progress is streamed to the progress callback
// when one is set.
func (r *RenderBuilder) Run(ctx context.Context) error {
	if err := r.Prepare(); err != nil {
		return err
	}
	defer r.cleanup()

	progress := models.NewRenderProgress(r.timeline.Duration())
	progress.State = models.ProgressStateRunning

	cmd := exec.CommandContext(ctx, r.ffmpegPath, r.BuildArgs()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	r.log.Debugf("Running %s", r.commandLine())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	parser := ffmpeg.NewProgressParser()
	streamErr := parser.StreamProgress(stdout, progress, r.progressCallback)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			progress.State = models.ProgressStateCancelled
			r.notify(progress)
			return ctx.Err()
		}
		progress.State = models.ProgressStateFailed
		r.notify(progress)
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, strings.TrimSpace(stderr.String()))
	}
	if streamErr != nil {
		r.log.Warnf("Render finished without progress output: %v", streamErr)
	}

	if _, err := os.Stat(r.outputPath); err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}

	r.log.Infof("Render completed: %s", r.outputPath)
	r.verify(ctx)
	return nil
}

// verify probes the rendered file. Mismatches are reported as warnings.
func (r *RenderBuilder) verify(ctx context.Context) {
	if r.ffprobePath == "" {
		return
	}
	result, err := ffprobe.Probe(ctx, r.ffprobePath, r.outputPath)
	if err != nil {
		r.log.Warnf("Could not check render: %v", err)
		return
	}
	if err := result.CheckTimeline(r.timeline.Duration(), len(r.timeline.Chapters), ffprobe.DefaultTolerance); err != nil {
		r.log.Warnf("Rendered file does not match timeline: %v", err)
		return
	}
	r.log.Debugf("Render matches timeline (%d streams)", len(result.Streams))
}

func (r *RenderBuilder) notify(progress *models.RenderProgress) {
	if r.progressCallback != nil {
		r.progressCallback(progress)
	}
}

func (r *RenderBuilder) commandLine() string {
	return r.ffmpegPath + " " + strings.Join(r.BuildArgs(), " ")
}

// DryRun returns the command that would be executed without running it
func (r *RenderBuilder) DryRun() (string, error) {
	if r.timeline == nil {
		return "", fmt.Errorf("no timeline to render")
	}
	if err := models.ValidateParts(r.timeline.Parts); err != nil {
		return "", fmt.Errorf("invalid timeline: %w", err)
	}
	return r.commandLine(), nil
}

// GetTaskType returns the task type identifier
func (r *RenderBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeRender
}

// GetInputPath returns the concat script path
func (r *RenderBuilder) GetInputPath() string {
	return r.ConcatPath()
}

// GetOutputPath returns the output file path
func (r *RenderBuilder) GetOutputPath() string {
	return r.outputPath
}

var _ command.Command = (*RenderBuilder)(nil)
