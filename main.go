package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"mkvlink/command"
	"mkvlink/command/render"
	"mkvlink/config"
	"mkvlink/export"
	"mkvlink/internal/logger"
	"mkvlink/internal/timeutil"
	"mkvlink/internal/ui"
	"mkvlink/mkvtoolnix"
	"mkvlink/models"
	"mkvlink/orchestrator"
	"mkvlink/timeline"
)

func main() {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.EffectiveLogLevel())

	if cfg.Verbose {
		cfg.PrintConfig()
		fmt.Println()
	}

	// Step 2: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 3: Register signal handlers (Ctrl+C, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	// Step 4: Resolve and export
	if err := run(ctx, cfg, log); err != nil {
		// Check if it was a cancellation
		if errors.Is(err, context.Canceled) {
			fmt.Println("\n⚠️  Cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "\n❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// run opens the input, resolves its ordered chapters and writes the
// configured outputs.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	startTime := time.Now()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 MKVLINK - ORDERED CHAPTERS                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:  %s\n", cfg.Input)
	fmt.Println()

	tools := mkvtoolnix.NewToolset(cfg.Tools.Mkvmerge, cfg.Tools.Mkvextract, log)
	if err := tools.CheckAvailable(); err != nil {
		return fmt.Errorf("MKVToolNix is required: %w", err)
	}

	// PHASE 1: Open the root segment
	ui.Section(os.Stdout, "📊 Phase 1: Media Analysis")

	root, err := tools.OpenSegment(ctx, cfg.Input, timeline.OpenParams{Edition: cfg.Edition})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.Input, err)
	}
	defer root.Close()

	printSegment(root)

	// PHASE 2: Resolve
	ui.Section(os.Stdout, "🔗 Phase 2: Resolving Ordered Chapters")

	resolver := timeline.NewResolver(tools, log).
		SetEnabled(cfg.OrderedChapters).
		SetMergeThreshold(cfg.MergeThreshold()).
		SetFiles(cfg.Files).
		SetFilesList(cfg.OrderedChaptersFiles)

	tl, err := resolver.Resolve(ctx, root)
	switch {
	case errors.Is(err, timeline.ErrNotOrdered):
		fmt.Println("  File does not use ordered chapters, nothing to resolve.")
		return nil
	case errors.Is(err, timeline.ErrDisabled):
		fmt.Println("  Ordered chapter support is disabled.")
		return nil
	case err != nil:
		return err
	}
	defer tl.Close()

	fmt.Printf("  Resolved in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	ui.WriteReport(os.Stdout, tl)
	fmt.Println()

	if cfg.DryRun {
		if cfg.Export.Render != "" {
			cmd := newRenderCommand(cfg, tl, log)
			if cmdStr, err := cmd.DryRun(); err == nil {
				fmt.Printf("  %s: %s\n", cmd.GetTaskType(), ui.DimStyle.Render(cmdStr))
			}
		}
		fmt.Println("✓ Dry run, no outputs written.")
		return nil
	}
	if !cfg.HasExports() {
		return nil
	}

	// PHASE 3: Outputs
	ui.Section(os.Stdout, "💾 Phase 3: Outputs")

	orch := orchestrator.NewDAGOrchestrator([]orchestrator.ResourceConstraint{
		{Type: orchestrator.ResourceIO, MaxSlots: 2},
		{Type: orchestrator.ResourceFFmpeg, MaxSlots: 1},
	})
	if err := addOutputTasks(orch, cfg, tl, log); err != nil {
		return err
	}
	orch.SetProgressCallback(func(completed, total int, task *orchestrator.Task) {
		if task.Resource == orchestrator.ResourceFFmpeg {
			fmt.Println()
		}
		log.Debugf("[%d/%d] %s %s", completed, total, task.ID, task.Status)
	})

	results, err := orch.Execute(ctx)
	printResults(results)
	if err != nil {
		return err
	}

	fmt.Printf("\n✅ Done in %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func printSegment(seg timeline.Segment) {
	fmt.Printf("  UID:            %s\n", seg.UID())
	fmt.Printf("  Duration:       %s\n", timeutil.FormatDuration(seg.Duration()))
	fmt.Printf("  Tracks:         %d\n", len(seg.Tracks()))
	if s, ok := seg.(*mkvtoolnix.Segment); ok && s.Editions > 0 {
		fmt.Printf("  Editions:       %d (selected %d)\n", s.Editions, s.EditionIdx)
	}
	if n := len(seg.Chapters()); n > 0 {
		fmt.Printf("  Chapters:       %d (ordered)\n", n)
	}
	if info, err := os.Stat(seg.Path()); err == nil {
		fmt.Printf("  Size:           %s\n", humanize.IBytes(uint64(info.Size())))
	}
	fmt.Println()
}

// addOutputTasks registers one task per configured output. Script exports
// share the IO slots; the render gets the single ffmpeg slot.
func addOutputTasks(orch *orchestrator.DAGOrchestrator, cfg *config.Config, tl *timeline.Timeline, log logger.Logger) error {
	exports := []struct {
		path   string
		format export.Format
	}{
		{cfg.Export.EDL, export.FormatEDL},
		{cfg.Export.FFConcat, export.FormatFFConcat},
		{cfg.Export.FFMetadata, export.FormatFFMetadata},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		err := orch.AddTask(&orchestrator.Task{
			ID:       string(e.format),
			Runner:   &export.Job{Path: e.path, Format: e.format, Timeline: tl},
			Resource: orchestrator.ResourceIO,
		})
		if err != nil {
			return err
		}
	}

	if cfg.Export.Render == "" {
		return nil
	}

	cmd := newRenderCommand(cfg, tl, log)
	if cmdStr, err := cmd.DryRun(); err == nil {
		log.Debugf("%s", cmdStr)
	}
	return orch.AddCommand(cmd)
}

func newRenderCommand(cfg *config.Config, tl *timeline.Timeline, log logger.Logger) command.Command {
	return render.NewRenderBuilder(tl, cfg.Export.Render).
		SetFFmpegPath(cfg.Tools.FFmpeg).
		SetFFprobePath(cfg.Tools.FFprobe).
		KeepScripts(cfg.Export.KeepScripts).
		SetLogger(log).
		SetProgressCallback(func(p *models.RenderProgress) {
			fmt.Printf("\r  %s", p.FormatSummary())
		})
}

func printResults(results []orchestrator.Result) {
	for _, r := range results {
		if !r.Success {
			fmt.Printf("  ✗ %-10s %v\n", r.TaskID, r.Error)
			continue
		}
		size := ""
		if info, err := os.Stat(r.OutputPath); err == nil {
			size = " (" + humanize.IBytes(uint64(info.Size())) + ")"
		}
		fmt.Printf("  ✓ %-10s %s%s %s\n", r.TaskID, filepath.Base(r.OutputPath), size,
			ui.DimStyle.Render(r.Duration.Round(time.Millisecond).String()))
	}
}
