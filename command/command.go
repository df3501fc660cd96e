// Package command provides the Command interface for building and executing
// external tool invocations.
//
// Builders such as render.RenderBuilder implement Command, so callers can
// preview a command with DryRun or execute it with Run without knowing which
// tool it drives.
package command

import "context"

// TaskType represents the type of task a command performs.
type TaskType string

const (
	TaskTypeRender TaskType = "render" // Flatten a timeline into one file
)

// Command represents an external command that can be built, executed, or
// previewed.
//
// Example usage:
//
//	cmd := render.NewRenderBuilder(tl, "flat.mkv").
//		SetFFmpegPath("/usr/bin/ffmpeg")
//
//	// Preview the command
//	cmd.DryRun()
//
//	// Execute the command
//	cmd.Run(ctx)
type Command interface {
	// BuildArgs constructs and returns the command arguments as a slice.
	BuildArgs() []string

	// Run executes the command and blocks until it completes. Cancelling
	// ctx kills the process.
	Run(ctx context.Context) error

	// DryRun returns the command line as a string without executing it.
	DryRun() (string, error)

	// GetTaskType returns the type of task.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}
