// Package command provides the Command interface shared by ffmpeg command
// builders.
//
// A Command can be previewed (DryRun) or executed (Run). Workers in the
// orchestrator process Commands without knowing which builder made them.
package command

import "context"

// TaskType represents the type of ffmpeg task.
type TaskType string

const (
	TaskTypeExtract TaskType = "extract" // Cut one segment out of a source
)

// Command represents an ffmpeg invocation that can be built, executed, or
// previewed.
//
// Example usage:
//
//	seg := models.Segment{Index: 1, Start: 0, End: 60}
//	cmd := clip.NewClipBuilder("input.mp4", seg, "clip_0_60.mp4").
//		SetMode(models.ModeCopy)
//
//	preview, _ := cmd.DryRun()
//	err := cmd.Run(ctx)
type Command interface {
	// BuildArgs constructs the ffmpeg arguments, suitable for
	// exec.Command("ffmpeg", args...).
	BuildArgs() []string

	// Run executes the command and blocks until it exits. Cancelling ctx
	// kills the ffmpeg process.
	//
	// Returns an error if the command cannot start or exits non-zero.
	Run(ctx context.Context) error

	// DryRun returns the command line without executing it.
	DryRun() (string, error)

	// GetTaskType returns the type of task.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}
