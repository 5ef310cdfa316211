package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step command
type RunnerConfig struct {
	Title           string    // Command title (e.g., "Publish coupon")
	Command         string    // Full command (e.g., "couponwiz publish 3f2a")
	Params          []Param   // Parameters to display in header
	StepNames       []string  // Names for each step
	Troubleshooting []string  // Tips printed when the operation fails
	Output          io.Writer // Output writer (default: os.Stdout)
}

// Runner prints the header, step list and result of a multi-step command.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	width    int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		progress: NewProgress(config.StepNames...).SetWidth(width),
		output:   config.Output,
		width:    width,
	}
}

// Operation is the work performed under a Runner. It reports progress
// through onStep and returns the details shown in the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Param, error)

// Run executes the operation, printing each step as it settles and a
// success or failure box at the end. The operation's error is returned.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	_, _ = fmt.Fprintln(r.output, r.progress.Bar())
	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
		return err
	}

	details = append(details, P("Duration", duration.String()))
	result := NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())
	return nil
}

// onStep prints settled steps on their own line. A running step is drawn
// without a newline so the settled line overwrites it.
func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	if !r.progress.Update(stepNumber, status, message) {
		return
	}
	line := r.progress.Line(stepNumber)
	switch {
	case status.settled():
		_, _ = fmt.Fprintln(r.output, line)
	case status == StepRunning:
		_, _ = fmt.Fprint(r.output, line+"\r")
	}
}
