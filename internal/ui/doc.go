// Package ui provides terminal output components for the couponwiz CLI.
//
// This package uses Lipgloss (and the Bubbles progress bar) to render
// polished output for the non-interactive commands. Unlike the interactive
// wizard in internal/wizard/tui, these components follow a "print and exit"
// pattern.
//
// # Components
//
//   - Header: command banner showing the operation name and parameters
//   - Progress: step checklist under a completion bar
//   - Result: success, failure and warning boxes
//   - RenderTable: bordered tables for coupon listings
//   - Confirm: yes/no prompt behind a warning box
//
// Runner ties Header, Progress and Result together for commands that run
// in several steps:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Publish coupon",
//	    Command:   "couponwiz publish " + id,
//	    StepNames: []string{"Load coupon", "Check sections", "Publish"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, ui.StepComplete, "")
//	    return []ui.Param{ui.P("ID", id)}, nil
//	})
//
// # Logging Integration
//
// Logging is controlled by COUPONWIZ_LOG_LEVEL (or --log-level). When unset,
// zap logging is silent so the curated output is displayed cleanly.
package ui
