package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step of a command
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// settled reports whether the step has finished, successfully or not.
func (s StepStatus) settled() bool {
	return s == StepComplete || s == StepFailed || s == StepSkipped
}

func (s StepStatus) look() (string, lipgloss.Style) {
	switch s {
	case StepComplete:
		return StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		return StepMarkerRunning, StepRunningStyle
	case StepFailed:
		return FailureMarker, ErrorTitleStyle
	case StepSkipped:
		return StepMarkerSkipped, StepPendingStyle
	default:
		return StepMarkerPending, StepPendingStyle
	}
}

// Step is one named step of a command
type Step struct {
	Name    string
	Status  StepStatus
	Message string // Shown in parentheses after the marker, e.g. "Spring Sale"
}

// Progress is the checklist of a multi-step command with a completion bar.
// Steps are numbered from 1.
type Progress struct {
	Steps []Step
	Width int
	bar   progress.Model
}

// NewProgress creates a checklist with every step pending
func NewProgress(names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	p := &Progress{Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sizes the completion bar for the terminal width
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := min(max(width-24, 20), 50)
	p.bar = progress.New(
		progress.WithGradient(string(PrimaryColor), string(SuccessColor)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return p
}

// Update records the status of step n. Unknown steps are ignored and
// reported false.
func (p *Progress) Update(n int, status StepStatus, message string) bool {
	if n < 1 || n > len(p.Steps) {
		return false
	}
	p.Steps[n-1].Status = status
	p.Steps[n-1].Message = message
	return true
}

// Done counts the steps that completed or were skipped.
func (p *Progress) Done() int {
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	return done
}

// Percent is the share of steps done, between 0 and 1.
func (p *Progress) Percent() float64 {
	if len(p.Steps) == 0 {
		return 1
	}
	return float64(p.Done()) / float64(len(p.Steps))
}

// Bar renders the completion bar with the done count
func (p *Progress) Bar() string {
	return fmt.Sprintf("  %s  %3.0f%%  %d/%d steps", p.bar.ViewAs(p.Percent()), p.Percent()*100, p.Done(), len(p.Steps))
}

// Line renders step n as a checklist row. Markers line up in one column.
func (p *Progress) Line(n int) string {
	if n < 1 || n > len(p.Steps) {
		return ""
	}
	step := p.Steps[n-1]
	marker, style := step.Status.look()

	line := fmt.Sprintf("  [%d/%d] %s%s%s",
		n, len(p.Steps),
		style.Render(step.Name),
		strings.Repeat(" ", max(45-lipgloss.Width(step.Name), 1)),
		style.Render(marker))
	if step.Message != "" {
		line += "  " + StepNoteStyle.Render("("+step.Message+")")
	}
	return line
}

// Render returns the checklist under the completion bar
func (p *Progress) Render() string {
	lines := []string{p.Bar(), ""}
	for i := range p.Steps {
		lines = append(lines, p.Line(i+1))
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback reports the progress of step stepNumber to a Runner.
type StepCallback func(stepNumber int, status StepStatus, message string)
