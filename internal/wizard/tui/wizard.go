package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/wizard"
)

// operationDoneMsg carries the result of a save or publish run off the
// event loop.
type operationDoneMsg struct {
	result wizard.Result
}

// wizardKeyMap defines key bindings for the wizard screen
type wizardKeyMap struct {
	Continue    key.Binding
	Next        key.Binding
	Prev        key.Binding
	NextSection key.Binding
	PrevSection key.Binding
	Jump        key.Binding
	Revert      key.Binding
	Save        key.Binding
	Publish     key.Binding
	Discard     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k wizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Next, k.Save, k.Publish, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k wizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Continue, k.Next, k.Prev, k.Revert},
		{k.NextSection, k.PrevSection, k.Jump},
		{k.Save, k.Publish, k.Discard, k.Help, k.Quit},
	}
}

func newWizardKeyMap() wizardKeyMap {
	return wizardKeyMap{
		Continue: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "next section"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "previous section"),
		),
		Jump: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5"),
			key.WithHelp("alt+1…5", "open section"),
		),
		Revert: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "revert field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save draft"),
		),
		Publish: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "publish"),
		),
		Discard: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "discard"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// WizardModel is the accordion of coupon sections. Collapsed rows show
// their summary, the active row shows one text input per field.
//
// Inputs write through to the machine on every change so validation and
// autosave follow typing. They are rebuilt whenever the active section
// changes.
type WizardModel struct {
	session *wizard.Session
	machine *wizard.Machine
	ctx     context.Context

	// UI state
	Width  int
	Height int

	// Inputs for the active section
	section   wizard.Section
	fields    []wizard.Field
	inputs    []textinput.Model
	fieldErrs map[string]string // Parse errors keyed by field
	focus     int

	// isProcessing: a save or publish is in flight
	Processing bool
	Action     wizard.Action
	Spinner    spinner.Model

	// Status line under the accordion
	Status    string
	StatusErr bool

	ShowingHelp    bool
	ConfirmDiscard bool

	// Publish outcome, picked up by AppModel
	Published  *coupon.Coupon
	PublishErr error

	Help help.Model
	Keys wizardKeyMap
}

// NewWizardModel creates the wizard screen for a session. ctx bounds the
// save and publish operations started from the screen.
func NewWizardModel(ctx context.Context, session *wizard.Session) WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := WizardModel{
		session: session,
		machine: session.Machine(),
		ctx:     ctx,
		Spinner: s,
		Help:    help.New(),
		Keys:    newWizardKeyMap(),
	}
	m.syncInputs()
	return m
}

// Init starts the cursor blink of the focused input
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resizeInputs()
		return m, nil

	case spinner.TickMsg:
		if !m.Processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case operationDoneMsg:
		return m.finishOperation(msg.result)

	case tea.KeyMsg:
		if m.ShowingHelp {
			// Any key closes the help overlay
			m.ShowingHelp = false
			return m, nil
		}
		if m.Processing {
			// Block all input while saving
			return m, nil
		}
		if m.ConfirmDiscard {
			return m.updateDiscardConfirm(msg)
		}
		return m.updateKeys(msg)
	}

	return m.updateInput(msg)
}

func (m WizardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Help):
		m.ShowingHelp = true
		return m, nil

	case key.Matches(msg, m.Keys.Continue):
		return m.handleContinue()

	case key.Matches(msg, m.Keys.Next):
		cmd := m.moveFocus(1)
		return m, cmd

	case key.Matches(msg, m.Keys.Prev):
		cmd := m.moveFocus(-1)
		return m, cmd

	case key.Matches(msg, m.Keys.NextSection):
		return m.jumpBy(1)

	case key.Matches(msg, m.Keys.PrevSection):
		return m.jumpBy(-1)

	case key.Matches(msg, m.Keys.Jump):
		idx := int(msg.String()[len("alt+")] - '1')
		sections := m.machine.Sections()
		if idx < 0 || idx >= len(sections) {
			return m, nil
		}
		return m.jumpTo(sections[idx])

	case key.Matches(msg, m.Keys.Revert):
		m.revertField()
		return m, nil

	case key.Matches(msg, m.Keys.Save):
		return m.startOperation(wizard.ActionSave)

	case key.Matches(msg, m.Keys.Publish):
		if m.holdForFieldErrors() {
			return m, nil
		}
		return m.startOperation(wizard.ActionPublish)

	case key.Matches(msg, m.Keys.Discard):
		m.ConfirmDiscard = true
		return m, nil
	}

	return m.updateInput(msg)
}

// updateInput passes a message to the focused input and writes a changed
// value through to the record.
func (m WizardModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	if value := m.inputs[m.focus].Value(); value != before {
		f := m.fields[m.focus]
		if err := m.machine.SetField(f, value); err != nil {
			m.fieldErrs[f.Key] = err.Error()
			var vErr *coupon.ValidationError
			if errors.As(err, &vErr) {
				m.fieldErrs[f.Key] = vErr.Message
			}
		} else {
			delete(m.fieldErrs, f.Key)
		}
		m.Status = ""
	}
	return m, cmd
}

// handleContinue completes the active section. On the last section a valid
// record is published.
func (m WizardModel) handleContinue() (tea.Model, tea.Cmd) {
	before := m.machine.Active()
	if m.holdForFieldErrors() {
		return m, nil
	}
	if m.machine.Continue() {
		m.Status = ""
		if m.machine.Active() != before {
			cmd := m.syncInputs()
			return m, cmd
		}
		return m, nil
	}

	if !m.machine.Status(before).Valid {
		m.setStatus(fmt.Sprintf("%s has errors, fix them to continue", before.Title()), true)
		return m, nil
	}
	// Valid last section
	return m.startOperation(wizard.ActionPublish)
}

func (m WizardModel) jumpBy(delta int) (tea.Model, tea.Cmd) {
	sections := m.machine.Sections()
	for i, s := range sections {
		if s != m.machine.Active() {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(sections) {
			return m, nil
		}
		return m.jumpTo(sections[j])
	}
	return m, nil
}

func (m WizardModel) jumpTo(target wizard.Section) (tea.Model, tea.Cmd) {
	if target != m.machine.Active() && m.holdForFieldErrors() {
		return m, nil
	}
	if err := m.machine.SetActiveSection(target); err != nil {
		if errors.Is(err, wizard.ErrSectionNotReached) {
			m.setStatus(fmt.Sprintf("Complete the earlier sections before %s", target.Title()), true)
			return m, nil
		}
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.Status = ""
	cmd := m.syncInputs()
	return m, cmd
}

// holdForFieldErrors keeps the user on the active section while any of its
// inputs holds text that did not parse. The record still carries the last
// value that did, so the section rule alone cannot see the problem.
func (m *WizardModel) holdForFieldErrors() bool {
	if len(m.fieldErrs) == 0 {
		return false
	}
	active := m.machine.Active()
	m.machine.MarkSectionTouched(active)
	m.machine.ValidateSection(active)
	m.setStatus(fmt.Sprintf("%s has errors, fix them to continue", active.Title()), true)
	return true
}

// startOperation prepares a save or publish and runs it off the event loop.
func (m WizardModel) startOperation(action wizard.Action) (tea.Model, tea.Cmd) {
	var (
		op  *wizard.Operation
		err error
	)
	if action == wizard.ActionPublish {
		op, err = m.session.PreparePublish()
	} else {
		op, err = m.session.PrepareSave()
	}
	if err != nil {
		m.setStatus(operationMessage(action, err), true)
		return m, nil
	}

	m.Processing = true
	m.Action = action
	m.Status = ""
	m.Published, m.PublishErr = nil, nil
	return m, tea.Batch(m.Spinner.Tick, runOperationCmd(m.ctx, op))
}

// runOperationCmd runs a prepared operation
func runOperationCmd(ctx context.Context, op *wizard.Operation) tea.Cmd {
	return func() tea.Msg {
		return operationDoneMsg{result: op.Run(ctx)}
	}
}

func (m WizardModel) finishOperation(res wizard.Result) (tea.Model, tea.Cmd) {
	m.session.Complete(res)
	m.Processing = false

	switch {
	case res.Action == wizard.ActionPublish && res.Err == nil:
		m.Published = res.Coupon
		cmd := m.syncInputs()
		return m, cmd

	case res.Action == wizard.ActionPublish:
		m.PublishErr = res.Err
		m.setStatus(operationMessage(res.Action, res.Err), true)

	case res.Err != nil:
		m.setStatus(operationMessage(res.Action, res.Err), true)

	default:
		m.setStatus(fmt.Sprintf("%s Saved as draft %s", MarkerComplete, shortID(res.Coupon.ID)), false)
	}
	return m, nil
}

// operationMessage turns a save or publish error into a status line.
func operationMessage(action wizard.Action, err error) string {
	switch {
	case errors.Is(err, wizard.ErrBusy):
		return "A save is already in progress"
	case errors.Is(err, wizard.ErrNotCompletable):
		return "Cannot publish yet: " + strings.TrimPrefix(err.Error(), wizard.ErrNotCompletable.Error()+": ")
	case coupon.IsConflict(err):
		return "Conflict: " + firstLine(err)
	case coupon.IsValidationError(err):
		return "Rejected: " + firstLine(err)
	default:
		return fmt.Sprintf("%s failed: %s", strings.ToUpper(action.String()[:1])+action.String()[1:], firstLine(err))
	}
}

func (m WizardModel) updateDiscardConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.ConfirmDiscard = false
	switch msg.String() {
	case "y", "Y":
		if err := m.session.Discard(m.ctx); err != nil {
			m.setStatus("Discard failed: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("Draft discarded", false)
		cmd := m.syncInputs()
		return m, cmd
	}
	return m, nil
}

// revertField resets the focused input to the record value
func (m *WizardModel) revertField() {
	if len(m.inputs) == 0 {
		return
	}
	f := m.fields[m.focus]
	m.inputs[m.focus].SetValue(f.Get(m.machine.Record()))
	delete(m.fieldErrs, f.Key)
}

func (m *WizardModel) moveFocus(delta int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

// syncInputs rebuilds the inputs for the active section from the record.
func (m *WizardModel) syncInputs() tea.Cmd {
	m.section = m.machine.Active()
	m.fields = m.machine.Fields(m.section)
	m.inputs = make([]textinput.Model, len(m.fields))
	m.fieldErrs = make(map[string]string)
	m.focus = 0

	record := m.machine.Record()
	for i, f := range m.fields {
		in := textinput.New()
		in.Placeholder = f.Placeholder
		in.CharLimit = 120
		in.SetValue(f.Get(record))
		m.inputs[i] = in
	}
	m.resizeInputs()

	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[0].Focus()
}

func (m *WizardModel) resizeInputs() {
	width := m.Width - 30 // Label column and borders
	if width < 20 {
		width = 20
	}
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
}

func (m *WizardModel) setStatus(text string, isErr bool) {
	m.Status = text
	m.StatusErr = isErr
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.ShowingHelp {
		return RenderModal(m.renderHelpContent(), m.Width, m.Height)
	}
	return RenderApplicationContainer(m.renderContent(), m.footer(), m.Width, m.Height)
}

func (m WizardModel) footer() string {
	if m.ConfirmDiscard {
		return "Discard this coupon and its draft? y to confirm, any other key to keep editing"
	}
	return m.Help.View(m.Keys)
}

func (m WizardModel) renderContent() string {
	rows := make([]string, 0, len(m.machine.Sections())+2)
	for _, s := range m.machine.Sections() {
		if s == m.machine.Active() {
			rows = append(rows, m.renderActiveSection(s))
			continue
		}
		rows = append(rows, m.renderCollapsedSection(s))
	}

	rows = append(rows, "", m.renderStatusLine())
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// sectionMarker decides the marker of a section row.
func (m WizardModel) sectionMarker(s wizard.Section) string {
	status := m.machine.Status(s)
	switch {
	case s == m.machine.Active():
		return FocusedInputStyle.Render(MarkerActive)
	case m.machine.IsSectionComplete(s):
		return StatusOKStyle.Render(MarkerComplete)
	case status.Touched && !status.Valid:
		return StatusErrorStyle.Render(MarkerInvalid)
	case reached(m.machine, s):
		return SummaryStyle.Render(MarkerPending)
	default:
		return MarkerLocked
	}
}

func (m WizardModel) renderCollapsedSection(s wizard.Section) string {
	marker := m.sectionMarker(s)
	if !reached(m.machine, s) {
		return fmt.Sprintf(" %s %s", marker, LockedSectionStyle.Render(s.Title()))
	}
	return fmt.Sprintf(" %s %s %s", marker, SectionTitleStyle.Render(s.Title()), SummaryStyle.Render(m.machine.Summary(s)))
}

func (m WizardModel) renderActiveSection(s wizard.Section) string {
	lines := []string{FocusedInputStyle.Render(MarkerActive + " " + strings.ToUpper(s.Title()))}

	ruleErrs := fieldRuleErrors(m.machine, s)
	for i, f := range m.fields {
		labelStyle := BlurredInputStyle
		if i == m.focus {
			labelStyle = FocusedInputStyle
		}
		label := labelStyle.Width(20).Render(f.Label)
		lines = append(lines, label+" "+m.inputs[i].View())

		if msg, ok := m.fieldErrs[f.Key]; ok {
			lines = append(lines, FieldErrorStyle.Render("✗ "+msg))
		} else if msg, ok := ruleErrs[f.Key]; ok {
			lines = append(lines, FieldErrorStyle.Render("✗ "+msg))
		}
	}

	if m.machine.IsEditingPreviousSection() {
		lines = append(lines, "", SubtitleStyle.Render(fmt.Sprintf("enter returns to %s", m.machine.Furthest().Title())))
	}

	width := m.Width - 12
	if width < 40 {
		width = 40
	}
	return ActiveSectionStyle(width).Render(strings.Join(lines, "\n"))
}

func (m WizardModel) renderStatusLine() string {
	if m.Processing {
		verb := "Saving"
		if m.Action == wizard.ActionPublish {
			verb = "Publishing"
		}
		return SpinnerStyle.Render(m.Spinner.View() + " " + verb + "...")
	}
	if m.Status != "" {
		if m.StatusErr {
			return StatusErrorStyle.Render(m.Status)
		}
		return StatusOKStyle.Render(m.Status)
	}
	if m.machine.Dirty() {
		return SubtitleStyle.Render("Unsaved changes (draft autosaved)")
	}
	return ""
}

func (m WizardModel) renderHelpContent() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		RenderTitle("Keyboard"),
		m.Help.FullHelpView(m.Keys.FullHelp()),
		"",
		RenderSubtitle("Sections open in order. Completed sections can be reopened at any time."),
		RenderSubtitle("Press any key to close."),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2).
		Render(body)
}

// reached reports whether s is at or before the furthest section.
func reached(m *wizard.Machine, s wizard.Section) bool {
	for _, sec := range m.Sections() {
		if sec == s {
			return true
		}
		if sec == m.Furthest() {
			return false
		}
	}
	return false
}

// fieldRuleErrors maps the rule violations of a touched section to the
// fields they concern.
func fieldRuleErrors(m *wizard.Machine, s wizard.Section) map[string]string {
	out := make(map[string]string)
	if !m.Status(s).Touched {
		return out
	}
	for _, err := range m.Errors(s) {
		var vErr *coupon.ValidationError
		if errors.As(err, &vErr) {
			if _, dup := out[vErr.Field]; !dup {
				out[vErr.Field] = vErr.Message
			}
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
