package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/wizard"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenWizard  Screen = "wizard"
	ScreenSuccess Screen = "success"
	ScreenFailure Screen = "failure"
)

// successKeyMap defines key bindings for the success screen
type successKeyMap struct {
	New  key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k successKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k successKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.New, k.Quit}}
}

// failureKeyMap defines key bindings for the failure screen
type failureKeyMap struct {
	Retry key.Binding
	Edit  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Edit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Edit, k.Quit}}
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	Wizard WizardModel

	// Outcome of the last publish
	Published *coupon.Coupon
	LastError error

	// Currency symbol for the success screen
	Currency string

	// UI state
	Width  int
	Height int

	// Help
	Help        help.Model
	SuccessKeys successKeyMap
	FailureKeys failureKeyMap
}

// NewAppModel creates the application around an open session. The session's
// machine should already hold the coupon to edit (new, resumed or opened).
func NewAppModel(ctx context.Context, session *wizard.Session, currency string) AppModel {
	return AppModel{
		CurrentScreen: ScreenWizard,
		Wizard:        NewWizardModel(ctx, session),
		Currency:      currency,
		Help:          help.New(),
		SuccessKeys: successKeyMap{
			New: key.NewBinding(
				key.WithKeys("enter", "n"),
				key.WithHelp("enter/n", "new coupon"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		FailureKeys: failureKeyMap{
			Retry: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "retry"),
			),
			Edit: key.NewBinding(
				key.WithKeys("enter", "e", "esc"),
				key.WithHelp("enter/e", "back to editing"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return m.Wizard.Init()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to the wizard
		updated, cmd := m.Wizard.Update(msg)
		m.Wizard = updated.(WizardModel)
		return m, cmd

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.CurrentScreen {
	case ScreenSuccess:
		return m.handleSuccessScreen(msg)
	case ScreenFailure:
		return m.handleFailureScreen(msg)
	}
	return m.updateWizard(msg)
}

// updateWizard routes a message to the wizard and picks up a publish outcome
func (m AppModel) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.Wizard.Update(msg)
	m.Wizard = updated.(WizardModel)

	switch {
	case m.Wizard.Published != nil:
		m.Published = m.Wizard.Published
		m.Wizard.Published = nil
		m.CurrentScreen = ScreenSuccess

	case m.Wizard.PublishErr != nil:
		m.LastError = m.Wizard.PublishErr
		m.Wizard.PublishErr = nil
		m.CurrentScreen = ScreenFailure
	}
	return m, cmd
}

// handleSuccessScreen handles user input on the success screen
func (m AppModel) handleSuccessScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.SuccessKeys.New):
		// The session already reset the wizard
		m.CurrentScreen = ScreenWizard
		m.Wizard.Status = ""
		return m, nil
	case key.Matches(keyMsg, m.SuccessKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// handleFailureScreen handles user input on the failure screen
func (m AppModel) handleFailureScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		// Spinner ticks and input blinks still belong to the wizard
		return m.updateWizard(msg)
	}
	switch {
	case key.Matches(keyMsg, m.FailureKeys.Retry):
		// The wizard is unchanged after a failure, publish it again
		m.CurrentScreen = ScreenWizard
		updated, cmd := m.Wizard.startOperation(wizard.ActionPublish)
		m.Wizard = updated.(WizardModel)
		return m, cmd
	case key.Matches(keyMsg, m.FailureKeys.Edit):
		m.CurrentScreen = ScreenWizard
		return m, nil
	case key.Matches(keyMsg, m.FailureKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenSuccess:
		return RenderApplicationContainer(m.buildSuccessContent(), m.Help.View(m.SuccessKeys), m.Width, m.Height)
	case ScreenFailure:
		return RenderApplicationContainer(m.buildFailureContent(), m.Help.View(m.FailureKeys), m.Width, m.Height)
	default:
		return m.Wizard.View()
	}
}

// buildSuccessContent builds the success screen content
func (m AppModel) buildSuccessContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle(MarkerComplete + " Coupon Published"))
	b.WriteString("\n")

	if c := m.Published; c != nil {
		b.WriteString(SuccessBoxStyle.Render(c.Name + " is live"))
		b.WriteString("\n\n")

		for _, s := range wizard.SectionOrder {
			b.WriteString(fmt.Sprintf("  %-14s %s\n", s.Title()+":", wizard.Summarize(s, c, m.Currency)))
		}
		b.WriteString(fmt.Sprintf("  %-14s %s\n\n", "ID:", c.ID))
	}

	b.WriteString("What would you like to do next?\n\n")
	b.WriteString(MenuItemStyle.Render("  Enter/n - Create another coupon"))
	b.WriteString("\n")
	b.WriteString(MenuItemStyle.Render("  q       - Exit application"))
	b.WriteString("\n")
	return b.String()
}

// buildFailureContent builds the failure screen content
func (m AppModel) buildFailureContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle(MarkerFailed + " Publish Failed"))
	b.WriteString("\n")

	if m.LastError != nil {
		b.WriteString(ErrorBoxStyle.Render("Error: " + m.LastError.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(WarningBoxStyle.Render("Your coupon is unchanged and its draft is kept"))
	b.WriteString("\n\n")

	b.WriteString("Troubleshooting:\n")
	for _, tip := range troubleshooting(m.LastError) {
		b.WriteString("  • " + tip + "\n")
	}
	b.WriteString("\n")

	b.WriteString(MenuItemStyle.Render("  r       - Retry publishing"))
	b.WriteString("\n")
	b.WriteString(MenuItemStyle.Render("  Enter/e - Back to editing"))
	b.WriteString("\n")
	b.WriteString(MenuItemStyle.Render("  q       - Exit application"))
	b.WriteString("\n")
	return b.String()
}

// troubleshooting suggests next steps for a publish error.
func troubleshooting(err error) []string {
	switch {
	case coupon.IsConflict(err):
		return []string{
			"Another coupon may already use this code, pick a different one",
			"A live coupon cannot be turned back into a draft",
		}
	case coupon.IsValidationError(err):
		return []string{"Reopen the sections listed in the error and correct them"}
	default:
		return []string{
			"Check that the coupon database is reachable",
			"Retry, your edits have not been lost",
		}
	}
}
