package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/coupon/coupontest"
	"github.com/muurk/couponwiz/internal/draft"
	"github.com/muurk/couponwiz/internal/storage/memory"
	"github.com/muurk/couponwiz/internal/wizard"
)

type appFixture struct {
	model   tea.Model
	machine *wizard.Machine
	drafts  *draft.MemoryStore
	coupons *memory.Store
}

func newAppFixture(t *testing.T, load *coupon.Coupon) *appFixture {
	t.Helper()

	m, err := wizard.NewMachine()
	if err != nil {
		t.Fatal(err)
	}
	if load != nil {
		m.Load(load)
	}
	drafts := draft.NewMemoryStore()
	coupons := memory.New()
	s, err := wizard.NewSession(m, drafts, coupons)
	if err != nil {
		t.Fatal(err)
	}

	f := &appFixture{
		model:   NewAppModel(context.Background(), s, "$"),
		machine: m,
		drafts:  drafts,
		coupons: coupons,
	}
	f.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return f
}

// send delivers a message and runs any save or publish it started. Other
// commands, such as cursor blinks, are dropped.
func (f *appFixture) send(msg tea.Msg) {
	var cmd tea.Cmd
	f.model, cmd = f.model.Update(msg)
	if !f.app().Wizard.Processing {
		return
	}
	for _, m := range collect(cmd) {
		if done, ok := m.(operationDoneMsg); ok {
			f.model, _ = f.model.Update(done)
		}
	}
}

// collect runs cmd and, for a batch, each of its commands.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		if c == nil {
			continue
		}
		out = append(out, c())
	}
	return out
}

func (f *appFixture) app() AppModel {
	return f.model.(AppModel)
}

func (f *appFixture) key(t tea.KeyType) {
	f.send(tea.KeyMsg{Type: t})
}

func (f *appFixture) typeText(s string) {
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestTypingWritesRecord(t *testing.T) {
	f := newAppFixture(t, nil)

	f.typeText("Spring Sale")

	if got := f.machine.Record().Name; got != "Spring Sale" {
		t.Errorf("Name = %q, want Spring Sale", got)
	}
	if !f.machine.Dirty() {
		t.Error("typing should mark the wizard dirty")
	}
	if !strings.Contains(f.model.View(), "Spring Sale") {
		t.Error("view should show the typed value")
	}
}

func TestContinueBlockedByInvalidSection(t *testing.T) {
	f := newAppFixture(t, nil)

	f.key(tea.KeyEnter)

	w := f.app().Wizard
	if f.machine.Active() != wizard.Essentials {
		t.Errorf("Active() = %v, want Essentials", f.machine.Active())
	}
	if !w.StatusErr || !strings.Contains(w.Status, "Essentials") {
		t.Errorf("Status = %q (err %v), want an Essentials error", w.Status, w.StatusErr)
	}
	if !f.machine.Status(wizard.Essentials).Touched {
		t.Error("continuing should touch the section")
	}
	if !strings.Contains(f.model.View(), "✗") {
		t.Error("view should show field errors once touched")
	}
}

func TestContinueAdvancesAndRebuildsInputs(t *testing.T) {
	f := newAppFixture(t, nil)

	f.typeText("Spring Sale")
	f.key(tea.KeyTab) // code
	f.key(tea.KeyTab) // description
	f.key(tea.KeyTab) // type
	f.typeText("percentage")
	f.key(tea.KeyTab) // value
	f.typeText("20")
	f.key(tea.KeyEnter)

	if f.machine.Active() != wizard.Lifecycle {
		t.Fatalf("Active() = %v, want Lifecycle (record %+v)", f.machine.Active(), f.machine.Record())
	}
	w := f.app().Wizard
	if w.section != wizard.Lifecycle || len(w.inputs) != len(wizard.FieldsFor(wizard.Lifecycle)) {
		t.Errorf("inputs not rebuilt for Lifecycle: section %v, %d inputs", w.section, len(w.inputs))
	}
	if !strings.Contains(f.model.View(), "20% off") {
		t.Error("collapsed Essentials row should show its summary")
	}
}

func TestFieldParseError(t *testing.T) {
	f := newAppFixture(t, nil)

	for i := 0; i < 4; i++ {
		f.key(tea.KeyTab)
	}
	f.typeText("abc")

	w := f.app().Wizard
	if w.fieldErrs["value"] != "must be a number" {
		t.Errorf("fieldErrs = %v", w.fieldErrs)
	}

	f.key(tea.KeyEsc)
	if _, ok := f.app().Wizard.fieldErrs["value"]; ok {
		t.Error("reverting the field should clear its error")
	}
}

func TestUnparsedFieldBlocksLeavingSection(t *testing.T) {
	f := newAppFixture(t, nil)

	f.typeText("Spring Sale")
	f.key(tea.KeyTab) // code
	f.key(tea.KeyTab) // description
	f.key(tea.KeyTab) // type
	f.typeText("percentage")
	f.key(tea.KeyTab) // value
	f.typeText("20")
	f.typeText("x")

	// The record keeps the last value that parsed
	if got := f.machine.Record().Value; got != 20 {
		t.Fatalf("Value = %v, want 20", got)
	}

	f.key(tea.KeyEnter)
	w := f.app().Wizard
	if f.machine.Active() != wizard.Essentials {
		t.Errorf("Active() = %v after Enter, want Essentials", f.machine.Active())
	}
	if !w.StatusErr || !strings.Contains(w.Status, "Essentials") {
		t.Errorf("Status = %q (err %v), want an Essentials error", w.Status, w.StatusErr)
	}
	if !f.machine.Status(wizard.Essentials).Touched {
		t.Error("a blocked continue should touch the section")
	}

	f.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	if f.app().Wizard.Processing {
		t.Error("publish must not start while a field does not parse")
	}

	// Fixing the text lets the user move on
	f.key(tea.KeyBackspace)
	f.key(tea.KeyEnter)
	if f.machine.Active() != wizard.Lifecycle {
		t.Errorf("Active() = %v after fixing the value, want Lifecycle", f.machine.Active())
	}
}

func TestUnparsedFieldBlocksJump(t *testing.T) {
	f := newAppFixture(t, coupontest.Valid())

	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true})
	if f.machine.Active() != wizard.Lifecycle {
		t.Fatalf("Active() = %v, want Lifecycle", f.machine.Active())
	}
	f.typeText("x") // start date no longer parses

	f.key(tea.KeyPgDown)
	if f.machine.Active() != wizard.Lifecycle {
		t.Errorf("Active() = %v after jump, want Lifecycle", f.machine.Active())
	}
	if w := f.app().Wizard; !w.StatusErr || !strings.Contains(w.Status, "Lifecycle") {
		t.Errorf("Status = %q", w.Status)
	}
}

func TestJumpBeyondFurthestRefused(t *testing.T) {
	f := newAppFixture(t, nil)

	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}, Alt: true})

	if f.machine.Active() != wizard.Essentials {
		t.Errorf("Active() = %v, want Essentials", f.machine.Active())
	}
	if w := f.app().Wizard; !w.StatusErr || !strings.Contains(w.Status, "Guardrails") {
		t.Errorf("Status = %q", w.Status)
	}
}

func TestJumpToReachedSection(t *testing.T) {
	f := newAppFixture(t, coupontest.Valid())

	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}, Alt: true})
	if f.machine.Active() != wizard.Inventory {
		t.Fatalf("Active() = %v, want Inventory", f.machine.Active())
	}

	f.key(tea.KeyPgUp)
	if f.machine.Active() != wizard.Guardrails {
		t.Errorf("Active() = %v, want Guardrails", f.machine.Active())
	}
}

func TestPublishFromLastSection(t *testing.T) {
	f := newAppFixture(t, coupontest.Valid())

	// Loaded coupons open on the first section; enter returns to the last.
	f.key(tea.KeyEnter)
	if f.machine.Active() != wizard.Distribution {
		t.Fatalf("Active() = %v, want Distribution", f.machine.Active())
	}
	f.key(tea.KeyEnter)

	app := f.app()
	if app.CurrentScreen != ScreenSuccess {
		t.Fatalf("CurrentScreen = %v, want success (status %q)", app.CurrentScreen, app.Wizard.Status)
	}
	if app.Published == nil || app.Published.Status != coupon.StatusLive {
		t.Fatalf("Published = %+v", app.Published)
	}
	if !strings.Contains(f.model.View(), "Coupon Published") {
		t.Error("success screen should be shown")
	}

	list, err := f.coupons.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}

	f.typeText("n")
	if f.app().CurrentScreen != ScreenWizard {
		t.Error("n should start a new coupon")
	}
	if f.machine.Record().Name != "" || f.machine.Active() != wizard.Essentials {
		t.Error("wizard should be reset after publishing")
	}
}

func TestPublishIncompleteRefused(t *testing.T) {
	f := newAppFixture(t, nil)
	f.typeText("Spring Sale")

	f.key(tea.KeyCtrlP)

	w := f.app().Wizard
	if w.Processing {
		t.Error("an incomplete coupon must not start publishing")
	}
	if !strings.HasPrefix(w.Status, "Cannot publish yet") {
		t.Errorf("Status = %q", w.Status)
	}
}

func TestPublishFailureAndRetry(t *testing.T) {
	f := newAppFixture(t, coupontest.Valid())
	f.coupons.FailNext(errors.New("service unavailable"))

	f.key(tea.KeyCtrlP)

	app := f.app()
	if app.CurrentScreen != ScreenFailure {
		t.Fatalf("CurrentScreen = %v, want failure", app.CurrentScreen)
	}
	if app.LastError == nil || !strings.Contains(f.model.View(), "service unavailable") {
		t.Errorf("failure screen should show the error, got %v", app.LastError)
	}
	if f.machine.Record().Name != "Spring Sale" {
		t.Error("a failed publish must keep the record")
	}

	f.typeText("r")
	if f.app().CurrentScreen != ScreenSuccess {
		t.Errorf("retry should publish, screen %v", f.app().CurrentScreen)
	}
}

func TestSaveDraftKeepsEditing(t *testing.T) {
	f := newAppFixture(t, nil)
	f.typeText("Spring Sale")

	f.key(tea.KeyCtrlS)

	w := f.app().Wizard
	if w.Processing || w.StatusErr {
		t.Fatalf("save did not settle: %q", w.Status)
	}
	if !strings.Contains(w.Status, "Saved as draft") {
		t.Errorf("Status = %q", w.Status)
	}
	id := f.machine.Record().ID
	if id == "" {
		t.Fatal("save should adopt the stored id")
	}
	stored, err := f.coupons.Get(context.Background(), id)
	if err != nil || stored.Status != coupon.StatusDraft {
		t.Errorf("Get() = %+v, %v", stored, err)
	}
	if f.app().CurrentScreen != ScreenWizard {
		t.Error("saving keeps the wizard open")
	}
}

func TestInputBlockedWhileProcessing(t *testing.T) {
	f := newAppFixture(t, nil)
	f.typeText("Spring Sale")

	// Start a save without delivering its result
	var cmd tea.Cmd
	f.model, cmd = f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !f.app().Wizard.Processing {
		t.Fatal("save should be in flight")
	}

	f.typeText(" ignored")
	f.key(tea.KeyCtrlP)
	if got := f.machine.Record().Name; got != "Spring Sale" {
		t.Errorf("Name = %q, keys must be ignored while saving", got)
	}
	if !strings.Contains(f.model.View(), "Saving") {
		t.Error("status line should show the spinner")
	}

	for _, msg := range collect(cmd) {
		if done, ok := msg.(operationDoneMsg); ok {
			f.model, _ = f.model.Update(done)
		}
	}
	if f.app().Wizard.Processing {
		t.Error("processing should end when the result arrives")
	}
}

func TestDiscard(t *testing.T) {
	f := newAppFixture(t, nil)
	f.typeText("Throwaway")
	if err := f.drafts.Save(context.Background(), f.machine.Record()); err != nil {
		t.Fatal(err)
	}

	f.key(tea.KeyCtrlX)
	if !f.app().Wizard.ConfirmDiscard {
		t.Fatal("discard should ask for confirmation")
	}
	f.typeText("n")
	if f.machine.Record().Name != "Throwaway" {
		t.Fatal("declining must keep the record")
	}

	f.key(tea.KeyCtrlX)
	f.typeText("y")
	if f.machine.Record().Name != "" {
		t.Error("discard should reset the record")
	}
	d, err := f.drafts.Load(context.Background())
	if err != nil || d != nil {
		t.Errorf("draft = %v, %v, want cleared", d, err)
	}
}

func TestHelpOverlay(t *testing.T) {
	f := newAppFixture(t, nil)

	f.key(tea.KeyF1)
	if !f.app().Wizard.ShowingHelp {
		t.Fatal("f1 should open help")
	}
	if !strings.Contains(f.model.View(), "save draft") {
		t.Error("help should list the key bindings")
	}

	f.typeText("x")
	if f.app().Wizard.ShowingHelp {
		t.Error("any key should close help")
	}
	if f.machine.Record().Name != "" {
		t.Error("the closing key must not be typed")
	}
}

func TestCtrlCQuits(t *testing.T) {
	f := newAppFixture(t, nil)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestSectionMarkers(t *testing.T) {
	f := newAppFixture(t, coupontest.Valid())
	f.machine.Edit(func(c *coupon.Coupon) { c.Channels = nil })
	// Re-validate Distribution through a jump away and back
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'5'}, Alt: true})
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})

	w := f.app().Wizard
	if got := w.sectionMarker(wizard.Lifecycle); !strings.Contains(got, MarkerComplete) {
		t.Errorf("Lifecycle marker = %q, want complete", got)
	}
	if got := w.sectionMarker(wizard.Distribution); !strings.Contains(got, MarkerInvalid) {
		t.Errorf("Distribution marker = %q, want invalid", got)
	}
	if got := w.sectionMarker(wizard.Essentials); !strings.Contains(got, MarkerActive) {
		t.Errorf("Essentials marker = %q, want active", got)
	}
}

func TestOperationMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{wizard.ErrBusy, "A save is already in progress"},
		{coupon.NewConflictError("x", "code already in use"), "Conflict: "},
		{errors.New("disk full"), "Save failed: disk full"},
	}
	for _, tt := range tests {
		if got := operationMessage(wizard.ActionSave, tt.err); !strings.HasPrefix(got, tt.want) {
			t.Errorf("operationMessage(%v) = %q, want prefix %q", tt.err, got, tt.want)
		}
	}
}
