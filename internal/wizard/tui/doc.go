// Package tui implements the terminal user interface of the coupon wizard.
//
// The wizard is an accordion: one row per section, in order. Collapsed rows
// show a one line summary of what the section captured and a marker for its
// state (complete, invalid, not reached). The active row expands into one
// text input per field. Built using the Bubble Tea framework, it follows the
// Elm architecture with Model-Update-View.
//
// # Screens
//
//   - Wizard: the accordion, with inline field errors and a status line
//   - Success: shown after a coupon is published, offers a new coupon
//   - Failure: shown when publishing is rejected, offers a retry
//
// All screens use RenderApplicationContainer for a consistent layout with
// header, content area and a context-sensitive footer.
//
// # Key Bindings
//
//   - enter: complete the section (publish on the last one)
//   - tab/shift+tab, ↑/↓: move between fields
//   - pgup/pgdn, alt+1…5: open another section already reached
//   - esc: revert the focused field
//   - ctrl+s: save as a draft coupon, ctrl+p: publish
//   - ctrl+x: discard the coupon and its draft
//   - f1: help, ctrl+c: quit
//
// # Saving
//
// Field edits go straight to the wizard.Machine, so validation and the
// debounced draft autosave follow typing. Save and publish use the session's
// two phase API: the operation is prepared on the event loop (which sets the
// busy guard), run in a tea.Cmd, and completed when its message comes back.
// Keys are ignored while an operation is in flight.
//
// # Usage Example
//
//	app := tui.NewAppModel(ctx, session, "$")
//	program := tea.NewProgram(app, tea.WithAltScreen())
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
package tui
