// Package wizard implements the section state machine behind the coupon
// authoring wizard.
//
// A coupon is authored in five sections, always in this order:
//
//	Essentials -> Lifecycle -> Guardrails -> Inventory -> Distribution
//
// The Machine tracks which section is open (Active), the furthest section the
// user has reached (Furthest) and, per section, whether it is valid and
// whether the user has tried to leave it (Touched). Errors are only shown for
// touched sections so a blank form does not start out red.
//
// # Navigation
//
//   - Continue validates the open section. A valid section advances the wizard
//     by exactly one section, or jumps back to Furthest when the user was
//     editing an earlier section.
//   - SetActiveSection jumps to any section up to Furthest. The section being
//     left is touched and validated first.
//   - Furthest never moves backwards except through Reset.
//
// # Validation Rules
//
// Each section has one Rule in a Registry. Rules can declare dependencies on
// earlier sections (guardrails read the discount type from essentials, for
// example). After a section is validated, touched sections that depend on
// it are re-validated, so changing a fixed discount to a percentage marks a
// now inconsistent guardrail section invalid.
//
// # Hydration
//
//   - Load opens a stored coupon for editing: every section touched and
//     validated, Furthest on the last section, Essentials open.
//   - Restore recovers a draft: leading valid sections count as passed, the
//     first invalid section is opened.
//   - Reset returns to a blank coupon.
//
// # Sessions
//
// Session ties a Machine to the coupon store, the draft store and the
// autosave debouncer. Save and Publish are split in two phases so a UI can run
// the I/O off its event loop:
//
//	op, err := session.PreparePublish() // ErrNotCompletable, ErrBusy
//	res := op.Run(ctx)                 // any goroutine
//	session.Complete(res)              // machine owner goroutine
//
// A Machine is not safe for concurrent use.
package wizard
