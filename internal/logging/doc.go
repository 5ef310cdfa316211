// Package logging provides structured logging for couponwiz.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the wizard and its persistence collaborators.
//
// # Silent by Default
//
// The wizard is interactive, so nothing is logged unless a level is requested
// through COUPONWIZ_LOG_LEVEL or the --log-level flag. Because the TUI owns
// stdout, interactive commands should also set COUPONWIZ_LOG_FILE (or
// --log-file) to send output to a file:
//
//	COUPONWIZ_LOG_LEVEL=debug COUPONWIZ_LOG_FILE=/tmp/couponwiz.log couponwiz new
//
// # Log Levels
//
//   - Debug: Section transitions and validation outcomes
//   - Info: Successful saves, publishes and draft writes
//   - Warn: Failed persistence (autosave, save, publish)
//   - Error: Startup failures
//
// # Specialized Logging
//
//	logging.LogTransition("essentials", "lifecycle", "continue")
//	logging.LogValidation("essentials", false, errs)
//	logging.LogPersistence("publish", coupon.ID, err)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The autosave goroutine
// logs through the same global logger as the UI goroutine.
package logging
