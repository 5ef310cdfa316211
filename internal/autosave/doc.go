// Package autosave debounces wizard edits into draft saves.
//
// Every edit in the wizard calls Trigger with the current record. The
// Debouncer keeps only the latest snapshot and writes it once the user has
// been idle for the configured delay (two seconds by default). Flush writes a
// pending snapshot immediately, Cancel drops it, and Close flushes and stops
// the debouncer.
//
// Saves run on a timer goroutine and are serialized; the Saver never sees two
// concurrent calls.
package autosave
