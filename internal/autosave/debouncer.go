package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/logging"
)

// DefaultDelay is how long the debouncer waits after the last change.
const DefaultDelay = 2 * time.Second

// DefaultTimeout bounds a single background save.
const DefaultTimeout = 5 * time.Second

// Saver persists a draft. draft.FileStore and draft.MemoryStore implement it.
type Saver interface {
	Save(ctx context.Context, c *coupon.Coupon) error
}

// SavedFunc is called after each background save with its result.
type SavedFunc func(c *coupon.Coupon, err error)

// Debouncer coalesces bursts of edits into a single draft save.
//
// Trigger schedules a save of the latest snapshot after the configured delay;
// each further Trigger restarts the delay. Only the most recent snapshot is
// ever written.
type Debouncer struct {
	saver   Saver
	delay   time.Duration
	timeout time.Duration
	onSaved SavedFunc

	mu         sync.Mutex
	timer      *time.Timer
	pending    *coupon.Coupon
	generation uint64
	closed     bool
	running    int        // Timer saves past the generation check, guarded by mu
	idle       *sync.Cond // Signalled on mu when running drops to zero

	saveMu sync.Mutex
}

// Option configures a Debouncer
type Option func(*Debouncer)

// WithDelay sets the quiet period before a save. Non-positive values keep the
// default.
func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.delay = d
		}
	}
}

// WithTimeout bounds each background save.
func WithTimeout(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.timeout = d
		}
	}
}

// OnSaved registers a callback invoked after every background save. It runs on
// the timer goroutine.
func OnSaved(fn SavedFunc) Option {
	return func(db *Debouncer) {
		db.onSaved = fn
	}
}

// New creates a debouncer writing through saver.
func New(saver Saver, opts ...Option) *Debouncer {
	db := &Debouncer{
		saver:   saver,
		delay:   DefaultDelay,
		timeout: DefaultTimeout,
	}
	db.idle = sync.NewCond(&db.mu)
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules a save of c. The coupon is copied immediately.
func (d *Debouncer) Trigger(c *coupon.Coupon) {
	if c == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.pending = c.Clone()
	d.generation++
	gen := d.generation

	if d.timer != nil {
		// A callback that already started sees a stale generation and returns
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a save is scheduled and not yet written.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.pending == nil {
		d.mu.Unlock()
		return
	}
	c := d.pending
	d.pending = nil
	d.timer = nil
	d.running++
	d.mu.Unlock()

	defer d.release()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.write(ctx, c)
	if d.onSaved != nil {
		d.onSaved(c, err)
	}
}

func (d *Debouncer) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running--
	if d.running == 0 {
		d.idle.Broadcast()
	}
}

// wait blocks until no timer save is running. d.mu must be held.
func (d *Debouncer) wait() {
	for d.running > 0 {
		d.idle.Wait()
	}
}

func (d *Debouncer) write(ctx context.Context, c *coupon.Coupon) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	err := d.saver.Save(ctx, c)
	logging.LogPersistence("autosave", c.ID, err)
	return err
}

// Flush writes any pending snapshot now, bypassing the delay.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	c := d.take()
	d.mu.Unlock()

	if c == nil {
		return nil
	}
	return d.write(ctx, c)
}

// Cancel drops any pending snapshot and waits for an in-flight save to
// finish, so a draft cleared afterwards cannot be rewritten by a late timer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
	d.wait()
}

// take clears the pending snapshot and stops the timer. d.mu must be held.
func (d *Debouncer) take() *coupon.Coupon {
	c := d.pending
	d.pending = nil
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	return c
}

// Close flushes the pending snapshot and stops accepting triggers.
func (d *Debouncer) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	c := d.take()
	d.mu.Unlock()

	var err error
	if c != nil {
		err = d.write(ctx, c)
	}

	d.mu.Lock()
	d.wait()
	d.mu.Unlock()
	return err
}
