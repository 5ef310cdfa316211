package wizard

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/muurk/couponwiz/internal/autosave"
	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/draft"
	"github.com/muurk/couponwiz/internal/logging"
)

// DraftStore keeps the single recoverable draft.
type DraftStore interface {
	Save(ctx context.Context, c *coupon.Coupon) error
	Load(ctx context.Context) (*draft.Draft, error)
	Clear(ctx context.Context) error
}

// CouponStore is the persistence service coupons are saved and published to.
type CouponStore interface {
	Save(ctx context.Context, c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error)
	Publish(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	Get(ctx context.Context, id string) (*coupon.Coupon, error)
}

// Action is a persistence request made from the wizard.
type Action int

const (
	ActionSave Action = iota
	ActionPublish
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionPublish:
		return "publish"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Operation is a prepared save or publish. Run performs the I/O and may be
// called from any goroutine; its Result must be handed back to
// Session.Complete on the goroutine that owns the Machine.
type Operation struct {
	Action Action
	record *coupon.Coupon
	s      *Session
}

// Result is the outcome of an Operation.
type Result struct {
	Action Action
	Coupon *coupon.Coupon // Stored record on success
	Err    error
}

// Session drives one authoring session: the wizard machine plus the stores it
// saves to and the draft autosaver.
type Session struct {
	machine  *Machine
	drafts   DraftStore
	coupons  CouponStore
	autosave *autosave.Debouncer

	processing atomic.Bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithAutosave saves a draft through d after every edit.
func WithAutosave(d *autosave.Debouncer) SessionOption {
	return func(s *Session) {
		s.autosave = d
	}
}

// NewSession wraps m. drafts may be nil when draft recovery is disabled.
func NewSession(m *Machine, drafts DraftStore, coupons CouponStore, opts ...SessionOption) (*Session, error) {
	if m == nil {
		return nil, fmt.Errorf("wizard machine is required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon store is required")
	}

	s := &Session{machine: m, drafts: drafts, coupons: coupons}
	for _, opt := range opts {
		opt(s)
	}
	if s.autosave != nil {
		m.onChange = append(m.onChange, s.autosave.Trigger)
	}
	return s, nil
}

// Machine returns the wizard state machine.
func (s *Session) Machine() *Machine {
	return s.machine
}

// Busy reports whether a save or publish is in flight.
func (s *Session) Busy() bool {
	return s.processing.Load()
}

// Start opens a fresh wizard. An existing draft is left alone until the first
// edit overwrites it.
func (s *Session) Start() {
	s.machine.Reset()
}

// Resume restores the saved draft. It reports false when there is none.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	if s.drafts == nil {
		return false, nil
	}

	d, err := s.drafts.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load draft: %w", err)
	}
	if d == nil {
		return false, nil
	}

	s.machine.Restore(d.Coupon)
	// The draft is not in the coupon store yet.
	s.machine.dirty = true
	logging.Info("Draft restored",
		zap.String("active", s.machine.Active().String()),
		zap.Time("saved_at", d.SavedAt))
	return true, nil
}

// Open loads a stored coupon for editing.
func (s *Session) Open(ctx context.Context, id string) error {
	c, err := s.coupons.Get(ctx, id)
	if err != nil {
		return err
	}
	s.machine.Load(c)
	return nil
}

// PrepareSave snapshots the record for saving as a draft coupon.
func (s *Session) PrepareSave() (*Operation, error) {
	return s.prepare(ActionSave)
}

// PreparePublish snapshots the record for publishing. Every section must be
// complete.
func (s *Session) PreparePublish() (*Operation, error) {
	if !s.machine.Completable() {
		if section, ok := s.machine.FirstIncomplete(); ok {
			return nil, fmt.Errorf("%w: %s section is incomplete", ErrNotCompletable, section.Title())
		}
		return nil, ErrNotCompletable
	}
	return s.prepare(ActionPublish)
}

func (s *Session) prepare(action Action) (*Operation, error) {
	if !s.processing.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return &Operation{Action: action, record: s.machine.Record(), s: s}, nil
}

// Run sends the snapshot to the coupon store. On success the draft is
// cleared. Run never touches the Machine.
func (op *Operation) Run(ctx context.Context) Result {
	var (
		stored *coupon.Coupon
		err    error
	)
	switch op.Action {
	case ActionPublish:
		stored, err = op.s.coupons.Publish(ctx, op.record)
	default:
		stored, err = op.s.coupons.Save(ctx, op.record, coupon.StatusDraft)
	}

	id := op.record.ID
	if stored != nil {
		id = stored.ID
	}
	logging.LogPersistence(op.Action.String(), id, err)

	if err == nil {
		_ = op.s.clearDraft(ctx)
	}
	return Result{Action: op.Action, Coupon: stored, Err: err}
}

// Complete applies the result of an operation to the wizard and releases the
// busy guard. A failed operation leaves the wizard as it was so the user can
// retry. A published coupon resets the wizard.
func (s *Session) Complete(res Result) {
	defer s.processing.Store(false)

	if res.Err != nil {
		return
	}
	switch res.Action {
	case ActionPublish:
		s.machine.Reset()
	default:
		s.machine.Adopt(res.Coupon)
		s.machine.MarkClean()
	}
}

// Save stores the record as a draft coupon and keeps the wizard open.
func (s *Session) Save(ctx context.Context) (*coupon.Coupon, error) {
	op, err := s.PrepareSave()
	if err != nil {
		return nil, err
	}
	res := op.Run(ctx)
	s.Complete(res)
	return res.Coupon, res.Err
}

// Publish makes the coupon live and resets the wizard.
func (s *Session) Publish(ctx context.Context) (*coupon.Coupon, error) {
	op, err := s.PreparePublish()
	if err != nil {
		return nil, err
	}
	res := op.Run(ctx)
	s.Complete(res)
	return res.Coupon, res.Err
}

// Discard throws away the record and its draft.
func (s *Session) Discard(ctx context.Context) error {
	if s.Busy() {
		return ErrBusy
	}
	if err := s.clearDraft(ctx); err != nil {
		return err
	}
	s.machine.Reset()
	return nil
}

func (s *Session) clearDraft(ctx context.Context) error {
	if s.autosave != nil {
		s.autosave.Cancel()
	}
	if s.drafts == nil {
		return nil
	}
	err := s.drafts.Clear(ctx)
	logging.LogPersistence("draft-clear", "", err)
	return err
}

// Close writes any pending autosave.
func (s *Session) Close(ctx context.Context) error {
	if s.autosave == nil {
		return nil
	}
	return s.autosave.Close(ctx)
}
