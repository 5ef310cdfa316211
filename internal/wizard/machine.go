package wizard

import (
	"fmt"
	"maps"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/logging"
)

// SectionStatus is the validation state of one section.
type SectionStatus struct {
	Valid   bool // Result of the last validation against the record
	Touched bool // The user has tried to leave the section at least once
}

// State is a snapshot of the wizard.
type State struct {
	Record     coupon.Coupon
	Active     Section
	Furthest   Section
	Validation map[Section]SectionStatus
	Dirty      bool
}

// ChangeFunc is called with a copy of the record after every edit.
type ChangeFunc func(c *coupon.Coupon)

// Machine tracks progress through the coupon wizard sections.
//
// A Machine is owned by a single goroutine (the UI event loop); it does no
// locking of its own.
type Machine struct {
	order    []Section
	index    map[Section]int
	rules    *Registry
	currency string

	record     *coupon.Coupon
	active     Section
	furthest   Section
	validation map[Section]SectionStatus
	dirty      bool

	onChange []ChangeFunc
}

// Option configures a Machine
type Option func(*Machine)

// WithSections restricts the wizard to an ordered subset of SectionOrder.
func WithSections(sections ...Section) Option {
	return func(m *Machine) {
		m.order = append([]Section(nil), sections...)
	}
}

// WithRegistry replaces the default validation rules.
func WithRegistry(r *Registry) Option {
	return func(m *Machine) {
		m.rules = r
	}
}

// WithCurrency sets the currency symbol used in summaries.
func WithCurrency(symbol string) Option {
	return func(m *Machine) {
		m.currency = symbol
	}
}

// WithChangeHook registers a function called after every edit.
func WithChangeHook(fn ChangeFunc) Option {
	return func(m *Machine) {
		m.onChange = append(m.onChange, fn)
	}
}

// NewMachine creates a wizard in its fresh state.
func NewMachine(opts ...Option) (*Machine, error) {
	m := &Machine{
		order:    SectionOrder[:],
		rules:    DefaultRegistry(),
		currency: "$",
	}
	for _, opt := range opts {
		opt(m)
	}

	if len(m.order) == 0 {
		return nil, fmt.Errorf("wizard needs at least one section")
	}
	m.index = make(map[Section]int, len(m.order))
	for i, s := range m.order {
		if !s.Valid() {
			return nil, &InvalidSectionError{Section: s}
		}
		if i > 0 && s <= m.order[i-1] {
			return nil, fmt.Errorf("sections must follow the wizard order, %s after %s", s, m.order[i-1])
		}
		if m.rules.Rule(s) == nil {
			return nil, fmt.Errorf("no validation rule registered for section %s", s)
		}
		m.index[s] = i
	}

	m.Reset()
	return m, nil
}

// Sections returns the wizard's section order.
func (m *Machine) Sections() []Section {
	return append([]Section(nil), m.order...)
}

func (m *Machine) indexOf(s Section) int {
	if i, ok := m.index[s]; ok {
		return i
	}
	return -1
}

func (m *Machine) first() Section { return m.order[0] }
func (m *Machine) last() Section  { return m.order[len(m.order)-1] }

// Active returns the open section.
func (m *Machine) Active() Section {
	return m.active
}

// Furthest returns the furthest section reached.
func (m *Machine) Furthest() Section {
	return m.furthest
}

// Dirty reports whether the record has been edited since load or reset.
func (m *Machine) Dirty() bool {
	return m.dirty
}

// Status returns the validation status of a section.
func (m *Machine) Status(s Section) SectionStatus {
	return m.validation[s]
}

// Record returns a copy of the record being built.
func (m *Machine) Record() *coupon.Coupon {
	return m.record.Clone()
}

// State returns a snapshot of the whole wizard.
func (m *Machine) State() State {
	return State{
		Record:     *m.record.Clone(),
		Active:     m.active,
		Furthest:   m.furthest,
		Validation: maps.Clone(m.validation),
		Dirty:      m.dirty,
	}
}

// SetActiveSection opens target. The outgoing section is touched and
// validated first so its errors show when the user comes back to it; an
// invalid outgoing section does not block the jump.
//
// Returns an *InvalidSectionError for sections outside the wizard and
// ErrSectionNotReached for sections beyond the furthest one reached.
func (m *Machine) SetActiveSection(target Section) error {
	idx := m.indexOf(target)
	if idx < 0 {
		return &InvalidSectionError{Section: target}
	}
	if idx > m.indexOf(m.furthest) {
		return fmt.Errorf("%s: %w", target, ErrSectionNotReached)
	}
	if target == m.active {
		return nil
	}

	from := m.active
	m.MarkSectionTouched(from)
	m.ValidateSection(from)
	m.active = target

	logging.LogTransition(from.String(), target.String(), "jump")
	return nil
}

// MarkSectionTouched records that the user has tried to leave the section.
// Sections outside the wizard are ignored.
func (m *Machine) MarkSectionTouched(s Section) {
	if m.indexOf(s) < 0 {
		return
	}
	status := m.validation[s]
	status.Touched = true
	m.validation[s] = status
}

// ValidateSection runs the section's rule against the record, stores and
// returns the result. Touched later sections whose rules depend on s are
// re-validated as well, so an edit to an earlier section can invalidate them.
// Sections outside the wizard are never valid.
func (m *Machine) ValidateSection(s Section) bool {
	if m.indexOf(s) < 0 {
		return false
	}
	valid := m.validate(s)
	m.cascade(s)
	return valid
}

func (m *Machine) validate(s Section) bool {
	problems := m.rules.Rule(s).Validate(m.record)
	valid := len(problems) == 0

	status := m.validation[s]
	status.Valid = valid
	m.validation[s] = status

	logging.LogValidation(s.String(), valid, problems)
	return valid
}

func (m *Machine) cascade(from Section) {
	start := m.indexOf(from) + 1
	for _, s := range m.order[start:] {
		if !m.validation[s].Touched || !m.rules.DependsOn(s, from) {
			continue
		}
		m.validate(s)
	}
}

// Continue completes the active section.
//
// The section is touched and validated; if invalid nothing moves and false is
// returned. When editing an earlier section the wizard returns straight to
// the furthest section. Otherwise the active and furthest sections advance by
// one. Continuing from the last section is a no-op reporting false; publishing
// is the caller's job.
func (m *Machine) Continue() bool {
	current := m.active
	m.MarkSectionTouched(current)
	if !m.ValidateSection(current) {
		logging.LogTransition(current.String(), current.String(), "invalid")
		return false
	}

	if m.IsEditingPreviousSection() {
		m.active = m.furthest
		logging.LogTransition(current.String(), m.active.String(), "done-editing")
		return true
	}

	idx := m.indexOf(current)
	if idx == len(m.order)-1 {
		return false
	}

	next := m.order[idx+1]
	m.active = next
	if m.indexOf(next) > m.indexOf(m.furthest) {
		m.furthest = next
	}
	logging.LogTransition(current.String(), next.String(), "continue")
	return true
}

// IsEditingPreviousSection reports whether the user has gone back to a
// section before the furthest one.
func (m *Machine) IsEditingPreviousSection() bool {
	return m.active != m.furthest && m.indexOf(m.active) < m.indexOf(m.furthest)
}

// IsSectionComplete reports whether a section is valid and has been reached.
func (m *Machine) IsSectionComplete(s Section) bool {
	idx := m.indexOf(s)
	if idx < 0 || !m.validation[s].Valid {
		return false
	}
	return idx < m.indexOf(m.furthest) || s == m.furthest
}

// Completable reports whether every section is complete and the last section
// has been reached, i.e. the coupon can be published.
func (m *Machine) Completable() bool {
	if m.furthest != m.last() {
		return false
	}
	for _, s := range m.order {
		if !m.validation[s].Valid {
			return false
		}
	}
	return true
}

// FirstIncomplete returns the first section that is not complete.
func (m *Machine) FirstIncomplete() (Section, bool) {
	for _, s := range m.order {
		if !m.IsSectionComplete(s) {
			return s, true
		}
	}
	return 0, false
}

// Summary describes the data captured by a section.
func (m *Machine) Summary(s Section) string {
	if m.indexOf(s) < 0 {
		return ""
	}
	return Summarize(s, m.record, m.currency)
}

// Fields returns the editable fields of a section in this wizard.
func (m *Machine) Fields(s Section) []Field {
	if m.indexOf(s) < 0 {
		return nil
	}
	return FieldsFor(s)
}

// Errors returns the current rule violations of a section. Unlike
// ValidateSection it stores nothing.
func (m *Machine) Errors(s Section) []error {
	if m.indexOf(s) < 0 {
		return nil
	}
	return m.rules.Rule(s).Validate(m.record)
}

// Edit applies fn to the record and marks the wizard dirty. A touched active
// section is re-validated so its error state follows the edit. Change hooks
// receive a copy of the edited record.
func (m *Machine) Edit(fn func(c *coupon.Coupon)) {
	fn(m.record)
	m.dirty = true

	if m.validation[m.active].Touched {
		m.ValidateSection(m.active)
	}

	for _, hook := range m.onChange {
		hook(m.record.Clone())
	}
}

// SetField parses value into the named field of the active section's record.
func (m *Machine) SetField(f Field, value string) error {
	var err error
	m.Edit(func(c *coupon.Coupon) {
		err = f.Set(c, value)
	})
	return err
}

// MarkClean clears the dirty flag, e.g. after the record was persisted.
func (m *Machine) MarkClean() {
	m.dirty = false
}

// Adopt copies identity fields assigned by a persistence service into the
// record without marking it dirty.
func (m *Machine) Adopt(saved *coupon.Coupon) {
	if saved == nil {
		return
	}
	m.record.ID = saved.ID
	m.record.Status = saved.Status
	m.record.CreatedAt = saved.CreatedAt
	m.record.UpdatedAt = saved.UpdatedAt
}

// Load hydrates the wizard for editing an existing coupon: every section is
// touched and validated, the furthest section is the last one and the first
// section is open.
func (m *Machine) Load(c *coupon.Coupon) {
	m.record = c.Clone()
	if m.record == nil {
		m.record = &coupon.Coupon{}
	}
	m.validation = make(map[Section]SectionStatus, len(m.order))
	for _, s := range m.order {
		m.MarkSectionTouched(s)
	}
	for _, s := range m.order {
		m.validate(s)
	}
	m.furthest = m.last()
	m.active = m.first()
	m.dirty = false
}

// Restore hydrates the wizard from a recovered draft. Sections are validated
// in order; every valid leading section counts as passed and the first
// invalid one becomes both active and furthest, untouched so its errors stay
// hidden until the user tries to leave it. A fully valid draft ends on the
// last section.
func (m *Machine) Restore(c *coupon.Coupon) {
	m.Reset()
	if c == nil {
		return
	}
	m.record = c.Clone()

	for i, s := range m.order {
		if !m.validate(s) {
			m.active, m.furthest = s, s
			return
		}
		if i < len(m.order)-1 {
			m.MarkSectionTouched(s)
		}
	}
	m.active, m.furthest = m.last(), m.last()
}

// Reset returns the wizard to its fresh state.
func (m *Machine) Reset() {
	m.record = &coupon.Coupon{}
	m.active = m.first()
	m.furthest = m.first()
	m.validation = make(map[Section]SectionStatus)
	m.dirty = false
}
