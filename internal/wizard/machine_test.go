package wizard

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/coupon/coupontest"
)

func newMachine(t *testing.T, opts ...Option) *Machine {
	t.Helper()
	m, err := NewMachine(opts...)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}
	return m
}

// fill copies the fields of one section from src into the machine's record.
func fill(m *Machine, s Section, src *coupon.Coupon) {
	m.Edit(func(c *coupon.Coupon) {
		for _, f := range FieldsFor(s) {
			_ = f.Set(c, f.Get(src))
		}
	})
}

func TestNewMachineFreshState(t *testing.T) {
	m := newMachine(t)

	if m.Active() != Essentials {
		t.Errorf("Active() = %v, want %v", m.Active(), Essentials)
	}
	if m.Furthest() != Essentials {
		t.Errorf("Furthest() = %v, want %v", m.Furthest(), Essentials)
	}
	if m.Dirty() {
		t.Error("fresh machine should not be dirty")
	}
	st := m.State()
	if st.Validation == nil || len(st.Validation) != 0 {
		t.Errorf("Validation = %v, want empty map", st.Validation)
	}
	for _, s := range SectionOrder {
		if m.IsSectionComplete(s) {
			t.Errorf("IsSectionComplete(%v) = true on fresh machine", s)
		}
	}
}

func TestNewMachineRejectsBadSections(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
	}{
		{"empty", []Section{}},
		{"out of order", []Section{Lifecycle, Essentials}},
		{"duplicate", []Section{Essentials, Essentials}},
		{"unknown", []Section{Essentials, Section(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMachine(WithSections(tt.sections...)); err == nil {
				t.Error("NewMachine() should fail")
			}
		})
	}
}

// Scenario A: continuing from a blank essentials section.
func TestContinueInvalidStays(t *testing.T) {
	m := newMachine(t)

	if m.Continue() {
		t.Fatal("Continue() = true on blank essentials")
	}
	if m.Active() != Essentials || m.Furthest() != Essentials {
		t.Errorf("moved to %v/%v", m.Active(), m.Furthest())
	}
	want := SectionStatus{Valid: false, Touched: true}
	if got := m.Status(Essentials); got != want {
		t.Errorf("Status(Essentials) = %+v, want %+v", got, want)
	}
}

// Scenario B: a valid section advances active and furthest by one.
func TestContinueValidAdvances(t *testing.T) {
	m := newMachine(t)
	fill(m, Essentials, coupontest.Valid())

	if !m.Continue() {
		t.Fatal("Continue() = false with valid essentials")
	}
	if m.Active() != Lifecycle || m.Furthest() != Lifecycle {
		t.Errorf("Active/Furthest = %v/%v, want lifecycle/lifecycle", m.Active(), m.Furthest())
	}
	if !m.IsSectionComplete(Essentials) {
		t.Error("essentials should be complete")
	}
	if m.IsSectionComplete(Lifecycle) {
		t.Error("lifecycle should not be complete yet")
	}
}

// Scenario C: editing an earlier section returns to the furthest one.
func TestContinueWhileEditingReturnsToFurthest(t *testing.T) {
	m := newMachine(t)
	src := coupontest.Valid()
	for _, s := range []Section{Essentials, Lifecycle, Guardrails} {
		fill(m, s, src)
		if !m.Continue() {
			t.Fatalf("Continue() from %v failed: %v", s, m.Errors(s))
		}
	}
	if m.Furthest() != Inventory {
		t.Fatalf("Furthest() = %v, want inventory", m.Furthest())
	}

	if err := m.SetActiveSection(Essentials); err != nil {
		t.Fatalf("SetActiveSection() error = %v", err)
	}
	if !m.IsEditingPreviousSection() {
		t.Error("IsEditingPreviousSection() = false after jumping back")
	}

	m.Edit(func(c *coupon.Coupon) { c.Name = "Spring Sale 2" })
	if !m.Continue() {
		t.Fatal("Continue() = false after valid edit")
	}
	if m.Active() != Inventory {
		t.Errorf("Active() = %v, want inventory", m.Active())
	}
	if m.Furthest() != Inventory {
		t.Errorf("Furthest() = %v, want inventory", m.Furthest())
	}
}

func TestScenariosOnThreeSections(t *testing.T) {
	three := []Section{Essentials, Lifecycle, Guardrails}
	src := coupontest.Valid()

	t.Run("A blank essentials stays", func(t *testing.T) {
		m := newMachine(t, WithSections(three...))
		if m.Continue() {
			t.Fatal("Continue() = true on blank essentials")
		}
		if m.Active() != Essentials {
			t.Errorf("Active() = %v, want essentials", m.Active())
		}
		if got := m.Status(Essentials); !got.Touched || got.Valid {
			t.Errorf("Status(Essentials) = %+v, want touched and invalid", got)
		}
	})

	t.Run("B valid essentials advances", func(t *testing.T) {
		m := newMachine(t, WithSections(three...))
		fill(m, Essentials, src)
		if !m.ValidateSection(Essentials) {
			t.Fatalf("ValidateSection(Essentials) = false: %v", m.Errors(Essentials))
		}
		if !m.Continue() {
			t.Fatal("Continue() = false")
		}
		if m.Active() != Lifecycle || m.Furthest() != Lifecycle {
			t.Errorf("Active/Furthest = %v/%v, want lifecycle/lifecycle", m.Active(), m.Furthest())
		}
	})

	t.Run("C editing essentials returns to guardrails", func(t *testing.T) {
		m := newMachine(t, WithSections(three...))
		for _, s := range []Section{Essentials, Lifecycle} {
			fill(m, s, src)
			if !m.Continue() {
				t.Fatalf("Continue() from %v failed: %v", s, m.Errors(s))
			}
		}
		if m.Furthest() != Guardrails {
			t.Fatalf("Furthest() = %v, want guardrails", m.Furthest())
		}

		if err := m.SetActiveSection(Essentials); err != nil {
			t.Fatalf("SetActiveSection(Essentials) error = %v", err)
		}
		if !m.IsEditingPreviousSection() {
			t.Error("IsEditingPreviousSection() = false on essentials")
		}
		if !m.Continue() {
			t.Fatal("Continue() = false from valid essentials")
		}
		if m.Active() != Guardrails {
			t.Errorf("Active() = %v, want guardrails (not lifecycle)", m.Active())
		}
		if m.Furthest() != Guardrails {
			t.Errorf("Furthest() = %v, want guardrails", m.Furthest())
		}
	})
}

// Loading a stored coupon touches and validates every section.
func TestLoad(t *testing.T) {
	m := newMachine(t)
	m.Edit(func(c *coupon.Coupon) { c.Name = "scratch" })

	m.Load(coupontest.Valid())

	if m.Active() != Essentials {
		t.Errorf("Active() = %v, want essentials", m.Active())
	}
	if m.Furthest() != Distribution {
		t.Errorf("Furthest() = %v, want distribution", m.Furthest())
	}
	if m.Dirty() {
		t.Error("Load() should leave the machine clean")
	}
	for _, s := range SectionOrder {
		if got := m.Status(s); got != (SectionStatus{Valid: true, Touched: true}) {
			t.Errorf("Status(%v) = %+v", s, got)
		}
		if !m.IsSectionComplete(s) {
			t.Errorf("IsSectionComplete(%v) = false", s)
		}
	}
	if !m.Completable() {
		t.Error("Completable() = false after loading a valid coupon")
	}
}

func TestLoadInvalidCouponMarksSections(t *testing.T) {
	c := coupontest.Valid()
	c.Channels = nil

	m := newMachine(t)
	m.Load(c)

	if m.Status(Distribution).Valid {
		t.Error("distribution should be invalid")
	}
	if !m.Status(Distribution).Touched {
		t.Error("distribution should be touched so its errors show")
	}
	if m.Completable() {
		t.Error("Completable() = true with invalid distribution")
	}
}

func TestLoadRoundTripThroughFields(t *testing.T) {
	src := coupontest.Valid()
	src.StartDate = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	src.EndDate = time.Date(2026, time.March, 31, 23, 59, 59, 250, time.UTC)
	src.Stackable = true

	m := newMachine(t)
	m.Load(src)

	rebuilt := &coupon.Coupon{ID: src.ID, Status: src.Status, CreatedAt: src.CreatedAt, UpdatedAt: src.UpdatedAt}
	record := m.Record()
	for _, s := range m.Sections() {
		for _, f := range m.Fields(s) {
			if err := f.Set(rebuilt, f.Get(record)); err != nil {
				t.Fatalf("%s: Set(Get()) error = %v", f.Key, err)
			}
		}
	}

	if !reflect.DeepEqual(rebuilt, src) {
		t.Errorf("round trip changed the coupon\n got  %+v\n want %+v", rebuilt, src)
	}
	for _, s := range SectionOrder {
		if Summarize(s, rebuilt, "$") != m.Summary(s) {
			t.Errorf("Summary(%v) differs after round trip", s)
		}
	}
}

func TestValidateSectionIdempotent(t *testing.T) {
	m := newMachine(t)
	fill(m, Essentials, coupontest.Valid())

	first := m.ValidateSection(Essentials)
	before := m.State()
	second := m.ValidateSection(Essentials)
	after := m.State()

	if first != second {
		t.Errorf("ValidateSection() = %v then %v", first, second)
	}
	if before.Validation[Essentials] != after.Validation[Essentials] {
		t.Errorf("status changed: %+v -> %+v", before.Validation[Essentials], after.Validation[Essentials])
	}
	if before.Active != after.Active || before.Furthest != after.Furthest {
		t.Error("ValidateSection() moved the wizard")
	}
}

func TestValidateSectionDoesNotTouch(t *testing.T) {
	m := newMachine(t)
	if m.ValidateSection(Essentials) {
		t.Error("blank essentials should be invalid")
	}
	if m.Status(Essentials).Touched {
		t.Error("ValidateSection() must not touch the section")
	}
	if m.ValidateSection(Section(99)) {
		t.Error("unknown section must never validate")
	}
}

func TestMarkSectionTouchedIdempotent(t *testing.T) {
	m := newMachine(t)
	m.MarkSectionTouched(Lifecycle)
	m.MarkSectionTouched(Lifecycle)
	m.MarkSectionTouched(Section(99))

	if got := m.Status(Lifecycle); got != (SectionStatus{Touched: true}) {
		t.Errorf("Status(Lifecycle) = %+v", got)
	}
	if _, ok := m.State().Validation[Section(99)]; ok {
		t.Error("unknown section recorded in validation map")
	}
}

func TestContinueSingleStepAndMonotoneFurthest(t *testing.T) {
	m := newMachine(t)
	src := coupontest.Valid()

	prev := m.Furthest()
	for i, s := range SectionOrder {
		fill(m, s, src)
		moved := m.Continue()

		if i == len(SectionOrder)-1 {
			if moved {
				t.Error("Continue() from the last section should report false")
			}
			if m.Active() != Distribution {
				t.Errorf("Active() = %v after last Continue()", m.Active())
			}
		} else {
			if !moved {
				t.Fatalf("Continue() from %v failed: %v", s, m.Errors(s))
			}
			if m.Active() != SectionOrder[i+1] {
				t.Errorf("Active() = %v, want %v", m.Active(), SectionOrder[i+1])
			}
		}
		if m.Furthest() < prev {
			t.Errorf("Furthest() moved back from %v to %v", prev, m.Furthest())
		}
		if m.Furthest()-prev > 1 {
			t.Errorf("Furthest() skipped from %v to %v", prev, m.Furthest())
		}
		prev = m.Furthest()
	}

	if !m.Completable() {
		t.Error("Completable() = false after completing every section")
	}
	if _, ok := m.FirstIncomplete(); ok {
		t.Error("FirstIncomplete() found a section on a complete wizard")
	}
}

func TestSetActiveSection(t *testing.T) {
	m := newMachine(t)
	fill(m, Essentials, coupontest.Valid())
	m.Continue()

	err := m.SetActiveSection(Guardrails)
	if !errors.Is(err, ErrSectionNotReached) {
		t.Errorf("SetActiveSection(beyond furthest) error = %v, want ErrSectionNotReached", err)
	}
	if m.Active() != Lifecycle {
		t.Errorf("Active() = %v after rejected jump", m.Active())
	}

	err = m.SetActiveSection(Section(99))
	if !IsInvalidSection(err) {
		t.Errorf("SetActiveSection(unknown) error = %v, want InvalidSectionError", err)
	}

	if err := m.SetActiveSection(Lifecycle); err != nil {
		t.Errorf("SetActiveSection(active) error = %v", err)
	}
	if m.Status(Lifecycle).Touched {
		t.Error("staying on a section must not touch it")
	}

	if err := m.SetActiveSection(Essentials); err != nil {
		t.Fatalf("SetActiveSection(Essentials) error = %v", err)
	}
	got := m.Status(Lifecycle)
	if !got.Touched || got.Valid {
		t.Errorf("outgoing lifecycle status = %+v, want touched and invalid", got)
	}
	if m.Furthest() != Lifecycle {
		t.Errorf("Furthest() = %v, jumping must not move it", m.Furthest())
	}
}

func TestEditCascadesToDependentSections(t *testing.T) {
	c := coupontest.Valid()
	c.Type = coupon.TypeFixed
	c.Value = 10
	c.MaxDiscount = 0

	m := newMachine(t)
	m.Load(c)
	if !m.Completable() {
		t.Fatalf("fixture invalid: %v", coupon.Validate(c))
	}

	// A fixed discount larger than the minimum spend breaks guardrails.
	m.Edit(func(c *coupon.Coupon) { c.Value = 80 })

	if !m.Status(Essentials).Valid {
		t.Error("essentials should still be valid")
	}
	if m.Status(Guardrails).Valid {
		t.Error("guardrails should be invalidated by the essentials edit")
	}
	if m.Completable() {
		t.Error("Completable() = true after cascade invalidation")
	}
	if sec, ok := m.FirstIncomplete(); !ok || sec != Guardrails {
		t.Errorf("FirstIncomplete() = %v, %v, want guardrails", sec, ok)
	}
}

func TestCascadeSkipsUntouchedSections(t *testing.T) {
	m := newMachine(t)
	fill(m, Essentials, coupontest.Valid())
	m.Continue()

	if _, ok := m.State().Validation[Guardrails]; ok {
		t.Error("untouched guardrails should not be validated")
	}
}

func TestEditRevalidatesTouchedActive(t *testing.T) {
	m := newMachine(t)
	m.Continue()
	if m.Status(Essentials).Valid {
		t.Fatal("blank essentials should be invalid")
	}

	fill(m, Essentials, coupontest.Valid())
	if !m.Status(Essentials).Valid {
		t.Error("editing a touched section should re-validate it")
	}
	if !m.Dirty() {
		t.Error("Edit() should mark the machine dirty")
	}
}

func TestChangeHookReceivesCopy(t *testing.T) {
	var got []*coupon.Coupon
	m := newMachine(t, WithChangeHook(func(c *coupon.Coupon) {
		got = append(got, c)
	}))

	m.Edit(func(c *coupon.Coupon) { c.Name = "A" })
	m.Edit(func(c *coupon.Coupon) { c.Name = "AB" })

	if len(got) != 2 {
		t.Fatalf("hook called %d times, want 2", len(got))
	}
	got[1].Name = "mutated"
	if m.Record().Name != "AB" {
		t.Error("hook copy aliases the machine record")
	}
}

func TestSetFieldReportsParseErrors(t *testing.T) {
	m := newMachine(t)
	_, f, ok := FieldByKey("value")
	if !ok {
		t.Fatal("value field missing")
	}

	err := m.SetField(f, "twenty")
	if !coupon.IsValidationError(err) {
		t.Errorf("SetField() error = %v, want validation error", err)
	}
	if err := m.SetField(f, "20"); err != nil {
		t.Errorf("SetField() error = %v", err)
	}
	if m.Record().Value != 20 {
		t.Errorf("Value = %v, want 20", m.Record().Value)
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name         string
		coupon       func() *coupon.Coupon
		wantActive   Section
		wantComplete []Section
	}{
		{
			name:       "blank draft",
			coupon:     func() *coupon.Coupon { return &coupon.Coupon{} },
			wantActive: Essentials,
		},
		{
			name:         "first two sections",
			coupon:       func() *coupon.Coupon { c := coupontest.Valid(); c.MinSpend = -1; return c },
			wantActive:   Guardrails,
			wantComplete: []Section{Essentials, Lifecycle},
		},
		{
			name:         "complete draft",
			coupon:       coupontest.Valid,
			wantActive:   Distribution,
			wantComplete: SectionOrder[:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t)
			m.Restore(tt.coupon())

			if m.Active() != tt.wantActive || m.Furthest() != tt.wantActive {
				t.Errorf("Active/Furthest = %v/%v, want %v", m.Active(), m.Furthest(), tt.wantActive)
			}
			if m.Status(tt.wantActive).Touched {
				t.Error("restored active section should be untouched")
			}
			for _, s := range tt.wantComplete {
				if !m.IsSectionComplete(s) {
					t.Errorf("IsSectionComplete(%v) = false", s)
				}
			}
		})
	}
}

// Scenario D: reset returns to the fresh state.
func TestReset(t *testing.T) {
	m := newMachine(t)
	m.Load(coupontest.Valid())
	m.Edit(func(c *coupon.Coupon) { c.Name = "changed" })
	if err := m.SetActiveSection(Guardrails); err != nil {
		t.Fatal(err)
	}

	m.Reset()

	if got, want := m.State(), newMachine(t).State(); !reflect.DeepEqual(got, want) {
		t.Errorf("Reset() state = %+v, want %+v", got, want)
	}
}

func TestWithSectionsSubset(t *testing.T) {
	m := newMachine(t, WithSections(Essentials, Distribution))
	src := coupontest.Valid()

	fill(m, Essentials, src)
	if !m.Continue() {
		t.Fatal("Continue() failed")
	}
	if m.Active() != Distribution {
		t.Errorf("Active() = %v, want distribution", m.Active())
	}
	if err := m.SetActiveSection(Lifecycle); !IsInvalidSection(err) {
		t.Errorf("SetActiveSection(excluded) error = %v", err)
	}
	if m.Summary(Lifecycle) != "" {
		t.Error("Summary() of an excluded section should be empty")
	}
}

func TestAdoptKeepsClean(t *testing.T) {
	m := newMachine(t)
	fill(m, Essentials, coupontest.Valid())
	m.MarkClean()

	saved := m.Record()
	saved.ID = "c-1"
	saved.Status = coupon.StatusDraft
	m.Adopt(saved)

	if m.Record().ID != "c-1" {
		t.Errorf("ID = %q", m.Record().ID)
	}
	if m.Dirty() {
		t.Error("Adopt() should not mark the machine dirty")
	}
}
