package wizard

import (
	"fmt"

	"github.com/muurk/couponwiz/internal/coupon"
)

// Rule is the validation rule registered for a section.
type Rule struct {
	Section   Section
	Name      string    // Short identifier shown in logs, e.g. "essentials-required"
	DependsOn []Section // Earlier sections whose fields this rule reads

	// Validate returns every problem found; an empty result means valid.
	// Must be a pure function of the coupon.
	Validate func(c *coupon.Coupon) []error
}

// Check reports whether the coupon satisfies the rule.
func (r *Rule) Check(c *coupon.Coupon) bool {
	return len(r.Validate(c)) == 0
}

// Registry maps sections to their validation rules.
type Registry struct {
	rules map[Section]*Rule
}

// NewRegistry builds a registry from rules. Each rule must target a distinct,
// valid section and may only depend on sections that come before it.
func NewRegistry(rules ...*Rule) (*Registry, error) {
	r := &Registry{rules: make(map[Section]*Rule, len(rules))}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule *Rule) error {
	if rule == nil || rule.Validate == nil {
		return fmt.Errorf("rule has no validate function")
	}
	if !rule.Section.Valid() {
		return &InvalidSectionError{Section: rule.Section}
	}
	if _, exists := r.rules[rule.Section]; exists {
		return fmt.Errorf("rule for section %s already registered", rule.Section)
	}
	for _, dep := range rule.DependsOn {
		if !dep.Valid() {
			return fmt.Errorf("rule %s: %w", rule.Name, &InvalidSectionError{Section: dep})
		}
		if dep >= rule.Section {
			return fmt.Errorf("rule %s: may only depend on earlier sections, got %s", rule.Name, dep)
		}
	}
	r.rules[rule.Section] = rule
	return nil
}

// Rule returns the rule for a section, or nil if none is registered.
func (r *Registry) Rule(s Section) *Rule {
	return r.rules[s]
}

// Rules returns all registered rules in section order.
func (r *Registry) Rules() []*Rule {
	out := make([]*Rule, 0, len(r.rules))
	for _, s := range SectionOrder {
		if rule, ok := r.rules[s]; ok {
			out = append(out, rule)
		}
	}
	return out
}

// DependsOn reports whether the rule for section s reads fields owned by
// section on, directly or through another dependency.
func (r *Registry) DependsOn(s, on Section) bool {
	rule, ok := r.rules[s]
	if !ok {
		return false
	}
	for _, dep := range rule.DependsOn {
		if dep == on || r.DependsOn(dep, on) {
			return true
		}
	}
	return false
}

// Dependents returns the sections whose rules depend on s, in section order.
func (r *Registry) Dependents(s Section) []Section {
	var out []Section
	for _, candidate := range SectionOrder {
		if r.DependsOn(candidate, s) {
			out = append(out, candidate)
		}
	}
	return out
}

// DefaultRegistry returns the coupon wizard rules.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		&Rule{
			Section:  Essentials,
			Name:     "essentials-required",
			Validate: coupon.ValidateEssentials,
		},
		&Rule{
			Section:  Lifecycle,
			Name:     "lifecycle-window",
			Validate: coupon.ValidateLifecycle,
		},
		&Rule{
			Section:   Guardrails,
			Name:      "guardrails-thresholds",
			DependsOn: []Section{Essentials},
			Validate:  coupon.ValidateGuardrails,
		},
		&Rule{
			Section:   Inventory,
			Name:      "inventory-quota",
			DependsOn: []Section{Guardrails},
			Validate:  coupon.ValidateInventory,
		},
		&Rule{
			Section:   Distribution,
			Name:      "distribution-channels",
			DependsOn: []Section{Inventory},
			Validate:  coupon.ValidateDistribution,
		},
	)
	if err != nil {
		// Static rule set; only reachable if the table above is edited incorrectly
		panic(err)
	}
	return r
}

// Sections returns the sections that have a rule, in section order.
func (r *Registry) Sections() []Section {
	out := make([]Section, 0, len(r.rules))
	for _, s := range SectionOrder {
		if _, ok := r.rules[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
