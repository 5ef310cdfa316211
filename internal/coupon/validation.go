package coupon

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateEssentials validates the identity and discount of a coupon.
// Returns a slice of validation errors (empty if valid).
//
// Rules:
//   - Name must be non-empty
//   - Type must be one of Types
//   - Value must be positive unless the type is shipping or sku
//   - Percentage values cannot exceed 100
//   - SKU coupons must name the free item
func ValidateEssentials(c *Coupon) []error {
	var errs []error

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, NewValidationError("name", "name is required"))
	}

	if !c.Type.Valid() {
		errs = append(errs, NewValidationError("type", fmt.Sprintf("unknown coupon type %q", c.Type)))
		return errs
	}

	if c.Type.RequiresValue() && c.Value <= 0 {
		errs = append(errs, NewValidationError("value", "value must be greater than zero"))
	}

	if c.Type == TypePercentage && c.Value > 100 {
		errs = append(errs, NewValidationError("value", fmt.Sprintf("percentage cannot exceed 100, got %g", c.Value)))
	}

	if c.Type == TypeSKU && strings.TrimSpace(c.SKU) == "" {
		errs = append(errs, NewValidationError("sku", "free item SKU is required"))
	}

	if strings.ContainsAny(c.Code, " \t\n\r") {
		errs = append(errs, NewValidationError("code", "code cannot contain whitespace"))
	}

	return errs
}

// ValidateLifecycle validates the redemption window.
func ValidateLifecycle(c *Coupon) []error {
	var errs []error

	if c.StartDate.IsZero() {
		errs = append(errs, NewValidationError("start_date", "start date is required"))
		return errs
	}

	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		errs = append(errs, NewValidationError("end_date", fmt.Sprintf(
			"end date %s is before start date %s",
			c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout),
		)))
	}

	return errs
}

// ValidateGuardrails validates spend thresholds, caps and eligibility.
// Depends on the essentials section: thresholds are compared against the
// discount type and value.
func ValidateGuardrails(c *Coupon) []error {
	var errs []error

	if c.MinSpend < 0 {
		errs = append(errs, NewValidationError("min_spend", "minimum spend cannot be negative"))
	}
	if c.MaxDiscount < 0 {
		errs = append(errs, NewValidationError("max_discount", "maximum discount cannot be negative"))
	}
	if c.PerMemberLimit < 0 {
		errs = append(errs, NewValidationError("per_member_limit", "per-member limit cannot be negative"))
	}

	// A fixed discount larger than the spend threshold gives money away
	if c.Type == TypeFixed && c.MinSpend > 0 && c.MinSpend < c.Value {
		errs = append(errs, NewValidationError("min_spend", fmt.Sprintf(
			"minimum spend %g must be at least the discount value %g", c.MinSpend, c.Value,
		)))
	}

	if c.MaxDiscount > 0 && c.Type != TypePercentage {
		errs = append(errs, NewValidationError("max_discount", "maximum discount only applies to percentage coupons"))
	}

	for _, tier := range c.EligibleTiers {
		if !slices.Contains(Tiers, tier) {
			errs = append(errs, NewValidationError("eligible_tiers", fmt.Sprintf("unknown tier %q", tier)))
		}
	}

	return errs
}

// ValidateInventory validates the redemption quota.
// Depends on the guardrails section: a limited quota must cover at least
// one member's allowance.
func ValidateInventory(c *Coupon) []error {
	var errs []error

	if c.Unlimited {
		return nil
	}

	if c.TotalQuota <= 0 {
		errs = append(errs, NewValidationError("total_quota", "quota must be greater than zero or unlimited"))
		return errs
	}

	if c.PerMemberLimit > 0 && c.TotalQuota < c.PerMemberLimit {
		errs = append(errs, NewValidationError("total_quota", fmt.Sprintf(
			"quota %d is smaller than the per-member limit %d", c.TotalQuota, c.PerMemberLimit,
		)))
	}

	return errs
}

// ValidateDistribution validates channels and automatic issuance.
// Depends on the inventory section: auto-issued coupons must fit the quota.
func ValidateDistribution(c *Coupon) []error {
	var errs []error

	if len(c.Channels) == 0 {
		errs = append(errs, NewValidationError("channels", "at least one channel is required"))
	}

	for _, ch := range c.Channels {
		if !ch.Valid() {
			errs = append(errs, NewValidationError("channels", fmt.Sprintf("unknown channel %q", ch)))
		}
	}

	if c.AutoIssue {
		if c.IssueCount <= 0 {
			errs = append(errs, NewValidationError("issue_count", "auto-issue requires an issue count greater than zero"))
		} else if c.IsLimited() && c.IssueCount > c.TotalQuota {
			errs = append(errs, NewValidationError("issue_count", fmt.Sprintf(
				"issue count %d exceeds quota %d", c.IssueCount, c.TotalQuota,
			)))
		}
	}

	return errs
}

// Validate validates a complete coupon. This is the check persistence services
// apply before a coupon goes live.
// Returns a slice of validation errors (empty if valid).
func Validate(c *Coupon) []error {
	var allErrors []error

	allErrors = append(allErrors, ValidateEssentials(c)...)
	allErrors = append(allErrors, ValidateLifecycle(c)...)
	allErrors = append(allErrors, ValidateGuardrails(c)...)
	allErrors = append(allErrors, ValidateInventory(c)...)
	allErrors = append(allErrors, ValidateDistribution(c)...)

	return allErrors
}
