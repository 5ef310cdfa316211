// Package coupon defines the coupon record authored by the wizard and the
// business rules it must satisfy.
//
// A Coupon's fields are grouped by the wizard section that captures them:
//   - Essentials: name, code, discount type and value
//   - Lifecycle: start and optional end date
//   - Guardrails: minimum spend, caps, per-member limits, eligible tiers
//   - Inventory: redemption quota or unlimited
//   - Distribution: channels, segment, automatic issuance
//
// # Validation
//
// Each section has a validator returning every problem it finds rather than
// stopping at the first one:
//
//	errs := coupon.ValidateEssentials(c)
//	if len(errs) > 0 {
//	    fmt.Print(coupon.FormatValidationErrors(errs))
//	}
//
// Validators are pure functions of the coupon. Some read fields owned by an
// earlier section (guardrails read the discount value, inventory reads the
// per-member limit, distribution reads the quota).
//
// Validate runs all of them and is what persistence services apply before a
// coupon is published.
//
// # Errors
//
// Persistence failures are reported as *Error with an ErrorType; use the
// IsNotFound / IsConflict / IsValidationError helpers rather than comparing
// messages.
package coupon
