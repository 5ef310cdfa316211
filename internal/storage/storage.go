// Package storage defines the coupon persistence service used by the wizard.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/couponwiz/internal/coupon"
)

// ErrNotFound indicates a coupon id with no stored record.
var ErrNotFound = errors.New("coupon not found")

// CouponStore persists coupons.
//
// Save and Publish return the stored record, carrying the id, status and
// timestamps assigned by the store. Publish validates the whole coupon and
// rejects it with a validation *coupon.Error when any rule fails.
type CouponStore interface {
	Save(ctx context.Context, c *coupon.Coupon, status coupon.Status) (*coupon.Coupon, error)
	Publish(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	Get(ctx context.Context, id string) (*coupon.Coupon, error)
	List(ctx context.Context) ([]*coupon.Coupon, error)
	Close() error
}

// NewID returns a fresh coupon id.
func NewID() string {
	return uuid.NewString()
}

// Prepare returns the copy of c a store should write with the given status.
// existing is the currently stored record with the same id, or nil.
//
// A live coupon cannot be turned back into a draft; that is reported as a
// conflict.
func Prepare(c *coupon.Coupon, existing *coupon.Coupon, status coupon.Status, now time.Time) (*coupon.Coupon, error) {
	if c == nil {
		return nil, coupon.NewValidationError("coupon", "coupon is required")
	}
	if status != coupon.StatusDraft && status != coupon.StatusLive {
		return nil, coupon.NewValidationError("status", "unknown status "+string(status))
	}
	if existing != nil && existing.Status == coupon.StatusLive && status == coupon.StatusDraft {
		return nil, coupon.NewConflictError(existing.ID, "coupon is already live and cannot be saved as a draft")
	}

	out := c.Clone()
	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		out.ID = NewID()
	}
	out.Status = status
	now = now.UTC()
	switch {
	case existing != nil && !existing.CreatedAt.IsZero():
		out.CreatedAt = existing.CreatedAt
	case out.CreatedAt.IsZero():
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out, nil
}

// CheckPublishable runs every coupon rule and wraps the failures into a single
// rejection error.
func CheckPublishable(c *coupon.Coupon) error {
	if errs := coupon.Validate(c); len(errs) > 0 {
		return coupon.NewRejectedError(c.ID, errs)
	}
	return nil
}

// NotFound builds the not-found error returned by stores. It matches both
// coupon.IsNotFound and errors.Is(err, ErrNotFound).
func NotFound(id string) error {
	e := coupon.NewNotFoundError(id)
	e.Err = ErrNotFound
	return e
}
