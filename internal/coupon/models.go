package coupon

import (
	"slices"
	"time"
)

// Type identifies how a coupon discounts an order.
type Type string

const (
	TypePercentage Type = "percentage" // Value is a percentage off (0-100]
	TypeFixed      Type = "fixed"      // Value is a fixed currency amount off
	TypeShipping   Type = "shipping"   // Free shipping, Value unused
	TypeSKU        Type = "sku"        // Free item identified by SKU, Value unused
)

// Types lists every supported coupon type in display order.
var Types = []Type{TypePercentage, TypeFixed, TypeShipping, TypeSKU}

// Valid reports whether t is a known coupon type.
func (t Type) Valid() bool {
	return slices.Contains(Types, t)
}

// RequiresValue reports whether coupons of this type need a positive Value.
func (t Type) RequiresValue() bool {
	return t != TypeShipping && t != TypeSKU
}

// Status is the persistence status of a coupon.
type Status string

const (
	StatusDraft Status = "draft"
	StatusLive  Status = "live"
)

// Channel is a distribution channel a coupon is issued through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelApp   Channel = "app"
	ChannelPOS   Channel = "pos"
	ChannelWeb   Channel = "web"
)

// Channels lists every supported distribution channel.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelApp, ChannelPOS, ChannelWeb}

// Valid reports whether ch is a known channel.
func (ch Channel) Valid() bool {
	return slices.Contains(Channels, ch)
}

// Tiers lists the loyalty tiers a coupon can be restricted to.
var Tiers = []string{"bronze", "silver", "gold", "platinum"}

// DateLayout is the layout used for coupon lifecycle dates.
const DateLayout = "2006-01-02"

// Coupon is the record authored by the coupon wizard.
// Fields are grouped by the wizard section that captures them.
type Coupon struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Status Status `yaml:"status,omitempty" json:"status,omitempty"`

	// Essentials
	Name        string  `yaml:"name" json:"name"`
	Code        string  `yaml:"code,omitempty" json:"code,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Type        Type    `yaml:"type" json:"type"`
	Value       float64 `yaml:"value,omitempty" json:"value,omitempty"`
	SKU         string  `yaml:"sku,omitempty" json:"sku,omitempty"`

	// Lifecycle
	StartDate time.Time `yaml:"start_date,omitempty" json:"start_date,omitzero"`
	EndDate   time.Time `yaml:"end_date,omitempty" json:"end_date,omitzero"` // Zero means open ended

	// Guardrails
	MinSpend       float64  `yaml:"min_spend,omitempty" json:"min_spend,omitempty"`
	MaxDiscount    float64  `yaml:"max_discount,omitempty" json:"max_discount,omitempty"` // Cap for percentage coupons, 0 = uncapped
	PerMemberLimit int      `yaml:"per_member_limit,omitempty" json:"per_member_limit,omitempty"`
	Stackable      bool     `yaml:"stackable,omitempty" json:"stackable,omitempty"`
	EligibleTiers  []string `yaml:"eligible_tiers,omitempty" json:"eligible_tiers,omitempty"` // Empty means all tiers

	// Inventory
	TotalQuota int  `yaml:"total_quota,omitempty" json:"total_quota,omitempty"`
	Unlimited  bool `yaml:"unlimited,omitempty" json:"unlimited,omitempty"`

	// Distribution
	Channels   []Channel `yaml:"channels,omitempty" json:"channels,omitempty"`
	Segment    string    `yaml:"segment,omitempty" json:"segment,omitempty"`
	AutoIssue  bool      `yaml:"auto_issue,omitempty" json:"auto_issue,omitempty"`
	IssueCount int       `yaml:"issue_count,omitempty" json:"issue_count,omitempty"`

	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitzero"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitzero"`
}

// Clone returns a deep copy of the coupon. Nil slices stay nil.
func (c *Coupon) Clone() *Coupon {
	if c == nil {
		return nil
	}
	out := *c
	out.EligibleTiers = slices.Clone(c.EligibleTiers)
	out.Channels = slices.Clone(c.Channels)
	return &out
}

// HasChannel reports whether the coupon is distributed through ch.
func (c *Coupon) HasChannel(ch Channel) bool {
	return slices.Contains(c.Channels, ch)
}

// IsLimited reports whether the coupon has a finite redemption quota.
func (c *Coupon) IsLimited() bool {
	return !c.Unlimited
}

// ActiveAt reports whether the coupon lifecycle covers the given instant.
func (c *Coupon) ActiveAt(t time.Time) bool {
	if c.StartDate.IsZero() || t.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && !t.Before(c.EndDate.AddDate(0, 0, 1)) {
		return false
	}
	return true
}
