package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/couponwiz/internal/coupon"
)

const notStarted = "Not started"

// summaryDateLayout is the human friendly date format used in summaries
const summaryDateLayout = "Jan 2, 2006"

// Summarize derives the one-line synopsis shown on a collapsed section row.
// It reads the coupon only.
func Summarize(s Section, c *coupon.Coupon, currency string) string {
	switch s {
	case Essentials:
		return summarizeEssentials(c, currency)
	case Lifecycle:
		return summarizeLifecycle(c)
	case Guardrails:
		return summarizeGuardrails(c, currency)
	case Inventory:
		return summarizeInventory(c)
	case Distribution:
		return summarizeDistribution(c)
	default:
		return ""
	}
}

// FormatDiscount describes the discount of a coupon, e.g. "20% off".
func FormatDiscount(c *coupon.Coupon, currency string) string {
	switch c.Type {
	case coupon.TypePercentage:
		return formatNumber(c.Value) + "% off"
	case coupon.TypeFixed:
		return FormatMoney(c.Value, currency) + " off"
	case coupon.TypeShipping:
		return "Free shipping"
	case coupon.TypeSKU:
		if c.SKU == "" {
			return "Free item"
		}
		return "Free item " + c.SKU
	default:
		return ""
	}
}

// FormatMoney formats an amount with the configured currency symbol,
// dropping the cents for whole amounts ("$50", "$12.50").
func FormatMoney(v float64, currency string) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%s%d", currency, int64(v))
	}
	return fmt.Sprintf("%s%.2f", currency, v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func summarizeEssentials(c *coupon.Coupon, currency string) string {
	var parts []string
	if name := strings.TrimSpace(c.Name); name != "" {
		parts = append(parts, name)
	}
	if discount := FormatDiscount(c, currency); discount != "" {
		parts = append(parts, discount)
	}
	if c.Code != "" {
		parts = append(parts, "code "+c.Code)
	}
	if len(parts) == 0 {
		return notStarted
	}
	return strings.Join(parts, " · ")
}

func summarizeLifecycle(c *coupon.Coupon) string {
	if c.StartDate.IsZero() {
		return notStarted
	}
	start := c.StartDate.UTC().Format(summaryDateLayout)
	if c.EndDate.IsZero() {
		return "From " + start + " (no end date)"
	}
	return start + " – " + c.EndDate.UTC().Format(summaryDateLayout)
}

func summarizeGuardrails(c *coupon.Coupon, currency string) string {
	var parts []string
	if c.MinSpend > 0 {
		parts = append(parts, "min spend "+FormatMoney(c.MinSpend, currency))
	}
	if c.MaxDiscount > 0 {
		parts = append(parts, "max "+FormatMoney(c.MaxDiscount, currency)+" off")
	}
	if c.PerMemberLimit > 0 {
		parts = append(parts, fmt.Sprintf("%d per member", c.PerMemberLimit))
	}
	if c.Stackable {
		parts = append(parts, "stackable")
	}
	if len(c.EligibleTiers) > 0 {
		parts = append(parts, "tiers "+strings.Join(c.EligibleTiers, "/"))
	}
	if len(parts) == 0 {
		return "No restrictions"
	}
	return strings.Join(parts, ", ")
}

func summarizeInventory(c *coupon.Coupon) string {
	if c.Unlimited {
		return "Unlimited"
	}
	if c.TotalQuota <= 0 {
		return notStarted
	}
	return fmt.Sprintf("%d available", c.TotalQuota)
}

func summarizeDistribution(c *coupon.Coupon) string {
	if len(c.Channels) == 0 {
		return notStarted
	}
	names := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		names[i] = string(ch)
	}
	parts := []string{strings.Join(names, ", ")}
	if c.Segment != "" {
		parts = append(parts, "segment "+c.Segment)
	}
	if c.AutoIssue {
		parts = append(parts, fmt.Sprintf("auto-issue %d", c.IssueCount))
	}
	return strings.Join(parts, " · ")
}
