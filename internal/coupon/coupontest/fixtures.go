// Package coupontest provides coupon fixtures shared by tests.
package coupontest

import (
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
)

// Valid returns a coupon passing every section rule: 20% off for silver and
// gold members during March 2026, 500 available, auto-issued to 100 members
// over email and the app.
func Valid() *coupon.Coupon {
	return &coupon.Coupon{
		Name:           "Spring Sale",
		Code:           "SPRING20",
		Description:    "Spring promotion",
		Type:           coupon.TypePercentage,
		Value:          20,
		StartDate:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		MinSpend:       50,
		MaxDiscount:    25,
		PerMemberLimit: 2,
		EligibleTiers:  []string{"silver", "gold"},
		TotalQuota:     500,
		Channels:       []coupon.Channel{coupon.ChannelEmail, coupon.ChannelApp},
		Segment:        "lapsed-90d",
		AutoIssue:      true,
		IssueCount:     100,
	}
}

// Essentials returns a coupon where only the essentials section is filled in.
func Essentials() *coupon.Coupon {
	return &coupon.Coupon{
		Name:  "Spring Sale",
		Type:  coupon.TypePercentage,
		Value: 20,
	}
}
