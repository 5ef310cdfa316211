package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
)

// Field is an editable view of one coupon field.
//
// Get and Set form a lossless string codec: Set(c, Get(c)) leaves c
// unchanged. Numbers use their shortest exact form and dates are UTC in
// coupon.DateLayout, with the time of day appended when there is one.
// Booleans are "yes"/"no" and lists are comma separated.
type Field struct {
	Key         string // Matches the coupon field name used in validation errors
	Label       string
	Placeholder string
	Get         func(c *coupon.Coupon) string
	Set         func(c *coupon.Coupon, value string) error
}

var sectionFields = map[Section][]Field{
	Essentials: {
		textField("name", "Name", "Spring Sale", func(c *coupon.Coupon) *string { return &c.Name }),
		textField("code", "Code", "SPRING20 (blank for none)", func(c *coupon.Coupon) *string { return &c.Code }),
		textField("description", "Description", "Optional", func(c *coupon.Coupon) *string { return &c.Description }),
		{
			Key:         "type",
			Label:       "Type",
			Placeholder: "percentage, fixed, shipping, sku",
			Get:         func(c *coupon.Coupon) string { return string(c.Type) },
			Set: func(c *coupon.Coupon, v string) error {
				c.Type = coupon.Type(strings.ToLower(strings.TrimSpace(v)))
				return nil
			},
		},
		floatField("value", "Value", "20", func(c *coupon.Coupon) *float64 { return &c.Value }),
		textField("sku", "Free item SKU", "Only for sku coupons", func(c *coupon.Coupon) *string { return &c.SKU }),
	},
	Lifecycle: {
		dateField("start_date", "Starts", coupon.DateLayout, func(c *coupon.Coupon) *time.Time { return &c.StartDate }),
		dateField("end_date", "Ends", "blank for no end date", func(c *coupon.Coupon) *time.Time { return &c.EndDate }),
	},
	Guardrails: {
		floatField("min_spend", "Minimum spend", "0 for none", func(c *coupon.Coupon) *float64 { return &c.MinSpend }),
		floatField("max_discount", "Maximum discount", "0 for uncapped", func(c *coupon.Coupon) *float64 { return &c.MaxDiscount }),
		intField("per_member_limit", "Uses per member", "0 for unlimited", func(c *coupon.Coupon) *int { return &c.PerMemberLimit }),
		boolField("stackable", "Stackable", func(c *coupon.Coupon) *bool { return &c.Stackable }),
		{
			Key:         "eligible_tiers",
			Label:       "Eligible tiers",
			Placeholder: "blank for all, e.g. silver, gold",
			Get:         func(c *coupon.Coupon) string { return strings.Join(c.EligibleTiers, ", ") },
			Set: func(c *coupon.Coupon, v string) error {
				c.EligibleTiers = splitList(v)
				return nil
			},
		},
	},
	Inventory: {
		intField("total_quota", "Total quota", "500", func(c *coupon.Coupon) *int { return &c.TotalQuota }),
		boolField("unlimited", "Unlimited", func(c *coupon.Coupon) *bool { return &c.Unlimited }),
	},
	Distribution: {
		{
			Key:         "channels",
			Label:       "Channels",
			Placeholder: "email, sms, app, pos, web",
			Get: func(c *coupon.Coupon) string {
				names := make([]string, len(c.Channels))
				for i, ch := range c.Channels {
					names[i] = string(ch)
				}
				return strings.Join(names, ", ")
			},
			Set: func(c *coupon.Coupon, v string) error {
				items := splitList(v)
				if items == nil {
					c.Channels = nil
					return nil
				}
				c.Channels = make([]coupon.Channel, len(items))
				for i, item := range items {
					c.Channels[i] = coupon.Channel(item)
				}
				return nil
			},
		},
		textField("segment", "Segment", "blank for all members", func(c *coupon.Coupon) *string { return &c.Segment }),
		boolField("auto_issue", "Auto-issue", func(c *coupon.Coupon) *bool { return &c.AutoIssue }),
		intField("issue_count", "Issue count", "coupons issued automatically", func(c *coupon.Coupon) *int { return &c.IssueCount }),
	},
}

// FieldsFor returns the editable fields of a section.
func FieldsFor(s Section) []Field {
	return sectionFields[s]
}

// FieldByKey finds a field across all sections.
func FieldByKey(key string) (Section, Field, bool) {
	for _, s := range SectionOrder {
		for _, f := range sectionFields[s] {
			if f.Key == key {
				return s, f, true
			}
		}
	}
	return 0, Field{}, false
}

func textField(key, label, placeholder string, ptr func(c *coupon.Coupon) *string) Field {
	return Field{
		Key:         key,
		Label:       label,
		Placeholder: placeholder,
		Get:         func(c *coupon.Coupon) string { return *ptr(c) },
		Set: func(c *coupon.Coupon, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func floatField(key, label, placeholder string, ptr func(c *coupon.Coupon) *float64) Field {
	return Field{
		Key:         key,
		Label:       label,
		Placeholder: placeholder,
		Get: func(c *coupon.Coupon) string {
			v := *ptr(c)
			if v == 0 {
				return ""
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		Set: func(c *coupon.Coupon, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(c) = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return coupon.NewValidationError(key, "must be a number")
			}
			*ptr(c) = f
			return nil
		},
	}
}

func intField(key, label, placeholder string, ptr func(c *coupon.Coupon) *int) Field {
	return Field{
		Key:         key,
		Label:       label,
		Placeholder: placeholder,
		Get: func(c *coupon.Coupon) string {
			v := *ptr(c)
			if v == 0 {
				return ""
			}
			return strconv.Itoa(v)
		},
		Set: func(c *coupon.Coupon, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(c) = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return coupon.NewValidationError(key, "must be a whole number")
			}
			*ptr(c) = n
			return nil
		},
	}
}

func boolField(key, label string, ptr func(c *coupon.Coupon) *bool) Field {
	return Field{
		Key:         key,
		Label:       label,
		Placeholder: "yes / no",
		Get: func(c *coupon.Coupon) string {
			if *ptr(c) {
				return "yes"
			}
			return "no"
		},
		Set: func(c *coupon.Coupon, v string) error {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "yes", "y", "true", "on":
				*ptr(c) = true
			case "no", "n", "false", "off", "":
				*ptr(c) = false
			default:
				return coupon.NewValidationError(key, "must be yes or no")
			}
			return nil
		},
	}
}

// dateTimeLayout is used for dates that carry a time of day to the minute.
// Anything finer falls back to RFC 3339.
const dateTimeLayout = "2006-01-02 15:04"

func dateField(key, label, placeholder string, ptr func(c *coupon.Coupon) *time.Time) Field {
	return Field{
		Key:         key,
		Label:       label,
		Placeholder: placeholder,
		Get: func(c *coupon.Coupon) string {
			t := *ptr(c)
			if t.IsZero() {
				return ""
			}
			return formatDate(t.UTC())
		},
		Set: func(c *coupon.Coupon, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(c) = time.Time{}
				return nil
			}
			for _, layout := range []string{coupon.DateLayout, dateTimeLayout, time.RFC3339Nano} {
				if t, err := time.Parse(layout, v); err == nil {
					*ptr(c) = t.UTC()
					return nil
				}
			}
			return coupon.NewValidationError(key, "must be a date like "+coupon.DateLayout)
		},
	}
}

// formatDate picks the shortest layout that keeps every part of t.
func formatDate(t time.Time) string {
	switch {
	case t.Equal(t.Truncate(24 * time.Hour)):
		return t.Format(coupon.DateLayout)
	case t.Equal(t.Truncate(time.Minute)):
		return t.Format(dateTimeLayout)
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// splitList splits a comma separated list, dropping blanks. Items are
// lowercased since tiers and channels are lowercase identifiers.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
