package entity

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Coupon is read-only to this service; the coupon collaborator owns the records.
// A nil VendorID means the coupon applies marketplace-wide.
type Coupon struct {
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	MaxDiscount   *float64     `json:"max_discount,omitempty"`
	MinPurchase   *float64     `json:"min_purchase,omitempty"`
	VendorID      *int         `json:"vendor_id,omitempty"`
	Active        bool         `json:"active"`
	StartsAt      *time.Time   `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	UsageLimit    int          `json:"usage_limit"`
	UsedCount     int          `json:"used_count"`
}

// Usable reports whether the coupon can produce any discount at the given time.
// A stale coupon degrades to zero discount, it does not fail the checkout.
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}
