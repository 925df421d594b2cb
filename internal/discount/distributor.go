package discount

import (
	"time"

	"marketplace-backend/internal/entity"
)

// Distribute allocates one coupon's discount across the vendors of a checkout.
// It runs once per checkout over every vendor subtotal at the same time, since
// a FIXED coupon splits proportionally and the split needs the combined total.
//
// A coupon that is inactive, expired, not yet started or usage-exhausted yields
// zero for every vendor; a stale code degrades to no discount instead of
// failing the checkout.
//
// The proportional base for FIXED coupons is the raw pre-discount subtotal of
// every eligible vendor. Vendors below the coupon's minPurchase stay in the
// base but their share is forced to zero, so the distributed sum can fall
// short of the face value but never exceed it.
func Distribute(coupon *entity.Coupon, vendorSubtotals map[int]float64, now time.Time) map[int]float64 {
	discounts := make(map[int]float64, len(vendorSubtotals))
	for vendorID := range vendorSubtotals {
		discounts[vendorID] = 0
	}
	if !coupon.Usable(now) {
		return discounts
	}

	eligible := make(map[int]float64, len(vendorSubtotals))
	var eligibleTotal float64
	for vendorID, subtotal := range vendorSubtotals {
		if coupon.VendorID != nil && *coupon.VendorID != vendorID {
			continue
		}
		eligible[vendorID] = subtotal
		eligibleTotal += subtotal
	}
	if len(eligible) == 0 || eligibleTotal <= 0 {
		return discounts
	}

	for vendorID, subtotal := range eligible {
		if coupon.MinPurchase != nil && subtotal < *coupon.MinPurchase {
			continue
		}

		var amount float64
		switch coupon.DiscountType {
		case entity.DiscountPercentage:
			amount = subtotal * coupon.DiscountValue / 100
			if coupon.MaxDiscount != nil && amount > *coupon.MaxDiscount {
				amount = *coupon.MaxDiscount
			}
		case entity.DiscountFixed:
			amount = subtotal / eligibleTotal * coupon.DiscountValue
		}

		if amount > subtotal {
			amount = subtotal
		}
		discounts[vendorID] = amount
	}
	return discounts
}
