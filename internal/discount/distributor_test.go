package discount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/discount"
	"marketplace-backend/internal/entity"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func percentCoupon(value float64) *entity.Coupon {
	return &entity.Coupon{
		Code:          "SAVE",
		DiscountType:  entity.DiscountPercentage,
		DiscountValue: value,
		Active:        true,
	}
}

func fixedCoupon(value float64) *entity.Coupon {
	return &entity.Coupon{
		Code:          "FLAT",
		DiscountType:  entity.DiscountFixed,
		DiscountValue: value,
		Active:        true,
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestDistribute_PercentageMarketplaceWide(t *testing.T) {
	// The 2-vendor worked example: A has 2 x $10, B has 1 x $30, 10% off.
	subtotals := map[int]float64{1: 20, 2: 30}

	discounts := discount.Distribute(percentCoupon(10), subtotals, now)

	assert.InDelta(t, 2.00, discounts[1], 1e-9)
	assert.InDelta(t, 3.00, discounts[2], 1e-9)
}

func TestDistribute_PercentageMaxDiscountCapsPerVendor(t *testing.T) {
	coupon := percentCoupon(50)
	coupon.MaxDiscount = floatPtr(5)
	subtotals := map[int]float64{1: 100, 2: 8}

	discounts := discount.Distribute(coupon, subtotals, now)

	assert.InDelta(t, 5.0, discounts[1], 1e-9)
	assert.InDelta(t, 4.0, discounts[2], 1e-9)
}

func TestDistribute_FixedSplitsProportionally(t *testing.T) {
	subtotals := map[int]float64{1: 20, 2: 30}

	discounts := discount.Distribute(fixedCoupon(10), subtotals, now)

	assert.InDelta(t, 4.0, discounts[1], 1e-9)
	assert.InDelta(t, 6.0, discounts[2], 1e-9)

	var sum float64
	for _, d := range discounts {
		sum += d
	}
	assert.InDelta(t, 10.0, sum, 1e-9)
}

func TestDistribute_FixedNeverExceedsFaceValue(t *testing.T) {
	coupon := fixedCoupon(10)
	coupon.MinPurchase = floatPtr(25)
	subtotals := map[int]float64{1: 20, 2: 30}

	discounts := discount.Distribute(coupon, subtotals, now)

	// Vendor 1 misses minPurchase so its share is forced to zero; the sum
	// falls short of the face value but never exceeds it.
	assert.Zero(t, discounts[1])
	assert.InDelta(t, 6.0, discounts[2], 1e-9)

	var sum float64
	for _, d := range discounts {
		sum += d
	}
	assert.LessOrEqual(t, sum, 10.0)
}

func TestDistribute_VendorScopedCoupon(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.VendorID = intPtr(2)
	subtotals := map[int]float64{1: 100, 2: 50}

	discounts := discount.Distribute(coupon, subtotals, now)

	assert.Zero(t, discounts[1])
	assert.InDelta(t, 5.0, discounts[2], 1e-9)
}

func TestDistribute_MinPurchasePerVendorNotCheckoutTotal(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.MinPurchase = floatPtr(50)
	// Checkout total is 70 but neither vendor alone reaches 50... except vendor 2.
	subtotals := map[int]float64{1: 10, 2: 60}

	discounts := discount.Distribute(coupon, subtotals, now)

	assert.Zero(t, discounts[1])
	assert.InDelta(t, 6.0, discounts[2], 1e-9)
}

func TestDistribute_StaleCouponDegradesToZero(t *testing.T) {
	subtotals := map[int]float64{1: 100}

	cases := map[string]*entity.Coupon{
		"inactive": {DiscountType: entity.DiscountPercentage, DiscountValue: 10, Active: false},
		"expired": {DiscountType: entity.DiscountPercentage, DiscountValue: 10, Active: true,
			ExpiresAt: timePtr(now.Add(-time.Hour))},
		"not started": {DiscountType: entity.DiscountPercentage, DiscountValue: 10, Active: true,
			StartsAt: timePtr(now.Add(time.Hour))},
		"exhausted": {DiscountType: entity.DiscountPercentage, DiscountValue: 10, Active: true,
			UsageLimit: 5, UsedCount: 5},
		"nil": nil,
	}

	for name, coupon := range cases {
		t.Run(name, func(t *testing.T) {
			discounts := discount.Distribute(coupon, subtotals, now)
			require.Len(t, discounts, 1)
			assert.Zero(t, discounts[1])
		})
	}
}

func TestDistribute_DiscountNeverExceedsSubtotal(t *testing.T) {
	discounts := discount.Distribute(fixedCoupon(500), map[int]float64{1: 20}, now)
	assert.InDelta(t, 20.0, discounts[1], 1e-9)
}

func timePtr(t time.Time) *time.Time { return &t }
