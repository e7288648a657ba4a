package coupon

import (
	"testing"
	"time"

	"github.com/plugng/commerce-backend/internal/domain/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCoupon() *Coupon {
	return &Coupon{
		Code:              "SAVE10",
		DiscountType:      pricing.DiscountTypePercentage,
		DiscountValue:     10,
		MinOrderAmount:    20000,
		MaxDiscountAmount: 15000,
		UsageLimit:        100,
		UsageCount:        5,
		ExpiresAt:         time.Now().Add(48 * time.Hour),
		IsActive:          true,
	}
}

func TestEligibility_Valid(t *testing.T) {
	c := validCoupon()
	require.NoError(t, c.Eligibility(time.Now(), 50000))
}

func TestEligibility_Inactive(t *testing.T) {
	c := validCoupon()
	c.IsActive = false
	assert.ErrorIs(t, c.Eligibility(time.Now(), 50000), ErrInactive)
}

func TestEligibility_ExpiredEvenIfActive(t *testing.T) {
	c := validCoupon()
	c.IsActive = true
	c.ExpiresAt = time.Now().Add(-time.Hour)
	assert.ErrorIs(t, c.Eligibility(time.Now(), 50000), ErrExpired)
}

func TestEligibility_LimitReached(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = 5
	c.UsageCount = 5
	assert.ErrorIs(t, c.Eligibility(time.Now(), 50000), ErrLimitReached)
}

func TestEligibility_ZeroLimitMeansUnlimited(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = 0
	c.UsageCount = 100000
	require.NoError(t, c.Eligibility(time.Now(), 50000))
}

func TestEligibility_BelowMinimum(t *testing.T) {
	c := validCoupon()
	c.MinOrderAmount = 20000
	assert.ErrorIs(t, c.Eligibility(time.Now(), 10000), ErrBelowMinimum)
}

func TestEligibility_CheckOrder(t *testing.T) {
	// Inactive and expired and below minimum: the inactive check fires first
	c := validCoupon()
	c.IsActive = false
	c.ExpiresAt = time.Now().Add(-time.Hour)
	assert.ErrorIs(t, c.Eligibility(time.Now(), 0), ErrInactive)

	// Expired and below minimum: expiry fires before the minimum check
	c = validCoupon()
	c.ExpiresAt = time.Now().Add(-time.Hour)
	assert.ErrorIs(t, c.Eligibility(time.Now(), 0), ErrExpired)
}

func TestDiscountDescriptor(t *testing.T) {
	c := validCoupon()
	d := c.Discount()
	assert.Equal(t, "SAVE10", d.Code)
	assert.Equal(t, pricing.DiscountTypePercentage, d.Type)
	assert.Equal(t, int64(10), d.Value)
	assert.Equal(t, int64(15000), d.MaxDiscountAmount)
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "SAVE10", CanonicalCode("  save10 "))
	assert.Equal(t, "FLAT500", CanonicalCode("Flat500"))
}

func TestScenarioB_FixedCouponAboveMinimum(t *testing.T) {
	c := &Coupon{
		Code:           "FLAT10K",
		DiscountType:   pricing.DiscountTypeFixed,
		DiscountValue:  10000,
		MinOrderAmount: 20000,
		ExpiresAt:      time.Now().Add(time.Hour),
		IsActive:       true,
	}

	require.NoError(t, c.Eligibility(time.Now(), 50000))
	totals := pricing.ComputeTotal([]pricing.Line{{UnitPrice: 50000, Quantity: 1}}, c.Discount())
	assert.Equal(t, int64(10000), totals.Discount)
	assert.Equal(t, int64(40000), totals.Total)
}

func TestScenarioC_BelowMinimumLeavesTotalUntouched(t *testing.T) {
	c := &Coupon{
		Code:           "FLAT10K",
		DiscountType:   pricing.DiscountTypeFixed,
		DiscountValue:  10000,
		MinOrderAmount: 20000,
		ExpiresAt:      time.Now().Add(time.Hour),
		IsActive:       true,
	}

	err := c.Eligibility(time.Now(), 10000)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	// No discount applied on rejection
	totals := pricing.ComputeTotal([]pricing.Line{{UnitPrice: 10000, Quantity: 1}}, nil)
	assert.Equal(t, int64(10000), totals.Total)
}
