package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal_NoCoupon(t *testing.T) {
	lines := []Line{{UnitPrice: 35000, Quantity: 2}}

	totals := ComputeTotal(lines, nil)
	assert.Equal(t, int64(70000), totals.Subtotal)
	assert.Equal(t, int64(0), totals.Discount)
	assert.Equal(t, int64(70000), totals.Total)
}

func TestComputeTotal_FixedDiscount(t *testing.T) {
	lines := []Line{{UnitPrice: 25000, Quantity: 2}}

	totals := ComputeTotal(lines, &Discount{Code: "FLAT10K", Type: DiscountTypeFixed, Value: 10000})
	assert.Equal(t, int64(50000), totals.Subtotal)
	assert.Equal(t, int64(10000), totals.Discount)
	assert.Equal(t, int64(40000), totals.Total)
}

func TestComputeTotal_PercentageCap(t *testing.T) {
	lines := []Line{{UnitPrice: 100000, Quantity: 1}}

	totals := ComputeTotal(lines, &Discount{
		Code:              "HALF",
		Type:              DiscountTypePercentage,
		Value:             50,
		MaxDiscountAmount: 2000,
	})
	assert.Equal(t, int64(2000), totals.Discount, "discount must be capped, not 50000")
	assert.Equal(t, int64(98000), totals.Total)
}

func TestComputeTotal_PercentageUncapped(t *testing.T) {
	lines := []Line{{UnitPrice: 10000, Quantity: 3}}

	totals := ComputeTotal(lines, &Discount{Code: "TEN", Type: DiscountTypePercentage, Value: 10})
	assert.Equal(t, int64(3000), totals.Discount)
	assert.Equal(t, int64(27000), totals.Total)
}

func TestComputeTotal_FixedExceedsSubtotal(t *testing.T) {
	lines := []Line{{UnitPrice: 5000, Quantity: 1}}

	// The discount amount is reported as-is; only the total is floored
	totals := ComputeTotal(lines, &Discount{Code: "BIG", Type: DiscountTypeFixed, Value: 8000})
	assert.Equal(t, int64(5000), totals.Subtotal)
	assert.Equal(t, int64(8000), totals.Discount)
	assert.Equal(t, int64(0), totals.Total)
}

func TestComputeTotal_EmptyCart(t *testing.T) {
	totals := ComputeTotal(nil, nil)
	assert.Equal(t, int64(0), totals.Subtotal)
	assert.Equal(t, int64(0), totals.Total)
}

func TestComputeTotal_TotalNonIncreasingInDiscountValue(t *testing.T) {
	lines := []Line{{UnitPrice: 12500, Quantity: 4}}

	prev := ComputeTotal(lines, nil).Total
	for value := int64(0); value <= 60000; value += 2500 {
		total := ComputeTotal(lines, &Discount{Type: DiscountTypeFixed, Value: value}).Total
		assert.LessOrEqual(t, total, prev)
		assert.GreaterOrEqual(t, total, int64(0))
		prev = total
	}
}

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{UnitPrice: 1500, Quantity: 3},
		{UnitPrice: 20000, Quantity: 1},
	}
	assert.Equal(t, int64(24500), Subtotal(lines))
}
