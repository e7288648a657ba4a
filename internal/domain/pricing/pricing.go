// internal/domain/pricing/pricing.go
package pricing

// DiscountType identifies how a discount descriptor is applied
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Discount is the validated, applicable terms of a coupon
type Discount struct {
	Code              string       `json:"code"`
	Type              DiscountType `json:"type"`
	Value             int64        `json:"value"`
	MaxDiscountAmount int64        `json:"max_discount_amount,omitempty"` // 0 = no cap
}

// Line is one priced row: a captured unit price and a quantity
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Totals is the derived checkout total. All amounts are whole currency units.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// Subtotal sums unit price times quantity over all lines
func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	return subtotal
}

// ComputeTotal computes subtotal, discount and final total for the given
// lines and optional discount descriptor.
//
// Percentage discounts are capped at MaxDiscountAmount when set. Fixed
// discounts are applied as-is: the discount amount is not clamped to the
// subtotal, only the final total is floored at zero.
func ComputeTotal(lines []Line, discount *Discount) Totals {
	totals := Totals{Subtotal: Subtotal(lines)}

	if discount != nil {
		switch discount.Type {
		case DiscountTypePercentage:
			raw := totals.Subtotal * discount.Value / 100
			if discount.MaxDiscountAmount > 0 && raw > discount.MaxDiscountAmount {
				raw = discount.MaxDiscountAmount
			}
			totals.Discount = raw
		case DiscountTypeFixed:
			totals.Discount = discount.Value
		}
	}

	totals.Total = totals.Subtotal - totals.Discount
	if totals.Total < 0 {
		totals.Total = 0
	}

	return totals
}
