// internal/domain/coupon/entity.go
package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/plugng/commerce-backend/internal/domain/pricing"
	"gorm.io/gorm"
)

// Rejection reasons, checked in order. The first violated check wins.
var (
	ErrNotFound     = errors.New("coupon not found")
	ErrInactive     = errors.New("coupon is not active")
	ErrExpired      = errors.New("coupon has expired")
	ErrLimitReached = errors.New("coupon usage limit reached")
	ErrBelowMinimum = errors.New("order amount below coupon minimum")
)

// Coupon represents an operator-created promotion code
type Coupon struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	Code              string               `gorm:"uniqueIndex;not null;size:50" json:"code"` // Canonical upper-case
	Description       string               `gorm:"size:255" json:"description"`
	DiscountType      pricing.DiscountType `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue     int64                `gorm:"not null" json:"discount_value"`        // Percent for percentage type, amount for fixed
	MinOrderAmount    int64                `gorm:"default:0" json:"min_order_amount"`     // 0 = no minimum
	MaxDiscountAmount int64                `gorm:"default:0" json:"max_discount_amount"`  // Cap for percentage type, 0 = no cap
	UsageLimit        int                  `gorm:"default:0" json:"usage_limit"`          // 0 = unlimited
	UsageCount        int                  `gorm:"default:0" json:"usage_count"`
	ExpiresAt         time.Time            `gorm:"not null" json:"expires_at"`
	IsActive          bool                 `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	DeletedAt         gorm.DeletedAt       `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}

// CanonicalCode upper-cases and trims a user-entered coupon code
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Eligibility runs the ordered eligibility checks against a cart subtotal.
// Expiry is honored regardless of the active flag. Returns nil when the
// coupon may be applied.
func (c *Coupon) Eligibility(now time.Time, subtotal int64) error {
	if !c.IsActive {
		return ErrInactive
	}
	if !now.Before(c.ExpiresAt) {
		return ErrExpired
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ErrLimitReached
	}
	if subtotal < c.MinOrderAmount {
		return ErrBelowMinimum
	}
	return nil
}

// Discount returns the discount descriptor for total computation
func (c *Coupon) Discount() *pricing.Discount {
	return &pricing.Discount{
		Code:              c.Code,
		Type:              c.DiscountType,
		Value:             c.DiscountValue,
		MaxDiscountAmount: c.MaxDiscountAmount,
	}
}

// IsExhausted reports whether the usage limit has been consumed
func (c *Coupon) IsExhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}
