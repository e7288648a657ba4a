// internal/domain/coupon/service.go
package coupon

import (
	"fmt"
	"time"

	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/pricing"
	"gorm.io/gorm"
)

// Service handles coupon business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code              string               `json:"code" binding:"required"`
	Description       string               `json:"description"`
	DiscountType      pricing.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     int64                `json:"discount_value" binding:"required,min=1"`
	MinOrderAmount    int64                `json:"min_order_amount"`
	MaxDiscountAmount int64                `json:"max_discount_amount"`
	UsageLimit        int                  `json:"usage_limit"`
	ExpiresAt         time.Time            `json:"expires_at" binding:"required"`
	IsActive          bool                 `json:"is_active"`
}

// Validate checks a coupon code against a cart subtotal and returns the
// discount descriptor when eligible.
//
// Checks run in order and fail fast: existence, active flag, expiry, usage
// limit, minimum order amount. Validation never mutates the usage count;
// that happens only on confirmed order placement, so speculative validation
// is side-effect-free and repeatable.
func (s *Service) Validate(code string, subtotal int64) (*pricing.Discount, error) {
	canonical := CanonicalCode(code)

	var c Coupon
	result := s.db.Where("code = ?", canonical).First(&c)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", result.Error)
	}

	if err := c.Eligibility(s.now(), subtotal); err != nil {
		return nil, err
	}

	return c.Discount(), nil
}

// IncrementUsage records one consumption of the coupon. Called inside the
// order placement transaction, never from Validate.
func (s *Service) IncrementUsage(tx *gorm.DB, code string) error {
	canonical := CanonicalCode(code)
	result := tx.Model(&Coupon{}).
		Where("code = ?", canonical).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))

	if result.Error != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCoupon creates a new coupon (operator action)
func (s *Service) CreateCoupon(req *CreateCouponRequest) (*Coupon, error) {
	canonical := CanonicalCode(req.Code)

	var existing Coupon
	if result := s.db.Where("code = ?", canonical).First(&existing); result.Error == nil {
		return nil, fmt.Errorf("coupon with code %s already exists", canonical)
	}

	if req.DiscountType == pricing.DiscountTypePercentage && req.DiscountValue > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}

	c := Coupon{
		Code:              canonical,
		Description:       req.Description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		ExpiresAt:         req.ExpiresAt,
		IsActive:          req.IsActive,
	}

	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return &c, nil
}

// GetCoupons lists all coupons (operator action)
func (s *Service) GetCoupons() ([]Coupon, error) {
	var coupons []Coupon
	if err := s.db.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve coupons: %w", err)
	}
	return coupons, nil
}

// GetCoupon retrieves a coupon by code
func (s *Service) GetCoupon(code string) (*Coupon, error) {
	var c Coupon
	result := s.db.Where("code = ?", CanonicalCode(code)).First(&c)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", result.Error)
	}
	return &c, nil
}

// DeactivateCoupon flips the active flag off (operator action)
func (s *Service) DeactivateCoupon(code string) error {
	result := s.db.Model(&Coupon{}).
		Where("code = ?", CanonicalCode(code)).
		Update("is_active", false)

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCoupon soft deletes a coupon (operator action)
func (s *Service) DeleteCoupon(code string) error {
	result := s.db.Where("code = ?", CanonicalCode(code)).Delete(&Coupon{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
