// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/cart"
	"github.com/plugng/commerce-backend/internal/domain/coupon"
	"github.com/plugng/commerce-backend/internal/domain/pricing"
	"github.com/plugng/commerce-backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// Service handles checkout business logic: summary assembly, coupon
// application and the payment gate.
type Service struct {
	db            *gorm.DB
	redisClient   *redis.Client
	config        *config.Config
	logger        *logrus.Logger
	cartService   *cart.Service
	couponService *coupon.Service
	walletService *wallet.Service
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger,
	cartService *cart.Service, couponService *coupon.Service, walletService *wallet.Service) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		db:            db,
		redisClient:   redisClient,
		config:        cfg,
		logger:        logger,
		cartService:   cartService,
		couponService: couponService,
		walletService: walletService,
	}
}

// ApplyCouponRequest represents a coupon application request
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// PaymentMethodInfo describes one available payment method
type PaymentMethodInfo struct {
	Method    PaymentMethod `json:"method"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Balance   *int64        `json:"balance,omitempty"`
}

// Summary is the priced checkout view for one payment method
type Summary struct {
	Items         []cart.CartItemResponse `json:"items"`
	PaymentMethod PaymentMethod           `json:"payment_method"`
	Subtotal      int64                   `json:"subtotal"`
	PromoDiscount int64                   `json:"promo_discount"` // Wallet-only product promos
	CouponCode    string                  `json:"coupon_code,omitempty"`
	CouponError   string                  `json:"coupon_error,omitempty"`
	Discount      int64                   `json:"discount"`
	Total         int64                   `json:"total"`
	CanProceed    bool                    `json:"can_proceed"`
	BlockedReason string                  `json:"blocked_reason,omitempty"`
}

// GetSummary assembles the priced checkout summary for the given payment
// method. A previously applied coupon that is no longer eligible is removed
// and reported, not treated as a hard failure.
func (s *Service) GetSummary(userID uint, method PaymentMethod) (*Summary, error) {
	if !method.Valid() {
		return nil, ErrUnknownPaymentMethod
	}

	cartResponse, err := s.cartService.GetCart(&userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartResponse.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	lines, promoDiscount := s.pricingLines(cartResponse.Items, method)
	subtotal := pricing.Subtotal(lines)

	summary := &Summary{
		Items:         cartResponse.Items,
		PaymentMethod: method,
		Subtotal:      subtotal,
		PromoDiscount: promoDiscount,
	}

	var discount *pricing.Discount
	if code := s.appliedCoupon(userID); code != "" {
		discount, err = s.couponService.Validate(code, subtotal)
		if err != nil {
			// Eligibility can lapse between apply and checkout. Drop the
			// coupon and surface the reason in the summary.
			s.RemoveCoupon(userID)
			summary.CouponError = err.Error()
			discount = nil
		} else {
			summary.CouponCode = discount.Code
		}
	}

	totals := pricing.ComputeTotal(lines, discount)
	summary.Discount = totals.Discount
	summary.Total = totals.Total

	balance, err := s.walletService.GetBalance(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet balance: %w", err)
	}
	if gateErr := CanProceed(summary.Total, method, balance); gateErr != nil {
		summary.BlockedReason = gateErr.Error()
	} else {
		summary.CanProceed = true
	}

	return summary, nil
}

// ApplyCoupon validates the code against the current cart subtotal and caches
// the applied code for the user.
func (s *Service) ApplyCoupon(userID uint, req *ApplyCouponRequest) (*pricing.Discount, error) {
	cartResponse, err := s.cartService.GetCart(&userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	discount, err := s.couponService.Validate(req.Code, cartResponse.Totals.SubTotal)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	key := s.appliedCouponKey(userID)
	if err := s.redisClient.Set(ctx, key, discount.Code, s.config.Cart.AppliedCouponTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store applied coupon: %w", err)
	}

	return discount, nil
}

// RemoveCoupon clears the applied coupon for the user
func (s *Service) RemoveCoupon(userID uint) {
	ctx := context.Background()
	if err := s.redisClient.Del(ctx, s.appliedCouponKey(userID)).Err(); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to remove applied coupon")
	}
}

// AppliedCoupon returns the currently applied coupon code, if any
func (s *Service) AppliedCoupon(userID uint) string {
	return s.appliedCoupon(userID)
}

// GetPaymentMethods lists the payment methods and their availability for the
// user's current checkout total.
func (s *Service) GetPaymentMethods(userID uint) ([]PaymentMethodInfo, error) {
	balance, err := s.walletService.GetBalance(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet balance: %w", err)
	}

	methods := []PaymentMethodInfo{
		{Method: PaymentMethodCard, Available: true},
	}

	walletInfo := PaymentMethodInfo{Method: PaymentMethodWallet, Balance: &balance}
	summary, err := s.GetSummary(userID, PaymentMethodWallet)
	if err != nil {
		walletInfo.Reason = "cart unavailable"
	} else if summary.CanProceed {
		walletInfo.Available = true
	} else {
		walletInfo.Reason = summary.BlockedReason
	}
	methods = append(methods, walletInfo)

	return methods, nil
}

// pricingLines converts cart items to pricing lines. Wallet payments honor
// per-line wallet promos captured at add time: the unit price drops by the
// promo percent while the promo window is open.
func (s *Service) pricingLines(items []cart.CartItemResponse, method PaymentMethod) ([]pricing.Line, int64) {
	now := time.Now().UTC()
	lines := make([]pricing.Line, 0, len(items))
	var promoDiscount int64

	for _, item := range items {
		unitPrice := item.Price
		if method == PaymentMethodWallet && item.WalletPromo.Active(now) {
			discounted := unitPrice - unitPrice*item.WalletPromo.Percent/100
			promoDiscount += (unitPrice - discounted) * int64(item.Quantity)
			unitPrice = discounted
		}
		lines = append(lines, pricing.Line{UnitPrice: unitPrice, Quantity: item.Quantity})
	}

	return lines, promoDiscount
}

func (s *Service) appliedCouponKey(userID uint) string {
	return fmt.Sprintf("applied_coupon:%d", userID)
}

func (s *Service) appliedCoupon(userID uint) string {
	ctx := context.Background()
	code, err := s.redisClient.Get(ctx, s.appliedCouponKey(userID)).Result()
	if err == redis.Nil {
		return ""
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to read applied coupon")
		return ""
	}
	return code
}
