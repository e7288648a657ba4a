// internal/domain/order/service.go
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/cart"
	"github.com/plugng/commerce-backend/internal/domain/checkout"
	"github.com/plugng/commerce-backend/internal/domain/coupon"
	"github.com/plugng/commerce-backend/internal/domain/product"
	"github.com/plugng/commerce-backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	logger          *logrus.Logger
	cartService     *cart.Service
	checkoutService *checkout.Service
	couponService   *coupon.Service
	walletService   *wallet.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger,
	cartService *cart.Service, checkoutService *checkout.Service,
	couponService *coupon.Service, walletService *wallet.Service) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		db:              db,
		config:          cfg,
		logger:          logger,
		cartService:     cartService,
		checkoutService: checkoutService,
		couponService:   couponService,
		walletService:   walletService,
	}
}

// PlaceOrderRequest represents an order placement request
type PlaceOrderRequest struct {
	PaymentMethod   checkout.PaymentMethod `json:"payment_method" binding:"required"`
	Email           string                 `json:"email" binding:"required,email"`
	ShippingAddress Address                `json:"shipping_address" binding:"required"`
	Notes           string                 `json:"notes"`
}

// OrderListRequest represents order listing parameters
type OrderListRequest struct {
	Page   int         `form:"page,default=1"`
	Limit  int         `form:"limit,default=20"`
	Status OrderStatus `form:"status"`
}

// PlaceOrderResponse carries the created order plus, for card payments, the
// redirect handle the client follows to the provider.
type PlaceOrderResponse struct {
	Order           *Order `json:"order"`
	PaymentRedirect string `json:"payment_redirect,omitempty"`
}

// PlaceOrder converts the user's cart into an order.
//
// The flow mirrors the checkout phases: coupon validation and pricing come
// from the checkout summary, the payment gate decides whether submission may
// start, then the order, wallet debit, coupon usage bump and inventory
// decrement commit in one database transaction. The cart is cleared only
// after the transaction commits.
func (s *Service) PlaceOrder(userID uint, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	flow := checkout.NewFlow()

	if err := flow.Transition(checkout.StateValidatingCoupon); err != nil {
		return nil, err
	}
	if err := flow.Transition(checkout.StatePricing); err != nil {
		return nil, err
	}

	summary, err := s.checkoutService.GetSummary(userID, req.PaymentMethod)
	if err != nil {
		flow.Fail(err)
		return nil, err
	}

	if err := flow.Transition(checkout.StateGateCheck); err != nil {
		return nil, err
	}
	if !summary.CanProceed {
		err := fmt.Errorf("checkout blocked: %s", summary.BlockedReason)
		flow.Fail(err)
		return nil, err
	}

	if err := flow.Transition(checkout.StateSubmitting); err != nil {
		return nil, err
	}

	newOrder := &Order{
		UserID:          userID,
		Email:           req.Email,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		SubtotalAmount:  summary.Subtotal,
		PromoDiscount:   summary.PromoDiscount,
		DiscountAmount:  summary.Discount,
		TotalAmount:     summary.Total,
		PaymentMethod:   req.PaymentMethod,
		Currency:        s.config.App.Currency,
		CouponCode:      summary.CouponCode,
		Notes:           req.Notes,
		ShippingAddress: req.ShippingAddress,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newOrder).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		newOrder.OrderNumber = newOrder.GenerateOrderNumber()
		if err := tx.Model(newOrder).Update("order_number", newOrder.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}

		for _, item := range summary.Items {
			orderItem, err := s.buildOrderItem(tx, newOrder.ID, item)
			if err != nil {
				return err
			}
			if err := tx.Create(orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			if err := s.decrementInventory(tx, item); err != nil {
				return err
			}
		}

		switch req.PaymentMethod {
		case checkout.PaymentMethodWallet:
			_, err := s.walletService.Debit(tx, userID, newOrder.TotalAmount,
				newOrder.OrderNumber, "Order payment")
			if err != nil {
				return err
			}
			newOrder.PaymentStatus = PaymentStatusPaid
			newOrder.Status = OrderStatusConfirmed
			now := time.Now().UTC()
			newOrder.ProcessedAt = &now
		case checkout.PaymentMethodCard:
			// The client completes payment on the provider's page
			newOrder.PaymentRedirect = uuid.New().String()
			newOrder.Status = OrderStatusAwaitingCard
		}

		if err := tx.Model(newOrder).Updates(map[string]interface{}{
			"payment_status":   newOrder.PaymentStatus,
			"status":           newOrder.Status,
			"payment_redirect": newOrder.PaymentRedirect,
			"processed_at":     newOrder.ProcessedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order payment state: %w", err)
		}

		if newOrder.CouponCode != "" {
			if err := s.couponService.IncrementUsage(tx, newOrder.CouponCode); err != nil {
				return err
			}
		}

		history := &OrderStatusHistory{
			OrderID:   newOrder.ID,
			Status:    newOrder.Status,
			Comment:   "Order placed",
			CreatedBy: userID,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		flow.Fail(err)
		return nil, err
	}

	if err := flow.Transition(checkout.StateSuccess); err != nil {
		return nil, err
	}

	// Post-commit cleanup. Failures here are logged, the order stands.
	if err := s.cartService.ClearCart(&userID, ""); err != nil {
		s.logger.WithError(err).WithField("order", newOrder.OrderNumber).
			Warn("failed to clear cart after order placement")
	}
	s.checkoutService.RemoveCoupon(userID)

	return &PlaceOrderResponse{
		Order:           newOrder,
		PaymentRedirect: newOrder.PaymentRedirect,
	}, nil
}

// ConfirmCardPayment marks a card order paid once the provider callback
// arrives with the redirect handle.
func (s *Service) ConfirmCardPayment(redirectHandle string) (*Order, error) {
	var o Order
	result := s.db.Where("payment_redirect = ? AND status = ?", redirectHandle, OrderStatusAwaitingCard).First(&o)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("no pending card order for this payment")
	}
	if result.Error != nil {
		return nil, result.Error
	}

	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&o).Updates(map[string]interface{}{
			"payment_status": PaymentStatusPaid,
			"status":         OrderStatusConfirmed,
			"processed_at":   now,
		}).Error; err != nil {
			return err
		}
		history := &OrderStatusHistory{
			OrderID: o.ID,
			Status:  OrderStatusConfirmed,
			Comment: "Card payment confirmed",
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentStatusPaid
	o.Status = OrderStatusConfirmed
	o.ProcessedAt = &now
	return &o, nil
}

// GetOrders returns the user's orders, newest first
func (s *Service) GetOrders(userID uint, req *OrderListRequest) ([]Order, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(req.Limit).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

// GetOrder returns one of the user's orders by order number
func (s *Service) GetOrder(userID uint, orderNumber string) (*Order, error) {
	var o Order
	result := s.db.Preload("Items").Preload("StatusHistory").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).First(&o)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("order not found")
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &o, nil
}

// CancelOrder cancels an order, restocks its items and refunds wallet
// payments back to the wallet.
func (s *Service) CancelOrder(userID uint, orderNumber string) (*Order, error) {
	o, err := s.GetOrder(userID, orderNumber)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelled() {
		return nil, fmt.Errorf("order cannot be cancelled in status %s", o.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range o.Items {
			if err := s.restockItem(tx, item); err != nil {
				return err
			}
		}

		if o.PaymentMethod == checkout.PaymentMethodWallet && o.PaymentStatus == PaymentStatusPaid {
			if err := s.refundToWallet(tx, o); err != nil {
				return err
			}
		}

		if err := tx.Model(o).Updates(map[string]interface{}{
			"status":         OrderStatusCancelled,
			"payment_status": PaymentStatusCancelled,
		}).Error; err != nil {
			return err
		}

		history := &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    OrderStatusCancelled,
			Comment:   "Cancelled by customer",
			CreatedBy: userID,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}

	o.Status = OrderStatusCancelled
	o.PaymentStatus = PaymentStatusCancelled
	return o, nil
}

// UpdateOrderStatus changes the order status, admin operation
func (s *Service) UpdateOrderStatus(orderNumber string, status OrderStatus, comment string, adminID uint) (*Order, error) {
	var o Order
	result := s.db.Where("order_number = ?", orderNumber).First(&o)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("order not found")
	}
	if result.Error != nil {
		return nil, result.Error
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": status}
		if status == OrderStatusDelivered {
			now := time.Now().UTC()
			updates["delivered_at"] = now
		}
		if err := tx.Model(&o).Updates(updates).Error; err != nil {
			return err
		}
		history := &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    status,
			Comment:   comment,
			CreatedBy: adminID,
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}

	o.Status = status
	return &o, nil
}

// Private helper methods

func (s *Service) buildOrderItem(tx *gorm.DB, orderID uint, item cart.CartItemResponse) (*OrderItem, error) {
	if item.Product == nil {
		return nil, fmt.Errorf("cart item references missing product %d", item.ProductID)
	}

	orderItem := &OrderItem{
		OrderID:          orderID,
		ProductID:        item.ProductID,
		ProductVariantID: item.ProductVariantID,
		SKU:              item.Product.SKU,
		Name:             item.Product.Name,
		Quantity:         item.Quantity,
		Price:            item.Price,
		TotalPrice:       item.Price * int64(item.Quantity),
	}
	if item.ProductVariant != nil {
		orderItem.SKU = item.ProductVariant.SKU
		orderItem.VariantTitle = item.ProductVariant.Name
	}
	return orderItem, nil
}

func (s *Service) decrementInventory(tx *gorm.DB, item cart.CartItemResponse) error {
	if item.Product != nil && !item.Product.TrackQuantity {
		return nil
	}

	if item.ProductVariantID != nil {
		result := tx.Model(&product.ProductVariant{}).
			Where("id = ? AND quantity >= ?", *item.ProductVariantID, item.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("insufficient inventory for variant %d", *item.ProductVariantID)
		}
		return nil
	}

	result := tx.Model(&product.Product{}).
		Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("insufficient inventory for product %d", item.ProductID)
	}
	return nil
}

func (s *Service) restockItem(tx *gorm.DB, item OrderItem) error {
	if item.ProductVariantID != nil {
		return tx.Model(&product.ProductVariant{}).
			Where("id = ?", *item.ProductVariantID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
	}
	return tx.Model(&product.Product{}).
		Where("id = ?", item.ProductID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
}

func (s *Service) refundToWallet(tx *gorm.DB, o *Order) error {
	var w wallet.Wallet
	result := tx.Where("user_id = ?", o.UserID).First(&w)
	if result.Error != nil {
		return fmt.Errorf("failed to load wallet for refund: %w", result.Error)
	}

	w.Balance += o.TotalAmount
	if err := tx.Save(&w).Error; err != nil {
		return fmt.Errorf("failed to refund wallet: %w", err)
	}

	entry := &wallet.Transaction{
		WalletID:     w.ID,
		UserID:       o.UserID,
		Type:         wallet.TransactionTypeCredit,
		Amount:       o.TotalAmount,
		BalanceAfter: w.Balance,
		Reference:    o.OrderNumber,
		Description:  "Order cancellation refund",
	}
	return tx.Create(entry).Error
}
