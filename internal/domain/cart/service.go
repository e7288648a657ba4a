// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/product"
	"gorm.io/gorm"
)

// guestCartKeyPrefix matches the device-side storage key for anonymous carts
const guestCartKeyPrefix = "plugng_cart"

// Service handles cart business logic for both backing modes: anonymous
// session carts live in Redis, authenticated carts in Postgres.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger

	// One reconciler per in-progress anonymous->authenticated transition,
	// so the single-flight guard is scoped to the transition.
	reconcilers sync.Map // sessionID -> *Reconciler
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}
}

// CartItemResponse represents a cart line with product details
type CartItemResponse struct {
	ProductID        uint                    `json:"product_id"`
	ProductVariantID *uint                   `json:"product_variant_id,omitempty"`
	Quantity         int                     `json:"quantity"`
	Price            int64                   `json:"price"`
	SelectedOptions  product.OptionMap       `json:"selected_options,omitempty"`
	WalletPromo      *WalletPromo            `json:"wallet_promo,omitempty"`
	Product          *product.Product        `json:"product,omitempty"`
	ProductVariant   *product.ProductVariant `json:"product_variant,omitempty"`
	AddedAt          time.Time               `json:"added_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	UserID    *uint              `json:"user_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotals         `json:"totals"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request. When the product declares
// variants and no variant id is given, the selection is resolved through the
// variant resolver.
type AddToCartRequest struct {
	ProductID        uint              `json:"product_id" binding:"required"`
	ProductVariantID *uint             `json:"product_variant_id"`
	Quantity         int               `json:"quantity" binding:"required,min=1"`
	SelectedOptions  map[string]string `json:"selected_options"`
}

// UpdateCartItemRequest carries the absolute resulting quantity for a line.
// Zero removes the line. Absolute quantities keep remote mirroring idempotent.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// SyncCartRequest carries the full local line list for reconciliation
type SyncCartRequest struct {
	Items []Line `json:"items" binding:"required"`
}

// GetCart retrieves cart for user or session. Lines referencing deleted
// products are dropped from the result.
func (s *Service) GetCart(userID *uint, sessionID string) (*CartResponse, error) {
	lines, updatedAt, err := s.loadLines(userID, sessionID)
	if err != nil {
		return nil, err
	}

	items := s.loadProductDetails(lines)

	return &CartResponse{
		SessionID: sessionID,
		UserID:    userID,
		Items:     items,
		Totals:    totalsOfResponses(items),
		UpdatedAt: updatedAt,
	}, nil
}

// AddToCart adds an item to the cart, resolving the variant from the option
// selection when necessary and capturing the current price.
func (s *Service) AddToCart(userID *uint, sessionID string, req *AddToCartRequest) (*CartResponse, error) {
	prod, variant, err := s.resolveLineTarget(req)
	if err != nil {
		return nil, err
	}

	availableQuantity := prod.Quantity
	if variant != nil {
		availableQuantity = variant.Quantity
	}
	if prod.TrackQuantity && availableQuantity < req.Quantity {
		return nil, fmt.Errorf("insufficient inventory. Available: %d", availableQuantity)
	}

	itemPrice := prod.Price
	var variantID *uint
	if variant != nil {
		itemPrice = variant.EffectivePrice(prod)
		variantID = &variant.ID
	}

	line := Line{
		ProductID:       prod.ID,
		VariantID:       variantID,
		Quantity:        req.Quantity,
		Price:           itemPrice,
		SelectedOptions: product.OptionMap(req.SelectedOptions),
		AddedAt:         time.Now().UTC(),
	}
	if prod.WalletDiscountActive(time.Now().UTC()) {
		line.WalletPromo = &WalletPromo{
			Percent: prod.WalletDiscountPercent,
			EndsAt:  *prod.WalletDiscountEndsAt,
		}
	}

	if userID != nil {
		err = s.addToUserCart(*userID, line, availableQuantity, prod.TrackQuantity)
	} else {
		err = s.addToGuestCart(sessionID, line, availableQuantity, prod.TrackQuantity)
	}
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID, sessionID)
}

// UpdateCartItem sets the absolute quantity of a cart line. Zero removes it.
func (s *Service) UpdateCartItem(userID *uint, sessionID string, productID uint, variantID *uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	if req.Quantity > 0 {
		var prod product.Product
		s.db.Where("id = ?", productID).First(&prod)

		availableQuantity := prod.Quantity
		if variantID != nil {
			var variant product.ProductVariant
			s.db.Where("id = ?", *variantID).First(&variant)
			availableQuantity = variant.Quantity
		}

		if prod.TrackQuantity && availableQuantity < req.Quantity {
			return nil, fmt.Errorf("insufficient inventory. Available: %d", availableQuantity)
		}
	}

	var err error
	if userID != nil {
		err = s.updateUserCartItem(*userID, productID, variantID, req.Quantity)
	} else {
		err = s.updateGuestCartItem(sessionID, productID, variantID, req.Quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.GetCart(userID, sessionID)
}

// RemoveFromCart removes an item from the cart
func (s *Service) RemoveFromCart(userID *uint, sessionID string, productID uint, variantID *uint) (*CartResponse, error) {
	return s.UpdateCartItem(userID, sessionID, productID, variantID, &UpdateCartItemRequest{Quantity: 0})
}

// ClearCart removes all items from the cart
func (s *Service) ClearCart(userID *uint, sessionID string) error {
	if userID != nil {
		return s.db.Where("user_id = ?", *userID).Delete(&CartItem{}).Error
	}
	ctx := context.Background()
	return s.redisClient.Del(ctx, s.guestCartKey(sessionID)).Err()
}

// GetCartItemCount returns the total quantity across all cart lines
func (s *Service) GetCartItemCount(userID *uint, sessionID string) (int, error) {
	cartResponse, err := s.GetCart(userID, sessionID)
	if err != nil {
		return 0, nil // Treat a missing cart as empty
	}

	totalItems := 0
	for _, item := range cartResponse.Items {
		totalItems += item.Quantity
	}
	return totalItems, nil
}

// SyncCart merges a full local line list into the user's remote cart with the
// same dedup-by-key semantics as AddToCart and returns the authoritative
// cart. This backs POST /cart/sync for reconciliation.
func (s *Service) SyncCart(userID uint, req *SyncCartRequest) (*CartResponse, error) {
	for _, line := range req.Items {
		if line.Quantity < 1 {
			continue
		}
		// Skip lines whose product no longer exists: data cleanup, not an error
		if !s.productExists(line.ProductID) {
			s.logger.WithField("product_id", line.ProductID).
				Debug("dropping synced cart line for deleted product")
			continue
		}
		if err := s.mergeIntoUserCart(userID, line); err != nil {
			return nil, fmt.Errorf("failed to sync cart line: %w", err)
		}
	}

	return s.GetCart(&userID, "")
}

// MergeGuestCartToUser reconciles the anonymous session cart into the user
// cart exactly once on login. The guest cart is discarded unconditionally,
// even when the merge fails partway, so a retried login never double-applies
// guest lines.
func (s *Service) MergeGuestCartToUser(userID uint, sessionID string) error {
	guestCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return err
	}

	local := NewStore(guestCart.Items, s.guestMirror(sessionID), s.logger)

	value, _ := s.reconcilers.LoadOrStore(sessionID, NewReconciler(
		local,
		func(ctx context.Context) ([]Line, error) {
			return s.userCartLines(userID)
		},
		func(ctx context.Context, lines []Line) ([]Line, error) {
			for _, line := range lines {
				if !s.productExists(line.ProductID) {
					continue
				}
				if err := s.mergeIntoUserCart(userID, line); err != nil {
					return nil, err
				}
			}
			return s.userCartLines(userID)
		},
		s.productExists,
		s.logger,
	))
	reconciler := value.(*Reconciler)

	_, err = reconciler.Reconcile(context.Background())
	if err == ErrReconcileInFlight {
		return nil // A concurrent trigger is already doing the work
	}

	// The transition is over either way; drop the guard instance and make
	// sure the session cart key is gone.
	s.reconcilers.Delete(sessionID)
	if clearErr := s.ClearCart(nil, sessionID); clearErr != nil {
		s.logger.WithError(clearErr).Warn("failed to clear guest cart after reconciliation")
	}

	return err
}

// Private helper methods

func (s *Service) resolveLineTarget(req *AddToCartRequest) (*product.Product, *product.ProductVariant, error) {
	var prod product.Product
	result := s.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
	}).Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("product not found or inactive")
	}

	// Explicit variant id wins
	if req.ProductVariantID != nil {
		for i := range prod.Variants {
			if prod.Variants[i].ID == *req.ProductVariantID {
				return &prod, &prod.Variants[i], nil
			}
		}
		return nil, nil, fmt.Errorf("product variant not found or inactive")
	}

	// Resolve from the option selection; products without variants sell as-is
	variant := product.ResolveVariant(&prod, req.SelectedOptions)
	return &prod, variant, nil
}

// userLineQuery scopes a query to one (user, product, variant) line key.
// A nil variant needs IS NULL, a bound parameter would never match.
func (s *Service) userLineQuery(userID, productID uint, variantID *uint) *gorm.DB {
	query := s.db.Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		return query.Where("product_variant_id IS NULL")
	}
	return query.Where("product_variant_id = ?", *variantID)
}

func (s *Service) addToUserCart(userID uint, line Line, availableQuantity int, trackQuantity bool) error {
	var existingItem CartItem
	result := s.userLineQuery(userID, line.ProductID, line.VariantID).First(&existingItem)

	if result.Error == gorm.ErrRecordNotFound {
		return s.db.Create(s.newCartItem(&userID, line)).Error
	}

	newQuantity := existingItem.Quantity + line.Quantity
	if trackQuantity && availableQuantity < newQuantity {
		return fmt.Errorf("insufficient inventory for total quantity. Available: %d", availableQuantity)
	}

	existingItem.Quantity = newQuantity
	existingItem.Price = line.Price // Refresh in case the price changed
	return s.db.Save(&existingItem).Error
}

// mergeIntoUserCart applies dedup-by-key add semantics without inventory
// checks; reconciliation keeps whatever quantities the shopper accumulated.
func (s *Service) mergeIntoUserCart(userID uint, line Line) error {
	var existingItem CartItem
	result := s.userLineQuery(userID, line.ProductID, line.VariantID).First(&existingItem)

	if result.Error == gorm.ErrRecordNotFound {
		return s.db.Create(s.newCartItem(&userID, line)).Error
	}

	existingItem.Quantity += line.Quantity
	existingItem.Price = line.Price
	return s.db.Save(&existingItem).Error
}

func (s *Service) newCartItem(userID *uint, line Line) *CartItem {
	item := &CartItem{
		UserID:           userID,
		ProductID:        line.ProductID,
		ProductVariantID: line.VariantID,
		Quantity:         line.Quantity,
		Price:            line.Price,
		SelectedOptions:  line.SelectedOptions,
	}
	if line.WalletPromo != nil {
		item.WalletDiscountPercent = line.WalletPromo.Percent
		endsAt := line.WalletPromo.EndsAt
		item.WalletDiscountEndsAt = &endsAt
	}
	return item
}

func (s *Service) addToGuestCart(sessionID string, line Line, availableQuantity int, trackQuantity bool) error {
	sessionCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return err
	}

	key := line.Key()
	for i := range sessionCart.Items {
		if sessionCart.Items[i].Key() == key {
			newQuantity := sessionCart.Items[i].Quantity + line.Quantity
			if trackQuantity && availableQuantity < newQuantity {
				return fmt.Errorf("insufficient inventory for total quantity. Available: %d", availableQuantity)
			}
		}
	}

	sessionCart.Items = MergeLine(sessionCart.Items, line)
	sessionCart.UpdatedAt = time.Now().UTC()
	return s.saveGuestCart(sessionID, sessionCart)
}

func (s *Service) updateUserCartItem(userID, productID uint, variantID *uint, quantity int) error {
	if quantity == 0 {
		return s.userLineQuery(userID, productID, variantID).Delete(&CartItem{}).Error
	}
	return s.userLineQuery(userID, productID, variantID).Model(&CartItem{}).
		Update("quantity", quantity).Error
}

func (s *Service) updateGuestCartItem(sessionID string, productID uint, variantID *uint, quantity int) error {
	sessionCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return err
	}

	key := KeyOf(productID, variantID)
	itemFound := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].Key() == key {
			if quantity == 0 {
				sessionCart.Items = append(sessionCart.Items[:i], sessionCart.Items[i+1:]...)
			} else {
				sessionCart.Items[i].Quantity = quantity
			}
			itemFound = true
			break
		}
	}

	if !itemFound {
		if quantity == 0 {
			return nil // Removing an absent line is a no-op
		}
		return fmt.Errorf("item not found in cart")
	}

	sessionCart.UpdatedAt = time.Now().UTC()
	return s.saveGuestCart(sessionID, sessionCart)
}

func (s *Service) guestCartKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", guestCartKeyPrefix, sessionID)
}

func (s *Service) getGuestCart(sessionID string) (*SessionCart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for guest cart")
	}

	ctx := context.Background()
	ttl := s.config.Cart.GuestTTL

	cartData, err := s.redisClient.Get(ctx, s.guestCartKey(sessionID)).Result()
	if err == redis.Nil {
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []Line{},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(ttl),
		}, nil
	} else if err != nil {
		return nil, err
	}

	var sessionCart SessionCart
	if err := json.Unmarshal([]byte(cartData), &sessionCart); err != nil {
		return nil, err
	}
	return &sessionCart, nil
}

func (s *Service) saveGuestCart(sessionID string, sessionCart *SessionCart) error {
	ctx := context.Background()
	cartData, err := json.Marshal(sessionCart)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, s.guestCartKey(sessionID), cartData, s.config.Cart.GuestTTL).Err()
}

// guestMirror adapts the Redis session cart into the store's mirror contract
func (s *Service) guestMirror(sessionID string) Mirror {
	return &sessionMirror{service: s, sessionID: sessionID}
}

type sessionMirror struct {
	service   *Service
	sessionID string
}

func (m *sessionMirror) Upsert(ctx context.Context, line Line) error {
	sessionCart, err := m.service.getGuestCart(m.sessionID)
	if err != nil {
		return err
	}
	key := line.Key()
	found := false
	for i := range sessionCart.Items {
		if sessionCart.Items[i].Key() == key {
			sessionCart.Items[i] = line
			found = true
			break
		}
	}
	if !found {
		sessionCart.Items = append(sessionCart.Items, line)
	}
	sessionCart.UpdatedAt = time.Now().UTC()
	return m.service.saveGuestCart(m.sessionID, sessionCart)
}

func (m *sessionMirror) Remove(ctx context.Context, key LineKey) error {
	sessionCart, err := m.service.getGuestCart(m.sessionID)
	if err != nil {
		return err
	}
	for i := range sessionCart.Items {
		if sessionCart.Items[i].Key() == key {
			sessionCart.Items = append(sessionCart.Items[:i], sessionCart.Items[i+1:]...)
			break
		}
	}
	sessionCart.UpdatedAt = time.Now().UTC()
	return m.service.saveGuestCart(m.sessionID, sessionCart)
}

func (m *sessionMirror) Clear(ctx context.Context) error {
	return m.service.redisClient.Del(ctx, m.service.guestCartKey(m.sessionID)).Err()
}

func (s *Service) userCartLines(userID uint) ([]Line, error) {
	var dbItems []CartItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&dbItems).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	lines := make([]Line, len(dbItems))
	for i := range dbItems {
		lines[i] = dbItems[i].Line()
	}
	return lines, nil
}

func (s *Service) loadLines(userID *uint, sessionID string) ([]Line, time.Time, error) {
	if userID != nil {
		lines, err := s.userCartLines(*userID)
		if err != nil {
			return nil, time.Time{}, err
		}
		return lines, time.Now().UTC(), nil
	}

	sessionCart, err := s.getGuestCart(sessionID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return sessionCart.Items, sessionCart.UpdatedAt, nil
}

func (s *Service) productExists(productID uint) bool {
	var count int64
	s.db.Model(&product.Product{}).Where("id = ?", productID).Count(&count)
	return count > 0
}

// loadProductDetails attaches product and variant records, silently dropping
// lines whose product was deleted.
func (s *Service) loadProductDetails(lines []Line) []CartItemResponse {
	items := make([]CartItemResponse, 0, len(lines))
	for _, line := range lines {
		var prod product.Product
		err := s.db.Preload("Category").Preload("Brand").
			Where("id = ?", line.ProductID).First(&prod).Error
		if err != nil {
			continue // Stale reference, drop the line
		}

		item := CartItemResponse{
			ProductID:        line.ProductID,
			ProductVariantID: line.VariantID,
			Quantity:         line.Quantity,
			Price:            line.Price,
			SelectedOptions:  line.SelectedOptions,
			WalletPromo:      line.WalletPromo,
			Product:          &prod,
			AddedAt:          line.AddedAt,
		}

		if line.VariantID != nil {
			var variant product.ProductVariant
			if err := s.db.Where("id = ?", *line.VariantID).First(&variant).Error; err == nil {
				item.ProductVariant = &variant
			}
		}

		items = append(items, item)
	}
	return items
}

func totalsOfResponses(items []CartItemResponse) CartTotals {
	totals := CartTotals{ItemCount: len(items)}
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Price * int64(item.Quantity)
	}
	return totals
}
