// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/cart"
	"github.com/plugng/commerce-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CartHandler handles shopping cart endpoints
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cart.NewService(db, redisClient, cfg, logrus.StandardLogger()),
		config:      cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, sessionID := h.identity(c)

	cartResponse, err := h.cartService.GetCart(userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, sessionID := h.identity(c)

	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.AddToCart(userID, sessionID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// UpdateCartItem handles PUT /cart/items/:product_id. The body carries the
// absolute resulting quantity; zero removes the line.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, sessionID := h.identity(c)

	productID, variantID, ok := h.lineKeyParams(c)
	if !ok {
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.UpdateCartItem(userID, sessionID, productID, variantID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// RemoveFromCart handles DELETE /cart/items/:product_id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, sessionID := h.identity(c)

	productID, variantID, ok := h.lineKeyParams(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveFromCart(userID, sessionID, productID, variantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, sessionID := h.identity(c)

	if err := h.cartService.ClearCart(userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	userID, sessionID := h.identity(c)

	count, err := h.cartService.GetCartItemCount(userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart count",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": count,
		},
	})
}

// SyncCart handles POST /cart/sync. Authenticated only: merges the client's
// full local line list into the user cart and returns the authoritative cart.
func (h *CartHandler) SyncCart(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required for cart sync",
		})
		return
	}

	var req cart.SyncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.SyncCart(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart synced successfully",
		"data":    cartResponse,
	})
}

// ValidateCart handles POST /cart/validate. Re-checks every line against the
// live catalog and reports stock shortfalls and price drift before checkout.
func (h *CartHandler) ValidateCart(c *gin.Context) {
	userID, sessionID := h.identity(c)

	cartResponse, err := h.cartService.GetCart(userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	validationErrors := []string{}

	for _, item := range cartResponse.Items {
		if item.Product == nil {
			validationErrors = append(validationErrors, fmt.Sprintf("Product %d not found", item.ProductID))
			continue
		}

		if !item.Product.IsActive {
			validationErrors = append(validationErrors, fmt.Sprintf("Product '%s' is no longer available", item.Product.Name))
			continue
		}

		availableQuantity := item.Product.Quantity
		if item.ProductVariant != nil {
			availableQuantity = item.ProductVariant.Quantity
		}

		if item.Product.TrackQuantity && availableQuantity < item.Quantity {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Product '%s' has insufficient stock. Available: %d, Requested: %d",
					item.Product.Name, availableQuantity, item.Quantity))
		}

		currentPrice := item.Product.Price
		if item.ProductVariant != nil {
			currentPrice = item.ProductVariant.EffectivePrice(item.Product)
		}

		if item.Price != currentPrice {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Price for product '%s' has changed. Current: %d, Cart: %d",
					item.Product.Name, currentPrice, item.Price))
		}
	}

	if len(validationErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Cart validation failed",
			"validation_errors": validationErrors,
			"data":              cartResponse,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart validation successful",
		"data":    cartResponse,
	})
}

// identity resolves the authenticated user or the guest session, creating a
// session cookie for first-time guests.
func (h *CartHandler) identity(c *gin.Context) (*uint, string) {
	if userID, exists := middleware.GetUserIDFromContext(c); exists {
		return &userID, ""
	}

	sessionID, err := c.Cookie(h.config.Cart.SessionCookie)
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()
		maxAge := int(h.config.Cart.GuestTTL.Seconds())
		c.SetCookie(h.config.Cart.SessionCookie, sessionID, maxAge, "/", "", false, true)
	}
	return nil, sessionID
}

func (h *CartHandler) lineKeyParams(c *gin.Context) (uint, *uint, bool) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, nil, false
	}

	var variantID *uint
	if raw := c.Query("variant_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid variant ID",
			})
			return 0, nil, false
		}
		id := uint(parsed)
		variantID = &id
	}

	return uint(productID), variantID, true
}
