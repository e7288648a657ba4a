// internal/interfaces/http/handlers/wallet.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/wallet"
	"github.com/plugng/commerce-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// WalletHandler handles wallet endpoints
type WalletHandler struct {
	walletService *wallet.Service
	config        *config.Config
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(db *gorm.DB, cfg *config.Config) *WalletHandler {
	return &WalletHandler{
		walletService: wallet.NewService(db, cfg),
		config:        cfg,
	}
}

// GetWallet handles GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	w, err := h.walletService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve wallet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wallet retrieved successfully",
		"data":    w,
	})
}

// TopUp handles POST /wallet/top-up
func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	var req wallet.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	w, err := h.walletService.Credit(userID, req.Amount, req.Reference, "Wallet top-up")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wallet topped up successfully",
		"data":    w,
	})
}

// GetTransactions handles GET /wallet/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	var req wallet.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	entries, total, err := h.walletService.GetTransactions(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve wallet transactions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wallet transactions retrieved successfully",
		"data":    entries,
		"total":   total,
	})
}
