// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/domain/coupon"
	"gorm.io/gorm"
)

// CouponHandler handles coupon endpoints
type CouponHandler struct {
	couponService *coupon.Service
	config        *config.Config
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(db *gorm.DB, cfg *config.Config) *CouponHandler {
	return &CouponHandler{
		couponService: coupon.NewService(db, cfg),
		config:        cfg,
	}
}

// ValidateCoupon handles GET /coupons/validate/:code?amount=50000. It answers
// eligibility against the given order amount without applying anything.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	code := c.Param("code")
	amount, err := strconv.ParseInt(c.DefaultQuery("amount", "0"), 10, 64)
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order amount",
		})
		return
	}

	discount, err := h.couponService.Validate(code, amount)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, coupon.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"data":  discount,
	})
}

// --- ADMIN ENDPOINTS ---

// AdminGetCoupons handles GET /admin/coupons
func (h *CouponHandler) AdminGetCoupons(c *gin.Context) {
	coupons, err := h.couponService.GetCoupons()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve coupons",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupons retrieved successfully",
		"data":    coupons,
	})
}

// AdminGetCoupon handles GET /admin/coupons/:code
func (h *CouponHandler) AdminGetCoupon(c *gin.Context) {
	found, err := h.couponService.GetCoupon(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon retrieved successfully",
		"data":    found,
	})
}

// AdminCreateCoupon handles POST /admin/coupons
func (h *CouponHandler) AdminCreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.couponService.CreateCoupon(&req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon created successfully",
		"data":    created,
	})
}

// AdminDeactivateCoupon handles PUT /admin/coupons/:code/deactivate
func (h *CouponHandler) AdminDeactivateCoupon(c *gin.Context) {
	if err := h.couponService.DeactivateCoupon(c.Param("code")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deactivated successfully",
	})
}

// AdminDeleteCoupon handles DELETE /admin/coupons/:code
func (h *CouponHandler) AdminDeleteCoupon(c *gin.Context) {
	if err := h.couponService.DeleteCoupon(c.Param("code")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully",
	})
}
