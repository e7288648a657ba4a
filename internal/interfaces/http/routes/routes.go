// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/plugng/commerce-backend/internal/config"
	"github.com/plugng/commerce-backend/internal/interfaces/http/handlers"
	"github.com/plugng/commerce-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, redisClient, cfg)
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, redisClient, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(db, redisClient, cfg)
	couponHandler := handlers.NewCouponHandler(db, cfg)
	walletHandler := handlers.NewWalletHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)
	addressHandler := handlers.NewUserAddressHandler(db, cfg)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(middleware.AuthMiddleware(cfg))
	{
		authProtected.GET("/me", authHandler.GetCurrentUser)
		authProtected.GET("/validate", authHandler.ValidateToken)
		authProtected.GET("/profile", authHandler.GetProfile)
		authProtected.PUT("/profile", authHandler.UpdateProfile)
		authProtected.PUT("/password", authHandler.ChangePassword)
	}

	// Product catalog routes (public)
	products := api.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/categories", categoryHandler.GetCategories)
		products.GET("/categories/slug/:slug", categoryHandler.GetCategoryBySlug)
		products.GET("/categories/:id", categoryHandler.GetCategory)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("/:id/resolve-variant", productHandler.ResolveVariant)
	}

	// Cart routes. Optional auth: guests use the session cookie, logged-in
	// users their account cart.
	cart := api.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:product_id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:product_id", cartHandler.RemoveFromCart)
		cart.POST("/sync", cartHandler.SyncCart)
		cart.POST("/validate", cartHandler.ValidateCart)
	}

	// Coupon validation (public, side-effect free)
	api.GET("/coupons/validate/:code", couponHandler.ValidateCoupon)

	// Checkout routes (authenticated)
	checkout := api.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(cfg))
	{
		checkout.GET("/summary", checkoutHandler.GetSummary)
		checkout.GET("/payment-methods", checkoutHandler.GetPaymentMethods)
		checkout.POST("/coupon", checkoutHandler.ApplyCoupon)
		checkout.DELETE("/coupon", checkoutHandler.RemoveCoupon)
	}

	// Saved address routes (authenticated)
	addresses := api.Group("/users/addresses")
	addresses.Use(middleware.AuthMiddleware(cfg))
	{
		addresses.GET("", addressHandler.GetAddresses)
		addresses.POST("", addressHandler.CreateAddress)
		addresses.GET("/:id", addressHandler.GetAddress)
		addresses.PUT("/:id", addressHandler.UpdateAddress)
		addresses.DELETE("/:id", addressHandler.DeleteAddress)
		addresses.PUT("/:id/default", addressHandler.SetDefaultAddress)
	}

	// Wallet routes (authenticated)
	wallet := api.Group("/wallet")
	wallet.Use(middleware.AuthMiddleware(cfg))
	{
		wallet.GET("", walletHandler.GetWallet)
		wallet.POST("/top-up", walletHandler.TopUp)
		wallet.GET("/transactions", walletHandler.GetTransactions)
	}

	// Order routes (authenticated)
	orders := api.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("", orderHandler.GetOrders)
		orders.POST("/payments/confirm", orderHandler.ConfirmCardPayment)
		orders.GET("/:number", orderHandler.GetOrder)
		orders.POST("/:number/cancel", orderHandler.CancelOrder)
		orders.GET("/:number/receipt", orderHandler.GetReceipt)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/products", productHandler.AdminGetProducts)
		admin.POST("/products", productHandler.AdminCreateProduct)
		admin.PUT("/products/:id", productHandler.AdminUpdateProduct)
		admin.DELETE("/products/:id", productHandler.AdminDeleteProduct)
		admin.POST("/products/:id/variants", productHandler.AdminAddVariant)
		admin.PUT("/products/:id/inventory", productHandler.AdminUpdateInventory)

		admin.GET("/categories", categoryHandler.AdminGetCategories)
		admin.POST("/categories", categoryHandler.AdminCreateCategory)
		admin.PUT("/categories/:id", categoryHandler.AdminUpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.AdminDeleteCategory)

		admin.GET("/coupons", couponHandler.AdminGetCoupons)
		admin.POST("/coupons", couponHandler.AdminCreateCoupon)
		admin.GET("/coupons/:code", couponHandler.AdminGetCoupon)
		admin.PUT("/coupons/:code/deactivate", couponHandler.AdminDeactivateCoupon)
		admin.DELETE("/coupons/:code", couponHandler.AdminDeleteCoupon)

		admin.PUT("/orders/:number/status", orderHandler.AdminUpdateOrderStatus)
	}
}
