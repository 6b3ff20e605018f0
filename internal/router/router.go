package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tokopangan/checkout-backend/config"
	"github.com/tokopangan/checkout-backend/internal/app/controller"
	"github.com/tokopangan/checkout-backend/internal/app/model"
	apperrors "github.com/tokopangan/checkout-backend/internal/errors"
	"github.com/tokopangan/checkout-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	checkoutController *controller.CheckoutController
	shippingController *controller.ShippingController
	orderController    *controller.OrderController
	paymentController  *controller.PaymentController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	shippingController *controller.ShippingController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		checkoutController: checkoutController,
		shippingController: shippingController,
		orderController:    orderController,
		paymentController:  paymentController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)
	apperrors.RegisterFieldNames()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Checkout API is running",
		})
	})

	authLimiter := middleware.NewRateLimiter(r.config.RateLimit.AuthRPS, r.config.RateLimit.AuthBurst)
	webhookLimiter := middleware.NewRateLimiter(r.config.RateLimit.WebhookRPS, r.config.RateLimit.WebhookBurst)
	authenticate := r.authMiddleware.Authenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authLimiter.Middleware(), r.authController.Register)
			auth.POST("/login", authLimiter.Middleware(), r.authController.Login)
			auth.POST("/logout", authenticate, r.authController.Logout)
			auth.GET("/me", authenticate, r.authController.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
		}

		admin := v1.Group("/admin")
		admin.Use(authenticate, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/products", r.productController.CreateProduct)
			admin.POST("/products/image-upload-url", r.productController.RequestImageUpload)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)
		}

		cart := v1.Group("/cart")
		cart.Use(authenticate)
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.PUT("/items/:productId", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:productId", r.cartController.RemoveFromCart)
			cart.DELETE("", r.cartController.ClearCart)
		}

		v1.POST("/checkout", authenticate, r.checkoutController.Checkout)

		shipping := v1.Group("/shipping")
		{
			shipping.GET("/options", r.shippingController.GetOptions)
			shipping.GET("/destinations", r.shippingController.SearchDestinations)
		}

		orders := v1.Group("/orders")
		orders.Use(authenticate)
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.GET("/:id/payments", r.orderController.GetPaymentLogs)
			orders.POST("/:id/payment-session", r.orderController.RetryPaymentSession)
		}

		// Gateway webhook: no auth header, trust comes from the body signature,
		// so the handler must see the exact bytes that were signed.
		v1.POST("/payments/notification",
			webhookLimiter.Middleware(),
			middleware.RawBody(),
			r.paymentController.HandleNotification,
		)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
