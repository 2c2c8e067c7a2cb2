package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/example/homelyeats/pkg/cart"
	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/invoice"
	"github.com/example/homelyeats/pkg/order"
	"github.com/example/homelyeats/pkg/pairing"
	"github.com/example/homelyeats/pkg/payment"
	"github.com/example/homelyeats/pkg/repository"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	store    *repository.Store
	sessions *repository.RedisRepository
	carts    *cart.Service
	orders   *order.Service
	payments *payment.Coordinator
	invoices *invoice.Renderer
	pairings *pairing.Client
}

type Deps struct {
	Store    *repository.Store
	Sessions *repository.RedisRepository
	Carts    *cart.Service
	Orders   *order.Service
	Payments *payment.Coordinator
	Invoices *invoice.Renderer
	Pairings *pairing.Client
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		store:    deps.Store,
		sessions: deps.Sessions,
		carts:    deps.Carts,
		orders:   deps.Orders,
		payments: deps.Payments,
		invoices: deps.Invoices,
		pairings: deps.Pairings,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	v1.Use(s.identityMiddleware())
	{
		// Webhook is signature-authenticated, not session-authenticated.
		v1.POST("/webhook/stripe", s.handleStripeWebhook)

		// Menu routes
		v1.GET("/dishes", s.listDishes)
		v1.GET("/dishes/:id", s.getDish)
		v1.GET("/dishes/:id/pairings", s.getDishPairings)
		v1.GET("/categories", s.listCategories)

		// Cart routes
		carts := v1.Group("/cart")
		{
			carts.GET("", s.getCart)
			carts.POST("/items", s.addCartItem)
			carts.PUT("/items/:dishId", s.updateCartItem)
			carts.DELETE("/items/:dishId", s.removeCartItem)
			carts.DELETE("", s.clearCart)
		}

		// Order routes
		orders := v1.Group("/orders")
		{
			orders.POST("", s.createOrder)
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.POST("/:id/payment-intent", s.createPaymentIntent)
			orders.POST("/:id/cash", s.selectCashPayment)
			orders.GET("/:id/invoice", s.getOrderInvoice)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(s.adminMiddleware())
		{
			admin.GET("/orders", s.adminListOrders)
			admin.PUT("/orders/:id/status", s.adminUpdateOrderStatus)
			admin.GET("/users", s.adminListUsers)
			admin.POST("/dishes", s.adminCreateDish)
			admin.PUT("/dishes/:id", s.adminUpdateDish)
			admin.DELETE("/dishes/:id", s.adminDeleteDish)
			admin.POST("/categories", s.adminCreateCategory)
			admin.DELETE("/categories/:id", s.adminDeleteCategory)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router is exposed for handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
