package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/hanbit-commerce/payment-service/internal/adapter/handler/http"
	"github.com/hanbit-commerce/payment-service/internal/config"
	"github.com/hanbit-commerce/payment-service/internal/domain/gateway"
	"github.com/hanbit-commerce/payment-service/internal/domain/order"
	"github.com/hanbit-commerce/payment-service/internal/infrastructure/database"
	"github.com/hanbit-commerce/payment-service/internal/middleware/auth"
	"github.com/hanbit-commerce/payment-service/internal/usecase"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	repos   *database.Repositories
	orders  order.Service
	gateway gateway.Client
}

// requestValidator adapts go-playground/validator to echo's Validator interface
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	repos *database.Repositories,
	orders order.Service,
	gatewayClient gateway.Client,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:  cfg,
		logger:  logger,
		echo:    e,
		repos:   repos,
		orders:  orders,
		gateway: gatewayClient,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "payment",
		})
	})

	// Initialize usecases and handlers
	auditWriter := usecase.NewAuditWriter(s.repos.AuditLog, s.logger)
	paymentService := usecase.NewPaymentService(
		s.orders, s.gateway, s.repos.Payment, s.repos.Deposit,
		auditWriter, s.repos.Transactor, s.logger,
	)
	refundService := usecase.NewRefundService(
		s.orders, s.gateway, s.repos.Payment, s.repos.Deposit,
		auditWriter, s.repos.Transactor, s.logger,
	)
	paymentHandler := handlers.NewPaymentHandler(s.logger, paymentService, refundService)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
		},
	}

	// API v1 routes (all require JWT authentication)
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	payments := v1.Group("/payments")
	payments.GET("/ready", paymentHandler.GetReadyInfo)
	payments.POST("/confirm/deposit", paymentHandler.ConfirmDeposit)
	payments.POST("/confirm/gateway", paymentHandler.ConfirmGateway)
	payments.POST("/refund", paymentHandler.Refund)
	payments.GET("/settlement", paymentHandler.GetSettlement)
	payments.GET("/:orderId", paymentHandler.GetPayment)
}
