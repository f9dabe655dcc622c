package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hanbit-commerce/payment-service/internal/adapter/orderclient"
	"github.com/hanbit-commerce/payment-service/internal/config"
	"github.com/hanbit-commerce/payment-service/internal/infrastructure/database"
	"github.com/hanbit-commerce/payment-service/internal/infrastructure/gateway"
	httpServer "github.com/hanbit-commerce/payment-service/internal/infrastructure/http"
	applog "github.com/hanbit-commerce/payment-service/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := applog.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, logger)

	// Order service collaborator
	orders := orderclient.NewClient(cfg.Service.OrderService.BaseURL, cfg.Service.OrderService.Timeout, logger)

	// Payment gateway
	gatewayClient, err := gateway.NewFactory(cfg, logger).GetConfiguredClient()
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Initialize server
	httpSrv := httpServer.NewServer(cfg, logger, repos, orders, gatewayClient)

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}
