package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/homelyeats/pkg/cart"
	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/invoice"
	"github.com/example/homelyeats/pkg/order"
	"github.com/example/homelyeats/pkg/pairing"
	"github.com/example/homelyeats/pkg/payment"
	"github.com/example/homelyeats/pkg/repository"
	"github.com/example/homelyeats/server"
	"go.uber.org/zap"
)

func main() {
	// Load config
	configPath := "config/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront server",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// MySQL
	store, err := repository.NewStore(&cfg.MySQL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	defer store.Close()

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	// MongoDB
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoRepo.Close(ctx)
	}()

	// Ping dependencies
	ctx := context.Background()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Warn("MongoDB connection failed", zap.Error(err))
	}

	// External clients are constructed once here and passed down; nothing
	// reaches for ambient globals.
	stripeClient := payment.NewStripeClient(&cfg.Stripe)
	pairingClient := pairing.NewClient(&cfg.OpenAI, logger)

	carts := cart.NewService(store, redisRepo, logger)
	orders := order.NewService(store, carts, logger)
	payments := payment.NewCoordinator(store, stripeClient, mongoRepo, logger)

	srv := server.New(cfg, logger, server.Deps{
		Store:    store,
		Sessions: redisRepo,
		Carts:    carts,
		Orders:   orders,
		Payments: payments,
		Invoices: invoice.NewRenderer(),
		Pairings: pairingClient,
	})
	srv.SetupRoutes()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("Server started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}
