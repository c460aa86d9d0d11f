package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gastoscan/internal/api"
	"gastoscan/internal/api/handlers"
	"gastoscan/internal/repository"
	"gastoscan/internal/service"
	"gastoscan/pkg/auth"
	"gastoscan/pkg/config"
	"gastoscan/pkg/logger"
	"gastoscan/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting gastoscan service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)
	receiptFileRepo := repository.NewReceiptFileRepository(db, appLogger)
	auditRepo := repository.NewAuditRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, accountRepo, categoryRepo, jwtManager, appLogger)
	storageService := service.NewStorageService(receiptFileRepo, cfg.Storage, appLogger)
	recognitionClient := service.NewRecognitionClient(cfg.Recognition, appLogger)
	categoryService := service.NewCategoryService(categoryRepo, accountRepo, appLogger)
	expenseService := service.NewExpenseService(
		expenseRepo, accountRepo, auditRepo,
		storageService, recognitionClient, categoryService,
		appLogger,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, appLogger)
	categoryHandler := handlers.NewCategoryHandler(categoryService, appLogger)
	fileHandler := handlers.NewFileHandler(storageService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, expenseHandler, categoryHandler, fileHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
