package main

import (
	"context"
	"log"
	"time"

	"gastoscan/internal/models"
	"gastoscan/internal/repository"
	"gastoscan/pkg/auth"
	"gastoscan/pkg/config"
	"gastoscan/pkg/logger"
	"gastoscan/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// schema is applied idempotently; reruns are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		monthly_expense_limit INTEGER,
		can_add_custom_categories BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS receipt_files (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		user_id UUID NOT NULL REFERENCES users(id),
		original_name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		storage_path TEXT NOT NULL,
		hash_dedupe TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_receipt_files_hash ON receipt_files(account_id, hash_dedupe)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		employee_id UUID NOT NULL,
		account_id UUID NOT NULL REFERENCES accounts(id),
		project_code_id UUID,
		category_id UUID NOT NULL REFERENCES categories(id),
		receipt_file_id UUID REFERENCES receipt_files(id),
		vendor TEXT NOT NULL,
		expense_date DATE NOT NULL,
		amount_net NUMERIC(12,2) NOT NULL,
		tax_vat NUMERIC(12,2) NOT NULL,
		amount_gross NUMERIC(12,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		payment_method TEXT,
		notes TEXT,
		source TEXT NOT NULL,
		hash_dedupe TEXT,
		status TEXT NOT NULL,
		doc_type TEXT,
		doc_type_source TEXT,
		classification_path TEXT,
		invoice_number TEXT,
		company_tax_id TEXT,
		company_address TEXT,
		company_email TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_account_date ON expenses(account_id, expense_date)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL,
		actor_user_id UUID NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id UUID NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

var demoCategories = []string{
	"Transporte",
	"Alojamiento",
	"Comidas",
	"Material de oficina",
	"Software",
	"Otra",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Applying schema...")
	if err := applySchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to apply schema", zap.Error(err))
	}

	appLogger.Info("Seeding demo account...")
	if err := seedDemoAccount(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to seed demo account", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func applySchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedDemoAccount(ctx context.Context, db *pgxpool.Pool, appLogger *zap.Logger) error {
	userRepo := repository.NewUserRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)

	const demoEmail = "demo@gastoscan.local"
	if existing, _ := userRepo.GetByEmail(ctx, demoEmail); existing != nil {
		appLogger.Info("Demo account already seeded, skipping")
		return nil
	}

	now := time.Now()
	limit := 100
	account := &models.Account{
		ID:                     uuid.New(),
		Name:                   "Demo SL",
		MonthlyExpenseLimit:    &limit,
		CanAddCustomCategories: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := accountRepo.Create(ctx, account); err != nil {
		return err
	}

	for _, name := range demoCategories {
		if err := categoryRepo.Create(ctx, repository.NewCategory(account.ID, name)); err != nil {
			appLogger.Warn("Failed to create category", zap.String("name", name), zap.Error(err))
		}
	}

	password, err := auth.HashPassword("demo1234")
	if err != nil {
		return err
	}
	user := &models.User{
		ID:        uuid.New(),
		AccountID: account.ID,
		Username:  "demo",
		Email:     demoEmail,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return err
	}

	appLogger.Info("Demo account created",
		zap.String("account_id", account.ID.String()),
		zap.String("email", demoEmail),
	)
	return nil
}
