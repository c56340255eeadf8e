package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/founderlab/fl-stripe-server/internal/domain/model"
)

// Migrate runs the postgres migrations through gorm.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running GORM auto-migrations...")
	if err := db.AutoMigrate(&model.StripeCustomer{}); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_stripe_customers_subscribed ON stripe_customers (subscription_id) WHERE subscription_id <> ''`).Error; err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return fmt.Errorf("failed to create custom indexes: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// sqliteSchema mirrors model.StripeCustomer. Timestamps are unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stripe_customers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id TEXT NOT NULL,
    stripe_id TEXT NOT NULL,
    subscription_id TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stripe_customers_owner_id ON stripe_customers(owner_id);
CREATE INDEX IF NOT EXISTS idx_stripe_customers_stripe_id ON stripe_customers(stripe_id);
`

// MigrateSQLite applies the sqlite schema. It is idempotent.
func MigrateSQLite(db *sql.DB, logger *zap.Logger) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("SQLite schema applied")
	return nil
}
