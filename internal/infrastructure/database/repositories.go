package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/founderlab/fl-stripe-server/internal/adapter/repository"
	"github.com/founderlab/fl-stripe-server/internal/config"
	domainRepo "github.com/founderlab/fl-stripe-server/internal/domain/repository"
)

// Repositories holds all repository instances and owns the underlying connection.
type Repositories struct {
	Customers domainRepo.StripeCustomerRepository

	close func() error
}

// NewRepositories creates repository instances on a gorm connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Customers: repository.NewStripeCustomerRepository(db, logger),
		close:     func() error { return Close(db, logger) },
	}
}

// NewSQLiteRepositories creates repository instances on a sqlite handle
func NewSQLiteRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Customers: repository.NewSQLiteStripeCustomerRepository(db),
		close:     db.Close,
	}
}

// Open connects to the configured driver, migrates when enabled and returns the repository set.
func Open(cfg *config.DatabaseConfig, logger *zap.Logger) (*Repositories, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return NewSQLiteRepositories(db), nil

	case config.DriverPostgres:
		db, err := NewConnection(cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := Migrate(db, logger); err != nil {
				_ = Close(db, logger)
				return nil, err
			}
		}
		return NewRepositories(db, logger), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close releases the database connection.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
