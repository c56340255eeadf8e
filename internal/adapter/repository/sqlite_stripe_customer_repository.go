package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
	"github.com/founderlab/fl-stripe-server/internal/domain/repository"
)

// Ensure sqliteStripeCustomerRepository implements repository.StripeCustomerRepository
var _ repository.StripeCustomerRepository = (*sqliteStripeCustomerRepository)(nil)

const stripeCustomerColumns = "id, owner_id, stripe_id, subscription_id, email, created_at, updated_at"

type sqliteStripeCustomerRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStripeCustomerRepository returns a repository on a database/sql handle opened with the
// modernc sqlite driver. The stripe_customers table must already exist.
func NewSQLiteStripeCustomerRepository(db *sql.DB) repository.StripeCustomerRepository {
	return &sqliteStripeCustomerRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStripeCustomer(row rowScanner) (*entity.StripeCustomer, error) {
	var (
		c                    entity.StripeCustomer
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.StripeID, &c.SubscriptionID, &c.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &c, nil
}

func (r *sqliteStripeCustomerRepository) FindByOwner(ctx context.Context, ownerID string) (*entity.StripeCustomer, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+stripeCustomerColumns+" FROM stripe_customers WHERE owner_id = ?",
		ownerID,
	)
	customer, err := scanStripeCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stripe customer: %w", err)
	}
	return customer, nil
}

func (r *sqliteStripeCustomerRepository) Save(ctx context.Context, customer *entity.StripeCustomer) error {
	now := r.now().UTC().Truncate(time.Millisecond)

	if customer.ID == 0 {
		if customer.CreatedAt.IsZero() {
			customer.CreatedAt = now
		}
		customer.UpdatedAt = now

		res, err := r.db.ExecContext(ctx,
			"INSERT INTO stripe_customers (owner_id, stripe_id, subscription_id, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			customer.OwnerID, customer.StripeID, customer.SubscriptionID, customer.Email,
			customer.CreatedAt.UnixMilli(), customer.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return translateSQLiteError(err, customer.OwnerID)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
		customer.ID = id
		return nil
	}

	customer.UpdatedAt = now
	res, err := r.db.ExecContext(ctx,
		"UPDATE stripe_customers SET owner_id = ?, stripe_id = ?, subscription_id = ?, email = ?, updated_at = ? WHERE id = ?",
		customer.OwnerID, customer.StripeID, customer.SubscriptionID, customer.Email,
		customer.UpdatedAt.UnixMilli(), customer.ID,
	)
	if err != nil {
		return translateSQLiteError(err, customer.OwnerID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update stripe customer %d: %w", customer.ID, domainErrors.ErrCustomerNotFound)
	}
	return nil
}

func (r *sqliteStripeCustomerRepository) Query(ctx context.Context, query entity.CustomerQuery) ([]*entity.StripeCustomer, int64, error) {
	query.Pagination.Validate()

	var (
		conds []string
		args  []interface{}
	)
	if query.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, query.OwnerID)
	}
	if query.StripeID != "" {
		conds = append(conds, "stripe_id = ?")
		args = append(args, query.StripeID)
	}
	if query.HasSubscription != nil {
		if *query.HasSubscription {
			conds = append(conds, "subscription_id <> ''")
		} else {
			conds = append(conds, "subscription_id = ''")
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stripe_customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stripe customers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+stripeCustomerColumns+" FROM stripe_customers"+where+" ORDER BY id ASC LIMIT ? OFFSET ?",
		append(args, query.Pagination.Limit, query.Pagination.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stripe customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*entity.StripeCustomer, 0)
	for rows.Next() {
		customer, err := scanStripeCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan stripe customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate stripe customers: %w", err)
	}
	return customers, total, nil
}

func translateSQLiteError(err error, ownerID string) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("failed to save stripe customer %s: %w", ownerID, domainErrors.ErrDuplicateOwner)
	}
	return fmt.Errorf("failed to save stripe customer: %w", err)
}
