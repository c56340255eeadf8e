package repository

import (
	"context"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
)

// StripeCustomerRepository persists local customer records.
type StripeCustomerRepository interface {
	// FindByOwner returns nil, nil when the owner has no record.
	FindByOwner(ctx context.Context, ownerID string) (*entity.StripeCustomer, error)
	// Save inserts the record when ID is zero and updates it otherwise.
	Save(ctx context.Context, customer *entity.StripeCustomer) error
	Query(ctx context.Context, query entity.CustomerQuery) ([]*entity.StripeCustomer, int64, error)
}
