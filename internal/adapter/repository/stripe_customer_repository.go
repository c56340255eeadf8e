package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
	"github.com/founderlab/fl-stripe-server/internal/domain/model"
	"github.com/founderlab/fl-stripe-server/internal/domain/repository"
)

type stripeCustomerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStripeCustomerRepository returns the gorm-backed repository. The gorm.DB should be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewStripeCustomerRepository(db *gorm.DB, logger *zap.Logger) repository.StripeCustomerRepository {
	return &stripeCustomerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *stripeCustomerRepository) modelToEntity(m *model.StripeCustomer) *entity.StripeCustomer {
	return &entity.StripeCustomer{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		StripeID:       m.StripeID,
		SubscriptionID: m.SubscriptionID,
		Email:          m.Email,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *stripeCustomerRepository) entityToModel(e *entity.StripeCustomer) *model.StripeCustomer {
	return &model.StripeCustomer{
		ID:             e.ID,
		OwnerID:        e.OwnerID,
		StripeID:       e.StripeID,
		SubscriptionID: e.SubscriptionID,
		Email:          e.Email,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r *stripeCustomerRepository) FindByOwner(ctx context.Context, ownerID string) (*entity.StripeCustomer, error) {
	var customer model.StripeCustomer
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stripe customer by owner: %w", err)
	}
	return r.modelToEntity(&customer), nil
}

func (r *stripeCustomerRepository) Save(ctx context.Context, customer *entity.StripeCustomer) error {
	m := r.entityToModel(customer)

	var err error
	if m.ID == 0 {
		err = r.db.WithContext(ctx).Create(m).Error
	} else {
		err = r.db.WithContext(ctx).Save(m).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("save stripe customer %s: %w", customer.OwnerID, domainErrors.ErrDuplicateOwner)
		}
		return fmt.Errorf("save stripe customer: %w", err)
	}

	*customer = *r.modelToEntity(m)
	r.logger.Debug("Saved stripe customer",
		zap.Int64("id", customer.ID),
		zap.String("owner_id", customer.OwnerID),
		zap.String("stripe_id", customer.StripeID),
	)
	return nil
}

func (r *stripeCustomerRepository) Query(ctx context.Context, query entity.CustomerQuery) ([]*entity.StripeCustomer, int64, error) {
	query.Pagination.Validate()

	tx := r.db.WithContext(ctx).Model(&model.StripeCustomer{})
	if query.OwnerID != "" {
		tx = tx.Where("owner_id = ?", query.OwnerID)
	}
	if query.StripeID != "" {
		tx = tx.Where("stripe_id = ?", query.StripeID)
	}
	if query.HasSubscription != nil {
		if *query.HasSubscription {
			tx = tx.Where("subscription_id <> ''")
		} else {
			tx = tx.Where("subscription_id = '' OR subscription_id IS NULL")
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count stripe customers: %w", err)
	}

	var rows []model.StripeCustomer
	err := tx.Order("id ASC").
		Limit(query.Pagination.Limit).
		Offset(query.Pagination.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query stripe customers: %w", err)
	}

	customers := make([]*entity.StripeCustomer, 0, len(rows))
	for i := range rows {
		customers = append(customers, r.modelToEntity(&rows[i]))
	}
	return customers, total, nil
}
