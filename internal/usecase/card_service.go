package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/domain/repository"
	apperrors "github.com/founderlab/fl-stripe-server/pkg/errors"
	"github.com/founderlab/fl-stripe-server/pkg/queue"
)

// messagePrefix marks validation messages returned to API clients.
const messagePrefix = "[fl-stripe-server] "

// CardServiceConfig holds the controller options the operations depend on.
type CardServiceConfig struct {
	// CardWhitelist lists the card fields returned to clients.
	CardWhitelist []string
	Currency      string
	// MaxAmount is the largest single charge in the smallest currency unit.
	MaxAmount int64
}

// SubscribeEvent is passed to the post-subscribe hook.
type SubscribeEvent struct {
	OwnerID      string                 `json:"owner_id"`
	Email        string                 `json:"email,omitempty"`
	PlanID       string                 `json:"plan_id"`
	Subscription *provider.Subscription `json:"subscription"`
}

// SubscribeHook runs after a subscription was created and stored. An error fails the request.
type SubscribeHook func(ctx context.Context, event *SubscribeEvent) error

// CardView is a card projected onto the configured whitelist, plus the "default" flag when listing.
type CardView map[string]interface{}

type OKResult struct {
	OK bool `json:"ok"`
}

type DeleteCardResult struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type ChargeView struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	DisplayAmount string `json:"display_amount"`
}

type ChargeResult struct {
	OK     bool        `json:"ok"`
	Charge *ChargeView `json:"charge"`
}

type PlanView struct {
	ID            string `json:"id"`
	Nickname      string `json:"nickname"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
	DisplayAmount string `json:"display_amount"`
}

type SubscribeResult struct {
	Subscription *provider.Subscription `json:"subscription"`
}

// CardService implements the card, charge and subscription operations for one owner at a time.
// It is transport-free: the HTTP controller and the CLI both call it.
type CardService struct {
	customers   repository.StripeCustomerRepository
	gateway     provider.CardGateway
	onSubscribe SubscribeHook
	config      CardServiceConfig
	logger      *zap.Logger
}

// NewCardService creates a new card service instance. onSubscribe may be nil.
func NewCardService(
	customers repository.StripeCustomerRepository,
	gateway provider.CardGateway,
	config CardServiceConfig,
	onSubscribe SubscribeHook,
	logger *zap.Logger,
) *CardService {
	return &CardService{
		customers:   customers,
		gateway:     gateway,
		onSubscribe: onSubscribe,
		config:      config,
		logger:      logger,
	}
}

// findCustomer loads the owner's record and turns a missing one into a not-found error.
func (s *CardService) findCustomer(ctx context.Context, ownerID string) (*entity.StripeCustomer, error) {
	customer, err := s.customers.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error retrieving customer for user %s", ownerID), err)
	}
	if customer == nil {
		return nil, apperrors.NotFound(messagePrefix+"Customer not found", domainErrors.ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *CardService) projectCard(card *provider.Card) CardView {
	view := CardView{}
	if card == nil {
		return view
	}
	fields := card.Fields()
	for _, key := range s.config.CardWhitelist {
		if v, ok := fields[key]; ok {
			view[key] = v
		}
	}
	return view
}

// CreateCard adds a card for the owner. The first card creates the remote customer and the local
// record linking the owner to it.
func (s *CardService) CreateCard(ctx context.Context, owner *entity.Principal, token string) (CardView, error) {
	if token == "" {
		return nil, apperrors.InvalidArgument(messagePrefix+"Missing a token", domainErrors.ErrMissingToken)
	}

	existing, err := s.customers.FindByOwner(ctx, owner.ID)
	if err != nil {
		return nil, apperrors.Internal("Error creating new customer", err)
	}

	var card *provider.Card
	q := queue.New(1)

	if existing != nil {
		q.Defer(func(ctx context.Context) error {
			added, err := s.gateway.AddCard(ctx, existing.StripeID, token)
			if err != nil {
				return apperrors.Internal("Stripe error creating new card", err)
			}
			card = added
			return nil
		})
	} else {
		var remote *provider.Customer

		q.Defer(func(ctx context.Context) error {
			created, err := s.gateway.CreateCustomer(ctx, &provider.CreateCustomerRequest{
				Description: "User " + owner.Email,
				Email:       owner.Email,
				Source:      token,
				Metadata:    map[string]string{"owner_id": owner.ID},
			})
			if err != nil {
				return apperrors.Internal("Stripe error creating customer", err)
			}
			remote = created
			if len(created.Cards) > 0 {
				card = created.Cards[0]
			}
			return nil
		})

		q.Defer(func(ctx context.Context) error {
			record := &entity.StripeCustomer{
				OwnerID:  owner.ID,
				StripeID: remote.ID,
				Email:    owner.Email,
			}
			if err := s.customers.Save(ctx, record); err != nil {
				// The remote customer stays behind; it is not rolled back.
				s.logger.Error("Remote customer created but local record not saved",
					zap.String("owner_id", owner.ID),
					zap.String("stripe_id", remote.ID),
					zap.Error(err),
				)
				return apperrors.Internal("Error saving new customer", err)
			}
			s.logger.Info("Created stripe customer",
				zap.String("owner_id", owner.ID),
				zap.String("stripe_id", remote.ID),
			)
			return nil
		})
	}

	if err := q.Await(ctx); err != nil {
		return nil, err
	}
	return s.projectCard(card), nil
}

// ListCards returns the owner's cards with a "default" flag. Owners without a record have no cards.
func (s *CardService) ListCards(ctx context.Context, ownerID string) ([]CardView, error) {
	customer, err := s.customers.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("Error retrieving customer for user %s", ownerID), err)
	}
	if customer == nil {
		return []CardView{}, nil
	}

	remote, err := s.gateway.RetrieveCustomer(ctx, customer.StripeID)
	if err != nil {
		return nil, apperrors.Internal("Stripe error retrieving payment information", err)
	}
	cards, err := s.gateway.ListCards(ctx, customer.StripeID)
	if err != nil {
		return nil, apperrors.Internal("Stripe error retrieving payment information", err)
	}

	views := make([]CardView, 0, len(cards))
	for _, card := range cards {
		view := s.projectCard(card)
		view["default"] = card.ID == remote.DefaultSource
		views = append(views, view)
	}
	return views, nil
}

func (s *CardService) SetDefaultCard(ctx context.Context, ownerID, cardID string) (*OKResult, error) {
	if cardID == "" {
		return nil, apperrors.InvalidArgument(messagePrefix+"Missing a cardId", domainErrors.ErrMissingCardID)
	}
	customer, err := s.findCustomer(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.gateway.SetDefaultCard(ctx, customer.StripeID, cardID); err != nil {
		return nil, apperrors.Internal("Stripe error setting default card", err)
	}
	return &OKResult{OK: true}, nil
}

func (s *CardService) DeleteCard(ctx context.Context, ownerID, cardID string) (*DeleteCardResult, error) {
	if cardID == "" {
		return nil, apperrors.InvalidArgument(messagePrefix+"Missing a cardId", domainErrors.ErrMissingCardID)
	}
	customer, err := s.findCustomer(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.DeleteCard(ctx, customer.StripeID, cardID); err != nil {
		return nil, apperrors.Internal("Stripe error deleting card", err)
	}
	return &DeleteCardResult{OK: true, ID: cardID}, nil
}

// ChargeCustomer charges the owner's default card. The amount is checked before any lookup so an
// oversized charge never reaches the provider.
func (s *CardService) ChargeCustomer(ctx context.Context, ownerID string, amount int64) (*ChargeResult, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidArgument(messagePrefix+"Missing an amount to charge", domainErrors.ErrMissingAmount)
	}
	if amount > s.config.MaxAmount {
		return nil, apperrors.NewAppError(apperrors.ErrLimitExceeded,
			messagePrefix+"Charge exceeds the configured maximum amount", domainErrors.ErrAmountTooLarge)
	}

	customer, err := s.findCustomer(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.Charge(ctx, &provider.ChargeRequest{
		CustomerID: customer.StripeID,
		Amount:     amount,
		Currency:   s.config.Currency,
	})
	if err != nil {
		return nil, apperrors.Internal("Stripe error charging customer", err)
	}

	s.logger.Info("Charged customer",
		zap.String("owner_id", ownerID),
		zap.String("charge_id", charge.ID),
		zap.Int64("amount", charge.Amount),
	)
	return &ChargeResult{
		OK: true,
		Charge: &ChargeView{
			ID:            charge.ID,
			Amount:        charge.Amount,
			Currency:      charge.Currency,
			Status:        charge.Status,
			DisplayAmount: DisplayAmount(charge.Amount, charge.Currency),
		},
	}, nil
}

func (s *CardService) ListPlans(ctx context.Context) ([]*PlanView, error) {
	plans, err := s.gateway.ListPlans(ctx)
	if err != nil {
		return nil, apperrors.Internal("Stripe error retrieving plans", err)
	}

	views := make([]*PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, &PlanView{
			ID:            p.ID,
			Nickname:      p.Nickname,
			Amount:        p.Amount,
			Currency:      p.Currency,
			Interval:      p.Interval,
			IntervalCount: p.IntervalCount,
			DisplayAmount: DisplayAmount(p.Amount, p.Currency),
		})
	}
	return views, nil
}

func (s *CardService) ShowSubscription(ctx context.Context, ownerID string) (*provider.Subscription, error) {
	customer, err := s.findCustomer(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !customer.HasSubscription() {
		return nil, apperrors.NotFound("No subscription", domainErrors.ErrNoSubscription)
	}

	sub, err := s.gateway.RetrieveSubscription(ctx, customer.SubscriptionID)
	if err != nil {
		return nil, apperrors.Internal("Stripe error retrieving subscription", err)
	}
	return sub, nil
}

// SubscribeToPlan subscribes the owner, stores the subscription id on their record and then runs
// the post-subscribe hook, strictly in that order.
func (s *CardService) SubscribeToPlan(ctx context.Context, owner *entity.Principal, planID string) (*SubscribeResult, error) {
	if planID == "" {
		return nil, apperrors.InvalidArgument(messagePrefix+"Missing a planId", domainErrors.ErrMissingPlanID)
	}
	customer, err := s.findCustomer(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	var subscription *provider.Subscription
	q := queue.New(1)

	q.Defer(func(ctx context.Context) error {
		sub, err := s.gateway.CreateSubscription(ctx, customer.StripeID, planID)
		if err != nil {
			return apperrors.Internal("Stripe error subscribing to plan", err)
		}
		subscription = sub
		return nil
	})

	q.Defer(func(ctx context.Context) error {
		customer.SubscriptionID = subscription.ID
		if err := s.customers.Save(ctx, customer); err != nil {
			s.logger.Error("Subscription created but not stored on customer",
				zap.String("owner_id", owner.ID),
				zap.String("subscription_id", subscription.ID),
				zap.Error(err),
			)
			return apperrors.Internal("Error saving subscription", err)
		}
		return nil
	})

	if s.onSubscribe != nil {
		q.Defer(func(ctx context.Context) error {
			err := s.onSubscribe(ctx, &SubscribeEvent{
				OwnerID:      owner.ID,
				Email:        owner.Email,
				PlanID:       planID,
				Subscription: subscription,
			})
			if err != nil {
				return apperrors.Wrap(err, "Error running subscribe hook")
			}
			return nil
		})
	}

	if err := q.Await(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Subscribed customer to plan",
		zap.String("owner_id", owner.ID),
		zap.String("plan_id", planID),
		zap.String("subscription_id", subscription.ID),
	)
	return &SubscribeResult{Subscription: subscription}, nil
}

// ListCustomers pages through local records.
func (s *CardService) ListCustomers(ctx context.Context, query entity.CustomerQuery) (*entity.PaginatedCustomersResponse, error) {
	query.Pagination.Validate()

	customers, total, err := s.customers.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Internal("Error listing customers", err)
	}
	return &entity.PaginatedCustomersResponse{
		Data:       customers,
		Pagination: entity.NewPaginationMeta(query.Pagination, total),
	}, nil
}
