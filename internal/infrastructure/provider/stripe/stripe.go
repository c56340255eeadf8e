package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
)

// StripeProvider implements provider.CardGateway on the Stripe API.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

var _ provider.CardGateway = (*StripeProvider)(nil)

// NewStripeProvider creates a provider with its own API client, leaving the package-level
// stripe.Key untouched.
func NewStripeProvider(secretKey string, logger *zap.Logger) *StripeProvider {
	return NewStripeProviderWithClient(client.New(secretKey, nil), logger)
}

// NewStripeProviderWithClient uses a preconfigured client, e.g. one pointed at a custom backend.
func NewStripeProviderWithClient(api *client.API, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:    api,
		logger: logger.Named("stripe"),
	}
}

// GetProviderName returns the provider name
func (s *StripeProvider) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		Description: stripe.String(req.Description),
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Source != "" {
		params.Source = stripe.String(req.Source)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("sources")
	params.Context = ctx

	c, err := s.api.Customers.New(params)
	if err != nil {
		s.logger.Error("Failed to create customer", zap.Error(err))
		return nil, toProviderError("create customer", err)
	}

	s.logger.Info("Customer created", zap.String("customer_id", c.ID))
	return toCustomer(c), nil
}

func (s *StripeProvider) RetrieveCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{}
	params.AddExpand("sources")
	params.Context = ctx

	c, err := s.api.Customers.Get(customerID, params)
	if err != nil {
		s.logger.Error("Failed to retrieve customer", zap.String("customer_id", customerID), zap.Error(err))
		return nil, toProviderError("retrieve customer", err)
	}
	return toCustomer(c), nil
}

func (s *StripeProvider) AddCard(ctx context.Context, customerID, token string) (*provider.Card, error) {
	params := &stripe.CardParams{
		Customer: stripe.String(customerID),
		Token:    stripe.String(token),
	}
	params.Context = ctx

	card, err := s.api.Cards.New(params)
	if err != nil {
		s.logger.Error("Failed to add card", zap.String("customer_id", customerID), zap.Error(err))
		return nil, toProviderError("add card", err)
	}

	s.logger.Info("Card added",
		zap.String("customer_id", customerID),
		zap.String("card_id", card.ID),
	)
	return toCard(card), nil
}

func (s *StripeProvider) ListCards(ctx context.Context, customerID string) ([]*provider.Card, error) {
	params := &stripe.CardListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var cards []*provider.Card
	iter := s.api.Cards.List(params)
	for iter.Next() {
		cards = append(cards, toCard(iter.Card()))
	}
	if err := iter.Err(); err != nil {
		s.logger.Error("Failed to list cards", zap.String("customer_id", customerID), zap.Error(err))
		return nil, toProviderError("list cards", err)
	}
	return cards, nil
}

func (s *StripeProvider) SetDefaultCard(ctx context.Context, customerID, cardID string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		DefaultSource: stripe.String(cardID),
	}
	params.Context = ctx

	c, err := s.api.Customers.Update(customerID, params)
	if err != nil {
		s.logger.Error("Failed to set default card",
			zap.String("customer_id", customerID),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
		return nil, toProviderError("set default card", err)
	}
	return toCustomer(c), nil
}

func (s *StripeProvider) DeleteCard(ctx context.Context, customerID, cardID string) error {
	params := &stripe.CardParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	if _, err := s.api.Cards.Del(cardID, params); err != nil {
		s.logger.Error("Failed to delete card",
			zap.String("customer_id", customerID),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
		return toProviderError("delete card", err)
	}

	s.logger.Info("Card deleted", zap.String("customer_id", customerID), zap.String("card_id", cardID))
	return nil
}

func (s *StripeProvider) Charge(ctx context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		Customer: stripe.String(req.CustomerID),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx

	ch, err := s.api.Charges.New(params)
	if err != nil {
		s.logger.Error("Failed to create charge",
			zap.String("customer_id", req.CustomerID),
			zap.Int64("amount", req.Amount),
			zap.Error(err),
		)
		return nil, toProviderError("create charge", err)
	}

	s.logger.Info("Charge created",
		zap.String("charge_id", ch.ID),
		zap.String("status", string(ch.Status)),
	)
	return &provider.Charge{
		ID:       ch.ID,
		Amount:   ch.Amount,
		Currency: string(ch.Currency),
		Status:   string(ch.Status),
		Paid:     ch.Paid,
	}, nil
}

func (s *StripeProvider) ListPlans(ctx context.Context) ([]*provider.Plan, error) {
	params := &stripe.PlanListParams{}
	params.Context = ctx

	var plans []*provider.Plan
	iter := s.api.Plans.List(params)
	for iter.Next() {
		p := iter.Plan()
		plan := &provider.Plan{
			ID:            p.ID,
			Nickname:      p.Nickname,
			Amount:        p.Amount,
			Currency:      string(p.Currency),
			Interval:      string(p.Interval),
			IntervalCount: p.IntervalCount,
			Active:        p.Active,
		}
		if p.Product != nil {
			plan.ProductID = p.Product.ID
		}
		plans = append(plans, plan)
	}
	if err := iter.Err(); err != nil {
		s.logger.Error("Failed to list plans", zap.Error(err))
		return nil, toProviderError("list plans", err)
	}
	return plans, nil
}

func (s *StripeProvider) CreateSubscription(ctx context.Context, customerID, planID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Plan: stripe.String(planID)},
		},
	}
	params.Context = ctx

	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		s.logger.Error("Failed to create subscription",
			zap.String("customer_id", customerID),
			zap.String("plan_id", planID),
			zap.Error(err),
		)
		return nil, toProviderError("create subscription", err)
	}

	s.logger.Info("Subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)),
	)
	return toSubscription(sub), nil
}

func (s *StripeProvider) RetrieveSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		s.logger.Error("Failed to retrieve subscription", zap.String("subscription_id", subscriptionID), zap.Error(err))
		return nil, toProviderError("retrieve subscription", err)
	}
	return toSubscription(sub), nil
}

func toCard(c *stripe.Card) *provider.Card {
	card := &provider.Card{
		ID:          c.ID,
		Brand:       string(c.Brand),
		Country:     c.Country,
		Last4:       c.Last4,
		ExpMonth:    c.ExpMonth,
		ExpYear:     c.ExpYear,
		Funding:     string(c.Funding),
		Fingerprint: c.Fingerprint,
		Name:        c.Name,
	}
	if c.Customer != nil {
		card.CustomerID = c.Customer.ID
	}
	return card
}

func toCustomer(c *stripe.Customer) *provider.Customer {
	customer := &provider.Customer{
		ID:          c.ID,
		Email:       c.Email,
		Description: c.Description,
	}
	if c.DefaultSource != nil {
		customer.DefaultSource = c.DefaultSource.ID
	}
	if c.Sources != nil {
		for _, src := range c.Sources.Data {
			if src.Card != nil {
				customer.Cards = append(customer.Cards, toCard(src.Card))
			}
		}
	}
	return customer
}

func toSubscription(s *stripe.Subscription) *provider.Subscription {
	sub := &provider.Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
	if s.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Plan != nil {
		sub.PlanID = s.Items.Data[0].Plan.ID
	}
	return sub
}

// toProviderError keeps the Stripe status code so callers can tell rejections from outages.
func toProviderError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &provider.ProviderError{
			Code:       string(stripeErr.Code),
			Message:    fmt.Sprintf("stripe: %s", op),
			Details:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return &provider.ProviderError{
		Code:       "api_connection_error",
		Message:    fmt.Sprintf("stripe: %s", op),
		Details:    err.Error(),
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}
