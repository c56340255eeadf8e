package provider

import (
	"context"
	"time"

	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
)

// instrumentedGateway records call counts and latency per operation.
type instrumentedGateway struct {
	next    provider.CardGateway
	metrics *metrics.Metrics
}

func WithMetrics(next provider.CardGateway, m *metrics.Metrics) provider.CardGateway {
	return &instrumentedGateway{next: next, metrics: m}
}

func (g *instrumentedGateway) observe(operation string, start time.Time, err error) {
	name := g.next.GetProviderName()
	g.metrics.GatewayRequests.WithLabelValues(name, operation, metrics.Result(err)).Inc()
	g.metrics.GatewayDuration.WithLabelValues(name, operation).Observe(time.Since(start).Seconds())
}

func (g *instrumentedGateway) GetProviderName() string {
	return g.next.GetProviderName()
}

func (g *instrumentedGateway) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	start := time.Now()
	customer, err := g.next.CreateCustomer(ctx, req)
	g.observe("create_customer", start, err)
	return customer, err
}

func (g *instrumentedGateway) RetrieveCustomer(ctx context.Context, customerID string) (*provider.Customer, error) {
	start := time.Now()
	customer, err := g.next.RetrieveCustomer(ctx, customerID)
	g.observe("retrieve_customer", start, err)
	return customer, err
}

func (g *instrumentedGateway) AddCard(ctx context.Context, customerID, token string) (*provider.Card, error) {
	start := time.Now()
	card, err := g.next.AddCard(ctx, customerID, token)
	g.observe("add_card", start, err)
	return card, err
}

func (g *instrumentedGateway) ListCards(ctx context.Context, customerID string) ([]*provider.Card, error) {
	start := time.Now()
	cards, err := g.next.ListCards(ctx, customerID)
	g.observe("list_cards", start, err)
	return cards, err
}

func (g *instrumentedGateway) SetDefaultCard(ctx context.Context, customerID, cardID string) (*provider.Customer, error) {
	start := time.Now()
	customer, err := g.next.SetDefaultCard(ctx, customerID, cardID)
	g.observe("set_default_card", start, err)
	return customer, err
}

func (g *instrumentedGateway) DeleteCard(ctx context.Context, customerID, cardID string) error {
	start := time.Now()
	err := g.next.DeleteCard(ctx, customerID, cardID)
	g.observe("delete_card", start, err)
	return err
}

func (g *instrumentedGateway) Charge(ctx context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	start := time.Now()
	charge, err := g.next.Charge(ctx, req)
	g.observe("charge", start, err)
	return charge, err
}

func (g *instrumentedGateway) ListPlans(ctx context.Context) ([]*provider.Plan, error) {
	start := time.Now()
	plans, err := g.next.ListPlans(ctx)
	g.observe("list_plans", start, err)
	return plans, err
}

func (g *instrumentedGateway) CreateSubscription(ctx context.Context, customerID, planID string) (*provider.Subscription, error) {
	start := time.Now()
	sub, err := g.next.CreateSubscription(ctx, customerID, planID)
	g.observe("create_subscription", start, err)
	return sub, err
}

func (g *instrumentedGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	start := time.Now()
	sub, err := g.next.RetrieveSubscription(ctx, subscriptionID)
	g.observe("retrieve_subscription", start, err)
	return sub, err
}
