// Package memory is an in-process card gateway for local runs and tests. It keeps customers,
// cards and subscriptions in maps and never talks to the network.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
)

// Provider is safe for concurrent use.
type Provider struct {
	mu            sync.Mutex
	customers     map[string]*customer
	plans         []*provider.Plan
	subscriptions map[string]*provider.Subscription
	charges       []*provider.Charge
	now           func() time.Time
}

type customer struct {
	info  provider.Customer
	cards []*provider.Card
}

var _ provider.CardGateway = (*Provider)(nil)

// New creates an empty sandbox offering the given plans.
func New(plans ...*provider.Plan) *Provider {
	return &Provider{
		customers:     make(map[string]*customer),
		plans:         plans,
		subscriptions: make(map[string]*provider.Subscription),
		now:           time.Now,
	}
}

// DefaultPlans is the plan catalogue used when the sandbox is selected by configuration.
func DefaultPlans() []*provider.Plan {
	return []*provider.Plan{
		{ID: "basic", Nickname: "Basic", Amount: 900, Currency: "aud", Interval: "month", IntervalCount: 1, Active: true},
		{ID: "pro", Nickname: "Pro", Amount: 2900, Currency: "aud", Interval: "month", IntervalCount: 1, Active: true},
		{ID: "pro-annual", Nickname: "Pro (annual)", Amount: 29000, Currency: "aud", Interval: "year", IntervalCount: 1, Active: true},
	}
}

func (p *Provider) GetProviderName() string {
	return string(provider.ProviderTypeMemory)
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func notFound(kind, id string) error {
	return &provider.ProviderError{
		Code:       "resource_missing",
		Message:    fmt.Sprintf("memory: no such %s", kind),
		Details:    id,
		StatusCode: http.StatusNotFound,
	}
}

// cardFromToken fabricates a card for a token. Tokens of the form tok_<brand>[_<last4>] pick the
// brand and last digits; anything else becomes a Visa ending in 4242.
func cardFromToken(token, customerID string) (*provider.Card, error) {
	if !strings.HasPrefix(token, "tok_") {
		return nil, &provider.ProviderError{
			Code:       "token_invalid",
			Message:    "memory: invalid card token",
			Details:    token,
			StatusCode: http.StatusBadRequest,
		}
	}

	brand, last4 := "Visa", "4242"
	parts := strings.Split(strings.TrimPrefix(token, "tok_"), "_")
	if parts[0] != "" && parts[0] != "visa" {
		brand = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	}
	if len(parts) > 1 && len(parts[1]) == 4 {
		last4 = parts[1]
	}

	return &provider.Card{
		ID:          newID("card"),
		Brand:       brand,
		Country:     "AU",
		Last4:       last4,
		ExpMonth:    12,
		ExpYear:     int64(time.Now().Year() + 3),
		Funding:     "credit",
		Fingerprint: uuid.NewString(),
		CustomerID:  customerID,
	}, nil
}

func (c *customer) snapshot() *provider.Customer {
	out := c.info
	out.Cards = make([]*provider.Card, len(c.cards))
	for i, card := range c.cards {
		cp := *card
		out.Cards[i] = &cp
	}
	return &out
}

func (p *Provider) CreateCustomer(_ context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := &customer{info: provider.Customer{
		ID:          newID("cus"),
		Email:       req.Email,
		Description: req.Description,
	}}
	if req.Source != "" {
		card, err := cardFromToken(req.Source, c.info.ID)
		if err != nil {
			return nil, err
		}
		c.cards = append(c.cards, card)
		c.info.DefaultSource = card.ID
	}

	p.customers[c.info.ID] = c
	return c.snapshot(), nil
}

func (p *Provider) RetrieveCustomer(_ context.Context, customerID string) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	return c.snapshot(), nil
}

func (p *Provider) AddCard(_ context.Context, customerID, token string) (*provider.Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	card, err := cardFromToken(token, customerID)
	if err != nil {
		return nil, err
	}
	c.cards = append(c.cards, card)
	if c.info.DefaultSource == "" {
		c.info.DefaultSource = card.ID
	}

	cp := *card
	return &cp, nil
}

func (p *Provider) ListCards(_ context.Context, customerID string) ([]*provider.Card, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	return c.snapshot().Cards, nil
}

func (p *Provider) SetDefaultCard(_ context.Context, customerID, cardID string) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return nil, notFound("customer", customerID)
	}
	if c.cardIndex(cardID) < 0 {
		return nil, notFound("card", cardID)
	}
	c.info.DefaultSource = cardID
	return c.snapshot(), nil
}

func (p *Provider) DeleteCard(_ context.Context, customerID, cardID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return notFound("customer", customerID)
	}
	i := c.cardIndex(cardID)
	if i < 0 {
		return notFound("card", cardID)
	}
	c.cards = append(c.cards[:i], c.cards[i+1:]...)

	// Like Stripe, the next remaining card becomes the default.
	if c.info.DefaultSource == cardID {
		c.info.DefaultSource = ""
		if len(c.cards) > 0 {
			c.info.DefaultSource = c.cards[0].ID
		}
	}
	return nil
}

func (c *customer) cardIndex(cardID string) int {
	for i, card := range c.cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}

func (p *Provider) Charge(_ context.Context, req *provider.ChargeRequest) (*provider.Charge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[req.CustomerID]
	if !ok {
		return nil, notFound("customer", req.CustomerID)
	}
	if c.info.DefaultSource == "" {
		return nil, &provider.ProviderError{
			Code:       "missing",
			Message:    "memory: customer has no card to charge",
			Details:    req.CustomerID,
			StatusCode: http.StatusPaymentRequired,
		}
	}

	charge := &provider.Charge{
		ID:       newID("ch"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "succeeded",
		Paid:     true,
	}
	p.charges = append(p.charges, charge)

	cp := *charge
	return &cp, nil
}

// Charges returns a copy of every charge made so far.
func (p *Provider) Charges() []provider.Charge {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]provider.Charge, len(p.charges))
	for i, c := range p.charges {
		out[i] = *c
	}
	return out
}

func (p *Provider) ListPlans(_ context.Context) ([]*provider.Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*provider.Plan, len(p.plans))
	for i, plan := range p.plans {
		cp := *plan
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })
	return out, nil
}

func (p *Provider) CreateSubscription(_ context.Context, customerID, planID string) (*provider.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.customers[customerID]; !ok {
		return nil, notFound("customer", customerID)
	}

	var plan *provider.Plan
	for _, candidate := range p.plans {
		if candidate.ID == planID {
			plan = candidate
			break
		}
	}
	if plan == nil {
		return nil, notFound("plan", planID)
	}

	start := p.now().UTC()
	end := start.AddDate(0, int(plan.IntervalCount), 0)
	if plan.Interval == "year" {
		end = start.AddDate(int(plan.IntervalCount), 0, 0)
	}

	sub := &provider.Subscription{
		ID:               newID("sub"),
		CustomerID:       customerID,
		PlanID:           planID,
		Status:           "active",
		CurrentPeriodEnd: end,
	}
	p.subscriptions[sub.ID] = sub

	cp := *sub
	return &cp, nil
}

func (p *Provider) RetrieveSubscription(_ context.Context, subscriptionID string) (*provider.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subscriptions[subscriptionID]
	if !ok {
		return nil, notFound("subscription", subscriptionID)
	}
	cp := *sub
	return &cp, nil
}
