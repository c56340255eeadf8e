package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CardGateway is the remote payment provider used for customers, cards, charges and subscriptions.
type CardGateway interface {
	// CreateCustomer creates a remote customer. A non-empty Source attaches it as the first card.
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)

	// AddCard attaches a card token to an existing customer.
	AddCard(ctx context.Context, customerID, token string) (*Card, error)
	ListCards(ctx context.Context, customerID string) ([]*Card, error)
	SetDefaultCard(ctx context.Context, customerID, cardID string) (*Customer, error)
	DeleteCard(ctx context.Context, customerID, cardID string) error

	Charge(ctx context.Context, req *ChargeRequest) (*Charge, error)

	ListPlans(ctx context.Context) ([]*Plan, error)
	CreateSubscription(ctx context.Context, customerID, planID string) (*Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// CreateCustomerRequest describes a new remote customer.
type CreateCustomerRequest struct {
	Description string
	Email       string
	Source      string
	Metadata    map[string]string
}

// ChargeRequest is a one-off charge against the customer's default card.
type ChargeRequest struct {
	CustomerID  string
	Amount      int64 // smallest currency unit
	Currency    string
	Description string
}

// Card is a payment card attached to a customer.
type Card struct {
	ID          string `json:"id"`
	Brand       string `json:"brand"`
	Country     string `json:"country"`
	Last4       string `json:"last4"`
	ExpMonth    int64  `json:"exp_month"`
	ExpYear     int64  `json:"exp_year"`
	Funding     string `json:"funding"`
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	CustomerID  string `json:"customer"`
}

// Fields exposes the card by its JSON field names so callers can project a whitelist.
func (c *Card) Fields() map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID,
		"brand":       c.Brand,
		"country":     c.Country,
		"last4":       c.Last4,
		"exp_month":   c.ExpMonth,
		"exp_year":    c.ExpYear,
		"funding":     c.Funding,
		"fingerprint": c.Fingerprint,
		"name":        c.Name,
		"customer":    c.CustomerID,
	}
}

// Customer is a remote customer.
type Customer struct {
	ID            string  `json:"id"`
	Email         string  `json:"email,omitempty"`
	Description   string  `json:"description,omitempty"`
	DefaultSource string  `json:"default_source,omitempty"`
	Cards         []*Card `json:"cards,omitempty"`
}

// Charge is the result of a one-off charge.
type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Paid     bool   `json:"paid"`
}

// Plan is a recurring price a customer can subscribe to.
type Plan struct {
	ID            string `json:"id"`
	Nickname      string `json:"nickname"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
	Active        bool   `json:"active"`
	ProductID     string `json:"product,omitempty"`
}

// Subscription is a customer's subscription to a plan.
type Subscription struct {
	ID                string    `json:"id"`
	CustomerID        string    `json:"customer"`
	PlanID            string    `json:"plan"`
	Status            string    `json:"status"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe ProviderType = "stripe"
	// ProviderTypeMemory is an in-process sandbox for local runs and tests.
	ProviderTypeMemory ProviderType = "memory"
)

// ProviderError is a failure reported by the remote provider.
type ProviderError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	// Err is the underlying cause, e.g. a transport or context error.
	Err error `json:"-"`
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Details != "" {
		return msg + ": " + e.Details
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsClientError reports a 4xx rejection: the request was understood and refused.
func (e *ProviderError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}
