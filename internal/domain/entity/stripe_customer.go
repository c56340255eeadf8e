package entity

import "time"

// StripeCustomer links an application user to their Stripe customer record.
// A record is created the first time the user adds a card and is never deleted by this service.
type StripeCustomer struct {
	ID             int64     `json:"id"`
	OwnerID        string    `json:"owner_id"`
	StripeID       string    `json:"stripe_id"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasSubscription reports whether a subscription id has been stored on the record.
func (c *StripeCustomer) HasSubscription() bool {
	return c != nil && c.SubscriptionID != ""
}

// CustomerQuery filters local customer records. Empty fields are not applied.
type CustomerQuery struct {
	OwnerID         string
	StripeID        string
	HasSubscription *bool
	Pagination      PaginationParams
}

// PaginatedCustomersResponse is the admin listing of local customer records.
type PaginatedCustomersResponse struct {
	Data       []*StripeCustomer `json:"data"`
	Pagination PaginationMeta    `json:"pagination"`
}
