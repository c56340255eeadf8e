package model

import "time"

// StripeCustomer is the persisted link between an owner and a Stripe customer.
type StripeCustomer struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        string    `gorm:"column:owner_id;uniqueIndex;not null;size:255" json:"owner_id"`
	StripeID       string    `gorm:"column:stripe_id;not null;size:100;index" json:"stripe_id"`
	SubscriptionID string    `gorm:"column:subscription_id;size:100" json:"subscription_id"`
	Email          string    `gorm:"size:255" json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (StripeCustomer) TableName() string {
	return "stripe_customers"
}
