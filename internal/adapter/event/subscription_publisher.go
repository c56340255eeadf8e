// Package event publishes subscription events to Redis for other services.
package event

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
	"github.com/founderlab/fl-stripe-server/pkg/messaging"
)

// TypeSubscriptionCreated is the type of every message published by SubscriptionPublisher.
const TypeSubscriptionCreated = "subscription.created"

// SubscriptionMessage is the JSON payload published for a new subscription.
type SubscriptionMessage struct {
	Type             string    `json:"type"`
	OwnerID          string    `json:"owner_id"`
	Email            string    `json:"email,omitempty"`
	PlanID           string    `json:"plan_id"`
	SubscriptionID   string    `json:"subscription_id"`
	CustomerID       string    `json:"customer_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	PublishedAt      time.Time `json:"published_at"`
}

// SubscriptionPublisher is a post-subscribe hook that publishes to a Redis channel.
type SubscriptionPublisher struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewSubscriptionPublisher creates a publisher. m may be nil.
func NewSubscriptionPublisher(publisher messaging.Publisher, channel string, logger *zap.Logger, m *metrics.Metrics) *SubscriptionPublisher {
	return &SubscriptionPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// OnSubscribe satisfies usecase.SubscribeHook. A publish failure fails the subscribe request.
func (p *SubscriptionPublisher) OnSubscribe(ctx context.Context, e *usecase.SubscribeEvent) error {
	msg := SubscriptionMessage{
		Type:        TypeSubscriptionCreated,
		OwnerID:     e.OwnerID,
		Email:       e.Email,
		PlanID:      e.PlanID,
		PublishedAt: p.now().UTC(),
	}
	if sub := e.Subscription; sub != nil {
		msg.SubscriptionID = sub.ID
		msg.CustomerID = sub.CustomerID
		msg.Status = sub.Status
		msg.CurrentPeriodEnd = sub.CurrentPeriodEnd
	}

	err := p.publisher.Publish(ctx, p.channel, msg)
	if p.metrics != nil {
		p.metrics.Events.WithLabelValues(p.channel, metrics.Result(err)).Inc()
	}
	if err != nil {
		p.logger.Error("Failed to publish subscription event",
			zap.String("channel", p.channel),
			zap.String("owner_id", e.OwnerID),
			zap.String("subscription_id", msg.SubscriptionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.logger.Info("Published subscription event",
		zap.String("channel", p.channel),
		zap.String("owner_id", e.OwnerID),
		zap.String("subscription_id", msg.SubscriptionID),
	)
	return nil
}

// Hook returns OnSubscribe as a usecase.SubscribeHook.
func (p *SubscriptionPublisher) Hook() usecase.SubscribeHook {
	return p.OnSubscribe
}
