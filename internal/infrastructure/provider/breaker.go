package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
)

// BreakerSettings configures the gateway circuit breaker.
type BreakerSettings struct {
	Name string
	// MaxFailures consecutive outage-type failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// breakerGateway fails fast while the remote provider is unavailable. Client errors (4xx) and calls
// whose context ended are returned unchanged and never count as failures.
type breakerGateway struct {
	next provider.CardGateway
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps next in a circuit breaker. m may be nil.
func WithBreaker(next provider.CardGateway, settings BreakerSettings, logger *zap.Logger, m *metrics.Metrics) provider.CardGateway {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.Name == "" {
		settings.Name = next.GetProviderName()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return &breakerGateway{next: next, cb: cb}
}

func (b *breakerGateway) call(ctx context.Context, fn func() error) error {
	var clientErr error
	_, err := b.cb.Execute(func() (interface{}, error) {
		err := fn()
		if err == nil {
			return nil, nil
		}
		var providerErr *provider.ProviderError
		if (errors.As(err, &providerErr) && providerErr.IsClientError()) || ctx.Err() != nil {
			clientErr = err
			return nil, nil
		}
		return nil, err
	})
	if clientErr != nil {
		return clientErr
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &provider.ProviderError{
			Code:       "circuit_open",
			Message:    "payment provider temporarily unavailable",
			Details:    err.Error(),
			StatusCode: http.StatusServiceUnavailable,
		}
	}
	return err
}

func (b *breakerGateway) GetProviderName() string {
	return b.next.GetProviderName()
}

func (b *breakerGateway) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (customer *provider.Customer, err error) {
	err = b.call(ctx, func() (e error) {
		customer, e = b.next.CreateCustomer(ctx, req)
		return e
	})
	return customer, err
}

func (b *breakerGateway) RetrieveCustomer(ctx context.Context, customerID string) (customer *provider.Customer, err error) {
	err = b.call(ctx, func() (e error) {
		customer, e = b.next.RetrieveCustomer(ctx, customerID)
		return e
	})
	return customer, err
}

func (b *breakerGateway) AddCard(ctx context.Context, customerID, token string) (card *provider.Card, err error) {
	err = b.call(ctx, func() (e error) {
		card, e = b.next.AddCard(ctx, customerID, token)
		return e
	})
	return card, err
}

func (b *breakerGateway) ListCards(ctx context.Context, customerID string) (cards []*provider.Card, err error) {
	err = b.call(ctx, func() (e error) {
		cards, e = b.next.ListCards(ctx, customerID)
		return e
	})
	return cards, err
}

func (b *breakerGateway) SetDefaultCard(ctx context.Context, customerID, cardID string) (customer *provider.Customer, err error) {
	err = b.call(ctx, func() (e error) {
		customer, e = b.next.SetDefaultCard(ctx, customerID, cardID)
		return e
	})
	return customer, err
}

func (b *breakerGateway) DeleteCard(ctx context.Context, customerID, cardID string) error {
	return b.call(ctx, func() error {
		return b.next.DeleteCard(ctx, customerID, cardID)
	})
}

func (b *breakerGateway) Charge(ctx context.Context, req *provider.ChargeRequest) (charge *provider.Charge, err error) {
	err = b.call(ctx, func() (e error) {
		charge, e = b.next.Charge(ctx, req)
		return e
	})
	return charge, err
}

func (b *breakerGateway) ListPlans(ctx context.Context) (plans []*provider.Plan, err error) {
	err = b.call(ctx, func() (e error) {
		plans, e = b.next.ListPlans(ctx)
		return e
	})
	return plans, err
}

func (b *breakerGateway) CreateSubscription(ctx context.Context, customerID, planID string) (sub *provider.Subscription, err error) {
	err = b.call(ctx, func() (e error) {
		sub, e = b.next.CreateSubscription(ctx, customerID, planID)
		return e
	})
	return sub, err
}

func (b *breakerGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (sub *provider.Subscription, err error) {
	err = b.call(ctx, func() (e error) {
		sub, e = b.next.RetrieveSubscription(ctx, subscriptionID)
		return e
	})
	return sub, err
}
