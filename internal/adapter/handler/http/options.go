package http

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/domain/repository"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	providerFactory "github.com/founderlab/fl-stripe-server/internal/infrastructure/provider"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
)

// ControllerOptions configures the card controller. Zero values fall back to the defaults in
// internal/config.
type ControllerOptions struct {
	// Route is the path prefix the controller mounts on. Defaults to /api/stripe.
	Route string
	// ManualAuthorization leaves ownership checks to the Auth chain instead of the built-in
	// access middleware.
	ManualAuthorization bool
	CardWhitelist       []string
	Currency            string
	MaxAmount           int64

	// APIKey is used to build a Stripe gateway when Gateway is nil.
	APIKey  string
	Gateway provider.CardGateway

	Customers   repository.StripeCustomerRepository
	OnSubscribe usecase.SubscribeHook

	// Auth runs before every route except the plan listing. It must store the caller with
	// auth.SetPrincipal.
	Auth []echo.MiddlewareFunc

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (o *ControllerOptions) applyDefaults() error {
	if o.Customers == nil {
		return fmt.Errorf("stripe controller requires a customer repository")
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Route == "" {
		o.Route = config.DefaultRoute
	}
	if len(o.CardWhitelist) == 0 {
		o.CardWhitelist = config.DefaultCardWhitelist
	}
	if o.Currency == "" {
		o.Currency = config.DefaultCurrency
	}
	if o.MaxAmount <= 0 {
		o.MaxAmount = config.DefaultMaxAmount
	}

	if o.Gateway == nil {
		factory := providerFactory.NewFactory(&config.StripeConfig{APIKey: o.APIKey}, o.Logger, o.Metrics)
		gateway, err := factory.GetProvider(provider.ProviderTypeStripe)
		if err != nil {
			return fmt.Errorf("failed to create stripe gateway: %w", err)
		}
		o.Gateway = gateway
	}
	return nil
}
