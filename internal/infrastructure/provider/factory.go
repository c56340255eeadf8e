package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	memoryProvider "github.com/founderlab/fl-stripe-server/internal/infrastructure/provider/memory"
	stripeProvider "github.com/founderlab/fl-stripe-server/internal/infrastructure/provider/stripe"
)

// Factory creates card gateways based on the provider type
type Factory struct {
	config  *config.StripeConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new provider factory. m may be nil to skip instrumentation.
func NewFactory(cfg *config.StripeConfig, logger *zap.Logger, m *metrics.Metrics) *Factory {
	return &Factory{
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// GetProvider returns a gateway of the given type wrapped in the configured decorators.
func (f *Factory) GetProvider(providerType provider.ProviderType) (provider.CardGateway, error) {
	var gateway provider.CardGateway
	switch providerType {
	case provider.ProviderTypeStripe:
		if f.config.APIKey == "" {
			return nil, fmt.Errorf("stripe api key not configured")
		}
		gateway = stripeProvider.NewStripeProvider(f.config.APIKey, f.logger)
	case provider.ProviderTypeMemory:
		f.logger.Warn("Using in-memory sandbox gateway; no real payments will be made")
		gateway = memoryProvider.New(memoryProvider.DefaultPlans()...)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	return f.Decorate(gateway), nil
}

// GetProviderFromString returns a gateway from a string type, defaulting to Stripe.
func (f *Factory) GetProviderFromString(providerStr string) (provider.CardGateway, error) {
	if providerStr == "" {
		providerStr = string(provider.ProviderTypeStripe)
	}
	return f.GetProvider(provider.ProviderType(providerStr))
}

// Decorate applies the circuit breaker (when enabled) and metrics to any gateway.
func (f *Factory) Decorate(gateway provider.CardGateway) provider.CardGateway {
	if f.config.Breaker.Enabled {
		gateway = WithBreaker(gateway, BreakerSettings{
			MaxFailures: f.config.Breaker.MaxFailures,
			OpenTimeout: f.config.Breaker.OpenTimeout,
		}, f.logger, f.metrics)
	}
	if f.metrics != nil {
		gateway = WithMetrics(gateway, f.metrics)
	}
	return gateway
}
