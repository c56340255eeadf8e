package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/provider/memory"
)

// flakyGateway fails ListPlans with the configured error and counts calls.
type flakyGateway struct {
	provider.CardGateway
	err   error
	calls int
}

func (g *flakyGateway) ListPlans(ctx context.Context) ([]*provider.Plan, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.CardGateway.ListPlans(ctx)
}

func TestBreaker_OpensOnOutages(t *testing.T) {
	outage := &provider.ProviderError{Code: "api_error", Message: "stripe: list plans", StatusCode: http.StatusInternalServerError}
	flaky := &flakyGateway{CardGateway: memory.New(), err: outage}

	gw := WithBreaker(flaky, BreakerSettings{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute}, zap.NewNop(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := gw.ListPlans(ctx)
		assert.ErrorIs(t, err, outage)
	}

	_, err := gw.ListPlans(ctx)
	var providerErr *provider.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "circuit_open", providerErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, providerErr.StatusCode)
	assert.Equal(t, 2, flaky.calls, "open breaker must not call the provider")
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	declined := &provider.ProviderError{Code: "card_declined", Message: "stripe: list plans", StatusCode: http.StatusPaymentRequired}
	flaky := &flakyGateway{CardGateway: memory.New(), err: declined}

	gw := WithBreaker(flaky, BreakerSettings{MaxFailures: 1}, zap.NewNop(), nil)

	for i := 0; i < 5; i++ {
		_, err := gw.ListPlans(context.Background())
		assert.ErrorIs(t, err, declined)
	}
	assert.Equal(t, 5, flaky.calls)
}

func TestBreaker_CancelledCallsDoNotTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	timeout := &provider.ProviderError{
		Code:       "api_connection_error",
		Message:    "stripe: list plans",
		StatusCode: http.StatusBadGateway,
		Err:        ctx.Err(),
	}
	flaky := &flakyGateway{CardGateway: memory.New(), err: timeout}
	gw := WithBreaker(flaky, BreakerSettings{MaxFailures: 1, OpenTimeout: time.Minute}, zap.NewNop(), nil)

	for i := 0; i < 3; i++ {
		_, err := gw.ListPlans(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, 3, flaky.calls)

	flaky.err = nil
	plans, err := gw.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestWithMetrics_CountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	flaky := &flakyGateway{CardGateway: memory.New(), err: errors.New("boom")}
	gw := WithMetrics(flaky, m)

	_, _ = gw.ListPlans(context.Background())
	flaky.err = nil
	_, _ = gw.ListPlans(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("memory", "list_plans", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("memory", "list_plans", "success")))
}

func TestFactory_GetProvider(t *testing.T) {
	logger := zap.NewNop()

	f := NewFactory(&config.StripeConfig{}, logger, nil)
	_, err := f.GetProvider(provider.ProviderTypeStripe)
	assert.ErrorContains(t, err, "api key")

	_, err = f.GetProviderFromString("paypal")
	assert.ErrorContains(t, err, "unsupported provider type")

	gw, err := f.GetProviderFromString("memory")
	require.NoError(t, err)
	assert.Equal(t, "memory", gw.GetProviderName())

	f = NewFactory(&config.StripeConfig{APIKey: "sk_test_123", Breaker: config.BreakerConfig{Enabled: true}}, logger, metrics.New(prometheus.NewRegistry()))
	gw, err = f.GetProviderFromString("")
	require.NoError(t, err)
	assert.Equal(t, "stripe", gw.GetProviderName())
	assert.IsType(t, &instrumentedGateway{}, gw)
}
