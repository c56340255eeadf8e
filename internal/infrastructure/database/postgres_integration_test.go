//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
	domainErrors "github.com/founderlab/fl-stripe-server/internal/domain/errors"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("stripe_test"),
		postgres.WithUsername("stripe"),
		postgres.WithPassword("stripe_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresRepositories(t *testing.T) {
	dsn := startPostgres(t)
	logger := zap.NewNop()

	repos, err := Open(&config.DatabaseConfig{
		Driver:      config.DriverPostgres,
		URL:         dsn,
		AutoMigrate: true,
	}, logger)
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	missing, err := repos.Customers.FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	customer := &entity.StripeCustomer{OwnerID: "user-1", StripeID: "cus_1"}
	require.NoError(t, repos.Customers.Save(ctx, customer))
	assert.NotZero(t, customer.ID)

	customer.SubscriptionID = "sub_1"
	require.NoError(t, repos.Customers.Save(ctx, customer))

	found, err := repos.Customers.FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "sub_1", found.SubscriptionID)

	err = repos.Customers.Save(ctx, &entity.StripeCustomer{OwnerID: "user-1", StripeID: "cus_2"})
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateOwner)

	subscribed := true
	rows, total, err := repos.Customers.Query(ctx, entity.CustomerQuery{HasSubscription: &subscribed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)
}
