package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/entity"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stripe.db")

	repos, err := Open(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repos.Customers.Save(ctx, &entity.StripeCustomer{OwnerID: "u1", StripeID: "cus_1"}))
	require.NoError(t, repos.Close())

	// Reopening keeps the data and re-applies the schema without error.
	repos, err = Open(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}, zap.NewNop())
	require.NoError(t, err)
	defer repos.Close()

	found, err := repos.Customers.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "cus_1", found.StripeID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}
