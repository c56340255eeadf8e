// Package app wires configuration, storage, the card gateway and the servers into a runnable
// service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/founderlab/fl-stripe-server/internal/adapter/event"
	handlers "github.com/founderlab/fl-stripe-server/internal/adapter/handler/http"
	"github.com/founderlab/fl-stripe-server/internal/config"
	"github.com/founderlab/fl-stripe-server/internal/domain/provider"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/database"
	grpcServer "github.com/founderlab/fl-stripe-server/internal/infrastructure/grpc"
	httpServer "github.com/founderlab/fl-stripe-server/internal/infrastructure/http"
	"github.com/founderlab/fl-stripe-server/internal/infrastructure/metrics"
	providerFactory "github.com/founderlab/fl-stripe-server/internal/infrastructure/provider"
	"github.com/founderlab/fl-stripe-server/internal/middleware/auth"
	"github.com/founderlab/fl-stripe-server/internal/usecase"
	"github.com/founderlab/fl-stripe-server/pkg/messaging"
)

// App owns every long-lived resource of a running server.
type App struct {
	config   *config.Config
	logger   *zap.Logger
	repos    *database.Repositories
	redis    messaging.RedisClient
	registry *prometheus.Registry

	Gateway    provider.CardGateway
	Controller *handlers.StripeController
	HTTP       *httpServer.Server
	GRPC       *grpcServer.Server
}

// New opens storage, builds the gateway and the optional Redis publisher, and prepares the
// servers. Call Close when done, even if Run was never called.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required to serve the API")
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		registry: metrics.NewRegistry(),
	}
	m := metrics.New(a.registry)

	repos, err := database.Open(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.repos = repos

	a.Gateway, err = providerFactory.NewFactory(&cfg.Stripe, logger, m).GetProviderFromString(cfg.Stripe.Provider)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create card gateway: %w", err)
	}

	var onSubscribe usecase.SubscribeHook
	if cfg.Redis.Addr != "" {
		a.redis, err = messaging.NewRedisClient(ctx, messaging.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		onSubscribe = event.NewSubscriptionPublisher(a.redis, cfg.Redis.Channel, logger, m).Hook()
		logger.Info("Publishing subscription events", zap.String("channel", cfg.Redis.Channel))
	}

	a.Controller, err = handlers.NewStripeController(handlers.ControllerOptions{
		Route:               cfg.Stripe.Route,
		ManualAuthorization: cfg.Stripe.ManualAuthorization,
		CardWhitelist:       cfg.Stripe.CardWhitelist,
		Currency:            cfg.Stripe.Currency,
		MaxAmount:           cfg.Stripe.MaxAmount,
		Gateway:             a.Gateway,
		Customers:           repos.Customers,
		OnSubscribe:         onSubscribe,
		Auth: []echo.MiddlewareFunc{auth.JWTMiddleware(auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			OwnerClaim: cfg.JWT.OwnerClaim,
			AdminRole:  cfg.JWT.AdminRole,
			Logger:     logger,
		})},
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.HTTP = httpServer.NewServer(cfg, logger, a.Controller, a.registry)
	if cfg.Server.GRPC.Enabled {
		a.GRPC = grpcServer.NewServer(cfg, logger)
	}
	return a, nil
}

// Run serves until ctx is cancelled or a server fails, then shuts everything down within the
// configured grace period.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.HTTP.Start)
	if a.GRPC != nil {
		g.Go(a.GRPC.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down servers...")

		wait := a.config.Server.ShutdownWait
		if wait <= 0 {
			wait = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()

		if a.GRPC != nil {
			a.GRPC.SetServing(false)
			if err := a.GRPC.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("Failed to shutdown gRPC server", zap.Error(err))
			}
		}
		if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Failed to shutdown HTTP server", zap.Error(err))
			return err
		}

		a.logger.Info("Servers shut down successfully")
		return nil
	})

	return g.Wait()
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Failed to close redis client", zap.Error(err))
			firstErr = err
		}
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.logger.Error("Failed to close database connection", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
