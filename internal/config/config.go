package config

import (
	"fmt"
	"strings"

	"github.com/founderlab/fl-stripe-server/pkg/config"
	"github.com/founderlab/fl-stripe-server/pkg/logger"
)

// ServiceName is the config file name and default service name.
const ServiceName = "stripe-server"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// LoadOptions controls where the configuration is read from.
type LoadOptions struct {
	// File overrides the configs/<env>/stripe-server.yaml lookup.
	File string
	// Optional allows running on defaults and environment only.
	Optional bool
}

// LoadConfig reads the YAML config file, applies FL_STRIPE_* and conventional environment
// overrides, fills defaults and validates the result.
func LoadConfig(opts LoadOptions) (*Config, error) {
	var cfg Config
	err := config.Load(ServiceName, &cfg, config.Options{
		EnvPrefix: "fl_stripe",
		Defaults:  defaults(),
		BindEnv: map[string]string{
			"stripe.api_key": "STRIPE_API_KEY",
			"database.url":   "DATABASE_URL",
			"redis.addr":     "REDIS_ADDR",
			"jwt.secret":     "JWT_SECRET",
		},
		File:     opts.File,
		Optional: opts.Optional,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":        ServiceName,
		"service.environment": "dev",

		"server.http.host":     "0.0.0.0",
		"server.http.port":     8080,
		"server.grpc.host":     "0.0.0.0",
		"server.grpc.port":     9090,
		"server.grpc.enabled":  true,
		"server.cors.origins":  []string{"*"},
		"server.shutdown_wait": "10s",

		"database.driver":             DriverSQLite,
		"database.sqlite_path":        "data/stripe-server.db",
		"database.port":               5432,
		"database.sslmode":            "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "30m",
		"database.conn_max_idle_time": "5m",
		"database.auto_migrate":       true,

		"log.level":  "info",
		"log.format": "json",
		"log.output": "stdout",

		"jwt.owner_claim": "sub",
		"jwt.admin_role":  "admin",

		"stripe.provider":             "stripe",
		"stripe.route":                DefaultRoute,
		"stripe.currency":             DefaultCurrency,
		"stripe.max_amount":           DefaultMaxAmount,
		"stripe.card_whitelist":       DefaultCardWhitelist,
		"stripe.manual_authorization": false,
		"stripe.breaker.enabled":      false,
		"stripe.breaker.max_failures": 5,
		"stripe.breaker.open_timeout": "30s",

		"redis.db":      0,
		"redis.channel": "stripe.subscriptions",
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be %q or %q", DriverPostgres, DriverSQLite))
	}
	if c.Stripe.MaxAmount <= 0 {
		problems = append(problems, "stripe.max_amount must be positive")
	}
	if c.Stripe.Currency == "" {
		problems = append(problems, "stripe.currency is required")
	}
	if len(c.Stripe.CardWhitelist) == 0 {
		problems = append(problems, "stripe.card_whitelist must name at least one field")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
