package config

import "time"

// Controller defaults, matching what existing clients of the card routes expect.
const (
	DefaultRoute     = "/api/stripe"
	DefaultCurrency  = "aud"
	DefaultMaxAmount = int64(50000)
)

// DefaultCardWhitelist is the set of card fields returned to clients.
var DefaultCardWhitelist = []string{"id", "country", "brand", "last4"}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// OwnerClaim names the claim holding the user id.
	OwnerClaim string `mapstructure:"owner_claim"`
	// AdminRole is the role claim value granting administrator access.
	AdminRole string `mapstructure:"admin_role"`
}

type StripeConfig struct {
	// Provider selects the gateway: "stripe" or "memory".
	Provider            string        `mapstructure:"provider"`
	APIKey              string        `mapstructure:"api_key"`
	Route               string        `mapstructure:"route"`
	Currency            string        `mapstructure:"currency"`
	MaxAmount           int64         `mapstructure:"max_amount"`
	CardWhitelist       []string      `mapstructure:"card_whitelist"`
	ManualAuthorization bool          `mapstructure:"manual_authorization"`
	Breaker             BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type RedisConfig struct {
	// Addr empty disables the post-subscribe publisher.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}
