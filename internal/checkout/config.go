package checkout

import (
	"time"

	"storefront/internal/checkout/domain"
	"storefront/internal/common/money"
	"storefront/internal/shipping"
)

// Config holds checkout configuration
type Config struct {
	FreeShippingAbove  float64       `envconfig:"CHECKOUT_FREE_SHIPPING_ABOVE" default:"10000"`
	DefaultShippingFee float64       `envconfig:"CHECKOUT_DEFAULT_SHIPPING_FEE" default:"750"`
	MaxSessions        int           `envconfig:"CHECKOUT_MAX_SESSIONS" default:"10000"`
	Country            string        `envconfig:"CHECKOUT_COUNTRY" default:"Sri Lanka"`
	FetchTimeout       time.Duration `envconfig:"CHECKOUT_FETCH_TIMEOUT" default:"10s"`
}

// DefaultConfig returns the defaults used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		FreeShippingAbove:  10000,
		DefaultShippingFee: 750,
		MaxSessions:        10000,
		Country:            domain.DefaultCountry,
		FetchTimeout:       10 * time.Second,
	}
}

// ShippingPolicy converts the configured thresholds.
func (c Config) ShippingPolicy() shipping.Policy {
	return shipping.Policy{
		FreeAbove:  money.FromMajor(c.FreeShippingAbove),
		DefaultFee: money.FromMajor(c.DefaultShippingFee),
	}
}
