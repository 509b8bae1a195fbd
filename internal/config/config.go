package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBDSN   string `envconfig:"DB_DSN" default:"neynegar.db"`
	LogFile string `envconfig:"LOG_FILE" default:"./neynegar.log"`

	// Payment gateway endpoints and credentials.
	GatewayRequestURL string        `envconfig:"GATEWAY_REQUEST_URL" default:"https://api.zarinpal.com/pg/v4/payment/request.json"`
	GatewayVerifyURL  string        `envconfig:"GATEWAY_VERIFY_URL" default:"https://api.zarinpal.com/pg/v4/payment/verify.json"`
	GatewayPaymentURL string        `envconfig:"GATEWAY_PAYMENT_URL" default:"https://www.zarinpal.com/pg/StartPay/"`
	GatewayMerchantID string        `envconfig:"GATEWAY_MERCHANT_ID"`
	GatewayCallback   string        `envconfig:"GATEWAY_CALLBACK_URL"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`

	// Catalog prices are kept in toman; the gateway charges rial.
	MinorUnitFactor float64 `envconfig:"CURRENCY_MINOR_UNIT_FACTOR" default:"10"`

	CheckoutTTL time.Duration `envconfig:"CHECKOUT_TTL" default:"1h"`

	// Fallback shipping formula, used when no rule matches the method.
	ShipFallbackPerGram float64 `envconfig:"SHIP_FALLBACK_PER_GRAM" default:"7"`
	ShipFallbackBase    float64 `envconfig:"SHIP_FALLBACK_BASE" default:"90000"`
}

func Load() Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("[config] %v", err)
	}
	log.Printf("[config] PORT=%s DB_DSN=%s CHECKOUT_TTL=%s FACTOR=%v", cfg.Port, cfg.DBDSN, cfg.CheckoutTTL, cfg.MinorUnitFactor)
	return cfg
}
