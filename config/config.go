// edumanage/config/config.go
package config

import (
	"log/slog"
	"os"
	"time"
)

// JwtKey signs and verifies session tokens. Loaded once at boot.
var JwtKey []byte

// Gateway settings for the mobile-money integration.
var (
	GatewaySecret  string
	GatewayBaseURL string
)

// PendingChargeTTL is how long an unconfirmed STK push stays Pending
// before the sweep marks it Failed.
var PendingChargeTTL = 15 * time.Minute

// Load reads all required configuration from the environment.
// Missing critical values terminate the process.
func Load() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}
	JwtKey = []byte(jwtSecret)

	GatewaySecret = os.Getenv("PAYSTACK_SECRET_KEY")
	if GatewaySecret == "" {
		slog.Error("PAYSTACK_SECRET_KEY environment variable is not set")
		os.Exit(1)
	}

	GatewayBaseURL = os.Getenv("GATEWAY_BASE_URL")
	if GatewayBaseURL == "" {
		GatewayBaseURL = "https://api.paystack.co"
	}

	if ttl := os.Getenv("PENDING_CHARGE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			slog.Warn("Invalid PENDING_CHARGE_TTL, keeping default", "value", ttl, "default", PendingChargeTTL)
		} else {
			PendingChargeTTL = d
		}
	}
}
