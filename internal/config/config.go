package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide configuration, built once from the environment.
type Config struct {
	Port        int
	Environment string
	DatabaseDSN string
	RedisURL    string

	Jenni       Jenni
	Maps        Maps
	ProfitGuard ProfitGuard
	Preview     Preview

	WebhookSecret string
}

// Jenni holds upstream availability-provider settings. When any required
// field is missing the integration runs disabled and callers degrade.
type Jenni struct {
	Enabled      bool
	APIHost      string
	ClientID     string
	ClientSecret string
	OrdersURL    string
	APIKey       string
}

// Maps holds the optional places/geocoding provider settings.
type Maps struct {
	APIKey  string
	Timeout time.Duration
}

// ProfitGuard carries the unit-economics coefficients. The engine is a pure
// function of its inputs plus this set; nothing here is hardcoded downstream.
type ProfitGuard struct {
	FloorAbs         float64
	FloorPct         float64
	FeePct           float64
	CogsPct          float64
	CourierBase      float64
	CourierPerMile   float64
	TrustThreshold   float64
	ETACutoffMinutes int
}

// Preview controls the URL-preview endpoint.
type Preview struct {
	FetchTimeout    time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
}

func Load() Config {
	jenni := Jenni{
		APIHost:      os.Getenv("JENNI_API_HOST"),
		ClientID:     os.Getenv("JENNI_CLIENT_ID"),
		ClientSecret: os.Getenv("JENNI_CLIENT_SECRET"),
		OrdersURL:    os.Getenv("JENNI_ORDERS_URL"),
		APIKey:       os.Getenv("JENNI_API_KEY"),
	}
	jenni.Enabled = jenni.APIHost != "" && jenni.ClientID != "" && jenni.ClientSecret != ""

	return Config{
		Port:        envInt("PORT", 4000),
		Environment: envStr("APP_ENV", "development"),
		DatabaseDSN: envStr("DATABASE_DSN", "data/jenni.sqlite"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Jenni:       jenni,
		Maps: Maps{
			APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
			Timeout: envDuration("MAPS_HTTP_TIMEOUT_MS", 2500*time.Millisecond),
		},
		ProfitGuard: ProfitGuard{
			FloorAbs:         envFloat("PROFIT_FLOOR_ABS", 8),
			FloorPct:         envFloat("PROFIT_FLOOR_PCT", 0.12),
			FeePct:           envFloat("PROFIT_FEE_PCT", 0.08),
			CogsPct:          envFloat("DEFAULT_COGS_PCT", 0.6),
			CourierBase:      envFloat("COURIER_BASE", 7),
			CourierPerMile:   envFloat("COURIER_PER_MILE", 1.2),
			TrustThreshold:   envFloat("TRUST_THRESHOLD", 0.5),
			ETACutoffMinutes: envInt("ETA_CUTOFF_MIN", 720),
		},
		Preview: Preview{
			FetchTimeout:    envDuration("PREVIEW_FETCH_TIMEOUT_MS", 6*time.Second),
			RateLimitWindow: envDuration("PREVIEW_RATE_WINDOW_MS", time.Minute),
			RateLimitMax:    envInt("PREVIEW_RATE_MAX", 40),
		},
		WebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envStr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil {
		return def
	}
	return v
}

func envFloat(name string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(name)), 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(name string, def time.Duration) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name)))
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
