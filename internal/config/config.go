package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	APIKey          string
	WebhookURL      string
	BotName         string
	CORSAllowOrigin string
	APIPort         int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Exchange price sources
	BinanceBaseURL   string
	CoinGeckoBaseURL string

	// Gas tank
	DefaultFeeRate        float64
	DefaultInitialBalance float64

	// Monitor
	MonitorEnabled           bool
	MonitorIntervalSeconds   int
	PriceFetchTimeoutSeconds int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		APIKey:          envStr("API_KEY", ""),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "QuantumMonitor"),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
		APIPort:         envInt("API_PORT", 3001),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "quantum_trading"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Exchange
		BinanceBaseURL:   envStr("BINANCE_BASE_URL", "https://api.binance.com"),
		CoinGeckoBaseURL: envStr("COINGECKO_BASE_URL", "https://api.coingecko.com"),

		// Gas tank
		DefaultFeeRate:        envFloat("GAS_TANK_FEE_RATE", 0.20),
		DefaultInitialBalance: envFloat("GAS_TANK_INITIAL_BALANCE", 100),

		// Monitor
		MonitorEnabled:           envBool("MONITOR_ENABLED", true),
		MonitorIntervalSeconds:   envInt("MONITOR_INTERVAL_SECONDS", 30),
		PriceFetchTimeoutSeconds: envInt("PRICE_FETCH_TIMEOUT_SECONDS", 10),

		// Logging
		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.DefaultFeeRate < 0 || c.DefaultFeeRate >= 1 {
		errs = append(errs, "GAS_TANK_FEE_RATE must be in [0, 1)")
	}
	if c.MonitorIntervalSeconds <= 0 {
		errs = append(errs, "MONITOR_INTERVAL_SECONDS must be positive")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}
	if c.WebhookURL == "" {
		fmt.Println("[WARN] WEBHOOK_URL not set — position close alerts disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Quantum Trade Backend Configuration ===")
	fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	fmt.Println("--------------------------------------")
	fmt.Println("Position Monitor:")
	fmt.Printf("  Enabled: %v\n", c.MonitorEnabled)
	fmt.Printf("  Interval: %ds\n", c.MonitorIntervalSeconds)
	fmt.Println("  Price sources: binance -> coingecko")
	fmt.Println("--------------------------------------")
	fmt.Println("Gas Tank:")
	fmt.Printf("  Default fee rate: %.0f%%\n", c.DefaultFeeRate*100)
	fmt.Printf("  Default initial balance: $%.2f\n", c.DefaultInitialBalance)
	fmt.Println("--------------------------------------")
	fmt.Printf("Webhook alerts: %s\n", boolLabel(c.WebhookURL != "", "configured", "disabled"))
	fmt.Printf("API auth: %s\n", boolLabel(c.APIKey != "", "enabled", "disabled"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
