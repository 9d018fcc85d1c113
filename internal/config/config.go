package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/logging"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

type Config struct {
	// API
	APIPort         int
	APIKey          string
	CORSAllowOrigin string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Storage
	StoreDriver string // "sqlite" or "postgres"
	SQLitePath  string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string

	// Price source
	PriceSource         string // "static", "coingecko" or "uniswap"
	CoinGeckoCoinID     string
	CoinGeckoVsCurrency string
	CoinGeckoBaseURL    string
	EthereumAPIEndpoint string
	UniswapRouter       string
	UniswapBaseToken    string
	UniswapQuoteToken   string
	UniswapBaseDecimals int
	UniswapQuoteDecimal int

	// Ladder defaults
	LadderPrice           float64
	LadderAmount          float64
	LadderMaxDecline      float64
	LadderIncreasePerGrid float64
	LadderRetainedProfits float64
	LadderMiddleGrid      bool
	LadderBigGrid         bool

	// Budget limits
	MaxTotalCapital float64
	MaxLevelAmount  float64

	// Refresher
	RefreshIntervalMinutes int
	RefreshChangePercent   float64
	WebhookURL             string
	BotName                string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:         envInt("API_PORT", 3001),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFile:  envStr("LOG_FILE", ""),
		LogJSON:  envBool("LOG_JSON", false),

		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", "sqlite")),
		SQLitePath:  envStr("SQLITE_PATH", "data/ladder.db"),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "trahn_ladder"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),

		PriceSource:         strings.ToLower(envStr("PRICE_SOURCE", "static")),
		CoinGeckoCoinID:     envStr("COINGECKO_COIN_ID", "ethereum"),
		CoinGeckoVsCurrency: envStr("COINGECKO_VS_CURRENCY", "usd"),
		CoinGeckoBaseURL:    envStr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		EthereumAPIEndpoint: envStr("ETHEREUM_API_ENDPOINT", ""),
		UniswapRouter:       envStr("UNISWAP_ROUTER_ADDRESS", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		UniswapBaseToken:    envStr("UNISWAP_BASE_TOKEN", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		UniswapQuoteToken:   envStr("UNISWAP_QUOTE_TOKEN", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		UniswapBaseDecimals: envInt("UNISWAP_BASE_DECIMALS", 18),
		UniswapQuoteDecimal: envInt("UNISWAP_QUOTE_DECIMALS", 6),

		LadderPrice:           envFloat("LADDER_PRICE", 1),
		LadderAmount:          envFloat("LADDER_AMOUNT", 10000),
		LadderMaxDecline:      envFloat("LADDER_MAX_DECLINE", 0.4),
		LadderIncreasePerGrid: envFloat("LADDER_INCREASE_PER_GRID", 0.05),
		LadderRetainedProfits: envFloat("LADDER_RETAINED_PROFITS", 1),
		LadderMiddleGrid:      envBool("LADDER_MIDDLE_GRID", true),
		LadderBigGrid:         envBool("LADDER_BIG_GRID", true),

		MaxTotalCapital: envFloat("MAX_TOTAL_CAPITAL", 0),
		MaxLevelAmount:  envFloat("MAX_LEVEL_AMOUNT", 0),

		RefreshIntervalMinutes: envInt("REFRESH_INTERVAL_MINUTES", 0),
		RefreshChangePercent:   envFloat("REFRESH_CHANGE_PERCENT", 5),
		WebhookURL:             envStr("WEBHOOK_URL", ""),
		BotName:                envStr("BOT_NAME", "TrahnLadder"),
	}

	return cfg, nil
}

// LadderDefaults returns the configured ladder parameters.
func (c *Config) LadderDefaults() strategy.LadderParams {
	return strategy.LadderParams{
		Price:                   c.LadderPrice,
		Amount:                  c.LadderAmount,
		MaxPercentOfDecline:     c.LadderMaxDecline,
		IncreasePercentPerGrid:  c.LadderIncreasePerGrid,
		NumberOfRetainedProfits: c.LadderRetainedProfits,
		HasMiddleGrid:           c.LadderMiddleGrid,
		HasBigGrid:              c.LadderBigGrid,
	}
}

func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, OutputFile: c.LogFile, JSON: c.LogJSON}
}

func (c *Config) Validate(log logrus.FieldLogger) error {
	var errs []string

	if err := strategy.Validate(c.LadderDefaults()); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.StoreDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.DBUser == "" {
			errs = append(errs, "DB_USER is required for the postgres store")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be sqlite or postgres, got %q", c.StoreDriver))
	}
	switch c.PriceSource {
	case "static", "coingecko":
	case "uniswap":
		if c.EthereumAPIEndpoint == "" {
			errs = append(errs, "ETHEREUM_API_ENDPOINT is required for the uniswap price source")
		}
	default:
		errs = append(errs, fmt.Sprintf("PRICE_SOURCE must be static, coingecko or uniswap, got %q", c.PriceSource))
	}
	if c.RefreshChangePercent < 0 {
		errs = append(errs, "REFRESH_CHANGE_PERCENT must be >= 0")
	}

	if c.APIKey == "" {
		log.Warn("API_KEY not set, REST API has no authentication")
	}
	if c.MaxTotalCapital == 0 && c.MaxLevelAmount == 0 {
		log.Warn("MAX_TOTAL_CAPITAL and MAX_LEVEL_AMOUNT are both 0, no budget limits active")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print(log logrus.FieldLogger) {
	p := c.LadderDefaults()
	log.WithFields(logrus.Fields{
		"price":           p.Price,
		"amount":          p.Amount,
		"maxDecline":      p.MaxPercentOfDecline,
		"increasePerGrid": p.IncreasePercentPerGrid,
		"retainedProfits": p.NumberOfRetainedProfits,
		"middleGrid":      p.HasMiddleGrid,
		"bigGrid":         p.HasBigGrid,
	}).Info("ladder defaults")
	log.WithFields(logrus.Fields{
		"store":       c.StoreDriver,
		"priceSource": c.PriceSource,
		"apiPort":     c.APIPort,
		"auth":        boolLabel(c.APIKey != "", "enabled", "disabled"),
		"refresh":     boolLabel(c.RefreshIntervalMinutes > 0, fmt.Sprintf("every %dm", c.RefreshIntervalMinutes), "off"),
		"webhook":     boolLabel(c.WebhookURL != "", "configured", "not set"),
	}).Info("service configuration")
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
