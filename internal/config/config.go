package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSystemPrompt = `You are a professional forex trading advisor with expertise in EUR/USD trading.

Your role is to analyze the provided market data and current positions to make a clear trading recommendation.

Consider these key factors when making your decision:
1. Current market trend and momentum
2. Spread and transaction costs
3. Existing positions and their profitability
4. Risk management (avoid overexposure in one direction)

Be disciplined and conservative with your recommendations.
Don't chase losses or suggest doubling down on losing positions.
Only recommend entering the market when conditions are favorable.
No other information should be provided.`

type Config struct {
	DatabaseURL      string
	RedisURL         string
	TelegramBotToken string
	APIKey           string

	BrokerURL      string
	BrokerAccount  int64
	BrokerPassword string
	BrokerServer   string

	Symbol               string
	BaseLot              float64
	ContractSize         float64
	Deviation            int
	DailyProfitTarget    float64
	DailyInvestmentLimit float64
	CheckIntervalSecs    int
	Timezone             string

	OpenAIAPIKey string
	OpenAIModel  string
	SystemPrompt string

	NewsCalendarURL string
	NewsHeadlines   int
	NewsMaxRetries  int
	NewsRefreshCron string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           os.Getenv("API_KEY"),
		BrokerURL:        strings.TrimSpace(os.Getenv("BROKER_GATEWAY_URL")),
		BrokerPassword:   os.Getenv("BROKER_PASSWORD"),
		BrokerServer:     os.Getenv("BROKER_SERVER"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.BrokerURL == "" {
		log.Println("Warning: BROKER_GATEWAY_URL not set, defaulting to http://localhost:5050")
		cfg.BrokerURL = "http://localhost:5050"
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, decision engine will fail open to NO_TRADE")
	}

	cfg.BrokerAccount = 0
	if v := strings.TrimSpace(os.Getenv("BROKER_ACCOUNT")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.BrokerAccount = n
		}
	}

	cfg.Symbol = strings.ToUpper(strings.TrimSpace(os.Getenv("SYMBOL")))
	if cfg.Symbol == "" {
		cfg.Symbol = "EURUSD"
	}

	cfg.BaseLot = 0.01
	if v := strings.TrimSpace(os.Getenv("BASE_LOT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.BaseLot = n
		}
	}

	// Micro contract by default so the default daily investment limit can
	// afford at least one 0.01 lot step. Standard-lot accounts set
	// CONTRACT_SIZE=100000 and a matching DAILY_INVESTMENT_LIMIT.
	cfg.ContractSize = 1000
	if v := strings.TrimSpace(os.Getenv("CONTRACT_SIZE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.ContractSize = n
		}
	}

	cfg.Deviation = 10
	if v := strings.TrimSpace(os.Getenv("ORDER_DEVIATION_POINTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Deviation = n
		}
	}

	cfg.DailyProfitTarget = 20.0
	if v := strings.TrimSpace(os.Getenv("DAILY_PROFIT_TARGET")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.DailyProfitTarget = n
		}
	}

	cfg.DailyInvestmentLimit = 20.0
	if v := strings.TrimSpace(os.Getenv("DAILY_INVESTMENT_LIMIT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.DailyInvestmentLimit = n
		}
	}

	cfg.CheckIntervalSecs = 300
	if v := strings.TrimSpace(os.Getenv("CHECK_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CheckIntervalSecs = n
		}
	}

	cfg.Timezone = strings.TrimSpace(os.Getenv("TIMEZONE"))
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		log.Printf("Warning: invalid TIMEZONE %q, defaulting to UTC", cfg.Timezone)
		cfg.Timezone = "UTC"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SystemPrompt = os.Getenv("SYSTEM_PROMPT")
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	cfg.NewsCalendarURL = strings.TrimSpace(os.Getenv("NEWS_CALENDAR_URL"))
	if cfg.NewsCalendarURL == "" {
		cfg.NewsCalendarURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"
	}

	cfg.NewsHeadlines = 5
	if v := strings.TrimSpace(os.Getenv("NEWS_HEADLINES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsHeadlines = n
		}
	}

	cfg.NewsMaxRetries = 3
	if v := strings.TrimSpace(os.Getenv("NEWS_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsMaxRetries = n
		}
	}

	cfg.NewsRefreshCron = strings.TrimSpace(os.Getenv("NEWS_REFRESH_CRON"))
	if cfg.NewsRefreshCron == "" {
		cfg.NewsRefreshCron = "0 */6 * * *"
	}

	return cfg
}

// Location resolves the configured timezone. Load already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CheckInterval is the pause between trade cycles.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSecs) * time.Second
}
