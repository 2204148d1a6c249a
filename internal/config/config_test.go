package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SYMBOL", "")
	t.Setenv("BASE_LOT", "")
	t.Setenv("CONTRACT_SIZE", "")
	t.Setenv("DAILY_INVESTMENT_LIMIT", "")
	t.Setenv("CHECK_INTERVAL_SECS", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("SYSTEM_PROMPT", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.Symbol != "EURUSD" {
		t.Fatalf("expected default symbol EURUSD, got %s", cfg.Symbol)
	}
	if cfg.BaseLot != 0.01 {
		t.Fatalf("expected default base lot 0.01, got %f", cfg.BaseLot)
	}
	if cfg.ContractSize != 1000 {
		t.Fatalf("expected default contract size 1000, got %f", cfg.ContractSize)
	}
	if cfg.DailyInvestmentLimit != 20.0 {
		t.Fatalf("expected default daily limit 20, got %f", cfg.DailyInvestmentLimit)
	}
	// The defaults must be able to afford one lot step, or the cycle could
	// never place an order out of the box.
	if cost := 0.01 * cfg.ContractSize * 1.2; cost > cfg.DailyInvestmentLimit {
		t.Fatalf("default step cost %f exceeds default daily limit %f", cost, cfg.DailyInvestmentLimit)
	}
	if cfg.CheckIntervalSecs != 300 {
		t.Fatalf("expected default check interval 300, got %d", cfg.CheckIntervalSecs)
	}
	if cfg.SystemPrompt == "" {
		t.Fatal("expected a default system prompt")
	}
	if cfg.Location() == nil {
		t.Fatal("expected a resolved location")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SYMBOL", "gbpusd")
	t.Setenv("BASE_LOT", "0.05")
	t.Setenv("DAILY_INVESTMENT_LIMIT", "100")
	t.Setenv("CHECK_INTERVAL_SECS", "60")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("BROKER_ACCOUNT", "12345")

	cfg := Load()
	if cfg.Symbol != "GBPUSD" {
		t.Fatalf("expected symbol upper-cased, got %s", cfg.Symbol)
	}
	if cfg.BaseLot != 0.05 || cfg.DailyInvestmentLimit != 100 || cfg.CheckIntervalSecs != 60 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.BrokerAccount != 12345 {
		t.Fatalf("expected broker account 12345, got %d", cfg.BrokerAccount)
	}
	if cfg.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected configured timezone, got %s", cfg.Timezone)
	}

	t.Setenv("BASE_LOT", "bad")
	t.Setenv("TIMEZONE", "Not/AZone")
	cfg = Load()
	if cfg.BaseLot != 0.01 {
		t.Fatalf("invalid base lot should fall back to default, got %f", cfg.BaseLot)
	}
	if cfg.Timezone != "UTC" {
		t.Fatalf("invalid timezone should fall back to UTC, got %s", cfg.Timezone)
	}
}
