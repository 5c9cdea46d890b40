package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"crypto-live-sheet/internal/sheet"
)

type Config struct {
	CoinGeckoPollSecs    int
	CoinGeckoTimeoutSecs int
	WorkbookPath         string

	RedisURL string

	HTTPEnabled bool
	HTTPAddr    string
	HTTPAPIKey  string
}

func Load() *Config {
	cfg := &Config{
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, report cache disabled")
	}

	cfg.CoinGeckoPollSecs = positiveInt("COINGECKO_POLL_SECS", 60)
	cfg.CoinGeckoTimeoutSecs = positiveInt("COINGECKO_TIMEOUT_SECS", 30)

	cfg.WorkbookPath = strings.TrimSpace(os.Getenv("WORKBOOK_PATH"))
	if cfg.WorkbookPath == "" {
		cfg.WorkbookPath = sheet.DefaultPath
	}
	if !strings.HasSuffix(strings.ToLower(cfg.WorkbookPath), ".xlsx") {
		log.Printf("Warning: WORKBOOK_PATH=%q is not an .xlsx file, appending extension", cfg.WorkbookPath)
		cfg.WorkbookPath += ".xlsx"
	}

	cfg.HTTPEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("HTTP_ENABLED")), "false")

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.HTTPAPIKey = strings.TrimSpace(os.Getenv("HTTP_API_KEY"))

	return cfg
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, def)
		return def
	}
	return n
}
