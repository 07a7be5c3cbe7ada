package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration. It is built once at
// startup and passed explicitly into the pipeline; nothing mutates it after.
type Config struct {
	// Listing pages scraped each run, in order
	ListingURLs []string `validate:"min=1,dive,url"`

	// Offer validation
	MinDiscount int           `validate:"gte=0,lte=99"`
	DedupWindow time.Duration `validate:"gt=0"`

	// Fetching
	FetchAttempts  int           `validate:"gte=1"`
	BackoffMin     time.Duration `validate:"gt=0"`
	BackoffMax     time.Duration `validate:"gt=0"`
	ResolveTimeout time.Duration `validate:"gt=0"`
	CooldownTime   time.Duration `validate:"gt=0"`

	// Artifacts
	OutputFile  string `validate:"required"`
	HistoryFile string `validate:"required"`
	DebugDir    string `validate:"required"`

	// Downstream affiliate link generator; empty disables the exec publisher
	AffiliateCmd string

	// Optional winner announcement stream; empty addr disables it
	RedisAddr      string
	RedisDB        int
	RedisStream    string
	RedisStreamMax int

	// Optional memcache for per-URL rate-limit cooldowns; empty disables it
	MemcacheAddr string

	// Wall-clock run times, "15:04" form
	RunTimes []string `validate:"min=1"`

	// Environment
	Environment string
}

const defaultListingURLs = "https://www.mercadolibre.com.mx/ofertas?category=MLM1144," +
	"https://www.mercadolibre.com.mx/ofertas?category=MLM1000," +
	"https://www.mercadolibre.com.mx/ofertas?category=MLM1648," +
	"https://www.mercadolibre.com.mx/ofertas?filter=discount_over_30"

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	minDiscount, _ := strconv.Atoi(getEnv("MIN_DISCOUNT_PERCENT", "30"))
	dedupDays, _ := strconv.Atoi(getEnv("DEDUP_WINDOW_DAYS", "30"))
	fetchAttempts, _ := strconv.Atoi(getEnv("FETCH_ATTEMPTS", "3"))
	backoffMin, _ := strconv.Atoi(getEnv("BACKOFF_MIN_SECONDS", "2"))
	backoffMax, _ := strconv.Atoi(getEnv("BACKOFF_MAX_SECONDS", "5"))
	resolveTimeout, _ := strconv.Atoi(getEnv("RESOLVE_TIMEOUT_SECONDS", "10"))
	cooldown, _ := strconv.Atoi(getEnv("COOLDOWN_SECONDS", "900"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMax, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "100"))

	return Config{
		ListingURLs:    splitList(getEnv("LISTING_URLS", defaultListingURLs)),
		MinDiscount:    minDiscount,
		DedupWindow:    time.Duration(dedupDays) * 24 * time.Hour,
		FetchAttempts:  fetchAttempts,
		BackoffMin:     time.Duration(backoffMin) * time.Second,
		BackoffMax:     time.Duration(backoffMax) * time.Second,
		ResolveTimeout: time.Duration(resolveTimeout) * time.Second,
		CooldownTime:   time.Duration(cooldown) * time.Second,
		OutputFile:     getEnv("OUTPUT_FILE", "data/ofertas.json"),
		HistoryFile:    getEnv("HISTORY_FILE", "data/published_offers.json"),
		DebugDir:       getEnv("DEBUG_DIR", "data/debug"),
		AffiliateCmd:   getEnv("AFFILIATE_CMD", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisDB:        redisDB,
		RedisStream:    getEnv("REDIS_STREAM", "ofertas"),
		RedisStreamMax: redisStreamMax,
		MemcacheAddr:   getEnv("MEMCACHE_ADDR", ""),
		RunTimes:       splitList(getEnv("RUN_TIMES", "00:00,08:00,16:00")),
		Environment:    getEnv("OFERTAS_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.BackoffMax < c.BackoffMin {
		return fmt.Errorf("BACKOFF_MAX_SECONDS (%s) is below BACKOFF_MIN_SECONDS (%s)", c.BackoffMax, c.BackoffMin)
	}

	for _, rt := range c.RunTimes {
		if _, err := time.Parse("15:04", rt); err != nil {
			return fmt.Errorf("invalid run time %q: %w", rt, err)
		}
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value into trimmed parts
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
