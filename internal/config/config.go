package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	StorageBackend        string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisPrefix           string
	AuthRequired          bool
	AuthSecret            string
	AccessTokenTTLMinutes int
	TaxRatePercent        decimal.Decimal
	ReportTopN            int
	// Timezone names the IANA zone whose calendar day the reports use.
	Timezone              string
	Location              *time.Location
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "720"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 720
	}
	topN, err := strconv.Atoi(getEnv("REPORT_TOP_N", "5"))
	if err != nil || topN < 1 {
		topN = 5
	}
	taxRate, err := decimal.NewFromString(getEnv("TAX_RATE_PERCENT", "16"))
	if err != nil || taxRate.IsNegative() {
		taxRate = decimal.NewFromInt(16)
	}
	authRequired, err := strconv.ParseBool(getEnv("AUTH_REQUIRED", "true"))
	if err != nil {
		authRequired = true
	}

	timezone := getEnv("TIMEZONE", "Africa/Nairobi")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = nil
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		StorageBackend:        strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		RedisPrefix:           getEnv("REDIS_PREFIX", "galaxyinn:"),
		AuthRequired:          authRequired,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		TaxRatePercent:        taxRate,
		ReportTopN:            topN,
		Timezone:              timezone,
		Location:              loc,
	}

	// Without an explicit backend, a configured database wins over redis.
	if cfg.StorageBackend == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.StorageBackend = BackendPostgres
		case cfg.RedisAddr != "":
			cfg.StorageBackend = BackendRedis
		default:
			cfg.StorageBackend = BackendMemory
		}
	}

	return cfg
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres needs DATABASE_URL")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STORAGE_BACKEND=redis needs REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.Location == nil {
		return fmt.Errorf("unknown TIMEZONE %q", c.Timezone)
	}
	if c.AuthRequired && len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters when AUTH_REQUIRED is on")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
