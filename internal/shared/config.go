package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration
	MySQLDSN       string // empty disables the failure log
	RedisAddr      string // empty disables the lookup cache
	RedisDB        int
	RedisPass      string
	EANBase        string
	EANKey         string
	EANCID         string
	EANRPS         int
	SuggestLimit   int
	CacheTTL       time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		MySQLDSN:       os.Getenv("MYSQL_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		EANBase:        env("EAN_BASE_URL", "https://api.ean.com/ean-services/rs/hotel/v3"),
		EANKey:         env("EAN_API_KEY", ""),
		EANCID:         env("EAN_CID", ""),
		EANRPS:         atoi("EAN_RPS", 5),
		SuggestLimit:   atoi("SUGGEST_LIMIT", 6),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.EANKey == "" {
		log.Warn().Msg("EAN_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
