package shared_test

import (
	"testing"
	"time"

	"ean_hotel/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "REDIS_ADDR", "MYSQL_DSN", "SUGGEST_LIMIT", "CACHE_TTL_SECONDS"} {
		t.Setenv(k, "")
	}
	c := shared.Load()
	if c.AppEnv != "prod" || c.HTTPAddr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.RedisAddr != "" || c.MySQLDSN != "" {
		t.Fatalf("optional backends should be disabled by default: %+v", c)
	}
	if c.SuggestLimit != 6 || c.CacheTTL != 15*time.Minute {
		t.Fatalf("unexpected suggest defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("EAN_RPS", "12")
	t.Setenv("SUGGEST_LIMIT", "not-a-number")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("REDIS_ADDR", "localhost:6380")

	c := shared.Load()
	if c.AppEnv != "dev" || c.EANRPS != 12 || c.RedisAddr != "localhost:6380" {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.SuggestLimit != 6 {
		t.Fatalf("bad number should fall back to default, got %d", c.SuggestLimit)
	}
	if c.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected ttl %v", c.CacheTTL)
	}
}
