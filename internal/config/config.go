package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv   string
	AppAddr  string
	LogLevel string

	JWTSigningKey string

	// DispatchPropagation is "all" or "stop_on_false".
	DispatchPropagation string
	AuditEnabled        bool

	RedisAddr          string
	RedisDB            int
	RateLimitPerMinute int
}

func Load() (Config, error) {
	c := Config{}

	c.AppEnv = getEnv("APP_ENV", "development")
	c.AppAddr = getEnv("APP_ADDR", ":8080")
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", ""))

	c.JWTSigningKey = getEnv("JWT_SIGNING_KEY", "dev-insecure-change-this")

	c.DispatchPropagation = strings.ToLower(getEnv("DISPATCH_PROPAGATION", "all"))
	switch c.DispatchPropagation {
	case "all", "stop_on_false":
	default:
		return Config{}, fmt.Errorf("DISPATCH_PROPAGATION must be 'all' or 'stop_on_false', got %q", c.DispatchPropagation)
	}
	c.AuditEnabled = getBool("AUDIT_ENABLED", true)

	// empty RedisAddr keeps rate limiting in memory
	c.RedisAddr = getEnv("REDIS_ADDR", "")
	c.RedisDB = getInt("REDIS_DB", 0)
	c.RateLimitPerMinute = getInt("RATE_LIMIT_PER_MINUTE", 120)

	return c, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (c Config) String() string {
	redis := c.RedisAddr
	if redis == "" {
		redis = "memory"
	}
	return fmt.Sprintf("env=%s addr=%s propagation=%s audit=%t ratelimit=%s/%d", c.AppEnv, c.AppAddr, c.DispatchPropagation, c.AuditEnabled, redis, c.RateLimitPerMinute)
}
