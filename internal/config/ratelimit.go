package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig configures the Redis token bucket.  The public intake
// form and the signed-in API each get a bucket of this shape.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit("RATE_LIMIT", 60, "ip_user_route")
}

// LoadIntakeRateLimitConfig reads INTAKE_RATE_LIMIT_* variables for the
// anonymous intake form, which is keyed by client IP.
func LoadIntakeRateLimitConfig() RateLimitConfig {
    return loadRateLimit("INTAKE_RATE_LIMIT", 10, "ip")
}

func loadRateLimit(prefix string, capacity int, strategy string) RateLimitConfig {
    key := func(s string) string { return prefix + "_" + s }
    cfg := RateLimitConfig{
        Enabled:        envBool(key("ENABLED"), true),
        Capacity:       envInt(key("CAPACITY"), capacity),
        RefillTokens:   envInt(key("REFILL_TOKENS"), 1),
        RefillInterval: envDur(key("REFILL_INTERVAL"), time.Second),
        TTL:            envDur(key("TTL"), 10*time.Minute),
        KeyStrategy:    envStr(key("KEY_STRATEGY"), strategy),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if b := envInt(key("BURST"), -1); b > 0 {
        cfg.Capacity = b
    }
    if every := envDur(key("REFILL_EVERY"), 0); every > 0 {
        cfg.RefillTokens = 1
        cfg.RefillInterval = every
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
        cfg.TTL = minTTL
    }
    return cfg
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(os.Getenv(k)) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
        return dur
    }
    return d
}
