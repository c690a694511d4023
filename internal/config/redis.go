package config

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment.  REDIS_URL
// (redis:// or rediss://) wins; otherwise REDIS_HOST/REDIS_PORT or
// REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and REDIS_TLS are used.
func RedisOptions() (*redis.Options, error) {
    if url := os.Getenv("REDIS_URL"); url != "" {
        return redis.ParseURL(url)
    }
    addr := getenv("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    opts := &redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")}
    if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
        opts.DB = n
    }
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}

// NewRedisClient connects to Redis and pings it.  It returns nil when
// Redis is not configured correctly or not reachable; rate limiting and
// the response cache then pass requests straight through.
func NewRedisClient() *redis.Client {
    opts, err := RedisOptions()
    if err != nil {
        log.Printf("redis: bad configuration: %v", err)
        return nil
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable, caching and rate limiting disabled: %v", opts.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
