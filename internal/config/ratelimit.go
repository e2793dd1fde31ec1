package config

import "time"

type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
    // SkipSuccessful refunds the token of requests that finish below 400,
    // so only failed attempts count against the budget.
    SkipSuccessful bool
    Message        string
}

// LoadRateLimitConfig builds the global limiter: 100 requests per 15 minutes
// per client by default.
func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit("RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       100,
        RefillTokens:   100,
        RefillInterval: 15 * time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl",
        Message:        "Too many requests from this IP, please try again later.",
    })
}

// LoadAuthRateLimitConfig builds the stricter limiter mounted on /auth:
// 5 attempts per 15 minutes per client and route by default.
func LoadAuthRateLimitConfig() RateLimitConfig {
    return loadRateLimit("AUTH_RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       5,
        RefillTokens:   5,
        RefillInterval: 15 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl:auth",
        SkipSuccessful: true,
        Message:        "Too many authentication attempts, please try again later.",
    })
}

func loadRateLimit(prefix string, def RateLimitConfig) RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool(prefix+"_ENABLED", def.Enabled),
        Capacity:       envInt(prefix+"_CAPACITY", def.Capacity),
        RefillTokens:   envInt(prefix+"_REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(prefix+"_REFILL_INTERVAL", def.RefillInterval),
        TTL:            envDur(prefix+"_TTL", def.RefillInterval*2),
        KeyStrategy:    envStr(prefix+"_KEY_STRATEGY", def.KeyStrategy),
        Prefix:         envStr(prefix+"_PREFIX", def.Prefix),
        Debug:          envBool(prefix+"_DEBUG", false),
        SkipSuccessful: envBool(prefix+"_SKIP_SUCCESSFUL", def.SkipSuccessful),
        Message:        def.Message,
    }
    if cfg.Capacity < 1 { cfg.Capacity = 1 }
    if cfg.RefillTokens < 1 { cfg.RefillTokens = 1 }
    if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
    minTTL := 5 * cfg.RefillInterval
    if cfg.TTL < minTTL { cfg.TTL = minTTL }
    return cfg
}
