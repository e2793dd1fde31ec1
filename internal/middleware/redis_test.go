package middleware

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strconv"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/belgrade-mama-market/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func limiterConfig(capacity int) config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       capacity,
        RefillTokens:   capacity,
        RefillInterval: time.Minute,
        TTL:            5 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl:test",
        Message:        "Too many requests",
    }
}

func TestTokenBucket_RejectsOnceCapacityIsSpent(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    e.GET("/listings", func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    }, NewTokenBucket(limiterConfig(2), rdb, zap.NewNop()))

    rec := serve(e, http.MethodGet, "/listings", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

    rec = serve(e, http.MethodGet, "/listings", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    rec = serve(e, http.MethodGet, "/listings", "")
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    var body struct {
        Error      string `json:"error"`
        RetryAfter int    `json:"retry_after"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "Too many requests", body.Error)
    assert.Greater(t, body.RetryAfter, 0)
    assert.LessOrEqual(t, body.RetryAfter, 60)
    assert.Equal(t, strconv.Itoa(body.RetryAfter), rec.Header().Get(echo.HeaderRetryAfter))
}

func TestTokenBucket_KeysAreSeparatePerClient(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    e.GET("/listings", func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    }, NewTokenBucket(limiterConfig(1), rdb, zap.NewNop()))

    require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/listings", "").Code)
    require.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodGet, "/listings", "").Code)

    req := httptest.NewRequest(http.MethodGet, "/listings", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.8")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket_SuccessfulCallsAreRefunded(t *testing.T) {
    mr, rdb := newRedis(t)
    cfg := limiterConfig(2)
    cfg.SkipSuccessful = true
    e := echo.New()
    e.POST("/auth/login", func(c echo.Context) error {
        var in struct {
            Password string `json:"password"`
        }
        _ = json.NewDecoder(c.Request().Body).Decode(&in)
        if in.Password != "secret1" {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
        }
        return c.JSON(http.StatusOK, echo.Map{"token": "t"})
    }, NewTokenBucket(cfg, rdb, zap.NewNop()))

    for i := 0; i < 5; i++ {
        rec := serve(e, http.MethodPost, "/auth/login", `{"password":"secret1"}`)
        require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
    }
    tokens := mr.HGet("rl:test:ip:10.0.0.7:route:POST /auth/login", "tokens")
    assert.Equal(t, "2", tokens)

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/auth/login", `{"password":"nope"}`).Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/auth/login", `{"password":"nope"}`).Code)

    rec := serve(e, http.MethodPost, "/auth/login", `{"password":"secret1"}`)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTokenBucket_FailsOpenWhenRedisIsDown(t *testing.T) {
    rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
    t.Cleanup(func() { _ = rdb.Close() })
    e := echo.New()
    e.GET("/listings", func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    }, NewTokenBucket(limiterConfig(1), rdb, zap.NewNop()))

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/listings", "").Code)
    }
}

func cacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
    }
}

// cachedFeed wires a feed behind the cache, a create route behind the purge
// and an outer middleware that stamps per-request headers.
func cachedFeed(t *testing.T, rdb *redis.Client, cfg config.CacheConfig, body string) (*echo.Echo, *int) {
    t.Helper()
    calls := 0
    seq := 0
    e := echo.New()
    e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            seq++
            h := c.Response().Header()
            h.Set(echo.HeaderXRequestID, "req-"+strconv.Itoa(seq))
            h.Set("X-RateLimit-Remaining", strconv.Itoa(100-seq))
            return next(c)
        }
    })
    e.GET("/listings", func(c echo.Context) error {
        calls++
        c.Response().Header().Set("X-Total", "1")
        return c.JSONBlob(http.StatusOK, []byte(body))
    }, NewRedisCache(cfg, rdb, zap.NewNop()))
    e.POST("/listings", func(c echo.Context) error {
        if c.QueryParam("fail") != "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed"})
        }
        return c.JSON(http.StatusCreated, echo.Map{"id": "l-2"})
    }, PurgeOnSuccess(cfg, rdb, zap.NewNop()))
    return e, &calls
}

func TestRedisCache_ReplaysStoredResponse(t *testing.T) {
    mr, rdb := newRedis(t)
    e, calls := cachedFeed(t, rdb, cacheConfig(), `[{"id":"l-1"}]`)

    rec := serve(e, http.MethodGet, "/listings?district=Zemun", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Len(t, mr.Keys(), 1)

    rec = serve(e, http.MethodGet, "/listings?district=Zemun", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.Equal(t, 1, *calls)
    assert.JSONEq(t, `[{"id":"l-1"}]`, rec.Body.String())
    assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
    assert.Equal(t, []string{"1"}, rec.Header().Values("X-Total"))

    rec = serve(e, http.MethodGet, "/listings?district=Vracar", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, 2, *calls)
}

func TestRedisCache_HitKeepsCurrentRequestHeaders(t *testing.T) {
    _, rdb := newRedis(t)
    e, _ := cachedFeed(t, rdb, cacheConfig(), `[]`)

    serve(e, http.MethodGet, "/listings", "")
    rec := serve(e, http.MethodGet, "/listings", "")

    require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.Equal(t, []string{"req-2"}, rec.Header().Values(echo.HeaderXRequestID))
    assert.Equal(t, []string{"98"}, rec.Header().Values("X-RateLimit-Remaining"))
    assert.Equal(t, []string{"HIT"}, rec.Header().Values("X-Cache"))
}

func TestRedisCache_SkipsBodiesOverLimit(t *testing.T) {
    mr, rdb := newRedis(t)
    cfg := cacheConfig()
    cfg.MaxBodyBytes = 8
    e, calls := cachedFeed(t, rdb, cfg, `[{"id":"a-long-listing-id"}]`)

    rec := serve(e, http.MethodGet, "/listings", "")
    assert.JSONEq(t, `[{"id":"a-long-listing-id"}]`, rec.Body.String())
    assert.Empty(t, mr.Keys())

    rec = serve(e, http.MethodGet, "/listings", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, 2, *calls)
}

func TestPurgeOnSuccess_DropsCachedFeed(t *testing.T) {
    mr, rdb := newRedis(t)
    require.NoError(t, mr.Set("other:key", "kept"))
    e, calls := cachedFeed(t, rdb, cacheConfig(), `[]`)

    serve(e, http.MethodGet, "/listings", "")
    serve(e, http.MethodGet, "/listings?size=86", "")
    require.Len(t, mr.Keys(), 3)

    rec := serve(e, http.MethodPost, "/listings?fail=1", "")
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Len(t, mr.Keys(), 3, "failed writes keep the cache")

    rec = serve(e, http.MethodPost, "/listings", "")
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, []string{"other:key"}, mr.Keys())

    rec = serve(e, http.MethodGet, "/listings", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, 3, *calls)
}
