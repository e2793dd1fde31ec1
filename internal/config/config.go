package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// fall back to defaults that suit local development.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    DBMigrate      bool   // apply embedded migrations on startup
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing
    LogLevel       string // debug | info | warn | error
    LogFormat      string // json | console
    CORSOrigins    []string

    // StrictOrderTransitions rejects order status changes that are not an
    // edge of the order state machine.  Disable only to reproduce the
    // legacy behaviour where any enumerated status was accepted.
    StrictOrderTransitions bool
    // StoreCardNumbers persists the full card number next to the last four
    // digits.  Demo only: card data must go through a payment processor in
    // any real deployment.
    StoreCardNumbers bool
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
    return Config{
        Env:                    envStr("APP_ENV", "dev"),
        Port:                   envStr("APP_PORT", "4000"),
        DBUser:                 must("DB_USER"),
        DBPass:                 os.Getenv("DB_PASS"), // empty allowed
        DBHost:                 must("DB_HOST"),
        DBPort:                 envStr("DB_PORT", "3306"),
        DBName:                 must("DB_NAME"),
        DBMigrate:              envBool("DB_MIGRATE", true),
        JWTSecret:              must("JWT_SECRET"),
        AccessTTLMin:           envInt("ACCESS_TOKEN_TTL_MIN", 7*24*60),
        RefreshTTLDays:         envInt("REFRESH_TOKEN_TTL_DAYS", 30),
        BcryptCost:             envInt("BCRYPT_COST", 10),
        LogLevel:               envStr("LOG_LEVEL", "info"),
        LogFormat:              envStr("LOG_FORMAT", "json"),
        CORSOrigins:            splitCSV(envStr("CORS_ORIGIN", "*")),
        StrictOrderTransitions: envBool("ORDER_STRICT_TRANSITIONS", true),
        StoreCardNumbers:       envBool("PAYMENT_STORE_CARD_NUMBER", true),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func splitCSV(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
