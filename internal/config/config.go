package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time is used for duration-typed policy knobs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations describe the authentication policy:
// token lifetimes, the failed-login lockout window and the validity of
// two-factor codes.
type Config struct {
    Env        string // application environment (e.g. "dev", "prod")
    Port       string // HTTP port to listen on
    DBUser     string // database username
    DBPass     string // database password (optional)
    DBHost     string // database host address
    DBPort     string // database port number
    DBName     string // database name
    JWTSecret  string // secret used to sign JWTs
    BcryptCost int    // bcrypt cost for password hashing

    AccessTTL         time.Duration // access token validity
    RefreshTTL        time.Duration // refresh token validity
    RememberTTL       time.Duration // refresh token validity with remember-me set
    TwoFactorTTL      time.Duration // two-factor code validity
    LockoutThreshold  int           // consecutive failures before lockout
    LockoutDuration   time.Duration // how long a locked account stays locked
    SessionMaxIdle    time.Duration // device sessions idle longer than this are pruned
    SessionPruneEvery time.Duration // interval of the background pruning ticker

    AppVersion  string // advertised application version
    ForceUpdate bool   // whether mismatched clients must update
    UpdateURL   string // where mismatched clients are sent

    LogStoragePath   string        // directory for uploaded client logs
    LogUploadEnabled bool          // whether clients should upload logs at all
    LogUploadEvery   time.Duration // how often clients should upload
    LogRetentionDays int           // advertised client-side log retention
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Policy knobs fall
// back to the documented defaults when unset.
func Load() Config {
    return Config{
        Env:        must("APP_ENV"),
        Port:       must("APP_PORT"),
        DBUser:     must("DB_USER"),
        DBPass:     os.Getenv("DB_PASS"), // empty allowed
        DBHost:     must("DB_HOST"),
        DBPort:     must("DB_PORT"),
        DBName:     must("DB_NAME"),
        JWTSecret:  must("JWT_SECRET"),
        BcryptCost: mustInt("BCRYPT_COST"),

        AccessTTL:         envDur("ACCESS_TOKEN_TTL", 30*time.Minute),
        RefreshTTL:        envDur("REFRESH_TOKEN_TTL", 30*24*time.Hour),
        RememberTTL:       envDur("REMEMBER_ME_TOKEN_TTL", 30*24*time.Hour),
        TwoFactorTTL:      envDur("TWO_FACTOR_CODE_TTL", 10*time.Minute),
        LockoutThreshold:  envInt("LOGIN_LOCKOUT_THRESHOLD", 5),
        LockoutDuration:   envDur("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
        SessionMaxIdle:    envDur("SESSION_MAX_IDLE", 30*24*time.Hour),
        SessionPruneEvery: envDur("SESSION_PRUNE_INTERVAL", time.Hour),

        AppVersion:  envStr("APP_VERSION", "1.0.0"),
        ForceUpdate: envBool("APP_FORCE_UPDATE", false),
        UpdateURL:   os.Getenv("APP_UPDATE_URL"),

        LogStoragePath:   envStr("LOG_STORAGE_PATH", "./logs"),
        LogUploadEnabled: envBool("LOG_UPLOAD_ENABLED", true),
        LogUploadEvery:   envDur("LOG_UPLOAD_INTERVAL", time.Hour),
        LogRetentionDays: envInt("LOG_RETENTION_DAYS", 30),
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

