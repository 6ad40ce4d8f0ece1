package config

import (
    "os"
    "strconv"
    "time"
)

type Config struct {
    Port       string
    DBHost     string
    DBPort     string
    DBUser     string
    DBPassword string
    DBName     string
    DBSSLMode  string

    JWTSecret    string
    JWTExpiresIn string // minutes

    AdminEmail    string
    AdminPassword string
    AdminFullName string

    // Presence thresholds. Heartbeat cadence is 10s by default; the online
    // window tolerates one dropped beat.
    OnlineWindowSeconds      string
    IdleWindowSeconds        string
    HeartbeatIntervalSeconds string
    HeartbeatRetentionHours  string

    // Remote config pushed to the browser extension.
    MinExtensionVersion string

    // CSRF tokens issued to operator dashboards.
    CSRFTokenTTLMinutes string
}

func Load() *Config {
    return &Config{
        Port:       getenv("PORT", "8080"),
        DBHost:     getenv("DB_HOST", "localhost"),
        DBPort:     getenv("DB_PORT", "5432"),
        DBUser:     getenv("DB_USER", "postgres"),
        DBPassword: getenv("DB_PASSWORD", "postgres"),
        DBName:     getenv("DB_NAME", "classwatch_db"),
        DBSSLMode:  getenv("DB_SSLMODE", "disable"),

        JWTSecret:    getenv("JWT_SECRET", "supersecret_change_me"),
        JWTExpiresIn: getenv("JWT_EXPIRES_IN", "60"),

        AdminEmail:    getenv("ADMIN_EMAIL", "admin@example.com"),
        AdminPassword: getenv("ADMIN_PASSWORD", "admin123"),
        AdminFullName: getenv("ADMIN_FULL_NAME", "Administrator"),

        OnlineWindowSeconds:      getenv("ONLINE_WINDOW_SECONDS", "15"),
        IdleWindowSeconds:        getenv("IDLE_WINDOW_SECONDS", "60"),
        HeartbeatIntervalSeconds: getenv("HEARTBEAT_INTERVAL_SECONDS", "10"),
        HeartbeatRetentionHours:  getenv("HEARTBEAT_RETENTION_HOURS", "24"),

        MinExtensionVersion: getenv("MIN_EXTENSION_VERSION", "1"),
        CSRFTokenTTLMinutes: getenv("CSRF_TOKEN_TTL_MINUTES", "120"),
    }
}

func getenv(key, fallback string) string {
    v := os.Getenv(key)
    if v == "" {
        return fallback
    }
    return v
}

func seconds(raw string, fallback time.Duration) time.Duration {
    n, err := strconv.Atoi(raw)
    if err != nil || n <= 0 {
        return fallback
    }
    return time.Duration(n) * time.Second
}

func (c *Config) OnlineWindow() time.Duration {
    return seconds(c.OnlineWindowSeconds, 15*time.Second)
}

func (c *Config) IdleWindow() time.Duration {
    return seconds(c.IdleWindowSeconds, 60*time.Second)
}

func (c *Config) HeartbeatInterval() time.Duration {
    return seconds(c.HeartbeatIntervalSeconds, 10*time.Second)
}

func (c *Config) HeartbeatRetention() time.Duration {
    n, err := strconv.Atoi(c.HeartbeatRetentionHours)
    if err != nil || n <= 0 {
        return 24 * time.Hour
    }
    return time.Duration(n) * time.Hour
}

func (c *Config) CSRFTokenTTL() time.Duration {
    n, err := strconv.Atoi(c.CSRFTokenTTLMinutes)
    if err != nil || n <= 0 {
        return 120 * time.Minute
    }
    return time.Duration(n) * time.Minute
}
