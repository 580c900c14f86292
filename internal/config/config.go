package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. It is the single source of truth for runtime parameters.
type Config struct {
	Port     string
	Env      string
	BotToken string

	// AdminIDs is the static set of privileged operator identifiers.
	AdminIDs []int64

	// DBPath is the embedded database file, used when DatabaseURL is
	// empty.
	DBPath      string
	DatabaseURL string

	Redis RedisConfig

	// SessionTTL bounds how long abandoned session working memory is
	// kept. Zero means sessions never expire.
	SessionTTL time.Duration

	// TransportURL is the chat-transport collaborator endpoint outbound
	// messages are posted to.
	TransportURL string

	// WebhookURL, when set, is pinged periodically to keep the hosting
	// platform from idling the process.
	WebhookURL        string
	KeepAliveInterval time.Duration
}

// RedisConfig contains Redis connection parameters for the session
// store. An empty Addr selects the in-memory store instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables. If a .env file
// exists in the working directory, it will be loaded first. It returns a
// populated Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that
	// production environments relying solely on real environment
	// variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.BotToken = getEnv("BOT_TOKEN", "")
	cfg.AdminIDs = parseIDList(getEnv("ADMIN_IDS", ""))

	cfg.DBPath = getEnv("DB_PATH", "bot.db")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.TransportURL = getEnv("TRANSPORT_URL", "")
	cfg.WebhookURL = getEnv("WEBHOOK_URL", "")

	var err error
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.KeepAliveInterval, err = parseDurationEnv("KEEPALIVE_INTERVAL", "2m"); err != nil {
		return nil, fmt.Errorf("invalid KEEPALIVE_INTERVAL: %w", err)
	}

	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN must be set")
	}

	return cfg, nil
}

// parseIDList parses a comma-separated list of numeric identifiers,
// skipping anything that is not a number.
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
