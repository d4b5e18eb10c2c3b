package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string
	HTTPPort          int
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	DiscordToken string

	Timezone         string
	EventDuration    time.Duration
	ReminderLead     time.Duration
	ReminderInterval time.Duration

	DataBackend string

	GitHubRepo     string
	GitHubFilePath string
	GitHubToken    string
	GitHubAPIURL   string

	DatabaseDriver    string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

const (
	defaultEnv               = "development"
	defaultHTTPPort          = 5000 // the keepalive port the hosting tier expects
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	defaultTimezone         = "Europe/Berlin"
	defaultEventDuration    = 2 * time.Hour
	defaultReminderLead     = 10 * time.Minute
	defaultReminderInterval = time.Minute

	defaultGitHubFilePath = "data/events.json"

	defaultDatabaseDriver    = "pgx"
	defaultDBMaxOpenConns    = 10
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = time.Hour
	defaultDBConnMaxIdleTime = 30 * time.Minute
)

// Load reads configuration values from the environment, applying defaults
// where necessary. When DATA_BACKEND is unset the backend is inferred: github
// when the GitHub variables are present, otherwise memory.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", defaultEnv),
		HTTPPort:          getInt("PORT", defaultHTTPPort),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout),

		DiscordToken: os.Getenv("DISCORD_TOKEN"),

		Timezone:         getEnv("TIMEZONE", defaultTimezone),
		EventDuration:    getDuration("EVENT_DURATION", defaultEventDuration),
		ReminderLead:     getDuration("REMINDER_LEAD", defaultReminderLead),
		ReminderInterval: getDuration("REMINDER_INTERVAL", defaultReminderInterval),

		DataBackend: os.Getenv("DATA_BACKEND"),

		GitHubRepo:     os.Getenv("GITHUB_REPO"),
		GitHubFilePath: getEnv("GITHUB_FILE_PATH", defaultGitHubFilePath),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:   os.Getenv("GITHUB_API_URL"),

		DatabaseDriver:    getEnv("DATABASE_DRIVER", defaultDatabaseDriver),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
		DBMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", defaultDBConnMaxLifetime),
		DBConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", defaultDBConnMaxIdleTime),
	}

	if cfg.DataBackend == "" {
		if cfg.GitHubRepo != "" && cfg.GitHubToken != "" {
			cfg.DataBackend = "github"
		} else {
			cfg.DataBackend = "memory"
		}
	}

	switch cfg.DataBackend {
	case "memory":
		// no-op
	case "github":
		if cfg.GitHubRepo == "" || cfg.GitHubToken == "" {
			return Config{}, fmt.Errorf("GITHUB_REPO and GITHUB_TOKEN are required when DATA_BACKEND=github")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATA_BACKEND value: %s", cfg.DataBackend)
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
