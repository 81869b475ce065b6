// Package config loads the bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Defaults for the notification window (hours of day)
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds everything main needs to wire the application
type Config struct {
	BotToken              string
	DatabaseDriver        string
	DatabaseURL           string
	DataDir               string
	AdminUserIDs          map[int64]bool
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	Location              *time.Location
	LogLevel              string
	LogPath               string
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		BotToken:              getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseDriver:        valueOr(getenv("DATABASE_DRIVER"), DriverSQLite),
		DatabaseURL:           getenv("DATABASE_URL"),
		DataDir:               valueOr(getenv("DATA_DIR"), "data"),
		AdminUserIDs:          make(map[int64]bool),
		SchedulerEnabled:      getenv("ENABLE_SCHEDULER") != "false",
		NotificationStartHour: DefaultNotificationStartHour,
		NotificationEndHour:   DefaultNotificationEndHour,
		Location:              time.Local,
		LogLevel:              valueOr(getenv("LOG_LEVEL"), "info"),
		LogPath:               getenv("LOG_PATH"),
	}

	if ids := getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid admin user ID %q: %w", idStr, err)
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	var err error
	if cfg.NotificationStartHour, err = hourOr(getenv("NOTIFICATION_START_HOUR"), DefaultNotificationStartHour); err != nil {
		return nil, fmt.Errorf("NOTIFICATION_START_HOUR: %w", err)
	}
	if cfg.NotificationEndHour, err = hourOr(getenv("NOTIFICATION_END_HOUR"), DefaultNotificationEndHour); err != nil {
		return nil, fmt.Errorf("NOTIFICATION_END_HOUR: %w", err)
	}

	if tz := getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("notification window %d-%d is empty", c.NotificationStartHour, c.NotificationEndHour)
	}
	return nil
}

// IsAdmin checks if a Telegram user is an admin
func (c *Config) IsAdmin(telegramID int64) bool {
	return c.AdminUserIDs[telegramID]
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func hourOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	h, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range 0-23", h)
	}
	return h, nil
}
