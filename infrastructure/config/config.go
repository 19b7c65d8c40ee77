package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	SQLitePath   string
	APIBaseURL   string
	APIToken     string
	APITimeout   time.Duration
	OutletID     string
	WebsocketURL string
	WaitUnit     string

	TokenPollInterval     time.Duration
	BoardPollInterval     time.Duration
	AnalyticsPollInterval time.Duration
	OfficerPollInterval   time.Duration
	ViewerIdleTimeout     time.Duration
	MaxViewers            int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", slog.Any("err", err))
	}

	return Config{
		Addr:         readString("APP_ADDR", ":8080"),
		SQLitePath:   readString("SQLITE_PATH", "queueboard.db"),
		APIBaseURL:   strings.TrimRight(readString("QMS_API_BASE_URL", "http://localhost:3000/api"), "/"),
		APIToken:     os.Getenv("QMS_API_TOKEN"),
		APITimeout:   readDurationSeconds("QMS_API_TIMEOUT_SECONDS", 10),
		OutletID:     os.Getenv("QMS_OUTLET_ID"),
		WebsocketURL: os.Getenv("QMS_WEBSOCKET_URL"),
		WaitUnit:     readString("QMS_WAIT_UNIT", "minutes"),

		TokenPollInterval:     readDurationSeconds("TOKEN_POLL_SECONDS", 5),
		BoardPollInterval:     readDurationSeconds("BOARD_POLL_SECONDS", 5),
		AnalyticsPollInterval: readDurationSeconds("ANALYTICS_POLL_SECONDS", 300),
		OfficerPollInterval:   readDurationSeconds("OFFICER_POLL_SECONDS", 30),
		ViewerIdleTimeout:     time.Duration(readInt("VIEWER_IDLE_MINUTES", 15)) * time.Minute,
		MaxViewers:            readInt("VIEWER_MAX", 5000),
	}
}

func readString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
