package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"riprocess-image-list/pkg/utils"
)

// Settings are the process-level settings shared by the CLI and the API
// server. They come from the environment, optionally seeded from a .env file.
type Settings struct {
	LogLevel   slog.Level
	DB         string
	Addr       string
	OutputDir  string
	ConfigRoot string
	RunTimeout time.Duration
}

// LoadEnv loads envFile into the environment if it exists. Variables already
// set in the environment win. A missing default ".env" is not an error.
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
		if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	return godotenv.Load(envFile)
}

// FromEnv reads Settings from the environment.
func FromEnv() Settings {
	return Settings{
		LogLevel:   ParseLevel(getEnv("IMAGE_LIST_LOG_LEVEL", "warn"), slog.LevelWarn),
		DB:         getEnv("IMAGE_LIST_DB", ""),
		Addr:       getEnv("IMAGE_LIST_ADDR", ":8080"),
		OutputDir:  getEnv("IMAGE_LIST_OUTPUT_DIR", "output"),
		ConfigRoot: getEnv("IMAGE_LIST_CONFIG_ROOT", "."),
		RunTimeout: utils.ParseDuration(os.Getenv("IMAGE_LIST_RUN_TIMEOUT"), 30*time.Second),
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, falling back to def.
func ParseLevel(s string, def slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return def
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
