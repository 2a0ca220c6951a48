package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	HTTP     HTTPConfig
	Store    StoreConfig
	Log      LogConfig
}

type DBConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// AutoMigrate applies the embedded migrations on startup.
	AutoMigrate bool
}

type TelegramConfig struct {
	Token       string
	StaffChatID int64
	Lang        string
}

type HTTPConfig struct {
	Addr string
}

type StoreConfig struct {
	ID       string
	TimeZone string
	Storage  string
	// SeedFile overrides the built-in seed when set.
	SeedFile string
}

type LogConfig struct {
	Level  string
	Format string // auto, console or json
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("DB_PORT: %w", err)
	}
	var chatID int64
	if v := getEnv("STAFF_CHAT_ID", ""); v != "" {
		chatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("STAFF_CHAT_ID: %w", err)
		}
	}

	cfg := &Config{
		DB: DBConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        port,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Database:    getEnv("DB_NAME", "kopi"),
			AutoMigrate: isTrue(getEnv("AUTO_MIGRATE", "")),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TOKEN", ""),
			StaffChatID: chatID,
			Lang:        getEnv("BOT_LANG", "ja"),
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Store: StoreConfig{
			ID:       getEnv("STORE_ID", "kopi-shibuya"),
			TimeZone: getEnv("STORE_TZ", "Asia/Tokyo"),
			Storage:  strings.ToLower(getEnv("STORAGE", StoragePostgres)),
			SeedFile: getEnv("SEED_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "auto")),
		},
	}
	if cfg.Store.Storage != StorageMemory && cfg.Store.Storage != StoragePostgres {
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.Store.Storage)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}
