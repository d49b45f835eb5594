package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort  int
	DatabaseURL string // пусто - хранилище в памяти
	LogLevel    slog.Level
	CORSOrigins []string

	SheetsSpreadsheetID   string
	SheetsCredentialsPath string
	RosterSheet           string
	TransferSheet         string
	SyncTimeout           time.Duration
	RosterSyncCron        string
	RosterSyncCompetition string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2Endpoint        string

	TelegramBotToken string
	TelegramChatID   int64
}

// SheetsEnabled - заданы таблица и ключ сервисного аккаунта.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.SheetsCredentialsPath != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env может отсутствовать.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	syncTimeout, err := time.ParseDuration(getEnv("SYNC_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEOUT environment variable: %w", err)
	}
	if syncTimeout <= 0 {
		return nil, fmt.Errorf("SYNC_TIMEOUT must be positive, got %s", syncTimeout)
	}

	cfg := &Config{
		ServerPort:  port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    level,
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		SheetsSpreadsheetID:   os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
		SheetsCredentialsPath: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		RosterSheet:           getEnv("ROSTER_SHEET", "Atlet"),
		TransferSheet:         getEnv("TRANSFER_SHEET", "Transfer"),
		SyncTimeout:           syncTimeout,
		RosterSyncCron:        os.Getenv("ROSTER_SYNC_CRON"),
		RosterSyncCompetition: os.Getenv("ROSTER_SYNC_COMPETITION"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		R2Endpoint:        os.Getenv("R2_ENDPOINT"),
	}

	if cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN"); cfg.TelegramBotToken != "" {
		chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
		if err != nil || chatID == 0 {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a non-zero integer when TELEGRAM_BOT_TOKEN is set")
		}
		cfg.TelegramChatID = chatID
	}

	if cfg.RosterSyncCron != "" && cfg.RosterSyncCompetition == "" {
		return nil, fmt.Errorf("ROSTER_SYNC_COMPETITION must be set when ROSTER_SYNC_CRON is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}
	return level, nil
}
