package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"SERVER_PORT", "DATABASE_URL", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS",
	"GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SERVICE_ACCOUNT_JSON",
	"ROSTER_SHEET", "TRANSFER_SHEET", "SYNC_TIMEOUT",
	"ROSTER_SYNC_CRON", "ROSTER_SYNC_COMPETITION",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY",
	"R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL", "R2_ENDPOINT",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "Atlet", cfg.RosterSheet)
	assert.Equal(t, "Transfer", cfg.TransferSheet)
	assert.Equal(t, 10*time.Second, cfg.SyncTimeout)
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://tkd@localhost/tkd?sslmode=disable")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://ring1.local , ,http://ring2.local")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-1")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "/secrets/sa.json")
	t.Setenv("SYNC_TIMEOUT", "45s")
	t.Setenv("ROSTER_SYNC_CRON", "*/10 * * * *")
	t.Setenv("ROSTER_SYNC_COMPETITION", "POPDA-2024")
	t.Setenv("R2_ENDPOINT", "http://minio:9000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"http://ring1.local", "http://ring2.local"}, cfg.CORSOrigins)
	assert.True(t, cfg.SheetsEnabled())
	assert.Equal(t, 45*time.Second, cfg.SyncTimeout)
	assert.Equal(t, "POPDA-2024", cfg.RosterSyncCompetition)
	assert.Equal(t, "http://minio:9000", cfg.R2Endpoint)
	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, int64(-1001234), cfg.TelegramChatID)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad timeout", map[string]string{"SYNC_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"SYNC_TIMEOUT": "-5s"}},
		{"cron without competition", map[string]string{"ROSTER_SYNC_CRON": "@hourly"}},
		{"telegram without chat", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"}},
		{"telegram bad chat", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc", "TELEGRAM_CHAT_ID": "ops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
