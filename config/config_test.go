package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_PORT", "STAFF_CHAT_ID", "STORAGE", "STORE_ID", "STORE_TZ", "HTTP_ADDR", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "kopi-shibuya", cfg.Store.ID)
	assert.Equal(t, "Asia/Tokyo", cfg.Store.TimeZone)
	assert.Equal(t, StoragePostgres, cfg.Store.Storage)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Zero(t, cfg.Telegram.StaffChatID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("STAFF_CHAT_ID", "-100123")
	t.Setenv("AUTO_MIGRATE", "1")
	t.Setenv("DB_PORT", "6543")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Store.Storage)
	assert.Equal(t, int64(-100123), cfg.Telegram.StaffChatID)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_PORT", "abc"},
		{"STAFF_CHAT_ID", "chat"},
		{"STORAGE", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAutoMigrateAcceptsTrue(t *testing.T) {
	t.Setenv("AUTO_MIGRATE", "TRUE")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DB.AutoMigrate)
}
