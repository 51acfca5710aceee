package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "6060", cfg.Server.OpsPort)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 120, cfg.Depict.Width)
	assert.Equal(t, 100, cfg.Depict.Height)
	assert.Equal(t, 500, cfg.Depict.CacheSize)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("DEPICT_CACHE", "25")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, int64(10), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 25, cfg.Depict.CacheSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "-5")
	_, err := Load()
	assert.Error(t, err)
}

func TestMaxFileSizeBytes(t *testing.T) {
	u := UploadConfig{MaxFileSizeMB: 2}
	assert.Equal(t, int64(2*1024*1024), u.MaxFileSizeBytes())
}
