package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "UTC", cfg.AppTZ)
	require.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	require.False(t, cfg.IsProduction())
	require.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigRejectsBadTimezone(t *testing.T) {
	t.Setenv("APP_TZ", "Mars/Olympus")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigCustomTimezone(t *testing.T) {
	t.Setenv("APP_TZ", "Asia/Bangkok")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "Asia/Bangkok", cfg.Location().String())
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
