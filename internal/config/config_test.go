package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(Options{Dir: dir})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "accounts.toml"), cfg.Viper.GetString(KeyAccountsPath))
	assert.Equal(t, filepath.Join(dir, "groups.toml"), cfg.Viper.GetString(KeyGroupsPath))
	assert.Equal(t, filepath.Join(dir, "sessions"), cfg.Viper.GetString(KeySessionsDir))
	assert.Equal(t, filepath.Join(dir, "profiles"), cfg.ProfilesDir)
	assert.Equal(t, filepath.Join(dir, "results.db"), cfg.SinkPath)
	assert.Equal(t, filepath.Join(dir, ".env"), cfg.DotEnv)
	assert.Equal(t, DriverPlaywright, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, Retry{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}, cfg.PageRetry)
	assert.Equal(t, Retry{MaxAttempts: 3, BaseDelay: 5 * time.Second, Multiplier: 2, Jitter: time.Second}, cfg.LoginRetry)
	assert.Equal(t, 2*time.Second, cfg.PacingDelay)
	assert.Equal(t, 2, cfg.EngageParallelism)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitCooldown)
	assert.Equal(t, 3, cfg.LikeCap)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
[browser]
driver = "rod"
headless = false

[broadcast]
pacing_delay = "5s"

[engage]
like_cap = 5

[accounts]
path = "/srv/sa/accounts.toml"
`)
	t.Setenv("SA_ENGAGE_LIKE_CAP", "7")
	t.Setenv("SA_LOG_LEVEL", "debug")

	cfg, err := Load(Options{Dir: dir})

	require.NoError(t, err)
	assert.Equal(t, DriverRod, cfg.Browser.Driver)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Second, cfg.PacingDelay)
	assert.Equal(t, 7, cfg.LikeCap)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/srv/sa/accounts.toml", cfg.Viper.GetString(KeyAccountsPath))
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, "custom.env")
	writeFile(t, dotenv, "SA_BROWSER_DRIVER=rod\nSA_ENGAGE_SCROLL_ATTEMPTS=9\n")
	t.Setenv("SA_ENGAGE_SCROLL_ATTEMPTS", "4")
	t.Cleanup(func() { _ = os.Unsetenv("SA_BROWSER_DRIVER") })

	cfg, err := Load(Options{Dir: dir, DotEnv: dotenv})

	require.NoError(t, err)
	assert.Equal(t, DriverRod, cfg.Browser.Driver)
	assert.Equal(t, 4, cfg.ScrollAttempts)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "driver", content: "[browser]\ndriver = \"lynx\"\n", wantErr: "browser.driver"},
		{name: "parallelism", content: "[broadcast]\nengage_parallelism = 0\n", wantErr: "broadcast.engage_parallelism"},
		{name: "like cap", content: "[engage]\nlike_cap = 0\n", wantErr: "engage.like_cap"},
		{name: "zero action timeout", content: "[browser]\naction_timeout = \"0s\"\n", wantErr: "browser.action_timeout must be positive"},
		{name: "zero navigation timeout", content: "[browser]\nnavigation_timeout = \"0s\"\n", wantErr: "browser.navigation_timeout must be positive"},
		{name: "zero login timeout", content: "[browser]\nlogin_timeout = \"0s\"\n", wantErr: "browser.login_timeout must be positive"},
		{name: "zero account timeout", content: "[broadcast]\naccount_timeout = \"0s\"\n", wantErr: "broadcast.account_timeout must be positive"},
		{name: "negative delay", content: "[broadcast]\npacing_delay = \"-1s\"\n", wantErr: "must not be negative"},
		{name: "malformed", content: "[browser\n", wantErr: "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "config.toml"), tt.content)

			_, err := Load(Options{Dir: dir})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
