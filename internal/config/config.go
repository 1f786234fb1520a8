// Package config loads settings from ~/.social-accounts/config.toml, SA_
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "SA"
	DirName    = ".social-accounts"
	configName = "config"
	configType = "toml"
)

const (
	KeyAccountsPath = "accounts.path"
	KeyGroupsPath   = "groups.path"
	KeySessionsDir  = "sessions.dir"
	KeyProfilesDir  = "profiles.dir"
	KeySecretsDir   = "secrets.dir"
	KeySinkPath     = "sink.path"

	KeyBrowserDriver     = "browser.driver"
	KeyBrowserHeadless   = "browser.headless"
	KeyBrowserInstall    = "browser.install"
	KeyBrowserBin        = "browser.bin"
	KeyNavigationTimeout = "browser.navigation_timeout"
	KeyActionTimeout     = "browser.action_timeout"
	KeyLoginTimeout      = "browser.login_timeout"

	KeyPageRetryAttempts   = "retry.page.max_attempts"
	KeyPageRetryDelay      = "retry.page.base_delay"
	KeyPageRetryMultiplier = "retry.page.multiplier"

	KeyLoginRetryAttempts   = "retry.login.max_attempts"
	KeyLoginRetryDelay      = "retry.login.base_delay"
	KeyLoginRetryMultiplier = "retry.login.multiplier"
	KeyLoginRetryJitter     = "retry.login.jitter"

	KeyPacingDelay       = "broadcast.pacing_delay"
	KeyEngageParallelism = "broadcast.engage_parallelism"
	KeyRateLimitCooldown = "broadcast.rate_limit_cooldown"
	KeyAccountTimeout    = "broadcast.account_timeout"

	KeyLikeCap        = "engage.like_cap"
	KeyLikesPerMinute = "engage.likes_per_minute"
	KeyScrollAttempts = "engage.scroll_attempts"
	KeyPollInterval   = "engage.poll_interval"

	KeyOperatorWait = "login.operator_wait"

	KeyOpenAIModel   = "openai.model"
	KeyOpenAIBaseURL = "openai.base_url"
	KeyOpenAIAPIKey  = "openai.api_key"

	KeyLogLevel = "log.level"
)

const (
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

type Options struct {
	// Dir overrides ~/.social-accounts.
	Dir string
	// DotEnv overrides <Dir>/.env. The file is optional.
	DotEnv string
}

type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      time.Duration
}

type Browser struct {
	Driver            string
	Headless          bool
	Install           bool
	Bin               string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	LoginTimeout      time.Duration
}

type OpenAI struct {
	Model   string
	BaseURL string
	APIKey  string
}

type Config struct {
	// Viper carries the raw settings; the TOML repositories read their paths
	// from it.
	Viper *viper.Viper

	Dir         string
	DotEnv      string
	ProfilesDir string
	SecretsDir  string
	SinkPath    string

	Browser    Browser
	PageRetry  Retry
	LoginRetry Retry

	PacingDelay       time.Duration
	EngageParallelism int
	RateLimitCooldown time.Duration
	AccountTimeout    time.Duration

	LikeCap        int
	LikesPerMinute float64
	ScrollAttempts int
	PollInterval   time.Duration
	OperatorWait   time.Duration

	OpenAI   OpenAI
	LogLevel string
}

func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// Load reads the .env file into the process environment without overriding
// variables that are already set, then layers SA_ variables over config.toml
// over defaults.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	dotenv := opts.DotEnv
	if dotenv == "" {
		dotenv = filepath.Join(dir, ".env")
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Viper:       v,
		Dir:         dir,
		DotEnv:      dotenv,
		ProfilesDir: v.GetString(KeyProfilesDir),
		SecretsDir:  v.GetString(KeySecretsDir),
		SinkPath:    v.GetString(KeySinkPath),
		Browser: Browser{
			Driver:            strings.ToLower(strings.TrimSpace(v.GetString(KeyBrowserDriver))),
			Headless:          v.GetBool(KeyBrowserHeadless),
			Install:           v.GetBool(KeyBrowserInstall),
			Bin:               v.GetString(KeyBrowserBin),
			NavigationTimeout: v.GetDuration(KeyNavigationTimeout),
			ActionTimeout:     v.GetDuration(KeyActionTimeout),
			LoginTimeout:      v.GetDuration(KeyLoginTimeout),
		},
		PageRetry: Retry{
			MaxAttempts: v.GetInt(KeyPageRetryAttempts),
			BaseDelay:   v.GetDuration(KeyPageRetryDelay),
			Multiplier:  v.GetFloat64(KeyPageRetryMultiplier),
		},
		LoginRetry: Retry{
			MaxAttempts: v.GetInt(KeyLoginRetryAttempts),
			BaseDelay:   v.GetDuration(KeyLoginRetryDelay),
			Multiplier:  v.GetFloat64(KeyLoginRetryMultiplier),
			Jitter:      v.GetDuration(KeyLoginRetryJitter),
		},
		PacingDelay:       v.GetDuration(KeyPacingDelay),
		EngageParallelism: v.GetInt(KeyEngageParallelism),
		RateLimitCooldown: v.GetDuration(KeyRateLimitCooldown),
		AccountTimeout:    v.GetDuration(KeyAccountTimeout),
		LikeCap:           v.GetInt(KeyLikeCap),
		LikesPerMinute:    v.GetFloat64(KeyLikesPerMinute),
		ScrollAttempts:    v.GetInt(KeyScrollAttempts),
		PollInterval:      v.GetDuration(KeyPollInterval),
		OperatorWait:      v.GetDuration(KeyOperatorWait),
		OpenAI: OpenAI{
			Model:   v.GetString(KeyOpenAIModel),
			BaseURL: v.GetString(KeyOpenAIBaseURL),
			APIKey:  firstNonEmpty(v.GetString(KeyOpenAIAPIKey), os.Getenv("OPENAI_API_KEY")),
		},
		LogLevel: v.GetString(KeyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Browser.Driver {
	case DriverPlaywright, DriverRod:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown driver %q", KeyBrowserDriver, c.Browser.Driver))
	}
	if c.PageRetry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyPageRetryAttempts))
	}
	if c.LoginRetry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyLoginRetryAttempts))
	}
	if c.EngageParallelism < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyEngageParallelism))
	}
	if c.LikeCap < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyLikeCap))
	}
	timeouts := []struct {
		key   string
		value time.Duration
	}{
		{KeyNavigationTimeout, c.Browser.NavigationTimeout},
		{KeyActionTimeout, c.Browser.ActionTimeout},
		{KeyLoginTimeout, c.Browser.LoginTimeout},
		{KeyAccountTimeout, c.AccountTimeout},
	}
	for _, timeout := range timeouts {
		if timeout.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", timeout.key))
		}
	}
	if c.PacingDelay < 0 || c.RateLimitCooldown < 0 || c.OperatorWait < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault(KeyAccountsPath, filepath.Join(dir, "accounts.toml"))
	v.SetDefault(KeyGroupsPath, filepath.Join(dir, "groups.toml"))
	v.SetDefault(KeySessionsDir, filepath.Join(dir, "sessions"))
	v.SetDefault(KeyProfilesDir, filepath.Join(dir, "profiles"))
	v.SetDefault(KeySecretsDir, filepath.Join(dir, "secrets"))
	v.SetDefault(KeySinkPath, filepath.Join(dir, "results.db"))

	v.SetDefault(KeyBrowserDriver, DriverPlaywright)
	v.SetDefault(KeyBrowserHeadless, true)
	v.SetDefault(KeyBrowserInstall, false)
	v.SetDefault(KeyNavigationTimeout, 30*time.Second)
	v.SetDefault(KeyActionTimeout, 10*time.Second)
	v.SetDefault(KeyLoginTimeout, 30*time.Second)

	v.SetDefault(KeyPageRetryAttempts, 3)
	v.SetDefault(KeyPageRetryDelay, time.Second)
	v.SetDefault(KeyPageRetryMultiplier, 2.0)
	v.SetDefault(KeyLoginRetryAttempts, 3)
	v.SetDefault(KeyLoginRetryDelay, 5*time.Second)
	v.SetDefault(KeyLoginRetryMultiplier, 2.0)
	v.SetDefault(KeyLoginRetryJitter, time.Second)

	v.SetDefault(KeyPacingDelay, 2*time.Second)
	v.SetDefault(KeyEngageParallelism, 2)
	v.SetDefault(KeyRateLimitCooldown, 15*time.Minute)
	v.SetDefault(KeyAccountTimeout, 5*time.Minute)

	v.SetDefault(KeyLikeCap, 3)
	v.SetDefault(KeyLikesPerMinute, 20.0)
	v.SetDefault(KeyScrollAttempts, 3)
	v.SetDefault(KeyPollInterval, 1500*time.Millisecond)
	v.SetDefault(KeyOperatorWait, 5*time.Minute)

	v.SetDefault(KeyOpenAIModel, "gpt-4o-mini")
	v.SetDefault(KeyLogLevel, "info")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
