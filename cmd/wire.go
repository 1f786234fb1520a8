package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	playwrightdriver "github.com/bnema/social-accounts-cli/internal/adapters/browser/playwright"
	roddriver "github.com/bnema/social-accounts-cli/internal/adapters/browser/rod"
	openaicontent "github.com/bnema/social-accounts-cli/internal/adapters/content/openai"
	statusadapter "github.com/bnema/social-accounts-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/social-accounts-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/social-accounts-cli/internal/adapters/secrets/chain"
	sqlitesink "github.com/bnema/social-accounts-cli/internal/adapters/sink/sqlite"
	"github.com/bnema/social-accounts-cli/internal/application"
	"github.com/bnema/social-accounts-cli/internal/config"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/bnema/social-accounts-cli/internal/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootFlags struct {
	verbose   bool
	configDir string
}

// wireOptions replaces adapters that talk to the outside world. Zero values
// select the production adapters.
type wireOptions struct {
	driverFactory    func(config.Browser, *zap.Logger) (ports.BrowserDriver, error)
	generatorFactory func(config.OpenAI, int) (ports.ContentGenerator, error)
	secretStore      ports.SecretStore
	clock            ports.Clock
}

type app struct {
	opts    wireOptions
	cfg     *config.Config
	logger  *zap.Logger
	clock   ports.Clock
	profile domain.PlatformProfile

	accounts     *tomlrepo.Repository
	groupRepo    *tomlrepo.GroupRepository
	sessionStore *tomlrepo.SessionStore
	secretStore  ports.SecretStore

	service        *application.Service
	groups         *application.GroupService
	statusRenderer func([]application.AccountStatus, statusadapter.RenderOptions) (string, error)
}

func (a *app) init(flags rootFlags, logOutput io.Writer) error {
	cfg, err := config.Load(config.Options{Dir: flags.configDir})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, flags.verbose, logOutput)
	if err != nil {
		return err
	}

	accounts, err := tomlrepo.NewRepository(cfg.Viper)
	if err != nil {
		return fmt.Errorf("wire account repository: %w", err)
	}
	groupRepo, err := tomlrepo.NewGroupRepository(cfg.Viper)
	if err != nil {
		return fmt.Errorf("wire group repository: %w", err)
	}
	sessionStore, err := tomlrepo.NewSessionStore(cfg.Viper)
	if err != nil {
		return fmt.Errorf("wire session store: %w", err)
	}

	secretStore := a.opts.secretStore
	if secretStore == nil {
		chain, err := chainstore.NewDefault(cfg.DotEnv, cfg.SecretsDir)
		if err != nil {
			return fmt.Errorf("wire secret store chain: %w", err)
		}
		secretStore = chain
	}

	clock := a.opts.clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	a.cfg = cfg
	a.logger = logger
	a.clock = clock
	a.profile = domain.DefaultXProfile()
	a.accounts = accounts
	a.groupRepo = groupRepo
	a.sessionStore = sessionStore
	a.secretStore = secretStore
	a.service = application.NewService(accounts, secretStore, sessionStore, cfg.ProfilesDir)
	a.groups = application.NewGroupService(accounts, groupRepo, clock)
	a.statusRenderer = statusadapter.Render
	return nil
}

func newLogger(level string, verbose bool, output io.Writer) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zcfg.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(output)),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core), nil
}

func (a *app) newDriver() (ports.BrowserDriver, error) {
	if a.opts.driverFactory != nil {
		return a.opts.driverFactory(a.cfg.Browser, a.logger)
	}

	switch a.cfg.Browser.Driver {
	case config.DriverRod:
		return roddriver.NewDriver(roddriver.Config{Bin: a.cfg.Browser.Bin, Logger: a.logger}), nil
	default:
		return playwrightdriver.NewDriver(playwrightdriver.Config{Install: a.cfg.Browser.Install, Logger: a.logger}), nil
	}
}

func (a *app) newGenerator() (ports.ContentGenerator, error) {
	if a.opts.generatorFactory != nil {
		return a.opts.generatorFactory(a.cfg.OpenAI, a.profile.MaxPostSize)
	}

	return openaicontent.NewGenerator(openaicontent.Config{
		APIKey:   a.cfg.OpenAI.APIKey,
		BaseURL:  a.cfg.OpenAI.BaseURL,
		Model:    a.cfg.OpenAI.Model,
		MaxRunes: a.profile.MaxPostSize,
	})
}

type runtimeOptions struct {
	waitOperator bool
	showBrowser  bool
}

// runtime holds everything a browser-backed command needs. Close releases it
// in reverse order of construction.
type runtime struct {
	orchestrator *application.Orchestrator
	sessions     *application.SessionManager
	recorder     *application.Recorder
	sink         *sqlitesink.Sink
	driver       ports.BrowserDriver
}

func (a *app) startRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	accounts, err := a.service.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	creds := application.ResolveCredentials(ctx, a.secretStore, accounts, a.logger)

	driver, err := a.newDriver()
	if err != nil {
		return nil, fmt.Errorf("wire browser driver: %w", err)
	}

	sink, err := sqlitesink.Open(ctx, a.cfg.SinkPath)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("wire result sink: %w", err)
	}
	recorder := application.NewRecorder(sink, 0, a.logger)

	retrier := application.NewRetrier(a.clock, a.logger)
	sessions := application.NewSessionManager(application.SessionDeps{
		Driver:      driver,
		Store:       a.sessionStore,
		Retrier:     retrier,
		Clock:       a.clock,
		Logger:      a.logger,
		Profile:     a.profile,
		Credentials: creds,
	}, a.sessionConfig(opts))

	posting := application.NewPostingEngine(a.profile, retrier, a.clock, a.postingConfig(), a.logger)
	pacer := ratelimit.NewLimiter(a.cfg.LikesPerMinute, 1)
	engagement := application.NewEngagementEngine(a.profile, retrier, pacer, a.clock, a.engagementConfig(), a.logger)

	orchestrator := application.NewOrchestrator(application.OrchestratorDeps{
		Accounts:   a.accounts,
		Groups:     a.groupRepo,
		Sessions:   sessions,
		Posting:    posting,
		Engagement: engagement,
		Results:    recorder,
		Clock:      a.clock,
		Logger:     a.logger,
	}, application.OrchestratorConfig{
		PacingDelay:       a.cfg.PacingDelay,
		EngageParallelism: a.cfg.EngageParallelism,
		RateLimitCooldown: a.cfg.RateLimitCooldown,
		LikeCap:           a.cfg.LikeCap,
		AccountTimeout:    a.cfg.AccountTimeout,
	})

	return &runtime{
		orchestrator: orchestrator,
		sessions:     sessions,
		recorder:     recorder,
		sink:         sink,
		driver:       driver,
	}, nil
}

func (r *runtime) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	return errors.Join(
		r.sessions.CloseAll(ctx),
		r.recorder.Close(ctx),
		r.sink.Close(),
		r.driver.Close(),
	)
}

func (a *app) sessionConfig(opts runtimeOptions) application.SessionConfig {
	cfg := application.DefaultSessionConfig()
	cfg.Launch.Headless = a.cfg.Browser.Headless && !opts.showBrowser && !opts.waitOperator
	cfg.Launch.ActionTimeout = a.cfg.Browser.ActionTimeout
	cfg.NavigationTimeout = a.cfg.Browser.NavigationTimeout
	cfg.ActionTimeout = a.cfg.Browser.ActionTimeout
	cfg.LoginTimeout = a.cfg.Browser.LoginTimeout
	cfg.PagePolicy = retryPolicy(a.cfg.PageRetry)
	cfg.LoginPolicy = retryPolicy(a.cfg.LoginRetry)
	if opts.waitOperator {
		cfg.OperatorWait = a.cfg.OperatorWait
	}
	return cfg
}

func (a *app) postingConfig() application.PostingConfig {
	cfg := application.DefaultPostingConfig()
	cfg.NavigationTimeout = a.cfg.Browser.NavigationTimeout
	cfg.ActionTimeout = a.cfg.Browser.ActionTimeout
	cfg.Policy.BaseDelay = a.cfg.PageRetry.BaseDelay
	cfg.Policy.BackoffMultiplier = a.cfg.PageRetry.Multiplier
	return cfg
}

func (a *app) engagementConfig() application.EngagementConfig {
	cfg := application.DefaultEngagementConfig()
	cfg.NavigationTimeout = a.cfg.Browser.NavigationTimeout
	cfg.ActionTimeout = a.cfg.Browser.ActionTimeout
	cfg.ScrollAttempts = a.cfg.ScrollAttempts
	cfg.PollInterval = a.cfg.PollInterval
	cfg.Policy = retryPolicy(a.cfg.PageRetry)
	return cfg
}

func retryPolicy(r config.Retry) application.RetryPolicy {
	return application.RetryPolicy{
		MaxAttempts:       r.MaxAttempts,
		BaseDelay:         r.BaseDelay,
		BackoffMultiplier: r.Multiplier,
		Jitter:            r.Jitter,
		Retryable:         application.IsTransient,
	}
}
