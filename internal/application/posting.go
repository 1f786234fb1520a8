package application

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"go.uber.org/zap"
)

type PostingConfig struct {
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	ConfirmTimeout    time.Duration
	Policy            RetryPolicy
}

func DefaultPostingConfig() PostingConfig {
	policy := DefaultPagePolicy()
	policy.MaxAttempts = 2

	return PostingConfig{
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
		ConfirmTimeout:    15 * time.Second,
		Policy:            policy,
	}
}

type PostingEngine struct {
	profile  domain.PlatformProfile
	verifier *PageStateVerifier
	retrier  *Retrier
	clock    ports.Clock
	cfg      PostingConfig
	logger   *zap.Logger
}

func NewPostingEngine(profile domain.PlatformProfile, retrier *Retrier, clock ports.Clock, cfg PostingConfig, logger *zap.Logger) *PostingEngine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(clock, logger)
	}

	return &PostingEngine{
		profile:  profile,
		verifier: NewPageStateVerifier(profile),
		retrier:  retrier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.Named("posting"),
	}
}

// Post publishes content through an active session. Success is only
// reported once the platform shows its confirmation marker. The submit click
// is never repeated once it went through.
func (e *PostingEngine) Post(ctx context.Context, active *ActiveSession, content string) (domain.PostResult, error) {
	result := domain.PostResult{AccountID: active.Account.ID}
	fail := func(err error) (domain.PostResult, error) {
		result.Outcome = domain.Failed(err)
		result.Timestamp = e.clock.Now()
		return result, err
	}

	if err := domain.ValidatePostContent(content, e.profile.MaxPostSize); err != nil {
		return fail(err)
	}

	page := active.Page
	p := e.profile
	log := e.logger.With(zap.String("account", string(active.Account.ID)))

	err := e.retrier.Do(ctx, "prepare post", e.cfg.Policy, func(ctx context.Context) error {
		if err := page.Navigate(ctx, p.ComposeURL, ports.WaitUntilDOMContentLoaded, e.cfg.NavigationTimeout); err != nil {
			return fmt.Errorf("open compose: %w", err)
		}
		if err := page.WaitForSelector(ctx, p.ComposeTextarea, e.cfg.ActionTimeout); err != nil {
			if classification, cerr := e.verifier.Classify(ctx, page); cerr == nil && classification.State == domain.PageStateLoggedOut {
				return domain.Permanent(fmt.Errorf("%w: logged out before compose", domain.ErrSessionCorrupt))
			}
			return fmt.Errorf("wait for compose box: %w", err)
		}
		if err := page.Fill(ctx, p.ComposeTextarea, content); err != nil {
			return fmt.Errorf("fill compose box: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	err = e.retrier.Do(ctx, "submit post", e.cfg.Policy, func(ctx context.Context) error {
		if err := page.Click(ctx, p.ComposeSubmit); err != nil {
			return fmt.Errorf("click post button: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	href, err := Retry(ctx, e.retrier, "confirm post", e.cfg.Policy, func(ctx context.Context) (string, error) {
		if err := page.WaitForSelector(ctx, p.ComposeConfirmation, e.cfg.ConfirmTimeout); err != nil {
			if limited, lerr := e.verifier.RateLimited(ctx, page); lerr == nil && limited {
				return "", domain.Permanent(fmt.Errorf("%w: platform refused the post", domain.ErrRateLimited))
			}
			return "", fmt.Errorf("wait for post confirmation: %w", err)
		}
		links, err := page.QueryAll(ctx, p.ComposeConfirmation)
		if err != nil {
			return "", fmt.Errorf("read post confirmation: %w", err)
		}
		if len(links) == 0 {
			return "", fmt.Errorf("read post confirmation: %w", domain.ErrStaleElement)
		}
		return links[0].Attribute(ctx, "href")
	})
	if err != nil {
		return fail(err)
	}

	result.Outcome = domain.Succeeded()
	result.ContentID = domain.ContentIDFromHref(href)
	result.ContentURL = absoluteURL(p.HomeURL, href)
	result.Timestamp = e.clock.Now()
	log.Info("post published", zap.String("content_id", result.ContentID))

	return result, nil
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
