package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/bnema/social-accounts-cli/internal/ratelimit"
	"go.uber.org/zap"
)

type EngagementConfig struct {
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	// ScrollAttempts bounds how many consecutive scrolls may load nothing new
	// before the search is considered exhausted.
	ScrollAttempts int
	ScrollDistance int
	PollInterval   time.Duration
	Policy         RetryPolicy
	LikePolicy     RetryPolicy
}

func DefaultEngagementConfig() EngagementConfig {
	likePolicy := DefaultPagePolicy()
	likePolicy.MaxAttempts = 2
	likePolicy.BaseDelay = 500 * time.Millisecond

	return EngagementConfig{
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
		ScrollAttempts:    3,
		ScrollDistance:    1000,
		PollInterval:      1500 * time.Millisecond,
		Policy:            DefaultPagePolicy(),
		LikePolicy:        likePolicy,
	}
}

type EngagementEngine struct {
	profile  domain.PlatformProfile
	verifier *PageStateVerifier
	retrier  *Retrier
	pacer    *ratelimit.Limiter
	clock    ports.Clock
	cfg      EngagementConfig
	logger   *zap.Logger

	mu    sync.Mutex
	dedup map[domain.AccountID]*domain.DedupSet
}

func NewEngagementEngine(profile domain.PlatformProfile, retrier *Retrier, pacer *ratelimit.Limiter, clock ports.Clock, cfg EngagementConfig, logger *zap.Logger) *EngagementEngine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(clock, logger)
	}
	if pacer == nil {
		pacer = ratelimit.NewLimiter(0, 1)
	}

	return &EngagementEngine{
		profile:  profile,
		verifier: NewPageStateVerifier(profile),
		retrier:  retrier,
		pacer:    pacer,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.Named("engagement"),
		dedup:    map[domain.AccountID]*domain.DedupSet{},
	}
}

// DedupFor returns the run-scoped set of ids already liked by id.
func (e *EngagementEngine) DedupFor(id domain.AccountID) *domain.DedupSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.dedup[id]
	if !ok {
		set = domain.NewDedupSet()
		e.dedup[id] = set
	}
	return set
}

// SearchAndLike likes up to target.Cap new results for term. Individual like
// failures are counted and skipped.
func (e *EngagementEngine) SearchAndLike(ctx context.Context, active *ActiveSession, target domain.EngagementTarget) (domain.EngagementResult, error) {
	result := domain.EngagementResult{AccountID: active.Account.ID, Term: target.Term}
	finish := func(err error) (domain.EngagementResult, error) {
		result.Timestamp = e.clock.Now()
		if err == nil {
			result.Outcome = domain.Succeeded()
			return result, nil
		}
		result.Outcome = domain.Failed(err)
		return result, err
	}

	if err := target.Validate(); err != nil {
		return finish(err)
	}
	dedup := target.Dedup
	if dedup == nil {
		dedup = e.DedupFor(active.Account.ID)
	}

	page := active.Page
	p := e.profile
	log := e.logger.With(zap.String("account", string(active.Account.ID)), zap.String("term", target.Term))

	err := e.retrier.Do(ctx, "open search", e.cfg.Policy, func(ctx context.Context) error {
		if err := page.Navigate(ctx, p.SearchPageURL(target.Term), ports.WaitUntilDOMContentLoaded, e.cfg.NavigationTimeout); err != nil {
			return fmt.Errorf("open search: %w", err)
		}
		if err := page.WaitForSelector(ctx, p.SearchResults, e.cfg.ActionTimeout); err != nil {
			classification, cerr := e.verifier.Classify(ctx, page)
			switch {
			case cerr != nil:
			case classification.State == domain.PageStateLoggedOut:
				return domain.Permanent(fmt.Errorf("%w: logged out before search", domain.ErrSessionCorrupt))
			case classification.RateLimited:
				return domain.Permanent(fmt.Errorf("%w: search refused", domain.ErrRateLimited))
			}
			return fmt.Errorf("wait for search results: %w", err)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	var lastErr error
	seen := map[string]struct{}{}
	idleScrolls := 0

scan:
	for result.Liked < target.Cap {
		elements, err := page.QueryAll(ctx, p.SearchResults)
		if err != nil {
			lastErr = fmt.Errorf("list search results: %w", err)
			break
		}

		progressed := false
		for _, element := range elements {
			if result.Liked >= target.Cap {
				break scan
			}

			id := e.resultID(ctx, element)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			progressed = true

			if dedup.Contains(id) {
				result.Skipped++
				continue
			}
			if e.alreadyLiked(ctx, element) {
				dedup.Add(id)
				result.Skipped++
				continue
			}

			if err := e.like(ctx, element, id); err != nil {
				if ctx.Err() != nil {
					lastErr = ctx.Err()
					break scan
				}
				result.Failed++
				lastErr = err
				log.Warn("like failed", zap.String("content_id", id), zap.Error(err))
				continue
			}

			dedup.Add(id)
			result.Liked++
			result.LikedIDs = append(result.LikedIDs, id)
			log.Debug("liked", zap.String("content_id", id), zap.Int("liked", result.Liked))

			if result.Liked < target.Cap {
				key := string(active.Account.ID)
				if tokens := e.pacer.Tokens(key); tokens < 1 {
					log.Debug("pacing next like", zap.Float64("tokens", tokens))
				}
				if err := e.pacer.Wait(ctx, key); err != nil {
					lastErr = err
					break scan
				}
			}
		}

		if result.Liked >= target.Cap {
			break
		}
		if progressed {
			idleScrolls = 0
		} else {
			idleScrolls++
		}
		if idleScrolls > e.cfg.ScrollAttempts {
			break
		}

		if err := page.Scroll(ctx, e.cfg.ScrollDistance); err != nil {
			lastErr = fmt.Errorf("scroll results: %w", err)
			break
		}
		if err := e.clock.Sleep(ctx, e.cfg.PollInterval); err != nil {
			lastErr = err
			break
		}
	}

	log.Info("engagement finished",
		zap.Int("liked", result.Liked),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	switch {
	case result.Liked > 0:
		return finish(nil)
	case result.Failed == 0 && result.Skipped > 0 && lastErr == nil:
		return finish(nil)
	case lastErr != nil:
		return finish(lastErr)
	default:
		return finish(fmt.Errorf("%w: no likeable results for %q", domain.ErrElementNotFound, target.Term))
	}
}

func (e *EngagementEngine) resultID(ctx context.Context, element ports.Element) string {
	link, err := element.Child(ctx, e.profile.ResultPermalink)
	if err != nil || link == nil {
		return ""
	}
	href, err := link.Attribute(ctx, "href")
	if err != nil {
		return ""
	}
	return domain.ContentIDFromHref(href)
}

func (e *EngagementEngine) alreadyLiked(ctx context.Context, element ports.Element) bool {
	unlike, err := element.Child(ctx, e.profile.UnlikeButton)
	return err == nil && unlike != nil
}

func (e *EngagementEngine) like(ctx context.Context, element ports.Element, id string) error {
	return e.retrier.Do(ctx, "like "+id, e.cfg.LikePolicy, func(ctx context.Context) error {
		button, err := element.Child(ctx, e.profile.LikeButton)
		if err != nil {
			return fmt.Errorf("find like button: %w", err)
		}
		if button == nil {
			return fmt.Errorf("find like button: %w", domain.ErrElementNotFound)
		}
		if err := button.Click(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("click like button: %w", err)
		}
		return nil
	})
}
