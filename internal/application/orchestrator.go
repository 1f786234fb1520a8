package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type OrchestratorConfig struct {
	PacingDelay       time.Duration
	EngageParallelism int
	RateLimitCooldown time.Duration
	LikeCap           int
	// AccountTimeout bounds one account's unit of work once it is dispatched.
	AccountTimeout time.Duration
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PacingDelay:       2 * time.Second,
		EngageParallelism: 2,
		RateLimitCooldown: 15 * time.Minute,
		LikeCap:           domain.DefaultLikeCap,
		AccountTimeout:    5 * time.Minute,
	}
}

type OrchestratorDeps struct {
	Accounts   ports.AccountRepository
	Groups     ports.GroupRepository
	Sessions   *SessionManager
	Posting    *PostingEngine
	Engagement *EngagementEngine
	Results    ports.ResultSink
	Clock      ports.Clock
	Logger     *zap.Logger
	NewID      func() string
}

// Orchestrator fans post and engagement requests out over accounts. One
// account failing never changes what happens to another.
type Orchestrator struct {
	deps   OrchestratorDeps
	cfg    OrchestratorConfig
	logger *zap.Logger

	mu        sync.Mutex
	cooldowns map[domain.AccountID]time.Time
}

func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Results == nil {
		deps.Results = ports.NopResultSink{}
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if cfg.EngageParallelism < 1 {
		cfg.EngageParallelism = 1
	}
	if cfg.LikeCap < 1 {
		cfg.LikeCap = domain.DefaultLikeCap
	}

	return &Orchestrator{
		deps:      deps,
		cfg:       cfg,
		logger:    deps.Logger.Named("orchestrator"),
		cooldowns: map[domain.AccountID]time.Time{},
	}
}

type targetSlot struct {
	id      domain.AccountID
	account domain.Account
	found   bool
}

// ResolveTarget expands a target into account slots in a stable order: the
// configuration order for every account, otherwise the requested order.
func (o *Orchestrator) ResolveTarget(ctx context.Context, target domain.Target) ([]domain.AccountID, error) {
	slots, err := o.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.AccountID, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.id)
	}
	return ids, nil
}

func (o *Orchestrator) resolve(ctx context.Context, target domain.Target) ([]targetSlot, error) {
	accounts, err := o.deps.Accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	byID := make(map[domain.AccountID]domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}

	var requested []domain.AccountID
	switch {
	case target.All():
		for _, account := range accounts {
			requested = append(requested, account.ID)
		}
	case target.Group != "":
		if o.deps.Groups == nil {
			return nil, fmt.Errorf("load group %s: %w", target.Group, domain.ErrGroupNotFound)
		}
		group, err := o.deps.Groups.GetByID(ctx, target.Group)
		if err != nil {
			return nil, fmt.Errorf("load group %s: %w", target.Group, err)
		}
		requested = append(requested, group.Members...)
		requested = append(requested, target.Accounts...)
	default:
		requested = target.Accounts
	}

	slots := make([]targetSlot, 0, len(requested))
	seen := make(map[domain.AccountID]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		account, ok := byID[id]
		slots = append(slots, targetSlot{id: id, account: account, found: ok})
	}

	return slots, nil
}

// BroadcastPost posts content through every targeted account, one account at
// a time with a pacing delay between dispatches. The error is only set when
// the target itself cannot be resolved.
func (o *Orchestrator) BroadcastPost(ctx context.Context, req domain.PostRequest) (domain.PostReport, error) {
	if req.CorrelationID == "" {
		req.CorrelationID = o.deps.NewID()
	}
	log := o.logger.With(zap.String("correlation_id", req.CorrelationID))

	slots, err := o.resolve(ctx, req.Target)
	if err != nil {
		return domain.NewPostReport(req.CorrelationID, nil), err
	}

	validationErr := domain.ValidatePostContent(req.Content, o.deps.Posting.profile.MaxPostSize)
	results := make([]domain.PostResult, len(slots))
	dispatched := 0

	for i, slot := range slots {
		var result domain.PostResult
		switch {
		case validationErr != nil:
			result = o.failedPost(slot.id, validationErr)
		case !slot.found:
			result = o.failedPost(slot.id, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, slot.id))
		case ctx.Err() != nil:
			result = o.failedPost(slot.id, fmt.Errorf("dispatch %s: %w", slot.id, ctx.Err()))
		default:
			if err := o.coolingDown(slot.id); err != nil {
				result = o.failedPost(slot.id, err)
				break
			}
			if dispatched > 0 {
				log.Debug("pacing before next account", zap.String("account", string(slot.id)), zap.Duration("delay", o.cfg.PacingDelay))
				if err := o.deps.Clock.Sleep(ctx, o.cfg.PacingDelay); err != nil {
					result = o.failedPost(slot.id, fmt.Errorf("dispatch %s: %w", slot.id, err))
					break
				}
			}
			dispatched++
			result = o.postOne(ctx, slot.account, req.Content)
		}

		result.CorrelationID = req.CorrelationID
		results[i] = result
		o.recordPost(ctx, result)
	}

	report := domain.NewPostReport(req.CorrelationID, results)
	log.Info("post broadcast finished", zap.Int("accounts", len(results)), zap.Bool("success", report.Success))
	return report, nil
}

func (o *Orchestrator) postOne(ctx context.Context, account domain.Account, content string) domain.PostResult {
	ctx, cancel := o.detach(ctx)
	defer cancel()

	var result domain.PostResult
	err := o.deps.Sessions.WithSession(ctx, account, func(ctx context.Context, active *ActiveSession) error {
		posted, err := o.deps.Posting.Post(ctx, active, content)
		result = posted
		return err
	})
	if err != nil {
		o.noteFailure(account.ID, err)
		if result.Outcome.Status == "" {
			return o.failedPost(account.ID, err)
		}
	}
	return result
}

// BroadcastEngage runs search-and-like on every targeted account with
// bounded parallelism. Results keep the target order.
func (o *Orchestrator) BroadcastEngage(ctx context.Context, req domain.EngagementRequest) (domain.EngagementReport, error) {
	if req.CorrelationID == "" {
		req.CorrelationID = o.deps.NewID()
	}
	if req.Cap <= 0 {
		req.Cap = o.cfg.LikeCap
	}
	log := o.logger.With(zap.String("correlation_id", req.CorrelationID), zap.String("term", req.Term))

	slots, err := o.resolve(ctx, req.Target)
	if err != nil {
		return domain.NewEngagementReport(req.CorrelationID, nil), err
	}

	validationErr := domain.EngagementTarget{Term: req.Term, Cap: req.Cap}.Validate()
	results := make([]domain.EngagementResult, len(slots))

	var g errgroup.Group
	g.SetLimit(o.cfg.EngageParallelism)

	for i, slot := range slots {
		switch {
		case validationErr != nil:
			results[i] = o.failedEngagement(slot.id, req.Term, validationErr)
			continue
		case !slot.found:
			results[i] = o.failedEngagement(slot.id, req.Term, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, slot.id))
			continue
		case ctx.Err() != nil:
			results[i] = o.failedEngagement(slot.id, req.Term, fmt.Errorf("dispatch %s: %w", slot.id, ctx.Err()))
			continue
		}
		if err := o.coolingDown(slot.id); err != nil {
			results[i] = o.failedEngagement(slot.id, req.Term, err)
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = o.failedEngagement(slot.id, req.Term, fmt.Errorf("dispatch %s: %w", slot.id, err))
				return nil
			}
			results[i] = o.engageOne(ctx, slot.account, req.Term, req.Cap)
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		results[i].CorrelationID = req.CorrelationID
		o.recordEngagement(ctx, results[i])
	}

	report := domain.NewEngagementReport(req.CorrelationID, results)
	log.Info("engagement broadcast finished", zap.Int("accounts", len(results)), zap.Bool("success", report.Success))
	return report, nil
}

func (o *Orchestrator) engageOne(ctx context.Context, account domain.Account, term string, likeCap int) domain.EngagementResult {
	ctx, cancel := o.detach(ctx)
	defer cancel()

	var result domain.EngagementResult
	err := o.deps.Sessions.WithSession(ctx, account, func(ctx context.Context, active *ActiveSession) error {
		engaged, err := o.deps.Engagement.SearchAndLike(ctx, active, domain.EngagementTarget{Term: term, Cap: likeCap})
		result = engaged
		return err
	})
	if err != nil {
		o.noteFailure(account.ID, err)
		if result.Outcome.Status == "" {
			return o.failedEngagement(account.ID, term, err)
		}
	}
	return result
}

type LoginResult struct {
	AccountID domain.AccountID
	Session   domain.Session
	Err       error
}

// Login brings every targeted account to a logged-in session without
// performing any action.
func (o *Orchestrator) Login(ctx context.Context, target domain.Target) ([]LoginResult, error) {
	slots, err := o.resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	results := make([]LoginResult, 0, len(slots))
	for _, slot := range slots {
		result := LoginResult{AccountID: slot.id}
		if slot.found {
			result.Session, result.Err = o.deps.Sessions.EnsureLoggedIn(ctx, slot.account)
		} else {
			result.Err = fmt.Errorf("%w: %s", domain.ErrAccountNotFound, slot.id)
		}
		results = append(results, result)
	}
	return results, nil
}

// detach keeps a dispatched account running after the caller cancels, bounded
// by the per-account timeout.
func (o *Orchestrator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if o.cfg.AccountTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, o.cfg.AccountTimeout)
}

func (o *Orchestrator) noteFailure(id domain.AccountID, err error) {
	log := o.logger.With(zap.String("account", string(id)))
	if !errors.Is(err, domain.ErrRateLimited) {
		log.Warn("account failed", zap.String("error_class", string(domain.KindOf(err))), zap.Error(err))
		return
	}

	until := o.deps.Clock.Now().Add(o.cfg.RateLimitCooldown)
	o.mu.Lock()
	o.cooldowns[id] = until
	o.mu.Unlock()
	log.Warn("account rate limited, cooling down", zap.Time("until", until))
}

func (o *Orchestrator) coolingDown(id domain.AccountID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	until, ok := o.cooldowns[id]
	if !ok {
		return nil
	}
	if !o.deps.Clock.Now().Before(until) {
		delete(o.cooldowns, id)
		return nil
	}
	return fmt.Errorf("%w: %s cooling down until %s", domain.ErrRateLimited, id, until.Format(time.RFC3339))
}

func (o *Orchestrator) failedPost(id domain.AccountID, err error) domain.PostResult {
	return domain.PostResult{AccountID: id, Outcome: domain.Failed(err), Timestamp: o.deps.Clock.Now()}
}

func (o *Orchestrator) failedEngagement(id domain.AccountID, term string, err error) domain.EngagementResult {
	return domain.EngagementResult{AccountID: id, Term: term, Outcome: domain.Failed(err), Timestamp: o.deps.Clock.Now()}
}

func (o *Orchestrator) recordPost(ctx context.Context, result domain.PostResult) {
	if err := o.deps.Results.RecordPost(context.WithoutCancel(ctx), result); err != nil {
		o.logger.Warn("record post result failed", zap.String("account", string(result.AccountID)), zap.Error(err))
	}
}

func (o *Orchestrator) recordEngagement(ctx context.Context, result domain.EngagementResult) {
	if err := o.deps.Results.RecordEngagement(context.WithoutCancel(ctx), result); err != nil {
		o.logger.Warn("record engagement result failed", zap.String("account", string(result.AccountID)), zap.Error(err))
	}
}
