package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type SessionConfig struct {
	Launch            ports.LaunchOptions
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	LoginTimeout      time.Duration
	PagePolicy        RetryPolicy
	LoginPolicy       RetryPolicy
	// OperatorWait keeps a challenged session open so someone can solve the
	// challenge in the browser window. Zero fails the login immediately.
	OperatorWait time.Duration
	OperatorPoll time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Launch: ports.LaunchOptions{
			Headless:       true,
			Args:           []string{"--no-sandbox", "--disable-dev-shm-usage"},
			ViewportWidth:  1280,
			ViewportHeight: 800,
			ActionTimeout:  10 * time.Second,
		},
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
		LoginTimeout:      30 * time.Second,
		PagePolicy:        DefaultPagePolicy(),
		LoginPolicy:       DefaultLoginPolicy(),
		OperatorPoll:      2 * time.Second,
	}
}

type SessionDeps struct {
	Driver      ports.BrowserDriver
	Store       ports.SessionStore
	Verifier    *PageStateVerifier
	Retrier     *Retrier
	Clock       ports.Clock
	Logger      *zap.Logger
	Profile     domain.PlatformProfile
	Credentials map[domain.AccountID]domain.Credentials
}

// ActiveSession is a verified logged-in context handed to engines while the
// account lock is held.
type ActiveSession struct {
	Account domain.Account
	Page    ports.Page
	Session domain.Session
}

type accountSlot struct {
	sem     *semaphore.Weighted
	account domain.Account
	browser ports.BrowserContext
	session domain.Session
}

// SessionManager owns one browser context per account and drives each
// account through restore, verification and login recovery.
type SessionManager struct {
	deps   SessionDeps
	cfg    SessionConfig
	logger *zap.Logger

	mu    sync.Mutex
	slots map[domain.AccountID]*accountSlot
}

func NewSessionManager(deps SessionDeps, cfg SessionConfig) *SessionManager {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Retrier == nil {
		deps.Retrier = NewRetrier(deps.Clock, deps.Logger)
	}
	if deps.Verifier == nil {
		deps.Verifier = NewPageStateVerifier(deps.Profile)
	}

	return &SessionManager{
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger.Named("session"),
		slots:  map[domain.AccountID]*accountSlot{},
	}
}

func (m *SessionManager) slot(account domain.Account) *accountSlot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[account.ID]
	if !ok {
		s = &accountSlot{
			sem:     semaphore.NewWeighted(1),
			account: account,
			session: domain.NewSession(account.ID),
		}
		m.slots[account.ID] = s
	}
	return s
}

// EnsureLoggedIn brings the account to a verified logged-in state and
// returns the resulting session snapshot.
func (m *SessionManager) EnsureLoggedIn(ctx context.Context, account domain.Account) (domain.Session, error) {
	var snapshot domain.Session
	err := m.WithSession(ctx, account, func(_ context.Context, active *ActiveSession) error {
		snapshot = active.Session
		return nil
	})
	if err != nil {
		return m.Snapshot(account.ID), err
	}
	return snapshot, nil
}

// WithSession holds the account lock for the whole of fn, after making sure
// the account is logged in. The lock is released on every exit path.
func (m *SessionManager) WithSession(ctx context.Context, account domain.Account, fn func(context.Context, *ActiveSession) error) error {
	s := m.slot(account)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire account %s: %w", account.ID, err)
	}
	defer s.sem.Release(1)

	s.account = account
	active, err := m.ensureLocked(ctx, s)
	if err != nil {
		return err
	}

	err = fn(ctx, active)
	m.afterAction(ctx, s, err)
	return err
}

func (m *SessionManager) Snapshot(id domain.AccountID) domain.Session {
	m.mu.Lock()
	s, ok := m.slots[id]
	m.mu.Unlock()
	if !ok {
		return domain.NewSession(id)
	}

	if !s.sem.TryAcquire(1) {
		return domain.Session{AccountID: id, Phase: domain.PhaseVerifying}
	}
	defer s.sem.Release(1)
	return s.session
}

func (m *SessionManager) ensureLocked(ctx context.Context, s *accountSlot) (*ActiveSession, error) {
	log := m.logger.With(zap.String("account", string(s.account.ID)))

	if s.browser == nil {
		if err := m.restore(ctx, s); err != nil {
			return nil, err
		}
	}

	if err := m.setPhase(s, domain.PhaseVerifying); err != nil {
		return nil, err
	}
	classification, err := m.verify(ctx, s)
	if err != nil {
		log.Warn("page verification failed", zap.Error(err))
	}

	switch {
	case err == nil && classification.NeedsOperator():
		if err := m.awaitOperator(ctx, s, classification); err != nil {
			return nil, err
		}
		fallthrough
	case err == nil && classification.LoggedIn():
		if err := m.setPhase(s, domain.PhaseLoggedIn); err != nil {
			return nil, err
		}
		m.refresh(ctx, s)
		return m.active(s), nil
	}

	if err := m.setPhase(s, domain.PhaseRecovering); err != nil {
		return nil, err
	}
	s.session.Invalidate(domain.KindNone, m.deps.Clock.Now())
	m.persist(ctx, s)
	log.Info("session not logged in, recovering")

	if err := m.recover(ctx, s); err != nil {
		if errors.Is(err, domain.ErrChallengeRequired) {
			s.session.LastError = domain.KindChallengeRequired
			s.session.UpdatedAt = m.deps.Clock.Now()
			m.persist(ctx, s)
			if err := m.waitForOperator(ctx, s, err); err != nil {
				return nil, err
			}
			return m.loggedIn(ctx, s, "challenge resolved by operator"), nil
		}
		_ = m.setPhase(s, domain.PhaseFailed)
		s.session.LastError = domain.KindOf(err)
		s.session.UpdatedAt = m.deps.Clock.Now()
		m.persist(ctx, s)
		log.Error("login recovery failed", zap.Error(err))
		return nil, err
	}

	return m.loggedIn(ctx, s, "login recovered"), nil
}

// loggedIn finishes a recovery. Recovering always allows LoggedIn.
func (m *SessionManager) loggedIn(ctx context.Context, s *accountSlot, msg string) *ActiveSession {
	_ = m.setPhase(s, domain.PhaseLoggedIn)
	m.refresh(ctx, s)
	m.logger.Info(msg, zap.String("account", string(s.account.ID)))
	return m.active(s)
}

func (m *SessionManager) restore(ctx context.Context, s *accountSlot) error {
	log := m.logger.With(zap.String("account", string(s.account.ID)))
	if err := m.setPhase(s, domain.PhaseRestoring); err != nil {
		return err
	}

	browser, err := m.deps.Driver.LaunchPersistentContext(ctx, s.account.ProfileDir, m.cfg.Launch)
	if err != nil {
		_ = m.setPhase(s, domain.PhaseFailed)
		s.session.Invalidate(domain.KindSessionCorrupt, m.deps.Clock.Now())
		m.persist(ctx, s)
		s.session.Phase = domain.PhaseUninitialized
		return domain.Permanent(fmt.Errorf("%w: launch profile %s: %w", domain.ErrSessionCorrupt, s.account.ProfileDir, err))
	}
	s.browser = browser

	stored, err := m.deps.Store.Load(ctx, s.account.ID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		log.Debug("no stored session")
		return m.setPhase(s, domain.PhaseLoggedOut)
	case err != nil:
		log.Warn("discarding unreadable session", zap.Error(err))
		s.session.Invalidate(domain.KindSessionCorrupt, m.deps.Clock.Now())
		return m.setPhase(s, domain.PhaseLoggedOut)
	}

	stored.Phase = domain.PhaseRestoring
	s.session = stored

	cookies := stored.UnexpiredCookies(m.deps.Clock.Now())
	if stored.Stale || len(cookies) == 0 {
		return m.setPhase(s, domain.PhaseLoggedOut)
	}
	if err := browser.AddCookies(ctx, cookies); err != nil {
		log.Warn("restoring cookies failed", zap.Error(err))
		s.session.Invalidate(domain.KindSessionCorrupt, m.deps.Clock.Now())
		return m.setPhase(s, domain.PhaseLoggedOut)
	}

	return m.setPhase(s, domain.PhaseLoggedIn)
}

// verify classifies the current page, loading the home surface first when the
// page is blank or inconclusive.
func (m *SessionManager) verify(ctx context.Context, s *accountSlot) (domain.PageClassification, error) {
	page := s.browser.Page()

	current, err := m.deps.Verifier.Classify(ctx, page)
	if err != nil {
		return current, err
	}
	if current.LoggedIn() || current.NeedsOperator() {
		return current, nil
	}
	if current.State == domain.PageStateLoggedOut && m.deps.Profile.IsPlatformURL(current.URL) {
		return current, nil
	}

	err = m.deps.Retrier.Do(ctx, "open home "+string(s.account.ID), m.cfg.PagePolicy, func(ctx context.Context) error {
		if err := page.Navigate(ctx, m.deps.Profile.HomeURL, ports.WaitUntilDOMContentLoaded, m.cfg.NavigationTimeout); err != nil {
			return fmt.Errorf("open home: %w", err)
		}
		if err := page.WaitForSelector(ctx, m.deps.Verifier.settledMarkers(), m.cfg.ActionTimeout); err != nil {
			return fmt.Errorf("wait for home to settle: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PageClassification{State: domain.PageStateUnknown, URL: page.CurrentURL()}, err
	}

	return m.deps.Verifier.Classify(ctx, page)
}

func (m *SessionManager) awaitOperator(ctx context.Context, s *accountSlot, classification domain.PageClassification) error {
	if err := m.setPhase(s, domain.PhaseRecovering); err != nil {
		return err
	}
	s.session.LoginState = domain.PageStateUnknown
	s.session.LastError = domain.KindChallengeRequired
	s.session.UpdatedAt = m.deps.Clock.Now()
	m.persist(ctx, s)

	m.logger.Warn("manual challenge pending",
		zap.String("account", string(s.account.ID)),
		zap.String("challenge", string(classification.Challenge)),
	)
	cause := domain.Permanent(fmt.Errorf("%w: %s challenge on %s", domain.ErrChallengeRequired, classification.Challenge, s.account.ID))
	return m.waitForOperator(ctx, s, cause)
}

// waitForOperator polls the page until it shows a logged-in state or the
// operator window closes, in which case cause is returned.
func (m *SessionManager) waitForOperator(ctx context.Context, s *accountSlot, cause error) error {
	if m.cfg.OperatorWait <= 0 {
		return cause
	}
	poll := m.cfg.OperatorPoll
	if poll <= 0 {
		poll = time.Second
	}

	log := m.logger.With(zap.String("account", string(s.account.ID)))
	log.Info("waiting for operator", zap.Duration("timeout", m.cfg.OperatorWait))

	page := s.browser.Page()
	deadline := m.deps.Clock.Now().Add(m.cfg.OperatorWait)
	for m.deps.Clock.Now().Before(deadline) {
		if err := m.deps.Clock.Sleep(ctx, poll); err != nil {
			return fmt.Errorf("wait for operator: %w", err)
		}
		classification, err := m.deps.Verifier.Classify(ctx, page)
		if err != nil {
			log.Debug("classify while waiting for operator", zap.Error(err))
			continue
		}
		if classification.LoggedIn() {
			return nil
		}
	}

	log.Warn("operator window closed")
	return cause
}

func (m *SessionManager) recover(ctx context.Context, s *accountSlot) error {
	creds, ok := m.deps.Credentials[s.account.ID]
	if !ok || !creds.Valid() {
		return domain.Permanent(fmt.Errorf("%w: no credentials available for %s", domain.ErrLoginFailure, s.account.ID))
	}

	page := s.browser.Page()
	err := m.deps.Retrier.Do(ctx, "login "+string(s.account.ID), m.cfg.LoginPolicy, func(ctx context.Context) error {
		return m.submitLogin(ctx, page, creds)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrChallengeRequired) || errors.Is(err, domain.ErrLoginFailure) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrLoginFailure, err)
}

func (m *SessionManager) submitLogin(ctx context.Context, page ports.Page, creds domain.Credentials) error {
	p := m.deps.Profile
	verifier := m.deps.Verifier

	if err := page.Navigate(ctx, p.LoginURL, ports.WaitUntilDOMContentLoaded, m.cfg.NavigationTimeout); err != nil {
		return fmt.Errorf("open login: %w", err)
	}
	if err := page.WaitForSelector(ctx, verifier.settledMarkers(), m.cfg.ActionTimeout); err != nil {
		return fmt.Errorf("wait for login form: %w", err)
	}
	if done, err := m.loginDone(ctx, page); done || err != nil {
		return err
	}

	if err := page.WaitForSelector(ctx, p.UsernameInput, m.cfg.ActionTimeout); err != nil {
		return fmt.Errorf("wait for username input: %w", err)
	}
	if err := page.Fill(ctx, p.UsernameInput, creds.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := page.Click(ctx, p.UsernameSubmit); err != nil {
		return fmt.Errorf("submit username: %w", err)
	}

	if err := page.WaitForSelector(ctx, verifier.passwordStepMarkers(), m.cfg.ActionTimeout); err != nil {
		return fmt.Errorf("wait for password input: %w", err)
	}
	if done, err := m.loginDone(ctx, page); done || err != nil {
		return err
	}
	if err := page.Fill(ctx, p.PasswordInput, creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := page.Click(ctx, p.LoginSubmit); err != nil {
		return fmt.Errorf("submit password: %w", err)
	}

	if err := page.WaitForSelector(ctx, verifier.loginOutcomeMarkers(), m.cfg.LoginTimeout); err != nil {
		return fmt.Errorf("wait for login outcome: %w", err)
	}
	if done, err := m.loginDone(ctx, page); done || err != nil {
		return err
	}

	rejected, err := verifier.CredentialsRejected(ctx, page)
	if err != nil {
		return err
	}
	if rejected {
		return domain.Permanent(fmt.Errorf("%w: credentials rejected", domain.ErrLoginFailure))
	}

	return fmt.Errorf("%w: login did not reach a logged-in page", domain.ErrNavigationTimeout)
}

// loginDone reports whether the page is already logged in, or fails with a
// non-retryable challenge error.
func (m *SessionManager) loginDone(ctx context.Context, page ports.Page) (bool, error) {
	classification, err := m.deps.Verifier.Classify(ctx, page)
	if err != nil {
		return false, err
	}
	if classification.NeedsOperator() {
		return false, domain.Permanent(fmt.Errorf("%w: %s challenge during login", domain.ErrChallengeRequired, classification.Challenge))
	}
	return classification.LoggedIn(), nil
}

func (m *SessionManager) afterAction(ctx context.Context, s *accountSlot, actionErr error) {
	if errors.Is(actionErr, domain.ErrSessionCorrupt) {
		m.logger.Warn("session lost during action", zap.String("account", string(s.account.ID)), zap.Error(actionErr))
		s.session.Invalidate(domain.KindSessionCorrupt, m.deps.Clock.Now())
		_ = m.setPhase(s, domain.PhaseLoggedOut)
		m.persist(ctx, s)
		return
	}
	if actionErr != nil {
		m.keepCookies(ctx, s, domain.KindOf(actionErr))
		return
	}

	m.refresh(ctx, s)
}

// refresh marks the session verified with the context's current cookies and
// persists it. Only call it after the page was seen logged in.
func (m *SessionManager) refresh(ctx context.Context, s *accountSlot) {
	s.session.MarkVerified(m.cookies(ctx, s), m.deps.Clock.Now())
	m.persist(ctx, s)
}

// keepCookies persists the current cookies without touching VerifiedAt.
func (m *SessionManager) keepCookies(ctx context.Context, s *accountSlot, kind domain.ErrorKind) {
	s.session.KeepCookies(m.cookies(ctx, s), m.deps.Clock.Now())
	if kind != domain.KindNone {
		s.session.LastError = kind
	}
	m.persist(ctx, s)
}

func (m *SessionManager) cookies(ctx context.Context, s *accountSlot) []domain.Cookie {
	cookies, err := s.browser.Cookies(ctx)
	if err != nil {
		m.logger.Warn("snapshot cookies failed", zap.String("account", string(s.account.ID)), zap.Error(err))
		return s.session.Cookies
	}
	return cookies
}

func (m *SessionManager) persist(ctx context.Context, s *accountSlot) {
	if s.session.UpdatedAt.IsZero() {
		s.session.UpdatedAt = m.deps.Clock.Now()
	}
	if err := m.deps.Store.Save(context.WithoutCancel(ctx), s.session); err != nil {
		m.logger.Warn("persist session failed", zap.String("account", string(s.account.ID)), zap.Error(err))
	}
}

func (m *SessionManager) setPhase(s *accountSlot, to domain.SessionPhase) error {
	from := s.session.Phase
	if from == to {
		return nil
	}
	next, err := from.Transition(to)
	if err != nil {
		return fmt.Errorf("account %s: %w", s.account.ID, err)
	}
	s.session.Phase = next
	m.logger.Debug("session transition",
		zap.String("account", string(s.account.ID)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (m *SessionManager) active(s *accountSlot) *ActiveSession {
	return &ActiveSession{Account: s.account, Page: s.browser.Page(), Session: s.session}
}

// Close snapshots and closes the context of one account.
func (m *SessionManager) Close(ctx context.Context, id domain.AccountID) error {
	m.mu.Lock()
	s, ok := m.slots[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire account %s: %w", id, err)
	}
	defer s.sem.Release(1)

	if s.browser == nil {
		return nil
	}
	if s.session.Phase == domain.PhaseLoggedIn {
		m.keepCookies(ctx, s, domain.KindNone)
	}
	err := s.browser.Close()
	s.browser = nil
	s.session.Phase = domain.PhaseUninitialized
	if err != nil {
		return fmt.Errorf("close browser for %s: %w", id, err)
	}
	return nil
}

func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]domain.AccountID, 0, len(m.slots))
	for id := range m.slots {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		if err := m.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
