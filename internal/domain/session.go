package domain

import (
	"fmt"
	"time"
)

type SessionPhase string

const (
	PhaseUninitialized SessionPhase = "uninitialized"
	PhaseRestoring     SessionPhase = "restoring"
	PhaseLoggedIn      SessionPhase = "logged_in"
	PhaseLoggedOut     SessionPhase = "logged_out"
	PhaseVerifying     SessionPhase = "verifying"
	PhaseRecovering    SessionPhase = "recovering"
	PhaseFailed        SessionPhase = "failed"
)

var phaseTransitions = map[SessionPhase][]SessionPhase{
	PhaseUninitialized: {PhaseRestoring},
	PhaseRestoring:     {PhaseLoggedIn, PhaseLoggedOut, PhaseFailed},
	PhaseLoggedIn:      {PhaseVerifying, PhaseLoggedOut, PhaseUninitialized},
	PhaseLoggedOut:     {PhaseVerifying, PhaseUninitialized},
	PhaseVerifying:     {PhaseLoggedIn, PhaseRecovering, PhaseFailed},
	PhaseRecovering:    {PhaseLoggedIn, PhaseFailed, PhaseVerifying, PhaseUninitialized},
	PhaseFailed:        {PhaseVerifying, PhaseRecovering, PhaseUninitialized},
}

func (p SessionPhase) Known() bool {
	_, ok := phaseTransitions[p]
	return ok
}

func (p SessionPhase) CanTransition(to SessionPhase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (p SessionPhase) Transition(to SessionPhase) (SessionPhase, error) {
	if !p.CanTransition(to) {
		return p, fmt.Errorf("invalid session transition %s -> %s", p, to)
	}
	return to, nil
}

type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite string
}

type Session struct {
	AccountID  AccountID
	Phase      SessionPhase
	LoginState PageState
	Cookies    []Cookie
	VerifiedAt time.Time
	UpdatedAt  time.Time
	Stale      bool
	LastError  ErrorKind
}

func NewSession(id AccountID) Session {
	return Session{AccountID: id, Phase: PhaseUninitialized, LoginState: PageStateUnknown}
}

// Invalidate marks the snapshot unusable after a detected logout or corruption.
func (s *Session) Invalidate(kind ErrorKind, now time.Time) {
	s.Stale = true
	s.LoginState = PageStateLoggedOut
	s.LastError = kind
	s.UpdatedAt = now
}

func (s *Session) MarkVerified(cookies []Cookie, now time.Time) {
	s.Cookies = cookies
	s.LoginState = PageStateLoggedIn
	s.Stale = false
	s.LastError = KindNone
	s.VerifiedAt = now
	s.UpdatedAt = now
}

// KeepCookies stores a cookie snapshot without claiming the page was
// verified. VerifiedAt and LoginState are left alone.
func (s *Session) KeepCookies(cookies []Cookie, now time.Time) {
	s.Cookies = cookies
	s.UpdatedAt = now
}

// UnexpiredCookies drops cookies whose expiry is before now. Session cookies
// (zero expiry) are kept.
func (s Session) UnexpiredCookies(now time.Time) []Cookie {
	cookies := make([]Cookie, 0, len(s.Cookies))
	for _, cookie := range s.Cookies {
		if !cookie.Expires.IsZero() && cookie.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, cookie)
	}
	return cookies
}

// VerificationExpired reports whether the last verification is older than
// maxAge. A non-positive maxAge disables the check.
func (s Session) VerificationExpired(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || s.VerifiedAt.IsZero() || now.IsZero() {
		return false
	}
	return now.Sub(s.VerifiedAt) > maxAge
}
