package domain

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrSecretNotFound  = errors.New("secret not found")
	ErrSessionNotFound = errors.New("session not found")

	ErrLoginFailure      = errors.New("login failure")
	ErrChallengeRequired = errors.New("challenge required")
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrElementNotFound   = errors.New("element not found")
	ErrStaleElement      = errors.New("stale element")
	ErrRateLimited       = errors.New("rate limited")
	ErrSessionCorrupt    = errors.New("session corrupt")
	ErrInputValidation   = errors.New("input validation")
)

type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindLoginFailure      ErrorKind = "login_failure"
	KindChallengeRequired ErrorKind = "challenge_required"
	KindNavigationTimeout ErrorKind = "navigation_timeout"
	KindElementNotFound   ErrorKind = "element_not_found"
	KindStaleElement      ErrorKind = "stale_element"
	KindRateLimited       ErrorKind = "rate_limited"
	KindSessionCorrupt    ErrorKind = "session_corrupt"
	KindInputValidation   ErrorKind = "input_validation"
	KindAccountNotFound   ErrorKind = "account_not_found"
	KindSecretNotFound    ErrorKind = "secret_not_found"
	KindCanceled          ErrorKind = "canceled"
	KindUnknown           ErrorKind = "unknown"
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindChallengeRequired, ErrChallengeRequired},
	{KindRateLimited, ErrRateLimited},
	{KindInputValidation, ErrInputValidation},
	{KindSessionCorrupt, ErrSessionCorrupt},
	{KindLoginFailure, ErrLoginFailure},
	{KindAccountNotFound, ErrAccountNotFound},
	{KindSecretNotFound, ErrSecretNotFound},
	{KindNavigationTimeout, ErrNavigationTimeout},
	{KindStaleElement, ErrStaleElement},
	{KindElementNotFound, ErrElementNotFound},
}

// KindOf classifies err against the error taxonomy. More specific kinds win
// when an error wraps several sentinels.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, candidate := range kindSentinels {
		if errors.Is(err, candidate.err) {
			return candidate.kind
		}
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNavigationTimeout
	}

	return KindUnknown
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var target *permanentError
	return errors.As(err, &target)
}
