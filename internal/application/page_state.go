package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
)

// PageStateVerifier classifies the live page from marker elements only. It
// holds no per-account state.
type PageStateVerifier struct {
	profile domain.PlatformProfile
}

func NewPageStateVerifier(profile domain.PlatformProfile) *PageStateVerifier {
	return &PageStateVerifier{profile: profile}
}

func (v *PageStateVerifier) Classify(ctx context.Context, page ports.Page) (domain.PageClassification, error) {
	result := domain.PageClassification{State: domain.PageStateUnknown, URL: page.CurrentURL()}

	mfa, err := anyPresent(ctx, page, v.profile.MFAMarkers)
	if err != nil {
		return result, err
	}
	if mfa {
		result.Challenge = domain.ChallengeMFA
		return result, nil
	}

	botCheck, err := anyPresent(ctx, page, v.profile.BotCheckMarkers)
	if err != nil {
		return result, err
	}
	if botCheck {
		result.Challenge = domain.ChallengeBotCheck
		return result, nil
	}

	result.RateLimited, err = anyPresent(ctx, page, v.profile.RateLimitMarkers)
	if err != nil {
		return result, err
	}

	loggedIn, err := anyPresent(ctx, page, v.profile.LoggedInMarkers)
	if err != nil {
		return result, err
	}
	if loggedIn {
		result.State = domain.PageStateLoggedIn
		return result, nil
	}

	loginForm, err := anyPresent(ctx, page, v.profile.LoginFormMarkers)
	if err != nil {
		return result, err
	}
	if loginForm {
		result.State = domain.PageStateLoggedOut
	}

	return result, nil
}

func (v *PageStateVerifier) CredentialsRejected(ctx context.Context, page ports.Page) (bool, error) {
	return anyPresent(ctx, page, v.profile.CredentialErrors)
}

func (v *PageStateVerifier) RateLimited(ctx context.Context, page ports.Page) (bool, error) {
	return anyPresent(ctx, page, v.profile.RateLimitMarkers)
}

// settledMarkers matches any element that proves the page finished loading
// into a state we can classify.
func (v *PageStateVerifier) settledMarkers() string {
	markers := make([]string, 0, len(v.profile.LoggedInMarkers)+len(v.profile.LoginFormMarkers)+len(v.profile.MFAMarkers)+len(v.profile.BotCheckMarkers))
	markers = append(markers, v.profile.LoggedInMarkers...)
	markers = append(markers, v.profile.LoginFormMarkers...)
	markers = append(markers, v.profile.MFAMarkers...)
	markers = append(markers, v.profile.BotCheckMarkers...)
	return selectorList(markers)
}

func (v *PageStateVerifier) loginOutcomeMarkers() string {
	markers := append([]string{}, v.profile.LoggedInMarkers...)
	markers = append(markers, v.profile.MFAMarkers...)
	markers = append(markers, v.profile.BotCheckMarkers...)
	markers = append(markers, v.profile.CredentialErrors...)
	return selectorList(markers)
}

func (v *PageStateVerifier) passwordStepMarkers() string {
	markers := []string{v.profile.PasswordInput}
	markers = append(markers, v.profile.MFAMarkers...)
	markers = append(markers, v.profile.BotCheckMarkers...)
	return selectorList(markers)
}

func anyPresent(ctx context.Context, page ports.Page, selectors []string) (bool, error) {
	for _, selector := range selectors {
		ok, err := page.Exists(ctx, selector)
		if err != nil {
			return false, fmt.Errorf("probe %s: %w", selector, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func selectorList(selectors []string) string {
	return strings.Join(selectors, ", ")
}
