package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/adapters/browser/fake"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageStateVerifierClassify(t *testing.T) {
	t.Parallel()

	profile := domain.DefaultXProfile()

	tests := []struct {
		name      string
		configure func(s *fake.Site)
		url       string
		submit    bool
		want      domain.PageClassification
	}{
		{
			name: "blank page is unknown",
			want: domain.PageClassification{State: domain.PageStateUnknown, URL: "about:blank"},
		},
		{
			name:      "home while logged in",
			configure: func(s *fake.Site) { s.LoggedIn = true },
			url:       profile.HomeURL,
			want:      domain.PageClassification{State: domain.PageStateLoggedIn, URL: profile.HomeURL},
		},
		{
			name: "home while logged out redirects to the login form",
			url:  profile.HomeURL,
			want: domain.PageClassification{State: domain.PageStateLoggedOut, URL: profile.LoginURL},
		},
		{
			name: "mfa challenge",
			configure: func(s *fake.Site) {
				s.Username, s.Password = "alice", "pw"
				s.Challenge = domain.ChallengeMFA
			},
			url:    profile.LoginURL,
			submit: true,
			want:   domain.PageClassification{State: domain.PageStateUnknown, Challenge: domain.ChallengeMFA, URL: profile.LoginURL},
		},
		{
			name: "bot check",
			configure: func(s *fake.Site) {
				s.Username, s.Password = "alice", "pw"
				s.Challenge = domain.ChallengeBotCheck
			},
			url:    profile.LoginURL,
			submit: true,
			want:   domain.PageClassification{State: domain.PageStateUnknown, Challenge: domain.ChallengeBotCheck, URL: profile.LoginURL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			driver := fake.NewDriver(profile)
			if tt.configure != nil {
				driver.Site("profile").Configure(tt.configure)
			}
			browser, err := driver.LaunchPersistentContext(ctx, "profile", ports.LaunchOptions{})
			require.NoError(t, err)
			page := browser.Page()

			if tt.url != "" {
				require.NoError(t, page.Navigate(ctx, tt.url, ports.WaitUntilDOMContentLoaded, time.Second))
			}
			if tt.submit {
				submitCredentials(t, page, profile, "alice", "pw")
			}

			got, err := NewPageStateVerifier(profile).Classify(ctx, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageStateVerifierCredentialsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := domain.DefaultXProfile()
	driver := fake.NewDriver(profile)
	driver.Site("profile").Configure(func(s *fake.Site) {
		s.Username, s.Password = "alice", "right"
	})
	browser, err := driver.LaunchPersistentContext(ctx, "profile", ports.LaunchOptions{})
	require.NoError(t, err)
	page := browser.Page()
	require.NoError(t, page.Navigate(ctx, profile.LoginURL, ports.WaitUntilDOMContentLoaded, time.Second))

	verifier := NewPageStateVerifier(profile)
	rejected, err := verifier.CredentialsRejected(ctx, page)
	require.NoError(t, err)
	assert.False(t, rejected)

	submitCredentials(t, page, profile, "alice", "wrong")

	rejected, err = verifier.CredentialsRejected(ctx, page)
	require.NoError(t, err)
	assert.True(t, rejected)
}

func TestPageStateVerifierSelectorLists(t *testing.T) {
	t.Parallel()

	verifier := NewPageStateVerifier(domain.PlatformProfile{
		LoggedInMarkers:  []string{"#home"},
		LoginFormMarkers: []string{"#login"},
		MFAMarkers:       []string{"#otp"},
		BotCheckMarkers:  []string{"#captcha"},
		CredentialErrors: []string{"#error"},
		PasswordInput:    "#password",
	})

	assert.Equal(t, "#home, #login, #otp, #captcha", verifier.settledMarkers())
	assert.Equal(t, "#home, #otp, #captcha, #error", verifier.loginOutcomeMarkers())
	assert.Equal(t, "#password, #otp, #captcha", verifier.passwordStepMarkers())
}

func submitCredentials(t *testing.T, page ports.Page, profile domain.PlatformProfile, username, password string) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, page.Fill(ctx, profile.UsernameInput, username))
	require.NoError(t, page.Click(ctx, profile.UsernameSubmit))
	require.NoError(t, page.Fill(ctx, profile.PasswordInput, password))
	require.NoError(t, page.Click(ctx, profile.LoginSubmit))
}
