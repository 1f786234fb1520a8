package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfClassifiesWrappedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "challenge", err: fmt.Errorf("login: %w", ErrChallengeRequired), want: KindChallengeRequired},
		{name: "challenge wins over login failure", err: fmt.Errorf("%w: %w", ErrLoginFailure, ErrChallengeRequired), want: KindChallengeRequired},
		{name: "timeout", err: fmt.Errorf("wait compose: %w", ErrNavigationTimeout), want: KindNavigationTimeout},
		{name: "permanent keeps kind", err: Permanent(fmt.Errorf("click: %w", ErrElementNotFound)), want: KindElementNotFound},
		{name: "context canceled", err: fmt.Errorf("acquire: %w", context.Canceled), want: KindCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: KindNavigationTimeout},
		{name: "unknown", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestPermanentUnwrapsAndIsDetected(t *testing.T) {
	t.Parallel()

	err := Permanent(fmt.Errorf("credential rejected: %w", ErrLoginFailure))
	assert.True(t, IsPermanent(err))
	assert.True(t, IsPermanent(fmt.Errorf("outer: %w", err)))
	assert.ErrorIs(t, err, ErrLoginFailure)
	assert.False(t, IsPermanent(ErrLoginFailure))
	assert.Nil(t, Permanent(nil))
}

func TestSessionPhaseTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from SessionPhase
		to   SessionPhase
		ok   bool
	}{
		{PhaseUninitialized, PhaseRestoring, true},
		{PhaseUninitialized, PhaseLoggedIn, false},
		{PhaseRestoring, PhaseLoggedIn, true},
		{PhaseRestoring, PhaseLoggedOut, true},
		{PhaseLoggedOut, PhaseVerifying, true},
		{PhaseLoggedIn, PhaseVerifying, true},
		{PhaseVerifying, PhaseRecovering, true},
		{PhaseVerifying, PhaseLoggedIn, true},
		{PhaseRecovering, PhaseLoggedIn, true},
		{PhaseRecovering, PhaseFailed, true},
		{PhaseLoggedOut, PhaseLoggedIn, false},
		{PhaseLoggedIn, PhaseRecovering, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			t.Parallel()
			next, err := tc.from.Transition(tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, next)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.from, next)
		})
	}
}

func TestValidatePostContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "simple", content: "hello world"},
		{name: "exactly at limit", content: strings.Repeat("a", 280)},
		{name: "multibyte at limit", content: strings.Repeat("é", 280)},
		{name: "over limit", content: strings.Repeat("a", 281), wantErr: true},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace", content: "   \n", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePostContent(tc.content, 280)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInputValidation)
			assert.Equal(t, KindInputValidation, KindOf(err))
		})
	}
}

func TestSearchTermEncodingRoundTrips(t *testing.T) {
	t.Parallel()

	terms := []string{
		"golang",
		"hello world",
		"#golang tips",
		"café au lait",
		"東京 #旅行",
		"a&b=c?d/e+f%",
		"emoji 🚀 launch",
	}

	for _, term := range terms {
		term := term
		t.Run(term, func(t *testing.T) {
			t.Parallel()
			encoded := EncodeSearchTerm(term)
			assert.NotContains(t, encoded, " ")
			assert.NotContains(t, encoded, "#")
			decoded, err := DecodeSearchTerm(encoded)
			require.NoError(t, err)
			assert.Equal(t, term, decoded)
		})
	}
}

func TestSearchPageURLEncodesTerm(t *testing.T) {
	t.Parallel()

	profile := DefaultXProfile()
	got := profile.SearchPageURL("#go lang")
	assert.Equal(t, "https://x.com/search?q=%23go+lang&src=typed_query&f=live", got)
}

func TestContentIDFromHref(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/someone/status/1789":                     "1789",
		"https://x.com/someone/status/42?s=20":     "42",
		"https://x.com/someone/status/42/photo/1":  "42",
		"/someone/likes":                           "",
		"/someone/status/abc":                      "",
		"":                                         "",
	}

	for href, want := range tests {
		assert.Equal(t, want, ContentIDFromHref(href), href)
	}
}

func TestPlatformURLDetection(t *testing.T) {
	t.Parallel()

	profile := DefaultXProfile()
	assert.True(t, profile.IsPlatformURL("https://x.com/home"))
	assert.True(t, profile.IsPlatformURL("https://X.com/compose/post"))
	assert.False(t, profile.IsPlatformURL("about:blank"))
	assert.False(t, profile.IsPlatformURL("https://example.com/home"))
}

func TestDedupSet(t *testing.T) {
	t.Parallel()

	set := NewDedupSet("1", "2", "")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("1"))
	assert.False(t, set.Add("1"))
	assert.True(t, set.Add("3"))
	assert.False(t, set.Add(""))
	assert.Equal(t, 3, set.Len())
}

func TestEngagementTargetValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, EngagementTarget{Term: "go", Cap: 3}.Validate())
	assert.ErrorIs(t, EngagementTarget{Term: " ", Cap: 3}.Validate(), ErrInputValidation)
	assert.ErrorIs(t, EngagementTarget{Term: "go", Cap: 0}.Validate(), ErrInputValidation)
}

func TestGroupNormalizeMembersDeduplicatesAndDropsEmpty(t *testing.T) {
	t.Parallel()

	group := Group{Members: []AccountID{"primary", "", " secondary ", "primary", "third"}}
	group.NormalizeMembers()

	assert.Equal(t, []AccountID{"primary", "secondary", "third"}, group.Members)
}

func TestGroupValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Group{ID: "all", Name: "All", Members: []AccountID{"a"}}.Validate())
	assert.ErrorContains(t, Group{Name: "All", Members: []AccountID{"a"}}.Validate(), "id is required")
	assert.ErrorContains(t, Group{ID: "all", Members: []AccountID{"a"}}.Validate(), "name is required")
	assert.ErrorContains(t, Group{ID: "all", Name: "All"}.Validate(), "no members")
}

func TestAccountValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Account{ID: "primary", Platform: PlatformX}.Validate())
	assert.NoError(t, Account{ID: "primary"}.Validate())
	assert.ErrorContains(t, Account{}.Validate(), "id is required")
	assert.ErrorContains(t, Account{ID: "../x"}.Validate(), "invalid account id")
	assert.ErrorContains(t, Account{ID: "a", Platform: "myspace"}.Validate(), "unsupported platform")
}

func TestSessionInvalidateAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := NewSession("primary")
	session.MarkVerified([]Cookie{{Name: "auth_token", Value: "t"}}, now)

	assert.Equal(t, PageStateLoggedIn, session.LoginState)
	assert.False(t, session.Stale)
	assert.Equal(t, now, session.VerifiedAt)

	session.Invalidate(KindSessionCorrupt, now.Add(time.Minute))
	assert.True(t, session.Stale)
	assert.Equal(t, PageStateLoggedOut, session.LoginState)
	assert.Equal(t, KindSessionCorrupt, session.LastError)
	assert.Equal(t, now, session.VerifiedAt)
}

func TestSessionUnexpiredCookies(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := Session{Cookies: []Cookie{
		{Name: "expired", Expires: now.Add(-time.Hour)},
		{Name: "session"},
		{Name: "valid", Expires: now.Add(time.Hour)},
	}}

	got := session.UnexpiredCookies(now)
	want := []Cookie{{Name: "session"}, {Name: "valid", Expires: now.Add(time.Hour)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpired cookies mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionVerificationExpired(t *testing.T) {
	t.Parallel()

	verifiedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := Session{VerifiedAt: verifiedAt}

	assert.False(t, session.VerificationExpired(verifiedAt.Add(time.Hour), 2*time.Hour))
	assert.True(t, session.VerificationExpired(verifiedAt.Add(3*time.Hour), 2*time.Hour))
	assert.False(t, session.VerificationExpired(verifiedAt.Add(3*time.Hour), 0))
	assert.False(t, Session{}.VerificationExpired(verifiedAt, time.Hour))
}

func TestReportAggregateSuccessRequiresOneSuccess(t *testing.T) {
	t.Parallel()

	failure := PostResult{AccountID: "b", Outcome: Failed(ErrChallengeRequired)}
	success := PostResult{AccountID: "a", Outcome: Succeeded(), ContentID: "1"}

	assert.False(t, NewPostReport("c", nil).Success)
	assert.False(t, NewPostReport("c", []PostResult{failure}).Success)
	assert.True(t, NewPostReport("c", []PostResult{success, failure}).Success)

	engaged := EngagementResult{AccountID: "a", Outcome: Succeeded(), Liked: 1}
	assert.True(t, NewEngagementReport("c", []EngagementResult{engaged}).Success)
	assert.False(t, NewEngagementReport("c", []EngagementResult{{Outcome: Failed(nil)}}).Success)
}

func TestFailedOutcomeCarriesReason(t *testing.T) {
	t.Parallel()

	outcome := Failed(fmt.Errorf("ensure logged in: %w", ErrChallengeRequired))
	assert.False(t, outcome.OK())
	assert.Equal(t, KindChallengeRequired, outcome.Reason)
	assert.Equal(t, "failure(challenge_required)", outcome.String())
	assert.Equal(t, "success", Succeeded().String())
}

func TestSessionPhaseKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, PhaseRecovering.Known())
	assert.True(t, PhaseUninitialized.Known())
	assert.False(t, SessionPhase("half_logged_in").Known())
}
