package playwright

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	pw "github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		timeoutKind error
		err         error
		want        domain.ErrorKind
	}{
		{name: "navigation timeout", timeoutKind: domain.ErrNavigationTimeout, err: fmt.Errorf("goto: %w", pw.ErrTimeout), want: domain.KindNavigationTimeout},
		{name: "selector timeout", timeoutKind: domain.ErrElementNotFound, err: fmt.Errorf("wait: %w", pw.ErrTimeout), want: domain.KindElementNotFound},
		{name: "timeout without kind", err: pw.ErrTimeout, want: domain.KindNavigationTimeout},
		{name: "target closed", err: fmt.Errorf("click: %w", pw.ErrTargetClosed), want: domain.KindSessionCorrupt},
		{name: "detached element", err: errors.New("Element is not attached to the DOM"), want: domain.KindStaleElement},
		{name: "other", err: errors.New("protocol error"), want: domain.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := mapError("op", tt.timeoutKind, tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
			assert.ErrorContains(t, err, "op: ")
		})
	}
}

func TestCookieConversionRoundTrip(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cookies := []domain.Cookie{
		{Name: "auth_token", Value: "t", Domain: ".x.com", Path: "/", Expires: expires, HTTPOnly: true, Secure: true, SameSite: "None"},
		{Name: "lang", Value: "en", Domain: "x.com", Path: "/"},
	}

	optional := toCookies(cookies)
	require.Len(t, optional, 2)
	assert.Equal(t, pw.SameSiteAttributeNone, optional[0].SameSite)
	assert.Nil(t, optional[1].SameSite)
	assert.Equal(t, float64(-1), *optional[1].Expires)

	returned := make([]pw.Cookie, 0, len(optional))
	for _, cookie := range optional {
		returned = append(returned, pw.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   *cookie.Domain,
			Path:     *cookie.Path,
			Expires:  *cookie.Expires,
			HttpOnly: *cookie.HttpOnly,
			Secure:   *cookie.Secure,
			SameSite: cookie.SameSite,
		})
	}
	assert.Equal(t, cookies, fromCookies(returned))
}

func TestWaitUntilState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pw.WaitUntilStateLoad, waitUntilState(ports.WaitUntilLoad))
	assert.Equal(t, pw.WaitUntilStateDomcontentloaded, waitUntilState(ports.WaitUntilDOMContentLoaded))
	assert.Equal(t, pw.WaitUntilStateNetworkidle, waitUntilState(ports.WaitUntilNetworkIdle))
	assert.Equal(t, pw.WaitUntilStateLoad, waitUntilState(""))
}

func TestDriverCloseWithoutLaunch(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewDriver(Config{}).Close())
}
