package ports

import (
	"context"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
)

type WaitUntil string

const (
	WaitUntilLoad             WaitUntil = "load"
	WaitUntilDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitUntilNetworkIdle      WaitUntil = "networkidle"
)

type LaunchOptions struct {
	Headless       bool
	Args           []string
	ViewportWidth  int
	ViewportHeight int
	ActionTimeout  time.Duration
}

// BrowserDriver launches one persistent browser context per profile
// directory. Implementations map their timeout errors onto
// domain.ErrNavigationTimeout and domain.ErrElementNotFound.
type BrowserDriver interface {
	LaunchPersistentContext(ctx context.Context, profileDir string, opts LaunchOptions) (BrowserContext, error)
	Close() error
}

type BrowserContext interface {
	Page() Page
	Cookies(ctx context.Context) ([]domain.Cookie, error)
	AddCookies(ctx context.Context, cookies []domain.Cookie) error
	Close() error
}

type Page interface {
	Navigate(ctx context.Context, url string, waitUntil WaitUntil, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	Fill(ctx context.Context, selector string, text string) error
	Click(ctx context.Context, selector string) error
	CurrentURL() string
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	Scroll(ctx context.Context, dy int) error
}

type Element interface {
	Attribute(ctx context.Context, name string) (string, error)
	// Child returns nil without error when no descendant matches.
	Child(ctx context.Context, selector string) (Element, error)
	Click(ctx context.Context) error
}
