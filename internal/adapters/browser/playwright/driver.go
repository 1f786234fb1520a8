// Package playwright drives Chromium through playwright-go. Every account
// gets its own persistent context rooted at the account's profile directory.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/adapters/browser"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type Config struct {
	// Install downloads the driver and Chromium on first launch.
	Install bool
	Logger  *zap.Logger
}

type Driver struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	runtime *pw.Playwright
}

var _ ports.BrowserDriver = (*Driver)(nil)

func NewDriver(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{cfg: cfg, logger: logger.Named("playwright")}
}

func (d *Driver) start() (*pw.Playwright, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runtime != nil {
		return d.runtime, nil
	}

	opts := &pw.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if d.cfg.Install {
		if err := pw.Install(opts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	runtime, err := pw.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	d.runtime = runtime
	return runtime, nil
}

func (d *Driver) LaunchPersistentContext(ctx context.Context, profileDir string, opts ports.LaunchOptions) (ports.BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime, err := d.start()
	if err != nil {
		return nil, err
	}

	launchOpts := pw.BrowserTypeLaunchPersistentContextOptions{
		Headless: pw.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		launchOpts.Viewport = &pw.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}

	bctx, err := runtime.Chromium.LaunchPersistentContext(profileDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("launch persistent context %s: %w", profileDir, err)
	}
	if opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(browser.Millis(opts.ActionTimeout))
	}

	tab, err := firstPage(bctx)
	if err != nil {
		_ = bctx.Close()
		return nil, err
	}

	d.logger.Debug("persistent context launched", zap.String("profile_dir", profileDir), zap.Bool("headless", opts.Headless))
	return &browserContext{ctx: bctx, page: &page{page: tab, actionTimeout: opts.ActionTimeout}}, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runtime == nil {
		return nil
	}
	err := d.runtime.Stop()
	d.runtime = nil
	if err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}

// A persistent context opens with one blank tab; reuse it.
func firstPage(bctx pw.BrowserContext) (pw.Page, error) {
	if tabs := bctx.Pages(); len(tabs) > 0 {
		return tabs[0], nil
	}
	tab, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return tab, nil
}

type browserContext struct {
	ctx  pw.BrowserContext
	page *page
}

func (c *browserContext) Page() ports.Page {
	return c.page
}

func (c *browserContext) Cookies(ctx context.Context) ([]domain.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cookies, err := c.ctx.Cookies()
	if err != nil {
		return nil, mapError("read cookies", nil, err)
	}
	return fromCookies(cookies), nil
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []domain.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(cookies) == 0 {
		return nil
	}

	if err := c.ctx.AddCookies(toCookies(cookies)); err != nil {
		return mapError("add cookies", nil, err)
	}
	return nil
}

func (c *browserContext) Close() error {
	if err := c.ctx.Close(); err != nil && !errors.Is(err, pw.ErrTargetClosed) {
		return fmt.Errorf("close context: %w", err)
	}
	return nil
}

type page struct {
	page          pw.Page
	actionTimeout time.Duration
}

func (p *page) Navigate(ctx context.Context, url string, waitUntil ports.WaitUntil, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: waitUntilState(waitUntil),
		Timeout:   pw.Float(browser.Millis(browser.Bound(ctx, timeout))),
	})
	if err != nil {
		return mapError("navigate "+url, domain.ErrNavigationTimeout, err)
	}
	return nil
}

func (p *page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.WaitForSelector(selector, pw.PageWaitForSelectorOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(browser.Millis(browser.Bound(ctx, timeout))),
	})
	if err != nil {
		return mapError("wait for "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	count, err := p.page.Locator(selector).Count()
	if err != nil {
		return false, mapError("count "+selector, nil, err)
	}
	return count > 0, nil
}

func (p *page) Fill(ctx context.Context, selector string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().Fill(text, pw.LocatorFillOptions{
		Timeout: pw.Float(browser.Millis(browser.Bound(ctx, p.actionTimeout))),
	})
	if err != nil {
		return mapError("fill "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().Click(pw.LocatorClickOptions{
		Timeout: pw.Float(browser.Millis(browser.Bound(ctx, p.actionTimeout))),
	})
	if err != nil {
		return mapError("click "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) CurrentURL() string {
	return p.page.URL()
}

func (p *page) QueryAll(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, mapError("query "+selector, nil, err)
	}

	elements := make([]ports.Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &element{handle: handle, actionTimeout: p.actionTimeout})
	}
	return elements, nil
}

func (p *page) Scroll(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.page.Mouse().Wheel(0, float64(dy)); err != nil {
		return mapError("scroll", nil, err)
	}
	return nil
}

type element struct {
	handle        pw.ElementHandle
	actionTimeout time.Duration
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := e.handle.GetAttribute(name)
	if err != nil {
		return "", mapError("read attribute "+name, nil, err)
	}
	return value, nil
}

func (e *element) Child(ctx context.Context, selector string) (ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	child, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, mapError("query child "+selector, nil, err)
	}
	if child == nil {
		return nil, nil
	}
	return &element{handle: child, actionTimeout: e.actionTimeout}, nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := e.handle.Click(pw.ElementHandleClickOptions{
		Timeout: pw.Float(browser.Millis(browser.Bound(ctx, e.actionTimeout))),
	})
	if err != nil {
		return mapError("click element", domain.ErrElementNotFound, err)
	}
	return nil
}

func waitUntilState(waitUntil ports.WaitUntil) *pw.WaitUntilState {
	switch waitUntil {
	case ports.WaitUntilDOMContentLoaded:
		return pw.WaitUntilStateDomcontentloaded
	case ports.WaitUntilNetworkIdle:
		return pw.WaitUntilStateNetworkidle
	default:
		return pw.WaitUntilStateLoad
	}
}

// mapError classifies a playwright error. Timeouts become timeoutKind, a
// detached element is stale and a closed target means the session is gone.
func mapError(op string, timeoutKind error, err error) error {
	switch {
	case errors.Is(err, pw.ErrTimeout):
		if timeoutKind == nil {
			timeoutKind = domain.ErrNavigationTimeout
		}
		return browser.Wrap(op, timeoutKind, err)
	case errors.Is(err, pw.ErrTargetClosed):
		return browser.Wrap(op, domain.ErrSessionCorrupt, err)
	case isDetached(err):
		return browser.Wrap(op, domain.ErrStaleElement, err)
	default:
		return browser.Wrap(op, nil, err)
	}
}

func isDetached(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not attached to the DOM") || strings.Contains(msg, "Element is detached")
}

func toCookies(cookies []domain.Cookie) []pw.OptionalCookie {
	result := make([]pw.OptionalCookie, 0, len(cookies))
	for _, cookie := range cookies {
		optional := pw.OptionalCookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   pw.String(cookie.Domain),
			Path:     pw.String(cookiePath(cookie.Path)),
			Expires:  pw.Float(browser.EpochSeconds(cookie.Expires)),
			HttpOnly: pw.Bool(cookie.HTTPOnly),
			Secure:   pw.Bool(cookie.Secure),
		}
		if sameSite := sameSiteAttribute(cookie.SameSite); sameSite != nil {
			optional.SameSite = sameSite
		}
		result = append(result, optional)
	}
	return result
}

func fromCookies(cookies []pw.Cookie) []domain.Cookie {
	result := make([]domain.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		converted := domain.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Expires:  browser.FromEpochSeconds(cookie.Expires),
			HTTPOnly: cookie.HttpOnly,
			Secure:   cookie.Secure,
		}
		if cookie.SameSite != nil {
			converted.SameSite = string(*cookie.SameSite)
		}
		result = append(result, converted)
	}
	return result
}

func sameSiteAttribute(value string) *pw.SameSiteAttribute {
	switch strings.ToLower(value) {
	case "strict":
		return pw.SameSiteAttributeStrict
	case "lax":
		return pw.SameSiteAttributeLax
	case "none":
		return pw.SameSiteAttributeNone
	default:
		return nil
	}
}

func cookiePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
