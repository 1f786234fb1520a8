// Package rod is the alternate browser driver built on go-rod. Each profile
// directory gets its own Chrome process so cookies and storage persist.
package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/adapters/browser"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

type Config struct {
	// Bin overrides the browser binary. Empty lets the launcher find or
	// download one.
	Bin    string
	Logger *zap.Logger
}

type Driver struct {
	cfg    Config
	logger *zap.Logger

	mu   sync.Mutex
	open map[*browserContext]struct{}
}

var _ ports.BrowserDriver = (*Driver)(nil)

func NewDriver(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{cfg: cfg, logger: logger.Named("rod"), open: map[*browserContext]struct{}{}}
}

func (d *Driver) LaunchPersistentContext(ctx context.Context, profileDir string, opts ports.LaunchOptions) (ports.BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := newLauncher(d.cfg.Bin, profileDir, opts)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome for %s: %w", profileDir, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	tab, err := firstPage(b)
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, err
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			_ = b.Close()
			l.Kill()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	bctx := &browserContext{
		driver:   d,
		launcher: l,
		browser:  b,
		page:     &page{page: tab, actionTimeout: opts.ActionTimeout},
	}

	d.mu.Lock()
	d.open[bctx] = struct{}{}
	d.mu.Unlock()

	d.logger.Debug("chrome launched", zap.String("profile_dir", profileDir), zap.Bool("headless", opts.Headless))
	return bctx, nil
}

// Close shuts down every browser this driver still has open.
func (d *Driver) Close() error {
	d.mu.Lock()
	open := make([]*browserContext, 0, len(d.open))
	for bctx := range d.open {
		open = append(open, bctx)
	}
	d.mu.Unlock()

	var errs []error
	for _, bctx := range open {
		if err := bctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) forget(bctx *browserContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, bctx)
}

func newLauncher(bin string, profileDir string, opts ports.LaunchOptions) *launcher.Launcher {
	l := launcher.New().UserDataDir(profileDir).Headless(opts.Headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	for _, rawFlag := range opts.Args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

func firstPage(b *rod.Browser) (*rod.Page, error) {
	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) > 0 {
		return pages.First(), nil
	}
	tab, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return tab, nil
}

type browserContext struct {
	driver   *Driver
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *page

	once sync.Once
}

func (c *browserContext) Page() ports.Page {
	return c.page
}

func (c *browserContext) Cookies(ctx context.Context) ([]domain.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cookies, err := c.browser.Context(ctx).GetCookies()
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

	if err := c.browser.Context(ctx).SetCookies(toCookieParams(cookies)); err != nil {
		return mapError("add cookies", nil, err)
	}
	return nil
}

func (c *browserContext) Close() error {
	var err error
	c.once.Do(func() {
		if closeErr := c.browser.Close(); closeErr != nil {
			err = fmt.Errorf("close chrome: %w", closeErr)
		}
		c.launcher.Kill()
		c.driver.forget(c)
	})
	return err
}

type page struct {
	page          *rod.Page
	actionTimeout time.Duration
}

func (p *page) bounded(ctx context.Context, timeout time.Duration) *rod.Page {
	if timeout <= 0 {
		timeout = p.actionTimeout
	}
	return p.page.Context(ctx).Timeout(browser.Bound(ctx, timeout))
}

func (p *page) Navigate(ctx context.Context, url string, waitUntil ports.WaitUntil, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	scoped := p.bounded(ctx, timeout)
	wait := scoped.WaitNavigation(lifecycleEvent(waitUntil))
	if err := scoped.Navigate(url); err != nil {
		return mapError("navigate "+url, domain.ErrNavigationTimeout, err)
	}
	wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (p *page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	el, err := p.bounded(ctx, timeout).Element(selector)
	if err != nil {
		return mapError("wait for "+selector, domain.ErrElementNotFound, err)
	}
	if err := el.WaitVisible(); err != nil {
		return mapError("wait for "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found, _, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return false, mapError("query "+selector, nil, err)
	}
	return found, nil
}

func (p *page) Fill(ctx context.Context, selector string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	el, err := p.bounded(ctx, 0).Element(selector)
	if err != nil {
		return mapError("fill "+selector, domain.ErrElementNotFound, err)
	}
	if err := el.SelectAllText(); err != nil {
		return mapError("fill "+selector, domain.ErrElementNotFound, err)
	}
	if err := el.Input(text); err != nil {
		return mapError("fill "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	el, err := p.bounded(ctx, 0).Element(selector)
	if err != nil {
		return mapError("click "+selector, domain.ErrElementNotFound, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return mapError("click "+selector, domain.ErrElementNotFound, err)
	}
	return nil
}

func (p *page) CurrentURL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *page) QueryAll(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, mapError("query "+selector, nil, err)
	}

	elements := make([]ports.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &element{el: el, actionTimeout: p.actionTimeout})
	}
	return elements, nil
}

func (p *page) Scroll(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.page.Mouse.Scroll(0, float64(dy), 4); err != nil {
		return mapError("scroll", nil, err)
	}
	return nil
}

type element struct {
	el            *rod.Element
	actionTimeout time.Duration
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", mapError("read attribute "+name, nil, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (e *element) Child(ctx context.Context, selector string) (ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, child, err := e.el.Context(ctx).Has(selector)
	if err != nil {
		return nil, mapError("query child "+selector, nil, err)
	}
	if !found {
		return nil, nil
	}
	return &element{el: child, actionTimeout: e.actionTimeout}, nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	scoped := e.el.Context(ctx).Timeout(browser.Bound(ctx, e.actionTimeout))
	if err := scoped.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return mapError("click element", domain.ErrElementNotFound, err)
	}
	return nil
}

func lifecycleEvent(waitUntil ports.WaitUntil) proto.PageLifecycleEventName {
	switch waitUntil {
	case ports.WaitUntilDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case ports.WaitUntilNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameLoad
	}
}

// mapError classifies a rod error. rod reports an expired page timeout as
// context.DeadlineExceeded.
func mapError(op string, timeoutKind error, err error) error {
	var (
		notFound *rod.ElementNotFoundError
		detached *rod.ObjectNotFoundError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if timeoutKind == nil {
			timeoutKind = domain.ErrNavigationTimeout
		}
		return browser.Wrap(op, timeoutKind, err)
	case errors.As(err, &notFound):
		return browser.Wrap(op, domain.ErrElementNotFound, err)
	case errors.As(err, &detached):
		return browser.Wrap(op, domain.ErrStaleElement, err)
	default:
		return browser.Wrap(op, nil, err)
	}
}

func toCookieParams(cookies []domain.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, cookie := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			HTTPOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: proto.NetworkCookieSameSite(cookie.SameSite),
		}
		if !cookie.Expires.IsZero() {
			param.Expires = proto.TimeSinceEpoch(browser.EpochSeconds(cookie.Expires))
		}
		params = append(params, param)
	}
	return params
}

func fromCookies(cookies []*proto.NetworkCookie) []domain.Cookie {
	result := make([]domain.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		result = append(result, domain.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Expires:  browser.FromEpochSeconds(float64(cookie.Expires)),
			HTTPOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: string(cookie.SameSite),
		})
	}
	return result
}
