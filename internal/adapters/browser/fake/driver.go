// Package fake is an in-memory browser driver that simulates the platform's
// login, compose and search surfaces. Each profile directory maps to one Site
// whose state survives relaunches, like a persistent browser profile.
package fake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
)

const sessionCookie = "auth_token"

type Driver struct {
	profile domain.PlatformProfile

	mu        sync.Mutex
	sites     map[string]*Site
	launchErr map[string]error
	launches  map[string]int
}

var _ ports.BrowserDriver = (*Driver)(nil)

func NewDriver(profile domain.PlatformProfile) *Driver {
	return &Driver{
		profile:   profile,
		sites:     map[string]*Site{},
		launchErr: map[string]error{},
		launches:  map[string]int{},
	}
}

// Site returns the simulated site for profileDir, creating it on first use.
func (d *Driver) Site(profileDir string) *Site {
	d.mu.Lock()
	defer d.mu.Unlock()

	site, ok := d.sites[profileDir]
	if !ok {
		site = newSite(d.profile)
		d.sites[profileDir] = site
	}
	return site
}

func (d *Driver) FailLaunch(profileDir string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.launchErr[profileDir] = err
}

func (d *Driver) Launches(profileDir string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.launches[profileDir]
}

func (d *Driver) LaunchPersistentContext(ctx context.Context, profileDir string, _ ports.LaunchOptions) (ports.BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	err := d.launchErr[profileDir]
	d.launches[profileDir]++
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	site := d.Site(profileDir)
	site.mu.Lock()
	site.url = "about:blank"
	site.closed = false
	site.mu.Unlock()

	return &browserContext{site: site}, nil
}

func (d *Driver) Close() error {
	return nil
}

type Result struct {
	ID    string
	Liked bool
}

// Site is the simulated platform state seen by one profile.
type Site struct {
	profile domain.PlatformProfile

	mu sync.Mutex

	LoggedIn        bool
	Username        string
	Password        string
	Challenge       domain.ChallengeKind
	RateLimitPosts  bool
	RateLimitSearch bool
	ContentPrefix   string
	Results         []Result
	VisibleBatch    int

	// OnNavigate runs before every navigation, outside the site lock, so
	// tests can block or observe a page load in flight.
	OnNavigate func(url string)

	failNavigations int
	failLikes       map[string]int
	failConfirm     int

	url         string
	closed      bool
	stage       string
	typed       map[string]string
	posted      bool
	visible     int
	nextPostID  int
	token       string
	cookies     []domain.Cookie
	loginSubmit int
	navigations []string
	posts       []string
	likes       []string
}

func newSite(profile domain.PlatformProfile) *Site {
	return &Site{
		profile:       profile,
		failLikes:     map[string]int{},
		typed:         map[string]string{},
		nextPostID:    1000,
		ContentPrefix: "/tester/status/",
	}
}

func (s *Site) Configure(fn func(s *Site)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s)
	if s.LoggedIn && s.token == "" {
		s.issueToken()
	}
}

// FailNavigations makes the next n navigations time out.
func (s *Site) FailNavigations(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNavigations = n
}

// FailLike makes clicking the like button of id fail n times, or always
// when n is negative.
func (s *Site) FailLike(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failLikes[id] = n
}

// FailConfirmations hides the post confirmation for the next n waits.
func (s *Site) FailConfirmations(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failConfirm = n
}

// Logout revokes the session server side.
func (s *Site) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LoggedIn = false
	s.token = ""
}

// ResolveChallenge acts like a person clearing the challenge in the window.
func (s *Site) ResolveChallenge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Challenge = domain.ChallengeNone
	s.LoggedIn = true
	s.issueToken()
	s.url = s.profile.HomeURL
	s.stage = ""
}

func (s *Site) LoginSubmits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loginSubmit
}

func (s *Site) Posts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.posts...)
}

func (s *Site) Likes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.likes...)
}

func (s *Site) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.navigations...)
}

func (s *Site) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *Site) issueToken() {
	s.token = fmt.Sprintf("token-%d", time.Now().UnixNano())
	s.cookies = []domain.Cookie{{
		Name:     sessionCookie,
		Value:    s.token,
		Domain:   ".x.com",
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
	}}
}

// present lists the selectors currently in the document. Callers hold s.mu.
func (s *Site) present() map[string]bool {
	p := s.profile
	set := map[string]bool{}
	add := func(selectors ...string) {
		for _, sel := range selectors {
			set[sel] = true
		}
	}

	page := s.page()
	if page != "blank" && s.LoggedIn {
		add(p.LoggedInMarkers...)
	}

	switch page {
	case "login":
		switch s.stage {
		case "username":
			add(p.UsernameInput, p.UsernameSubmit)
		case "password":
			add(p.PasswordInput, p.LoginSubmit)
		case "rejected":
			add(p.PasswordInput, p.LoginSubmit)
			add(p.CredentialErrors...)
		case "challenge":
			switch s.Challenge {
			case domain.ChallengeMFA:
				add(p.MFAMarkers...)
			case domain.ChallengeBotCheck:
				add(p.BotCheckMarkers...)
			}
		}
	case "compose":
		add(p.ComposeTextarea, p.ComposeSubmit)
		if s.posted {
			if s.RateLimitPosts {
				add(p.RateLimitMarkers...)
			} else if s.failConfirm == 0 {
				add(p.ComposeConfirmation)
			}
		}
	case "search":
		if s.RateLimitSearch {
			add(p.RateLimitMarkers...)
			break
		}
		if s.visible > 0 {
			add(p.SearchResults)
		}
	}

	return set
}

func (s *Site) page() string {
	p := s.profile
	switch {
	case s.url == "" || s.url == "about:blank":
		return "blank"
	case s.url == p.LoginURL:
		return "login"
	case s.url == p.ComposeURL:
		return "compose"
	case strings.HasPrefix(s.url, strings.SplitN(p.SearchURL, "?", 2)[0]):
		return "search"
	default:
		return "home"
	}
}

func (s *Site) has(selector string) bool {
	present := s.present()
	for _, part := range strings.Split(selector, ", ") {
		if present[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

func (s *Site) navigate(target string) error {
	s.navigations = append(s.navigations, target)
	if s.failNavigations > 0 {
		s.failNavigations--
		return fmt.Errorf("goto %s: %w", target, domain.ErrNavigationTimeout)
	}

	s.url = target
	s.posted = false
	s.typed = map[string]string{}

	switch s.page() {
	case "login":
		if s.LoggedIn {
			s.url = s.profile.HomeURL
			return nil
		}
		s.stage = "username"
	case "home", "compose", "search":
		if !s.LoggedIn {
			s.url = s.profile.LoginURL
			s.stage = "username"
			return nil
		}
		if s.page() == "search" {
			s.visible = len(s.Results)
			if s.VisibleBatch > 0 && s.VisibleBatch < s.visible {
				s.visible = s.VisibleBatch
			}
		}
	}

	return nil
}

func (s *Site) click(selector string) error {
	if !s.has(selector) {
		return fmt.Errorf("click %s: %w", selector, domain.ErrElementNotFound)
	}

	p := s.profile
	switch selector {
	case p.UsernameSubmit:
		if s.typed[p.UsernameInput] == "" {
			return nil
		}
		s.stage = "password"
	case p.LoginSubmit:
		s.loginSubmit++
		if s.Challenge != domain.ChallengeNone {
			s.stage = "challenge"
			return nil
		}
		if s.typed[p.UsernameInput] == s.Username && s.typed[p.PasswordInput] == s.Password {
			s.LoggedIn = true
			s.issueToken()
			s.url = p.HomeURL
			s.stage = ""
			return nil
		}
		s.stage = "rejected"
	case p.ComposeSubmit:
		text := s.typed[p.ComposeTextarea]
		if text == "" {
			return nil
		}
		s.posted = true
		if !s.RateLimitPosts {
			s.nextPostID++
			s.posts = append(s.posts, text)
		}
	}

	return nil
}

type browserContext struct {
	site *Site
}

func (c *browserContext) Page() ports.Page {
	return &page{site: c.site}
}

func (c *browserContext) Cookies(ctx context.Context) ([]domain.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.site.mu.Lock()
	defer c.site.mu.Unlock()

	return append([]domain.Cookie(nil), c.site.cookies...), nil
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []domain.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.site.mu.Lock()
	defer c.site.mu.Unlock()

	for _, cookie := range cookies {
		if cookie.Name == sessionCookie && c.site.token != "" && cookie.Value == c.site.token {
			c.site.LoggedIn = true
		}
	}
	c.site.cookies = append([]domain.Cookie(nil), cookies...)
	return nil
}

func (c *browserContext) Close() error {
	c.site.mu.Lock()
	defer c.site.mu.Unlock()

	c.site.closed = true
	return nil
}

type page struct {
	site *Site
}

func (p *page) Navigate(ctx context.Context, url string, _ ports.WaitUntil, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.site.mu.Lock()
	hook := p.site.OnNavigate
	p.site.mu.Unlock()
	if hook != nil {
		hook(url)
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	return p.site.navigate(url)
}

func (p *page) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	if p.site.has(selector) {
		return nil
	}
	if selector == p.site.profile.ComposeConfirmation && p.site.failConfirm > 0 && p.site.posted {
		p.site.failConfirm--
	}
	return fmt.Errorf("wait for %s: %w", selector, domain.ErrElementNotFound)
}

func (p *page) Exists(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	return p.site.has(selector), nil
}

func (p *page) Fill(ctx context.Context, selector string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	if !p.site.has(selector) {
		return fmt.Errorf("fill %s: %w", selector, domain.ErrElementNotFound)
	}
	p.site.typed[selector] = text
	return nil
}

func (p *page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	return p.site.click(selector)
}

func (p *page) CurrentURL() string {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	return p.site.url
}

func (p *page) QueryAll(ctx context.Context, selector string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	s := p.site
	switch {
	case selector == s.profile.SearchResults && s.page() == "search":
		elements := make([]ports.Element, 0, s.visible)
		for i := 0; i < s.visible; i++ {
			elements = append(elements, &resultElement{site: s, index: i})
		}
		return elements, nil
	case selector == s.profile.ComposeConfirmation && s.has(selector):
		href := fmt.Sprintf("%s%d", s.ContentPrefix, s.nextPostID)
		return []ports.Element{&linkElement{href: href}}, nil
	}

	return nil, nil
}

func (p *page) Scroll(ctx context.Context, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	s := p.site
	if s.page() != "search" {
		return nil
	}
	step := s.VisibleBatch
	if step <= 0 {
		step = len(s.Results)
	}
	s.visible += step
	if s.visible > len(s.Results) {
		s.visible = len(s.Results)
	}
	return nil
}

type linkElement struct {
	href string
}

func (e *linkElement) Attribute(_ context.Context, name string) (string, error) {
	if name == "href" {
		return e.href, nil
	}
	return "", nil
}

func (e *linkElement) Child(context.Context, string) (ports.Element, error) {
	return nil, nil
}

func (e *linkElement) Click(context.Context) error {
	return nil
}

type resultElement struct {
	site  *Site
	index int
}

func (e *resultElement) Attribute(context.Context, string) (string, error) {
	return "", nil
}

func (e *resultElement) Child(_ context.Context, selector string) (ports.Element, error) {
	e.site.mu.Lock()
	defer e.site.mu.Unlock()

	if e.index >= len(e.site.Results) {
		return nil, fmt.Errorf("result %d: %w", e.index, domain.ErrStaleElement)
	}
	result := e.site.Results[e.index]
	p := e.site.profile

	switch selector {
	case p.ResultPermalink:
		return &linkElement{href: e.site.ContentPrefix + result.ID}, nil
	case p.LikeButton:
		if result.Liked {
			return nil, nil
		}
		return &likeButton{site: e.site, index: e.index}, nil
	case p.UnlikeButton:
		if !result.Liked {
			return nil, nil
		}
		return &linkElement{}, nil
	}

	return nil, nil
}

func (e *resultElement) Click(context.Context) error {
	return nil
}

type likeButton struct {
	site  *Site
	index int
}

func (b *likeButton) Attribute(context.Context, string) (string, error) {
	return "", nil
}

func (b *likeButton) Child(context.Context, string) (ports.Element, error) {
	return nil, nil
}

func (b *likeButton) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.site.mu.Lock()
	defer b.site.mu.Unlock()

	result := &b.site.Results[b.index]
	if remaining := b.site.failLikes[result.ID]; remaining != 0 {
		if remaining > 0 {
			b.site.failLikes[result.ID] = remaining - 1
		}
		return fmt.Errorf("like %s: %w", result.ID, errors.Join(domain.ErrStaleElement, errors.New("detached from document")))
	}
	if result.Liked {
		return nil
	}
	result.Liked = true
	b.site.likes = append(b.site.likes, result.ID)
	return nil
}
