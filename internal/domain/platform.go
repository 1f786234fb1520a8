package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// PlatformProfile holds the surfaces and marker selectors for one platform.
// Selectors are plain CSS so every browser driver can evaluate them.
type PlatformProfile struct {
	Name        Platform
	HomeURL     string
	LoginURL    string
	ComposeURL  string
	SearchURL   string
	MaxPostSize int

	LoggedInMarkers  []string
	LoginFormMarkers []string
	MFAMarkers       []string
	BotCheckMarkers  []string
	RateLimitMarkers []string
	CredentialErrors []string

	UsernameInput  string
	UsernameSubmit string
	PasswordInput  string
	LoginSubmit    string

	ComposeTextarea     string
	ComposeSubmit       string
	ComposeConfirmation string

	SearchResults   string
	ResultPermalink string
	LikeButton      string
	UnlikeButton    string
}

func DefaultXProfile() PlatformProfile {
	return PlatformProfile{
		Name:        PlatformX,
		HomeURL:     "https://x.com/home",
		LoginURL:    "https://x.com/i/flow/login",
		ComposeURL:  "https://x.com/compose/post",
		SearchURL:   "https://x.com/search?q=%s&src=typed_query&f=live",
		MaxPostSize: 280,

		LoggedInMarkers: []string{
			`[data-testid="SideNav_NewTweet_Button"]`,
			`[data-testid="AppTabBar_Home_Link"]`,
			`[data-testid="SideNav_AccountSwitcher_Button"]`,
		},
		LoginFormMarkers: []string{
			`input[autocomplete="username"]`,
			`input[name="session[username_or_email]"]`,
			`input[name="password"]`,
		},
		MFAMarkers: []string{
			`input[data-testid="ocfEnterTextTextInput"]`,
			`input[inputmode="numeric"][autocomplete="one-time-code"]`,
		},
		BotCheckMarkers: []string{
			`iframe#arkose_iframe`,
			`iframe[src*="arkoselabs"]`,
			`iframe[src*="captcha"]`,
		},
		RateLimitMarkers: []string{
			`[data-testid="error-detail"]`,
			`[data-testid="toast"][data-rate-limited]`,
		},
		CredentialErrors: []string{
			`[data-testid="LoginForm_Error"]`,
		},

		UsernameInput:  `input[autocomplete="username"]`,
		UsernameSubmit: `[data-testid="LoginNextButton"]`,
		PasswordInput:  `input[name="password"]`,
		LoginSubmit:    `[data-testid="LoginForm_Login_Button"]`,

		ComposeTextarea:     `[data-testid="tweetTextarea_0"]`,
		ComposeSubmit:       `[data-testid="tweetButton"]`,
		ComposeConfirmation: `[data-testid="toast"] a[href*="/status/"]`,

		SearchResults:   `article[data-testid="tweet"]`,
		ResultPermalink: `a[href*="/status/"]`,
		LikeButton:      `[data-testid="like"]`,
		UnlikeButton:    `[data-testid="unlike"]`,
	}
}

func (p PlatformProfile) SearchPageURL(term string) string {
	return fmt.Sprintf(p.SearchURL, EncodeSearchTerm(term))
}

// IsPlatformURL reports whether raw points at the platform rather than a blank
// or foreign page.
func (p PlatformProfile) IsPlatformURL(raw string) bool {
	host := hostOf(p.HomeURL)
	return host != "" && hostOf(raw) == host
}

// ContentIDFromHref extracts the trailing id of a status permalink such as
// "/user/status/12345" or "https://x.com/user/status/12345?s=20".
func ContentIDFromHref(href string) string {
	const marker = "/status/"
	idx := strings.LastIndex(href, marker)
	if idx < 0 {
		return ""
	}
	rest := href[idx+len(marker):]
	if cut := strings.IndexAny(rest, "/?#"); cut >= 0 {
		rest = rest[:cut]
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return rest
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
