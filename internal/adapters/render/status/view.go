package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/social-accounts-cli/internal/application"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
}

func renderView(sum summary, statuses []application.AccountStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Account Sessions"),
		summaryLine(sum, s),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderAccount(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func summaryLine(sum summary, s styles) string {
	line := s.header.Render(fmt.Sprintf("accounts: %d", sum.total))
	if sum.total == 0 {
		return line
	}

	line += s.header.Render(", ") + s.healthy.Render(fmt.Sprintf("logged in %d", sum.loggedIn))
	if sum.attention > 0 {
		line += s.header.Render(", ") + s.broken.Render(fmt.Sprintf("needs attention %d", sum.attention))
	}
	if sum.stale > 0 {
		line += s.header.Render(", ") + s.degraded.Render(fmt.Sprintf("stale %d", sum.stale))
	}
	return line
}

func renderAccount(status application.AccountStatus, opts RenderOptions, s styles) string {
	parts := []string{
		s.account.Render(accountTitle(status.Account)),
		phaseLine(status, s),
		s.detail.Render("credentials: " + credentialsLabel(status.HasCredentials)),
	}

	if status.SessionErr != nil {
		parts = append(parts, s.warning.Render("snapshot unreadable: "+status.SessionErr.Error()))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if status.Session != nil {
		parts = append(parts, verifiedLine(*status.Session, opts, s))
		if status.Session.LastError != domain.KindNone {
			parts = append(parts, s.warning.Render("last error: "+string(status.Session.LastError)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func phaseLine(status application.AccountStatus, s styles) string {
	phase := status.Phase()
	label := s.key.Render("session:")
	value := phaseStyle(phase, s).Render(string(phase))
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", value)
}

func phaseStyle(phase domain.SessionPhase, s styles) lipgloss.Style {
	switch phase {
	case domain.PhaseLoggedIn:
		return s.healthy
	case domain.PhaseRecovering, domain.PhaseVerifying, domain.PhaseRestoring, domain.PhaseLoggedOut:
		return s.degraded
	case domain.PhaseFailed:
		return s.broken
	default:
		return s.empty
	}
}

func verifiedLine(session domain.Session, opts RenderOptions, s styles) string {
	label := s.key.Render("verified:")
	if session.VerifiedAt.IsZero() {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", s.empty.Render("never"))
	}

	age := s.meta.Render(formatAge(session.VerifiedAt, opts.Now))
	cookies := s.meta.Render(fmt.Sprintf("(%d cookies)", len(session.Cookies)))
	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", age, " ", cookies)

	if isStale(session, opts) {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func isStale(session domain.Session, opts RenderOptions) bool {
	return session.Stale || session.VerificationExpired(opts.Now, opts.StaleAfter)
}

func formatAge(at, now time.Time) string {
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func credentialsLabel(stored bool) string {
	if stored {
		return "stored"
	}
	return "missing"
}

func accountTitle(account domain.Account) string {
	name := strings.TrimSpace(account.Name)
	platform := string(account.Platform)
	if platform == "" {
		platform = string(domain.PlatformX)
	}
	if name == "" {
		return fmt.Sprintf("%s [%s]", account.ID, platform)
	}
	return fmt.Sprintf("%s (%s) [%s]", name, account.ID, platform)
}
