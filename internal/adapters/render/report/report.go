// Package report renders broadcast results for the terminal.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 20

type Options struct {
	// Cap is the per-account like cap of an engagement run. Zero hides the
	// progress bar.
	Cap      int
	BarWidth int
}

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	account    lipgloss.Style
	detail     lipgloss.Style
	success    lipgloss.Style
	failure    lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		account:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		success:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		failure:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

func RenderPost(report domain.PostReport) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Post Broadcast"),
		summaryLine(report.CorrelationID, len(report.Results), countPosted(report.Results), report.Success, s),
	}

	for _, result := range report.Results {
		lines = append(lines, "", s.account.Render(string(result.AccountID)), outcomeLine(result.Outcome, s))
		if result.Outcome.OK() && result.ContentURL != "" {
			lines = append(lines, s.detail.Render("url: "+result.ContentURL))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func RenderEngagement(report domain.EngagementReport, opts Options) string {
	s := newStyles()
	if opts.BarWidth <= 0 {
		opts.BarWidth = defaultBarWidth
	}

	succeeded := 0
	for _, result := range report.Results {
		if result.Outcome.OK() {
			succeeded++
		}
	}

	lines := []string{
		s.title.Render("Engagement Broadcast"),
		summaryLine(report.CorrelationID, len(report.Results), succeeded, report.Success, s),
	}

	for _, result := range report.Results {
		lines = append(lines, "", s.account.Render(string(result.AccountID)), outcomeLine(result.Outcome, s))
		counts := fmt.Sprintf("liked %d, skipped %d, failed %d", result.Liked, result.Skipped, result.Failed)
		if opts.Cap > 0 {
			bar := renderProgressBar(float64(result.Liked)/float64(opts.Cap), opts.BarWidth, s)
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, bar, " ", s.detail.Render(counts)))
			continue
		}
		lines = append(lines, s.detail.Render(counts))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func summaryLine(correlationID string, total, succeeded int, success bool, s styles) string {
	verdict := s.success.Render("ok")
	if !success {
		verdict = s.failure.Render("failed")
	}
	text := s.header.Render(fmt.Sprintf("run %s: %d/%d accounts succeeded", correlationID, succeeded, total))
	return lipgloss.JoinHorizontal(lipgloss.Top, text, " ", verdict)
}

func outcomeLine(outcome domain.Outcome, s styles) string {
	if outcome.OK() {
		return s.success.Render(outcome.String())
	}

	line := s.failure.Render(outcome.String())
	if msg := strings.TrimSpace(outcome.Message); msg != "" {
		line += " " + s.detail.Render(msg)
	}
	return line
}

func countPosted(results []domain.PostResult) int {
	n := 0
	for _, result := range results {
		if result.Outcome.OK() {
			n++
		}
	}
	return n
}

func renderProgressBar(fraction float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampFraction(fraction)))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func clampFraction(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
