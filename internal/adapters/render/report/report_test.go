package report

import (
	"strings"
	"testing"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderPost(t *testing.T) {
	t.Parallel()

	report := domain.NewPostReport("run-1", []domain.PostResult{
		{AccountID: "primary", Outcome: domain.Succeeded(), ContentURL: "https://x.com/tester/status/1001"},
		{AccountID: "backup", Outcome: domain.Failed(domain.ErrRateLimited)},
	})

	output := RenderPost(report)

	assert.Contains(t, output, "Post Broadcast")
	assert.Contains(t, output, "run run-1: 1/2 accounts succeeded ok")
	assert.Contains(t, output, "primary")
	assert.Contains(t, output, "url: https://x.com/tester/status/1001")
	assert.Contains(t, output, "failure(rate_limited)")
}

func TestRenderPostAllFailed(t *testing.T) {
	t.Parallel()

	report := domain.NewPostReport("run-2", []domain.PostResult{
		{AccountID: "primary", Outcome: domain.Failed(domain.ErrSessionCorrupt)},
	})

	output := RenderPost(report)

	assert.Contains(t, output, "0/1 accounts succeeded failed")
	assert.NotContains(t, output, "url:")
}

func TestRenderEngagement(t *testing.T) {
	t.Parallel()

	report := domain.NewEngagementReport("run-3", []domain.EngagementResult{
		{AccountID: "primary", Outcome: domain.Succeeded(), Liked: 2, Skipped: 1},
	})

	output := RenderEngagement(report, Options{Cap: 4, BarWidth: 8})

	assert.Contains(t, output, "Engagement Broadcast")
	assert.Contains(t, output, "[====----] liked 2, skipped 1, failed 0")
}

func TestRenderEngagementWithoutCap(t *testing.T) {
	t.Parallel()

	report := domain.NewEngagementReport("run-4", []domain.EngagementResult{
		{AccountID: "primary", Outcome: domain.Succeeded(), Liked: 3},
	})

	output := RenderEngagement(report, Options{})

	assert.Contains(t, output, "liked 3, skipped 0, failed 0")
	assert.False(t, strings.Contains(output, "["))
}

func TestRenderProgressBar(t *testing.T) {
	t.Parallel()

	s := newStyles()
	tests := []struct {
		fraction float64
		want     string
	}{
		{fraction: 0, want: "[----]"},
		{fraction: 0.5, want: "[==--]"},
		{fraction: 2, want: "[====]"},
		{fraction: -1, want: "[----]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, renderProgressBar(tt.fraction, 4, s))
	}
	assert.Empty(t, renderProgressBar(1, 0, s))
}
