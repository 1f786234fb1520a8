package status

import (
	"errors"
	"io"

	"github.com/bnema/social-accounts-cli/internal/application"
	"github.com/bnema/social-accounts-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

// summary tallies session health across accounts for the header line.
type summary struct {
	total     int
	loggedIn  int
	attention int
	stale     int
}

func summarize(statuses []application.AccountStatus, opts RenderOptions) summary {
	sum := summary{total: len(statuses)}
	for _, status := range statuses {
		if status.SessionErr != nil {
			sum.attention++
			continue
		}

		switch status.Phase() {
		case domain.PhaseLoggedIn:
			sum.loggedIn++
		case domain.PhaseFailed, domain.PhaseRecovering, domain.PhaseLoggedOut:
			sum.attention++
		}
		if status.Session != nil && isStale(*status.Session, opts) {
			sum.stale++
		}
	}
	return sum
}

type model struct {
	statuses []application.AccountStatus
	summary  summary
	opts     RenderOptions
	styles   styles
	output   string
}

func newModel(statuses []application.AccountStatus, opts RenderOptions) model {
	return model{
		statuses: statuses,
		summary:  summarize(statuses, opts),
		opts:     opts,
		styles:   newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.summary, m.statuses, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(statuses []application.AccountStatus, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(statuses, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
