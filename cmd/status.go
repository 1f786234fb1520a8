package cmd

import (
	"fmt"
	"time"

	statusadapter "github.com/bnema/social-accounts-cli/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted session state of every account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := app.service.AccountStatuses(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), statuses)
			}

			rendered, err := app.statusRenderer(statuses, statusadapter.RenderOptions{
				Now:        app.clock.Now(),
				StaleAfter: staleAfter,
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statuses as JSON")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 24*time.Hour, "Flag sessions not verified within this window")

	return cmd
}
