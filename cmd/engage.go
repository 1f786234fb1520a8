package cmd

import (
	"context"
	"errors"
	"fmt"

	reportadapter "github.com/bnema/social-accounts-cli/internal/adapters/render/report"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newEngageCmd(app *app) *cobra.Command {
	var targets targetFlags
	var term string
	var likeCap int
	var asJSON bool
	var progress bool

	cmd := &cobra.Command{
		Use:   "engage",
		Short: "Search a term and like new results from every targeted account",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if likeCap <= 0 {
				likeCap = app.cfg.LikeCap
			}
			if err := (domain.EngagementTarget{Term: term, Cap: likeCap}).Validate(); err != nil {
				return err
			}

			rt, err := app.startRuntime(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, rt.Close(cmd.Context()))
			}()

			var report domain.EngagementReport
			err = runMaybeWithProgress(cmd.Context(), progress, cmd.ErrOrStderr(), "Engaging...", func(ctx context.Context) error {
				var err error
				report, err = rt.orchestrator.BroadcastEngage(ctx, domain.EngagementRequest{
					Term:   term,
					Cap:    likeCap,
					Target: targets.target(),
				})
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), reportadapter.RenderEngagement(report, reportadapter.Options{Cap: likeCap}))
			}
			if err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("engage %s: %w", report.CorrelationID, errBroadcastFailed)
			}
			return nil
		},
	}

	targets.register(cmd)
	cmd.Flags().StringVar(&term, "term", "", "Search term")
	cmd.Flags().IntVar(&likeCap, "cap", 0, "Maximum new likes per account (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a spinner while engaging")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}
