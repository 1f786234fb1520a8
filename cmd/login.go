package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/social-accounts-cli/internal/application"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var targets targetFlags
	var opts runtimeOptions
	var progress bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Restore or establish a logged-in browser session per account",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			rt, err := app.startRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, rt.Close(cmd.Context()))
			}()

			var results []application.LoginResult
			err = runMaybeWithProgress(cmd.Context(), progress && !opts.waitOperator, cmd.ErrOrStderr(), "Logging in...", func(ctx context.Context) error {
				var err error
				results, err = rt.orchestrator.Login(ctx, targets.target())
				return err
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, result := range results {
				if result.Err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", result.AccountID, result.Session.Phase, result.Err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", result.AccountID, result.Session.Phase)
			}
			if failed > 0 {
				return fmt.Errorf("login failed for %d of %d account(s)", failed, len(results))
			}
			return nil
		},
	}

	targets.register(cmd)
	cmd.Flags().BoolVar(&opts.waitOperator, "wait-operator", false, "Open a visible browser and wait for challenges to be solved by hand")
	cmd.Flags().BoolVar(&opts.showBrowser, "show-browser", false, "Run the browser with a visible window")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a spinner while logging in")

	return cmd
}
