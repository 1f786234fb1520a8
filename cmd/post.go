package cmd

import (
	"context"
	"errors"
	"fmt"

	reportadapter "github.com/bnema/social-accounts-cli/internal/adapters/render/report"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newPostCmd(app *app) *cobra.Command {
	var targets targetFlags
	var text string
	var topic string
	var asJSON bool
	var progress bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish the same post from every targeted account",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			content := text
			if topic != "" {
				generator, err := app.newGenerator()
				if err != nil {
					return fmt.Errorf("wire content generator: %w", err)
				}
				if content, err = generator.Generate(cmd.Context(), topic); err != nil {
					return err
				}
			}
			if err := domain.ValidatePostContent(content, app.profile.MaxPostSize); err != nil {
				return err
			}

			rt, err := app.startRuntime(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, rt.Close(cmd.Context()))
			}()

			var report domain.PostReport
			err = runMaybeWithProgress(cmd.Context(), progress, cmd.ErrOrStderr(), "Posting...", func(ctx context.Context) error {
				var err error
				report, err = rt.orchestrator.BroadcastPost(ctx, domain.PostRequest{
					Content: content,
					Target:  targets.target(),
				})
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), reportadapter.RenderPost(report))
			}
			if err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("post %s: %w", report.CorrelationID, errBroadcastFailed)
			}
			return nil
		},
	}

	targets.register(cmd)
	cmd.Flags().StringVar(&text, "text", "", "Post content")
	cmd.Flags().StringVar(&topic, "generate", "", "Generate the post content from this topic")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a spinner while posting")
	cmd.MarkFlagsMutuallyExclusive("text", "generate")
	cmd.MarkFlagsOneRequired("text", "generate")

	return cmd
}
