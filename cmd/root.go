package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(wireOptions{})
}

func newRootCmdWith(opts wireOptions) *cobra.Command {
	app := &app{opts: opts}
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "sa",
		Short:         "Social Accounts CLI (sa): post and engage from several accounts",
		Long:          "sa (Social Accounts CLI) keeps one persistent browser session per social account, broadcasts posts across accounts and likes search results with per-account caps.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(flags, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "Config directory (default ~/.social-accounts)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newAuthCmd(app),
		newGroupCmd(app),
		newLoginCmd(app),
		newPostCmd(app),
		newEngageCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
