package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountAddCmd(app),
		newAccountListCmd(app),
		newAccountRemoveCmd(app),
	)

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var name string
	var profileDir string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := app.service.AddAccount(cmd.Context(), domain.Account{
				ID:         domain.AccountID(strings.TrimSpace(args[0])),
				Name:       strings.TrimSpace(name),
				Platform:   domain.PlatformX,
				ProfileDir: profileDir,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved account %s (profile %s)\n", account.ID, account.ProfileDir)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&profileDir, "profile-dir", "", "Browser profile directory (default <config-dir>/profiles/<id>)")

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.service.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			for _, account := range accounts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", account.ID, account.DisplayName(), account.Platform)
			}

			return nil
		},
	}
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an account, its secrets and its group memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.AccountID(strings.TrimSpace(args[0]))
			if err := app.service.RemoveAccount(cmd.Context(), id); err != nil {
				return err
			}
			if err := app.groups.PruneMember(cmd.Context(), id); err != nil {
				return fmt.Errorf("prune groups: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", id)
			return err
		},
	}
}
