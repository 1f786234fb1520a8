package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage account login credentials",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var accountID string
	var username string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store login credentials in the secret store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("%w: --password or --password-stdin is required", domain.ErrInputValidation)
			}

			id := domain.AccountID(strings.TrimSpace(accountID))
			if err := app.service.SetCredentials(cmd.Context(), id, domain.Credentials{
				Username: strings.TrimSpace(username),
				Password: password,
			}); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials for account %s\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().StringVar(&username, "username", "", "Login username, email or phone")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove stored login credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.service.RemoveCredentials(cmd.Context(), domain.AccountID(accountID))
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
