package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newGroupCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage named account groups",
	}

	cmd.AddCommand(newGroupSetCmd(app), newGroupListCmd(app), newGroupRemoveCmd(app))

	return cmd
}

func newGroupSetCmd(app *app) *cobra.Command {
	var name string
	var members []string

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create a group or replace its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := app.groups.SetGroup(cmd.Context(), domain.GroupID(strings.TrimSpace(args[0])), name, accountIDs(members))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved group %s with %d account(s)\n", group.ID, len(group.Members))
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringSliceVar(&members, "accounts", nil, "Member account IDs, in broadcast order")
	_ = cmd.MarkFlagRequired("accounts")

	return cmd
}

func newGroupListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := app.groups.ListGroups(cmd.Context())
			if err != nil {
				return err
			}

			for _, group := range groups {
				members := make([]string, 0, len(group.Members))
				for _, member := range group.Members {
					members = append(members, string(member))
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", group.ID, group.Name, strings.Join(members, ","))
			}

			return nil
		},
	}
}

func newGroupRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.groups.RemoveGroup(cmd.Context(), domain.GroupID(strings.TrimSpace(args[0])))
		},
	}
}
