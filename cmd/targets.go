package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errBroadcastFailed = errors.New("no account succeeded")

type targetFlags struct {
	accounts []string
	group    string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.accounts, "accounts", nil, "Account IDs to target, in order (default all accounts)")
	cmd.Flags().StringVar(&f.group, "group", "", "Target the members of a named group")
	cmd.MarkFlagsMutuallyExclusive("accounts", "group")
}

func (f targetFlags) target() domain.Target {
	return domain.Target{
		Accounts: accountIDs(f.accounts),
		Group:    domain.GroupID(strings.TrimSpace(f.group)),
	}
}

func accountIDs(raw []string) []domain.AccountID {
	ids := make([]domain.AccountID, 0, len(raw))
	for _, value := range raw {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			ids = append(ids, domain.AccountID(trimmed))
		}
	}
	return ids
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
