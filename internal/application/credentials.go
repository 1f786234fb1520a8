package application

import (
	"context"
	"fmt"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"go.uber.org/zap"
)

func UsernameSecretKey(id domain.AccountID) string {
	return fmt.Sprintf("sa/accounts/%s/username", id)
}

func PasswordSecretKey(id domain.AccountID) string {
	return fmt.Sprintf("sa/accounts/%s/password", id)
}

// ResolveCredentials reads the login secrets of every account. Accounts whose
// secrets are missing are left out and only fail once a login is required.
func ResolveCredentials(ctx context.Context, store ports.SecretStore, accounts []domain.Account, logger *zap.Logger) map[domain.AccountID]domain.Credentials {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := make(map[domain.AccountID]domain.Credentials, len(accounts))
	for _, account := range accounts {
		if account.Credentials.Empty() {
			continue
		}

		creds, err := resolveAccountCredentials(ctx, store, account.Credentials)
		if err != nil {
			logger.Warn("credentials unavailable", zap.String("account", string(account.ID)), zap.Error(err))
			continue
		}
		resolved[account.ID] = creds
	}

	return resolved
}

func resolveAccountCredentials(ctx context.Context, store ports.SecretStore, refs domain.CredentialRefs) (domain.Credentials, error) {
	username, err := store.Get(ctx, refs.UsernameRef)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("get username secret: %w", err)
	}
	password, err := store.Get(ctx, refs.PasswordRef)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("get password secret: %w", err)
	}

	return domain.Credentials{Username: username, Password: password}, nil
}
