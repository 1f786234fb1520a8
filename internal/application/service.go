package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
)

// Service manages the configured accounts and the credentials they point at.
type Service struct {
	repo       ports.AccountRepository
	store      ports.SecretStore
	sessions   ports.SessionStore
	profileDir string
}

func NewService(repo ports.AccountRepository, store ports.SecretStore, sessions ports.SessionStore, profileRoot string) *Service {
	return &Service{
		repo:       repo,
		store:      store,
		sessions:   sessions,
		profileDir: profileRoot,
	}
}

// AddAccount creates or updates an account. Existing credential refs are kept
// and a missing profile directory is derived from the account id.
func (s *Service) AddAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.Platform == "" {
		account.Platform = domain.PlatformX
	}
	if err := account.Validate(); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrInputValidation, err)
	}

	existing, err := s.repo.GetByID(ctx, account.ID)
	switch {
	case err == nil:
		if account.Credentials.Empty() {
			account.Credentials = existing.Credentials
		}
		if account.ProfileDir == "" {
			account.ProfileDir = existing.ProfileDir
		}
		if account.Name == "" {
			account.Name = existing.Name
		}
	case !errors.Is(err, domain.ErrAccountNotFound):
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	if account.ProfileDir == "" && s.profileDir != "" {
		account.ProfileDir = filepath.Join(s.profileDir, string(account.ID))
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}

	return account, nil
}

// RemoveAccount deletes the account first, then its secrets. A failed secret
// delete is reported but leaves the account removed.
func (s *Service) RemoveAccount(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	var errs []error
	for _, ref := range uniqueSecretRefs(account.Credentials.UsernameRef, account.Credentials.PasswordRef) {
		if err := s.store.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete account secrets: %w", errors.Join(errs...))
	}

	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SetCredentials stores username and password secrets and points the account
// at them. Every partial write is rolled back on failure.
func (s *Service) SetCredentials(ctx context.Context, id domain.AccountID, creds domain.Credentials) error {
	if !creds.Valid() {
		return fmt.Errorf("%w: username and password are required", domain.ErrInputValidation)
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	originalAccount := account

	usernameKey := UsernameSecretKey(id)
	passwordKey := PasswordSecretKey(id)
	previousRefs := uniqueSecretRefs(account.Credentials.UsernameRef, account.Credentials.PasswordRef)

	if err := s.store.Put(ctx, usernameKey, creds.Username); err != nil {
		return fmt.Errorf("store username secret: %w", err)
	}
	if err := s.store.Put(ctx, passwordKey, creds.Password); err != nil {
		if rollbackErr := s.store.Delete(ctx, usernameKey); rollbackErr != nil {
			return fmt.Errorf("store password secret and rollback username secret: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("store password secret: %w", err)
	}

	account.Credentials = domain.CredentialRefs{UsernameRef: usernameKey, PasswordRef: passwordKey}

	if err := s.repo.Save(ctx, account); err != nil {
		var rollbackErr error
		for _, key := range []string{usernameKey, passwordKey} {
			if containsRef(previousRefs, key) {
				continue
			}
			if deleteErr := s.store.Delete(ctx, key); deleteErr != nil {
				rollbackErr = errors.Join(rollbackErr, deleteErr)
			}
		}
		if rollbackErr != nil {
			return fmt.Errorf("save account credentials and rollback stored secrets: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("save account credentials: %w", err)
	}

	for _, previousRef := range previousRefs {
		if previousRef == usernameKey || previousRef == passwordKey {
			continue
		}
		if err := s.store.Delete(ctx, previousRef); err != nil {
			var rollbackErr error
			if restoreErr := s.repo.Save(ctx, originalAccount); restoreErr != nil {
				rollbackErr = errors.Join(rollbackErr, restoreErr)
			}
			for _, key := range []string{usernameKey, passwordKey} {
				if deleteErr := s.store.Delete(ctx, key); deleteErr != nil {
					rollbackErr = errors.Join(rollbackErr, deleteErr)
				}
			}
			if rollbackErr != nil {
				return fmt.Errorf("delete previous credential secret and rollback credential update: %w", errors.Join(err, rollbackErr))
			}
			return fmt.Errorf("delete previous credential secret: %w", err)
		}
	}

	return nil
}

// RemoveCredentials clears the account's refs, then deletes the secrets. When
// a delete fails the refs that still exist are written back.
func (s *Service) RemoveCredentials(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	originalAccount := account

	secretRefs := uniqueSecretRefs(account.Credentials.UsernameRef, account.Credentials.PasswordRef)
	account.Credentials = domain.CredentialRefs{}

	if err := s.repo.Save(ctx, account); err != nil {
		return fmt.Errorf("save account credentials: %w", err)
	}

	for _, secretRef := range secretRefs {
		if err := s.store.Delete(ctx, secretRef); err != nil {
			remaining := remainingSecretRefs(secretRefs, secretRef)
			restoreAccount := account
			restoreAccount.Credentials = keepRefs(originalAccount.Credentials, remaining)
			if restoreErr := s.repo.Save(ctx, restoreAccount); restoreErr != nil {
				return fmt.Errorf("delete credential secret and restore remaining refs: %w", errors.Join(err, restoreErr))
			}
			return fmt.Errorf("delete credential secret: %w", err)
		}
	}

	return nil
}

// AccountStatuses pairs every account with its persisted session, if any.
func (s *Service) AccountStatuses(ctx context.Context) ([]AccountStatus, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	statuses := make([]AccountStatus, 0, len(accounts))
	for _, account := range accounts {
		status := AccountStatus{Account: account, HasCredentials: !account.Credentials.Empty()}
		if s.sessions != nil {
			session, err := s.sessions.Load(ctx, account.ID)
			switch {
			case err == nil:
				status.Session = &session
			case errors.Is(err, domain.ErrSessionNotFound):
			default:
				status.SessionErr = err
			}
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func uniqueSecretRefs(secretRefs ...string) []string {
	result := make([]string, 0, len(secretRefs))
	seen := make(map[string]struct{}, len(secretRefs))

	for _, secretRef := range secretRefs {
		if secretRef == "" {
			continue
		}
		if _, ok := seen[secretRef]; ok {
			continue
		}

		seen[secretRef] = struct{}{}
		result = append(result, secretRef)
	}

	return result
}

func remainingSecretRefs(secretRefs []string, failed string) []string {
	for i, secretRef := range secretRefs {
		if secretRef == failed {
			return secretRefs[i:]
		}
	}
	return nil
}

func containsRef(refs []string, ref string) bool {
	for _, candidate := range refs {
		if candidate == ref {
			return true
		}
	}
	return false
}

func keepRefs(refs domain.CredentialRefs, remaining []string) domain.CredentialRefs {
	kept := domain.CredentialRefs{}
	if containsRef(remaining, refs.UsernameRef) {
		kept.UsernameRef = refs.UsernameRef
	}
	if containsRef(remaining, refs.PasswordRef) {
		kept.PasswordRef = refs.PasswordRef
	}
	return kept
}
