package chain

import (
	"context"
	"errors"
	"fmt"

	envstore "github.com/bnema/social-accounts-cli/internal/adapters/secrets/env"
	filestore "github.com/bnema/social-accounts-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/social-accounts-cli/internal/adapters/secrets/pass"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
)

// Backend is one named link of the chain. The name only shows up in errors.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store tries each backend in order and stops at the first one that
// succeeds.
type Store struct {
	backends []Backend
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret chain has no backends")

func NewStore(backends ...Backend) *Store {
	store, err := NewStoreChecked(backends...)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("secret backend %d (%s) is nil", i, backend.Name)
		}
	}

	return &Store{backends: append([]Backend(nil), backends...)}, nil
}

// NewDefault chains the environment (with an optional dotenv file), pass and
// the file store under fileRoot.
func NewDefault(dotenvPath string, fileRoot string) (*Store, error) {
	env, err := envstore.NewStore(dotenvPath)
	if err != nil {
		return nil, fmt.Errorf("create env secret store: %w", err)
	}

	return NewStoreChecked(
		Backend{Name: "env", Store: env},
		Backend{Name: "pass", Store: passstore.NewStore()},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if shouldSkipFallback(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend put failed: %w", backend.Name, err))
	}

	return errors.Join(errs...)
}

// Get returns domain.ErrSecretNotFound only when no backend failed for
// another reason.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	allMissing := true
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if shouldSkipFallback(err) {
			return "", err
		}
		if !errors.Is(err, domain.ErrSecretNotFound) {
			allMissing = false
		}
		errs = append(errs, fmt.Errorf("%s backend get failed: %w", backend.Name, err))
	}

	if allMissing {
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	}
	return "", errors.Join(errs...)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, key)
		if err == nil {
			return nil
		}
		if shouldSkipFallback(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend delete failed: %w", backend.Name, err))
	}

	return errors.Join(errs...)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
