package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/joho/godotenv"
)

const Prefix = "SA_"

// ErrReadOnly is returned by Put and Delete. Environment secrets are managed
// outside the CLI.
var ErrReadOnly = errors.New("environment secret store is read-only")

// Store resolves secrets from the process environment, then from an optional
// dotenv file. Keys map to upper snake case with the SA_ prefix, so
// "sa/accounts/main/password" reads SA_ACCOUNTS_MAIN_PASSWORD.
type Store struct {
	lookup func(string) (string, bool)
	dotenv map[string]string
}

var _ ports.SecretStore = (*Store)(nil)

// NewStore reads dotenvPath when it is set. A missing file is not an error.
func NewStore(dotenvPath string) (*Store, error) {
	store := &Store{lookup: os.LookupEnv, dotenv: map[string]string{}}
	if dotenvPath == "" {
		return store, nil
	}

	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read dotenv file: %w", err)
	}
	store.dotenv = values

	return store, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := VariableName(key)
	if value, ok := s.lookup(name); ok && value != "" {
		return value, nil
	}
	if value, ok := s.dotenv[name]; ok && value != "" {
		return value, nil
	}

	return "", fmt.Errorf("env secret %s: %w", name, domain.ErrSecretNotFound)
}

func (s *Store) Put(ctx context.Context, key string, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("put %s: %w", VariableName(key), ErrReadOnly)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("delete %s: %w", VariableName(key), ErrReadOnly)
}

func VariableName(key string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(key) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	name := strings.TrimSuffix(b.String(), "_")
	if !strings.HasPrefix(name, Prefix) {
		name = Prefix + name
	}
	return name
}
