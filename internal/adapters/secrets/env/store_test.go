package env

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{key: "sa/accounts/main/password", want: "SA_ACCOUNTS_MAIN_PASSWORD"},
		{key: "sa/accounts/acc-1/username", want: "SA_ACCOUNTS_ACC_1_USERNAME"},
		{key: "openai/api_key", want: "SA_OPENAI_API_KEY"},
		{key: "sa//weird..key/", want: "SA_WEIRD_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, VariableName(tt.key))
		})
	}
}

func TestStoreGetPrefersProcessEnvironment(t *testing.T) {
	t.Parallel()

	dotenvPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenvPath, []byte("SA_ACCOUNTS_MAIN_PASSWORD=from-file\nSA_ACCOUNTS_MAIN_USERNAME=alice\n"), 0o600))

	store, err := NewStore(dotenvPath)
	require.NoError(t, err)
	store.lookup = func(name string) (string, bool) {
		if name == "SA_ACCOUNTS_MAIN_PASSWORD" {
			return "from-env", true
		}
		return "", false
	}

	password, err := store.Get(context.Background(), "sa/accounts/main/password")
	require.NoError(t, err)
	assert.Equal(t, "from-env", password)

	username, err := store.Get(context.Background(), "sa/accounts/main/username")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	store.lookup = func(string) (string, bool) { return "", false }

	_, err = store.Get(context.Background(), "sa/accounts/main/password")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "SA_ACCOUNTS_MAIN_PASSWORD")
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	store, err := NewStore("")
	require.NoError(t, err)

	require.ErrorIs(t, store.Put(context.Background(), "sa/accounts/main/password", "x"), ErrReadOnly)
	require.ErrorIs(t, store.Delete(context.Background(), "sa/accounts/main/password"), ErrReadOnly)
}
