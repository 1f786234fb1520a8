package toml

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	config := viper.New()
	config.Set(GroupsPathKey, filepath.Join(t.TempDir(), "groups.toml"))

	repo, err := NewGroupRepository(config)
	require.NoError(t, err)

	group := domain.Group{
		ID:        "launch",
		Name:      "Launch day",
		Members:   []domain.AccountID{"acc-2", "acc-1"},
		UpdatedAt: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(context.Background(), group))

	got, err := repo.GetByID(context.Background(), "launch")
	require.NoError(t, err)
	assert.Equal(t, group, got)

	groups, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Group{group}, groups)

	require.NoError(t, repo.Delete(context.Background(), "launch"))
	_, err = repo.GetByID(context.Background(), "launch")
	require.ErrorIs(t, err, domain.ErrGroupNotFound)
	require.ErrorIs(t, repo.Delete(context.Background(), "launch"), domain.ErrGroupNotFound)
}

func TestGroupRepositoryMissingFile(t *testing.T) {
	t.Parallel()

	config := viper.New()
	config.Set(GroupsPathKey, filepath.Join(t.TempDir(), "nested", "groups.toml"))

	repo, err := NewGroupRepository(config)
	require.NoError(t, err)

	groups, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}
