package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGroupServiceSetGroupCreatesGroup(t *testing.T) {
	t.Parallel()

	repo := &inMemoryAccountRepo{accounts: []domain.Account{{ID: "1"}, {ID: "2"}}}
	groups := &inMemoryGroupRepo{}
	now := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	svc := NewGroupService(repo, groups, fixedClock{now: now})

	group, err := svc.SetGroup(context.Background(), "launch", "", []domain.AccountID{"2", " 1 ", "2"})
	require.NoError(t, err)

	assert.Equal(t, domain.GroupID("launch"), group.ID)
	assert.Equal(t, "launch", group.Name)
	assert.Equal(t, []domain.AccountID{"2", "1"}, group.Members)
	assert.Equal(t, now, group.UpdatedAt)

	stored, err := groups.GetByID(context.Background(), "launch")
	require.NoError(t, err)
	assert.Equal(t, group, stored)
}

func TestGroupServiceSetGroupReplacesMembersAndKeepsName(t *testing.T) {
	t.Parallel()

	repo := &inMemoryAccountRepo{accounts: []domain.Account{{ID: "1"}, {ID: "2"}}}
	groups := &inMemoryGroupRepo{groups: map[domain.GroupID]domain.Group{
		"launch": {ID: "launch", Name: "Launch day", Members: []domain.AccountID{"1"}},
	}}
	svc := NewGroupService(repo, groups, nil)

	group, err := svc.SetGroup(context.Background(), "launch", "", []domain.AccountID{"2"})
	require.NoError(t, err)

	assert.Equal(t, "Launch day", group.Name)
	assert.Equal(t, []domain.AccountID{"2"}, group.Members)
}

func TestGroupServiceSetGroupValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		members []domain.AccountID
		wantErr error
	}{
		{name: "no members", members: nil, wantErr: domain.ErrInputValidation},
		{name: "blank members", members: []domain.AccountID{" "}, wantErr: domain.ErrInputValidation},
		{name: "unknown member", members: []domain.AccountID{"1", "ghost"}, wantErr: domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			groups := &inMemoryGroupRepo{}
			svc := NewGroupService(&inMemoryAccountRepo{accounts: []domain.Account{{ID: "1"}}}, groups, nil)

			_, err := svc.SetGroup(context.Background(), "launch", "Launch", tt.members)
			require.ErrorIs(t, err, tt.wantErr)

			_, err = groups.GetByID(context.Background(), "launch")
			require.ErrorIs(t, err, domain.ErrGroupNotFound)
		})
	}
}

func TestGroupServiceRemoveGroup(t *testing.T) {
	t.Parallel()

	groups := &inMemoryGroupRepo{groups: map[domain.GroupID]domain.Group{
		"launch": {ID: "launch", Name: "launch", Members: []domain.AccountID{"1"}},
	}}
	svc := NewGroupService(&inMemoryAccountRepo{}, groups, nil)

	require.NoError(t, svc.RemoveGroup(context.Background(), "launch"))
	require.ErrorIs(t, svc.RemoveGroup(context.Background(), "launch"), domain.ErrGroupNotFound)
}

func TestGroupServicePruneMember(t *testing.T) {
	t.Parallel()

	groups := &inMemoryGroupRepo{groups: map[domain.GroupID]domain.Group{
		"both": {ID: "both", Name: "both", Members: []domain.AccountID{"1", "2"}},
		"solo": {ID: "solo", Name: "solo", Members: []domain.AccountID{"1"}},
		"none": {ID: "none", Name: "none", Members: []domain.AccountID{"2"}},
	}}
	svc := NewGroupService(&inMemoryAccountRepo{}, groups, nil)

	require.NoError(t, svc.PruneMember(context.Background(), "1"))

	list, err := svc.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.GroupID("both"), list[0].ID)
	assert.Equal(t, []domain.AccountID{"2"}, list[0].Members)
	assert.Equal(t, domain.GroupID("none"), list[1].ID)
}

func TestGroupServiceSetGroupRepositoryErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")

	t.Run("load failure", func(t *testing.T) {
		t.Parallel()

		groups := mocks.NewMockGroupRepository(t)
		groups.EXPECT().GetByID(mock.Anything, domain.GroupID("launch")).Return(domain.Group{}, boom).Once()
		svc := NewGroupService(&inMemoryAccountRepo{accounts: []domain.Account{{ID: "1"}}}, groups, nil)

		_, err := svc.SetGroup(context.Background(), "launch", "", []domain.AccountID{"1"})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "load group")
	})

	t.Run("save failure", func(t *testing.T) {
		t.Parallel()

		groups := mocks.NewMockGroupRepository(t)
		groups.EXPECT().GetByID(mock.Anything, domain.GroupID("launch")).Return(domain.Group{}, domain.ErrGroupNotFound).Once()
		groups.EXPECT().Save(mock.Anything, mock.MatchedBy(func(g domain.Group) bool {
			return g.ID == "launch" && len(g.Members) == 1
		})).Return(boom).Once()
		svc := NewGroupService(&inMemoryAccountRepo{accounts: []domain.Account{{ID: "1"}}}, groups, nil)

		_, err := svc.SetGroup(context.Background(), "launch", "", []domain.AccountID{"1"})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "save group")
	})
}

type inMemoryGroupRepo struct {
	mu     sync.Mutex
	groups map[domain.GroupID]domain.Group
}

func (r *inMemoryGroupRepo) GetByID(_ context.Context, id domain.GroupID) (domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[id]
	if !ok {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	return group, nil
}

func (r *inMemoryGroupRepo) List(_ context.Context) ([]domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Group, 0, len(r.groups))
	for _, group := range r.groups {
		result = append(result, group)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *inMemoryGroupRepo) Save(_ context.Context, group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groups == nil {
		r.groups = map[domain.GroupID]domain.Group{}
	}
	r.groups[group.ID] = group
	return nil
}

func (r *inMemoryGroupRepo) Delete(_ context.Context, id domain.GroupID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(r.groups, id)
	return nil
}

type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts []domain.Account
}

func (r *inMemoryAccountRepo) GetByID(_ context.Context, id domain.AccountID) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *inMemoryAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.Account(nil), r.accounts...), nil
}

func (r *inMemoryAccountRepo) Save(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.accounts {
		if r.accounts[i].ID == account.ID {
			r.accounts[i] = account
			return nil
		}
	}
	r.accounts = append(r.accounts, account)
	return nil
}

func (r *inMemoryAccountRepo) Delete(_ context.Context, id domain.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.accounts {
		if r.accounts[i].ID == id {
			r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func (f fixedClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
