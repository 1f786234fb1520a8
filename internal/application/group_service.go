package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
)

type GroupService struct {
	accounts ports.AccountRepository
	groups   ports.GroupRepository
	clock    ports.Clock
}

func NewGroupService(accounts ports.AccountRepository, groups ports.GroupRepository, clock ports.Clock) *GroupService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &GroupService{accounts: accounts, groups: groups, clock: clock}
}

// SetGroup creates or replaces a group. Every member must be a configured
// account.
func (s *GroupService) SetGroup(ctx context.Context, id domain.GroupID, name string, members []domain.AccountID) (domain.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrGroupNotFound) {
			return domain.Group{}, fmt.Errorf("load group: %w", err)
		}
		group = domain.Group{ID: id}
	}

	if strings.TrimSpace(name) != "" {
		group.Name = name
	}
	if group.Name == "" {
		group.Name = string(id)
	}
	group.Members = members
	group.NormalizeMembers()
	group.UpdatedAt = s.clock.Now()

	if err := group.Validate(); err != nil {
		return domain.Group{}, fmt.Errorf("%w: %w", domain.ErrInputValidation, err)
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return domain.Group{}, fmt.Errorf("list accounts: %w", err)
	}
	known := make(map[domain.AccountID]struct{}, len(accounts))
	for _, account := range accounts {
		known[account.ID] = struct{}{}
	}
	for _, member := range group.Members {
		if _, ok := known[member]; !ok {
			return domain.Group{}, fmt.Errorf("group member %s: %w", member, domain.ErrAccountNotFound)
		}
	}

	if err := s.groups.Save(ctx, group); err != nil {
		return domain.Group{}, fmt.Errorf("save group: %w", err)
	}

	return group, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *GroupService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) RemoveGroup(ctx context.Context, id domain.GroupID) error {
	if _, err := s.groups.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// PruneMember drops an account from every group that lists it. Groups left
// without members are deleted.
func (s *GroupService) PruneMember(ctx context.Context, id domain.AccountID) error {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	for _, group := range groups {
		members := make([]domain.AccountID, 0, len(group.Members))
		for _, member := range group.Members {
			if member != id {
				members = append(members, member)
			}
		}
		if len(members) == len(group.Members) {
			continue
		}

		if len(members) == 0 {
			if err := s.groups.Delete(ctx, group.ID); err != nil {
				return fmt.Errorf("delete group %s: %w", group.ID, err)
			}
			continue
		}
		group.Members = members
		group.UpdatedAt = s.clock.Now()
		if err := s.groups.Save(ctx, group); err != nil {
			return fmt.Errorf("save group %s: %w", group.ID, err)
		}
	}

	return nil
}
