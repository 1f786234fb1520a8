package ports

import (
	"context"

	"github.com/bnema/social-accounts-cli/internal/domain"
)

type GroupRepository interface {
	GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	Save(ctx context.Context, group domain.Group) error
	Delete(ctx context.Context, id domain.GroupID) error
}
