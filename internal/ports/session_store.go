package ports

import (
	"context"

	"github.com/bnema/social-accounts-cli/internal/domain"
)

// SessionStore persists one session snapshot per account. Load returns
// domain.ErrSessionNotFound when nothing was saved and wraps
// domain.ErrSessionCorrupt when the snapshot cannot be decoded.
type SessionStore interface {
	Load(ctx context.Context, id domain.AccountID) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	List(ctx context.Context) ([]domain.Session, error)
}
