package application

import (
	"github.com/bnema/social-accounts-cli/internal/domain"
)

type AccountStatus struct {
	Account        domain.Account
	HasCredentials bool
	Session        *domain.Session
	SessionErr     error
}

func (s AccountStatus) Phase() domain.SessionPhase {
	if s.Session == nil {
		return domain.PhaseUninitialized
	}
	return s.Session.Phase
}
