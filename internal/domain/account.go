package domain

import (
	"fmt"
	"strings"
)

type AccountID string

type Platform string

const PlatformX Platform = "x"

type Account struct {
	ID          AccountID
	Name        string
	Platform    Platform
	ProfileDir  string
	Credentials CredentialRefs
}

// CredentialRefs point into the secret store. The values are never persisted
// alongside the account.
type CredentialRefs struct {
	UsernameRef string
	PasswordRef string
}

func (r CredentialRefs) Empty() bool {
	return r.UsernameRef == "" && r.PasswordRef == ""
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

func (a Account) Validate() error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.ContainsAny(string(a.ID), `/\`) || strings.Contains(string(a.ID), "..") {
		return fmt.Errorf("invalid account id %q", a.ID)
	}
	if a.Platform != "" && a.Platform != PlatformX {
		return fmt.Errorf("unsupported platform %q", a.Platform)
	}

	return nil
}

func (a Account) DisplayName() string {
	if a.Name == "" {
		return string(a.ID)
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.ID)
}
