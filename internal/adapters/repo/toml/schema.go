package toml

import "fmt"

const (
	currentSchemaVersion        = 1
	currentGroupsSchemaVersion  = 1
	currentSessionSchemaVersion = 1
)

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID          string            `toml:"id"`
	Name        string            `toml:"name"`
	Platform    string            `toml:"platform"`
	ProfileDir  string            `toml:"profile_dir"`
	Credentials credentialsSchema `toml:"credentials"`
}

type credentialsSchema struct {
	UsernameRef string `toml:"username_ref,omitempty"`
	PasswordRef string `toml:"password_ref,omitempty"`
}

type groupsFileSchema struct {
	Version int           `toml:"version"`
	Groups  []groupSchema `toml:"groups"`
}

func (s *groupsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentGroupsSchemaVersion
	}
}

func (s groupsFileSchema) validateVersion() error {
	if s.Version > currentGroupsSchemaVersion {
		return fmt.Errorf("unsupported groups schema version %d (current %d)", s.Version, currentGroupsSchemaVersion)
	}

	return nil
}

type groupSchema struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	Members   []string `toml:"members"`
	UpdatedAt string   `toml:"updated_at"`
}

type sessionFileSchema struct {
	Version    int            `toml:"version"`
	AccountID  string         `toml:"account_id"`
	Phase      string         `toml:"phase"`
	LoginState string         `toml:"login_state"`
	Stale      bool           `toml:"stale"`
	LastError  string         `toml:"last_error,omitempty"`
	VerifiedAt string         `toml:"verified_at,omitempty"`
	UpdatedAt  string         `toml:"updated_at,omitempty"`
	Cookies    []cookieSchema `toml:"cookies"`
}

func (s *sessionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionSchemaVersion
	}
}

func (s sessionFileSchema) validateVersion() error {
	if s.Version > currentSessionSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSessionSchemaVersion)
	}

	return nil
}

type cookieSchema struct {
	Name     string `toml:"name"`
	Value    string `toml:"value"`
	Domain   string `toml:"domain"`
	Path     string `toml:"path"`
	Expires  string `toml:"expires,omitempty"`
	HTTPOnly bool   `toml:"http_only"`
	Secure   bool   `toml:"secure"`
	SameSite string `toml:"same_site,omitempty"`
}
