package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	SessionsDirKey    = "sessions.dir"
	sessionsDirName   = "sessions"
	sessionFileSuffix = ".toml"
)

// SessionStore keeps one TOML snapshot per account in a directory.
type SessionStore struct {
	dir string
	mu  *sync.RWMutex
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(cfg *viper.Viper) (*SessionStore, error) {
	dir, err := resolvePath(cfg, SessionsDirKey, sessionsDirName)
	if err != nil {
		return nil, fmt.Errorf("resolve sessions dir: %w", err)
	}

	return &SessionStore{dir: dir, mu: lockForPath(dir)}, nil
}

func (s *SessionStore) Load(ctx context.Context, id domain.AccountID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	path, err := s.pathFor(id)
	if err != nil {
		return domain.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadSession(path, id)
}

func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathFor(session.AccountID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeTOMLFile(path, toSessionSchema(session)); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// List returns every decodable snapshot. Corrupt files are reported together
// after the readable ones.
func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionFileSuffix) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	sessions := make([]domain.Session, 0, len(names))
	var errs []error
	for _, name := range names {
		id := domain.AccountID(strings.TrimSuffix(name, sessionFileSuffix))
		session, err := loadSession(filepath.Join(s.dir, name), id)
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, errors.Join(errs...)
}

func (s *SessionStore) pathFor(id domain.AccountID) (string, error) {
	if err := (domain.Account{ID: id}).Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInputValidation, err)
	}
	return filepath.Join(s.dir, string(id)+sessionFileSuffix), nil
}

func loadSession(path string, id domain.AccountID) (domain.Session, error) {
	var file sessionFileSchema
	found, err := readTOMLFile(path, &file)
	if err != nil {
		if found {
			return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrSessionCorrupt, err)
		}
		return domain.Session{}, fmt.Errorf("load session file: %w", err)
	}
	if !found {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err := file.validateVersion(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrSessionCorrupt, err)
	}

	session := fromSessionSchema(file)
	switch {
	case session.AccountID != id:
		return domain.Session{}, fmt.Errorf("%w: snapshot belongs to %q", domain.ErrSessionCorrupt, session.AccountID)
	case !session.Phase.Known():
		return domain.Session{}, fmt.Errorf("%w: unknown phase %q", domain.ErrSessionCorrupt, session.Phase)
	}

	return session, nil
}

func toSessionSchema(session domain.Session) sessionFileSchema {
	cookies := make([]cookieSchema, 0, len(session.Cookies))
	for _, cookie := range session.Cookies {
		cookies = append(cookies, cookieSchema{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Expires:  formatTime(cookie.Expires),
			HTTPOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: cookie.SameSite,
		})
	}

	file := sessionFileSchema{
		AccountID:  string(session.AccountID),
		Phase:      string(session.Phase),
		LoginState: string(session.LoginState),
		Stale:      session.Stale,
		LastError:  string(session.LastError),
		VerifiedAt: formatTime(session.VerifiedAt),
		UpdatedAt:  formatTime(session.UpdatedAt),
		Cookies:    cookies,
	}
	file.applyDefaults()
	return file
}

func fromSessionSchema(file sessionFileSchema) domain.Session {
	var cookies []domain.Cookie
	if len(file.Cookies) > 0 {
		cookies = make([]domain.Cookie, 0, len(file.Cookies))
	}
	for _, cookie := range file.Cookies {
		cookies = append(cookies, domain.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Expires:  parseTime(cookie.Expires),
			HTTPOnly: cookie.HTTPOnly,
			Secure:   cookie.Secure,
			SameSite: cookie.SameSite,
		})
	}

	loginState := domain.PageState(file.LoginState)
	if loginState == "" {
		loginState = domain.PageStateUnknown
	}

	return domain.Session{
		AccountID:  domain.AccountID(file.AccountID),
		Phase:      domain.SessionPhase(file.Phase),
		LoginState: loginState,
		Cookies:    cookies,
		VerifiedAt: parseTime(file.VerifiedAt),
		UpdatedAt:  parseTime(file.UpdatedAt),
		Stale:      file.Stale,
		LastError:  domain.ErrorKind(file.LastError),
	}
}
