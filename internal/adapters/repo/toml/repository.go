package toml

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	AccountsPathKey    = "accounts.path"
	accountsConfigFile = "accounts.toml"
)

type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	accountsPath, err := resolvePath(cfg, AccountsPathKey, accountsConfigFile)
	if err != nil {
		return nil, fmt.Errorf("resolve accounts path: %w", err)
	}

	return &Repository{accountsPath: accountsPath, mu: lockForPath(accountsPath)}, nil
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(account)
	updated := false
	for i := range file.Accounts {
		if file.Accounts[i].ID == encoded.ID {
			file.Accounts[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Account{}, err
	}

	for _, entry := range file.Accounts {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for _, entry := range file.Accounts {
		accounts = append(accounts, fromSchema(entry))
	}

	return accounts, nil
}

func (r *Repository) Delete(ctx context.Context, id domain.AccountID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for i := range file.Accounts {
		if file.Accounts[i].ID == string(id) {
			file.Accounts = append(file.Accounts[:i], file.Accounts[i+1:]...)
			return r.writeSchema(file)
		}
	}

	return domain.ErrAccountNotFound
}

func (r *Repository) readSchema() (fileSchema, error) {
	var file fileSchema
	if _, err := readTOMLFile(r.accountsPath, &file); err != nil {
		return fileSchema{}, fmt.Errorf("load accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()
	if err := writeTOMLFile(r.accountsPath, file); err != nil {
		return fmt.Errorf("write accounts file: %w", err)
	}
	return nil
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		ID:         string(account.ID),
		Name:       account.Name,
		Platform:   string(account.Platform),
		ProfileDir: account.ProfileDir,
		Credentials: credentialsSchema{
			UsernameRef: account.Credentials.UsernameRef,
			PasswordRef: account.Credentials.PasswordRef,
		},
	}
}

func fromSchema(account accountSchema) domain.Account {
	platform := domain.Platform(account.Platform)
	if platform == "" {
		platform = domain.PlatformX
	}

	return domain.Account{
		ID:         domain.AccountID(account.ID),
		Name:       account.Name,
		Platform:   platform,
		ProfileDir: account.ProfileDir,
		Credentials: domain.CredentialRefs{
			UsernameRef: account.Credentials.UsernameRef,
			PasswordRef: account.Credentials.PasswordRef,
		},
	}
}
