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
	GroupsPathKey   = "groups.path"
	groupConfigFile = "groups.toml"
)

type GroupRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.GroupRepository = (*GroupRepository)(nil)

func NewGroupRepository(cfg *viper.Viper) (*GroupRepository, error) {
	path, err := resolvePath(cfg, GroupsPathKey, groupConfigFile)
	if err != nil {
		return nil, fmt.Errorf("resolve groups path: %w", err)
	}

	return &GroupRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *GroupRepository) Save(ctx context.Context, group domain.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toGroupSchema(group)
	updated := false
	for i := range file.Groups {
		if file.Groups[i].ID == encoded.ID {
			file.Groups[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Groups = append(file.Groups, encoded)
	}

	return r.writeSchema(file)
}

func (r *GroupRepository) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Group{}, err
	}

	for _, entry := range file.Groups {
		if entry.ID == string(id) {
			return fromGroupSchema(entry), nil
		}
	}

	return domain.Group{}, domain.ErrGroupNotFound
}

func (r *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	groups := make([]domain.Group, 0, len(file.Groups))
	for _, entry := range file.Groups {
		groups = append(groups, fromGroupSchema(entry))
	}

	return groups, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id domain.GroupID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for i := range file.Groups {
		if file.Groups[i].ID == string(id) {
			file.Groups = append(file.Groups[:i], file.Groups[i+1:]...)
			return r.writeSchema(file)
		}
	}

	return domain.ErrGroupNotFound
}

func (r *GroupRepository) readSchema() (groupsFileSchema, error) {
	var file groupsFileSchema
	if _, err := readTOMLFile(r.path, &file); err != nil {
		return groupsFileSchema{}, fmt.Errorf("load groups file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return groupsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *GroupRepository) writeSchema(file groupsFileSchema) error {
	file.applyDefaults()
	if err := writeTOMLFile(r.path, file); err != nil {
		return fmt.Errorf("write groups file: %w", err)
	}
	return nil
}

func toGroupSchema(group domain.Group) groupSchema {
	members := make([]string, 0, len(group.Members))
	for _, member := range group.Members {
		members = append(members, string(member))
	}

	return groupSchema{
		ID:        string(group.ID),
		Name:      group.Name,
		Members:   members,
		UpdatedAt: formatTime(group.UpdatedAt),
	}
}

func fromGroupSchema(schema groupSchema) domain.Group {
	members := make([]domain.AccountID, 0, len(schema.Members))
	for _, member := range schema.Members {
		members = append(members, domain.AccountID(member))
	}

	return domain.Group{
		ID:        domain.GroupID(schema.ID),
		Name:      schema.Name,
		Members:   members,
		UpdatedAt: parseTime(schema.UpdatedAt),
	}
}
