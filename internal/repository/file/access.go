package file

import (
	"context"
	"fmt"
	"os"

	"carcamalbot/internal/domain"

	"gopkg.in/yaml.v3"
)

// AccessRepo implements repository.AccessRepository on a YAML file
type AccessRepo struct {
	path string
}

// NewAccessRepo creates a new access config repository
func NewAccessRepo(path string) *AccessRepo {
	return &AccessRepo{path: path}
}

// Load reads the access config
func (r *AccessRepo) Load(_ context.Context) (*domain.Access, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read access config %s: %w", r.path, err)
	}

	var access domain.Access
	if err := yaml.Unmarshal(data, &access); err != nil {
		return nil, fmt.Errorf("failed to parse access config %s: %w", r.path, err)
	}
	if access.Users == nil {
		access.Users = make(map[int64]domain.UserEntry)
	}
	return &access, nil
}

// Persist atomically writes the access config back to disk
func (r *AccessRepo) Persist(_ context.Context, access *domain.Access) error {
	data, err := yaml.Marshal(access)
	if err != nil {
		return fmt.Errorf("failed to encode access config: %w", err)
	}
	return writeFileAtomic(r.path, data, 0o600)
}
