package kv

import (
	"context"
	"time"

	"github.com/mdabydeen/dashstate/internal/store"
)

// RepositoryStore implements Store on top of the preferences table of a
// store.Repository. TTLs persist as absolute expiry timestamps; the
// repository expires rows lazily on read and the reaper sweeps the rest.
type RepositoryStore struct {
	repo store.Repository
	now  func() time.Time
}

// NewRepository creates a Store backed by the given repository.
func NewRepository(repo store.Repository) *RepositoryStore {
	return &RepositoryStore{repo: repo, now: time.Now}
}

// Load implements Store.
func (s *RepositoryStore) Load(ctx context.Context, owner, key string) ([]byte, error) {
	return s.repo.GetPreference(ctx, owner, key)
}

// Save implements Store.
func (s *RepositoryStore) Save(ctx context.Context, owner, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		at := s.now().Add(ttl)
		expiresAt = &at
	}
	return s.repo.SetPreference(ctx, owner, key, value, expiresAt)
}

// Delete implements Store.
func (s *RepositoryStore) Delete(ctx context.Context, owner, key string) error {
	return s.repo.DeletePreference(ctx, owner, key)
}

// Close is a no-op; the repository's lifecycle is owned by the caller.
func (s *RepositoryStore) Close() error {
	return nil
}
