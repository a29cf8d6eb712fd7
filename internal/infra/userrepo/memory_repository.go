package userrepo

import (
	"context"
	"sync"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// MemoryRepository is an in-memory UserRepository used for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]faq.User
}

// NewMemoryRepository constructs a repository seeded with users.
func NewMemoryRepository(seed ...faq.User) *MemoryRepository {
	r := &MemoryRepository{users: make(map[string]faq.User)}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

// Upsert adds or replaces a user.
func (r *MemoryRepository) Upsert(u faq.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// FindByIDs implements faq.UserRepository.
func (r *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]faq.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]faq.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

var _ faq.UserRepository = (*MemoryRepository)(nil)
