package doctorrepo

import (
	"context"
	"sync"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// MemoryRepository keeps doctors in insertion order for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	order   []string
	records map[string]faq.Doctor
}

// NewMemoryRepository constructs a repository seeded with doctors.
func NewMemoryRepository(seed ...faq.Doctor) *MemoryRepository {
	r := &MemoryRepository{records: make(map[string]faq.Doctor)}
	for _, d := range seed {
		r.Upsert(d)
	}
	return r
}

// Upsert adds or replaces a doctor.
func (r *MemoryRepository) Upsert(d faq.Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[d.ID]; !ok {
		r.order = append(r.order, d.ID)
	}
	r.records[d.ID] = d
}

// ListActiveIDs implements faq.DoctorRepository.
func (r *MemoryRepository) ListActiveIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if !r.records[id].IsDeleted {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FindByID implements faq.DoctorRepository.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (faq.Doctor, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.records[id]
	return d, ok, nil
}

// FindByIDs implements faq.DoctorRepository.
func (r *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]faq.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]faq.Doctor, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.records[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

var _ faq.DoctorRepository = (*MemoryRepository)(nil)
