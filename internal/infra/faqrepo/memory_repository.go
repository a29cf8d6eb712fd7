package faqrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// MemoryRepository is an in-memory QuestionRepository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]faq.Question
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]faq.Question)}
}

// Create implements faq.QuestionRepository.
func (r *MemoryRepository) Create(_ context.Context, q faq.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[q.ID] = cloneQuestion(q)
	return nil
}

// FindByID implements faq.QuestionRepository.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (faq.Question, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.records[id]
	if !ok {
		return faq.Question{}, false, nil
	}
	return cloneQuestion(q), true, nil
}

// Find implements faq.QuestionRepository.
func (r *MemoryRepository) Find(_ context.Context, filter faq.QuestionFilter, page faq.Page) ([]faq.Question, error) {
	r.mu.RLock()
	matched := make([]faq.Question, 0, len(r.records))
	for _, q := range r.records {
		if filter.Matches(q) {
			matched = append(matched, cloneQuestion(q))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedOn.Equal(matched[j].CreatedOn) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedOn.After(matched[j].CreatedOn)
	})
	return applyPage(matched, page), nil
}

// Count implements faq.QuestionRepository.
func (r *MemoryRepository) Count(_ context.Context, filter faq.QuestionFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, q := range r.records {
		if filter.Matches(q) {
			n++
		}
	}
	return n, nil
}

// AppendAnswer implements faq.QuestionRepository.
func (r *MemoryRepository) AppendAnswer(_ context.Context, id string, answer faq.Answer) (faq.Question, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.records[id]
	if !ok {
		return faq.Question{}, false, nil
	}
	q = cloneQuestion(q)
	q.Answers = append(q.Answers, answer)
	r.records[id] = q
	return cloneQuestion(q), true, nil
}

// SoftDelete implements faq.QuestionRepository.
func (r *MemoryRepository) SoftDelete(_ context.Context, id, modifiedBy string, modifiedOn time.Time) (faq.Question, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.records[id]
	if !ok {
		return faq.Question{}, false, nil
	}
	before := cloneQuestion(q)
	q = cloneQuestion(q)
	q.IsDeleted = true
	q.ModifiedBy = modifiedBy
	q.ModifiedOn = &modifiedOn
	r.records[id] = q
	return before, true, nil
}

func applyPage(list []faq.Question, page faq.Page) []faq.Question {
	if page.Skip > 0 {
		if page.Skip >= len(list) {
			return []faq.Question{}
		}
		list = list[page.Skip:]
	}
	if page.Limit > 0 && page.Limit < len(list) {
		list = list[:page.Limit]
	}
	return list
}

func cloneQuestion(q faq.Question) faq.Question {
	q.EligibleDoctorIDs = append([]string{}, q.EligibleDoctorIDs...)
	q.Answers = append([]faq.Answer{}, q.Answers...)
	if q.ModifiedOn != nil {
		ts := *q.ModifiedOn
		q.ModifiedOn = &ts
	}
	return q
}

var _ faq.QuestionRepository = (*MemoryRepository)(nil)
