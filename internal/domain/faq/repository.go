package faq

import (
	"context"
	"time"
)

// QuestionFilter narrows question listings. Zero values do not filter.
type QuestionFilter struct {
	ExcludeDeleted bool
	Status         *Status
	AskingUserID   string
}

// Matches reports whether q satisfies the filter.
func (f QuestionFilter) Matches(q Question) bool {
	if f.ExcludeDeleted && q.IsDeleted {
		return false
	}
	if f.Status != nil && q.Status != *f.Status {
		return false
	}
	if f.AskingUserID != "" && q.AskingUserID != f.AskingUserID {
		return false
	}
	return true
}

// Page selects a window of a listing. Skip is a row offset and a zero Limit
// means unbounded.
type Page struct {
	Skip  int
	Limit int
}

// QuestionRepository persists questions. Listings are ordered newest first.
type QuestionRepository interface {
	Create(ctx context.Context, q Question) error
	FindByID(ctx context.Context, id string) (Question, bool, error)
	Find(ctx context.Context, filter QuestionFilter, page Page) ([]Question, error)
	Count(ctx context.Context, filter QuestionFilter) (int64, error)
	// AppendAnswer atomically appends and returns the updated question.
	AppendAnswer(ctx context.Context, id string, answer Answer) (Question, bool, error)
	// SoftDelete flags the question deleted and returns it as it was before.
	SoftDelete(ctx context.Context, id, modifiedBy string, modifiedOn time.Time) (Question, bool, error)
}

// DoctorRepository reads doctor records.
type DoctorRepository interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (Doctor, bool, error)
	FindByIDs(ctx context.Context, ids []string) ([]Doctor, error)
}

// UserRepository resolves asking users for read-side joins.
type UserRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
}

// Notifier delivers a new question to one doctor.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
