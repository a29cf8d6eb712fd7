package faq

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/doctor-faq/pkg/errors"
	"github.com/yanqian/doctor-faq/pkg/metrics"
	"github.com/yanqian/doctor-faq/pkg/util"
)

// Service exposes the doctor Q&A workflows.
type Service interface {
	Save(ctx context.Context, req SaveRequest) (SaveResponse, error)
	Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error)
	Get(ctx context.Context, id string) (*QuestionView, error)
	ListFiltered(ctx context.Context, req FilterRequest) (FilterResponse, error)
	Delete(ctx context.Context, req DeleteRequest) (*Question, error)
	ListAll(ctx context.Context) ([]QuestionView, error)
}

type service struct {
	cfg       Config
	questions QuestionRepository
	doctors   DoctorRepository
	users     UserRepository
	notifier  Notifier
	metrics   *metrics.FAQ
	logger    *slog.Logger
	validate  *validator.Validate
	now       util.Clock
	newID     func() string
}

// NewService wires up the FAQ domain.
func NewService(cfg Config, questions QuestionRepository, doctors DoctorRepository, users UserRepository, notifier Notifier, recorder *metrics.FAQ, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		questions: questions,
		doctors:   doctors,
		users:     users,
		notifier:  notifier,
		metrics:   recorder,
		logger:    logger.With("component", "faq.service"),
		validate:  newValidator(),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

func (s *service) Save(ctx context.Context, req SaveRequest) (SaveResponse, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := checkRequest(s.validate, req); err != nil {
		return SaveResponse{}, err
	}

	doctorIDs, err := s.doctors.ListActiveIDs(ctx)
	if err != nil {
		return SaveResponse{}, apperrors.Wrap("faq_error", "failed to load doctors", err)
	}

	q := Question{
		ID:                s.newID(),
		QuestionText:      req.Question,
		AskingUserID:      req.UserID,
		EligibleDoctorIDs: append([]string{}, doctorIDs...),
		Answers:           []Answer{},
		Status:            StatusActive,
		CreatedOn:         s.now(),
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return SaveResponse{}, apperrors.Wrap("faq_error", "failed to save question", err)
	}
	s.metrics.QuestionCreated()

	s.notifyDoctors(ctx, q)

	return SaveResponse{Question: q, DoctorIDs: doctorIDs}, nil
}

func (s *service) Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	req.QuestionID = strings.TrimSpace(req.QuestionID)
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.Answer = strings.TrimSpace(req.Answer)
	if err := checkRequest(s.validate, req); err != nil {
		return ReplyResponse{}, err
	}

	q, found, err := s.questions.FindByID(ctx, req.QuestionID)
	if err != nil {
		return ReplyResponse{}, apperrors.Wrap("faq_error", "failed to load question", err)
	}
	if !found {
		return ReplyResponse{}, apperrors.Wrap("not_found", "Faq not found", nil)
	}

	doctor, found, err := s.doctors.FindByID(ctx, req.DoctorID)
	if err != nil {
		return ReplyResponse{}, apperrors.Wrap("faq_error", "failed to load doctor", err)
	}
	if !found {
		return ReplyResponse{}, apperrors.Wrap("not_found", "Doctor not found", nil)
	}

	updated, found, err := s.questions.AppendAnswer(ctx, q.ID, Answer{DoctorID: doctor.ID, Answer: req.Answer})
	if err != nil {
		return ReplyResponse{}, apperrors.Wrap("faq_error", "failed to save answer", err)
	}
	if !found {
		return ReplyResponse{}, apperrors.Wrap("not_found", "Faq not found", nil)
	}
	s.metrics.AnswerAppended()

	return ReplyResponse{
		FaqID:   updated.ID,
		Answers: visibleAnswers(updated, req.RequesterID),
	}, nil
}

// Get reports a missing or empty id as a nil view, never as an error.
func (s *service) Get(ctx context.Context, id string) (*QuestionView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	q, found, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap("faq_error", "failed to load question", err)
	}
	if !found {
		return nil, nil
	}
	views := []QuestionView{{Question: q}}
	if err := s.attachUsers(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) ListFiltered(ctx context.Context, req FilterRequest) (FilterResponse, error) {
	req.LoginID = strings.TrimSpace(req.LoginID)
	if err := checkRequest(s.validate, req); err != nil {
		return FilterResponse{}, err
	}

	active := StatusActive
	filter := QuestionFilter{ExcludeDeleted: true, Status: &active, AskingUserID: req.LoginID}
	list, err := s.questions.Find(ctx, filter, Page{Skip: req.Page, Limit: req.Limit})
	if err != nil {
		return FilterResponse{}, apperrors.Wrap("faq_error", "failed to list questions", err)
	}
	total, err := s.questions.Count(ctx, filter)
	if err != nil {
		return FilterResponse{}, apperrors.Wrap("faq_error", "failed to count questions", err)
	}

	views := toViews(list)
	if err := s.attachUsers(ctx, views); err != nil {
		return FilterResponse{}, err
	}
	return FilterResponse{List: views, TotalCount: total}, nil
}

func (s *service) Delete(ctx context.Context, req DeleteRequest) (*Question, error) {
	req.QuestionID = strings.TrimSpace(req.QuestionID)
	if err := checkRequest(s.validate, req); err != nil {
		return nil, err
	}
	modifiedOn := s.now()
	if req.ModifiedOn != nil {
		modifiedOn = req.ModifiedOn.UTC()
	}
	before, found, err := s.questions.SoftDelete(ctx, req.QuestionID, strings.TrimSpace(req.ModifiedBy), modifiedOn)
	if err != nil {
		return nil, apperrors.Wrap("faq_error", "failed to delete question", err)
	}
	if !found {
		return nil, nil
	}
	return &before, nil
}

func (s *service) ListAll(ctx context.Context) ([]QuestionView, error) {
	list, err := s.questions.Find(ctx, QuestionFilter{ExcludeDeleted: true}, Page{})
	if err != nil {
		return nil, apperrors.Wrap("faq_error", "failed to list questions", err)
	}
	views := toViews(list)
	if err := s.attachUsers(ctx, views); err != nil {
		return nil, err
	}
	if err := s.attachDoctors(ctx, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *service) attachUsers(ctx context.Context, views []QuestionView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.AskingUserID)
	}
	users, err := s.users.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return apperrors.Wrap("faq_error", "failed to load users", err)
	}
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range views {
		if u, ok := byID[views[i].AskingUserID]; ok {
			views[i].AskingUser = &UserRef{ID: u.ID, Name: u.Name}
		}
	}
	return nil
}

// attachDoctors resolves the eligible doctor snapshot. Doctors deleted since
// are still shown; ids with no record are skipped.
func (s *service) attachDoctors(ctx context.Context, views []QuestionView) error {
	var ids []string
	for _, v := range views {
		ids = append(ids, v.EligibleDoctorIDs...)
	}
	if len(ids) == 0 {
		return nil
	}
	doctors, err := s.doctors.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return apperrors.Wrap("faq_error", "failed to load doctors", err)
	}
	byID := make(map[string]Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}
	for i := range views {
		refs := make([]DoctorRef, 0, len(views[i].EligibleDoctorIDs))
		for _, id := range views[i].EligibleDoctorIDs {
			if d, ok := byID[id]; ok {
				refs = append(refs, DoctorRef{ID: d.ID, DoctorName: d.Name, ProfileImage: d.ProfileImage})
			}
		}
		views[i].EligibleDoctors = refs
	}
	return nil
}

func toViews(list []Question) []QuestionView {
	views := make([]QuestionView, len(list))
	for i, q := range list {
		views[i] = QuestionView{Question: q}
	}
	return views
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
