package faq

import (
	"context"
	"fmt"

	"github.com/yanqian/doctor-faq/pkg/metrics"
)

// notifyDoctors tells every eligible doctor about a new question, one call at
// a time. A failed call is logged and counted, then the loop moves on.
func (s *service) notifyDoctors(ctx context.Context, q Question) {
	// The question is already persisted, so a client disconnect must not
	// cut the fan-out short.
	ctx = context.WithoutCancel(ctx)
	for _, doctorID := range q.EligibleDoctorIDs {
		n := Notification{
			DoctorID:   doctorID,
			QuestionID: q.ID,
			Question:   q.QuestionText,
			UserID:     q.AskingUserID,
			CreatedAt:  q.CreatedOn,
		}
		if err := s.notifyOne(ctx, n); err != nil {
			s.metrics.Notification(metrics.NotificationFailed)
			s.logger.Warn("doctor notification failed", "doctor_id", doctorID, "question_id", q.ID, "error", err)
			continue
		}
		s.metrics.Notification(metrics.NotificationDelivered)
	}
}

func (s *service) notifyOne(ctx context.Context, n Notification) (err error) {
	if s.cfg.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NotifyTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return s.notifier.Notify(ctx, n)
}
