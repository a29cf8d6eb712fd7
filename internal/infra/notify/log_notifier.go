package notify

import (
	"context"
	"log/slog"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// LogNotifier records notifications in the log. Used when no delivery
// backend is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs the notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify.log")}
}

// Notify implements faq.Notifier.
func (n *LogNotifier) Notify(ctx context.Context, note faq.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("doctor notified", "doctor_id", note.DoctorID, "question_id", note.QuestionID, "user_id", note.UserID)
	return nil
}

var _ faq.Notifier = (*LogNotifier)(nil)
