package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes recorded by the fan-out.
const (
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
)

// FAQ holds the counters exported by the question service. A nil *FAQ is a
// valid no-op recorder.
type FAQ struct {
	registry         *prometheus.Registry
	questionsCreated prometheus.Counter
	answersAppended  prometheus.Counter
	notifications    *prometheus.CounterVec
}

// NewFAQ registers the FAQ counters on a dedicated registry.
func NewFAQ() *FAQ {
	m := &FAQ{
		registry: prometheus.NewRegistry(),
		questionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faq_questions_created_total",
			Help: "Questions persisted by the FAQ service.",
		}),
		answersAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faq_answers_appended_total",
			Help: "Doctor answers appended to questions.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faq_notifications_total",
			Help: "Doctor notification attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.questionsCreated,
		m.answersAppended,
		m.notifications,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *FAQ) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// QuestionCreated counts one stored question.
func (m *FAQ) QuestionCreated() {
	if m == nil {
		return
	}
	m.questionsCreated.Inc()
}

// AnswerAppended counts one doctor answer added to a question.
func (m *FAQ) AnswerAppended() {
	if m == nil {
		return
	}
	m.answersAppended.Inc()
}

// Notification counts one fan-out attempt with the given result label.
func (m *FAQ) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}
