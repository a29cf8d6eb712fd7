package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/doctor-faq/internal/domain/auth"
	"github.com/yanqian/doctor-faq/internal/domain/faq"
	"github.com/yanqian/doctor-faq/internal/infra/config"
	apperrors "github.com/yanqian/doctor-faq/pkg/errors"
	"github.com/yanqian/doctor-faq/pkg/metrics"
)

const testSecret = "router-test-secret"

func TestRouter_SaveSuccess(t *testing.T) {
	svc := &stubFAQService{
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			require.Equal(t, "Is ibuprofen safe?", req.Question)
			require.Equal(t, "u1", req.UserID)
			return faq.SaveResponse{
				Question:  faq.Question{ID: "q1", QuestionText: req.Question, AskingUserID: req.UserID},
				DoctorIDs: []string{"d1", "d2"},
			}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs", `{"question":"Is ibuprofen safe?","userId":"u1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeReport(t, rec)
	require.True(t, env.Success)
	require.Equal(t, http.StatusOK, env.StatusCode)
	require.Equal(t, "Faq", env.Activity)
	require.Equal(t, actionSave, env.Action)
	require.Equal(t, levelSuccess, env.Level)
	require.Equal(t, msgSaved, env.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "q1", data["_id"])
	require.Equal(t, []any{"d1", "d2"}, data["doctorIds"])
}

func TestRouter_SaveValidationFailure(t *testing.T) {
	svc := &stubFAQService{
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			return faq.SaveResponse{}, apperrors.WrapFields("invalid_input", "field validation failed", map[string]string{"question": "is required"})
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs", `{"userId":"u1"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decodeReport(t, rec)
	require.False(t, env.Success)
	require.Equal(t, levelFailure, env.Level)
	require.Equal(t, msgFieldValidation, env.Message)

	var detail map[string]string
	require.NoError(t, json.Unmarshal(env.Detail, &detail))
	require.Equal(t, map[string]string{"question": "is required"}, detail)
}

func TestRouter_SaveMalformedBody(t *testing.T) {
	svc := &stubFAQService{
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			t.Fatal("service must not be called")
			return faq.SaveResponse{}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs", `{"question":42}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, msgFieldValidation, decodeReport(t, rec).Message)
}

func TestRouter_SaveInternalError(t *testing.T) {
	svc := &stubFAQService{
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			return faq.SaveResponse{}, apperrors.Wrap("faq_error", "failed to save question", errors.New("connection reset"))
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs", `{"question":"q","userId":"u1"}`, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	env := decodeReport(t, rec)
	require.Equal(t, msgInternalServer, env.Message)
	var detail string
	require.NoError(t, json.Unmarshal(env.Detail, &detail))
	require.Contains(t, detail, "connection reset")
}

func TestRouter_ReplyRequiresToken(t *testing.T) {
	svc := &stubFAQService{
		replyFn: func(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error) {
			t.Fatal("service must not be called")
			return faq.ReplyResponse{}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/reply", `{"_id":"q1","doctorIds":"d1","answers":"rest"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, msgUnauthorized, decodeReport(t, rec).Message)

	rec = performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/reply", `{"_id":"q1","doctorIds":"d1","answers":"rest"}`, "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ReplyUsesTokenSubject(t *testing.T) {
	svc := &stubFAQService{
		replyFn: func(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error) {
			require.Equal(t, "q1", req.QuestionID)
			require.Equal(t, "d1", req.DoctorID)
			require.Equal(t, "rest", req.Answer)
			require.Equal(t, "u1", req.RequesterID)
			return faq.ReplyResponse{FaqID: "q1", Answers: []faq.Answer{{DoctorID: "d1", Answer: "rest"}}}, nil
		},
	}

	token := issueToken(t, "u1", auth.RolePatient)
	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/reply", `{"_id":"q1","doctorIds":"d1","answers":"rest"}`, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeReport(t, rec)
	require.Equal(t, msgReplySent, env.Message)
	var data faq.ReplyResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "q1", data.FaqID)
	require.Len(t, data.Answers, 1)
}

func TestRouter_ReplyAcceptsDoctorIDArray(t *testing.T) {
	svc := &stubFAQService{
		replyFn: func(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error) {
			require.Equal(t, "d1", req.DoctorID)
			return faq.ReplyResponse{FaqID: req.QuestionID, Answers: []faq.Answer{}}, nil
		},
	}

	token := issueToken(t, "u1", auth.RolePatient)
	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/reply", `{"_id":"q1","doctorIds":["d1"],"answers":"rest"}`, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, msgReplySent, decodeReport(t, rec).Message)
}

func TestRouter_ReplyNotFound(t *testing.T) {
	svc := &stubFAQService{
		replyFn: func(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error) {
			return faq.ReplyResponse{}, apperrors.Wrap("not_found", "Doctor not found", nil)
		},
	}

	token := issueToken(t, "d9", auth.RoleDoctor)
	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/reply", `{"_id":"q1","doctorIds":"d9","answers":"a"}`, "Bearer "+token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var detail string
	require.NoError(t, json.Unmarshal(decodeReport(t, rec).Detail, &detail))
	require.Equal(t, "Doctor not found", detail)
}

func TestRouter_GetMissingQuestion(t *testing.T) {
	svc := &stubFAQService{
		getFn: func(ctx context.Context, id string) (*faq.QuestionView, error) {
			require.Equal(t, "q404", id)
			return nil, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodGet, "/api/v1/faqs/single?_id=q404", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeReport(t, rec)
	require.True(t, env.Success)
	require.Equal(t, msgFetched, env.Message)
	require.Equal(t, "null", string(env.Data))
}

func TestRouter_FilterPassesPaging(t *testing.T) {
	svc := &stubFAQService{
		listFilteredFn: func(ctx context.Context, req faq.FilterRequest) (faq.FilterResponse, error) {
			require.Equal(t, faq.FilterRequest{LoginID: "u1", Page: 10, Limit: 5}, req)
			return faq.FilterResponse{List: []faq.QuestionView{{Question: faq.Question{ID: "q1"}}}, TotalCount: 11}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPost, "/api/v1/faqs/filter", `{"loginId":"u1","page":10,"limit":5}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data faq.FilterResponse
	require.NoError(t, json.Unmarshal(decodeReport(t, rec).Data, &data))
	require.EqualValues(t, 11, data.TotalCount)
	require.Len(t, data.List, 1)
}

func TestRouter_DeleteReturnsPreImage(t *testing.T) {
	modifiedOn := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubFAQService{
		deleteFn: func(ctx context.Context, req faq.DeleteRequest) (*faq.Question, error) {
			require.Equal(t, "q1", req.QuestionID)
			require.Equal(t, "staff-1", req.ModifiedBy)
			require.NotNil(t, req.ModifiedOn)
			require.True(t, modifiedOn.Equal(*req.ModifiedOn))
			return &faq.Question{ID: "q1", IsDeleted: false}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodPut, "/api/v1/faqs/delete", `{"_id":"q1","modifiedBy":"staff-1","modifiedOn":"2024-03-01T12:00:00Z"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeReport(t, rec)
	require.Equal(t, msgDeleted, env.Message)
	var data faq.Question
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "q1", data.ID)
	require.False(t, data.IsDeleted)
}

func TestRouter_ListAll(t *testing.T) {
	svc := &stubFAQService{
		listAllFn: func(ctx context.Context) ([]faq.QuestionView, error) {
			return []faq.QuestionView{{
				Question:        faq.Question{ID: "q1"},
				AskingUser:      &faq.UserRef{ID: "u1", Name: "Ann"},
				EligibleDoctors: []faq.DoctorRef{{ID: "d1", DoctorName: "Dr. Lee"}},
			}}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc), http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeReport(t, rec)
	require.Equal(t, levelListing, env.Level)
	var data []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 1)
	require.Equal(t, map[string]any{"_id": "u1", "name": "Ann"}, data[0]["user"])
}

func TestRouter_RateLimit(t *testing.T) {
	svc := &stubFAQService{}
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := newRouterWithConfig(t, svc, cfg)

	rec := performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, msgTooManyRequests, decodeReport(t, rec).Message)
}

func TestRouter_RetriesReadsOnly(t *testing.T) {
	var reads, writes atomic.Int32
	svc := &stubFAQService{
		listAllFn: func(ctx context.Context) ([]faq.QuestionView, error) {
			if reads.Add(1) == 1 {
				return nil, apperrors.Wrap("faq_error", "failed to list questions", errors.New("timeout"))
			}
			return []faq.QuestionView{}, nil
		},
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			writes.Add(1)
			return faq.SaveResponse{}, apperrors.Wrap("faq_error", "failed to save question", errors.New("timeout"))
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	server := newRouterWithConfig(t, svc, cfg)

	rec := performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, reads.Load())

	rec = performRequest(server, http.MethodPost, "/api/v1/faqs", `{"question":"q","userId":"u1"}`, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.EqualValues(t, 1, writes.Load())
}

func TestRouter_RetryDoesNotSpendRateTokens(t *testing.T) {
	var calls atomic.Int32
	svc := &stubFAQService{
		listAllFn: func(ctx context.Context) ([]faq.QuestionView, error) {
			if calls.Add(1) == 1 {
				return nil, apperrors.Wrap("faq_error", "failed to list questions", errors.New("timeout"))
			}
			return []faq.QuestionView{}, nil
		},
	}
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	server := newRouterWithConfig(t, svc, cfg)

	rec := performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, calls.Load())

	rec = performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.EqualValues(t, 2, calls.Load())
}

func TestRouter_MetricsAndHealth(t *testing.T) {
	server := newRouterUnderTest(t, &stubFAQService{})

	rec := performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "faq_questions_created_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.AllowedOrigins = []string{"https://clinic.example"}
	server := newRouterWithConfig(t, &stubFAQService{}, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/faqs/delete", nil)
	req.Header.Set("Origin", "https://clinic.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRouter_LogsEachRequestOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := &stubFAQService{
		saveFn: func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
			return faq.SaveResponse{}, apperrors.WrapFields("invalid_input", "field validation failed", map[string]string{"question": "is required"})
		},
	}
	cfg := testConfig()
	authSvc := auth.NewService(auth.Config{Secret: cfg.Auth.Secret, TokenTTL: cfg.Auth.TokenTTL}, newTestLogger())
	server := NewRouter(cfg, NewFAQHandler(svc, logger), authSvc, metrics.NewFAQ())

	rec := performRequest(server, http.MethodGet, "/api/v1/faqs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"http request"}, logMessages(t, &buf))

	buf.Reset()
	rec = performRequest(server, http.MethodPost, "/api/v1/faqs", `{"userId":"u1"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.ElementsMatch(t, []string{"request rejected", "http request"}, logMessages(t, &buf))
}

func logMessages(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var out []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry struct {
			Msg string `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry.Msg)
	}
	return out
}

type reportBody struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Activity   string          `json:"activity"`
	Action     string          `json:"action"`
	Level      string          `json:"level"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Detail     json.RawMessage `json:"detail"`
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) reportBody {
	t.Helper()
	var body reportBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, rec.Code, body.StatusCode)
	return body
}

func performRequest(server *http.Server, method, path, body, authorization string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth: config.AuthConfig{Secret: testSecret, TokenTTL: time.Hour},
	}
}

func newRouterUnderTest(t *testing.T, svc faq.Service) *http.Server {
	t.Helper()
	return newRouterWithConfig(t, svc, testConfig())
}

func newRouterWithConfig(t *testing.T, svc faq.Service, cfg *config.Config) *http.Server {
	t.Helper()
	handler := NewFAQHandler(svc, newTestLogger())
	authSvc := auth.NewService(auth.Config{Secret: cfg.Auth.Secret, TokenTTL: cfg.Auth.TokenTTL}, newTestLogger())
	return NewRouter(cfg, handler, authSvc, metrics.NewFAQ())
}

func issueToken(t *testing.T, userID, role string) string {
	t.Helper()
	svc := auth.NewService(auth.Config{Secret: testSecret, TokenTTL: time.Hour}, newTestLogger())
	token, err := svc.IssueToken(context.Background(), userID, role)
	require.NoError(t, err)
	return token
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubFAQService struct {
	saveFn         func(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error)
	replyFn        func(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error)
	getFn          func(ctx context.Context, id string) (*faq.QuestionView, error)
	listFilteredFn func(ctx context.Context, req faq.FilterRequest) (faq.FilterResponse, error)
	deleteFn       func(ctx context.Context, req faq.DeleteRequest) (*faq.Question, error)
	listAllFn      func(ctx context.Context) ([]faq.QuestionView, error)
}

func (s *stubFAQService) Save(ctx context.Context, req faq.SaveRequest) (faq.SaveResponse, error) {
	if s.saveFn != nil {
		return s.saveFn(ctx, req)
	}
	return faq.SaveResponse{}, nil
}

func (s *stubFAQService) Reply(ctx context.Context, req faq.ReplyRequest) (faq.ReplyResponse, error) {
	if s.replyFn != nil {
		return s.replyFn(ctx, req)
	}
	return faq.ReplyResponse{}, nil
}

func (s *stubFAQService) Get(ctx context.Context, id string) (*faq.QuestionView, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, nil
}

func (s *stubFAQService) ListFiltered(ctx context.Context, req faq.FilterRequest) (faq.FilterResponse, error) {
	if s.listFilteredFn != nil {
		return s.listFilteredFn(ctx, req)
	}
	return faq.FilterResponse{}, nil
}

func (s *stubFAQService) Delete(ctx context.Context, req faq.DeleteRequest) (*faq.Question, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, req)
	}
	return nil, nil
}

func (s *stubFAQService) ListAll(ctx context.Context) ([]faq.QuestionView, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return []faq.QuestionView{}, nil
}
