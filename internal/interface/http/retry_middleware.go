package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/doctor-faq/internal/infra/config"
)

// replayKey marks a request re-issued by withRetry. Replays were already
// admitted by the rate limiter on their first attempt.
type replayKey struct{}

func isReplay(ctx context.Context) bool {
	_, ok := ctx.Value(replayKey{}).(int)
	return ok
}

// withRetry replays idempotent reads that fail with a server error. Writes are
// never replayed so a question or answer cannot be stored twice.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	exclusions := make(map[string]struct{}, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		exclusions[path] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := exclusions[r.URL.Path]; skip || r.Method != http.MethodGet {
			handler.ServeHTTP(w, r)
			return
		}

		var recorder *retryResponseRecorder
		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			if attempt > 1 && !sleepBackoff(r, cfg.BaseBackoff*time.Duration(1<<(attempt-2))) {
				break
			}

			recorder = newRetryResponseRecorder()
			ctx := r.Context()
			if attempt > 1 {
				ctx = context.WithValue(ctx, replayKey{}, attempt)
			}
			reqCopy := r.Clone(ctx)
			reqCopy.Body = http.NoBody
			handler.ServeHTTP(recorder, reqCopy)
			if !recorder.retryable() {
				break
			}
			if attempt < cfg.MaxAttempts {
				logger.Warn("transient failure, retrying request", "path", r.URL.Path, "status", recorder.statusCode, "attempt", attempt)
			}
		}
		recorder.commit(w)
	})
}

// sleepBackoff waits for delay unless the client goes away first.
func sleepBackoff(r *http.Request, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

type retryResponseRecorder struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRetryResponseRecorder() *retryResponseRecorder {
	return &retryResponseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *retryResponseRecorder) Header() http.Header {
	return r.header
}

func (r *retryResponseRecorder) WriteHeader(status int) {
	if r.wroteHead {
		return
	}
	r.statusCode = status
	r.wroteHead = true
}

func (r *retryResponseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHead {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *retryResponseRecorder) commit(dst http.ResponseWriter) {
	dstHeader := dst.Header()
	for k, values := range r.header {
		dstHeader[k] = append([]string(nil), values...)
	}
	dst.WriteHeader(r.statusCode)
	if r.body.Len() > 0 {
		_, _ = dst.Write(r.body.Bytes())
	}
}

func (r *retryResponseRecorder) retryable() bool {
	return r.statusCode >= http.StatusInternalServerError
}

func (r *retryResponseRecorder) Flush() {}
