// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/coursedesk/internal/logger"
)

// RequestLog stores a request-scoped child of log in the context and writes
// one line per request once the handler returns.  Place it after
// chimw.RequestID so the ID is available.
func RequestLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With(
				"req_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"status", status,
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
			}
			switch {
			case status >= 500:
				reqLog.Errorw("request", fields...)
			case status >= 400:
				reqLog.Warnw("request", fields...)
			default:
				reqLog.Infow("request", fields...)
			}
		})
	}
}
