package httputils

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const ReqIDKey contextKey = "reqid"

// WithRequestID assigns a fresh request ID to every request so log lines
// from a single pipeline run can be correlated.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), ReqIDKey, reqID)

		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestID(r *http.Request) string {
	if reqID, ok := r.Context().Value(ReqIDKey).(string); ok {
		return reqID
	}
	return ""
}
