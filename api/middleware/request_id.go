package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns every request a correlation id, echoes it on the response,
// and seeds the context logger with it. A caller-supplied id is honored only
// when it is a well-formed UUID so log fields stay queryable.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
