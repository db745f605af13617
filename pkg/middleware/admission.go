package middleware

import (
	"context"
	"net/http"

	apperrors "bookline/pkg/errors"
	"bookline/pkg/httputil"
	"bookline/pkg/logger"
)

// TokenConsumer is the admission side of the rate bucket.
type TokenConsumer interface {
	Consume(ctx context.Context) (bool, error)
}

// Admission gates every request on an instance-wide token pool. When the
// counter store is unreachable the request is refused rather than admitted:
// the same store backs the booking path, so admitting traffic it cannot
// serve only moves the failure downstream.
func Admission(bucket TokenConsumer, retryAfterSeconds int, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := bucket.Consume(r.Context())
			if err != nil {
				log.Error("Admission check failed",
					"request_id", requestIDFrom(r),
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteError(w, apperrors.Unavailable("Booking service"))
				return
			}

			if !allowed {
				log.Warn("Request rejected, admission bucket drained",
					"request_id", requestIDFrom(r),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, apperrors.TooManyRequests("Too many requests", retryAfterSeconds))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
