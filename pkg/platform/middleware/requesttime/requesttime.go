// Package requesttime pins one "now" per HTTP request. Services read it with
// requestcontext.Now, so a submission's timestamp and its log lines agree.
package requesttime

import (
	"net/http"
	"time"

	"survey-gateway/pkg/requestcontext"
)

// Middleware stores the request's arrival time, in UTC, in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
