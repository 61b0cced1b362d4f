package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout caps how long a request may run. The cutoff body uses the same
// envelope the handlers write, so a client parses a timeout like any
// other failure.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	const body = `{"success":false,"error":{"code":"TIMEOUT","message":"request exceeded the processing deadline"}}`

	return func(next http.Handler) http.Handler {
		cutoff := http.TimeoutHandler(next, limit, body)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The handler context gets the same deadline, so in-flight
			// gateway and database calls stop when the response does.
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			cutoff.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
