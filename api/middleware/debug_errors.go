package middleware

import (
	"net/http"

	"github.com/angelmondragon/orderportal-backend/api/responses"
)

// DebugErrors exposes the raw error chain in error envelopes. Only mounted in dev.
func DebugErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(responses.WithDebugErrors(r.Context())))
	})
}
