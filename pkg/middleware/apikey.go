package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/render"
)

const apiKeyHeader = "x-api-key"

// APIKey returns a middleware enforcing a static API key on every request.
// CORS preflights pass through so the browser can negotiate before sending
// the key. An empty configured key disables the check.
func APIKey(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, map[string]string{"message": "forbidden: invalid api key"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
