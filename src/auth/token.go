package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
)

// TokenMiddleware guards routes with a static bearer token. An empty
// configured token disables the check, which keeps local development
// friction-free.
func TokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			presented := strings.TrimPrefix(header, "Bearer ")
			if header == presented ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.WithField("path", r.URL.Path).Warn("rejected request with bad api token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
