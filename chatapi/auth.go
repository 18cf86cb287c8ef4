package chatapi

import (
	"net/http"

	"github.com/effective-security/xlog"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the response time of unknown users close to that of
// known users with a wrong password.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// basicAuth verifies HTTP basic credentials against the configured
// bcrypt hashes. Authentication is disabled when no users are configured.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.users) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}

		hash, found := s.users[user]
		if !found {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pass))
			logger.ContextKV(r.Context(), xlog.WARNING, "status", "unknown_user", "user", user)
			unauthorized(w)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)); err != nil {
			logger.ContextKV(r.Context(), xlog.WARNING, "status", "invalid_password", "user", user)
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="abrachat"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
