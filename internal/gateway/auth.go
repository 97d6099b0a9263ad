package gateway

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/functionland/fula-gateway/internal/gwerror"
)

type sessionKeyType struct{}

var sessionKey sessionKeyType

// sessionFromContext returns the Session a previous authMiddleware
// call attached to r's context. Handlers call this, never build a
// Session themselves.
func sessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}

// authMiddleware implements two operating modes. When no bearer secret
// is configured every request authenticates as the local device;
// otherwise every request must carry a matching Authorization header,
// compared in constant time so that the match time does not depend on
// the position of the first mismatching byte.
func (s *State) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Config.BearerSecret == "" {
			ctx := context.WithValue(r.Context(), sessionKey, s.unpairedSession())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, r, gwerror.New(gwerror.AccessDenied, "missing bearer token"))
			return
		}
		token := header[len(prefix):]

		if !constantTimeEqual(token, s.Config.BearerSecret) {
			writeError(w, r, gwerror.New(gwerror.AccessDenied, "invalid bearer token"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, s.pairedSession())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// unpairedSession returns the fixed local-device identity.
func (s *State) unpairedSession() Session {
	return localDeviceSession()
}

// pairedSession returns a session scoped to the configured owner id,
// falling back to the local device identity when none was configured.
func (s *State) pairedSession() Session {
	if s.Config.OwnerID != "" {
		return Session{HashedUserID: s.Config.OwnerID, DisplayName: "Local Device"}
	}
	return localDeviceSession()
}

// constantTimeEqual reports whether a and b are equal without letting
// comparison time leak the position of the first differing byte. A
// length mismatch short-circuits before the xor-fold.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
