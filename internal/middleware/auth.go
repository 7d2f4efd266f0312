package middleware

import (
	"net/http"

	"github.com/affeed/affeed/internal/ctxkeys"
	"github.com/affeed/affeed/internal/service"
)

// SessionMiddleware resolves the session cookie and, when valid, puts the
// active identity and session id on the request context.
func SessionMiddleware(sessionService *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				// No cookie, continue without a session
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessionService.VerifyJWT(cookie.Value)
			if err != nil {
				sessionService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			sessionID, ok := claims["session_id"].(string)
			if !ok {
				sessionService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// The token may outlive the in-memory session (restart,
			// expiry eviction); treat that as logged out.
			sess, err := sessionService.Session(sessionID)
			if err != nil {
				sessionService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessionService.UserByID(sess.UserID)
			if err != nil {
				sessionService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithSessionID(ctx, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession ensures an identity has been selected
func RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil || ctxkeys.SessionID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"select a user first"}`))
			return
		}

		next.ServeHTTP(w, r)
	}
}
