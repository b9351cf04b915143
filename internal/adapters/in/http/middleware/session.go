// internal/adapters/in/http/middleware/session.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"brihaspati/internal/application/session"
)

// SessionCookieName is the cookie carrying the browser session id.
const SessionCookieName = "brihaspati_session-id"

// sessionCookieMaxAge keeps the id across browser restarts, like the
// browser-local cart it stands for.
const sessionCookieMaxAge = 30 * 24 * time.Hour

type ctxKeySessionType struct{}

var ctxKeySession = ctxKeySessionType{}

// SessionGetter returns the storefront session for an id.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// SessionMiddleware attaches the shopper's Session to the request context,
// issuing a fresh session id cookie when the request has none (or a forged
// one).
type SessionMiddleware struct {
	Sessions SessionGetter
	Secure   bool
	Log      *zap.Logger
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if m == nil || m.Sessions == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "session_manager_not_initialized")
			return
		}

		id := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
		if !session.ValidID(id) {
			id = session.NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge / time.Second),
				HttpOnly: true,
				Secure:   m.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess, err := m.Sessions.Get(r.Context(), id)
		if err != nil {
			if m.Log != nil {
				m.Log.Error("session unavailable", zap.String("session", id), zap.Error(err))
			}
			writeJSONError(w, http.StatusServiceUnavailable, "session_unavailable")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySession, sess)))
	})
}

// CurrentSession returns the Session attached by SessionMiddleware.
func CurrentSession(r *http.Request) (*session.Session, bool) {
	sess, ok := r.Context().Value(ctxKeySession).(*session.Session)
	return sess, ok && sess != nil
}

// WithSession attaches sess to ctx the way SessionMiddleware does.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
