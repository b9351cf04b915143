// internal/adapters/in/http/storefront/handler/session_handler.go
package storefrontHandler

import (
	"net/http"
)

// SessionHandler serves the session view and the login prompt.
//
//	GET    /session
//	POST   /session/login-prompt   (ask to show it; the gate may refuse)
//	DELETE /session/login-prompt   (shopper closed it)
type SessionHandler struct{}

func NewSessionHandler() http.Handler {
	return &SessionHandler{}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, found := currentSession(w, r)
	if !found {
		return
	}

	switch path := cleanPath(r.URL.Path); {
	case path == "/session":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		respond(w, sess, "", nil)

	case path == "/session/login-prompt":
		switch r.Method {
		case http.MethodPost:
			shown := sess.RequestLoginPrompt()
			respond(w, sess, "", map[string]bool{"shown": shown})
		case http.MethodDelete:
			sess.DismissLoginPrompt()
			respond(w, sess, "", nil)
		default:
			methodNotAllowed(w)
		}

	default:
		notFound(w)
	}
}
