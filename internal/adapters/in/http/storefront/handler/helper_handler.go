// internal/adapters/in/http/storefront/handler/helper_handler.go
package storefrontHandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"brihaspati/internal/adapters/in/http/middleware"
	"brihaspati/internal/application/session"
	usecase "brihaspati/internal/application/usecase"
	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/cart"
	common "brihaspati/internal/domain/common"
	orderdom "brihaspati/internal/domain/order"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// reply is the envelope of every session-bound response. Session carries the
// refreshed view (cart, identity, prompt state, pending toasts) so the
// front-end never needs a second round trip.
type reply struct {
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Data    any           `json:"data,omitempty"`
	Session *session.View `json:"session,omitempty"`
}

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": strings.TrimSpace(msg)})
}

func notConfigured(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": what + "_not_configured"})
}

// respond replies 200 with the session view and an optional payload.
func respond(w http.ResponseWriter, sess *session.Session, msg string, data any) {
	v := sess.View()
	writeJSON(w, http.StatusOK, reply{Message: msg, Data: data, Session: &v})
}

// fail replies with the status for err and the shopper-facing text.
func fail(w http.ResponseWriter, sess *session.Session, err error) {
	rep := reply{Error: usecase.MessageOf(err)}
	if sess != nil {
		v := sess.View()
		rep.Session = &v
	}
	writeJSON(w, statusOf(err), rep)
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case common.IsValidation(err),
		errors.Is(err, cart.ErrInvalidLine),
		errors.Is(err, orderdom.ErrEmptyCart),
		errors.Is(err, orderdom.ErrOnlinePaymentUnavailable),
		errors.Is(err, usecase.ErrRedirectStateMismatch):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrNotConfigured),
		errors.Is(err, usecase.ErrOrderStoreMissing),
		errors.Is(err, usecase.ErrContactStoreMissing),
		errors.Is(err, usecase.ErrCatalogMissing),
		errors.Is(err, common.ErrOffline):
		return http.StatusServiceUnavailable
	}

	var ae *auth.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case auth.CodeNetworkUnavailable:
		return http.StatusServiceUnavailable
	case auth.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case auth.CodeAlreadyInUse:
		return http.StatusConflict
	case auth.CodeInvalidEmail, auth.CodeWeakSecret, auth.CodeEnvironmentUnsupported:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

// currentSession returns the request's Session or replies 503.
func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.CurrentSession(r)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session_not_attached"})
		return nil, false
	}
	return sess, true
}

func readJSON(r *http.Request, dst any) error {
	if dst == nil {
		return errors.New("dst is nil")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// cleanPath trims the trailing slash; "" becomes "/".
func cleanPath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

// tail returns what follows prefix+"/" in path, or "".
func tail(path, prefix string) string {
	rest, found := strings.CutPrefix(path, prefix+"/")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}
