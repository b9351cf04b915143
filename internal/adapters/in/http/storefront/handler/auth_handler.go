// internal/adapters/in/http/storefront/handler/auth_handler.go
package storefrontHandler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	usecase "brihaspati/internal/application/usecase"
)

// AuthHandler serves sign-in, sign-up and sign-out.
//
//	POST /auth/signin               {email,password}
//	POST /auth/signup               {email,password,confirmPassword}
//	POST /auth/federated            {idToken} | {popupError}
//	GET  /auth/federated/redirect   (starts the redirect flow)
//	GET  /auth/federated/callback   ?state=&code=
//	POST /auth/signout
//	POST /auth/password-reset       {email}
type AuthHandler struct {
	uc *usecase.AuthUsecase

	// landing is where the browser is sent after the redirect callback.
	// Empty means the callback replies with JSON.
	landing string
	log     *zap.Logger
}

func NewAuthHandler(uc *usecase.AuthUsecase, landing string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{uc: uc, landing: strings.TrimSpace(landing), log: log.Named("auth_handler")}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		notConfigured(w, "auth")
		return
	}
	sess, found := currentSession(w, r)
	if !found {
		return
	}
	ctx := r.Context()

	path := cleanPath(r.URL.Path)
	wantMethod := http.MethodPost
	if path == "/auth/federated/redirect" || path == "/auth/federated/callback" {
		wantMethod = http.MethodGet
	}
	if r.Method != wantMethod {
		methodNotAllowed(w)
		return
	}

	switch path {
	case "/auth/signin":
		var req signInRequest
		if err := readJSON(r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		id, err := h.uc.SignIn(ctx, sess, req.Email, req.Password)
		if err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", id)

	case "/auth/signup":
		var req usecase.SignUpInput
		if err := readJSON(r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		id, err := h.uc.SignUp(ctx, sess, req)
		if err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", id)

	case "/auth/federated":
		var req usecase.PopupResult
		if err := readJSON(r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		out, err := h.uc.SignInFederated(ctx, sess, req)
		if err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", out)

	case "/auth/federated/redirect":
		url, err := h.uc.StartRedirect(sess)
		if err != nil {
			h.log.Warn("redirect sign-in unavailable", zap.Error(err))
			fail(w, sess, err)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)

	case "/auth/federated/callback":
		q := r.URL.Query()
		id, err := h.uc.CompleteRedirect(ctx, sess, q.Get("state"), q.Get("code"))
		if h.landing != "" {
			// the toast queued by the usecase is picked up by the next GET /session
			http.Redirect(w, r, h.landing, http.StatusFound)
			return
		}
		if err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", id)

	case "/auth/signout":
		if err := h.uc.SignOut(ctx, sess); err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", nil)

	case "/auth/password-reset":
		var req emailRequest
		if err := readJSON(r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		if err := h.uc.SendPasswordReset(ctx, sess, req.Email); err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", nil)

	default:
		notFound(w)
	}
}
