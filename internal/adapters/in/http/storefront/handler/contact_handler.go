// internal/adapters/in/http/storefront/handler/contact_handler.go
package storefrontHandler

import (
	"net/http"

	usecase "brihaspati/internal/application/usecase"
	inquirydom "brihaspati/internal/domain/inquiry"
)

// ContactHandler serves POST /contact {name,email,message}.
type ContactHandler struct {
	uc *usecase.ContactUsecase
}

func NewContactHandler(uc *usecase.ContactUsecase) http.Handler {
	return &ContactHandler{uc: uc}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		notConfigured(w, "contact")
		return
	}
	if cleanPath(r.URL.Path) != "/contact" {
		notFound(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, found := currentSession(w, r)
	if !found {
		return
	}

	var form inquirydom.Form
	if err := readJSON(r, &form); err != nil {
		badRequest(w, "invalid json")
		return
	}
	m, err := h.uc.Submit(r.Context(), sess, form)
	if err != nil {
		fail(w, sess, err)
		return
	}
	v := sess.View()
	writeJSON(w, http.StatusCreated, reply{Data: map[string]string{"id": m.ID}, Session: &v})
}
