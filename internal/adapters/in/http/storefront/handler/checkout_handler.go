// internal/adapters/in/http/storefront/handler/checkout_handler.go
package storefrontHandler

import (
	"net/http"

	usecase "brihaspati/internal/application/usecase"
	orderdom "brihaspati/internal/domain/order"
)

// CheckoutHandler serves the checkout flow.
//
//	GET  /checkout   (proceed-to-checkout gate: cart not empty, signed in)
//	POST /checkout   {customerName,customerEmail,customerPhone,customerCity,deliveryAddress,paymentMethod}
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		notConfigured(w, "checkout")
		return
	}
	if cleanPath(r.URL.Path) != "/checkout" {
		notFound(w)
		return
	}
	sess, found := currentSession(w, r)
	if !found {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if err := h.uc.Begin(sess); err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", nil)

	case http.MethodPost:
		var form orderdom.Form
		if err := readJSON(r, &form); err != nil {
			badRequest(w, "invalid json")
			return
		}
		o, err := h.uc.PlaceOrder(r.Context(), sess, form)
		if err != nil {
			fail(w, sess, err)
			return
		}
		v := sess.View()
		writeJSON(w, http.StatusCreated, reply{Data: o, Session: &v})

	default:
		methodNotAllowed(w)
	}
}
