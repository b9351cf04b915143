// internal/adapters/in/http/storefront/router.go
package storefront

import (
	"net/http"

	"go.uber.org/zap"
)

// Deps is the shopper-facing handler set.
type Deps struct {
	Session  http.Handler
	Cart     http.Handler
	Auth     http.Handler
	Checkout http.Handler
	Contact  http.Handler
	Products http.Handler

	// WithSession attaches the shopper's session; wraps every handler but
	// Products.
	WithSession func(http.Handler) http.Handler

	Log *zap.Logger
}

// handleSafe registers pattern with h.
// A nil handler is logged and served as NotFound so a partial wiring still boots.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string, log *zap.Logger) {
	if h == nil {
		log.Warn("nil handler, registering NotFoundHandler", zap.String("handler", name), zap.String("pattern", pattern))
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// Register registers the storefront routes onto mux.
func Register(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("storefront.router")

	withSession := func(h http.Handler) http.Handler {
		if h == nil || deps.WithSession == nil {
			return h
		}
		return deps.WithSession(h)
	}

	// session view / login prompt
	handleSafe(mux, "/session", withSession(deps.Session), "Session", log)
	handleSafe(mux, "/session/", withSession(deps.Session), "Session", log)

	// cart
	handleSafe(mux, "/cart", withSession(deps.Cart), "Cart", log)
	handleSafe(mux, "/cart/", withSession(deps.Cart), "Cart", log)

	// auth
	handleSafe(mux, "/auth/", withSession(deps.Auth), "Auth", log)

	// checkout / contact
	handleSafe(mux, "/checkout", withSession(deps.Checkout), "Checkout", log)
	handleSafe(mux, "/contact", withSession(deps.Contact), "Contact", log)

	// catalog (no session)
	handleSafe(mux, "/products", deps.Products, "Products", log)
	handleSafe(mux, "/products/", deps.Products, "Products", log)
}
