// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	productdom "brihaspati/internal/domain/product"
)

// ProductLookup reads the canonical product when the catalog is available.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*productdom.Product, error)
}

// CartHandler serves the session cart.
//
//	GET    /cart
//	POST   /cart/items        {id,name,price,image}
//	PATCH  /cart/items/{id}   {delta}
//	DELETE /cart/items/{id}
//
// When a ProductLookup is wired, name, price and image of an added line come
// from the catalog and the client's values are ignored.
type CartHandler struct {
	products ProductLookup
	log      *zap.Logger
}

func NewCartHandler(products ProductLookup, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{products: products, log: log.Named("cart_handler")}
}

type addItemRequest struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, found := currentSession(w, r)
	if !found {
		return
	}

	path := cleanPath(r.URL.Path)
	switch {
	case path == "/cart":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		respond(w, sess, "", nil)

	case path == "/cart/items":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req addItemRequest
		if err := readJSON(r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" {
			badRequest(w, "id is required")
			return
		}
		if h.products != nil {
			p, err := h.products.GetByID(r.Context(), req.ID)
			if err != nil {
				h.log.Warn("product lookup failed, using client values", zap.String("productId", req.ID), zap.Error(err))
			} else if p == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
				return
			} else {
				req.Name, req.Price, req.Image = p.Name, p.Price, p.ImageRef
			}
		}
		if err := sess.AddToCart(req.ID, req.Price, req.Name, req.Image); err != nil {
			fail(w, sess, err)
			return
		}
		respond(w, sess, "", nil)

	case strings.HasPrefix(path, "/cart/items/"):
		id := tail(path, "/cart/items")
		if id == "" || strings.Contains(id, "/") {
			notFound(w)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var req changeQuantityRequest
			if err := readJSON(r, &req); err != nil {
				badRequest(w, "invalid json")
				return
			}
			if err := sess.ChangeQuantity(id, req.Delta); err != nil {
				fail(w, sess, err)
				return
			}
			respond(w, sess, "", nil)
		case http.MethodDelete:
			if err := sess.RemoveFromCart(id); err != nil {
				fail(w, sess, err)
				return
			}
			respond(w, sess, "", nil)
		default:
			methodNotAllowed(w)
		}

	default:
		notFound(w)
	}
}
