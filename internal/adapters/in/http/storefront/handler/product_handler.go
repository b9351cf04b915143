// internal/adapters/in/http/storefront/handler/product_handler.go
package storefrontHandler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	usecase "brihaspati/internal/application/usecase"
	productdom "brihaspati/internal/domain/product"
)

// maxProductLimit caps ?limit= on the listing.
const maxProductLimit = 50

// ProductHandler serves the catalog. It needs no session.
//
//	GET /products?featured=1&limit=
//	GET /products/search?q=
//	GET /products/{id}
type ProductHandler struct {
	uc  *usecase.CatalogUsecase
	log *zap.Logger
}

func NewProductHandler(uc *usecase.CatalogUsecase, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{uc: uc, log: log.Named("product_handler")}
}

type productsResponse struct {
	Products []productdom.Product `json:"products"`
}

func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil || !h.uc.Available() {
		notConfigured(w, "catalog")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	path := cleanPath(r.URL.Path)
	switch {
	case path == "/products":
		limit := parseIntDefault(q.Get("limit"), 0)
		if limit > maxProductLimit {
			limit = maxProductLimit
		}
		var (
			ps  []productdom.Product
			err error
		)
		if parseBool(q.Get("featured")) {
			ps, err = h.uc.Featured(ctx, limit)
		} else {
			ps, err = h.uc.List(ctx, limit)
		}
		h.writeList(w, ps, err)

	case path == "/products/search":
		ps, err := h.uc.Search(ctx, q.Get("q"))
		h.writeList(w, ps, err)

	case strings.HasPrefix(path, "/products/"):
		id := tail(path, "/products")
		if id == "" || strings.Contains(id, "/") {
			notFound(w)
			return
		}
		p, err := h.uc.Get(ctx, id)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		if p == nil {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		notFound(w)
	}
}

func (h *ProductHandler) writeList(w http.ResponseWriter, ps []productdom.Product, err error) {
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if ps == nil {
		ps = []productdom.Product{}
	}
	writeJSON(w, http.StatusOK, productsResponse{Products: ps})
}

func (h *ProductHandler) writeErr(w http.ResponseWriter, err error) {
	h.log.Warn("catalog read failed", zap.Error(err))
	if errors.Is(err, usecase.ErrCatalogMissing) {
		notConfigured(w, "catalog")
		return
	}
	writeJSON(w, statusOf(err), map[string]string{"error": "Failed to load products"})
}
