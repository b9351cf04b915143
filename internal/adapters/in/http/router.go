// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"go.uber.org/zap"

	"brihaspati/internal/adapters/in/http/middleware"
	"brihaspati/internal/adapters/in/http/storefront"
)

// RouterDeps collects what the storefront server is built from.
type RouterDeps struct {
	Storefront     storefront.Deps
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter sets up routing and the middleware chain:
// request log -> CORS -> recover -> mux.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", Healthz)

	if deps.Storefront.Log == nil {
		deps.Storefront.Log = log
	}
	storefront.Register(mux, deps.Storefront)

	return middleware.Chain(mux,
		middleware.RequestLog(log),
		middleware.CORS(deps.AllowedOrigins),
		middleware.Recover(log),
	)
}

// Healthz answers liveness probes.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
