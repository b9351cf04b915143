// internal/platform/di/storefront/register.go
package storefront

import (
	"net/http"

	httpin "brihaspati/internal/adapters/in/http"
	"brihaspati/internal/adapters/in/http/middleware"
	sfhttp "brihaspati/internal/adapters/in/http/storefront"
	sfhandler "brihaspati/internal/adapters/in/http/storefront/handler"
)

// Handler builds the full storefront HTTP handler.
// Pure DI: construct handlers and pass them into the router.
func (c *Container) Handler() http.Handler {
	cfg := c.Infra.Config

	var products sfhandler.ProductLookup
	if c.Products != nil {
		products = c.Products
	}

	sessions := &middleware.SessionMiddleware{
		Sessions: c.Sessions,
		Secure:   cfg.SecureCookies,
		Log:      c.log,
	}

	return httpin.NewRouter(httpin.RouterDeps{
		Storefront: sfhttp.Deps{
			Session:     sfhandler.NewSessionHandler(),
			Cart:        sfhandler.NewCartHandler(products, c.log),
			Auth:        sfhandler.NewAuthHandler(c.AuthUC, landingURL(c.Infra.Settings.ShopBaseURL), c.log),
			Checkout:    sfhandler.NewCheckoutHandler(c.CheckoutUC),
			Contact:     sfhandler.NewContactHandler(c.ContactUC),
			Products:    sfhandler.NewProductHandler(c.CatalogUC, c.log),
			WithSession: sessions.Handler,
			Log:         c.log,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            c.log,
	})
}

// landingURL is where the redirect sign-in sends the browser back to.
func landingURL(base string) string {
	if base == "" {
		return ""
	}
	return base + "/"
}
