// internal/platform/di/shared/runtime_settings.go
package shared

import (
	"errors"
	"os"
	"strings"
	"time"

	outfs "brihaspati/internal/adapters/out/firestore"
	appcfg "brihaspati/internal/infra/config"
)

const (
	defaultSweepInterval = time.Minute
	minSweepInterval     = 5 * time.Second
)

// RuntimeSettings is env/config-resolved runtime settings (normalized once).
// It contains only values, no external clients.
//
// Policy:
//   - config first, then the env fallbacks listed per field
//   - defaults keep a bare `storefront serve` working
//   - normalization (trim, trailing slash removal) here
//   - hard validation in runtime_settings_validate.go
type RuntimeSettings struct {
	// Where the redirect sign-in lands and what order mails link to.
	ShopBaseURL string

	// Firestore collections (primary + one-shot fallback)
	OrdersCollection          string
	OrdersFallbackCollection  string
	ContactCollection         string
	ContactFallbackCollection string

	// Product images
	ProductImageBucket string
	GCSSignerEmail     string

	// Sessions
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
}

// ResolveRuntimeSettings resolves and normalizes runtime settings from cfg/env.
// It logs nothing; warnings are returned for the caller to surface.
func ResolveRuntimeSettings(cfg *appcfg.Config) (RuntimeSettings, []string, error) {
	if cfg == nil {
		return RuntimeSettings{}, nil, errors.New("shared.runtime_settings: cfg is nil")
	}

	var warns []string
	var s RuntimeSettings

	s.ShopBaseURL = normalizeBaseURL(cfg.ShopBaseURL)
	if s.ShopBaseURL == "" {
		warns = append(warns, "SHOP_BASE_URL is empty (redirect sign-in answers with JSON)")
	}

	s.OrdersCollection = getenvOrDefault("ORDERS_COLLECTION", outfs.DefaultOrdersCollection)
	s.OrdersFallbackCollection = getenvOrDefault("ORDERS_FALLBACK_COLLECTION", outfs.FallbackOrdersCollection)
	s.ContactCollection = getenvOrDefault("CONTACT_COLLECTION", outfs.ContactMessagesCollection)
	s.ContactFallbackCollection = getenvOrDefault("CONTACT_FALLBACK_COLLECTION", outfs.MessagesCollection)

	s.ProductImageBucket = strings.TrimSpace(cfg.ProductImageBucket)
	s.GCSSignerEmail = strings.TrimSpace(cfg.GCSSignerEmail)
	if s.GCSSignerEmail != "" && s.ProductImageBucket == "" {
		warns = append(warns, "GCS_SIGNER_EMAIL is set without PRODUCT_IMAGE_BUCKET (only gs:// refs get signed)")
	}

	s.SessionIdleTimeout = cfg.SessionIdleTimeout
	s.SweepInterval = defaultSweepInterval
	if s.SessionIdleTimeout > 0 && s.SessionIdleTimeout/4 < s.SweepInterval {
		s.SweepInterval = max(s.SessionIdleTimeout/4, minSweepInterval)
	}

	return s, warns, nil
}

func getenvOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func normalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	return strings.TrimRight(u, "/")
}
