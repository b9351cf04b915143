// internal/platform/di/shared/runtime_settings_validate.go
package shared

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate fails fast on values that would misbehave at runtime, while
// letting optional features stay disabled when their settings are empty.
func (s RuntimeSettings) Validate() error {
	for name, v := range map[string]string{
		"OrdersCollection":          s.OrdersCollection,
		"OrdersFallbackCollection":  s.OrdersFallbackCollection,
		"ContactCollection":         s.ContactCollection,
		"ContactFallbackCollection": s.ContactFallbackCollection,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("shared.runtime_settings: %s is empty", name)
		}
		if strings.Contains(v, "/") {
			return fmt.Errorf("shared.runtime_settings: %s must be a top-level collection (got %q)", name, v)
		}
	}
	if s.OrdersCollection == s.OrdersFallbackCollection {
		return fmt.Errorf("shared.runtime_settings: orders fallback collection equals the primary (%q)", s.OrdersCollection)
	}
	if s.ContactCollection == s.ContactFallbackCollection {
		return fmt.Errorf("shared.runtime_settings: contact fallback collection equals the primary (%q)", s.ContactCollection)
	}

	// ShopBaseURL is optional, but if set it must be an absolute http(s) URL.
	if u := s.ShopBaseURL; u != "" {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("shared.runtime_settings: ShopBaseURL must be an http(s) URL (got %q)", u)
		}
	}

	// GCS bucket names cannot contain whitespace.
	if strings.ContainsAny(s.ProductImageBucket, " \t\r\n") {
		return fmt.Errorf("shared.runtime_settings: ProductImageBucket contains whitespace (got %q)", s.ProductImageBucket)
	}

	if s.SessionIdleTimeout <= 0 {
		return fmt.Errorf("shared.runtime_settings: SessionIdleTimeout must be positive (got %s)", s.SessionIdleTimeout)
	}
	return nil
}
