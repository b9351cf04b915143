// internal/domain/product/repository_port.go
package product

import "context"

// Query is an ordered, limited catalog read.
//   - FeaturedOnly: where featured == true
//   - OrderBy: field name (default "rank")
//   - Limit: 0 means no limit
type Query struct {
	FeaturedOnly bool
	OrderBy      string
	Limit        int
}

// Repository is the catalog read port.
type Repository interface {
	// GetByID returns (nil, nil) when the product does not exist.
	GetByID(ctx context.Context, id string) (*Product, error)
	QueryOrderedLimited(ctx context.Context, q Query) ([]Product, error)
}

// ImageURLResolver turns a stored image ref (URL, gs:// path or object path)
// into a URL the browser can load.
type ImageURLResolver interface {
	Resolve(ctx context.Context, ref string) string
}
