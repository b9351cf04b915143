// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	productdom "brihaspati/internal/domain/product"
)

// DefaultFeaturedLimit is used when the caller does not ask for a size.
const DefaultFeaturedLimit = 8

var ErrCatalogMissing = errors.New("catalog: product repository is not configured")

// CatalogUsecase reads products and resolves their image refs to URLs the
// browser can load.
type CatalogUsecase struct {
	repo     productdom.Repository
	resolver productdom.ImageURLResolver
	log      *zap.Logger
}

func NewCatalogUsecase(repo productdom.Repository, resolver productdom.ImageURLResolver, log *zap.Logger) *CatalogUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogUsecase{repo: repo, resolver: resolver, log: log.Named("catalog_uc")}
}

// Featured returns featured products ordered by rank.
func (u *CatalogUsecase) Featured(ctx context.Context, limit int) ([]productdom.Product, error) {
	if u.repo == nil {
		return nil, ErrCatalogMissing
	}
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	ps, err := u.repo.QueryOrderedLimited(ctx, productdom.Query{FeaturedOnly: true, OrderBy: "rank", Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("catalog: featured: %w", err)
	}
	return u.withImages(ctx, ps), nil
}

// List returns the whole catalog ordered by rank, at most limit products
// (0 means all).
func (u *CatalogUsecase) List(ctx context.Context, limit int) ([]productdom.Product, error) {
	if u.repo == nil {
		return nil, ErrCatalogMissing
	}
	if limit < 0 {
		limit = 0
	}
	ps, err := u.repo.QueryOrderedLimited(ctx, productdom.Query{OrderBy: "rank", Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return u.withImages(ctx, ps), nil
}

// Search matches term against name, description and category
// (case-insensitive). A blank term returns the featured products.
func (u *CatalogUsecase) Search(ctx context.Context, term string) ([]productdom.Product, error) {
	if strings.TrimSpace(term) == "" {
		return u.Featured(ctx, 0)
	}
	if u.repo == nil {
		return nil, ErrCatalogMissing
	}
	all, err := u.repo.QueryOrderedLimited(ctx, productdom.Query{OrderBy: "rank"})
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	return u.withImages(ctx, productdom.Filter(all, term)), nil
}

// Get returns one product, or (nil, nil) when it does not exist.
func (u *CatalogUsecase) Get(ctx context.Context, id string) (*productdom.Product, error) {
	if u.repo == nil {
		return nil, ErrCatalogMissing
	}
	p, err := u.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil || p == nil {
		return nil, err
	}
	out := u.withImages(ctx, []productdom.Product{*p})
	return &out[0], nil
}

// Available reports whether a product repository is wired.
func (u *CatalogUsecase) Available() bool {
	return u != nil && u.repo != nil
}

func (u *CatalogUsecase) withImages(ctx context.Context, ps []productdom.Product) []productdom.Product {
	if u.resolver == nil {
		return ps
	}
	for i := range ps {
		if ps[i].ImageRef != "" {
			ps[i].ImageRef = u.resolver.Resolve(ctx, ps[i].ImageRef)
		}
	}
	return ps
}
