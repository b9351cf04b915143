// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	productdom "brihaspati/internal/domain/product"
)

// ProductRepositoryFS is a Firestore-based implementation of the catalog.
//
// Collection design:
// - collection: products
// - docId: product id
// - fields: name, description, category, price, image, featured, rank
type ProductRepositoryFS struct {
	Client *firestore.Client
}

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

// GetByID returns (nil, nil) if not found.
func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify("product_repository_fs: get products/"+id, err)
	}
	p := docToProduct(snap)
	return &p, nil
}

// QueryOrderedLimited runs where(featured == true) / orderBy / limit.
func (r *ProductRepositoryFS) QueryOrderedLimited(ctx context.Context, q productdom.Query) ([]productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	query := r.col().Query
	if q.FeaturedOnly {
		query = query.Where("featured", "==", true)
	}
	orderBy := strings.TrimSpace(q.OrderBy)
	if orderBy == "" {
		orderBy = "rank"
	}
	query = query.OrderBy(orderBy, firestore.Asc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	out := []productdom.Product{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("product_repository_fs: query products", err)
		}
		out = append(out, docToProduct(snap))
	}
	return out, nil
}

func docToProduct(snap *firestore.DocumentSnapshot) productdom.Product {
	data := snap.Data()
	id := strings.TrimSpace(asString(data["id"]))
	if id == "" {
		id = snap.Ref.ID
	}
	return productdom.Product{
		ID:          id,
		Name:        asString(data["name"]),
		Description: asString(data["description"]),
		Category:    asString(data["category"]),
		Price:       asFloat(data["price"]),
		ImageRef:    asString(data["image"]),
		Featured:    asBool(data["featured"]),
		Rank:        asInt(data["rank"]),
	}
}
