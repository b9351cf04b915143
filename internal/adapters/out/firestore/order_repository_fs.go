// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	orderdom "brihaspati/internal/domain/order"
)

// DefaultOrdersCollection is where the storefront writes orders.
// FallbackOrdersCollection takes the write once when the primary fails.
const (
	DefaultOrdersCollection  = "orders"
	FallbackOrdersCollection = "orders_fallback"
)

// OrderRepositoryFS implements order.Repository using Firestore.
// Orders are append-only: the document id is generated by Firestore.
type OrderRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewOrderRepositoryFS(client *firestore.Client, collection string) *OrderRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultOrdersCollection
	}
	return &OrderRepositoryFS{Client: client, Collection: collection}
}

func (r *OrderRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// Add stores o and returns the generated id.
func (r *OrderRepositoryFS) Add(ctx context.Context, o orderdom.Order) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("order_repository_fs: firestore client is nil")
	}

	ref, _, err := r.col().Add(ctx, orderToDoc(o))
	if err != nil {
		return "", classify("order_repository_fs: add "+r.Collection, err)
	}
	return ref.ID, nil
}

func orderToDoc(o orderdom.Order) map[string]any {
	var userID any
	if o.UserID != "" {
		userID = o.UserID
	}
	return map[string]any{
		"customerName":          o.CustomerName,
		"customerEmail":         o.CustomerEmail,
		"customerPhone":         o.CustomerPhone,
		"customerCity":          o.CustomerCity,
		"deliveryAddress":       o.DeliveryAddress,
		"paymentMethod":         string(o.PaymentMethod),
		"items":                 linesToDocs(o.Items),
		"total":                 o.Total,
		"orderDate":             o.OrderDate,
		"estimatedDeliveryDate": o.EstimatedDeliveryDate,
		"status":                string(o.Status),
		"timestamp":             firestore.ServerTimestamp,
		"userId":                userID,
	}
}
