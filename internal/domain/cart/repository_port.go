// internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"time"
)

// RemoteRecord is the per-identity cart document.
//   - collection: carts
//   - docId: identity uid
//   - fields: items (array of Line), updatedAt (server timestamp)
type RemoteRecord struct {
	Items     []Line    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RemoteRepository is the persistence port for RemoteRecord.
type RemoteRepository interface {
	// GetByUID returns (nil, nil) when no record exists for uid.
	// Failures are classified as common.ErrPermissionDenied / common.ErrOffline.
	GetByUID(ctx context.Context, uid string) (*RemoteRecord, error)

	// SaveItems replaces the items of the record and stamps updatedAt on the
	// server. The record is created when absent (merge upsert).
	SaveItems(ctx context.Context, uid string, items []Line) error
}

// LocalMirror is the browser-local durable copy of the cart: a single named
// slot that is always overwritten wholesale.
type LocalMirror interface {
	// LoadCart returns (lines, true, nil) when a snapshot exists.
	LoadCart() ([]Line, bool, error)
	SaveCart(lines []Line) error
}
