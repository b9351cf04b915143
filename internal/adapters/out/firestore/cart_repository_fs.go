// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	cartdom "brihaspati/internal/domain/cart"
)

// CartRepositoryFS implements cart.RemoteRepository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: identity uid (docId is the source of truth)
// - fields: items(array of {id,name,price,image,quantity}), updatedAt(server timestamp)
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// GetByUID returns (nil, nil) if not found (nil policy) or when the document
// carries no items array.
func (r *CartRepositoryFS) GetByUID(ctx context.Context, uid string) (*cartdom.RemoteRecord, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}
	id := strings.TrimSpace(uid)
	if id == "" {
		return nil, errors.New("cart_repository_fs: uid is empty")
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify("cart_repository_fs: get carts/"+id, err)
	}

	return cartRecordFromDoc(snap.Data(), snap.UpdateTime), nil
}

// cartRecordFromDoc parses a carts/{uid} document by hand: carts are also
// written by the browser client, so number types and missing fields vary.
// A document without an items array is treated as no record, so the caller
// keeps its local cart.
func cartRecordFromDoc(data map[string]any, updateTime time.Time) *cartdom.RemoteRecord {
	if _, ok := data["items"].([]any); !ok {
		return nil
	}
	rec := &cartdom.RemoteRecord{Items: asLines(data["items"])}
	if t, ok := asTime(data["updatedAt"]); ok {
		rec.UpdatedAt = t
	} else {
		rec.UpdatedAt = updateTime
	}
	return rec
}

// SaveItems replaces items and stamps updatedAt with the server time.
// Merge keeps any other fields on the document.
func (r *CartRepositoryFS) SaveItems(ctx context.Context, uid string, items []cartdom.Line) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	id := strings.TrimSpace(uid)
	if id == "" {
		return errors.New("cart_repository_fs: uid is empty")
	}

	_, err := r.col().Doc(id).Set(ctx, map[string]any{
		"items":     linesToDocs(items),
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	return classify("cart_repository_fs: set carts/"+id, err)
}
