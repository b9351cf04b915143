// internal/adapters/out/firestore/inquiry_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	inquirydom "brihaspati/internal/domain/inquiry"
)

const (
	ContactMessagesCollection = "contactMessages"
	MessagesCollection        = "messages"
)

// InquiryRepositoryFS implements inquiry.Repository using Firestore.
// The same type serves the primary (contactMessages) and fallback
// (messages) collections.
type InquiryRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewInquiryRepositoryFS(client *firestore.Client, collection string) *InquiryRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = ContactMessagesCollection
	}
	return &InquiryRepositoryFS{Client: client, Collection: collection}
}

func (r *InquiryRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

func (r *InquiryRepositoryFS) Add(ctx context.Context, m inquirydom.ContactMessage) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("inquiry_repository_fs: firestore client is nil")
	}

	var userID any
	if m.UserID != "" {
		userID = m.UserID
	}
	ref, _, err := r.col().Add(ctx, map[string]any{
		"name":      m.Name,
		"email":     m.Email,
		"message":   m.Message,
		"status":    string(m.Status),
		"userId":    userID,
		"createdAt": m.CreatedAt,
		"timestamp": firestore.ServerTimestamp,
	})
	if err != nil {
		return "", classify("inquiry_repository_fs: add "+r.Collection, err)
	}
	return ref.ID, nil
}
