// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ClientWrapper holds the Firestore client with the project it talks to.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient creates the Firestore client. With FIRESTORE_EMULATOR_HOST set
// the client library connects to the emulator on its own.
func NewClient(ctx context.Context, projectID string, log *zap.Logger, opts ...option.ClientOption) (*ClientWrapper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestoreinfra: create client (project=%s): %w", projectID, err)
	}

	fields := []zap.Field{zap.String("project", projectID)}
	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		fields = append(fields, zap.String("emulator", host))
	}
	log.Named("firestore").Info("Firestore connected", fields...)
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Close closes the Firestore client.
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
