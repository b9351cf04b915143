// internal/adapters/out/firestore/errors_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	common "brihaspati/internal/domain/common"
)

// classify wraps a Firestore error with the store-level class callers match
// on (common.ErrPermissionDenied / common.ErrOffline). Other errors are
// wrapped with op only.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%s: %w: %w", op, common.ErrPermissionDenied, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %w", op, common.ErrOffline, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrOffline, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
