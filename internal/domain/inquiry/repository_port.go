// internal/domain/inquiry/repository_port.go
package inquiry

import "context"

// Repository stores contact messages. Add returns the generated id.
type Repository interface {
	Add(ctx context.Context, m ContactMessage) (string, error)
}
