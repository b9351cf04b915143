// internal/domain/order/repository_port.go
package order

import "context"

// Repository stores placed orders. Add returns the generated id.
type Repository interface {
	Add(ctx context.Context, o Order) (string, error)
}
