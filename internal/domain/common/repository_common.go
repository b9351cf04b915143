// internal/domain/common/repository_common.go
package common

import (
	"errors"
	"time"
)

// Store-level failure classes shared by every remote repository.
// Adapters wrap the underlying driver error so callers can match with errors.Is.
var (
	ErrPermissionDenied = errors.New("store: permission denied")
	ErrOffline          = errors.New("store: offline")
	ErrNotConfigured    = errors.New("store: not configured")
)

// IsTransient reports whether err is worth retrying against the same store.
func IsTransient(err error) bool {
	return errors.Is(err, ErrOffline)
}

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
