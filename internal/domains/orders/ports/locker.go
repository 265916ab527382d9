package ports

import (
	"context"
	"errors"
)

// ErrLockNotObtained is returned when another writer holds the key.
var ErrLockNotObtained = errors.New("order is locked by another request")

// Locker serializes mutations per key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
