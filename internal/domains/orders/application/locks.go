package application

import (
	"context"
	"sync"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// LocalLocker is an in-process Locker. A key held by another request fails
// immediately with ports.ErrLockNotObtained.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]struct{}{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ports.ErrLockNotObtained
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

var _ ports.Locker = (*LocalLocker)(nil)

func orderLockKey(id string) string {
	return "orders:" + id
}
