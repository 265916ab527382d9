//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		container.Terminate(ctx)
	}
	return client, cleanup
}

func TestRedisLocker_FailsFastWhileHeld(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	locker := NewRedisLocker(client, WithTTL(5*time.Second))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "orders:ORD-001")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "orders:ORD-001")
	require.ErrorIs(t, err, ports.ErrLockNotObtained)

	other, err := locker.Lock(ctx, "orders:ORD-002")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.Lock(ctx, "orders:ORD-001")
	require.NoError(t, err)
	again()
}
