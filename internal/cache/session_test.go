package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/userhub/backend/internal/model"
)

func startRedis(t *testing.T) SessionCache {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	sc, err := NewRedisSessionCache(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Close() })
	return sc
}

func TestRedisSessionCacheRoundTripAndRevoke(t *testing.T) {
	sc := startRedis(t)
	ctx := context.Background()

	session := &model.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Role:      model.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}

	_, ok, err := sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sc.Set(ctx, session))
	got, ok, err := sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, session.UserID, got.UserID)
	require.Equal(t, model.RoleAdmin, got.Role)
	require.True(t, got.Active(time.Now()))

	require.NoError(t, sc.MarkRevoked(ctx, session.ID, time.Hour))
	got, ok, err = sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Active(time.Now()))

	// A stale snapshot written after the revoke must not bring it back.
	require.NoError(t, sc.Set(ctx, session))
	got, ok, err = sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Active(time.Now()))
}

func TestRedisSessionCacheRevokeBeforeFirstSet(t *testing.T) {
	sc := startRedis(t)
	ctx := context.Background()

	session := &model.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Role:      model.RoleUser,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, sc.MarkRevoked(ctx, session.ID, time.Hour))
	got, ok, err := sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Active(time.Now()))

	require.NoError(t, sc.Set(ctx, session))
	got, ok, err = sc.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Active(time.Now()))
}
