package db

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/model"
)

// Integration tests against a real PostgreSQL started by testcontainers-go.
//
//	GO_TEST_INTEGRATION=1 go test ./internal/db -run Postgres -v -count=1
func startPostgres(t *testing.T) *Postgres {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := NewPostgresPool(ctx, config.PostgresConfig{
		DatabaseURL: fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	pg := NewPostgres(pool)
	require.NoError(t, pg.Migrate(ctx))
	return pg
}

func TestPostgresUsers(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	john := newUser("John", "john@x.com", model.RoleUser)
	require.NoError(t, pg.CreateUser(ctx, john))
	require.False(t, john.CreatedAt.IsZero())
	require.NoError(t, pg.CreateUser(ctx, newUser("Ann", "ann@jolly.com", model.RoleUser)))
	require.NoError(t, pg.CreateUser(ctx, newUser("Bob", "bob@x.com", model.RoleUser)))
	require.NoError(t, pg.CreateUser(ctx, newUser("Jo", "jo@admin.com", model.RoleAdmin)))

	require.ErrorIs(t, pg.CreateUser(ctx, newUser("Other", "john@x.com", model.RoleUser)), ErrDuplicateEmail)

	got, err := pg.GetUserByEmail(ctx, "john@x.com")
	require.NoError(t, err)
	require.Equal(t, john.ID, got.ID)
	require.Equal(t, model.RoleUser, got.Role)

	_, err = pg.GetUserByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	users, err := pg.ListUsers(ctx, model.RoleUser, "JO")
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = pg.ListUsers(ctx, model.RoleUser, "%")
	require.NoError(t, err)
	require.Empty(t, users)

	john.Name = "Johnny"
	require.NoError(t, pg.UpdateUser(ctx, john))
	john.Email = "bob@x.com"
	require.ErrorIs(t, pg.UpdateUser(ctx, john), ErrDuplicateEmail)

	require.NoError(t, pg.DeleteUser(ctx, john.ID, model.RoleUser))
	require.ErrorIs(t, pg.DeleteUser(ctx, john.ID, model.RoleUser), ErrNotFound)
}

func TestPostgresConcurrentCreateSameEmail(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pg.CreateUser(ctx, newUser("dup", "dup@x.com", model.RoleUser))
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicateEmail)
	}
	require.Equal(t, 1, ok)
}

func TestPostgresSessions(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	user := newUser("User", "user@x.com", model.RoleUser)
	require.NoError(t, pg.CreateUser(ctx, user))

	session := &model.Session{ID: uuid.New(), UserID: user.ID, Role: model.RoleUser, RefreshHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, pg.CreateSession(ctx, session))

	require.NoError(t, pg.RotateSession(ctx, session.ID, "h1", "h2", time.Now().Add(2*time.Hour)))
	require.ErrorIs(t, pg.RotateSession(ctx, session.ID, "h1", "h3", time.Now().Add(2*time.Hour)), ErrNotFound)

	require.NoError(t, pg.RevokeSession(ctx, session.ID))
	got, err := pg.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.Equal(t, "h2", got.RefreshHash)

	require.NoError(t, pg.DeleteUser(ctx, user.ID, model.RoleUser))
	_, err = pg.GetSession(ctx, session.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
