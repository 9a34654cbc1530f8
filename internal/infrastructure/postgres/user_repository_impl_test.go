package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// Runs against a live database only when POSTGRES_TEST_DSN is set.
func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	require.NoError(t, RunMigrations(dsn, filepath.Join("..", "..", "..", "db", "migrations"), logger))

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)
	repo := NewUserRepository(pool)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, entity.UserRecord{
		ID: "alice", Name: "Alice", Email: "alice@example.com", CreatedAt: created, Customers: []string{"acme"},
	}))
	require.NoError(t, repo.Save(ctx, entity.UserRecord{
		ID: "bob", Name: "Bob", Email: "bob@example.com", CreatedAt: created,
	}))
	require.NoError(t, repo.Save(ctx, entity.UserRecord{
		ID: "alice", Name: "Alice Liddell", Email: "alice@example.com", CreatedAt: created, Customers: []string{"acme"},
	}))

	recs, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "alice", recs[0].ID)
	require.Equal(t, "Alice Liddell", recs[0].Name)
	require.Equal(t, created, recs[0].CreatedAt)
	require.Equal(t, []string{"acme"}, recs[0].Customers)
	require.Equal(t, []string{}, recs[1].Customers)
}
