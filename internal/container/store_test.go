package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/memory"
	sqliteinfra "github.com/oksasatya/go-user-registry/internal/infrastructure/sqlite"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, &config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, store)

	store, err = OpenStore(ctx, &config.Config{StoreDriver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	require.IsType(t, &sqliteinfra.Store{}, store)
	require.NoError(t, store.Close())

	_, err = OpenStore(ctx, &config.Config{StoreDriver: "mongo"})
	require.Error(t, err)
}
