package kvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"network20-backend/pkg/kvstore"
	redisclient "network20-backend/pkg/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the contract every driver must honour.
func exerciseStore(t *testing.T, s kvstore.Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "network20_profiles")
	require.NoError(t, err)
	assert.False(t, found, "missing keys are not errors")

	require.NoError(t, s.Set(ctx, "network20_profiles", `[{"id":"a"}]`))
	v, found, err := s.Get(ctx, "network20_profiles")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, s.Set(ctx, "network20_profiles", `[]`))
	v, _, err = s.Get(ctx, "network20_profiles")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "set overwrites")

	require.NoError(t, s.Set(ctx, "sb-abc-auth-token", "tok"))
	require.NoError(t, s.Remove(ctx, "network20_profiles"))
	_, found, err = s.Get(ctx, "network20_profiles")
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err = s.Get(ctx, "sb-abc-auth-token")
	require.NoError(t, err)
	assert.True(t, found, "remove only touches its key")
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Remove(ctx, "never-set"), "removing a missing key is fine")
}

func TestMemory(t *testing.T) {
	s := kvstore.NewMemory()
	exerciseStore(t, s)

	require.NoError(t, s.Close())
	_, _, err := s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, kvstore.ErrClosed)
}

func TestFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "device")
	s, err := kvstore.NewFile(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	t.Run("values survive reopening", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "network20_current_user", "local_1"))

		reopened, err := kvstore.NewFile(dir)
		require.NoError(t, err)
		v, found, err := reopened.Get(ctx, "network20_current_user")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "local_1", v)
	})

	t.Run("keys with path separators stay inside the directory", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "../escape", "x"))
		entries, err := os.ReadDir(filepath.Dir(dir))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "network20.db")
	s, err := kvstore.NewSQLite(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	reopened, err := kvstore.NewSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	v, found, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := redisclient.NewClient(context.Background(), redisclient.Config{URL: url})
	require.NoError(t, err)

	s := kvstore.NewRedis(client, "network20-test:"+t.Name()+":")
	defer s.Close()
	exerciseStore(t, s)
}
