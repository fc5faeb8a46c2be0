package sessionctx

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err(), "failed to ping miniredis")

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedisStore(client, "", ttl, nil), mr
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing context reads as not found", func(t *testing.T) {
		value, ok, err := store.Get(ctx, "nobody", KeySessionID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)

		exists, err := store.Exists(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "tab-1", KeySessionID, "s1"))

		value, ok, err := store.Get(ctx, "tab-1", KeySessionID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "s1", value)

		exists, err := store.Exists(ctx, "tab-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("contexts are isolated", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "tab-2", KeySessionID, "s2"))

		value, _, err := store.Get(ctx, "tab-1", KeySessionID)
		require.NoError(t, err)
		assert.Equal(t, "s1", value)
	})

	t.Run("last writer wins", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "tab-1", KeySessionID, "s1b"))

		value, _, err := store.Get(ctx, "tab-1", KeySessionID)
		require.NoError(t, err)
		assert.Equal(t, "s1b", value)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, "tab-1"))
		require.NoError(t, store.Clear(ctx, "tab-1"), "clearing twice is not an error")

		_, ok, err := store.Get(ctx, "tab-1", KeySessionID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "context.json"), nil))
}

func TestRedisStore(t *testing.T) {
	store, _ := newMiniredisStore(t, 0)
	storeContract(t, store)
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	ctx := context.Background()
	basePath := filepath.Join(t.TempDir(), "nested", "context.json")

	first := NewFileStore(basePath, nil)
	require.NoError(t, first.Set(ctx, "tab-1", KeySessionID, "s1"))

	info, err := os.Stat(first.GetFilePath("tab-1"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := NewFileStore(basePath, nil)
	value, ok, err := second.Get(ctx, "tab-1", KeySessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s1", value)
}

func TestFileStore_CorruptedFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "context.json"), nil)
	require.NoError(t, os.WriteFile(store.GetFilePath("tab-1"), []byte("{not json"), 0600))

	_, _, err := store.Get(context.Background(), "tab-1", KeySessionID)
	assert.Error(t, err)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := NewFileStore("", nil)
	assert.Equal(t, filepath.Join(os.TempDir(), "idptest", "context.json"), store.BasePath())
	assert.NotEqual(t, store.GetFilePath("a"), store.GetFilePath("b"))
	assert.Equal(t, store.BasePath(), store.GetFilePath(""))
}

func TestFileStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "context.json"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "tab-1", KeySessionID, "s1"))
			_, _, err := store.Get(ctx, "tab-1", KeySessionID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, time.Minute)

	require.NoError(t, store.Set(ctx, "tab-1", KeySessionID, "s1"))
	assert.Equal(t, time.Minute, mr.TTL("idptest:ctx:tab-1"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "tab-1", KeySessionID)
	require.NoError(t, err)
	assert.False(t, ok, "context should expire with its TTL")
}

func TestRedisStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, 0)
	mr.Close()

	_, _, err := store.Get(ctx, "tab-1", KeySessionID)
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "tab-1", KeySessionID, "s1"))
}

func TestSaveAndLoadSession(t *testing.T) {
	ctx := context.Background()
	storage := Bind(NewMemoryStore(), NewContextID())

	_, ok, err := LoadSession(ctx, storage)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Session{SessionID: "s1", IdpID: "abc", TenantDomain: "carbon.super"}
	require.NoError(t, SaveSession(ctx, storage, want))

	got, ok, err := LoadSession(ctx, storage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	for key, value := range map[string]string{
		KeySessionID:    "s1",
		KeyIdpID:        "abc",
		KeyTenantDomain: "carbon.super",
	} {
		stored, ok, err := storage.GetItem(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
		assert.Equal(t, value, stored, key)
	}

	require.NoError(t, storage.Clear(ctx))
	_, ok, err = LoadSession(ctx, storage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewContextID_Unique(t *testing.T) {
	assert.NotEqual(t, NewContextID(), NewContextID())
}

func TestOpener(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "parent", KeySessionID, "s1"))

	t.Run("reachable opener", func(t *testing.T) {
		opener := NewOpener(store, "parent")
		assert.False(t, opener.Closed(ctx))

		value, ok, err := opener.GetItem(ctx, KeySessionID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "s1", value)
	})

	t.Run("no opener configured", func(t *testing.T) {
		opener := NewOpener(store, "")
		assert.True(t, opener.Closed(ctx))
		_, _, err := opener.GetItem(ctx, KeySessionID)
		assert.Error(t, err)
	})

	t.Run("opener without state", func(t *testing.T) {
		assert.True(t, NewOpener(store, "gone").Closed(ctx))
	})

	t.Run("nil opener", func(t *testing.T) {
		var opener *Opener
		assert.True(t, opener.Closed(ctx))
	})

	t.Run("unreachable store", func(t *testing.T) {
		redisStore, mr := newMiniredisStore(t, 0)
		require.NoError(t, redisStore.Set(ctx, "parent", KeySessionID, "s1"))
		mr.Close()

		assert.True(t, NewOpener(redisStore, "parent").Closed(ctx))
	})
}
