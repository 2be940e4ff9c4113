package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sqliteStore, err := OpenSQLiteInMemory()
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close() //nolint:errcheck
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "@settings")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "@settings", []byte(`{"a":1}`)))
			got, err := store.Get(ctx, "@settings")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			require.NoError(t, store.Set(ctx, "@settings", []byte(`{"a":2}`)))
			got, err = store.Get(ctx, "@settings")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))

			require.NoError(t, store.Delete(ctx, "@settings"))
			_, err = store.Get(ctx, "@settings")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Delete(ctx, "@settings"))
		})
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "  ")
			require.ErrorIs(t, err, ErrInvalidKey)
			require.ErrorIs(t, store.Set(ctx, "", []byte("x")), ErrInvalidKey)
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("hello")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'j'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "@settings", []byte(`{}`)))

	_, err = os.Stat(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.ErrorIs(t, store.Set(ctx, "../escape", []byte(`{}`)), ErrInvalidKey)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "herodex.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "@users", []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "@users")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("file", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open("sqlite", dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
	_, err = os.Stat(filepath.Join(dir, "herodex.db"))
	require.NoError(t, err)

	s, err = Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("redis", dir)
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestFileStoreKeepsPrefixedAndBareKeysApart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "@settings", []byte(`{"from":"prefixed"}`)))
	require.NoError(t, store.Set(ctx, "settings", []byte(`{"from":"bare"}`)))

	got, err := store.Get(ctx, "@settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"prefixed"}`, string(got))

	got, err = store.Get(ctx, "settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"bare"}`, string(got))

	_, err = os.Stat(filepath.Join(dir, "~settings.json"))
	require.NoError(t, err)

	for _, key := range []string{"~settings", "@~settings", "@.tmp-1", "@", " @settings"} {
		assert.ErrorIs(t, store.Set(ctx, key, []byte(`{}`)), ErrInvalidKey, key)
	}
}
