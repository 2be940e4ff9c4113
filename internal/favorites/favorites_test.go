package favorites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiroan/herodex/internal/catalog"
	"github.com/iiroan/herodex/internal/storage"
)

var (
	ironMan = catalog.Character{
		ID:        1009368,
		Name:      "Iron Man",
		Thumbnail: catalog.Image{Path: "http://i.annihil.us/u/prod/marvel/i/mg/9/c0/527bb7b37ff55", Extension: "jpg"},
	}
	thor = catalog.Character{ID: 1009664, Name: "Thor"}
)

func TestToggle(t *testing.T) {
	ctx := context.Background()
	set := New(storage.NewMemoryStore())

	added, err := set.Toggle(ctx, ironMan)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = set.Toggle(ctx, thor)
	require.NoError(t, err)
	assert.True(t, added)

	list, err := set.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Iron Man", list[0].Name)
	assert.Equal(t, "https://i.annihil.us/u/prod/marvel/i/mg/9/c0/527bb7b37ff55/standard_xlarge.jpg", list[0].Thumbnail)

	added, err = set.Toggle(ctx, ironMan)
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := set.Contains(ctx, ironMan.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = set.Contains(ctx, thor.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFavoritesPersist(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = New(store).Toggle(ctx, thor)
	require.NoError(t, err)

	list, err := New(store).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, thor.ID, list[0].ID)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	set := New(storage.NewMemoryStore())

	require.NoError(t, set.Remove(ctx, 1))
	_, err := set.Toggle(ctx, thor)
	require.NoError(t, err)
	require.NoError(t, set.Remove(ctx, thor.ID))

	list, err := set.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCorruptList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, []byte("nope")))

	_, err := New(store).List(ctx)
	assert.Error(t, err)
}
