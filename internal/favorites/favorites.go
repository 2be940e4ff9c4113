// Package favorites keeps the user's favorite characters.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/iiroan/herodex/internal/catalog"
	"github.com/iiroan/herodex/internal/storage"
)

// Key is where the favorites list is stored.
const Key = "@favorites"

// Favorite is the stored subset of a character.
type Favorite struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Set is the persisted favorites list, in the order favorites were added.
type Set struct {
	store storage.Store
	mu    sync.Mutex
}

// New returns the favorites set persisted in store.
func New(store storage.Store) *Set {
	return &Set{store: store}
}

// Toggle adds c when it is not a favorite and removes it otherwise. It
// reports whether c is a favorite afterwards.
func (s *Set) Toggle(ctx context.Context, c catalog.Character) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	added := true
	for i, f := range list {
		if f.ID == c.ID {
			list = append(list[:i], list[i+1:]...)
			added = false
			break
		}
	}
	if added {
		list = append(list, Favorite{ID: c.ID, Name: c.Name, Thumbnail: c.ImageURL()})
	}

	if err := s.save(ctx, list); err != nil {
		return false, err
	}
	return added, nil
}

// Remove drops id from the list. Removing an unknown id is a no-op.
func (s *Set) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, f := range list {
		if f.ID == id {
			return s.save(ctx, append(list[:i], list[i+1:]...))
		}
	}
	return nil
}

// List returns every favorite.
func (s *Set) List(ctx context.Context) ([]Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Contains reports whether id is a favorite.
func (s *Set) Contains(ctx context.Context, id int) (bool, error) {
	list, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range list {
		if f.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Set) load(ctx context.Context) ([]Favorite, error) {
	data, err := s.store.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Favorite{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading favorites: %w", err)
	}
	var list []Favorite
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding favorites: %w", err)
	}
	return list, nil
}

func (s *Set) save(ctx context.Context, list []Favorite) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}
	if err := s.store.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}
	return nil
}
