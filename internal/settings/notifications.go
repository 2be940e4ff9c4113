package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iiroan/herodex/internal/storage"
)

// NotificationPrefs reads and updates the notifications section.
// Updates go through the shared Writer so they are serialized with
// appearance writes on the same document.
type NotificationPrefs struct {
	store  storage.Store
	writer *Writer
}

// NewNotificationPrefs creates a NotificationPrefs.
func NewNotificationPrefs(store storage.Store, writer *Writer) *NotificationPrefs {
	return &NotificationPrefs{store: store, writer: writer}
}

// Get returns the persisted preferences with any queued update applied, or
// the defaults when nothing is stored or queued.
func (n *NotificationPrefs) Get(ctx context.Context) (Notifications, error) {
	// taken before the read so a write finishing in between is not missed
	raw, queued := n.writer.Pending(Key, SectionNotifications)
	prefs, err := n.stored(ctx)
	if err != nil {
		return prefs, err
	}
	if queued {
		overlay := prefs
		if err := json.Unmarshal(raw, &overlay); err == nil {
			prefs = overlay
		}
	}
	return prefs, nil
}

func (n *NotificationPrefs) stored(ctx context.Context) (Notifications, error) {
	prefs := DefaultNotifications()
	doc, err := Load(ctx, n.store)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, ErrMalformed) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("loading settings: %w", err)
	}
	if _, err := doc.Section(SectionNotifications, &prefs); err != nil {
		return DefaultNotifications(), nil
	}
	return prefs, nil
}

// Update queues prefs as the new notifications section.
func (n *NotificationPrefs) Update(prefs Notifications) error {
	return n.writer.Put(Key, SectionNotifications, prefs)
}
