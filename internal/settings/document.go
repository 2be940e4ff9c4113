// Package settings models the persisted settings document and the queue that writes it.
//
// The document is a JSON object stored under Key. Each top-level member is a
// section (appearance, notifications, ...). Sections this package does not know
// about are kept as raw JSON so that writing one section never drops another.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iiroan/herodex/internal/storage"
)

// Key is the storage key of the settings document.
const Key = "@settings"

// Section names.
const (
	SectionAppearance    = "appearance"
	SectionNotifications = "notifications"
)

// Persisted font size values.
const (
	FontSizeSmall  = "small"
	FontSizeMedium = "medium"
	FontSizeLarge  = "large"
)

// ErrMalformed is returned when the stored document is not a JSON object.
var ErrMalformed = errors.New("malformed settings document")

// Document is a settings document keyed by section name.
type Document map[string]json.RawMessage

// Appearance is the appearance section.
type Appearance struct {
	DarkMode bool   `json:"darkMode"`
	FontSize string `json:"fontSize"`
}

// Notifications is the notification preferences section.
type Notifications struct {
	PushEnabled  bool `json:"pushEnabled"`
	EmailEnabled bool `json:"emailEnabled"`
	NewHeroes    bool `json:"newHeroes"`
	Updates      bool `json:"updates"`
	Newsletters  bool `json:"newsletters"`
}

// DefaultAppearance returns the appearance used when nothing is persisted.
func DefaultAppearance() Appearance {
	return Appearance{DarkMode: false, FontSize: FontSizeMedium}
}

// DefaultNotifications returns the notification preferences seeded on first login.
func DefaultNotifications() Notifications {
	return Notifications{
		PushEnabled:  true,
		EmailEnabled: false,
		NewHeroes:    true,
		Updates:      true,
		Newsletters:  false,
	}
}

// Defaults returns the document seeded for a new user.
func Defaults() Document {
	doc := Document{}
	// both sections are plain structs, marshaling cannot fail
	_ = doc.SetSection(SectionAppearance, DefaultAppearance())
	_ = doc.SetSection(SectionNotifications, DefaultNotifications())
	return doc
}

// Parse decodes a stored document.
func Parse(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformed
	}
	doc := Document{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc, nil
}

// Encode serializes the document.
func (d Document) Encode() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(d))
}

// Has reports whether the section is present.
func (d Document) Has(section string) bool {
	_, ok := d[section]
	return ok
}

// Section decodes a section into v. It returns false when the section is absent.
func (d Document) Section(section string, v any) (bool, error) {
	raw, ok := d[section]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %s section: %w", section, err)
	}
	return true, nil
}

// SetSection replaces a section with the JSON encoding of v.
func (d Document) SetSection(section string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s section: %w", section, err)
	}
	d[section] = raw
	return nil
}

// MergeSection merges raw into the existing section. When both are JSON
// objects the members of raw overwrite existing members and all others are
// kept; otherwise raw replaces the section.
func (d Document) MergeSection(section string, raw json.RawMessage) {
	existing, ok := d[section]
	if !ok {
		d[section] = raw
		return
	}
	d[section] = mergeObjects(existing, raw)
}

// mergeObjects overlays the members of update on base. Non-object inputs
// return update unchanged.
func mergeObjects(base, update json.RawMessage) json.RawMessage {
	var current, overlay map[string]json.RawMessage
	if json.Unmarshal(base, &current) != nil || current == nil {
		return update
	}
	if json.Unmarshal(update, &overlay) != nil || overlay == nil {
		return update
	}
	for k, v := range overlay {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return update
	}
	return merged
}

// Load reads the document from the store. A missing document yields
// storage.ErrNotFound.
func Load(ctx context.Context, store storage.Store) (Document, error) {
	data, err := store.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
