// Package theme holds the appearance settings shared by every view.
//
// A Registry is constructed once and handed to each view. It resolves the
// active palette and font scale from the persisted appearance section,
// notifies subscribers synchronously on every change, and queues the new
// settings for persistence without waiting for the write.
package theme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/iiroan/herodex/internal/metrics"
	"github.com/iiroan/herodex/internal/settings"
	"github.com/iiroan/herodex/internal/storage"
)

// ErrInvalidTier is returned by SetFontTier for values outside the three tiers.
var ErrInvalidTier = errors.New("invalid font tier")

// Persister queues section updates for the settings document.
type Persister interface {
	Put(key, section string, value any) error
}

// Snapshot is a value copy of the resolved appearance state.
type Snapshot struct {
	Palette   Palette
	FontScale FontScale
	DarkMode  bool
	FontTier  FontTier
	// Ready is false until the persisted settings have been loaded.
	Ready bool
}

// DefaultSnapshot is the state served before any settings are loaded.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Palette:   PaletteFor(false),
		FontScale: ScaleFor(defaultFontTier),
		FontTier:  defaultFontTier,
	}
}

type subscription struct {
	id     uint64
	fn     func(Snapshot)
	active atomic.Bool
}

// Registry is the single source of truth for appearance settings.
type Registry struct {
	store   storage.Store
	persist Persister
	logger  *log.Logger
	metrics *metrics.Metrics

	// mutate serializes mutations together with their notifications.
	mutate sync.Mutex

	mu        sync.RWMutex
	darkMode  bool
	tier      FontTier
	palette   Palette
	scale     FontScale
	ready     bool
	setDark   bool
	setTier   bool
	subsMu    sync.Mutex
	subs      []*subscription
	nextSubID uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for load and persistence failures.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPersister sets where changes are queued for persistence.
// Without one, changes only live in memory.
func WithPersister(p Persister) Option {
	return func(r *Registry) { r.persist = p }
}

// WithMetrics sets the collectors notifications are counted in.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates a Registry serving default settings. Call Load to read the
// persisted settings; until then reads return the defaults.
func New(store storage.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resolve(false, defaultFontTier)
	return r
}

// Open creates a Registry and loads the persisted settings.
func Open(ctx context.Context, store storage.Store, opts ...Option) *Registry {
	r := New(store, opts...)
	r.Load(ctx)
	return r
}

// Load reads the appearance section and marks the registry ready. Missing or
// unreadable settings leave the defaults in place. A value changed through a
// setter before Load completes is kept over the persisted one. Every
// subscriber is notified once with the loaded state. Calls after the first
// are no-ops.
func (r *Registry) Load(ctx context.Context) {
	appearance := r.readAppearance(ctx)

	r.mutate.Lock()
	defer r.mutate.Unlock()

	r.mu.Lock()
	if r.ready {
		r.mu.Unlock()
		return
	}
	darkMode, tier := r.darkMode, r.tier
	if !r.setDark {
		darkMode = appearance.darkMode
	}
	if !r.setTier {
		tier = appearance.tier
	}
	r.resolve(darkMode, tier)
	r.ready = true
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Debug("theme settings loaded", "dark_mode", snap.DarkMode, "font_tier", snap.FontTier)
	r.notify(snap)
}

type loadedAppearance struct {
	darkMode bool
	tier     FontTier
}

func (r *Registry) readAppearance(ctx context.Context) loadedAppearance {
	loaded := loadedAppearance{darkMode: false, tier: defaultFontTier}
	if r.store == nil {
		return loaded
	}

	doc, err := settings.Load(ctx, r.store)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("no persisted settings, using defaults")
		} else {
			r.logger.Warn("loading theme settings failed, using defaults", "error", err)
		}
		return loaded
	}

	var appearance settings.Appearance
	found, err := doc.Section(settings.SectionAppearance, &appearance)
	if err != nil {
		r.logger.Warn("unreadable appearance settings, using defaults", "error", err)
		return loaded
	}
	if !found {
		return loaded
	}

	loaded.darkMode = appearance.DarkMode
	if tier, ok := ParseFontTier(appearance.FontSize); ok {
		loaded.tier = tier
	} else if appearance.FontSize != "" {
		r.logger.Warn("unknown font size in settings, using medium", "font_size", appearance.FontSize)
	}
	return loaded
}

// SetDarkMode switches between the dark and light palette. Subscribers are
// notified before it returns; persistence happens in the background.
func (r *Registry) SetDarkMode(enabled bool) {
	r.mutate.Lock()
	defer r.mutate.Unlock()
	r.setDarkModeLocked(enabled)
}

// ToggleDarkMode flips dark mode and returns the new value.
func (r *Registry) ToggleDarkMode() bool {
	r.mutate.Lock()
	defer r.mutate.Unlock()

	r.mu.RLock()
	enabled := !r.darkMode
	r.mu.RUnlock()

	r.setDarkModeLocked(enabled)
	return enabled
}

func (r *Registry) setDarkModeLocked(enabled bool) {
	r.mu.Lock()
	r.resolve(enabled, r.tier)
	if !r.ready {
		r.setDark = true
	}
	snap := r.snapshotLocked()
	update := r.appearanceUpdateLocked()
	r.mu.Unlock()

	r.notify(snap)
	r.enqueue(update)
}

// SetFontTier selects a font scale. Values outside the three tiers are
// rejected with ErrInvalidTier and change nothing.
func (r *Registry) SetFontTier(tier FontTier) error {
	if !tier.Valid() {
		r.logger.Warn("ignoring invalid font tier", "font_tier", string(tier))
		return fmt.Errorf("%w: %q", ErrInvalidTier, string(tier))
	}

	r.mutate.Lock()
	defer r.mutate.Unlock()

	r.mu.Lock()
	r.resolve(r.darkMode, tier)
	if !r.ready {
		r.setTier = true
	}
	snap := r.snapshotLocked()
	update := r.appearanceUpdateLocked()
	r.mu.Unlock()

	r.notify(snap)
	r.enqueue(update)
	return nil
}

// Subscribe registers fn for change notifications and returns the current
// snapshot along with a function that detaches fn. fn runs synchronously on
// the goroutine that made the change and must not call the setters.
func (r *Registry) Subscribe(fn func(Snapshot)) (Snapshot, func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.snapshotLocked()
	if fn == nil {
		return snap, func() {}
	}

	r.subsMu.Lock()
	r.nextSubID++
	sub := &subscription{id: r.nextSubID, fn: fn}
	sub.active.Store(true)
	r.subs = append(r.subs, sub)
	r.subsMu.Unlock()

	return snap, func() { r.unsubscribe(sub) }
}

func (r *Registry) unsubscribe(sub *subscription) {
	if !sub.active.CompareAndSwap(true, false) {
		return
	}
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for i, s := range r.subs {
		if s.id == sub.id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of attached subscribers.
func (r *Registry) Subscribers() int {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	return len(r.subs)
}

func (r *Registry) notify(snap Snapshot) {
	r.subsMu.Lock()
	subs := make([]*subscription, len(r.subs))
	copy(subs, r.subs)
	r.subsMu.Unlock()

	for _, sub := range subs {
		// detached by an earlier callback in this round
		if !sub.active.Load() {
			continue
		}
		sub.fn(snap)
		r.metrics.ObserveNotification()
	}
}

func (r *Registry) enqueue(update map[string]any) {
	if r.persist == nil || len(update) == 0 {
		return
	}
	if err := r.persist.Put(settings.Key, settings.SectionAppearance, update); err != nil {
		r.logger.Error("queueing theme settings failed", "error", err)
	}
}

// appearanceUpdateLocked returns the appearance members to persist. Before
// Load completes only members set through a setter are written, so the
// persisted values of the others survive.
func (r *Registry) appearanceUpdateLocked() map[string]any {
	update := make(map[string]any, 2)
	if r.ready || r.setDark {
		update["darkMode"] = r.darkMode
	}
	if r.ready || r.setTier {
		update["fontSize"] = string(r.tier)
	}
	return update
}

func (r *Registry) resolve(darkMode bool, tier FontTier) {
	r.darkMode = darkMode
	r.tier = tier
	r.palette = PaletteFor(darkMode)
	r.scale = ScaleFor(tier)
}

func (r *Registry) snapshotLocked() Snapshot {
	return Snapshot{
		Palette:   r.palette,
		FontScale: r.scale,
		DarkMode:  r.darkMode,
		FontTier:  r.tier,
		Ready:     r.ready,
	}
}

// Snapshot returns the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Palette returns the resolved palette.
func (r *Registry) Palette() Palette {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.palette
}

// FontScale returns the resolved font scale.
func (r *Registry) FontScale() FontScale {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scale
}

// DarkMode reports whether the dark palette is active.
func (r *Registry) DarkMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.darkMode
}

// FontTier returns the active tier.
func (r *Registry) FontTier() FontTier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tier
}

// Ready reports whether the persisted settings have been loaded.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}
