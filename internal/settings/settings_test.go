package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiroan/herodex/internal/metrics"
	"github.com/iiroan/herodex/internal/storage"
)

type failingStore struct {
	*storage.MemoryStore
}

func (s failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

// gatedStore blocks the first Set until release is closed.
type gatedStore struct {
	*storage.MemoryStore

	mu      sync.Mutex
	sets    int
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: storage.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.sets++
	first := s.sets == 1
	s.mu.Unlock()
	if first {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func flush(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Flush(ctx))
}

func readDoc(t *testing.T, store storage.Store) map[string]any {
	t.Helper()
	data, err := store.Get(context.Background(), Key)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`{"appearance":{"darkMode":true,"fontSize":"large"},"extra":[1,2]}`))
	require.NoError(t, err)

	var appearance Appearance
	found, err := doc.Section(SectionAppearance, &appearance)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Appearance{DarkMode: true, FontSize: FontSizeLarge}, appearance)
	assert.JSONEq(t, `[1,2]`, string(doc["extra"]))

	for _, bad := range []string{``, `null`, `[]`, `"x"`, `{"appearance":`} {
		_, err := Parse([]byte(bad))
		assert.ErrorIs(t, err, ErrMalformed, "input %q", bad)
	}
}

func TestMergeSectionKeepsUnknownMembers(t *testing.T) {
	doc := Document{SectionAppearance: json.RawMessage(`{"darkMode":false,"fontSize":"small","contrast":"high"}`)}
	doc.MergeSection(SectionAppearance, json.RawMessage(`{"darkMode":true,"fontSize":"small"}`))

	assert.JSONEq(t, `{"darkMode":true,"fontSize":"small","contrast":"high"}`, string(doc[SectionAppearance]))

	doc["odd"] = json.RawMessage(`3`)
	doc.MergeSection("odd", json.RawMessage(`{"a":1}`))
	assert.JSONEq(t, `{"a":1}`, string(doc["odd"]))
}

func TestDefaults(t *testing.T) {
	doc := Defaults()

	var appearance Appearance
	_, err := doc.Section(SectionAppearance, &appearance)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppearance(), appearance)

	var notifications Notifications
	_, err = doc.Section(SectionNotifications, &notifications)
	require.NoError(t, err)
	assert.True(t, notifications.PushEnabled)
	assert.False(t, notifications.Newsletters)
}

func TestWriterPreservesUnrelatedSections(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, []byte(`{"notifications":{"pushEnabled":true},"appearance":{"darkMode":false,"fontSize":"medium"}}`)))

	w := NewWriter(store)
	defer w.Close()

	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{DarkMode: true, FontSize: FontSizeMedium}))
	flush(t, w)

	doc := readDoc(t, store)
	assert.Equal(t, map[string]any{"pushEnabled": true}, doc["notifications"])
	assert.Equal(t, map[string]any{"darkMode": true, "fontSize": "medium"}, doc["appearance"])
}

func TestWriterCoalescesLatestWins(t *testing.T) {
	store := newGatedStore()
	w := NewWriter(store)
	defer w.Close()

	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{FontSize: FontSizeSmall}))
	<-store.entered

	// queued while the first write is in flight
	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{FontSize: FontSizeMedium}))
	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{DarkMode: true, FontSize: FontSizeLarge}))
	require.NoError(t, w.Put(Key, SectionNotifications, DefaultNotifications()))
	close(store.release)

	flush(t, w)

	store.mu.Lock()
	sets := store.sets
	store.mu.Unlock()
	assert.Equal(t, 2, sets)

	doc := readDoc(t, store)
	assert.Equal(t, map[string]any{"darkMode": true, "fontSize": "large"}, doc["appearance"])
	assert.Contains(t, doc, "notifications")
}

func TestWriterLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	w := NewWriter(failingStore{storage.NewMemoryStore()}, WithLogger(log.New(&buf)), WithMetrics(m))
	defer w.Close()

	require.NoError(t, w.Put(Key, SectionAppearance, DefaultAppearance()))
	flush(t, w)

	assert.Contains(t, buf.String(), "saving settings failed")
	assert.Contains(t, buf.String(), "disk full")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettingsWrites.WithLabelValues(metrics.ResultError)))
}

func TestWriterReplacesMalformedDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, []byte(`not json`)))

	w := NewWriter(store)
	defer w.Close()

	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{DarkMode: true, FontSize: FontSizeSmall}))
	flush(t, w)

	doc := readDoc(t, store)
	assert.Equal(t, map[string]any{"darkMode": true, "fontSize": "small"}, doc["appearance"])
}

func TestWriterSeedOnlyFillsMissingSections(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, []byte(`{"appearance":{"darkMode":true,"fontSize":"large"}}`)))

	w := NewWriter(store)
	defer w.Close()

	require.NoError(t, w.SeedDefaults())
	flush(t, w)

	doc := readDoc(t, store)
	assert.Equal(t, map[string]any{"darkMode": true, "fontSize": "large"}, doc["appearance"])
	assert.Equal(t, true, doc["notifications"].(map[string]any)["pushEnabled"])
}

func TestWriterSeedDoesNotOverrideQueuedPut(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewWriter(store)
	defer w.Close()

	require.NoError(t, w.Put(Key, SectionAppearance, Appearance{DarkMode: true, FontSize: FontSizeLarge}))
	require.NoError(t, w.SeedDefaults())
	flush(t, w)

	doc := readDoc(t, store)
	assert.Equal(t, map[string]any{"darkMode": true, "fontSize": "large"}, doc["appearance"])
}

func TestWriterClose(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewWriter(store)

	require.NoError(t, w.Put(Key, SectionAppearance, DefaultAppearance()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	readDoc(t, store)
	assert.ErrorIs(t, w.Put(Key, SectionAppearance, DefaultAppearance()), ErrWriterClosed)
}

func TestNotificationPrefs(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	w := NewWriter(store)
	defer w.Close()

	prefs := NewNotificationPrefs(store, w)

	got, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultNotifications(), got)

	got.Newsletters = true
	got.PushEnabled = false
	require.NoError(t, prefs.Update(got))
	flush(t, w)

	reloaded, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded.Newsletters)
	assert.False(t, reloaded.PushEnabled)
}

func TestNotificationPrefsSeeQueuedUpdates(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	w := NewWriter(store)
	defer w.Close()

	prefs := NewNotificationPrefs(store, w)

	first, err := prefs.Get(ctx)
	require.NoError(t, err)
	first.PushEnabled = false
	require.NoError(t, prefs.Update(first))

	<-store.entered

	// the first write is now in flight
	second, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.False(t, second.PushEnabled)

	second.EmailEnabled = true
	require.NoError(t, prefs.Update(second))

	queued, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.False(t, queued.PushEnabled)
	assert.True(t, queued.EmailEnabled)

	close(store.release)
	flush(t, w)

	doc := readDoc(t, store)
	notifications := doc["notifications"].(map[string]any)
	assert.Equal(t, false, notifications["pushEnabled"])
	assert.Equal(t, true, notifications["emailEnabled"])

	final, err := prefs.Get(ctx)
	require.NoError(t, err)
	assert.False(t, final.PushEnabled)
	assert.True(t, final.EmailEnabled)
}

func TestWriterPendingIgnoresSeeds(t *testing.T) {
	store := newGatedStore()
	w := NewWriter(store)
	defer func() {
		close(store.release)
		w.Close()
	}()

	require.NoError(t, w.SeedDefaults())
	<-store.entered

	_, ok := w.Pending(Key, SectionNotifications)
	assert.False(t, ok)

	require.NoError(t, w.Put(Key, SectionAppearance, map[string]any{"darkMode": true}))
	raw, ok := w.Pending(Key, SectionAppearance)
	require.True(t, ok)
	assert.JSONEq(t, `{"darkMode":true}`, string(raw))
}
