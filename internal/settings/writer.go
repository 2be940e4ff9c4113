package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iiroan/herodex/internal/metrics"
	"github.com/iiroan/herodex/internal/storage"
)

// DefaultWriteTimeout bounds a single document write.
const DefaultWriteTimeout = 5 * time.Second

// ErrWriterClosed is returned by Put after Close.
var ErrWriterClosed = errors.New("settings writer closed")

type patch struct {
	value        json.RawMessage
	onlyIfAbsent bool
}

// Writer persists section updates in the background.
//
// All writes go through one goroutine, so there is at most one in-flight
// write per key. Updates queued while a write is running are coalesced per
// key and section member, the latest value winning, and merged into the
// document as it is stored at write time.
type Writer struct {
	store   storage.Store
	logger  *log.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string]map[string]patch
	inflight map[string]map[string]patch
	queued   uint64
	written  uint64
	progress chan struct{}
	closed   bool

	wake    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger used for write failures.
func WithLogger(logger *log.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics sets the collectors write outcomes are reported to.
func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

// WithTimeout bounds each write. Non-positive values keep the default.
func WithTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWriter starts a Writer on store.
func NewWriter(store storage.Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:    store,
		logger:   log.New(io.Discard),
		timeout:  DefaultWriteTimeout,
		pending:  make(map[string]map[string]patch),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Put queues value as the new content of section in the document under key.
// It never blocks on I/O.
func (w *Writer) Put(key, section string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s section: %w", section, err)
	}
	return w.enqueue(key, section, patch{value: raw})
}

// Seed queues every section of doc to be written only where the stored
// document does not already have it.
func (w *Writer) Seed(key string, doc Document) error {
	for section, raw := range doc {
		if err := w.enqueue(key, section, patch{value: raw, onlyIfAbsent: true}); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaults seeds the settings document with Defaults.
func (w *Writer) SeedDefaults() error {
	return w.Seed(Key, Defaults())
}

func (w *Writer) enqueue(key, section string, p patch) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	sections, ok := w.pending[key]
	if !ok {
		sections = make(map[string]patch)
		w.pending[key] = sections
	}
	existing, ok := sections[section]
	switch {
	case !ok, existing.onlyIfAbsent:
		sections[section] = p
	case p.onlyIfAbsent:
		// a queued explicit update always beats a default
	default:
		sections[section] = patch{value: mergeObjects(existing.value, p.value)}
	}
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the not yet stored update for section of the document
// under key, merged across the write in progress and the queue. Seeded
// defaults are not reported.
func (w *Writer) Pending(key, section string) (json.RawMessage, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var merged json.RawMessage
	for _, batch := range []map[string]map[string]patch{w.inflight, w.pending} {
		p, ok := batch[key][section]
		if !ok || p.onlyIfAbsent {
			continue
		}
		if merged == nil {
			merged = p.value
		} else {
			merged = mergeObjects(merged, p.value)
		}
	}
	return merged, merged != nil
}

// Flush blocks until everything queued before the call has been written or
// has failed, or until ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	for w.written < target {
		ch := w.progress
		w.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopped:
			w.mu.Lock()
			if w.written < target {
				w.mu.Unlock()
				return ErrWriterClosed
			}
			w.mu.Unlock()
			return nil
		}
		w.mu.Lock()
	}
	w.mu.Unlock()
	return nil
}

// Close writes whatever is still queued and stops the writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.stopped
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.quit)
	<-w.stopped
	return nil
}

func (w *Writer) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		batch := w.pending
		target := w.queued
		w.pending = make(map[string]map[string]patch)
		w.inflight = batch
		w.mu.Unlock()

		for key, sections := range batch {
			err := w.write(key, sections)
			w.metrics.ObserveWrite(err)
			if err != nil {
				w.logger.Error("saving settings failed", "key", key, "error", err)
			}
		}

		w.mu.Lock()
		w.written = target
		w.inflight = nil
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

func (w *Writer) write(key string, sections map[string]patch) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	doc := Document{}
	data, err := w.store.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("reading current document: %w", err)
	default:
		parsed, perr := Parse(data)
		if perr != nil {
			w.logger.Warn("replacing unreadable settings document", "key", key, "error", perr)
		} else {
			doc = parsed
		}
	}

	for section, p := range sections {
		if p.onlyIfAbsent {
			if !doc.Has(section) {
				doc[section] = p.value
			}
			continue
		}
		doc.MergeSection(section, p.value)
	}

	encoded, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := w.store.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
