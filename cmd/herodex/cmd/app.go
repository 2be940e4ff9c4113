package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iiroan/herodex/internal/catalog"
	"github.com/iiroan/herodex/internal/config"
	"github.com/iiroan/herodex/internal/favorites"
	"github.com/iiroan/herodex/internal/metrics"
	"github.com/iiroan/herodex/internal/session"
	"github.com/iiroan/herodex/internal/settings"
	"github.com/iiroan/herodex/internal/storage"
	"github.com/iiroan/herodex/internal/theme"
)

const closeTimeout = 10 * time.Second

// app wires the stores and services every command works with.
type app struct {
	store         storage.Store
	writer        *settings.Writer
	theme         *theme.Registry
	notifications *settings.NotificationPrefs
	sessions      *session.Manager
	favorites     *favorites.Set
	catalog       *catalog.Client

	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   *log.Logger

	unsubscribe func()
}

func openApp(ctx context.Context, cfg *config.Config, logger *log.Logger, onTheme func(theme.Snapshot)) (*app, error) {
	store, err := storage.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return newApp(ctx, store, cfg, logger, onTheme), nil
}

func newApp(ctx context.Context, store storage.Store, cfg *config.Config, logger *log.Logger, onTheme func(theme.Snapshot)) *app {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	writer := settings.NewWriter(store,
		settings.WithLogger(logger.WithPrefix("settings")),
		settings.WithMetrics(m),
		settings.WithTimeout(cfg.WriteTimeout()),
	)

	reg := theme.New(store,
		theme.WithLogger(logger.WithPrefix("theme")),
		theme.WithPersister(writer),
		theme.WithMetrics(m),
	)

	a := &app{
		store:         store,
		writer:        writer,
		theme:         reg,
		notifications: settings.NewNotificationPrefs(store, writer),
		sessions: session.NewManager(store,
			session.WithLogger(logger.WithPrefix("session")),
			session.WithSettingsSeeder(writer),
		),
		favorites: favorites.New(store),
		catalog: catalog.New(catalog.Options{
			BaseURL:    cfg.Catalog.BaseURL,
			PublicKey:  cfg.Catalog.PublicKey,
			PrivateKey: cfg.Catalog.PrivateKey,
			Limit:      cfg.Catalog.Limit,
			Timeout:    cfg.CatalogTimeout(),
			Logger:     logger.WithPrefix("catalog"),
			Metrics:    m,
		}),
		registry:    registry,
		metrics:     m,
		logger:      logger,
		unsubscribe: func() {},
	}

	if onTheme != nil {
		snap, unsubscribe := reg.Subscribe(onTheme)
		a.unsubscribe = unsubscribe
		onTheme(snap)
	}
	reg.Load(ctx)
	return a
}

// Close flushes queued settings writes and releases the store.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	a.unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if err := a.writer.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flushing settings: %w", err))
	}
	if err := a.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	a.logMetrics()
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}

func (a *app) logMetrics() {
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Debug("gathering metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			kv := []any{"name", mf.GetName(), "value", metric.GetCounter().GetValue()}
			for _, label := range metric.GetLabel() {
				kv = append(kv, label.GetName(), label.GetValue())
			}
			a.logger.Debug("metric", kv...)
		}
	}
}
