package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xKaaZz/Waeleaks/internal/catalog"
	"github.com/xKaaZz/Waeleaks/internal/config"
	"github.com/xKaaZz/Waeleaks/internal/logger"
	"github.com/xKaaZz/Waeleaks/internal/metrics"
	"github.com/xKaaZz/Waeleaks/internal/notify"
	"github.com/xKaaZz/Waeleaks/internal/pipeline"
	"github.com/xKaaZz/Waeleaks/internal/storage"
	"github.com/xKaaZz/Waeleaks/internal/watcher"
	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
	"github.com/xKaaZz/Waeleaks/pkg/publishers"
	"github.com/xKaaZz/Waeleaks/pkg/sources"
)

// App holds the wired runtime: catalog, source registry, synchronization
// engine and the outbound channels it announces through.
type App struct {
	cfg      *config.Config
	log      logger.Logger
	Catalog  *catalog.Store
	Sources  *sources.Registry
	Engine   *pipeline.Engine
	events   *publishers.Fanout
	gatherer prometheus.Gatherer
	recorder metrics.Recorder
	client   httpclient.Client
}

// New builds the runtime from configuration.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	client := httpclient.NewRestyClient(cfg.ScraperTimeout)
	registry, err := sources.LoadRegistry(cfg.SourcesFile, client, sources.DefaultBuilders())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count":  len(registry.Entries()),
		"titles": registry.Titles(),
	})

	events, err := buildPublishers(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	recorder := metrics.NewCollector(promReg)

	messenger := notify.NewTelegramMessenger(httpclient.NewRestyClient(cfg.TelegramTimeout), cfg.TelegramAPIBase)
	fanout := notify.NewFanout(store, messenger, log, recorder)

	engine, err := pipeline.New(pipeline.Deps{
		Catalog:  store,
		Registry: registry,
		Notifier: fanout,
		Events:   events,
		Logger:   log,
		Metrics:  recorder,
	}, pipeline.Options{
		LookaheadWindow: cfg.LookaheadWindow,
		ScraperTimeout:  cfg.ScraperTimeout,
		LockDir:         cfg.LockDir,
		LockTimeout:     cfg.LockTimeout,
	})
	if err != nil {
		_ = events.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return &App{
		cfg:      cfg,
		log:      log,
		Catalog:  store,
		Sources:  registry,
		Engine:   engine,
		events:   events,
		gatherer: promReg,
		recorder: recorder,
		client:   client,
	}, nil
}

func buildPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	clients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(clients), nil
}

// Watch runs the feed watcher until ctx is cancelled, serving /metrics
// alongside when a metrics address is configured.
func (a *App) Watch(ctx context.Context) error {
	if a == nil || a.Engine == nil {
		return fmt.Errorf("app is not initialized")
	}

	seen, err := storage.NewStore(a.cfg.SeenStoreType, a.cfg.BBoltPath, storage.Options{
		EntryTTL:        a.cfg.SeenTTL,
		CleanupInterval: a.cfg.SeenCleanup,
	})
	if err != nil {
		return fmt.Errorf("init seen store: %w", err)
	}
	defer func() {
		if err := seen.Close(); err != nil {
			a.log.ErrorObj("seen store close failed", "error", err.Error())
		}
	}()
	a.log.InfoObj("seen store initialized", "storage_config", map[string]any{
		"type":                     a.cfg.SeenStoreType,
		"path":                     a.cfg.BBoltPath,
		"entry_ttl_seconds":        int(a.cfg.SeenTTL.Seconds()),
		"cleanup_interval_seconds": int(a.cfg.SeenCleanup.Seconds()),
	})

	entries := a.Sources.Entries()
	feeds := make([]watcher.Feed, 0, len(entries))
	for _, e := range entries {
		if e.FeedURL != "" {
			feeds = append(feeds, watcher.Feed{Title: e.Title, URL: e.FeedURL})
		}
	}

	w, err := watcher.New(a.Engine, a.Catalog, a.client, watcher.Options{
		Feeds:    feeds,
		Interval: a.cfg.CheckInterval,
		Seen:     seen,
		Logger:   a.log,
		Metrics:  a.recorder,
	})
	if err != nil {
		return fmt.Errorf("build watcher: %w", err)
	}

	if addr := strings.TrimSpace(a.cfg.MetricsAddr); addr != "" {
		stop := a.serveMetrics(addr)
		defer stop()
	}

	return w.Run(ctx)
}

func (a *App) serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.SetupMetricsRoute(a.gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.InfoObj("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.ErrorObj("metrics server failed", "error", err.Error())
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// Close releases the catalog and publisher clients.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Catalog != nil {
		if err := a.Catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
	}
	return errors.Join(errs...)
}
