package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/configvars/internal/api"
	"github.com/eugenenazirov/configvars/internal/config"
	"github.com/eugenenazirov/configvars/internal/manifest"
	"github.com/eugenenazirov/configvars/internal/metrics"
	"github.com/eugenenazirov/configvars/internal/settings"
	"github.com/eugenenazirov/configvars/pkg/configvars"
)

const watchDebounce = 100 * time.Millisecond

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	handler  *api.Handler
	router   http.Handler
	server   *http.Server
	clock    func() time.Time

	reloadMu sync.Mutex
	snapshot atomic.Pointer[api.Snapshot]

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// Resolve builds an engine from cfg, initializes it and resolves every
// declaration of m. The engine is returned alongside resolution errors once
// initialization succeeded, so callers can still inspect it.
func Resolve(cfg config.Config, m *manifest.Manifest, logger *zap.Logger, opts ...configvars.EngineOption) (*configvars.Engine, error) {
	engineOpts := append([]configvars.EngineOption{
		configvars.WithLogger(logger),
		configvars.WithSettingsRoot(cfg.SettingsRoot),
	}, opts...)
	engine := configvars.New(engineOpts...)

	initOpts := []configvars.InitOption{configvars.WithEnvPrefix(cfg.EnvPrefix)}
	if cfg.LocalModule != "" {
		initOpts = append(initOpts, configvars.WithLocalModule(cfg.LocalModule))
	}
	if err := engine.Initialize(initOpts...); err != nil {
		return nil, err
	}

	if err := m.Resolve(engine); err != nil {
		return engine, err
	}
	return engine, nil
}

// New resolves the manifest once and wires the HTTP server around the result.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NewRecorder(reg),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}

	if err := app.Reload(); err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	app.handler = api.NewHandler(app)
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	app.server = NewServer(cfg, app.router)

	return app, nil
}

// Snapshot returns the last successfully resolved configuration.
func (a *App) Snapshot() *api.Snapshot {
	return a.snapshot.Load()
}

// Reload re-reads the manifest and the local settings module. A failed
// reload keeps the previous snapshot.
func (a *App) Reload() error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	snap, err := a.resolve()
	a.recorder.ObserveReload(err)
	if err != nil {
		a.logger.Error("configuration reload failed", zap.Error(err))
		return err
	}

	a.snapshot.Store(snap)
	a.recorder.SetVariables(snap.Variables)
	a.logger.Info("configuration resolved",
		zap.Int("variables", len(snap.Variables)),
		zap.String("local_module", snap.LocalModule),
	)
	return nil
}

func (a *App) resolve() (*api.Snapshot, error) {
	m, err := manifest.Load(a.cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	engine, err := Resolve(a.cfg, m, a.logger, configvars.WithObserver(a.recorder))
	if err != nil {
		return nil, err
	}

	importFailed, _ := engine.ImportFailed()
	return &api.Snapshot{
		Variables:    engine.Variables(),
		LocalModule:  engine.LocalModule(),
		SettingsRoot: engine.SettingsRoot(),
		ImportFailed: importFailed,
		ResolvedAt:   a.clock(),
	}, nil
}

// WatchPaths lists the files whose changes trigger a reload: the manifest and
// every candidate file of the local settings module.
func (a *App) WatchPaths() []string {
	paths := []string{a.cfg.ManifestPath}
	snap := a.Snapshot()
	if snap == nil || snap.LocalModule == "" {
		return paths
	}
	base := filepath.Join(snap.SettingsRoot, settings.ModuleFile(snap.LocalModule))
	for _, ext := range settings.Extensions {
		paths = append(paths, base+ext)
	}
	return paths
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the file watcher when enabled and the HTTP server in a
// goroutine.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Watch {
		if err := a.startWatcher(ctx); err != nil {
			return err
		}
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

func (a *App) startWatcher(ctx context.Context) error {
	w, err := NewWatcher(a.WatchPaths(), watchDebounce, a.logger, func() {
		_ = a.Reload()
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.stopWatch = cancel
	a.watchDone = make(chan struct{})
	go func() {
		defer close(a.watchDone)
		if err := w.Run(ctx); err != nil {
			a.logger.Error("watcher stopped", zap.Error(err))
		}
	}()
	return nil
}

// Close stops the file watcher if it is running.
func (a *App) Close() {
	if a.stopWatch == nil {
		return
	}
	a.stopWatch()
	<-a.watchDone
	a.stopWatch = nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
