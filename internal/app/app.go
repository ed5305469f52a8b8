// Package app wires the world-state subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run polls upstream and serves the HTTP API until the context
// ends, and Shutdown tears everything down in order.
//
// For testing, inject fakes via functional options (WithSource,
// WithContextProvider, WithStore, etc.). When an option is not provided, New
// creates the real implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/worldstate/internal/api"
	"github.com/MrWong99/worldstate/internal/config"
	"github.com/MrWong99/worldstate/internal/health"
	"github.com/MrWong99/worldstate/internal/mcp"
	"github.com/MrWong99/worldstate/internal/mcp/tools/worldtools"
	"github.com/MrWong99/worldstate/internal/notify/discord"
	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/poller"
	"github.com/MrWong99/worldstate/internal/provider"
	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/internal/store/postgres"
	"github.com/MrWong99/worldstate/internal/store/sqlite"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// Name is reported to MCP clients and in telemetry.
const Name = "worldstate"

// shutdownGrace bounds the graceful HTTP shutdown once Run's context ends.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg        *config.Config
	version    string
	configPath string
	registry   *config.Registry
	level      *slog.LevelVar
	listener   net.Listener

	// Subsystems, initialised in New and torn down in Shutdown.
	metrics   *observe.Metrics
	telemetry *observe.Telemetry
	store     store.Store
	fetcher   *provider.Fetcher
	source    poller.Source
	contexts  worldstate.ContextProvider
	poller    *poller.Poller
	health    *health.Handler
	mcp       *mcp.Server
	handler   http.Handler
	sender    discord.Sender
	notifier  *discord.Notifier
	watcher   *config.Watcher

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithVersion sets the version reported to MCP clients and in telemetry.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithConfigPath enables hot reloading of the file at path. Changed log
// levels, poll intervals and mirror lists are applied without a restart.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithLogLevel hands the App the level variable behind the process logger so
// config reloads can change it.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.level = v }
}

// WithRegistry replaces the store driver registry. Default: [NewRegistry].
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithStore injects a snapshot store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithSource injects the raw world-state source instead of the HTTP fetcher.
func WithSource(s poller.Source) Option {
	return func(a *App) { a.source = s }
}

// WithContextProvider injects the resolution context provider instead of
// the manifest-backed one.
func WithContextProvider(p worldstate.ContextProvider) Option {
	return func(a *App) { a.contexts = p }
}

// WithMetrics injects metric instruments. When set, no OTel SDK is
// initialised and /metrics is not served.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithDiscordSender injects the Discord client. It enables the notifier
// regardless of the configured token.
func WithDiscordSender(s discord.Sender) Option {
	return func(a *App) { a.sender = s }
}

// WithListener serves the HTTP API on l instead of listening on
// server.listen_addr.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// NewRegistry returns a registry with the memory, postgres and sqlite store
// drivers.
func NewRegistry() *config.Registry {
	r := config.NewRegistry()
	r.RegisterStore(config.DriverMemory, func(context.Context, config.StoreConfig) (store.Store, error) {
		return store.NewMemory(), nil
	})
	r.RegisterStore(config.DriverPostgres, func(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
		return postgres.New(ctx, cfg.DSN)
	})
	r.RegisterStore(config.DriverSQLite, func(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
		return sqlite.Open(ctx, cfg.DSN)
	})
	return r
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: telemetry, store
// connection, fetcher and context provider construction, snapshot restore,
// and HTTP handler assembly. No upstream request is made until Run.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	a := &App{cfg: cfg, version: "dev"}
	for _, o := range opts {
		o(a)
	}
	defer func() {
		if err != nil {
			_ = a.Shutdown(context.Background())
		}
	}()
	if a.registry == nil {
		a.registry = NewRegistry()
	}

	// ── 1. Telemetry ─────────────────────────────────────────────────────
	if err := a.initTelemetry(ctx); err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}

	// ── 2. Snapshot store ────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 3. Upstream sources ──────────────────────────────────────────────
	if err := a.initSources(); err != nil {
		return nil, fmt.Errorf("app: init sources: %w", err)
	}

	// ── 4. Poller ────────────────────────────────────────────────────────
	if err := a.initPoller(ctx); err != nil {
		return nil, fmt.Errorf("app: init poller: %w", err)
	}

	// ── 5. MCP server ────────────────────────────────────────────────────
	srv, err := mcp.NewServer(Name, a.version, a.metrics, worldtools.NewTools(worldtools.Deps{
		State:    a.poller,
		Provider: a.contexts,
	})...)
	if err != nil {
		return nil, fmt.Errorf("app: init mcp: %w", err)
	}
	a.mcp = srv

	// ── 6. HTTP API ──────────────────────────────────────────────────────
	a.initHTTP()

	// ── 7. Discord notifier ──────────────────────────────────────────────
	if err := a.initNotifier(); err != nil {
		return nil, fmt.Errorf("app: init notifier: %w", err)
	}

	// ── 8. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.applyConfig)
		if err != nil {
			return nil, fmt.Errorf("app: init watcher: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func (a *App) initTelemetry(ctx context.Context) error {
	if a.metrics != nil {
		return nil
	}
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    Name,
		ServiceVersion: a.version,
	})
	if err != nil {
		return err
	}
	a.telemetry = tel
	a.metrics = tel.Metrics
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tel.Shutdown(ctx)
	})
	return nil
}

// initStore opens the configured store unless one was injected. An injected
// store is owned by the caller and not closed on Shutdown.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	s, err := a.registry.CreateStore(ctx, a.cfg.Store)
	if err != nil {
		return err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	slog.Info("app: store opened", "driver", a.cfg.Store.Driver)
	return nil
}

func (a *App) initSources() error {
	if a.source == nil {
		a.fetcher = NewFetcher(a.cfg, a.metrics)
		a.source = a.fetcher
	}
	if a.contexts == nil {
		p, err := NewProvider(a.cfg, a.metrics)
		if err != nil {
			return err
		}
		a.contexts = p
	}
	return nil
}

// NewFetcher builds the world-state fetcher for cfg's primary URL and
// mirrors. m may be nil.
func NewFetcher(cfg *config.Config, m *observe.Metrics) *provider.Fetcher {
	client := &http.Client{Timeout: cfg.Sources.Timeout}
	return provider.NewFetcher(client, m, cfg.Sources.WorldstateURL, cfg.Sources.Mirrors...)
}

// NewProvider builds the manifest-backed context provider for cfg. m may be
// nil.
func NewProvider(cfg *config.Config, m *observe.Metrics) (*provider.Provider, error) {
	return provider.New(provider.Options{
		IndexURL:        cfg.Sources.ExportIndexURL,
		ManifestBaseURL: cfg.Sources.ManifestBaseURL,
		CacheDir:        cfg.Data.CacheDir,
		Dirs: provider.Dirs{
			Data:   cfg.Data.DataDir,
			Drops:  cfg.Data.DropsDir,
			Assets: cfg.Data.AssetsDir,
		},
		Client:  &http.Client{Timeout: cfg.Sources.Timeout},
		Metrics: m,
	})
}

func (a *App) initPoller(ctx context.Context) error {
	p, err := poller.New(poller.Config{
		Source:   a.source,
		Provider: a.contexts,
		Store:    a.store,
		Driver:   a.cfg.Store.Driver,
		Interval: a.cfg.Sources.PollInterval,
		Retain:   a.cfg.Store.Retain,
		Metrics:  a.metrics,
	})
	if err != nil {
		return err
	}
	if err := p.Restore(ctx); err != nil {
		// Not fatal: the next poll replaces the state.
		slog.Warn("app: could not restore latest snapshot", "err", err)
	}
	a.poller = p
	return nil
}

// initHTTP assembles the API, health, metrics and MCP routes.
func (a *App) initHTTP() {
	a.health = health.New(health.Staleness("snapshot", 3*a.cfg.Sources.PollInterval, a.poller.LastUpdate, nil))
	if pinger, ok := a.store.(health.Pinger); ok {
		a.health.Add(health.Ping("store", pinger))
	}
	if p, ok := a.contexts.(*provider.Provider); ok {
		c := health.Staleness("context", 2*time.Hour, p.BuiltAt, nil)
		c.Optional = true
		a.health.Add(c)
	}

	var metricsHandler http.Handler
	if a.telemetry != nil {
		metricsHandler = a.telemetry.Handler
	}
	apiServer := api.New(api.Config{
		State:          a.poller,
		Store:          a.store,
		Metrics:        a.metrics,
		Health:         a.health,
		MetricsHandler: metricsHandler,
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", a.mcp.Handler())
	mux.Handle("/", apiServer)
	a.handler = mux
}

func (a *App) initNotifier() error {
	if a.sender == nil {
		if !a.cfg.Notify.Discord.Enabled() {
			return nil
		}
		s, err := discord.NewSession(a.cfg.Notify.Discord.Token)
		if err != nil {
			return err
		}
		a.sender = s
	}
	n, err := discord.New(discord.Config{
		Sender:    a.sender,
		ChannelID: a.cfg.Notify.Discord.ChannelID,
		Metrics:   a.metrics,
	})
	if err != nil {
		return err
	}
	a.notifier = n
	return nil
}

// applyConfig is the watcher callback. Hot-reloadable fields take effect
// immediately; everything else is logged as requiring a restart.
func (a *App) applyConfig(_ *config.Config, d config.ConfigDiff) {
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.Level())
		slog.Info("app: log level changed", "level", d.NewLogLevel)
	}
	if d.PollIntervalChanged {
		a.poller.SetInterval(d.NewPollInterval)
		slog.Info("app: poll interval changed", "interval", d.NewPollInterval)
	}
	if d.MirrorsChanged && a.fetcher != nil {
		a.fetcher.SetMirrors(d.NewMirrors)
		slog.Info("app: mirrors changed", "sources", a.fetcher.Sources())
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("app: config changes need a restart to take effect", "fields", d.RestartRequired)
	}
}

// ErrNoConfigFile is returned by [App.Reload] when the App was built
// without [WithConfigPath].
var ErrNoConfigFile = errors.New("app: no config file to reload")

// Reload re-reads the config file immediately and applies what changed.
func (a *App) Reload() error {
	if a.watcher == nil {
		return ErrNoConfigFile
	}
	if _, changed, err := a.watcher.Reload(); err != nil {
		return fmt.Errorf("app: reload %s: %w", a.watcher.Path(), err)
	} else if !changed {
		slog.Info("app: config unchanged", "path", a.watcher.Path())
	}
	return nil
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Handler returns the HTTP handler serving the API, health, metrics and MCP
// routes.
func (a *App) Handler() http.Handler { return a.handler }

// Poller returns the world-state poller.
func (a *App) Poller() *poller.Poller { return a.poller }

// MCP returns the MCP server exposing the world-state tools.
func (a *App) MCP() *mcp.Server { return a.mcp }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run polls upstream, serves the HTTP API and, when configured, posts
// Discord notifications. It blocks until ctx is cancelled or the HTTP server
// fails, and returns nil on a clean stop.
func (a *App) Run(ctx context.Context) error {
	l := a.listener
	if l == nil {
		var err error
		l, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	a.background(ctx, g)
	g.Go(func() error { return a.serve(ctx, l) })

	slog.Info("app running", "addr", l.Addr().String(), "store", a.cfg.Store.Driver, "discord", a.notifier != nil)
	return g.Wait()
}

// RunMCP polls upstream and serves the MCP tools over transport until ctx
// is cancelled. listen is the address for the streamable HTTP transport.
func (a *App) RunMCP(ctx context.Context, transport mcp.Transport, listen string) error {
	if !transport.IsValid() {
		return fmt.Errorf("app: unsupported mcp transport %q", transport)
	}
	var l net.Listener
	if transport == mcp.TransportStreamableHTTP {
		var err error
		if l, err = net.Listen("tcp", listen); err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	a.background(ctx, g)

	switch transport {
	case mcp.TransportStdio:
		// The session ends when the client closes stdin; stop polling then.
		g.Go(func() error {
			defer cancel()
			err := a.mcp.RunStdio(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	case mcp.TransportStreamableHTTP:
		srv := &http.Server{Handler: a.mcp.Handler(), ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error { return serveUntil(ctx, srv, l, nil) })
		slog.Info("mcp: serving streamable http", "addr", l.Addr().String(), "tools", a.mcp.ToolNames())
	}
	return g.Wait()
}

// background starts the poll loop and the notifier.
func (a *App) background(ctx context.Context, g *errgroup.Group) {
	if a.notifier != nil {
		events, cancel := a.poller.Subscribe()
		g.Go(func() error {
			defer cancel()
			return a.notifier.Run(ctx, events)
		})
	}
	g.Go(func() error { return a.poller.Run(ctx) })
}

func (a *App) serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return serveUntil(ctx, srv, l, a.cfg.Server.TLS)
}

// serveUntil serves on l until ctx ends, then shuts srv down gracefully.
func serveUntil(ctx context.Context, srv *http.Server, l net.Listener, tls *config.TLSConfig) error {
	errc := make(chan error, 1)
	go func() {
		if tls != nil {
			errc <- srv.ServeTLS(l, tls.CertFile, tls.KeyFile)
			return
		}
		errc <- srv.Serve(l)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: http shutdown: %w", err)
	}
	return nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the config watcher and then runs the closers in reverse
// init order. It respects the context deadline: if ctx expires before all
// closers finish, remaining closers are skipped and the context error is
// returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.watcher != nil {
			a.watcher.Stop()
		}

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
