package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/worldstate/internal/config"
	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/provider"
	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// ── helpers ──────────────────────────────────────────────────────────────────

type fakeSource struct {
	mu   sync.Mutex
	body []byte
}

func (s *fakeSource) set(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

func (s *fakeSource) Fetch(context.Context) (provider.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return provider.Document{Body: s.body, Source: "fake", FetchedAt: time.Now().UTC()}, nil
}

type staticContexts struct{}

func (staticContexts) Context(context.Context) (*worldstate.Context, error) {
	return worldstate.NewContext(worldstate.Exports{}, worldstate.WorldstateData{}), nil
}

type fakeSender struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeSender) ChannelMessageSendEmbed(_ string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, embed.Title)
	return &discordgo.Message{ID: "m"}, nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...)
}

// closeCounter is a memory store that counts Close calls.
type closeCounter struct {
	*store.Memory
	closed atomic.Int32
}

func (c *closeCounter) Close() error {
	c.closed.Add(1)
	return nil
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// fixture returns the raw world-state fixture, with one more fissure per
// extra id.
func fixture(t *testing.T, extraFissures ...string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../pkg/worldstate/testdata/worldstate.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(extraFissures) == 0 {
		return data
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	missions := doc["ActiveMissions"].([]any)
	template := missions[0].(map[string]any)
	for _, id := range extraFissures {
		f := make(map[string]any, len(template))
		for k, v := range template {
			f[k] = v
		}
		f["_id"] = map[string]any{"$oid": id}
		missions = append(missions, f)
	}
	doc["ActiveMissions"] = missions
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return l
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// newTestApp builds an App over fakes. The returned source feeds the poller.
func newTestApp(t *testing.T, opts ...Option) (*App, *fakeSource) {
	t.Helper()
	src := &fakeSource{body: fixture(t)}
	base := []Option{
		WithSource(src),
		WithContextProvider(staticContexts{}),
		WithStore(store.NewMemory()),
		WithMetrics(testMetrics(t)),
	}
	a, err := New(context.Background(), config.Default(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a, src
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestNewRegistry_Drivers(t *testing.T) {
	t.Parallel()

	got := NewRegistry().StoreDrivers()
	want := []string{config.DriverMemory, config.DriverPostgres, config.DriverSQLite}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StoreDrivers mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_UnregisteredDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Store.Driver = "bogus"
	_, err := New(context.Background(), cfg,
		WithContextProvider(staticContexts{}),
		WithMetrics(testMetrics(t)),
	)
	if !errors.Is(err, config.ErrDriverNotRegistered) {
		t.Fatalf("New error = %v, want ErrDriverNotRegistered", err)
	}
}

func TestNew_DefaultsToRealSubsystems(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Data.CacheDir = t.TempDir()
	a, err := New(context.Background(), cfg, WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if a.fetcher == nil {
		t.Error("fetcher not created from config")
	}
	if _, ok := a.contexts.(*provider.Provider); !ok {
		t.Errorf("contexts = %T, want *provider.Provider", a.contexts)
	}
	if a.notifier != nil {
		t.Error("notifier created without a discord token")
	}
	want := []string{
		"query_worldstate", "list_fissures", "find_node", "resolve_path", "duviri_cycle",
	}
	if diff := cmp.Diff(want, a.MCP().ToolNames()); diff != "" {
		t.Errorf("tool names mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ServesAndStops(t *testing.T) {
	t.Parallel()

	l := listen(t)
	a, _ := newTestApp(t, WithListener(l))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := "http://" + l.Addr().String()
	waitFor(t, "first snapshot", func() bool {
		resp, err := http.Get(url + "/v1/worldstate")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	resp, err := http.Get(url + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_NotifiesNewFissures(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	cfg := config.Default()
	cfg.Notify.Discord.ChannelID = "channel"
	src := &fakeSource{body: fixture(t)}
	a, err := New(context.Background(), cfg,
		WithSource(src),
		WithContextProvider(staticContexts{}),
		WithStore(store.NewMemory()),
		WithMetrics(testMetrics(t)),
		WithDiscordSender(sender),
		WithListener(listen(t)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	waitFor(t, "first snapshot", func() bool {
		_, _, ok := a.Poller().Latest()
		return ok
	})
	if got := sender.sent(); len(got) != 0 {
		t.Fatalf("first snapshot announced %v", got)
	}

	// Changing the interval re-polls immediately.
	src.set(fixture(t, "66aa00000000000000000001"))
	a.Poller().SetInterval(time.Minute)

	waitFor(t, "fissure notification", func() bool { return len(sender.sent()) == 1 })
	if got, want := sender.sent()[0], "Steel Path Axi Fissure"; got != want {
		t.Errorf("embed title = %q, want %q", got, want)
	}
}

func TestApplyConfig(t *testing.T) {
	t.Parallel()

	level := new(slog.LevelVar)
	a, err := New(context.Background(), config.Default(),
		WithContextProvider(staticContexts{}),
		WithStore(store.NewMemory()),
		WithMetrics(testMetrics(t)),
		WithLogLevel(level),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	old := config.Default()
	next := config.Default()
	next.Server.LogLevel = config.LogDebug
	next.Sources.PollInterval = 30 * time.Second
	next.Sources.Mirrors = []string{"https://mirror.example.com/worldState.php"}
	next.Server.ListenAddr = ":9090"

	a.applyConfig(next, config.Diff(old, next))

	if got := level.Level(); got != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", got)
	}
	if got := a.Poller().Interval(); got != 30*time.Second {
		t.Errorf("poll interval = %s, want 30s", got)
	}
	want := []string{config.DefaultWorldstateURL, "https://mirror.example.com/worldState.php"}
	if diff := cmp.Diff(want, a.fetcher.Sources()); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestReload(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	if err := a.Reload(); !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("Reload without config file = %v, want ErrNoConfigFile", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sources:\n  poll_interval: 60s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	level := new(slog.LevelVar)
	b, _ := newTestApp(t, WithConfigPath(path), WithLogLevel(level))

	if err := os.WriteFile(path, []byte("server:\n  log_level: warn\nsources:\n  poll_interval: 45s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := b.Poller().Interval(); got != 45*time.Second {
		t.Errorf("poll interval = %s, want 45s", got)
	}
	if got := level.Level(); got != slog.LevelWarn {
		t.Errorf("log level = %v, want warn", got)
	}

	if err := os.WriteFile(path, []byte("server:\n  log_level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(); err == nil {
		t.Error("Reload accepted an invalid file")
	}
	if got := b.Poller().Interval(); got != 45*time.Second {
		t.Errorf("poll interval after failed reload = %s, want 45s", got)
	}
}

func TestShutdown_ClosesOwnedStoreOnce(t *testing.T) {
	t.Parallel()

	st := &closeCounter{Memory: store.NewMemory()}
	reg := config.NewRegistry()
	reg.RegisterStore(config.DriverMemory, func(context.Context, config.StoreConfig) (store.Store, error) {
		return st, nil
	})

	a, err := New(context.Background(), config.Default(),
		WithRegistry(reg),
		WithSource(&fakeSource{body: fixture(t)}),
		WithContextProvider(staticContexts{}),
		WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if got := st.closed.Load(); got != 1 {
		t.Errorf("Close called %d times, want 1", got)
	}
}

func TestShutdown_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	a.closers = append(a.closers, func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Shutdown(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Shutdown error = %v, want context.Canceled", err)
	}
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	if err := a.RunMCP(context.Background(), "carrier-pigeon", ""); err == nil {
		t.Fatal("RunMCP accepted an unknown transport")
	}
}
