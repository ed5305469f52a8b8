package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ulikunitz/xz/lzma"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const (
	regionsJSON = `{"ExportRegions":[{"uniqueName":"SolNode27","name":"E Prime","systemIndex":2,
		"systemName":"Earth","nodeType":4,"masteryReq":0,"missionIndex":1,"factionIndex":0,
		"minEnemyLevel":1,"maxEnemyLevel":3}]}`
	relicsJSON = `{"ExportRelicArcane":[{"uniqueName":"/Lotus/Types/Game/Projections/T1VoidProjectionVaultA",
		"name":"Lith A1 Relic","codexSecret":false,"description":"","relicRewards":[
		{"rewardName":"/Lotus/StoreItems/Weapons/Tenno/Pistol/PrimeKnell","rarity":"RARE","tier":0,"itemCount":1}]}]}`
	customsJSON = `{"ExportCustoms":[{"uniqueName":"/Lotus/Upgrades/Skins/Excalibur/ExcaliburDeluxeSkin",
		"name":"Excalibur Dex Skin","codexSecret":false,"excludeFromCodex":false}]}`
)

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

// encodeIndex lzma-compresses an export index listing every required
// manifest at version.
func encodeIndex(t *testing.T, version string) []byte {
	t.Helper()
	var text strings.Builder
	for _, key := range worldstate.RequiredManifests {
		fmt.Fprintf(&text, "%s!%s\r\n", key, version)
	}
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		t.Fatalf("lzma writer: %v", err)
	}
	if _, err := w.Write([]byte(text.String())); err != nil {
		t.Fatalf("lzma write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("lzma close: %v", err)
	}
	return buf.Bytes()
}

// upstream fakes the public export host.
type upstream struct {
	*httptest.Server
	version       atomic.Value // string
	manifestHits  atomic.Int64
	indexRequests atomic.Int64
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.version.Store("00_v1")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /PublicExport/index_en.txt.lzma", func(w http.ResponseWriter, _ *http.Request) {
		u.indexRequests.Add(1)
		w.Write(encodeIndex(t, u.version.Load().(string)))
	})
	mux.HandleFunc("GET /PublicExport/Manifest/{file}", func(w http.ResponseWriter, r *http.Request) {
		u.manifestHits.Add(1)
		switch worldstate.ManifestPrefix(r.PathValue("file")) {
		case worldstate.ManifestRegions:
			w.Write([]byte(regionsJSON))
		case worldstate.ManifestRelicArcane:
			w.Write([]byte(relicsJSON))
		case worldstate.ManifestCustoms:
			w.Write([]byte(customsJSON))
		default:
			http.NotFound(w, r)
		}
	})
	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func testOptions(t *testing.T, u *upstream) Options {
	t.Helper()
	return Options{
		IndexURL:        u.URL + "/PublicExport/index_en.txt.lzma",
		ManifestBaseURL: u.URL + "/PublicExport/Manifest/",
		CacheDir:        t.TempDir(),
		Dirs:            Dirs{Data: "testdata/data", Drops: "testdata/drops", Assets: "testdata/assets"},
		Client:          u.Client(),
		Metrics:         testMetrics(t),
	}
}

// ── Provider ──────────────────────────────────────────────────────────────────

func TestProvider_Context(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	p, err := New(testOptions(t, u))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c, err := p.Context(context.Background())
	if err != nil {
		t.Fatalf("Context: %v", err)
	}

	if n := c.CustomMaps.Nodes["SolNode27"]; n == nil || n.Name != "E Prime" || !n.IsDarkSector {
		t.Errorf("SolNode27 = %+v", n)
	}
	if n := c.CustomMaps.Nodes["CrewBattleNode501"]; n == nil || n.Name != "Mordo Cluster" {
		t.Errorf("crew battle node not appended: %+v", n)
	}
	if r := c.CustomMaps.Relics["/Lotus/Types/Game/Projections/T1VoidProjectionVaultA"]; r == nil || r.Name != "Lith A1 Relic" {
		t.Errorf("relic = %+v", r)
	}
	if got := c.Data.LanguageItems["/lotus/language/challenges/seasonDailyKillEnemies"].Value; got != "Eliminator" {
		t.Errorf("extended language item = %q, want override", got)
	}
	if got := c.Data.Hubs["MercuryHUB"]; got != "Larunda Relay" {
		t.Errorf("hub = %q", got)
	}
	if got := c.Data.Hubs["EarthHUB"]; got != "Strata Relay" {
		t.Errorf("hub without suffix = %q", got)
	}
	if _, ok := c.Data.Hubs["SolNode27"]; ok {
		t.Error("non-hub node in hub table")
	}
	if len(c.Data.Bounties.SortieRewards) != 1 || len(c.Data.Bounties.Cetus) != 1 {
		t.Errorf("bounties = %+v", c.Data.Bounties)
	}
	if got := c.Data.Sortie.Bosses["SORTIE_BOSS_HYENA"].Faction; got != worldstate.BossFactionCorpus {
		t.Errorf("boss faction = %q", got)
	}
	if got := c.Data.ArchonShards["/Lotus/StoreItems/Types/Gameplay/NarmerSorties/ArchonCrystalAmar"]; got != "Crimson Archon Shard" {
		t.Errorf("archon shard = %q", got)
	}
	if p.BuiltAt().IsZero() {
		t.Error("BuiltAt is zero after a build")
	}
}

func TestProvider_ReusesContextUntilMaxAge(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	opts := testOptions(t, u)
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	opts.MaxAge = time.Hour
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := p.Context(context.Background())
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	second, _ := p.Context(context.Background())
	if first != second {
		t.Error("Context rebuilt before MaxAge")
	}
	if got := u.indexRequests.Load(); got != 1 {
		t.Errorf("index requests = %d, want 1", got)
	}

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()
	third, err := p.Context(context.Background())
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if third == first {
		t.Error("Context not rebuilt after MaxAge")
	}
	// Same manifest versions: served from the disk cache.
	if got := u.manifestHits.Load(); got != 3 {
		t.Errorf("manifest downloads = %d, want 3", got)
	}
}

func TestProvider_NewVersionEvictsCache(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	opts := testOptions(t, u)
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	u.version.Store("00_v2")
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := u.manifestHits.Load(); got != 6 {
		t.Errorf("manifest downloads = %d, want 6", got)
	}

	entries, err := os.ReadDir(opts.CacheDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 3 {
		t.Fatalf("cache files = %v, want 3", names)
	}
	for _, n := range names {
		if !strings.Contains(n, "!00_v2") {
			t.Errorf("stale cache file %q survived", n)
		}
	}
}

func TestProvider_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing urls", func(t *testing.T) {
		t.Parallel()
		if _, err := New(Options{CacheDir: t.TempDir()}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("index unavailable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)
		p, err := New(Options{
			IndexURL: srv.URL + "/index", ManifestBaseURL: srv.URL, CacheDir: t.TempDir(),
			Client:   srv.Client(), Metrics: testMetrics(t),
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		_, err = p.Context(context.Background())
		if err == nil || !strings.Contains(err.Error(), "404") {
			t.Fatalf("err = %v, want 404", err)
		}
	})

	t.Run("missing static file", func(t *testing.T) {
		t.Parallel()
		u := newUpstream(t)
		opts := testOptions(t, u)
		opts.Dirs.Data = t.TempDir()
		p, err := New(opts)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := p.Context(context.Background()); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("err = %v, want ErrNotExist", err)
		}
	})

	t.Run("through FromProvider", func(t *testing.T) {
		t.Parallel()
		u := newUpstream(t)
		opts := testOptions(t, u)
		opts.Dirs.Assets = t.TempDir()
		p, err := New(opts)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		doc, err := os.ReadFile("../../pkg/worldstate/testdata/worldstate.json")
		if err != nil {
			t.Fatal(err)
		}
		_, err = worldstate.FromProvider(context.Background(), doc, p)
		var pe *worldstate.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %v, want *ProviderError", err)
		}
	})
}

// ── Index and cache ───────────────────────────────────────────────────────────

func TestDecodeIndex(t *testing.T) {
	t.Parallel()
	text, err := DecodeIndex(encodeIndex(t, "00_abc"))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if !strings.Contains(text, worldstate.ManifestRegions+"!00_abc") {
		t.Errorf("decoded index missing regions line:\n%s", text)
	}
	if _, err := DecodeIndex([]byte("plain text")); err == nil {
		t.Error("DecodeIndex accepted a non-lzma payload")
	}
}

func TestManifestCache_CorruptFileIsMiss(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c, err := NewManifestCache(dir, testMetrics(t))
	if err != nil {
		t.Fatalf("NewManifestCache: %v", err)
	}
	file := worldstate.ManifestRegions + "!00_v1"
	if err := os.WriteFile(filepath.Join(dir, file+cacheExt), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	fetched := 0
	fetch := func(context.Context) ([]byte, error) { fetched++; return []byte(regionsJSON), nil }
	for range 2 {
		data, err := c.Load(context.Background(), file, fetch)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(data) != regionsJSON {
			t.Errorf("Load returned %q", data)
		}
	}
	if fetched != 1 {
		t.Errorf("fetch called %d times, want 1 (second load hits the rewritten cache)", fetched)
	}
}
