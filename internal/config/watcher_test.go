package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/worldstate/internal/config"
)

const baseYAML = `
server:
  log_level: info
sources:
  poll_interval: 60s
  mirrors:
    - https://mirror.example.com/worldState.php
`

// reloads records every callback invocation.
type reloads struct {
	mu    sync.Mutex
	diffs []config.ConfigDiff
	seen  chan struct{}
}

func newReloads() *reloads { return &reloads{seen: make(chan struct{}, 16)} }

func (r *reloads) fn(_ *config.Config, d config.ConfigDiff) {
	r.mu.Lock()
	r.diffs = append(r.diffs, d)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *reloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diffs)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// manualWatcher returns a watcher that only reloads through Reload.
func manualWatcher(t *testing.T, r *reloads) (*config.Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, baseYAML)
	var fn config.ReloadFunc
	if r != nil {
		fn = r.fn
	}
	w, err := config.NewWatcher(path, fn, config.WithInterval(-1))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, path
}

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantChanged bool
		wantErr     bool
		want        config.ConfigDiff
	}{
		{
			name:    "same bytes",
			content: baseYAML,
		},
		{
			name:    "comment only",
			content: "# poll faster later\n" + baseYAML,
		},
		{
			name:    "hot fields",
			content: `
server:
  log_level: debug
sources:
  poll_interval: 30s
`,
			wantChanged: true,
			want: config.ConfigDiff{
				LogLevelChanged:     true,
				NewLogLevel:         config.LogDebug,
				PollIntervalChanged: true,
				NewPollInterval:     30 * time.Second,
				MirrorsChanged:      true,
				NewMirrors:          nil,
			},
		},
		{
			name:    "restart fields",
			content: baseYAML + `
store:
  driver: sqlite
  dsn: /var/lib/worldstate/snapshots.db
`,
			wantChanged: true,
			want:        config.ConfigDiff{RestartRequired: []string{"store"}},
		},
		{
			name:    "invalid level",
			content: "server:\n  log_level: shouting\n",
			wantErr: true,
		},
		{
			name:    "unknown key",
			content: "sources:\n  poll_every: 5s\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newReloads()
			w, path := manualWatcher(t, r)
			before := w.Current()

			writeConfig(t, path, tt.content)
			d, changed, err := w.Reload()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Reload error = %v, wantErr %v", err, tt.wantErr)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if tt.wantErr {
				if w.Current() != before {
					t.Error("failed reload replaced the current config")
				}
				return
			}
			if tt.wantChanged {
				if diff := cmp.Diff(tt.want, d); diff != "" {
					t.Errorf("diff mismatch (-want +got):\n%s", diff)
				}
			}
			wantCalls := 0
			if tt.wantChanged {
				wantCalls = 1
			}
			if got := r.count(); got != wantCalls {
				t.Errorf("callback calls = %d, want %d", got, wantCalls)
			}
		})
	}
}

func TestWatcher_PollsModifiedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, baseYAML)
	r := newReloads()
	w, err := config.NewWatcher(path, r.fn, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "sources:\n  poll_interval: 15s\n")
	// Some filesystems keep a coarse mtime; force a visible change.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case <-r.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after the file changed")
	}
	if got := w.Current().Sources.PollInterval; got != 15*time.Second {
		t.Errorf("Current poll_interval = %s, want 15s", got)
	}
}

func TestWatcher_TouchDoesNotReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, baseYAML)
	r := newReloads()
	w, err := config.NewWatcher(path, r.fn, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := r.count(); got != 0 {
		t.Errorf("touch fired %d reloads", got)
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("NewWatcher accepted a missing file")
	}
}

func TestWatcher_ReloadAfterStop(t *testing.T) {
	t.Parallel()

	w, _ := manualWatcher(t, nil)
	w.Stop()
	w.Stop()
	if _, _, err := w.Reload(); !errors.Is(err, config.ErrWatcherStopped) {
		t.Errorf("Reload after Stop = %v, want ErrWatcherStopped", err)
	}
}
