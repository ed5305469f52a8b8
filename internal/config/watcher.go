package config

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ErrWatcherStopped is returned by [Watcher.Reload] after [Watcher.Stop].
var ErrWatcherStopped = errors.New("config: watcher stopped")

// ReloadFunc receives a newly loaded config and its difference to the
// previous one. It runs on the watcher goroutine, or on the goroutine that
// called [Watcher.Reload].
type ReloadFunc func(cfg *Config, d ConfigDiff)

// Watcher keeps the running config in sync with a YAML file. The file's
// modification time is polled; a change is confirmed by content hash, then
// the file is parsed and validated. Invalid files are logged and ignored.
// Edits that leave every field unchanged, such as comments, do not reach
// the callback.
type Watcher struct {
	path     string
	interval time.Duration
	onReload ReloadFunc

	// reloadMu serialises reloads from the poll loop and from Reload.
	reloadMu sync.Mutex

	mu      sync.Mutex
	current *Config
	mtime   time.Time
	sum     [sha256.Size]byte
	stopped bool

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets how often the file's modification time is checked.
// The default is 5 seconds. A negative value disables polling so the file
// is only re-read through [Watcher.Reload].
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d != 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and starts watching it. onReload may
// be nil.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	f, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.mtime, w.sum = f.cfg, f.mtime, f.sum

	if w.interval > 0 {
		go w.loop()
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Reload re-reads the file now, regardless of its modification time. It
// reports whether the loaded config differs from the current one; the
// callback fires only in that case. On error the current config is kept.
func (w *Watcher) Reload() (ConfigDiff, bool, error) {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return ConfigDiff{}, false, ErrWatcherStopped
	}
	return w.reload()
}

// Stop ends polling and disables Reload. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		close(w.done)
	})
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			mtime, ok := w.modified()
			if !ok {
				continue
			}
			if _, _, err := w.reload(); err != nil {
				slog.Warn("config: keeping previous config", "path", w.path, "err", err)
				// Warn once per broken version of the file.
				w.mu.Lock()
				w.mtime = mtime
				w.mu.Unlock()
			}
		}
	}
}

// modified reports the file's modification time and whether it differs
// from the last one seen.
func (w *Watcher) modified() (time.Time, bool) {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config: cannot stat watched file", "path", w.path, "err", err)
		return time.Time{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return info.ModTime(), !info.ModTime().Equal(w.mtime)
}

// reload swaps in the file's config and fires the callback outside the
// state lock so it may call Current.
func (w *Watcher) reload() (ConfigDiff, bool, error) {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	f, err := readConfigFile(w.path)
	if err != nil {
		return ConfigDiff{}, false, err
	}

	w.mu.Lock()
	prev := w.current
	sameBytes := f.sum == w.sum
	w.mtime, w.sum = f.mtime, f.sum
	if sameBytes {
		w.mu.Unlock()
		return ConfigDiff{}, false, nil
	}
	d := Diff(prev, f.cfg)
	w.current = f.cfg
	w.mu.Unlock()

	if d.Empty() {
		slog.Debug("config: file changed without effective changes", "path", w.path)
		return d, false, nil
	}
	slog.Info("config: reloaded", "path", w.path, "restart_required", d.RestartRequired)
	if w.onReload != nil {
		w.onReload(f.cfg, d)
	}
	return d, true, nil
}

type configFile struct {
	cfg   *Config
	mtime time.Time
	sum   [sha256.Size]byte
}

func readConfigFile(path string) (configFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return configFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return configFile{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return configFile{}, err
	}
	return configFile{cfg: cfg, mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
