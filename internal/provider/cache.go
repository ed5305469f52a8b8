package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// cacheExt is appended to the versioned manifest name of a cache file.
const cacheExt = ".json.zst"

// ManifestCache stores downloaded manifests on disk, one zstd-compressed
// file per manifest version. Storing a new version deletes every older file
// that shares its prefix (the part before '!').
type ManifestCache struct {
	dir     string
	metrics *observe.Metrics
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewManifestCache creates dir if needed.
func NewManifestCache(dir string, m *observe.Metrics) (*ManifestCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("provider: cache dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &ManifestCache{dir: dir, metrics: m, enc: enc, dec: dec}, nil
}

// path returns the cache file for a versioned manifest name.
func (c *ManifestCache) path(file string) string {
	return filepath.Join(c.dir, file+cacheExt)
}

// Load returns the cached content of file, or calls fetch on a miss and
// stores the result. A corrupt cache file counts as a miss.
func (c *ManifestCache) Load(ctx context.Context, file string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	key := worldstate.ManifestPrefix(file)
	if data, err := c.read(file); err == nil {
		c.metrics.RecordCacheLookup(ctx, key, true)
		slog.Debug("provider: manifest cache hit", "file", file)
		return data, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("provider: discarding unreadable cache file", "file", file, "err", err)
	}
	c.metrics.RecordCacheLookup(ctx, key, false)

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store(file, data); err != nil {
		// The manifest is usable even if it could not be cached.
		slog.Warn("provider: cache write failed", "file", file, "err", err)
	}
	return data, nil
}

func (c *ManifestCache) read(file string) ([]byte, error) {
	blob, err := os.ReadFile(c.path(file))
	if err != nil {
		return nil, err
	}
	return c.dec.DecodeAll(blob, nil)
}

// store removes older versions of file and writes the new one through a
// temporary file so readers never see a partial write.
func (c *ManifestCache) store(file string, data []byte) error {
	if err := c.evict(worldstate.ManifestPrefix(file)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(c.enc.EncodeAll(data, nil)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(file))
}

// evict deletes every cache file whose name starts with prefix.
func (c *ManifestCache) evict(prefix string) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
		slog.Info("provider: evicted stale manifest", "file", e.Name())
	}
	return nil
}
