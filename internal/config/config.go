// Package config provides the configuration schema, loader, hot-reload
// watcher, and store-driver registry for the world-state service.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to the matching [slog.Level]. Unknown values map to Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Defaults applied by [ApplyDefaults] to zero-valued fields.
const (
	DefaultListenAddr      = ":8080"
	DefaultWorldstateURL   = "https://api.warframe.com/cdn/worldState.php"
	DefaultExportIndexURL  = "https://origin.warframe.com/PublicExport/index_en.txt.lzma"
	DefaultManifestBaseURL = "http://content.warframe.com/PublicExport/Manifest/"
	DefaultPollInterval    = 60 * time.Second
	DefaultTimeout         = 15 * time.Second
	DefaultRetain          = 100

	// MinPollInterval is the shortest poll interval [Validate] accepts.
	MinPollInterval = 10 * time.Second
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sources SourcesConfig `yaml:"sources"`
	Data    DataConfig    `yaml:"data"`
	Store   StoreConfig   `yaml:"store"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// ServerConfig holds network and logging settings for the HTTP API.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// SourcesConfig names the upstream endpoints.
type SourcesConfig struct {
	// WorldstateURL serves the raw world-state document.
	WorldstateURL string `yaml:"worldstate_url"`

	// Mirrors are fallback world-state URLs tried in order when
	// WorldstateURL fails.
	Mirrors []string `yaml:"mirrors"`

	// ExportIndexURL serves the lzma-compressed public export index.
	ExportIndexURL string `yaml:"export_index_url"`

	// ManifestBaseURL is joined with a versioned manifest file name.
	ManifestBaseURL string `yaml:"manifest_base_url"`

	// PollInterval is the delay between world-state fetches. It may be
	// changed while running.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds every single upstream request.
	Timeout time.Duration `yaml:"timeout"`
}

// DataConfig locates the on-disk inputs of the context provider.
type DataConfig struct {
	// CacheDir holds downloaded manifests, one zstd file per version.
	CacheDir string `yaml:"cache_dir"`

	// DataDir holds languages.json, solNodes.json and sortieData.json.
	DataDir string `yaml:"data_dir"`

	// DropsDir holds data.json with the bounty and sortie drop tables.
	DropsDir string `yaml:"drops_dir"`

	// AssetsDir holds the curated extension files (extended language items,
	// archon tables, crew battle nodes).
	AssetsDir string `yaml:"assets_dir"`
}

// StoreConfig selects the snapshot store driver.
type StoreConfig struct {
	// Driver names a driver registered in the [Registry]: memory, postgres
	// or sqlite.
	Driver string `yaml:"driver"`

	// DSN is the driver-specific connection string. Required for postgres
	// and sqlite.
	DSN string `yaml:"dsn"`

	// Retain is the number of snapshots kept after each save.
	Retain int `yaml:"retain"`
}

// NotifyConfig configures outbound notifications.
type NotifyConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig enables posting new alerts and fissures to a channel. An
// empty Token disables the notifier.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether a bot token is configured.
func (d DiscordConfig) Enabled() bool { return d.Token != "" }

// ApplyDefaults fills every zero-valued field that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}

	s := &cfg.Sources
	if s.WorldstateURL == "" {
		s.WorldstateURL = DefaultWorldstateURL
	}
	if s.ExportIndexURL == "" {
		s.ExportIndexURL = DefaultExportIndexURL
	}
	if s.ManifestBaseURL == "" {
		s.ManifestBaseURL = DefaultManifestBaseURL
	}
	if s.PollInterval == 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}

	d := &cfg.Data
	if d.CacheDir == "" {
		d.CacheDir = "cache"
	}
	if d.DataDir == "" {
		d.DataDir = "data"
	}
	if d.DropsDir == "" {
		d.DropsDir = "drops"
	}
	if d.AssetsDir == "" {
		d.AssetsDir = "assets"
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Store.Retain == 0 {
		cfg.Store.Retain = DefaultRetain
	}
}
