package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Store driver names.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ValidStoreDrivers lists the store drivers [Validate] accepts.
var ValidStoreDrivers = []string{DriverMemory, DriverPostgres, DriverSQLite}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Sources
	src := cfg.Sources
	errs = appendURLErr(errs, "sources.worldstate_url", src.WorldstateURL)
	errs = appendURLErr(errs, "sources.export_index_url", src.ExportIndexURL)
	errs = appendURLErr(errs, "sources.manifest_base_url", src.ManifestBaseURL)
	for i, m := range src.Mirrors {
		errs = appendURLErr(errs, fmt.Sprintf("sources.mirrors[%d]", i), m)
	}
	if src.PollInterval < MinPollInterval {
		errs = append(errs, fmt.Errorf("sources.poll_interval %s is below the minimum of %s", src.PollInterval, MinPollInterval))
	}
	if src.Timeout < 0 {
		errs = append(errs, fmt.Errorf("sources.timeout %s must not be negative", src.Timeout))
	}
	if len(src.Mirrors) == 0 {
		slog.Warn("config: no sources.mirrors configured; a failing worldstate_url has no fallback")
	}
	if src.Timeout > src.PollInterval && src.PollInterval > 0 {
		slog.Warn("config: sources.timeout exceeds sources.poll_interval", "timeout", src.Timeout, "poll_interval", src.PollInterval)
	}

	// Store
	switch {
	case !slices.Contains(ValidStoreDrivers, cfg.Store.Driver):
		errs = append(errs, fmt.Errorf("store.driver %q is invalid; valid values: %v", cfg.Store.Driver, ValidStoreDrivers))
	case cfg.Store.Driver != DriverMemory && cfg.Store.DSN == "":
		errs = append(errs, fmt.Errorf("store.dsn is required for driver %q", cfg.Store.Driver))
	}
	if cfg.Store.Retain < 0 {
		errs = append(errs, fmt.Errorf("store.retain %d must not be negative", cfg.Store.Retain))
	}

	// Notify
	if d := cfg.Notify.Discord; d.Token != "" && d.ChannelID == "" {
		errs = append(errs, errors.New("notify.discord.channel_id is required when a token is set"))
	}

	return errors.Join(errs...)
}

// appendURLErr appends an error to errs when raw is not an absolute http(s)
// URL.
func appendURLErr(errs []error, field, raw string) []error {
	u, err := url.Parse(raw)
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", field, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return append(errs, fmt.Errorf("%s %q must be an absolute http(s) URL", field, raw))
	}
	return errs
}
