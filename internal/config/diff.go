package config

import (
	"slices"
	"time"
)

// ConfigDiff describes what changed between two configs.
// Hot-reloadable fields carry their new value; everything else is only
// reported in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	PollIntervalChanged bool
	NewPollInterval     time.Duration

	MirrorsChanged bool
	NewMirrors     []string

	// RestartRequired lists the YAML paths of changed fields that only take
	// effect after a restart.
	RestartRequired []string
}

// Empty reports whether no field changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.PollIntervalChanged && !d.MirrorsChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Sources.PollInterval != new.Sources.PollInterval {
		d.PollIntervalChanged = true
		d.NewPollInterval = new.Sources.PollInterval
	}
	if !slices.Equal(old.Sources.Mirrors, new.Sources.Mirrors) {
		d.MirrorsChanged = true
		d.NewMirrors = slices.Clone(new.Sources.Mirrors)
	}

	restart := func(path string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, path)
		}
	}
	restart("server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr)
	restart("server.tls", !equalTLS(old.Server.TLS, new.Server.TLS))
	restart("sources.worldstate_url", old.Sources.WorldstateURL != new.Sources.WorldstateURL)
	restart("sources.export_index_url", old.Sources.ExportIndexURL != new.Sources.ExportIndexURL)
	restart("sources.manifest_base_url", old.Sources.ManifestBaseURL != new.Sources.ManifestBaseURL)
	restart("sources.timeout", old.Sources.Timeout != new.Sources.Timeout)
	restart("data", old.Data != new.Data)
	restart("store", old.Store != new.Store)
	restart("notify", old.Notify != new.Notify)

	return d
}

func equalTLS(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
