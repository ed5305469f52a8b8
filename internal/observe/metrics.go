// Package observe provides application-wide observability primitives for the
// world-state service: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is set up by [InitProvider] so that metrics can be scraped
// via the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/MrWong99/worldstate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// FetchDuration tracks upstream HTTP fetch latency. Use with attribute:
	//   attribute.String("source", ...)
	FetchDuration metric.Float64Histogram

	// ParseDuration tracks parse plus resolve latency of one document.
	ParseDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// FetchRequests counts upstream requests. Use with attributes:
	//   attribute.String("source", ...), attribute.String("status", ...)
	FetchRequests metric.Int64Counter

	// FetchErrors counts failed fetch or parse attempts. Use with attributes:
	//   attribute.String("source", ...), attribute.String("kind", ...)
	FetchErrors metric.Int64Counter

	// SnapshotsStored counts snapshots written. Use with attribute:
	//   attribute.String("driver", ...)
	SnapshotsStored metric.Int64Counter

	// ManifestCache counts manifest cache lookups. Use with attributes:
	//   attribute.String("manifest", ...), attribute.String("result", "hit"|"miss")
	ManifestCache metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// Notifications counts outbound notifications. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	Notifications metric.Int64Counter

	// BreakerTransitions counts circuit breaker state changes. Use with
	// attributes: attribute.String("breaker", ...), attribute.String("state", ...)
	BreakerTransitions metric.Int64Counter

	// --- Gauges ---

	// LiveSubscribers tracks the number of connected live-feed clients.
	LiveSubscribers metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// upstream fetches and document resolution.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.FetchDuration, err = m.Float64Histogram("worldstate.fetch.duration",
		metric.WithDescription("Latency of upstream fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ParseDuration, err = m.Float64Histogram("worldstate.parse.duration",
		metric.WithDescription("Latency of parsing and resolving a world-state document."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("worldstate.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FetchRequests, err = m.Int64Counter("worldstate.fetch.requests",
		metric.WithDescription("Total upstream requests by source and status."),
	); err != nil {
		return nil, err
	}
	if met.FetchErrors, err = m.Int64Counter("worldstate.fetch.errors",
		metric.WithDescription("Total failed fetch or parse attempts by source and kind."),
	); err != nil {
		return nil, err
	}
	if met.SnapshotsStored, err = m.Int64Counter("worldstate.snapshots.stored",
		metric.WithDescription("Total snapshots written by store driver."),
	); err != nil {
		return nil, err
	}
	if met.ManifestCache, err = m.Int64Counter("worldstate.manifest_cache.lookups",
		metric.WithDescription("Manifest cache lookups by manifest and result."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("worldstate.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.Notifications, err = m.Int64Counter("worldstate.notifications",
		metric.WithDescription("Outbound notifications by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.BreakerTransitions, err = m.Int64Counter("worldstate.breaker.transitions",
		metric.WithDescription("Circuit breaker state changes by breaker and new state."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.LiveSubscribers, err = m.Int64UpDownCounter("worldstate.live.subscribers",
		metric.WithDescription("Number of connected live-feed clients."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("worldstate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr wraps a single string attribute as a measurement option to reduce
// verbosity at call sites.
func Attr(key, value string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(key, value))
}

// Status returns "ok" for a nil error and "error" otherwise.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordFetch records one upstream request with its outcome and latency.
func (m *Metrics) RecordFetch(ctx context.Context, source string, seconds float64, err error) {
	m.FetchRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", Status(err)),
		),
	)
	m.FetchDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordFetchError records a failed fetch or parse attempt.
func (m *Metrics) RecordFetchError(ctx context.Context, source, kind string) {
	m.FetchErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("kind", kind),
		),
	)
}

// RecordCacheLookup records a manifest cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, manifest string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ManifestCache.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("manifest", manifest),
			attribute.String("result", result),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordNotification records one outbound notification.
func (m *Metrics) RecordNotification(ctx context.Context, kind string, err error) {
	m.Notifications.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", Status(err)),
		),
	)
}

// RecordBreakerTransition records a circuit breaker entering state.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, breaker, state string) {
	m.BreakerTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("breaker", breaker),
			attribute.String("state", state),
		),
	)
}
