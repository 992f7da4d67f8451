// Package observe provides the observability primitives used by hmmvoice:
// OpenTelemetry metrics and tracing plus trace-aware structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them into a Prometheus registry that can be dumped to a textfile at
// the end of a run, which suits a batch tool better than a scrape endpoint.
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all hmmvoice metrics.
const meterName = "github.com/MrWong99/hmmvoice"

// Install file statuses reported through [Metrics.RecordFile].
const (
	FileCopied   = "copied"
	FileAbsent   = "absent"
	FileFallback = "fallback"
	FileMissing  = "missing"
	FileFailed   = "failed"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// StageDuration tracks the latency of each packaging stage. Use with
	// attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	// Files counts processed schema roles. Use with attributes:
	//   attribute.String("role", ...), attribute.String("status", ...)
	Files metric.Int64Counter

	// BytesCopied counts bytes written into voice directories.
	BytesCopied metric.Int64Counter

	// Runs counts packaging runs. Use with attribute.String("status", ...).
	Runs metric.Int64Counter

	// ArchiveExits counts archive command completions by exit code class.
	// Use with attribute.String("status", "ok"|"nonzero"|"launch_error").
	ArchiveExits metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for local
// file work and an external zip process.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("hmmvoice.stage.duration",
		metric.WithDescription("Latency of a voice packaging stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Files, err = m.Int64Counter("hmmvoice.install.files",
		metric.WithDescription("Schema roles processed by the installer, by role and status."),
	); err != nil {
		return nil, err
	}
	if met.BytesCopied, err = m.Int64Counter("hmmvoice.install.bytes",
		metric.WithDescription("Bytes copied into voice directories."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("hmmvoice.runs",
		metric.WithDescription("Packaging runs by status."),
	); err != nil {
		return nil, err
	}
	if met.ArchiveExits, err = m.Int64Counter("hmmvoice.archive.exits",
		metric.WithDescription("Archive command completions by status."),
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
// first call using [otel.GetMeterProvider]. Call it after [InitProvider] so the
// instruments are bound to the real provider.
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

// RecordStage records the duration of a packaging stage in seconds.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFile records one processed role.
func (m *Metrics) RecordFile(ctx context.Context, role, status string) {
	m.Files.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("role", role),
			attribute.String("status", status),
		),
	)
}

// RecordBytes adds n to the copied-bytes counter.
func (m *Metrics) RecordBytes(ctx context.Context, n int64) {
	m.BytesCopied.Add(ctx, n)
}

// RecordRun records the outcome of a packaging run.
func (m *Metrics) RecordRun(ctx context.Context, status string) {
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordArchiveExit records how the archive command ended.
func (m *Metrics) RecordArchiveExit(ctx context.Context, status string) {
	m.ArchiveExits.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
