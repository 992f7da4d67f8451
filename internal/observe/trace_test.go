package observe

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exp
}

// captureDefaultLog routes the default slog logger into a buffer for the
// duration of the test. Tests using it must not run in parallel.
func captureDefaultLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestCorrelationID(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without span = %q, want empty", got)
	}

	tp, _ := newTestTracerProvider(t)
	ctx, span := tp.Tracer("test").Start(context.Background(), "packager.run")
	defer span.End()

	cid := CorrelationID(ctx)
	if b, err := hex.DecodeString(cid); err != nil || len(b) != 16 {
		t.Errorf("CorrelationID = %q, want 32 hex digits", cid)
	}
}

func TestStartSpan_UsesGlobalProvider(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	ctx, span := StartSpan(context.Background(), "install.files")
	if CorrelationID(ctx) == "" {
		t.Error("StartSpan returned a context without a trace ID")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "install.files" {
		t.Fatalf("recorded spans = %v, want one install.files span", spans)
	}
}

func TestRunID(t *testing.T) {
	if got := RunID(context.Background()); got != "" {
		t.Errorf("RunID(background) = %q, want empty", got)
	}
	if got := RunID(WithRunID(context.Background(), "run-42")); got != "run-42" {
		t.Errorf("RunID = %q, want run-42", got)
	}
}

func TestLogger_Attributes(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "archive.run")
	defer span.End()

	tests := []struct {
		name    string
		ctx     context.Context
		want    []string
		wantNot []string
	}{
		{
			name:    "plain context",
			ctx:     context.Background(),
			wantNot: []string{"run_id", "trace_id", "span_id"},
		},
		{
			name:    "run id only",
			ctx:     WithRunID(context.Background(), "run-42"),
			want:    []string{"run_id=run-42"},
			wantNot: []string{"trace_id"},
		},
		{
			name:    "span only",
			ctx:     spanCtx,
			want:    []string{"trace_id=" + CorrelationID(spanCtx), "span_id="},
			wantNot: []string{"run_id"},
		},
		{
			name: "run id and span",
			ctx:  WithRunID(spanCtx, "run-7"),
			want: []string{"run_id=run-7", "trace_id=", "span_id="},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureDefaultLog(t)
			Logger(tc.ctx).Info("copying")

			logged := buf.String()
			for _, w := range tc.want {
				if !strings.Contains(logged, w) {
					t.Errorf("log line lacks %q: %s", w, logged)
				}
			}
			for _, w := range tc.wantNot {
				if strings.Contains(logged, w) {
					t.Errorf("log line should not contain %q: %s", w, logged)
				}
			}
		})
	}
}

func TestLogger_RestoresDefault(t *testing.T) {
	before := slog.Default()
	t.Run("capture", func(t *testing.T) {
		captureDefaultLog(t)
		if slog.Default() == before {
			t.Fatal("default logger was not replaced")
		}
	})
	if slog.Default() != before {
		t.Error("default logger not restored after the subtest")
	}
}
