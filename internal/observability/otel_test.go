package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/snapquest/go-snapquest-backend/internal/config"
)

func otelConfig(insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: "snapquest-test",
		SampleRatio: 1.0,
	}
}

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	restoreGlobals(t)

	prevTP := otel.GetTracerProvider()
	cfg := otelConfig(true)
	cfg.Enabled = false

	shutdown, err := SetupOTel(context.Background(), cfg, "v0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown errored: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup replaced the tracer provider")
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelConfig(true), "v1.2.3")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
	}

	// Propagator round-trip should not panic and should carry trace context.
	prop := otel.GetTextMapPropagator()
	carrier := propagation.MapCarrier{}
	ctx, span := otel.Tracer("test").Start(context.Background(), "span")
	span.End()
	prop.Inject(ctx, carrier)
	_ = prop.Extract(context.Background(), carrier)
}

func TestSetupOTel_TLSBranch(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelConfig(false), "v2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, span := otel.Tracer("tls-test").Start(context.Background(), "child")
	span.End()
}

func TestSetupOTel_CanceledContextStillSucceeds(t *testing.T) {
	restoreGlobals(t)

	// Exporter construction is lazy; a canceled context must not fail setup.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, otelConfig(true), "v3")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_ConstructionErrorsLeaveGlobalsIntact(t *testing.T) {
	restoreGlobals(t)

	t.Run("exporter error", func(t *testing.T) {
		orig := otlpExporterFn
		defer func() { otlpExporterFn = orig }()
		otlpExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
			return nil, errors.New("exporter down")
		}

		prevTP := otel.GetTracerProvider()
		if _, err := SetupOTel(context.Background(), otelConfig(true), "v0"); err == nil {
			t.Fatalf("expected error")
		}
		if otel.GetTracerProvider() != prevTP {
			t.Fatalf("tracer provider replaced on failure")
		}
	})

	t.Run("resource error", func(t *testing.T) {
		orig := serviceResourceFn
		defer func() { serviceResourceFn = orig }()
		serviceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
			return nil, errors.New("resource down")
		}

		prevProp := otel.GetTextMapPropagator()
		if _, err := SetupOTel(context.Background(), otelConfig(true), "v0"); err == nil {
			t.Fatalf("expected error")
		}
		if otel.GetTextMapPropagator() != prevProp {
			t.Fatalf("propagator replaced on failure")
		}
	})
}

func TestSetupOTel_ShutdownAndSpanSmoke(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := SetupOTel(context.Background(), otelConfig(true), "v4")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, span := otel.Tracer("smoke").Start(context.Background(), "root",
		trace.WithSpanKind(trace.SpanKindInternal))
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown errored: %v", err)
	}
}
