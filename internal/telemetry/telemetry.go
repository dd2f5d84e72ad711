// Package telemetry wires OpenTelemetry tracing and metrics export,
// grounded on the zamorofthat-elida example's internal/telemetry/otel.go
// (Config/Provider shape, enabled-gate, stdout-exporter branch) trimmed to
// the stdout exporters this module's go.mod actually carries — no OTLP
// collector dependency exists in this deployment's stack, so the "none"
// exporter and an OTLP branch from the source material are dropped rather
// than carried as dead code.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config controls whether tracing/metrics export is enabled.
type Config struct {
	Enabled     bool
	ServiceName string
}

// Provider owns the tracer/meter providers for the process lifetime.
type Provider struct {
	enabled      bool
	tracer       trace.Tracer
	traceProvider *sdktrace.TracerProvider
	meterProvider *sdkmetric.MeterProvider
}

// NewProvider builds a Provider. When cfg.Enabled is false it returns a
// Provider backed by the global no-op tracer, so callers never need a
// separate disabled code path.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentcore"
	}
	if !cfg.Enabled {
		return &Provider{tracer: otel.Tracer(cfg.ServiceName)}, nil
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(metricExporter),
	))
	otel.SetMeterProvider(mp)

	return &Provider{
		enabled:       true,
		tracer:        tp.Tracer(cfg.ServiceName),
		traceProvider: tp,
		meterProvider: mp,
	}, nil
}

// Tracer returns the tracer for starting spans.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether export is active.
func (p *Provider) Enabled() bool { return p.enabled }

// Shutdown flushes and releases both providers, if active.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.traceProvider != nil {
		if err := p.traceProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if p.meterProvider != nil {
		return p.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Span attribute keys shared across the messaging client and policy
// compiler instrumentation.
const (
	AttrCategory  = "agentcore.messaging.category"
	AttrHost      = "agentcore.messaging.host"
	AttrAssetID   = "agentcore.policy.asset_id"
	AttrRuleCount = "agentcore.policy.rule_count"
)

// StartMessagingSpan starts a span around one messaging client send.
func (p *Provider) StartMessagingSpan(ctx context.Context, category, host string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "messaging.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrCategory, category),
			attribute.String(AttrHost, host),
		),
	)
}

// StartCompileSpan starts a span around one policy source compilation.
func (p *Provider) StartCompileSpan(ctx context.Context, sourceName string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "policy.compile", trace.WithAttributes(
		attribute.String("agentcore.policy.source", sourceName),
	))
}

// EndCompileSpan records the resulting rule count and ends the span.
func EndCompileSpan(span trace.Span, ruleCount int, err error) {
	span.SetAttributes(attribute.Int(AttrRuleCount, ruleCount))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
