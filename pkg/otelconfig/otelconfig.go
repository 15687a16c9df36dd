// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig initializes the tracer provider spans from the
// login pipelines are exported through.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Common holds the settings shared by every exporter.
type Common struct {
	ServiceName string `config:"serviceName"`
}

// CommonOption configures both the local and the OTLP exporter.
type CommonOption interface {
	LocalOption
	OTLPOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName sets the service.name resource attribute of exported spans.
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

// Initializer builds the tracer provider an app installs for its lifetime.
type Initializer interface {
	Init() (trace.TracerProvider, error)
}

// Noop discards every span.
var Noop Initializer = noopInitializer{}

type noopInitializer struct{}

func (noopInitializer) Init() (trace.TracerProvider, error) {
	return noop.NewTracerProvider(), nil
}

// Exporter names the span exporter an [Initializer] is selected for.
type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// UnknownExporterError is returned by [FromConfig] for an unsupported exporter.
type UnknownExporterError struct {
	Exporter Exporter
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter: %q", e.Exporter)
}

// Config selects and configures an exporter.
type Config struct {
	Common `config:",squash"`

	Exporter Exporter `config:"exporter"`

	// Target is only used by the otlp exporter.
	Target string `config:"target"`
}

// FromConfig returns the [Initializer] named by cfg.Exporter.
// An empty exporter is the same as "none".
func FromConfig(cfg Config) (Initializer, error) {
	switch cfg.Exporter {
	case "", ExporterNone:
		return Noop, nil
	case ExporterStdout:
		return Local(ServiceName(cfg.ServiceName)), nil
	case ExporterOTLP:
		return OTLP(ServiceName(cfg.ServiceName), Target(cfg.Target)), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// LocalConfig configures spans written as JSON lines to Out.
type LocalConfig struct {
	Common

	Out io.Writer
}

// LocalOption configures a [LocalConfig].
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// Writer sets where the local exporter prints spans. Defaults to os.Stdout.
func Writer(w io.Writer) LocalOption {
	return localOptionFunc(func(cfg *LocalConfig) {
		cfg.Out = w
	})
}

// Local exports spans as JSON to a writer.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements the [Initializer] interface.
func (cfg LocalConfig) Init() (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(cfg.Common)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

func newResource(c Common) (*resource.Resource, error) {
	return resource.New(
		context.Background(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(c.ServiceName),
		),
	)
}
