// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

import (
	"log/slog"

	"github.com/z5labs/mvi/pkg/stream"
	"github.com/z5labs/mvi/pkg/tracelog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	logHandler     slog.Handler
	exec           stream.Executor
	actionBuffer   int
	maxConcurrent  int
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a [ViewModel].
type Option func(*options)

// LogHandler sets the handler the view model and its pipelines log to.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = tracelog.NewHandler(h)
	}
}

// RenderOn sets the executor state observers are called on.
// By default observers are called on the goroutine which folds changes.
func RenderOn(exec stream.Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

// ActionBuffer sets how many actions each pipeline buffers before
// Dispatch blocks.
func ActionBuffer(n int) Option {
	return func(o *options) {
		if n < 1 {
			return
		}
		o.actionBuffer = n
	}
}

// MaxConcurrentRequests bounds the in-flight requests of each pipeline.
// Requests over the bound wait for a free slot without holding up Dispatch
// or the other pipeline. Zero keeps the default, which is unbounded.
func MaxConcurrentRequests(n uint) Option {
	return func(o *options) {
		if n == 0 {
			return
		}
		o.maxConcurrent = int(n)
	}
}

// TracerProvider overrides the global otel TracerProvider.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// MeterProvider overrides the global otel MeterProvider.
func MeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		logHandler:     tracelog.Discard,
		exec:           stream.Inline,
		actionBuffer:   16,
		maxConcurrent:  -1,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
