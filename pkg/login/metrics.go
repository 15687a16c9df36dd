// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

import (
	"context"
	"time"

	"github.com/z5labs/mvi/pkg/logfield"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/z5labs/mvi/pkg/login"

type metrics struct {
	dispatched metric.Int64Counter
	failed     metric.Int64Counter
	duration   metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(instrumentationName)

	dispatched, err := meter.Int64Counter(
		"login.actions.dispatched",
		metric.WithDescription("Number of actions dispatched by the screen"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter(
		"login.requests.failed",
		metric.WithDescription("Number of requests which ended in a Failed change"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"login.request.duration",
		metric.WithDescription("Time spent waiting on the authentication service"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		dispatched: dispatched,
		failed:     failed,
		duration:   duration,
	}, nil
}

func (m *metrics) recordDispatch(ctx context.Context, a Action) {
	m.dispatched.Add(ctx, 1, metric.WithAttributes(kindAttr(a)))
}

func (m *metrics) recordRequest(ctx context.Context, a Action, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(kindAttr(a))
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	if err != nil {
		m.failed.Add(ctx, 1, attrs)
	}
}

func kindAttr(a Action) attribute.KeyValue {
	return attribute.String("action.kind", logfield.KindOf(a))
}
