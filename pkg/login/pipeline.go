// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/mvi/internal/try"
	"github.com/z5labs/mvi/pkg/logfield"
	"github.com/z5labs/mvi/pkg/stream"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// requestFunc performs the side effect of one action and returns the change
// describing its result.
type requestFunc[A Action] func(context.Context, A) (Change, error)

// pipeline turns every action of kind A into Loading followed by either
// the request's result or Failed. Requests run concurrently with each other.
type pipeline[A Action] struct {
	name          string
	log           *slog.Logger
	tracer        trace.Tracer
	metrics       *metrics
	request       requestFunc[A]
	maxConcurrent int
}

// run consumes sub until ctx is done or sub is closed, then waits for
// in-flight requests. The loop never blocks on the concurrency limit so
// a stuck request can not stall dispatching to other pipelines.
func (p *pipeline[A]) run(ctx context.Context, sub *stream.Subscription[Action], out chan<- Change) error {
	g, gctx := errgroup.WithContext(ctx)

	var slots chan struct{}
	if p.maxConcurrent > 0 {
		slots = make(chan struct{}, p.maxConcurrent)
	}

	for {
		var a Action
		select {
		case <-gctx.Done():
			return g.Wait()
		case <-sub.Done():
			p.log.DebugContext(ctx, "stopping pipeline since its subscription was closed")
			return g.Wait()
		case a = <-sub.C():
		}

		req, ok := a.(A)
		if !ok {
			continue
		}
		g.Go(p.process(gctx, slots, req, out))
	}
}

// process waits for a free slot, if slots is non-nil, before the request starts.
func (p *pipeline[A]) process(ctx context.Context, slots chan struct{}, req A, out chan<- Change) func() error {
	return func() error {
		if slots != nil {
			select {
			case <-ctx.Done():
				return nil
			case slots <- struct{}{}:
			}
			defer func() { <-slots }()
		}

		spanCtx, span := p.tracer.Start(ctx, p.name, trace.WithAttributes(kindAttr(req)))
		defer span.End()

		if !emit(spanCtx, out, Loading{}) {
			return nil
		}

		start := time.Now()
		var result Change
		err := try.Call(func() (err error) {
			result, err = p.request(spanCtx, req)
			return err
		})
		p.metrics.recordRequest(spanCtx, req, time.Since(start), err)

		// A request cut short by teardown has nobody left to report to.
		if spanCtx.Err() != nil {
			return nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.log.ErrorContext(spanCtx, "request failed", logfield.Kind("action", req), logfield.Error(err))

			result = Failed{Cause: AuthenticationFailure{Action: req, Cause: err}}
		}
		emit(spanCtx, out, result)
		return nil
	}
}

func emit(ctx context.Context, out chan<- Change, c Change) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- c:
		return true
	}
}
