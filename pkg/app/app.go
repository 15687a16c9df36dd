// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides wrappers for common mvi.App concerns.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/mvi"
	"github.com/z5labs/mvi/internal/try"
	"github.com/z5labs/mvi/pkg/otelconfig"

	"go.opentelemetry.io/otel"
)

// PanicError is returned by a [Recover]ed app for a panic value.
type PanicError = try.PanicError

// Recover wraps app with panic recovery. A recovered panic is
// returned as a [PanicError].
func Recover(app mvi.App) mvi.App {
	return mvi.AppFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications wraps app so the [context.Context] passed to
// app.Run is cancelled once any of signals is received.
func WithSignalNotifications(app mvi.App, signals ...os.Signal) mvi.App {
	return mvi.AppFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// LifecycleHook represents functionality that needs to be performed
// at a specific "time" relative to the execution of [mvi.App.Run].
type LifecycleHook interface {
	Run(context.Context) error
}

// LifecycleHookFunc is a functional implementation of the [LifecycleHook] interface.
type LifecycleHookFunc func(context.Context) error

// Run implements the [LifecycleHook] interface.
func (f LifecycleHookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Lifecycle holds the hooks [WithLifecycleHooks] runs around an app.
type Lifecycle struct {
	// PreRun is executed before the app. If it fails the app is not run.
	PreRun LifecycleHook

	// PostRun is always executed, even if the app fails or panics.
	PostRun LifecycleHook
}

// WithLifecycleHooks wraps app so the hooks in lifecycle run around it.
func WithLifecycleHooks(app mvi.App, lifecycle Lifecycle) mvi.App {
	return mvi.AppFunc(func(ctx context.Context) (err error) {
		if lifecycle.PreRun != nil {
			err = lifecycle.PreRun.Run(ctx)
			if err != nil {
				return err
			}
		}

		defer runPostRunHook(ctx, lifecycle.PostRun, &err)

		return app.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook LifecycleHook, err *error) {
	if hook == nil {
		return
	}

	hookErr := hook.Run(ctx)
	*err = errors.Join(*err, hookErr)
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// WithTracing initializes a tracer provider with init, registers it
// globally for the duration of app and shuts it down afterwards so
// buffered spans are flushed.
func WithTracing(app mvi.App, init otelconfig.Initializer) mvi.App {
	return mvi.AppFunc(func(ctx context.Context) error {
		var tp shutdowner
		wrapped := WithLifecycleHooks(app, Lifecycle{
			PreRun: LifecycleHookFunc(func(context.Context) error {
				p, err := init.Init()
				if err != nil {
					return err
				}
				otel.SetTracerProvider(p)
				tp, _ = p.(shutdowner)
				return nil
			}),
			PostRun: LifecycleHookFunc(func(ctx context.Context) error {
				if tp == nil {
					return nil
				}
				return tp.Shutdown(context.WithoutCancel(ctx))
			}),
		})
		return wrapped.Run(ctx)
	})
}
