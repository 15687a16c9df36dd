// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mvi

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/z5labs/mvi/internal/try"
	"github.com/z5labs/mvi/pkg/config"
)

// App is what a command runs once its config has been decoded,
// e.g. attaching a login screen and waiting for its outcome.
type App interface {
	Run(context.Context) error
}

// AppFunc is a functional implementation of the [App] interface.
type AppFunc func(context.Context) error

// Run implements the [App] interface.
func (f AppFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// AppBuilder wires an [App] from its decoded config.
type AppBuilder[T any] interface {
	Build(ctx context.Context, cfg T) (App, error)
}

// AppBuilderFunc is a functional implementation of
// the [AppBuilder] interface.
type AppBuilderFunc[T any] func(context.Context, T) (App, error)

// Build implements the [AppBuilder] interface.
func (f AppBuilderFunc[T]) Build(ctx context.Context, cfg T) (App, error) {
	return f(ctx, cfg)
}

// Run applies srcs in order, later ones overriding earlier ones, decodes
// the result into a T and runs the [App] builder returns for it.
// A panicking builder is reported as an [AppBuildError].
func Run[T any](ctx context.Context, builder AppBuilder[T], srcs ...config.Source) error {
	cfg, err := decode[T](srcs)
	if err != nil {
		return err
	}

	var app App
	err = try.Call(func() (err error) {
		app, err = builder.Build(ctx, cfg)
		return err
	})
	if err == nil && app == nil {
		err = ErrNilApp
	}
	if err != nil {
		return AppBuildError{Cause: err}
	}

	err = app.Run(ctx)
	if err != nil {
		return AppRunError{Cause: err}
	}
	return nil
}

func decode[T any](srcs []config.Source) (T, error) {
	var cfg T

	indexed := make([]config.Source, len(srcs))
	for i, src := range srcs {
		i, src := i, src
		indexed[i] = config.SourceFunc(func(store config.Store) error {
			err := src.Apply(store)
			if err != nil {
				return ConfigReadError{Source: i, Cause: err}
			}
			return nil
		})
	}

	m, err := config.Read(indexed...)
	if err != nil {
		return cfg, err
	}

	err = m.Unmarshal(&cfg)
	if err != nil {
		return cfg, ConfigUnmarshalError{
			Type:  reflect.TypeOf(&cfg).Elem().String(),
			Cause: err,
		}
	}
	return cfg, nil
}

// ErrNilApp is the cause of an [AppBuildError] when a builder
// returns neither an [App] nor an error.
var ErrNilApp = errors.New("builder returned a nil app")

// ConfigReadError reports which of the sources given to [Run] failed to apply.
type ConfigReadError struct {
	// Source is the position of the failing source in the arguments to Run.
	Source int
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("config source #%d: %s", e.Source, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError is returned by [Run] when the merged sources do not
// fit the builder's config type, e.g. "auth.loginDelay: soon".
type ConfigUnmarshalError struct {
	// Type is the Go type the config was decoded into.
	Type  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("config does not fit %s: %s", e.Type, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// AppBuildError is returned by [Run] when wiring the [App] failed,
// for example because of an unknown auth mode or exporter.
type AppBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppBuildError) Error() string {
	return fmt.Sprintf("wiring app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppBuildError) Unwrap() error {
	return e.Cause
}

// AppRunError wraps the error the [App] returned, typically the
// failure carried by the screen's final state.
type AppRunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppRunError) Error() string {
	return e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppRunError) Unwrap() error {
	return e.Cause
}
