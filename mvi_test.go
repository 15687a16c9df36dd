// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mvi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/mvi/internal/try"
	"github.com/z5labs/mvi/pkg/config"

	"github.com/stretchr/testify/assert"
)

type runConfig struct {
	Auth struct {
		LoginDelay time.Duration `config:"loginDelay"`
	} `config:"auth"`
}

func TestRun(t *testing.T) {
	t.Run("will build the app from the decoded config", func(t *testing.T) {
		var got time.Duration
		builder := AppBuilderFunc[runConfig](func(ctx context.Context, cfg runConfig) (App, error) {
			got = cfg.Auth.LoginDelay
			return AppFunc(func(context.Context) error { return nil }), nil
		})

		err := Run(
			context.Background(),
			builder,
			config.FromYaml(strings.NewReader("auth:\n  loginDelay: 2s\n")),
			config.Map{"auth": map[string]any{"loginDelay": "10ms"}},
		)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 10*time.Millisecond, got)
	})

	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if a config source fails to apply", func(t *testing.T) {
			srcErr := errors.New("failed to apply")
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				return nil, nil
			})

			err := Run(context.Background(), builder, config.Map{"auth": map[string]any{}}, config.SourceFunc(func(config.Store) error {
				return srcErr
			}))

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			assert.ErrorIs(t, rerr, srcErr)
			assert.Equal(t, 1, rerr.Source)
			assert.Contains(t, rerr.Error(), "config source #1")
		})
	})

	t.Run("will return a ConfigUnmarshalError", func(t *testing.T) {
		t.Run("if the config does not fit the config type", func(t *testing.T) {
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				return nil, nil
			})

			err := Run(context.Background(), builder, config.Map{
				"auth": map[string]any{"loginDelay": "eventually"},
			})

			var uerr ConfigUnmarshalError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			assert.Equal(t, "mvi.runConfig", uerr.Type)
			assert.Contains(t, uerr.Error(), "mvi.runConfig")
		})
	})

	t.Run("will return an AppBuildError", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				return nil, buildErr
			})

			err := Run(context.Background(), builder)

			var berr AppBuildError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			assert.ErrorIs(t, berr, buildErr)
		})

		t.Run("if the builder returns a nil app", func(t *testing.T) {
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				return nil, nil
			})

			err := Run(context.Background(), builder)
			assert.ErrorIs(t, err, ErrNilApp)
		})

		t.Run("if the builder panics", func(t *testing.T) {
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				panic("no auth service configured")
			})

			var err error
			assert.NotPanics(t, func() {
				err = Run(context.Background(), builder)
			})

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			assert.Equal(t, "no auth service configured", perr.Value)

			var berr AppBuildError
			assert.ErrorAs(t, err, &berr)
		})
	})

	t.Run("will return an AppRunError", func(t *testing.T) {
		t.Run("if the app fails", func(t *testing.T) {
			runErr := errors.New("failed to run")
			builder := AppBuilderFunc[runConfig](func(context.Context, runConfig) (App, error) {
				return AppFunc(func(context.Context) error { return runErr }), nil
			})

			err := Run(context.Background(), builder)

			var rerr AppRunError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			assert.ErrorIs(t, rerr, runErr)
		})
	})
}
