// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app builds the loginmvi command line application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/z5labs/mvi"
	mviapp "github.com/z5labs/mvi/pkg/app"
	"github.com/z5labs/mvi/pkg/auth"
	"github.com/z5labs/mvi/pkg/logfield"
	"github.com/z5labs/mvi/pkg/login"
	"github.com/z5labs/mvi/pkg/looper"
	"github.com/z5labs/mvi/pkg/maskslog"
	"github.com/z5labs/mvi/pkg/otelconfig"
	"github.com/z5labs/mvi/pkg/screen"
	"github.com/z5labs/mvi/pkg/tracelog"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Operation is what the user asked the screen to do.
type Operation int

const (
	OperationLogin Operation = iota
	OperationRegister
)

// Request carries the credentials given on the command line.
type Request struct {
	Operation   Operation
	Email       string
	Password    string
	DisplayName string
}

// ErrRejected is returned when the service answered but did not accept the request.
var ErrRejected = errors.New("request was rejected")

// UnknownAuthModeError is returned for an unsupported auth.mode.
type UnknownAuthModeError struct {
	Mode AuthMode
}

// Error implements the [builtin.error] interface.
func (e UnknownAuthModeError) Error() string {
	return fmt.Sprintf("unknown auth mode: %q", e.Mode)
}

// Builder returns an [mvi.AppBuilder] which performs req against the
// configured service and writes the screen to out.
func Builder(req Request, out, logOut io.Writer) mvi.AppBuilder[Config] {
	return mvi.AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (mvi.App, error) {
		return Init(ctx, cfg, req, out, logOut)
	})
}

// Init wires the service, screen and tracing together for req.
func Init(ctx context.Context, cfg Config, req Request, out, logOut io.Writer) (mvi.App, error) {
	logHandler := tracelog.NewHandler(maskslog.NewHandler(
		slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: cfg.Log.Level,
		}),
		maskslog.Attr("email", maskslog.Email),
		maskslog.Attr("password", maskslog.Anonymous),
	))

	zl := newZapLogger(logOut, cfg.Log.Level)

	svc, err := newService(cfg, zl)
	if err != nil {
		return nil, err
	}

	tpInit, err := otelconfig.FromConfig(cfg.OTel)
	if err != nil {
		return nil, err
	}

	r := &runner{
		log:        tracelog.New(logHandler),
		logHandler: logHandler,
		svc:        svc,
		req:        req,
		out:        out,
	}

	var a mvi.App = mvi.AppFunc(r.Run)
	a = mviapp.WithTracing(a, tpInit)
	a = mviapp.WithLifecycleHooks(a, mviapp.Lifecycle{
		PostRun: mviapp.LifecycleHookFunc(func(context.Context) error {
			// stderr sync fails on some platforms
			_ = zl.Sync()
			return nil
		}),
	})
	a = mviapp.WithSignalNotifications(a, os.Interrupt)
	return mviapp.Recover(a), nil
}

func newService(cfg Config, zl *zap.Logger) (auth.Service, error) {
	var svc auth.Service
	switch cfg.Auth.Mode {
	case "", AuthModeStub:
		svc = auth.NewStub(
			auth.LoginDelay(cfg.Auth.LoginDelay),
			auth.RegisterDelay(cfg.Auth.RegisterDelay),
		)
	case AuthModeHTTP:
		svc = auth.NewClient(
			cfg.Auth.BaseURL,
			auth.MaxAttempts(cfg.Auth.MaxAttempts),
			auth.RetryAttemptLogger(zl),
		)
	default:
		return nil, UnknownAuthModeError{Mode: cfg.Auth.Mode}
	}

	opts := []auth.CircuitOption{
		auth.CircuitName("auth"),
		auth.CircuitLogger(zl),
	}
	if cfg.Auth.Circuit.TripCount > 0 {
		opts = append(opts, auth.CircuitTripCount(cfg.Auth.Circuit.TripCount))
	}
	if cfg.Auth.Circuit.Timeout > 0 {
		opts = append(opts, auth.CircuitTimeout(cfg.Auth.Circuit.Timeout))
	}
	return auth.Validating(auth.CircuitBreaker(svc, opts...)), nil
}

func newZapLogger(w io.Writer, lvl slog.Level) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapLevel(lvl))
	return zap.New(core)
}

func zapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl < slog.LevelInfo:
		return zapcore.DebugLevel
	case lvl < slog.LevelWarn:
		return zapcore.InfoLevel
	case lvl < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

type runner struct {
	log        *slog.Logger
	logHandler slog.Handler
	svc        auth.Service
	req        Request
	out        io.Writer
}

func (r *runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := looper.New(looper.LogHandler(r.logHandler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(gctx)
	})

	var st login.State
	g.Go(func() error {
		defer cancel()

		var err error
		st, err = r.interact(gctx, l)
		return err
	})

	err := g.Wait()
	if err != nil {
		return err
	}
	return r.result(st)
}

func (r *runner) interact(ctx context.Context, l *looper.Looper) (login.State, error) {
	emails := make(chan string)
	passwords := make(chan string)
	clicks := make(chan struct{})

	scr, err := screen.Attach(
		ctx,
		r.svc,
		NewTerminal(r.out),
		screen.Inputs{
			EmailChanges:    emails,
			PasswordChanges: passwords,
			LoginClicks:     clicks,
		},
		screen.LogHandler(r.logHandler),
		screen.RenderOn(l),
		screen.ViewModelOptions(
			login.TracerProvider(otel.GetTracerProvider()),
			login.MeterProvider(otel.GetMeterProvider()),
		),
	)
	if err != nil {
		return login.State{}, err
	}

	switch r.req.Operation {
	case OperationRegister:
		r.log.InfoContext(ctx, "registering", logfield.Email(r.req.Email))
		scr.Dispatch(ctx, login.RegisterRequest{
			Email:       r.req.Email,
			Password:    r.req.Password,
			DisplayName: r.req.DisplayName,
		})
	default:
		r.log.InfoContext(ctx, "logging in", logfield.Email(r.req.Email))
		// unbuffered so each event is consumed before the next is sent
		ok := send(ctx, emails, r.req.Email) &&
			send(ctx, passwords, r.req.Password) &&
			send(ctx, clicks, struct{}{})
		if !ok {
			return login.State{}, errors.Join(ctx.Err(), scr.Detach())
		}
	}

	st, err := scr.ViewModel().Await(ctx, settled)
	return st, errors.Join(err, scr.Detach())
}

func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}

func settled(s login.State) bool {
	return !s.Idle && !s.Loading
}

func (r *runner) result(st login.State) error {
	if st.Err != nil {
		fmt.Fprintf(r.out, "failed: %s\n", st.Err)
		return st.Err
	}

	var ok bool
	switch r.req.Operation {
	case OperationRegister:
		ok = st.Registered
		fmt.Fprintf(r.out, "registered: %t\n", ok)
	default:
		ok = st.Logged
		fmt.Fprintf(r.out, "logged in: %t\n", ok)
	}
	if !ok {
		return ErrRejected
	}
	return nil
}
