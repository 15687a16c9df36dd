// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package screen binds a login screen's widgets to a [login.ViewModel].
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/z5labs/mvi/pkg/auth"
	"github.com/z5labs/mvi/pkg/logfield"
	"github.com/z5labs/mvi/pkg/login"
	"github.com/z5labs/mvi/pkg/stream"
	"github.com/z5labs/mvi/pkg/tracelog"
)

// LoggedMessage is the notification shown once a login succeeds.
const LoggedMessage = "User Is Logged"

// Widgets are the parts of the screen which react to state.
type Widgets interface {
	// ShowBusy toggles the progress indicator.
	ShowBusy(visible bool)

	// SetInputsEnabled toggles both credential fields.
	SetInputsEnabled(enabled bool)

	// Notify shows a short lived message.
	Notify(msg string)
}

// Inputs are the raw event sources of the screen. A nil channel never fires.
type Inputs struct {
	EmailChanges    <-chan string
	PasswordChanges <-chan string
	LoginClicks     <-chan struct{}
}

type options struct {
	logHandler slog.Handler
	exec       stream.Executor
	vmOpts     []login.Option
}

// Option configures [Attach].
type Option func(*options)

// LogHandler sets the handler used by the screen and its view model.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// RenderOn sets the executor widgets are updated on.
func RenderOn(exec stream.Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

// ViewModelOptions are passed through to [login.NewViewModel].
func ViewModelOptions(opts ...login.Option) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, opts...)
	}
}

// Screen is an attached login screen.
type Screen struct {
	log     *slog.Logger
	vm      *login.ViewModel
	widgets Widgets

	// only touched from the render executor
	logged bool

	stopObserving func()
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	detachOnce    sync.Once
	detachErr     error
}

// Attach creates the screen's view model, starts rendering its state to w
// and begins turning in's events into actions. Events are consumed until
// ctx is cancelled or Detach is called.
func Attach(ctx context.Context, svc auth.Service, w Widgets, in Inputs, opts ...Option) (*Screen, error) {
	o := &options{
		logHandler: tracelog.Discard,
		exec:       stream.Inline,
	}
	for _, opt := range opts {
		opt(o)
	}

	vmOpts := append([]login.Option{
		login.LogHandler(o.logHandler),
		login.RenderOn(o.exec),
	}, o.vmOpts...)

	vm, err := login.NewViewModel(svc, vmOpts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Screen{
		log:     tracelog.New(o.logHandler).With(logfield.String("screen", "login")),
		vm:      vm,
		widgets: w,
		cancel:  cancel,
	}
	s.stopObserving = vm.State().Observe(s.render)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.bind(ctx, in)
	}()
	return s, nil
}

// ViewModel returns the view model backing the screen.
func (s *Screen) ViewModel() *login.ViewModel {
	return s.vm
}

// Dispatch forwards a to the view model.
func (s *Screen) Dispatch(ctx context.Context, a login.Action) {
	s.vm.Dispatch(ctx, a)
}

// Detach stops event handling and rendering and closes the view model.
func (s *Screen) Detach() error {
	s.detachOnce.Do(func() {
		s.stopObserving()
		s.cancel()
		s.wg.Wait()
		s.detachErr = s.vm.Close()
	})
	return s.detachErr
}

// bind dispatches a LoginRequest with the latest email and password on
// every click. Clicks before both fields have a value are ignored.
func (s *Screen) bind(ctx context.Context, in Inputs) {
	var email, password string
	var haveEmail, havePassword bool

	emails, passwords, clicks := in.EmailChanges, in.PasswordChanges, in.LoginClicks
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-emails:
			if !ok {
				emails = nil
				continue
			}
			email, haveEmail = v, true
		case v, ok := <-passwords:
			if !ok {
				passwords = nil
				continue
			}
			password, havePassword = v, true
		case _, ok := <-clicks:
			if !ok {
				clicks = nil
				continue
			}
			if !haveEmail || !havePassword {
				s.log.DebugContext(ctx, "ignoring click until both credentials have been entered")
				continue
			}
			s.vm.Dispatch(ctx, login.LoginRequest{Email: email, Password: password})
		}
	}
}

func (s *Screen) render(st login.State) {
	s.widgets.ShowBusy(st.Loading)
	s.widgets.SetInputsEnabled(!st.Loading)

	if st.Logged && !s.logged {
		s.widgets.Notify(LoggedMessage)
	}
	s.logged = st.Logged

	// TODO: surface errors once the screen has an error label.
	if st.Err != nil && !st.Loading {
		var verr auth.ValidationError
		s.log.Warn(
			"state carries an error which is not rendered",
			logfield.Bool("validation", errors.As(st.Err, &verr)),
			logfield.Error(st.Err),
		)
	}
}
