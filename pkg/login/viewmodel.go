// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

import (
	"context"
	"log/slog"
	"sync"

	"github.com/z5labs/mvi/pkg/auth"
	"github.com/z5labs/mvi/pkg/logfield"
	"github.com/z5labs/mvi/pkg/stream"

	"golang.org/x/sync/errgroup"
)

// ViewModel owns the action stream of one login screen and exposes the
// state folded from it. It lives from NewViewModel until Close.
type ViewModel struct {
	log     *slog.Logger
	metrics *metrics

	actions *stream.Broadcast[Action]
	state   *stream.Replay[State]

	cancel    context.CancelFunc
	g         *errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// NewViewModel starts the login and register pipelines against svc.
func NewViewModel(svc auth.Service, opts ...Option) (*ViewModel, error) {
	o := newOptions(opts...)

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	log := slog.New(o.logHandler)
	tracer := o.tracerProvider.Tracer(instrumentationName)

	loginPipe := &pipeline[LoginRequest]{
		name:          "login",
		log:           log.With(logfield.String("pipeline", "login")),
		tracer:        tracer,
		metrics:       m,
		maxConcurrent: o.maxConcurrent,
		request: func(ctx context.Context, a LoginRequest) (Change, error) {
			ok, err := svc.Login(ctx, a.Email, a.Password)
			return Logged{Success: ok}, err
		},
	}
	registerPipe := &pipeline[RegisterRequest]{
		name:          "register",
		log:           log.With(logfield.String("pipeline", "register")),
		tracer:        tracer,
		metrics:       m,
		maxConcurrent: o.maxConcurrent,
		request: func(ctx context.Context, a RegisterRequest) (Change, error) {
			ok, err := svc.Register(ctx, a.Email, a.Password, a.DisplayName)
			return Registered{Success: ok}, err
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	vm := &ViewModel{
		log:     log,
		metrics: m,
		actions: stream.NewBroadcast[Action](),
		state:   stream.NewReplay(InitialState(), o.exec),
		cancel:  cancel,
		g:       g,
	}

	// Subscribe before returning so no dispatched action can be missed.
	loginSub := vm.actions.Subscribe(o.actionBuffer)
	registerSub := vm.actions.Subscribe(o.actionBuffer)

	changes := make(chan Change)
	g.Go(func() error {
		return loginPipe.run(gctx, loginSub, changes)
	})
	g.Go(func() error {
		return registerPipe.run(gctx, registerSub, changes)
	})
	g.Go(func() error {
		return vm.fold(gctx, changes)
	})
	return vm, nil
}

// fold is the only writer of the state stream.
func (vm *ViewModel) fold(ctx context.Context, changes <-chan Change) error {
	s := vm.state.Value()
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-changes:
			s = Reduce(s, c)
			vm.log.DebugContext(
				ctx,
				"reduced change",
				logfield.Kind("change", c),
				logfield.Bool("loading", s.Loading),
				logfield.Bool("logged", s.Logged),
				logfield.Bool("registered", s.Registered),
			)
			vm.state.Publish(s)
		}
	}
}

// Dispatch hands a to the pipelines. It blocks only while a pipeline's
// action buffer is full and is a no-op after Close.
func (vm *ViewModel) Dispatch(ctx context.Context, a Action) {
	vm.log.DebugContext(ctx, "dispatching action", logfield.Kind("action", a))
	vm.metrics.recordDispatch(ctx, a)
	vm.actions.Dispatch(ctx, a)
}

// State returns the screen's state stream.
func (vm *ViewModel) State() *stream.Replay[State] {
	return vm.state
}

// Await blocks until an observed state satisfies pred. Observers run on
// the executor given by [RenderOn] so that executor must be running.
func (vm *ViewModel) Await(ctx context.Context, pred func(State) bool) (State, error) {
	found := make(chan State, 1)
	cancel := vm.state.Observe(func(s State) {
		if !pred(s) {
			return
		}
		select {
		case found <- s:
		default:
		}
	})
	defer cancel()

	select {
	case <-ctx.Done():
		return State{}, ctx.Err()
	case s := <-found:
		return s, nil
	}
}

// Close cancels every in-flight request and stops the pipelines.
// It is safe to call more than once.
func (vm *ViewModel) Close() error {
	vm.closeOnce.Do(func() {
		vm.cancel()
		vm.actions.Close()
		vm.closeErr = vm.g.Wait()
	})
	return vm.closeErr
}
