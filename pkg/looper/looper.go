// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package looper provides a single goroutine task loop which plays the role
// of a UI main thread: every posted task runs on it, one at a time, in the
// order it was posted.
package looper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/mvi/pkg/logfield"
	"github.com/z5labs/mvi/pkg/tracelog"
)

// Option configures a Looper.
type Option func(*Looper)

// LogHandler sets the handler used to report panicking tasks.
func LogHandler(h slog.Handler) Option {
	return func(l *Looper) {
		l.log = tracelog.New(h)
	}
}

// Looper queues tasks without bound so Post never blocks.
type Looper struct {
	log *slog.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
}

// New returns an idle Looper. Tasks posted before Run are kept until it starts.
func New(opts ...Option) *Looper {
	l := &Looper{
		log:  tracelog.New(nil),
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post implements the stream.Executor interface.
func (l *Looper) Post(task func()) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// ErrAlreadyRunning is returned if Run is called on a Looper which is already running.
var ErrAlreadyRunning = errors.New("looper: already running")

// Run executes tasks until ctx is cancelled. Tasks still queued at
// cancellation are dropped. A panicking task is logged and does not
// stop the loop.
func (l *Looper) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return nil
			}
			l.run(ctx, task)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

func (l *Looper) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Looper) run(ctx context.Context, task func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		l.log.ErrorContext(ctx, "recovered from panicking task", logfield.Error(fmt.Errorf("%v", r)))
	}()

	task()
}
