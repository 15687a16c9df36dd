// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stream

import (
	"sync"
	"sync/atomic"
)

// Executor runs submitted callbacks. Implementations must run callbacks
// in submission order and Post must not block on the caller.
type Executor interface {
	Post(func())
}

// ExecutorFunc is a functional implementation of the [Executor] interface.
type ExecutorFunc func(func())

// Post implements the [Executor] interface.
func (f ExecutorFunc) Post(task func()) {
	f(task)
}

// Inline runs every callback on the goroutine which posted it.
var Inline Executor = ExecutorFunc(func(task func()) { task() })

// Replay is a hot value stream which remembers its latest value and
// replays it to every new observer.
type Replay[T any] struct {
	exec Executor

	// deliverMu keeps Publish and Observe from reordering
	// deliveries to the same observer.
	deliverMu sync.Mutex

	mu        sync.Mutex
	value     T
	observers map[uint64]*observer[T]
	nextID    uint64
}

type observer[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// NewReplay returns a Replay seeded with initial whose observers are
// notified through exec. A nil exec falls back to [Inline].
func NewReplay[T any](initial T, exec Executor) *Replay[T] {
	if exec == nil {
		exec = Inline
	}
	return &Replay[T]{
		exec:      exec,
		value:     initial,
		observers: make(map[uint64]*observer[T]),
	}
}

// Value returns the latest value.
func (r *Replay[T]) Value() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Publish replaces the latest value and notifies every observer.
func (r *Replay[T]) Publish(v T) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	r.value = v
	obs := make([]*observer[T], 0, len(r.observers))
	for _, o := range r.observers {
		obs = append(obs, o)
	}
	r.mu.Unlock()

	for _, o := range obs {
		r.deliver(o, v)
	}
}

// Observe registers fn and immediately schedules it with the latest value.
// The returned func stops any further deliveries, including ones already
// scheduled on the Executor. fn must not call Observe or Publish.
func (r *Replay[T]) Observe(fn func(T)) (cancel func()) {
	o := &observer[T]{fn: fn}
	o.active.Store(true)

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = o
	v := r.value
	r.mu.Unlock()

	r.deliver(o, v)

	return func() {
		o.active.Store(false)

		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

func (r *Replay[T]) deliver(o *observer[T], v T) {
	r.exec.Post(func() {
		if !o.active.Load() {
			return
		}
		o.fn(v)
	})
}
