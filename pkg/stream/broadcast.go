// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stream provides the two hot streams used by a screen: a buffered
// broadcast for intents and a replay-1 value holder for rendered state.
package stream

import (
	"context"
	"sync"
)

// Broadcast delivers every dispatched value to all subscriptions which
// are active at the time of the dispatch. Each subscription owns its own
// buffer so a slow subscriber only applies back-pressure to the dispatcher,
// never drops values.
type Broadcast[T any] struct {
	// sendMu serializes dispatchers so every subscription
	// observes the same order.
	sendMu sync.Mutex

	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// NewBroadcast returns an empty Broadcast.
func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Subscription is a single subscriber's view of a Broadcast.
type Subscription[T any] struct {
	b    *Broadcast[T]
	ch   chan T
	done chan struct{}
	once sync.Once
}

// C returns the channel values are delivered on. It is never closed,
// select on Done alongside it.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Done is closed once the subscription or its Broadcast has been closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription. Dispatchers blocked on its buffer are released.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()

	s.stop()
}

func (s *Subscription[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

// Subscribe registers a new subscription with room for buffer pending values.
// A buffer smaller than 1 is raised to 1. Subscribing to a closed Broadcast
// returns a subscription which is already done.
func (b *Broadcast[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}
	s := &Subscription[T]{
		b:    b,
		ch:   make(chan T, buffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.stop()
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Dispatch enqueues v for every active subscription in FIFO order. It blocks while a subscriber's buffer is full
// and returns early if ctx is cancelled or the Broadcast is closed.
func (b *Broadcast[T]) Dispatch(ctx context.Context, v T) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription[T], 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
		case s.ch <- v:
		}
	}
}

// Len reports the number of active subscriptions.
func (b *Broadcast[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later dispatches are discarded.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*Subscription[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.stop()
	}
}
