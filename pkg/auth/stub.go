// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"time"
)

// Default delays of the [Stub] service.
const (
	DefaultLoginDelay    = 2 * time.Second
	DefaultRegisterDelay = 3 * time.Second
)

// StubOption configures a [Stub].
type StubOption func(*Stub)

// LoginDelay sets how long Login takes to answer.
func LoginDelay(d time.Duration) StubOption {
	return func(s *Stub) {
		s.loginDelay = d
	}
}

// RegisterDelay sets how long Register takes to answer.
func RegisterDelay(d time.Duration) StubOption {
	return func(s *Stub) {
		s.registerDelay = d
	}
}

// FailWith makes every call return err once its delay has elapsed.
func FailWith(err error) StubOption {
	return func(s *Stub) {
		s.err = err
	}
}

// Stub is a Service which accepts every request after a fixed delay.
type Stub struct {
	loginDelay    time.Duration
	registerDelay time.Duration
	err           error
}

// NewStub returns a Stub answering after [DefaultLoginDelay] and [DefaultRegisterDelay].
func NewStub(opts ...StubOption) *Stub {
	s := &Stub{
		loginDelay:    DefaultLoginDelay,
		registerDelay: DefaultRegisterDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login implements the [Service] interface.
func (s *Stub) Login(ctx context.Context, email, password string) (bool, error) {
	return s.answer(ctx, s.loginDelay)
}

// Register implements the [Service] interface.
func (s *Stub) Register(ctx context.Context, email, password, displayName string) (bool, error) {
	return s.answer(ctx, s.registerDelay)
}

func (s *Stub) answer(ctx context.Context, d time.Duration) (bool, error) {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-t.C:
		}
	}
	if s.err != nil {
		return false, s.err
	}
	return true, nil
}
