// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type circuitOptions struct {
	name         string
	logger       *zap.Logger
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	tripCount    uint32
	isSuccessful func(error) bool
}

// CircuitOption configures [CircuitBreaker].
type CircuitOption func(*circuitOptions)

// CircuitName is the name of the circuit breaker. This will be used to create a named logger
// for logging status changes.
func CircuitName(name string) CircuitOption {
	return func(co *circuitOptions) {
		co.name = name
	}
}

// CircuitLogger sets the logger circuit state changes are reported to.
// Defaults to a no-op logger.
func CircuitLogger(logger *zap.Logger) CircuitOption {
	return func(co *circuitOptions) {
		co.logger = logger
	}
}

// CircuitMaxRequests is the maximum number of requests allowed to pass through
// when the circuit is half-open.
func CircuitMaxRequests(maxRequests uint32) CircuitOption {
	return func(co *circuitOptions) {
		co.maxRequests = maxRequests
	}
}

// CircuitInterval is the cyclic period of the closed state after which the
// failure counts are cleared. Zero never clears them while closed.
func CircuitInterval(interval time.Duration) CircuitOption {
	return func(co *circuitOptions) {
		co.interval = interval
	}
}

// CircuitTimeout is the period of the open state, after which the circuit
// becomes half-open.
func CircuitTimeout(timeout time.Duration) CircuitOption {
	return func(co *circuitOptions) {
		co.timeout = timeout
	}
}

// CircuitTripCount determines the number of consecutive failures required to trip the circuit.
func CircuitTripCount(n uint32) CircuitOption {
	return func(co *circuitOptions) {
		co.tripCount = n
	}
}

// CircuitIsSuccessful overrides which results count as successes.
// f must return true for errors which should not count toward tripping.
func CircuitIsSuccessful(f func(error) bool) CircuitOption {
	return func(co *circuitOptions) {
		co.isSuccessful = f
	}
}

// ToleratedError reports true for nil errors, cancellations and [ValidationError]s.
func ToleratedError(err error) bool {
	if err == nil {
		return true
	}
	var verr ValidationError
	return errors.As(err, &verr) || errors.Is(err, context.Canceled)
}

// CircuitBreaker wraps svc so consecutive failures open a circuit and
// further calls fail fast with gobreaker.ErrOpenState until it recovers.
func CircuitBreaker(svc Service, opts ...CircuitOption) Service {
	co := &circuitOptions{
		name:         "auth",
		logger:       zap.NewNop(),
		tripCount:    5,
		timeout:      60 * time.Second,
		maxRequests:  1,
		isSuccessful: ToleratedError,
	}
	for _, opt := range opts {
		opt(co)
	}

	log := co.logger.Named(co.name)

	return &circuitService{
		next: svc,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        co.name,
			MaxRequests: co.maxRequests,
			Interval:    co.interval,
			Timeout:     co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened", zap.Stringer("from", from))
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is now half open and letting some requests through", zap.Uint32("max_requests_allowed_through", co.maxRequests))
				case gobreaker.StateClosed:
					log.Info("circuit has been closed", zap.Stringer("from", from))
				}
			},
			IsSuccessful: co.isSuccessful,
		}),
	}
}

type circuitService struct {
	next Service
	cb   *gobreaker.CircuitBreaker
}

// Login implements the [Service] interface.
func (s *circuitService) Login(ctx context.Context, email, password string) (bool, error) {
	return s.execute(func() (bool, error) {
		return s.next.Login(ctx, email, password)
	})
}

// Register implements the [Service] interface.
func (s *circuitService) Register(ctx context.Context, email, password, displayName string) (bool, error) {
	return s.execute(func() (bool, error) {
		return s.next.Register(ctx, email, password, displayName)
	})
}

func (s *circuitService) execute(f func() (bool, error)) (bool, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return f()
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
