// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package auth provides the authentication services a login screen talks to.
//
// Every implementation reports the outcome as a plain bool. Malformed input
// is reported with a [ValidationError] so callers can tell a rejected
// request apart from an unreachable backend.
package auth

import (
	"context"
	"fmt"
)

// Service authenticates existing users and registers new ones.
type Service interface {
	Login(ctx context.Context, email, password string) (bool, error)
	Register(ctx context.Context, email, password, displayName string) (bool, error)
}

// ValidationError is returned when a request is rejected because of its input.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the [builtin.error] interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StatusError is returned by [Client] for unexpected HTTP response codes.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

// Error implements the [builtin.error] interface.
func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status code from %s: %d", e.Endpoint, e.StatusCode)
}
