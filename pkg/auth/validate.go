// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"strings"
)

// Validating wraps svc so malformed credentials are rejected with a
// [ValidationError] before svc is called.
func Validating(svc Service) Service {
	return validatingService{next: svc}
}

type validatingService struct {
	next Service
}

// Login implements the [Service] interface.
func (s validatingService) Login(ctx context.Context, email, password string) (bool, error) {
	err := validateCredentials(email, password)
	if err != nil {
		return false, err
	}
	return s.next.Login(ctx, email, password)
}

// Register implements the [Service] interface.
func (s validatingService) Register(ctx context.Context, email, password, displayName string) (bool, error) {
	err := validateCredentials(email, password)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(displayName) == "" {
		return false, ValidationError{Field: "displayName", Reason: "must not be empty"}
	}
	return s.next.Register(ctx, email, password, displayName)
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Reason: "must not be empty"}
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return ValidationError{Field: "email", Reason: "must be of the form local@domain"}
	}
	if password == "" {
		return ValidationError{Field: "password", Reason: "must not be empty"}
	}
	return nil
}
