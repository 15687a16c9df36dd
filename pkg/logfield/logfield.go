// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logfield provides the slog attributes shared by every screen component.
package logfield

import (
	"fmt"
	"log/slog"
	"time"
)

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Kind returns an slog.Attr naming the dynamic type of an action or change,
// e.g. "LoginRequest".
func Kind(key string, v any) slog.Attr {
	return slog.String(key, KindOf(v))
}

// KindOf returns the unqualified type name of v.
func KindOf(v any) string {
	s := fmt.Sprintf("%T", v)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}

// Email returns an slog.Attr for an email address. Handlers are expected
// to mask it, see the maskslog package.
func Email(email string) slog.Attr {
	return slog.String("email", email)
}
