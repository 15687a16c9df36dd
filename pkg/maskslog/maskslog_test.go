// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package maskslog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Message  string `json:"msg"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Request  struct {
		Email string `json:"email"`
	} `json:"request"`
}

func decode(t *testing.T, buf *bytes.Buffer) record {
	t.Helper()

	var r record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
	return r
}

func TestHandler_Handle(t *testing.T) {
	t.Run("will not mask attrs", func(t *testing.T) {
		t.Run("if no masking funcs are registered", func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil)))

			logger.Info("hello world", slog.String("email", "ann@example.com"))

			r := decode(t, &buf)
			assert.Equal(t, "hello world", r.Message)
			assert.Equal(t, "ann@example.com", r.Email)
		})
	})

	t.Run("will mask attrs", func(t *testing.T) {
		t.Run("if the key matches a masking func", func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(
				slog.NewJSONHandler(&buf, nil),
				Attr("email", Email),
				Attr("password", Anonymous),
			))

			logger.Info("logging in", slog.String("email", "ann@example.com"), slog.String("password", "pw"))

			r := decode(t, &buf)
			assert.Equal(t, "a***@example.com", r.Email)
			assert.Equal(t, "****", r.Password)
		})

		t.Run("if the attr is nested in a group", func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil), Attr("email", Email)))

			logger.Info("logging in", slog.Group("request", slog.String("email", "ann@example.com")))

			r := decode(t, &buf)
			assert.Equal(t, "a***@example.com", r.Request.Email)
		})

		t.Run("if the attr was added with With", func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil), Attr("password", Anonymous)))

			logger.With(slog.String("password", "pw")).Info("hello")

			r := decode(t, &buf)
			assert.Equal(t, "****", r.Password)
		})

		t.Run("if the attr is logged after a WithGroup", func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(slog.NewJSONHandler(&buf, nil), Attr("email", Email)))

			logger.WithGroup("request").Info("hello", slog.String("email", "ann@example.com"))

			r := decode(t, &buf)
			assert.Equal(t, "a***@example.com", r.Request.Email)
		})
	})
}

func TestEmail(t *testing.T) {
	testCases := []struct {
		Name  string
		Email string
		Value string
	}{
		{Name: "masks the local part", Email: "ann@example.com", Value: "a***@example.com"},
		{Name: "keeps an empty local part", Email: "@example.com", Value: "@example.com"},
		{Name: "masks values without a domain", Email: "ann", Value: "***"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			attr := Email(slog.String("email", testCase.Email))
			assert.Equal(t, "email", attr.Key)
			assert.Equal(t, testCase.Value, attr.Value.String())
		})
	}
}
