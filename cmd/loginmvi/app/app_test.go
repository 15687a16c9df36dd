// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/z5labs/mvi"
	"github.com/z5labs/mvi/pkg/auth"
	"github.com/z5labs/mvi/pkg/config"
	"github.com/z5labs/mvi/pkg/screen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequest(t *testing.T, req Request, overrides config.Map) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := mvi.Run(
		ctx,
		Builder(req, &out, io.Discard),
		config.FromYaml(bytes.NewReader(DefaultConfig)),
		config.Map{"auth": map[string]any{"loginDelay": "10ms", "registerDelay": "20ms"}},
		overrides,
	)
	return out.String(), err
}

func TestInit(t *testing.T) {
	t.Run("will log in", func(t *testing.T) {
		t.Run("with the stub service", func(t *testing.T) {
			out, err := runRequest(t, Request{
				Operation: OperationLogin,
				Email:     "a@b.com",
				Password:  "pw",
			}, nil)
			require.NoError(t, err)

			assert.Contains(t, out, "... working")
			assert.Contains(t, out, "[inputs disabled]")
			assert.Contains(t, out, ">> "+screen.LoggedMessage)
			assert.Contains(t, out, "logged in: true")
		})
	})

	t.Run("will register", func(t *testing.T) {
		t.Run("with the stub service", func(t *testing.T) {
			out, err := runRequest(t, Request{
				Operation:   OperationRegister,
				Email:       "a@b.com",
				Password:    "pw",
				DisplayName: "Ann",
			}, nil)
			require.NoError(t, err)

			assert.Contains(t, out, "registered: true")
			assert.NotContains(t, out, screen.LoggedMessage)
		})

		t.Run("with the http service", func(t *testing.T) {
			var got map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/register" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(`{"success":true}`))
			}))
			defer srv.Close()

			out, err := runRequest(t, Request{
				Operation:   OperationRegister,
				Email:       "a@b.com",
				Password:    "pw",
				DisplayName: "Ann",
			}, config.Map{"auth": map[string]any{"mode": "http", "baseUrl": srv.URL}})
			require.NoError(t, err)

			assert.Contains(t, out, "registered: true")
			assert.Equal(t, "Ann", got["displayName"])
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the credentials are invalid", func(t *testing.T) {
			out, err := runRequest(t, Request{
				Operation: OperationLogin,
				Email:     "not-an-email",
				Password:  "pw",
			}, nil)

			var verr auth.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, "email", verr.Field)
			assert.Contains(t, out, "failed:")
		})

		t.Run("if the service rejects the request", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false}`))
			}))
			defer srv.Close()

			out, err := runRequest(t, Request{
				Operation: OperationLogin,
				Email:     "a@b.com",
				Password:  "pw",
			}, config.Map{"auth": map[string]any{"mode": "http", "baseUrl": srv.URL}})

			if !assert.ErrorIs(t, err, ErrRejected) {
				return
			}
			assert.Contains(t, out, "logged in: false")
		})

		t.Run("if the auth mode is unknown", func(t *testing.T) {
			_, err := runRequest(t, Request{Operation: OperationLogin}, config.Map{
				"auth": map[string]any{"mode": "ldap"},
			})

			var berr mvi.AppBuildError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			var merr UnknownAuthModeError
			if !assert.ErrorAs(t, err, &merr) {
				return
			}
			assert.Equal(t, AuthMode("ldap"), merr.Mode)
		})
	})
}

func TestTerminal(t *testing.T) {
	t.Run("will only write state changes", func(t *testing.T) {
		var buf bytes.Buffer
		term := NewTerminal(&buf)

		term.ShowBusy(false)
		term.SetInputsEnabled(true)
		term.ShowBusy(true)
		term.SetInputsEnabled(false)
		term.ShowBusy(true)
		term.ShowBusy(false)
		term.SetInputsEnabled(true)
		term.Notify(screen.LoggedMessage)

		assert.Equal(t, "... working\n[inputs disabled]\n[inputs enabled]\n>> User Is Logged\n", buf.String())
	})
}

func TestInit_logging(t *testing.T) {
	t.Run("will mask the email address", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var logs bytes.Buffer
		err := mvi.Run(
			ctx,
			Builder(Request{Operation: OperationLogin, Email: "ann@example.com", Password: "pw"}, io.Discard, &logs),
			config.FromYaml(bytes.NewReader(DefaultConfig)),
			config.Map{"auth": map[string]any{"loginDelay": "10ms"}},
		)
		require.NoError(t, err)

		assert.Contains(t, logs.String(), `"email":"a***@example.com"`)
		assert.NotContains(t, logs.String(), "ann@example.com")
	})
}
