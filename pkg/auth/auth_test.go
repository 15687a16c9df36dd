// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStub(t *testing.T) {
	t.Run("will accept any credentials", func(t *testing.T) {
		svc := NewStub(LoginDelay(0), RegisterDelay(0))

		ok, err := svc.Login(context.Background(), "", "")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.Register(context.Background(), "ahmadnajar@10@gmail.com", "123", "")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("will wait for the configured delay", func(t *testing.T) {
		svc := NewStub(LoginDelay(20 * time.Millisecond))

		start := time.Now()
		_, err := svc.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the context is cancelled during the delay", func(t *testing.T) {
			svc := NewStub()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := svc.Register(ctx, "a@b.com", "pw", "Ann")
			assert.ErrorIs(t, err, context.Canceled)
		})

		t.Run("if a failure is injected", func(t *testing.T) {
			failErr := errors.New("backend down")
			svc := NewStub(LoginDelay(0), FailWith(failErr))

			ok, err := svc.Login(context.Background(), "a@b.com", "pw")
			assert.ErrorIs(t, err, failErr)
			assert.False(t, ok)
		})
	})
}

func TestValidating(t *testing.T) {
	svc := Validating(NewStub(LoginDelay(0), RegisterDelay(0)))

	testCases := []struct {
		Name        string
		Email       string
		Password    string
		DisplayName string
		Field       string
	}{
		{Name: "empty email", Email: " ", Password: "pw", DisplayName: "Ann", Field: "email"},
		{Name: "email without domain", Email: "ann@", Password: "pw", DisplayName: "Ann", Field: "email"},
		{Name: "email without at sign", Email: "ann", Password: "pw", DisplayName: "Ann", Field: "email"},
		{Name: "empty password", Email: "a@b.com", Password: "", DisplayName: "Ann", Field: "password"},
		{Name: "empty display name", Email: "a@b.com", Password: "pw", DisplayName: "", Field: "displayName"},
	}

	for _, testCase := range testCases {
		t.Run("will reject "+testCase.Name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), testCase.Email, testCase.Password, testCase.DisplayName)

			var verr ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, testCase.Field, verr.Field)
		})
	}

	t.Run("will pass well formed credentials through", func(t *testing.T) {
		ok, err := svc.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

type serviceFunc func(context.Context) (bool, error)

func (f serviceFunc) Login(ctx context.Context, _, _ string) (bool, error) {
	return f(ctx)
}

func (f serviceFunc) Register(ctx context.Context, _, _, _ string) (bool, error) {
	return f(ctx)
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("will fail fast", func(t *testing.T) {
		t.Run("after the trip count is reached", func(t *testing.T) {
			var calls atomic.Int64
			backendErr := errors.New("backend down")
			svc := CircuitBreaker(
				serviceFunc(func(context.Context) (bool, error) {
					calls.Add(1)
					return false, backendErr
				}),
				CircuitTripCount(2),
			)

			for i := 0; i < 2; i++ {
				_, err := svc.Login(context.Background(), "a@b.com", "pw")
				assert.ErrorIs(t, err, backendErr)
			}

			_, err := svc.Login(context.Background(), "a@b.com", "pw")
			assert.ErrorIs(t, err, gobreaker.ErrOpenState)
			assert.Equal(t, int64(2), calls.Load())
		})
	})

	t.Run("will not trip", func(t *testing.T) {
		t.Run("on validation errors", func(t *testing.T) {
			svc := CircuitBreaker(
				serviceFunc(func(context.Context) (bool, error) {
					return false, ValidationError{Field: "email", Reason: "bad"}
				}),
				CircuitTripCount(1),
			)

			for i := 0; i < 3; i++ {
				_, err := svc.Register(context.Background(), "", "", "")
				var verr ValidationError
				assert.ErrorAs(t, err, &verr)
			}
		})
	})

	t.Run("will return the wrapped result", func(t *testing.T) {
		svc := CircuitBreaker(serviceFunc(func(context.Context) (bool, error) {
			return true, nil
		}))

		ok, err := svc.Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestClient(t *testing.T) {
	t.Run("will post credentials as json", func(t *testing.T) {
		var got registerRequest
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": true}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL + "/")

		ok, err := c.Register(context.Background(), "a@b.com", "pw", "Ann")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "/register", path)
		assert.Equal(t, registerRequest{Email: "a@b.com", Password: "pw", DisplayName: "Ann"}, got)
	})

	t.Run("will report the backend answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false}`))
		}))
		defer srv.Close()

		ok, err := NewClient(srv.URL).Login(context.Background(), "a@b.com", "pw")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("will return a ValidationError", func(t *testing.T) {
		t.Run("if the backend rejects the input", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"field": "password", "reason": "too short"}`))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Login(context.Background(), "a@b.com", "pw")

			var verr ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, ValidationError{Field: "password", Reason: "too short"}, verr)
		})

		t.Run("with the decode failure as reason if the body is not json", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`<html>rejected</html>`))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Login(context.Background(), "a@b.com", "pw")

			var verr ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, "request", verr.Field)
			assert.Contains(t, verr.Reason, "Unprocessable Entity (unreadable body: ")
		})

		t.Run("with the status text as reason if the body is empty", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Login(context.Background(), "a@b.com", "pw")

			var verr ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, ValidationError{Field: "request", Reason: "Bad Request"}, verr)
		})
	})

	t.Run("will retry", func(t *testing.T) {
		t.Run("if the backend fails with a server error", func(t *testing.T) {
			var calls atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.Write([]byte(`{"success": true}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, MinWaitDuration(time.Millisecond), MaxWaitDuration(time.Millisecond))

			ok, err := c.Login(context.Background(), "a@b.com", "pw")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(2), calls.Load())
		})
	})

	t.Run("will return a StatusError", func(t *testing.T) {
		t.Run("if retries are exhausted", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, MaxAttempts(0))

			_, err := c.Login(context.Background(), "a@b.com", "pw")

			var serr StatusError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
			assert.Equal(t, "/login", serr.Endpoint)
		})
	})
}
