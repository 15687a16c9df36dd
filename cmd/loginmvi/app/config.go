// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	_ "embed"
	"log/slog"
	"time"

	"github.com/z5labs/mvi/pkg/otelconfig"
)

// DefaultConfig is applied before any user provided config.
//
//go:embed config.yaml
var DefaultConfig []byte

// ConfigKeys are the keys which may be overridden by a config file
// or environment variables.
var ConfigKeys = []string{
	"auth.mode",
	"auth.loginDelay",
	"auth.registerDelay",
	"auth.baseUrl",
	"auth.maxAttempts",
	"auth.circuit.tripCount",
	"auth.circuit.timeout",
	"otel.serviceName",
	"otel.exporter",
	"otel.target",
	"log.level",
}

// AuthMode selects the authentication service.
type AuthMode string

const (
	AuthModeStub AuthMode = "stub"
	AuthModeHTTP AuthMode = "http"
)

// Config is decoded from the embedded defaults, an optional config file
// and LOGINMVI_ environment variables, in that order.
type Config struct {
	Auth struct {
		Mode          AuthMode      `config:"mode"`
		LoginDelay    time.Duration `config:"loginDelay"`
		RegisterDelay time.Duration `config:"registerDelay"`
		BaseURL       string        `config:"baseUrl"`
		MaxAttempts   int           `config:"maxAttempts"`

		Circuit struct {
			TripCount uint32        `config:"tripCount"`
			Timeout   time.Duration `config:"timeout"`
		} `config:"circuit"`
	} `config:"auth"`

	OTel otelconfig.Config `config:"otel"`

	Log struct {
		Level slog.Level `config:"level"`
	} `config:"log"`
}
