// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Viper is a Source backed by the settings of a viper instance, e.g. a
// config file read with ReadInConfig and environment variables.
type Viper struct {
	v *viper.Viper
}

// FromViper returns a source which applies every setting v currently holds.
func FromViper(v *viper.Viper) Viper {
	return Viper{v: v}
}

// Apply implements the [Source] interface.
func (src Viper) Apply(store Store) error {
	return Map(src.v.AllSettings()).Apply(store)
}

// NewViper returns a viper instance which reads the optional config file at
// path and binds each of keys to an environment variable named after
// prefix and the key, e.g. LOGINMVI_AUTH_MODE for "auth.mode".
func NewViper(path, prefix string, keys ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys {
		err := v.BindEnv(key)
		if err != nil {
			return nil, err
		}
	}
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	return v, nil
}
