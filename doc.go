// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mvi bootstraps applications built around the login screen.
//
// An application is described by a config type T and an [AppBuilder] for
// it. [Run] reads the config sources, decodes them into T, builds the
// [App] and runs it:
//
//	err := mvi.Run(
//	    ctx,
//	    mvi.AppBuilderFunc[Config](buildApp),
//	    config.FromYaml(bytes.NewReader(defaultConfig)),
//	    config.FromViper(v),
//	)
//
// The reactive screen itself lives in the login, stream and screen
// packages under pkg/.
package mvi
