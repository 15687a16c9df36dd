// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

import (
	"fmt"

	"github.com/z5labs/mvi/pkg/logfield"
)

// AuthenticationFailure is the cause carried by a [Failed] change.
type AuthenticationFailure struct {
	Action Action
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e AuthenticationFailure) Error() string {
	return fmt.Sprintf("failed to handle %s: %s", logfield.KindOf(e.Action), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AuthenticationFailure) Unwrap() error {
	return e.Cause
}
