// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"fmt"
	"io"
)

// Terminal renders the login screen's widgets as lines of text.
// Only state changes are written.
type Terminal struct {
	out io.Writer

	busy    bool
	enabled bool
}

// NewTerminal returns widgets which write to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out:     out,
		enabled: true,
	}
}

// ShowBusy implements the screen.Widgets interface.
func (t *Terminal) ShowBusy(visible bool) {
	if visible == t.busy {
		return
	}
	t.busy = visible
	if visible {
		fmt.Fprintln(t.out, "... working")
	}
}

// SetInputsEnabled implements the screen.Widgets interface.
func (t *Terminal) SetInputsEnabled(enabled bool) {
	if enabled == t.enabled {
		return
	}
	t.enabled = enabled
	if enabled {
		fmt.Fprintln(t.out, "[inputs enabled]")
		return
	}
	fmt.Fprintln(t.out, "[inputs disabled]")
}

// Notify implements the screen.Widgets interface.
func (t *Terminal) Notify(msg string) {
	fmt.Fprintf(t.out, ">> %s\n", msg)
}
