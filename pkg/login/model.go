// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package login

// Action is an intent raised by the login screen.
type Action interface {
	isAction()
}

// Init is the action a screen starts with. No pipeline reacts to it.
type Init struct{}

// LoginRequest asks to authenticate an existing user.
type LoginRequest struct {
	Email    string
	Password string
}

// RegisterRequest asks to create a new user.
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

func (Init) isAction()            {}
func (LoginRequest) isAction()    {}
func (RegisterRequest) isAction() {}

// Change describes one step of a request's lifecycle.
type Change interface {
	isChange()
}

// Loading is emitted when a request starts.
type Loading struct{}

// Logged carries the outcome of a LoginRequest.
type Logged struct {
	Success bool
}

// Registered carries the outcome of a RegisterRequest.
type Registered struct {
	Success bool
}

// Failed is emitted instead of a result when a request fails.
type Failed struct {
	Cause error
}

func (Loading) isChange()    {}
func (Logged) isChange()     {}
func (Registered) isChange() {}
func (Failed) isChange()     {}

// State is what the login screen renders.
//
// Idle is only true before the first request. Logged and Registered keep
// the result of the latest completed request of their kind.
type State struct {
	Idle       bool
	Loading    bool
	Logged     bool
	Registered bool
	Err        error
}

// InitialState returns the state of a freshly attached screen.
func InitialState() State {
	return State{Idle: true}
}

// Reduce folds c into s. It has no side effects.
func Reduce(s State, c Change) State {
	switch x := c.(type) {
	case Loading:
		s.Idle = false
		s.Loading = true
	case Logged:
		s.Loading = false
		s.Logged = x.Success
	case Registered:
		s.Loading = false
		s.Registered = x.Success
	case Failed:
		s.Loading = false
		s.Err = x.Cause
	}
	return s
}
