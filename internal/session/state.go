// Package session tracks whether the current request has a signed-in
// principal. Resolution starts Unresolved and settles on SignedOut or
// SignedIn; sign-in and sign-out move between the two settled states.
package session

import (
	"errors"

	"github.com/upb/kitchen-dashboard/internal/access"
)

// ErrInvalidTransition is returned for a transition the current status does not allow.
var ErrInvalidTransition = errors.New("invalid session transition")

// Status is the lifecycle stage of a session.
type Status string

const (
	StatusUnresolved Status = "unresolved"
	StatusSignedOut  Status = "signed_out"
	StatusSignedIn   Status = "signed_in"
)

// State is an immutable session value. Transitions return a new State.
type State struct {
	status    Status
	principal *access.Principal
}

// New returns an Unresolved state.
func New() State {
	return State{status: StatusUnresolved}
}

// SignedOut returns a resolved state with no principal.
func SignedOut() State {
	return State{status: StatusSignedOut}
}

// Status returns the lifecycle stage.
func (s State) Status() Status {
	if s.status == "" {
		return StatusUnresolved
	}
	return s.status
}

// Principal returns the signed-in principal, or nil.
func (s State) Principal() *access.Principal {
	return s.principal
}

// Resolution reports whether the gate can decide yet.
func (s State) Resolution() access.Resolution {
	if s.Status() == StatusUnresolved {
		return access.Unresolved
	}
	return access.Resolved
}

// Resolve settles an Unresolved state. A nil principal resolves to SignedOut.
func (s State) Resolve(p *access.Principal) (State, error) {
	if s.Status() != StatusUnresolved {
		return s, ErrInvalidTransition
	}
	if p == nil {
		return SignedOut(), nil
	}
	return State{status: StatusSignedIn, principal: p}, nil
}

// SignIn moves SignedOut to SignedIn.
func (s State) SignIn(p *access.Principal) (State, error) {
	if s.Status() != StatusSignedOut || p == nil {
		return s, ErrInvalidTransition
	}
	return State{status: StatusSignedIn, principal: p}, nil
}

// SignOut moves SignedIn to SignedOut.
func (s State) SignOut() (State, error) {
	if s.Status() != StatusSignedIn {
		return s, ErrInvalidTransition
	}
	return SignedOut(), nil
}
