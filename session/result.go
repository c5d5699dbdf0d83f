package session

import (
	"errors"

	"github.com/synclinehq/syncline/identity"
)

// FailureKind classifies a failed session operation.
type FailureKind string

const (
	// KindConfiguration means required configuration was missing.
	KindConfiguration FailureKind = "configuration_error"
	// KindPlatform means the identity platform rejected or failed the call.
	KindPlatform FailureKind = "platform_fault"
)

// Failure is an operation failure carried as data rather than a propagated
// error. Page and route code only ever sees platform faults in this form.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// AuthResult is the uniform outcome of every session operation. Exactly one
// of these holds: Err is nil and User/Session are meaningfully populated, or
// Err is set and both are absent. An absent session with a nil Err is the
// normal "not signed in" outcome, not an error.
type AuthResult struct {
	User    *identity.User    `json:"user"`
	Session *identity.Session `json:"session"`
	Err     *Failure          `json:"error,omitempty"`
}

// OK reports whether the operation completed without a failure.
func (r AuthResult) OK() bool {
	return r.Err == nil
}

// OpResult is the narrower result shape for operations that carry no
// user/session payload (sign-out, password-reset request).
type OpResult struct {
	Err *Failure `json:"error,omitempty"`
}

// OK reports whether the operation completed without a failure.
func (r OpResult) OK() bool {
	return r.Err == nil
}

// failureFrom converts an error from the platform boundary into a Failure.
func failureFrom(err error) *Failure {
	if errors.Is(err, identity.ErrNotConfigured) {
		return &Failure{Kind: KindConfiguration, Message: err.Error()}
	}
	return &Failure{Kind: KindPlatform, Message: err.Error()}
}
