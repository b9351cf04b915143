// internal/domain/auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// Code classifies identity provider failures.
type Code string

const (
	CodeInvalidCredentials     Code = "invalid-credentials"
	CodeUserNotFound           Code = "user-not-found"
	CodeWrongPassword          Code = "wrong-password"
	CodeInvalidEmail           Code = "invalid-email"
	CodeTooManyAttempts        Code = "too-many-requests"
	CodeNetworkUnavailable     Code = "network-request-failed"
	CodeEnvironmentUnsupported Code = "operation-not-supported-in-this-environment"
	CodePopupBlocked           Code = "popup-blocked"
	CodePopupClosedByUser      Code = "popup-closed-by-user"
	CodeUnauthorizedOrigin     Code = "unauthorized-domain"
	CodeCancelled              Code = "cancelled-popup-request"
	CodeAlreadyInUse           Code = "email-already-in-use"
	CodeWeakSecret             Code = "weak-password"
	CodeNoAuthEvent            Code = "no-auth-event"
	CodeUnknown                Code = "unknown"
)

var (
	ErrNotConfigured  = errors.New("auth: identity provider not configured")
	ErrAlreadyStarted = errors.New("auth: provider already started")
)

// Error is an identity provider failure. Message carries the provider's raw
// text; user-facing wording is chosen by the application layer from Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth/%s: %s", e.Code, e.Message)
	}
	return "auth/" + string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error with the given code.
func NewError(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// CodeOf returns the Code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae.Code
	}
	return CodeUnknown
}

// HasCode reports whether err is an *Error with code c.
func HasCode(err error, c Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae != nil && ae.Code == c
}
