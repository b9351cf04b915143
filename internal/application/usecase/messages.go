// internal/application/usecase/messages.go
package usecase

import (
	"errors"

	"brihaspati/internal/domain/auth"
	common "brihaspati/internal/domain/common"
)

const (
	msgGeneric        = "Something went wrong. Please try again later."
	msgNotConfigured  = "Firebase not initialized. Please check your configuration."
	msgNetwork        = "Network error. Please check your connection and try again."
	msgEnvUnsupported = "Please open this website in a web browser (not file://). Use a local server or deploy online."
)

// UserError is a failure with the text shown to the shopper.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func userError(msg string, err error) *UserError {
	return &UserError{Message: msg, Err: err}
}

// MessageOf returns the shopper-facing text for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return msgGeneric
}

// rawMessage is the provider's own text, used as the tail of fallback messages.
func rawMessage(err error) string {
	var ae *auth.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

func signInMessage(err error) string {
	if errors.Is(err, auth.ErrNotConfigured) {
		return msgNotConfigured
	}
	switch auth.CodeOf(err) {
	case auth.CodeNetworkUnavailable:
		return msgNetwork
	case auth.CodeInvalidCredentials:
		return "Invalid email or password. Please check your credentials or create a new account."
	case auth.CodeUserNotFound:
		return "No account found with this email. Please sign up first."
	case auth.CodeWrongPassword:
		return "Incorrect password. Please try again."
	case auth.CodeInvalidEmail:
		return "Please enter a valid email address."
	case auth.CodeTooManyAttempts:
		return "Too many failed attempts. Please try again later."
	case auth.CodeEnvironmentUnsupported:
		return msgEnvUnsupported
	default:
		return "Login failed: " + rawMessage(err)
	}
}

func federatedMessage(err error) string {
	if errors.Is(err, auth.ErrNotConfigured) {
		return msgNotConfigured
	}
	switch auth.CodeOf(err) {
	case auth.CodeNetworkUnavailable:
		return msgNetwork
	case auth.CodeCancelled:
		return "Another sign-in is in progress. Please try again."
	case auth.CodeEnvironmentUnsupported:
		return msgEnvUnsupported
	case auth.CodePopupClosedByUser:
		return "Google login was cancelled. Please try again."
	case auth.CodePopupBlocked:
		return "Popup was blocked. Switching to redirect..."
	case auth.CodeUnauthorizedOrigin:
		return "Domain not authorized in Firebase. Add your site domain in Firebase Authentication > Settings > Authorized domains."
	default:
		return "Google login failed: " + rawMessage(err)
	}
}

func signUpMessage(err error) string {
	if errors.Is(err, auth.ErrNotConfigured) {
		return msgNotConfigured
	}
	switch auth.CodeOf(err) {
	case auth.CodeNetworkUnavailable:
		return msgNetwork
	case auth.CodeAlreadyInUse:
		return "An account with this email already exists. Please sign in instead."
	case auth.CodeInvalidEmail:
		return "Please enter a valid email address."
	case auth.CodeWeakSecret:
		return "Password is too weak. Please choose a stronger password."
	case auth.CodeEnvironmentUnsupported:
		return msgEnvUnsupported
	default:
		return "Sign up failed: " + rawMessage(err)
	}
}
