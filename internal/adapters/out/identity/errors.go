// internal/adapters/out/identity/errors.go
package identity

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"brihaspati/internal/domain/auth"
)

// toolkitCodes maps the identity toolkit's error messages to auth codes.
// The toolkit reports "CODE" or "CODE : detail".
var toolkitCodes = map[string]auth.Code{
	"INVALID_LOGIN_CREDENTIALS":   auth.CodeInvalidCredentials,
	"INVALID_PASSWORD":            auth.CodeWrongPassword,
	"EMAIL_NOT_FOUND":             auth.CodeUserNotFound,
	"USER_NOT_FOUND":              auth.CodeUserNotFound,
	"INVALID_EMAIL":               auth.CodeInvalidEmail,
	"MISSING_EMAIL":               auth.CodeInvalidEmail,
	"TOO_MANY_ATTEMPTS_TRY_LATER": auth.CodeTooManyAttempts,
	"EMAIL_EXISTS":                auth.CodeAlreadyInUse,
	"WEAK_PASSWORD":               auth.CodeWeakSecret,
	"OPERATION_NOT_ALLOWED":       auth.CodeEnvironmentUnsupported,
	"INVALID_IDP_RESPONSE":        auth.CodeInvalidCredentials,
	"INVALID_REFRESH_TOKEN":       auth.CodeInvalidCredentials,
	"TOKEN_EXPIRED":               auth.CodeInvalidCredentials,
	"USER_DISABLED":               auth.CodeInvalidCredentials,
	"UNAUTHORIZED_DOMAIN":         auth.CodeUnauthorizedOrigin,
	"INVALID_CONTINUE_URI":        auth.CodeUnauthorizedOrigin,
}

// mapError converts transport and toolkit failures into *auth.Error.
// Errors that already are *auth.Error pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var ae *auth.Error
	if errors.As(err, &ae) {
		return err
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		raw := strings.TrimSpace(ge.Message)
		code := raw
		if i := strings.Index(raw, " : "); i > 0 {
			code = raw[:i]
		}
		if c, ok := toolkitCodes[code]; ok {
			return auth.NewError(c, raw, err)
		}
		return auth.NewError(auth.CodeUnknown, raw, err)
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		msg := re.ErrorCode
		if msg == "" {
			msg = strings.TrimSpace(string(re.Body))
		}
		if re.ErrorCode == "invalid_grant" {
			return auth.NewError(auth.CodeInvalidCredentials, msg, err)
		}
		return auth.NewError(auth.CodeUnknown, msg, err)
	}

	if isNetwork(err) {
		return auth.NewError(auth.CodeNetworkUnavailable, err.Error(), err)
	}
	return auth.NewError(auth.CodeUnknown, err.Error(), err)
}

func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
