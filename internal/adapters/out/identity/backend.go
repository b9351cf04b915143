// internal/adapters/out/identity/backend.go
package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
)

// tokenSet is what every successful sign-in returns.
type tokenSet struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}

// backend is the part of the identity toolkit the provider calls.
type backend interface {
	VerifyPassword(ctx context.Context, email, password string) (*tokenSet, error)
	SignUp(ctx context.Context, email, password string) (*tokenSet, error)
	VerifyAssertion(ctx context.Context, providerID, idToken string) (*tokenSet, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// toolkitBackend calls the Identity Toolkit v3 REST API.
type toolkitBackend struct {
	svc        *identitytoolkit.Service
	requestURI string
}

func newToolkitBackend(svc *identitytoolkit.Service, requestURI string) (*toolkitBackend, error) {
	if svc == nil {
		return nil, errors.New("identity: identitytoolkit service is nil")
	}
	requestURI = strings.TrimSpace(requestURI)
	if requestURI == "" {
		requestURI = "http://localhost"
	}
	return &toolkitBackend{svc: svc, requestURI: requestURI}, nil
}

func (b *toolkitBackend) VerifyPassword(ctx context.Context, email, password string) (*tokenSet, error) {
	res, err := b.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	return &tokenSet{
		UID:          res.LocalId,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		IDToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

func (b *toolkitBackend) SignUp(ctx context.Context, email, password string) (*tokenSet, error) {
	res, err := b.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	return &tokenSet{
		UID:          res.LocalId,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		IDToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// VerifyAssertion exchanges a federated provider's id token for a session.
func (b *toolkitBackend) VerifyAssertion(ctx context.Context, providerID, idToken string) (*tokenSet, error) {
	body := url.Values{}
	body.Set("id_token", idToken)
	body.Set("providerId", providerID)

	res, err := b.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        b.requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	if msg := strings.TrimSpace(res.ErrorMessage); msg != "" {
		return nil, mapError(&googleapi.Error{Code: 400, Message: msg})
	}
	return &tokenSet{
		UID:          res.LocalId,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		IDToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

func (b *toolkitBackend) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := b.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	return mapError(err)
}
