// internal/domain/auth/provider_port.go
package auth

import "context"

// Listener receives session-state changes. identity is nil when signed out.
type Listener func(identity *Identity)

// SessionNotifier delivers the current session state at least once after
// start-up (even when there is no session) and again on every change.
type SessionNotifier interface {
	OnSessionStateChange(l Listener) (unsubscribe func())
}

// FederatedCredential is the proof returned by a federated provider
// (for Google: the OpenID Connect id_token).
type FederatedCredential struct {
	ProviderID string
	IDToken    string
}

// Provider is the identity provider port of one storefront session.
//
// Sign-in operations that succeed also notify session listeners, so callers
// don't have to propagate the new identity themselves.
type Provider interface {
	SessionNotifier

	// Start restores the persisted session (if any) and fires the first
	// notification.
	Start(ctx context.Context) error

	// CurrentIdentity is the provider's in-memory view (nil when signed out).
	CurrentIdentity() *Identity

	SignInWithCredentials(ctx context.Context, email, password string) (*Identity, error)
	SignInWithFederated(ctx context.Context, cred FederatedCredential) (*Identity, error)

	// FederatedRedirectURL starts the redirect flow; CompleteFederatedRedirect
	// finishes it with the authorization code returned to the callback.
	FederatedRedirectURL(state string) (string, error)
	CompleteFederatedRedirect(ctx context.Context, code string) (*Identity, error)

	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
}
